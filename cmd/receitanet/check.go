package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"receitanet-engine/internal/companies"
	"receitanet-engine/internal/config"
	"receitanet-engine/internal/dates"
	"receitanet-engine/internal/receitanet"
	"receitanet-engine/internal/rpa"
	"receitanet-engine/internal/secrets"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration, company list and template images",
	Long: `Validate settings.json and params.json, read the company list and make
sure every template image the enabled document types need is on disk.
Nothing is clicked.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, v, err := loadConfig(config.Overrides{})
	if err != nil {
		return err
	}
	cmd.Printf("data dir: %s\n", cfg.DataDir)
	for _, w := range v.Warnings {
		cmd.Printf("warning: %s\n", w)
	}
	for _, e := range v.Errors {
		cmd.Printf("error: %s\n", e)
	}
	problems := len(v.Errors)

	if list, err := companies.ReadFile(cfg.Settings.Empresas); err != nil {
		cmd.Printf("error: %v\n", err)
		problems++
	} else {
		selected := companies.Filter(list.Companies, cfg.Params.CNPJ)
		cmd.Printf("companies: %d (%d selected, encoding %s)\n", len(list.Companies), len(selected), list.Encoding)
	}

	types, unknown := receitanet.EnabledTypes(cfg.Params.Types)
	for _, u := range unknown {
		cmd.Printf("warning: unknown document type %q\n", u)
	}
	cmd.Printf("document types: %v\n", types)

	var months []time.Time
	if cfg.Settings.Locator.Dates != "ocr" {
		start, err1 := dates.ParseISO(cfg.Params.Period.StartDate)
		end, err2 := dates.ParseISO(cfg.Params.Period.EndDate)
		if err1 == nil && err2 == nil {
			months = dates.MonthlyStarts(start, end)
		}
	}
	sess := rpa.NewSession(cfg.Settings.RPA(), nil, nil)
	missing := 0
	for _, img := range receitanet.RequiredImages(types, cfg.Settings.Certificado, months) {
		if !sess.Exists(img) {
			cmd.Printf("missing image: %s\n", sess.Path(img))
			missing++
		}
	}
	problems += missing

	if _, err := secrets.PIN(cfg.Settings.Certificado); err != nil && !errors.Is(err, secrets.ErrNoPIN) {
		cmd.Printf("warning: keychain: %v\n", err)
	}

	if problems > 0 {
		return fmt.Errorf("%d problems found", problems)
	}
	cmd.Println("ok")
	return nil
}
