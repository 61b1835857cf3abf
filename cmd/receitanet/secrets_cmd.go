package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"receitanet-engine/internal/config"
	"receitanet-engine/internal/secrets"
)

func init() {
	rootCmd.AddCommand(secretsCmd)
	secretsCmd.AddCommand(setPINCmd, deletePINCmd)
}

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage the certificate PIN in the OS keychain",
}

var setPINCmd = &cobra.Command{
	Use:   "set-pin",
	Short: "Store the PIN of the configured certificate",
	Long: `Store the PIN of the configured certificate in the OS keychain. The PIN
is read from the first line of stdin.

Examples:
  echo 1234 | receitanet secrets set-pin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cert, err := certificate()
		if err != nil {
			return err
		}
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read pin: %w", err)
		}
		if err := secrets.SetPIN(cert, strings.TrimSpace(line)); err != nil {
			return err
		}
		cmd.Printf("PIN stored for certificate %q\n", cert)
		return nil
	},
}

var deletePINCmd = &cobra.Command{
	Use:   "delete-pin",
	Short: "Remove the PIN of the configured certificate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cert, err := certificate()
		if err != nil {
			return err
		}
		err = secrets.DeletePIN(cert)
		if errors.Is(err, secrets.ErrNoPIN) {
			cmd.Printf("no PIN stored for certificate %q\n", cert)
			return nil
		}
		if err != nil {
			return err
		}
		cmd.Printf("PIN removed for certificate %q\n", cert)
		return nil
	},
}

func certificate() (string, error) {
	cfg, _, err := loadConfig(config.Overrides{})
	if err != nil {
		return "", err
	}
	if cfg.Settings.Certificado == "" {
		return "", errors.New("settings.json has no certificado")
	}
	return cfg.Settings.Certificado, nil
}
