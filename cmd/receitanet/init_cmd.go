package main

import (
	"github.com/spf13/cobra"

	"receitanet-engine/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write default settings.json and params.json",
	Long: `Write default settings.json and params.json into the data dir. Existing
files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := resolveDataDir()
		if err != nil {
			return err
		}
		settings, params, err := config.EnsureUserConfig(dir)
		if err != nil {
			return err
		}
		cmd.Printf("settings: %s\nparams:   %s\n", settings, params)
		return nil
	},
}
