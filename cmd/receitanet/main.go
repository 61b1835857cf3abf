// Command receitanet downloads SPED files from ReceitanetBX for a list of
// companies by driving the desktop application.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	version   = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "receitanet",
	Short: "Download SPED files from ReceitanetBX",
	Long: `receitanet drives the ReceitanetBX desktop application: it switches the
proxy profile to each company of the CSV list, searches the enabled SPED
document types over the configured period, requests and downloads the files
and moves them into the destination folder.

Move the mouse pointer into any screen corner to stop a run.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "folder holding settings.json and params.json (default $RECEITANET_DATA_DIR or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "console or json")
}
