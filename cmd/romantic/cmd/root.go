package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "romantic",
	Short: "Backend for our little corner of the internet",
	Long: `Serves the content of the site (settings, carousel, quotes, reasons,
timeline and letters) and the password-protected admin API used to edit it.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv file(s) to read before the environment (default .env)")
}
