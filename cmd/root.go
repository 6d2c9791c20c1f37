package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "socratic",
	Short: "Adaptive mastery quiz service",
	Long:  "Socratic is an adaptive quiz backend that tracks per-topic mastery and grows its topic tree as learners level up.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./socratic.yaml, SOCRATIC_* env vars override)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}
