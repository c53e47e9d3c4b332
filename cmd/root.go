// Package cmd implements the kintore-server CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kintore-server",
	Short: "Kintore fitness coach server",
	Long:  "Kintore (筋トレ) backend — a conversational fitness coach with session-scoped hybrid memory.",
}

func Execute() error {
	return rootCmd.Execute()
}
