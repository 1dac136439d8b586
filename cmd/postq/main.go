package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "postq",
	Short: "A prioritized cooperative task scheduler",
	Long:  `postq exercises postTask/yield/controller against a real host loop from the command line.`,
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(yieldDemoCmd)
	rootCmd.PersistentFlags().String("config", "", "path to a postq.yaml config file")
	rootCmd.PersistentFlags().String("csv", "", "optional path to write a CSV event log")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
