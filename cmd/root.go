package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "findingthem",
	Short: "A missing and found person reporting and matching service",
	Long: `FindingThem is a reporting service for missing and found persons.
Individuals, NGOs and police accounts file reports with a photo, and every
submission is matched against the opposite report pool through an external
face-matching tool to produce a ranked list of probable identities.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
