// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crewdesk",
	Short: "Crewdesk is a multi-tenant HR management backend",
	Long: `Crewdesk is a multi-tenant HR and business management backend
that provides a JSON API for employees, contracts, payroll runs, recruitment,
coupons and meetings, with per-tenant storage and mail configuration.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
