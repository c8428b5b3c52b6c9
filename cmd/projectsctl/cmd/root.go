// Package cmd contains the CLI commands for projectsctl.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var output string

var rootCmd = &cobra.Command{
	Use:   "projectsctl",
	Short: "projectsctl - query the project catalogue",
	Long: `projectsctl fetches projects and their teams from the GraphQL data
source used by the projects-cache server.

Examples:
  # List projects as a table
  projectsctl list --endpoint http://localhost:4000/graphql

  # Same, as JSON
  projectsctl list -o json`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env next to the binary supplies GRAPHQL_ENDPOINT and GRAPHQL_TOKEN.
		_ = godotenv.Load()
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}
