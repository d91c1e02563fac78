package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/docsmith/internal/cli"
	"github.com/cloo-solutions/docsmith/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docsmithd",
		Short: "Docsmith server and local index tools",
		Long: `Docsmith daemon for serving the web UI and API, and for working with the
index directly: ingesting, searching, generating and reconciling.

Configuration is read from DOCSMITH_* environment variables and .env.`,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.SearchCmd())
	rootCmd.AddCommand(admin.GenerateCmd())
	rootCmd.AddCommand(admin.ReconcileCmd())
	rootCmd.AddCommand(admin.MigrateCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
