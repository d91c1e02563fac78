package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/docsmith/internal/cli"
	"github.com/cloo-solutions/docsmith/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "docsmith",
		Short: "Docsmith CLI - design documents from your PDFs and Confluence pages",
		Long: `Docsmith CLI talks to a docsmith server to ingest documents, search them
and generate design documents.

Environment variables:
  DOCSMITH_API_URL     API base URL (default: http://localhost:8080)
  DOCSMITH_API_TOKEN   API token, when the server requires one`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-token", "", "API token (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.ConfluenceCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.GenerateCmd())
	rootCmd.AddCommand(client.DocsCmd())
	rootCmd.AddCommand(client.StatusCmd())
	rootCmd.AddCommand(client.AuthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
