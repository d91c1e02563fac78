package client

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ServerStatus is the /api/status response.
type ServerStatus struct {
	Documents   int    `json:"documents"`
	Chunks      int    `json:"chunks"`
	Pending     int    `json:"pending_ingestions"`
	Backend     string `json:"backend"`
	Embedder    string `json:"embedder"`
	LLMProvider string `json:"llm_provider"`
	Index       *struct {
		EmbeddingModel string `json:"embedding_model"`
		Dimensions     int    `json:"dimensions"`
	} `json:"index,omitempty"`
	Confluence *struct {
		Available bool   `json:"available"`
		Error     string `json:"error,omitempty"`
		URL       string `json:"url"`
		Username  string `json:"username"`
	} `json:"confluence"`
}

// StatusCmd shows index and integration status.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index and integration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			resp, err := api.Get("/api/status")
			if err != nil {
				return fmt.Errorf("status failed: %w", err)
			}
			var status ServerStatus
			if err := json.Unmarshal(resp.Data, &status); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				return printJSON(cmd.OutOrStdout(), status)
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func printStatus(out io.Writer, s ServerStatus) {
	fmt.Fprintf(out, "Documents: %d\nChunks: %d\n", s.Documents, s.Chunks)
	if s.Pending > 0 {
		fmt.Fprintf(out, "Pending ingestions: %d\n", s.Pending)
	}
	fmt.Fprintf(out, "Index: %s\nEmbedder: %s\nGenerator: %s\n", s.Backend, s.Embedder, s.LLMProvider)
	if s.Index != nil {
		fmt.Fprintf(out, "Embedding space: %s (%d dims)\n", s.Index.EmbeddingModel, s.Index.Dimensions)
	}
	if c := s.Confluence; c != nil {
		if c.Available {
			fmt.Fprintf(out, "Confluence: connected to %s as %s\n", c.URL, c.Username)
		} else {
			fmt.Fprintf(out, "Confluence: unavailable (%s)\n", c.Error)
		}
	}
}
