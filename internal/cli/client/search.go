package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// SearchResult represents a retrieved chunk.
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	SourceType string  `json:"source_type"`
	Page       int     `json:"page,omitempty"`
	URL        string  `json:"url,omitempty"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	Query   string         `json:"query"`
	K       int            `json:"k"`
	Results []SearchResult `json:"results"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents",
		Long:  "Returns the chunks most similar to the query.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/api/search", SearchRequest{Query: args[0], K: k})
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			var searchResp SearchResponse
			if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
				return fmt.Errorf("failed to parse search results: %w", err)
			}

			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				return printJSON(cmd.OutOrStdout(), searchResp)
			}
			printSearchResults(cmd.OutOrStdout(), searchResp)
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 5, "Number of results")

	return cmd
}

func printSearchResults(out io.Writer, resp SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return
	}

	fmt.Fprintf(out, "Found %d results:\n\n", len(resp.Results))
	for i, r := range resp.Results {
		fmt.Fprintf(out, "%d. %s (%.2f)\n", i+1, r.Title, r.Score)
		location := r.DocumentID
		if r.Page > 0 {
			location += fmt.Sprintf(", page %d", r.Page)
		}
		fmt.Fprintf(out, "   %s\n", location)
		text := strings.Join(strings.Fields(r.Text), " ")
		if len([]rune(text)) > 200 {
			text = string([]rune(text)[:197]) + "..."
		}
		fmt.Fprintf(out, "   %s\n", text)
		if i < len(resp.Results)-1 {
			fmt.Fprintln(out, strings.Repeat("-", 40))
		}
	}
}
