package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// GenerateRequest asks the server for a design document.
type GenerateRequest struct {
	Title   string `json:"title,omitempty"`
	Request string `json:"request"`
	K       int    `json:"k,omitempty"`
	Save    bool   `json:"save,omitempty"`
}

// ExportResult tells where the server saved a document.
type ExportResult struct {
	FileName    string `json:"file_name"`
	Path        string `json:"path,omitempty"`
	Key         string `json:"key,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

// GeneratedDocument is the subset of the generate response the CLI uses.
type GeneratedDocument struct {
	Title          string        `json:"title"`
	Provider       string        `json:"provider"`
	FailedSections []string      `json:"failed_sections,omitempty"`
	Markdown       string        `json:"markdown"`
	Export         *ExportResult `json:"export,omitempty"`
}

// GenerateCmd drafts a design document on the server.
func GenerateCmd() *cobra.Command {
	var req GenerateRequest
	var outPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a design document",
		Long:  "Drafts a design document from the indexed knowledge base and prints it as Markdown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			outputJSON, _ := cmd.Flags().GetBool("output")

			// Plain Markdown output needs nothing from the JSON envelope.
			if !outputJSON && !req.Save {
				md, err := api.PostRaw("/api/generate/markdown", req)
				if err != nil {
					return fmt.Errorf("generate failed: %w", err)
				}
				return writeMarkdown(cmd, outPath, string(md))
			}

			resp, err := api.Post("/api/generate", req)
			if err != nil {
				return fmt.Errorf("generate failed: %w", err)
			}
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), json.RawMessage(resp.Data))
			}

			var doc GeneratedDocument
			if err := json.Unmarshal(resp.Data, &doc); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			if err := writeMarkdown(cmd, outPath, doc.Markdown); err != nil {
				return err
			}

			if doc.Export != nil {
				if doc.Export.Path != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "saved on server: %s\n", doc.Export.Path)
				}
				if doc.Export.DownloadURL != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "download: %s\n", doc.Export.DownloadURL)
				}
			}
			if len(doc.FailedSections) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d sections failed: %v\n", len(doc.FailedSections), doc.FailedSections)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Title, "title", "t", "", "Document title (defaults to the request)")
	cmd.Flags().StringVarP(&req.Request, "request", "r", "", "What to design (required)")
	cmd.Flags().IntVarP(&req.K, "k", "k", 0, "Chunks retrieved per section")
	cmd.Flags().BoolVar(&req.Save, "save", false, "Also save the document on the server")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write Markdown to this file instead of stdout")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

func writeMarkdown(cmd *cobra.Command, outPath, md string) error {
	if outPath == "" {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
	return nil
}
