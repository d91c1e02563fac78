package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// ItemResult is the outcome of ingesting one source.
type ItemResult struct {
	Source     string `json:"source"`
	DocumentID string `json:"document_id,omitempty"`
	OK         bool   `json:"ok"`
	Chunks     int    `json:"chunks"`
	Error      string `json:"error,omitempty"`
}

// BatchResult is the ingestion API response.
type BatchResult struct {
	Items     []ItemResult `json:"items"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// DocumentSummary is one entry of the document listing.
type DocumentSummary struct {
	ID          string `json:"id"`
	SourceType  string `json:"source_type"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	PageCount   int    `json:"page_count"`
	ChunkCount  int    `json:"chunk_count"`
	RetrievedAt string `json:"retrieved_at"`
}

// DocumentList is the paginated listing response.
type DocumentList struct {
	Items   []DocumentSummary `json:"items"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"has_more"`
}

// Document is a single stored document with its text.
type Document struct {
	DocumentSummary
	SourceRef   string `json:"source_ref"`
	ContentHash string `json:"content_hash"`
	Text        string `json:"text"`
}

// UploadCmd uploads PDF files for ingestion.
func UploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>...",
		Short: "Upload and ingest PDF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			errOut := cmd.ErrOrStderr()
			batch, err := uploadPDFs(api, args, func(current, total int64) {
				fmt.Fprintf(errOut, "\ruploading %d/%d bytes", current, total)
				if current >= total {
					fmt.Fprintln(errOut)
				}
			})
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			return printBatch(cmd, batch)
		},
	}
}

// uploadPDFs uploads the files that can be opened and reports the others as
// failed items, keeping the order of paths.
func uploadPDFs(api *APIClient, paths []string, onProgress ProgressFunc) (*BatchResult, error) {
	items := make([]ItemResult, len(paths))
	readable := make([]string, 0, len(paths))
	slots := make([]int, 0, len(paths))
	for i, path := range paths {
		if err := checkReadable(path); err != nil {
			items[i] = ItemResult{Source: path, Error: fmt.Sprintf("failed to read file: %v", err)}
			continue
		}
		readable = append(readable, path)
		slots = append(slots, i)
	}

	if len(readable) > 0 {
		resp, err := api.UploadFiles("/api/documents/pdf", readable, onProgress)
		if err != nil {
			return nil, err
		}
		var uploaded BatchResult
		if err := json.Unmarshal(resp.Data, &uploaded); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if len(uploaded.Items) != len(readable) {
			return nil, fmt.Errorf("server returned %d results for %d files", len(uploaded.Items), len(readable))
		}
		for j, item := range uploaded.Items {
			items[slots[j]] = item
		}
	}

	batch := &BatchResult{Items: items}
	for _, item := range items {
		if item.OK {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	return batch, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// ConfluenceCmd ingests Confluence pages by ID.
func ConfluenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confluence <page-id>...",
		Short: "Ingest Confluence pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			resp, err := api.Post("/api/documents/confluence", map[string][]string{"page_ids": args})
			if err != nil {
				return fmt.Errorf("confluence ingestion failed: %w", err)
			}
			return printBatchResponse(cmd, resp)
		},
	}
}

func printBatchResponse(cmd *cobra.Command, resp *APIResponse) error {
	var batch BatchResult
	if err := json.Unmarshal(resp.Data, &batch); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return printBatch(cmd, &batch)
}

// printBatch prints one line per item and fails only when every item failed.
func printBatch(cmd *cobra.Command, batch *BatchResult) error {
	if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
		if err := printJSON(cmd.OutOrStdout(), batch); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		for _, it := range batch.Items {
			if it.OK {
				fmt.Fprintf(out, "ok      %s -> %s (%d chunks)\n", it.Source, it.DocumentID, it.Chunks)
			} else {
				fmt.Fprintf(out, "failed  %s: %s\n", it.Source, it.Error)
			}
		}
		fmt.Fprintf(out, "%d succeeded, %d failed\n", batch.Succeeded, batch.Failed)
	}
	if batch.Failed > 0 && batch.Succeeded == 0 {
		return fmt.Errorf("all %d items failed", batch.Failed)
	}
	return nil
}

// DocsCmd groups the document management commands.
func DocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List, show and delete indexed documents",
	}

	cmd.AddCommand(docsListCmd())
	cmd.AddCommand(docsGetCmd())
	cmd.AddCommand(docsDeleteCmd())

	return cmd
}

func docsListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			q := url.Values{}
			if limit > 0 {
				q.Set("limit", fmt.Sprint(limit))
			}
			if cursor != "" {
				q.Set("cursor", cursor)
			}
			path := "/api/documents"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := api.Get(path)
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}
			var list DocumentList
			if err := json.Unmarshal(resp.Data, &list); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			printDocumentList(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of documents")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func printDocumentList(out io.Writer, list DocumentList) {
	if len(list.Items) == 0 {
		fmt.Fprintln(out, "No documents indexed.")
		return
	}
	for _, d := range list.Items {
		fmt.Fprintf(out, "%-40s %-10s %4d chunks  %s\n", d.ID, d.SourceType, d.ChunkCount, d.Title)
	}
	if list.HasMore && list.Cursor != "" {
		fmt.Fprintf(out, "\nMore documents available. Use --cursor %s\n", list.Cursor)
	}
}

func docsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <document-id>",
		Short: "Show a document and its text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			resp, err := api.Get("/api/documents/" + url.PathEscape(args[0]))
			if err != nil {
				return fmt.Errorf("get failed: %w", err)
			}
			var doc Document
			if err := json.Unmarshal(resp.Data, &doc); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				return printJSON(cmd.OutOrStdout(), doc)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %s\nTitle: %s\nSource: %s (%s)\n", doc.ID, doc.Title, doc.SourceType, doc.SourceRef)
			if doc.URL != "" {
				fmt.Fprintf(out, "URL: %s\n", doc.URL)
			}
			fmt.Fprintf(out, "Pages: %d\nRetrieved: %s\n%s\n%s\n", doc.PageCount, doc.RetrievedAt, strings.Repeat("-", 40), doc.Text)
			return nil
		},
	}
}

func docsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Remove a document and its chunks from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if _, err := api.Delete("/api/documents/" + url.PathEscape(args[0])); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func printJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
