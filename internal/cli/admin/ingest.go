package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/docsmith/internal/config"
	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/spf13/cobra"
)

// IngestCmd returns the ingest command group, which writes to the index directly.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest documents into the local index",
	}

	cmd.AddCommand(ingestPDFCmd())
	cmd.AddCommand(ingestConfluenceCmd())

	return cmd
}

func ingestPDFCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pdf <file>...",
		Short: "Ingest PDF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				result, err := ingestPDFFiles(ctx, app.Ingestion, args)
				if err != nil {
					return err
				}
				return printBatch(cmd, result)
			})
		},
	}
}

type pdfIngester interface {
	IngestPDFs(ctx context.Context, uploads []domain.Upload) (*domain.BatchResult, error)
}

// ingestPDFFiles reads and ingests each path. A file that cannot be read
// becomes a failed item; the readable files are still ingested and the items
// keep the order of paths.
func ingestPDFFiles(ctx context.Context, ingester pdfIngester, paths []string) (*domain.BatchResult, error) {
	items := make([]domain.ItemResult, len(paths))
	uploads := make([]domain.Upload, 0, len(paths))
	slots := make([]int, 0, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			items[i] = domain.ItemResult{Source: path, Error: fmt.Sprintf("failed to read file: %v", err)}
			continue
		}
		uploads = append(uploads, domain.Upload{FileName: filepath.Base(path), Data: data})
		slots = append(slots, i)
	}

	if len(uploads) > 0 {
		result, err := ingester.IngestPDFs(ctx, uploads)
		if err != nil {
			return nil, err
		}
		for j, item := range result.Items {
			items[slots[j]] = item
		}
	}

	return &domain.BatchResult{Items: items}, nil
}

func ingestConfluenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confluence <page-id>...",
		Short: "Ingest Confluence pages by ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				result, err := app.Ingestion.IngestConfluence(ctx, args)
				if err != nil {
					return err
				}
				return printBatch(cmd, result)
			})
		},
	}
}

func printBatch(cmd *cobra.Command, result *domain.BatchResult) error {
	out := cmd.OutOrStdout()
	for _, it := range result.Items {
		if it.OK {
			fmt.Fprintf(out, "ok      %s -> %s (%d chunks)\n", it.Source, it.DocumentID, it.Chunks)
		} else {
			fmt.Fprintf(out, "failed  %s: %s\n", it.Source, it.Error)
		}
	}
	fmt.Fprintf(out, "%d succeeded, %d failed\n", result.Succeeded(), result.Failed())
	if result.Failed() > 0 && result.Succeeded() == 0 {
		return fmt.Errorf("all %d items failed", result.Failed())
	}
	return nil
}

// withApp loads config, builds the app and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := Build(ctx, cfg, BuildOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
