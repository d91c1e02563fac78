package admin

import (
	"context"
	"fmt"
	"os"

	"github.com/cloo-solutions/docsmith/internal/service"
	"github.com/spf13/cobra"
)

// SearchCmd queries the local index.
func SearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the local index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, _ := cmd.Flags().GetInt("k")
			return withApp(cmd, func(ctx context.Context, app *App) error {
				res, err := app.Retrieval.Retrieve(ctx, args[0], k)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(res.Results) == 0 {
					fmt.Fprintln(out, "No results.")
					return nil
				}
				for i, hit := range res.Results {
					page := ""
					if hit.Chunk.Page > 0 {
						page = fmt.Sprintf(" p.%d", hit.Chunk.Page)
					}
					fmt.Fprintf(out, "%d. [%.3f] %s%s (%s)\n   %s\n", i+1, hit.Score, hit.Chunk.Title, page, hit.Chunk.DocumentID, truncate(hit.Chunk.Text, 160))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntP("k", "k", service.DefaultTopK, "Number of results")
	return cmd
}

// GenerateCmd drafts a design document from the local index.
func GenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a design document",
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			request, _ := cmd.Flags().GetString("request")
			outPath, _ := cmd.Flags().GetString("out")
			save, _ := cmd.Flags().GetBool("save")

			return withApp(cmd, func(ctx context.Context, app *App) error {
				doc, err := app.Generator.Generate(ctx, service.GenerateRequest{Title: title, Request: request})
				if err != nil {
					return err
				}
				md := service.RenderMarkdown(doc)

				switch {
				case save:
					res, err := app.Export.Save(ctx, doc)
					if err != nil {
						return err
					}
					if res.Path != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", res.Path)
					}
					if res.DownloadURL != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "download %s\n", res.DownloadURL)
					}
				case outPath != "":
					if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
						return fmt.Errorf("failed to write %s: %w", outPath, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
				default:
					fmt.Fprint(cmd.OutOrStdout(), md)
				}

				if failed := doc.FailedSections(); len(failed) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d sections failed: %v\n", len(failed), failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringP("title", "t", "", "Document title (defaults to the request)")
	cmd.Flags().StringP("request", "r", "", "What to design (required)")
	cmd.Flags().StringP("out", "o", "", "Write Markdown to this file instead of stdout")
	cmd.Flags().Bool("save", false, "Save to the export directory and object storage")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

// ReconcileCmd repairs the index after an interrupted ingestion.
func ReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Resolve pending ingestion records and remove orphaned chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				report, err := app.Reconcile.Reconcile(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled forward: %d\nrolled back: %d\norphaned chunks removed: %d\n",
					report.RolledForward, report.RolledBack, report.OrphanedChunks)
				return nil
			})
		},
	}
}

// MigrateCmd applies database migrations without starting the server.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if app.pool == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "memory backend: nothing to migrate")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}
