package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/truthlens/internal/history"
	"github.com/ppiankov/truthlens/internal/model"
	"github.com/ppiankov/truthlens/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	historyUserFlag string
	historyKind     string
	historySearch   string
	historyLimit    int
	historyYes      bool
	exportMD        bool
	exportOut       string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse, export and delete saved analyses",
	Long: `History keeps analyses saved with --save, per user, in a local SQLite
database (history.path).`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved analyses, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, store *history.Store, user string) error {
			filter := model.HistoryFilter{User: user, Search: historySearch, Limit: historyLimit}
			if historyKind != "" && historyKind != "all" {
				kind, err := model.ParseKind(historyKind)
				if err != nil {
					return err
				}
				filter.Kind = kind
			}

			entries, err := store.List(ctx, filter)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(os.Stderr, "No saved analyses")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s  [%s] %s\n    %s\n",
					e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), model.Badge(e.Confidence), e.Title, e.Preview)
			}

			if total, err := store.Count(ctx, user); err == nil {
				fmt.Fprintf(os.Stderr, "\n%d shown, %d saved for %s in %s\n", len(entries), total, user, store.Path())
			}
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, store *history.Store, user string) error {
			e, err := store.Get(ctx, user, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, e.Title)
			fmt.Fprintln(out, e.Content)
			fmt.Fprintln(out)
			fmt.Fprintln(out, e.Result.Narrative)
			pipeline.NewRenderer().RenderSummary(out, e.Result)
			return nil
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a saved analysis as JSON or Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, store *history.Store, user string) error {
			e, err := store.Get(ctx, user, args[0])
			if err != nil {
				return err
			}

			doc := model.NewExportDocument(model.AnalysisRequest{Kind: e.Kind, Content: e.Content}, e.Result, time.Now())
			r := pipeline.NewRenderer()

			ext := "json"
			if exportMD {
				ext = "md"
			}
			path := exportOut
			if path == "" {
				path = pipeline.ExportFileName(doc, ext)
			}

			if exportMD {
				err = r.RenderMarkdown(doc, path)
			} else {
				err = r.RenderJSON(doc, path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Exported %s to %s\n", e.ID, path)
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, store *history.Store, user string) error {
			if err := store.Delete(ctx, user, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Deleted %s\n", args[0])
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved analysis for the user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !historyYes {
			return fmt.Errorf("refusing to clear history without --yes")
		}
		return withHistory(func(ctx context.Context, store *history.Store, user string) error {
			n, err := store.Clear(ctx, user)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Cleared %d entries for %s\n", n, user)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd, historyDeleteCmd, historyClearCmd)

	historyCmd.PersistentFlags().StringVar(&historyUserFlag, "user", "", "history owner (default: history.user)")

	historyListCmd.Flags().StringVar(&historyKind, "kind", "all", "filter by kind: all, text, url, video")
	historyListCmd.Flags().StringVar(&historySearch, "search", "", "case-insensitive search over title and content")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries (0 = all)")

	historyExportCmd.Flags().BoolVar(&exportMD, "md", false, "export Markdown instead of JSON")
	historyExportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output path (default: truthlens-analysis-<date>.<ext>)")

	historyClearCmd.Flags().BoolVar(&historyYes, "yes", false, "confirm clearing all entries")
}

func withHistory(fn func(ctx context.Context, store *history.Store, user string) error) error {
	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	return fn(context.Background(), store, historyUser(cfg, historyUserFlag))
}
