package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/truthlens/internal/cache"
	"github.com/ppiankov/truthlens/internal/history"
	"github.com/ppiankov/truthlens/internal/llm"
	"github.com/ppiankov/truthlens/internal/model"
	"github.com/ppiankov/truthlens/internal/pipeline"
	"github.com/ppiankov/truthlens/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchSave    bool
	batchUser    string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many inputs from a file in parallel",
	Long: `Batch analyzes one input per line:
- Lines may start with "text:", "url:" or "video:"; otherwise the kind is detected
- Blank lines and lines starting with # are skipped, duplicates are dropped
- Invalid lines are reported and skipped
- Model calls are rate limited per endpoint host (rate_limiting.*)
- Results are reported in input order, one JSON export per input

Example:
  truthlens batch claims.txt
  truthlens batch claims.txt --concurrency 2 --output-dir ./reports --save`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "write one export JSON per input into this directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "save every analysis to history")
	batchCmd.Flags().StringVar(&batchUser, "user", "", "history owner (default: history.user)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  TruthLens Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Model:        %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "  Rate limit:   %.2f req/s (burst %d)\n", cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	if outputDir != "" {
		fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	}
	fmt.Fprintf(os.Stderr, "\n")

	inputs, err := worker.ReadRequestsFromFile(file)
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d inputs\n\n", len(inputs))

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	var store *history.Store
	if batchSave {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer func() { _ = store.Close() }()
	}

	p := newBatchPipeline(cfg)
	results := worker.NewBatchProcessor(p, cfg.Concurrency.Workers).Process(ctx, inputs)

	user := historyUser(cfg, batchUser)
	out := cmd.OutOrStdout()
	var analyzed, remote, failed int

	for _, res := range results {
		if res.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ line %d: %v\n", res.Line, res.Error)
			continue
		}

		analyzed++
		mode := "fallback"
		if res.Result.UsedRemoteModel {
			remote++
			mode = "model"
		}
		fmt.Fprintf(out, "line %-4d %-5s %3d/100  %-20s %-8s %s\n",
			res.Line, res.Request.Kind, res.Result.Confidence, res.Result.Label, mode, model.Preview(res.Request.Content))

		doc := model.NewExportDocument(res.Request, res.Result, time.Now())
		if outputDir != "" {
			path := filepath.Join(outputDir, fmt.Sprintf("line-%04d-%s.json", res.Line, res.Result.ID))
			if err := p.Renderer().RenderJSON(doc, path); err != nil {
				fmt.Fprintf(os.Stderr, "✗ line %d: failed to write JSON: %v\n", res.Line, err)
			}
		}

		if store != nil {
			entry := model.NewHistoryEntry(uuid.NewString(), user, res.Request, res.Result, time.Now())
			if _, err := store.Save(context.Background(), entry); err != nil {
				fmt.Fprintf(os.Stderr, "✗ line %d: failed to save history: %v\n", res.Line, err)
			}
		}
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d inputs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Analyzed:   %d (%d by model, %d by fallback)\n", analyzed, remote, analyzed-remote)
	fmt.Fprintf(os.Stderr, "  Skipped:    %d\n", failed)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// newBatchPipeline rate limits model calls by endpoint host
func newBatchPipeline(cfg *model.Config) *pipeline.Pipeline {
	client := llm.NewClient(llm.ConfigFromModel(cfg.LLM))
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	assessor := worker.NewLimitedAssessor(client, limiter, cfg.LLM.BaseURL)

	return pipeline.NewPipelineWithAssessor(assessor, cache.FromConfig(cfg.Cache))
}
