package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/truthlens/internal/history"
	"github.com/ppiankov/truthlens/internal/model"
	"github.com/ppiankov/truthlens/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	analyzeKind    string
	analyzeFile    string
	outJSON        string
	outMD          string
	analyzeSave    bool
	analyzeUser    string
	analyzeTimeout time.Duration
	quiet          bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [content]",
	Short: "Assess the credibility of text, a link or a video link",
	Long: `Analyze sends the content to the configured model and prints a
credibility score, the model's narrative and supporting indicators.

Links are not fetched: the link text itself is assessed. When the model
cannot be reached the local heuristic is used and the output says so.

Example:
  truthlens analyze "Scientists discovered a miracle cure that big pharma hides"
  truthlens analyze --kind url https://example.com/story --json report.json
  truthlens analyze --file article.txt --md report.md --save
  echo "some claim" | truthlens analyze --file -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeKind, "kind", "auto", "content kind: text, url, video or auto")
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "read content from file (- for stdin)")
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "write export JSON to path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "write Markdown report to path")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "save the analysis to history")
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "history owner (default: history.user)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the score")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	content, err := readContent(args, analyzeFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	req, err := buildRequest(analyzeKind, content)
	if err != nil {
		return err
	}

	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing %s content (%d chars)\n", req.Kind, len(req.Content))
		fmt.Fprintf(os.Stderr, "Model: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Cache: %v\n\n", cfg.Cache.Enabled)
	}

	p := pipeline.NewPipeline(cfg)
	result := p.Analyze(ctx, req)

	if quiet {
		fmt.Fprintln(cmd.OutOrStdout(), result.Confidence)
	} else {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, result.Narrative)
		p.Renderer().RenderSummary(out, result)
	}

	if notice := result.Notice(); notice != "" && !quiet {
		fmt.Fprintf(os.Stderr, "\n⚠️  %s: %s\n", notice, result.FallbackReason)
	}

	doc := model.NewExportDocument(req, result, time.Now())
	if outJSON != "" {
		if err := p.Renderer().RenderJSON(doc, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
	}
	if outMD != "" {
		if err := p.Renderer().RenderMarkdown(doc, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
	}

	if analyzeSave {
		id, err := saveToHistory(context.Background(), cfg, historyUser(cfg, analyzeUser), req, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Saved to history: %s\n", id)
	}

	return nil
}

// readContent takes content from the argument, a file, or stdin ("-")
func readContent(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", fmt.Errorf("pass content as an argument or with --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read content file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("no content given (pass it as an argument or with --file)")
	}
}

// buildRequest validates content for the given kind ("auto" detects it)
func buildRequest(kind, content string) (model.AnalysisRequest, error) {
	k := model.DetectKind(content)
	if !strings.EqualFold(kind, "auto") && kind != "" {
		parsed, err := model.ParseKind(kind)
		if err != nil {
			return model.AnalysisRequest{}, err
		}
		k = parsed
	}

	req := model.NewRequest(k, content)
	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("invalid input: %w", err)
	}
	return req, nil
}

func historyUser(cfg *model.Config, flagUser string) string {
	if flagUser != "" {
		return flagUser
	}
	return cfg.History.User
}

func saveToHistory(ctx context.Context, cfg *model.Config, user string, req model.AnalysisRequest, result model.AnalysisResult) (string, error) {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return "", fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	entry := model.NewHistoryEntry(uuid.NewString(), user, req, result, time.Now())
	saved, err := store.Save(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("save history: %w", err)
	}
	return saved.ID, nil
}
