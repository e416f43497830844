package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/truthlens/internal/model"
)

// Renderer writes analyses as export JSON, Markdown and a terminal summary
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// EncodeJSON writes an export document as indented JSON
func (r *Renderer) EncodeJSON(w io.Writer, doc model.ExportDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// RenderJSON writes the export document to path
func (r *Renderer) RenderJSON(doc model.ExportDocument, path string) error {
	return writeFile(path, func(w io.Writer) error {
		return r.EncodeJSON(w, doc)
	})
}

// RenderMarkdown writes a human-readable export to path
func (r *Renderer) RenderMarkdown(doc model.ExportDocument, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(doc))
		return err
	})
}

// Markdown renders the export document for humans
func (r *Renderer) Markdown(doc model.ExportDocument) string {
	res := doc.Result
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Credibility Report\n\n", doc.App)
	fmt.Fprintf(&b, "- **Analysis ID:** `%s`\n", res.ID)
	fmt.Fprintf(&b, "- **Exported:** %s\n", doc.ExportedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Input type:** %s\n", doc.InputType)
	fmt.Fprintf(&b, "- **Source:** %s\n", res.Source)
	if notice := res.Notice(); notice != "" {
		fmt.Fprintf(&b, "- **Notice:** %s", notice)
		if res.FallbackReason != "" {
			fmt.Fprintf(&b, " (%s)", res.FallbackReason)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("## Input\n\n")
	b.WriteString("```\n")
	b.WriteString(doc.InputContent)
	b.WriteString("\n```\n\n")

	fmt.Fprintf(&b, "## Credibility: %d/100 (%s)\n\n", res.Confidence, res.Label)

	b.WriteString("## Issues\n\n")
	for _, issue := range res.Issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	b.WriteString("\n")

	if len(res.Indicators) > 0 {
		b.WriteString("## Pattern indicators\n\n")
		b.WriteString("| Rule | Phrase | Weight |\n|---|---|---|\n")
		for _, ind := range res.Indicators {
			fmt.Fprintf(&b, "| %s | %s | %+d |\n", ind.Rule, ind.Phrase, ind.Weight)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Statistics\n\n")
	if res.SyntheticStats {
		b.WriteString("_Illustrative counts derived from the score. No sources or claims were actually checked._\n\n")
	}
	b.WriteString("| Sources | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Reliable | %d |\n", res.Sources.Reliable)
	fmt.Fprintf(&b, "| Questionable | %d |\n", res.Sources.Questionable)
	fmt.Fprintf(&b, "| Total checked | %d |\n\n", res.Sources.TotalChecked)
	b.WriteString("| Fact checks | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Verified | %d |\n", res.FactCheck.Verified)
	fmt.Fprintf(&b, "| Conflicting | %d |\n", res.FactCheck.Conflicting)
	fmt.Fprintf(&b, "| Unverified | %d |\n\n", res.FactCheck.Unverified)

	b.WriteString("## Narrative\n\n")
	b.WriteString(res.Narrative)
	b.WriteString("\n\n---\n")
	fmt.Fprintf(&b, "_Generated by %s v%s_\n", doc.App, doc.Version)

	return b.String()
}

// RenderSummary prints a compact summary of a result
func (r *Renderer) RenderSummary(w io.Writer, result model.AnalysisResult) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Credibility: %d/100 (%s)\n", result.Confidence, result.Label)
	fmt.Fprintf(w, "Source:      %s\n", result.Source)
	if notice := result.Notice(); notice != "" {
		fmt.Fprintf(w, "Notice:      %s\n", notice)
	}
	fmt.Fprintf(w, "ID:          %s\n", result.ID)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Issues:")
	for _, issue := range result.Issues {
		fmt.Fprintf(w, "  %s\n", issue)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Sources:     %d reliable, %d questionable, %d checked\n",
		result.Sources.Reliable, result.Sources.Questionable, result.Sources.TotalChecked)
	fmt.Fprintf(w, "Fact checks: %d verified, %d conflicting, %d unverified\n",
		result.FactCheck.Verified, result.FactCheck.Conflicting, result.FactCheck.Unverified)
	if result.SyntheticStats {
		fmt.Fprintln(w, "             (illustrative, derived from the score)")
	}
}

// ParseExport decodes an export document
func ParseExport(rd io.Reader) (model.ExportDocument, error) {
	var doc model.ExportDocument
	dec := json.NewDecoder(rd)
	if err := dec.Decode(&doc); err != nil {
		return model.ExportDocument{}, fmt.Errorf("decode export: %w", err)
	}
	if doc.App != model.AppName {
		return model.ExportDocument{}, fmt.Errorf("not a %s export (app=%q)", model.AppName, doc.App)
	}
	return doc, nil
}

// ReadExport reads an export document from path
func ReadExport(path string) (model.ExportDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ExportDocument{}, fmt.Errorf("open export: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseExport(f)
}

// ExportFileName returns the default export name for an analysis
func ExportFileName(doc model.ExportDocument, ext string) string {
	return fmt.Sprintf("truthlens-analysis-%s.%s", doc.ExportedAt.Format("2006-01-02"), ext)
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
