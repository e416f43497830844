package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/truthlens/internal/model"
)

// Analyzer runs one analysis; it never fails
type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisResult
}

// Input is one parsed line of a batch file
type Input struct {
	Line    int
	Request model.AnalysisRequest
	Err     error // Set when the line is not a valid request
}

// AnalyzeJob represents one analysis in a batch
type AnalyzeJob struct {
	Input    Input
	Analyzer Analyzer
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	return &AnalyzeResult{
		Line:    j.Input.Line,
		Request: j.Input.Request,
		Result:  j.Analyzer.Analyze(ctx, j.Input.Request),
	}
}

// AnalyzeResult represents the result of an analysis job
type AnalyzeResult struct {
	Line    int
	Request model.AnalysisRequest
	Result  model.AnalysisResult
	Error   error
}

// GetError returns the error from the analysis result
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many requests concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// Process analyzes valid inputs and returns one result per input, in input
// order. Invalid inputs and inputs skipped by cancellation carry an Error.
func (b *BatchProcessor) Process(ctx context.Context, inputs []Input) []*AnalyzeResult {
	out := make([]*AnalyzeResult, len(inputs))

	var (
		jobs  []Job
		slots []int
	)
	for i, in := range inputs {
		if in.Err != nil {
			out[i] = &AnalyzeResult{Line: in.Line, Request: in.Request, Error: in.Err}
			continue
		}
		jobs = append(jobs, &AnalyzeJob{Input: in, Analyzer: b.analyzer})
		slots = append(slots, i)
	}

	results := NewPool(b.concurrency).Run(ctx, jobs)
	for j, res := range results {
		i := slots[j]
		if res == nil {
			out[i] = &AnalyzeResult{Line: inputs[i].Line, Request: inputs[i].Request, Error: fmt.Errorf("not analyzed: %w", ctx.Err())}
			continue
		}
		out[i] = res.(*AnalyzeResult)
	}

	return out
}

// ProcessFile reads requests from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
	inputs, err := ReadRequestsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}
	return b.Process(ctx, inputs), nil
}

// ReadRequestsFromFile reads one request per line from a file
func ReadRequestsFromFile(filePath string) ([]Input, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadRequests(file)
}

// ReadRequests parses batch input. Blank lines and # comments are skipped,
// duplicate requests are dropped, and invalid lines are kept with Err set.
func ReadRequests(r io.Reader) ([]Input, error) {
	var inputs []Input
	seen := make(map[model.AnalysisRequest]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		req, err := ParseLine(line)
		if err != nil {
			inputs = append(inputs, Input{Line: lineNo, Request: req, Err: err})
			continue
		}

		if seen[req] {
			continue
		}
		seen[req] = true
		inputs = append(inputs, Input{Line: lineNo, Request: req})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}

	return inputs, nil
}

// ParseLine turns "text: ...", "url: ...", "video: ..." or a bare line into
// a validated request. Bare lines get their kind detected.
func ParseLine(line string) (model.AnalysisRequest, error) {
	var req model.AnalysisRequest

	if prefix, rest, ok := strings.Cut(line, ":"); ok {
		if kind, err := model.ParseKind(prefix); err == nil {
			req = model.NewRequest(kind, rest)
			return req, req.Validate()
		}
	}

	req = model.NewRequest(model.DetectKind(line), line)
	return req, req.Validate()
}
