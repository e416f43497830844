package model

import "time"

// Application tag written into every export
const (
	AppName    = "TruthLens"
	AppVersion = "0.1.0"
)

// ExportDocument is the file format for exported analyses
type ExportDocument struct {
	App          string         `json:"app"`
	Version      string         `json:"version"`
	ExportedAt   time.Time      `json:"exported_at"`
	InputType    Kind           `json:"input_type"`
	InputContent string         `json:"input_content"`
	Result       AnalysisResult `json:"result"`
}

// NewExportDocument wraps a result and its request for export
func NewExportDocument(req AnalysisRequest, result AnalysisResult, now time.Time) ExportDocument {
	return ExportDocument{
		App:          AppName,
		Version:      AppVersion,
		ExportedAt:   now.UTC(),
		InputType:    req.Kind,
		InputContent: req.Content,
		Result:       result,
	}
}
