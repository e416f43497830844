package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const previewLength = 100

// HistoryEntry is a saved analysis owned by one user
type HistoryEntry struct {
	ID         string         `json:"id"`
	User       string         `json:"user"`
	CreatedAt  time.Time      `json:"created_at"`
	Kind       Kind           `json:"kind"`
	Title      string         `json:"title"`
	Preview    string         `json:"preview"`
	Content    string         `json:"content"`
	Confidence int            `json:"confidence"`
	Result     AnalysisResult `json:"result"`
}

// HistoryFilter narrows a history listing
type HistoryFilter struct {
	User   string
	Kind   Kind   // Empty matches all kinds
	Search string // Case-insensitive match against title and content
	Limit  int    // 0 = no limit
}

// NewHistoryEntry builds the history record for a finished analysis
func NewHistoryEntry(id, user string, req AnalysisRequest, result AnalysisResult, now time.Time) HistoryEntry {
	return HistoryEntry{
		ID:         id,
		User:       user,
		CreatedAt:  now.UTC(),
		Kind:       req.Kind,
		Title:      HistoryTitle(req.Kind, result),
		Preview:    Preview(req.Content),
		Content:    req.Content,
		Confidence: result.Confidence,
		Result:     result,
	}
}

// HistoryTitle renders e.g. "Url Analysis (AI-Powered) - 73% Credible"
func HistoryTitle(kind Kind, result AnalysisResult) string {
	mode := "Fallback"
	if result.UsedRemoteModel {
		mode = "AI-Powered"
	}

	name := string(kind)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}

	return fmt.Sprintf("%s Analysis (%s) - %d%% Credible", name, mode, result.Confidence)
}

// Preview truncates content to 100 characters, appending "..." when cut
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLength]) + "..."
}
