package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ppiankov/truthlens/internal/history"
	"github.com/ppiankov/truthlens/internal/model"
	"github.com/ppiankov/truthlens/internal/pipeline"
	"github.com/sirupsen/logrus"
)

const maxRequestBytes = 1 << 20

type analyzeRequest struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Save    bool   `json:"save"`
}

type analyzeResponse struct {
	Result       model.AnalysisResult `json:"result"`
	Notice       string               `json:"notice,omitempty"`
	HistoryID    string               `json:"history_id,omitempty"`
	HistoryError string               `json:"history_error,omitempty"`
}

type historyItem struct {
	model.HistoryEntry
	Badge string `json:"badge"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": model.AppVersion,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	kind := model.DetectKind(body.Content)
	if strings.TrimSpace(body.Kind) != "" {
		k, err := model.ParseKind(body.Kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		kind = k
	}

	req := model.NewRequest(kind, body.Content)
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.analyzer.Analyze(r.Context(), req)
	resp := analyzeResponse{Result: result, Notice: result.Notice()}

	if body.Save && s.history != nil {
		entry := model.NewHistoryEntry(uuid.NewString(), s.userFrom(r), req, result, s.now())
		saved, err := s.history.Save(r.Context(), entry)
		if err != nil {
			logrus.WithError(err).WithField("analysis_id", result.ID).Warn("failed to save history entry")
			resp.HistoryError = "failed to save to history"
		} else {
			resp.HistoryID = saved.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := model.HistoryFilter{
		User:   s.userFrom(r),
		Search: q.Get("q"),
	}
	if k := q.Get("kind"); k != "" && k != "all" {
		kind, err := model.ParseKind(k)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Kind = kind
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	entries, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.internalError(w, err)
		return
	}

	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, historyItem{HistoryEntry: e, Badge: model.Badge(e.Confidence)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": items})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, historyItem{HistoryEntry: entry, Badge: model.Badge(entry.Confidence)})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	err := s.history.Delete(r.Context(), s.userFrom(r), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	n, err := s.history.Clear(r.Context(), s.userFrom(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, r)
	if !ok {
		return
	}

	req := model.AnalysisRequest{Kind: entry.Kind, Content: entry.Content}
	doc := model.NewExportDocument(req, entry.Result, s.now())

	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pipeline.ExportFileName(doc, "md")))
		_, _ = io.WriteString(w, s.renderer.Markdown(doc))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pipeline.ExportFileName(doc, "json")))
	if err := s.renderer.EncodeJSON(w, doc); err != nil {
		logrus.WithError(err).Warn("failed to write export")
	}
}

// lookup fetches the {id} entry for the request's user, writing 404 when absent
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (model.HistoryEntry, bool) {
	entry, err := s.history.Get(r.Context(), s.userFrom(r), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return entry, false
	}
	if err != nil {
		s.internalError(w, err)
		return entry, false
	}
	return entry, true
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	logrus.WithError(err).Error("history request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debug("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
