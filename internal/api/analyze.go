package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/arunkumarkundra/choicease/internal/analysis"
	"github.com/arunkumarkundra/choicease/internal/decision"
	"github.com/arunkumarkundra/choicease/internal/metrics"
	"github.com/arunkumarkundra/choicease/internal/scoring"
)

type AnalyzeHandler struct {
	analyzer *analysis.Analyzer
	metrics  *metrics.Metrics
}

func NewAnalyzeHandler(a *analysis.Analyzer, m *metrics.Metrics) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: a, metrics: m}
}

// Analyze runs the full analysis over a posted export document.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	m, weights, err := readDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	rep, err := h.analyzer.AnalyzeWithWeights(m, weights)
	if err != nil {
		writeError(w, err)
		return
	}
	h.metrics.ObserveAnalysis("api", rep, time.Since(start))
	writeJSON(w, http.StatusOK, rep)
}

type NormalizeRequest struct {
	Importances map[string]int `json:"importances"`
}

type NormalizeResponse struct {
	Weights map[string]float64 `json:"weights"`
	Rounded map[string]int     `json:"rounded"`
	Sum     float64            `json:"sum"`
}

// Normalize converts importances into percentage weights.
func (h *AnalyzeHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	importances := make(map[int]int, len(req.Importances))
	for key, v := range req.Importances {
		id, err := strconv.Atoi(key)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "criterion ids must be integers")
			return
		}
		if v < decision.MinImportance || v > decision.MaxImportance {
			writeMessage(w, http.StatusUnprocessableEntity, decision.ErrImportanceOutOfRange.Error())
			return
		}
		importances[id] = v
	}

	weights := scoring.Normalize(importances)
	resp := NormalizeResponse{
		Weights: make(map[string]float64, len(weights)),
		Rounded: make(map[string]int, len(weights)),
		Sum:     weights.Sum(),
	}
	for id, v := range weights {
		resp.Weights[strconv.Itoa(id)] = v
	}
	for id, v := range weights.Rounded() {
		resp.Rounded[strconv.Itoa(id)] = v
	}
	writeJSON(w, http.StatusOK, resp)
}
