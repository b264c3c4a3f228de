package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arunkumarkundra/choicease/internal/analysis"
	"github.com/arunkumarkundra/choicease/internal/decision"
	"github.com/arunkumarkundra/choicease/internal/hermes"
	"github.com/arunkumarkundra/choicease/internal/metrics"
	"github.com/arunkumarkundra/choicease/internal/scoring"
	"github.com/arunkumarkundra/choicease/internal/store"
)

type DecisionsHandler struct {
	store    store.Store
	hermes   hermes.Client
	analyzer *analysis.Analyzer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewDecisionsHandler(s store.Store, h hermes.Client, a *analysis.Analyzer, m *metrics.Metrics, logger *slog.Logger) *DecisionsHandler {
	return &DecisionsHandler{store: s, hermes: h, analyzer: a, metrics: m, logger: logger}
}

// AnalyzeResponse pairs the stored snapshot with the full report.
type AnalyzeResponse struct {
	Analysis *store.AnalysisSnapshot `json:"analysis"`
	Report   *analysis.Report        `json:"report"`
}

func (h *DecisionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	m, weights, err := readDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}

	d := &store.Decision{
		Title:    m.Title,
		Document: decision.NewDocument(m, weights, time.Now()),
	}
	if err := h.store.CreateDecision(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}

	h.publishSaved(d)
	writeJSON(w, http.StatusCreated, d)
}

func (h *DecisionsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.DecisionFilter{Title: r.URL.Query().Get("title")}
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			writeMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	decisions, err := h.store.ListDecisions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if decisions == nil {
		decisions = []*store.Decision{}
	}
	writeJSON(w, http.StatusOK, decisions)
}

func (h *DecisionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DecisionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}

	m, weights, err := readDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}
	d.Title = m.Title
	d.Document = decision.NewDocument(m, weights, time.Now())

	if err := h.store.UpdateDecision(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}

	h.publishSaved(d)
	writeJSON(w, http.StatusOK, d)
}

func (h *DecisionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid decision id")
		return
	}
	if err := h.store.DeleteDecision(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	publish(h.hermes, h.logger, hermes.SubjectDecisionDeleted(id.String()), hermes.DecisionDeletedEvent{
		DecisionID: id.String(),
	})
	w.WriteHeader(http.StatusNoContent)
}

// Analyze runs the analysis for a saved decision and records a snapshot.
func (h *DecisionsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}

	m, weights, _, err := scoring.Rehydrate(&d.Document)
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
	h.metrics.ObserveAnalysis("decision", rep, time.Since(start))

	raw, err := json.Marshal(rep)
	if err != nil {
		writeError(w, err)
		return
	}
	snap := &store.AnalysisSnapshot{
		DecisionID:      d.ID,
		Winners:         rep.Winners,
		Confidence:      rep.Confidence.Percentage,
		ConfidenceLevel: string(rep.Confidence.Level),
		HighestRisk:     string(rep.Risk.Summary.HighestSeverity),
		Fingerprint:     rep.Fingerprint,
		Report:          raw,
	}
	if st := rep.Confidence.Stability; st != nil {
		pct := st.Percentage
		snap.StabilityPercentage = &pct
	}
	if err := h.store.CreateAnalysis(r.Context(), snap); err != nil {
		writeError(w, err)
		return
	}

	evt := hermes.DecisionAnalyzedEvent{
		DecisionID:      d.ID.String(),
		AnalysisID:      snap.ID.String(),
		Winners:         snap.Winners,
		Confidence:      snap.Confidence,
		ConfidenceLevel: snap.ConfidenceLevel,
		HighestRisk:     snap.HighestRisk,
		AnalyzedAt:      snap.CreatedAt,
	}
	if snap.StabilityPercentage != nil {
		evt.StabilityPercentage = *snap.StabilityPercentage
	}
	publish(h.hermes, h.logger, hermes.SubjectDecisionAnalyzed(d.ID.String()), evt)

	h.logger.Info("decision analyzed",
		"decision_id", d.ID,
		"analysis_id", snap.ID,
		"winners", rep.Winners,
		"confidence", rep.Confidence.Percentage,
	)
	writeJSON(w, http.StatusCreated, AnalyzeResponse{Analysis: snap, Report: rep})
}

func (h *DecisionsHandler) Analyses(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid decision id")
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 0 {
			writeMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	snaps, err := h.store.ListAnalyses(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if snaps == nil {
		snaps = []*store.AnalysisSnapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

// load fetches the decision named in the URL, writing the error response
// itself when it cannot.
func (h *DecisionsHandler) load(w http.ResponseWriter, r *http.Request) (*store.Decision, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid decision id")
		return nil, false
	}
	d, err := h.store.GetDecision(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if d == nil {
		writeMessage(w, http.StatusNotFound, "decision not found")
		return nil, false
	}
	return d, true
}

func (h *DecisionsHandler) publishSaved(d *store.Decision) {
	publish(h.hermes, h.logger, hermes.SubjectDecisionSaved(d.ID.String()), hermes.DecisionSavedEvent{
		DecisionID: d.ID.String(),
		Title:      d.Title,
		Options:    len(d.Document.Options),
		Criteria:   len(d.Document.Criteria),
		SavedAt:    d.UpdatedAt,
	})
}

func publish(h hermes.Client, logger *slog.Logger, subject string, v interface{}) {
	if h == nil {
		return
	}
	if err := h.Publish(subject, v); err != nil {
		logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
