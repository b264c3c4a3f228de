package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arunkumarkundra/choicease/internal/decision"
	"github.com/arunkumarkundra/choicease/internal/hermes"
	"github.com/arunkumarkundra/choicease/internal/metrics"
	"github.com/arunkumarkundra/choicease/internal/scoring"
	"github.com/arunkumarkundra/choicease/internal/store"
	"github.com/arunkumarkundra/choicease/internal/whatif"
)

type WhatIfHandler struct {
	manager *whatif.Manager
	store   store.Store
	hermes  hermes.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewWhatIfHandler(wm *whatif.Manager, s store.Store, h hermes.Client, m *metrics.Metrics, logger *slog.Logger) *WhatIfHandler {
	return &WhatIfHandler{manager: wm, store: s, hermes: h, metrics: m, logger: logger}
}

type CreateWhatIfRequest struct {
	DecisionID string             `json:"decision_id,omitempty"`
	Document   *decision.Document `json:"document,omitempty"`
}

type SetWeightsRequest struct {
	Weights map[string]float64 `json:"weights"`
}

// SessionView is the externally visible state of a what-if session.
type SessionView struct {
	SessionID         string          `json:"session_id"`
	State             whatif.State    `json:"state"`
	RawWeights        map[int]float64 `json:"raw_weights"`
	NormalizedWeights scoring.Weights `json:"normalized_weights"`
	CacheSize         int             `json:"cache_size"`
	Result            whatif.Outcome  `json:"result"`
}

func (h *WhatIfHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWhatIfRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var doc *decision.Document
	switch {
	case req.Document != nil:
		doc = req.Document
	case req.DecisionID != "":
		if h.store == nil {
			writeMessage(w, http.StatusServiceUnavailable, "decision storage is not configured")
			return
		}
		id, err := uuid.Parse(req.DecisionID)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid decision_id")
			return
		}
		d, err := h.store.GetDecision(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if d == nil {
			writeMessage(w, http.StatusNotFound, "decision not found")
			return
		}
		doc = &d.Document
	default:
		writeMessage(w, http.StatusBadRequest, "decision_id or document required")
		return
	}

	m, weights, _, err := scoring.Rehydrate(doc)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := h.manager.Create(m, weights)
	if err != nil {
		writeError(w, err)
		return
	}

	out, _ := s.Result()
	publish(h.hermes, h.logger, hermes.SubjectWhatIfOpened(s.ID()), hermes.WhatIfOpenedEvent{
		SessionID:  s.ID(),
		DecisionID: req.DecisionID,
		Winners:    out.Winners,
	})
	writeJSON(w, http.StatusCreated, view(s, out))
}

// Get returns the last evaluation. With flush=true a pending change is
// evaluated first.
func (h *WhatIfHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var out whatif.Outcome
	if flush, _ := strconv.ParseBool(r.URL.Query().Get("flush")); flush {
		out, err = s.Flush()
		if err != nil {
			writeError(w, err)
			return
		}
	} else {
		out, _ = s.Result()
	}
	writeJSON(w, http.StatusOK, view(s, out))
}

// SetWeights applies raw weights. Evaluation happens after the debounce
// period, so the response reports the pending state and the previous result.
func (h *WhatIfHandler) SetWeights(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req SetWeightsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Weights) == 0 {
		writeMessage(w, http.StatusBadRequest, "weights required")
		return
	}
	values := make(map[int]float64, len(req.Weights))
	for key, v := range req.Weights {
		id, err := strconv.Atoi(key)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "criterion ids must be integers")
			return
		}
		values[id] = v
	}

	if err := s.SetWeights(values); err != nil {
		writeError(w, err)
		return
	}
	out, _ := s.Result()
	writeJSON(w, http.StatusAccepted, view(s, out))
}

func (h *WhatIfHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := s.Reset()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(s, out))
}

func (h *WhatIfHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// trackSessions refreshes the open-session gauge after each what-if request,
// which also picks up sessions closed by the reaper.
func (h *WhatIfHandler) trackSessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		h.metrics.SetSessions(h.manager.Len())
	})
}

func view(s *whatif.Session, out whatif.Outcome) SessionView {
	return SessionView{
		SessionID:         s.ID(),
		State:             s.State(),
		RawWeights:        s.RawWeights(),
		NormalizedWeights: s.NormalizedWeights(),
		CacheSize:         s.CacheLen(),
		Result:            out,
	}
}

// WhatIfHook returns the evaluation callback wired into the session manager.
// It records metrics and publishes winner changes.
func WhatIfHook(h hermes.Client, m *metrics.Metrics, logger *slog.Logger) func(whatif.Outcome) {
	return func(out whatif.Outcome) {
		m.ObserveWhatIf(out)
		if !out.WinnerChanged {
			return
		}
		weights := make(map[string]float64, len(out.Weights))
		for id, v := range out.Weights {
			weights[strconv.Itoa(id)] = v
		}
		logger.Info("what-if winner changed",
			"session_id", out.SessionID,
			"previous", out.PreviousWinners,
			"winners", out.Winners,
		)
		publish(h, logger, hermes.SubjectWhatIfWinnerChanged(out.SessionID), hermes.WhatIfWinnerChangedEvent{
			SessionID:       out.SessionID,
			PreviousWinners: out.PreviousWinners,
			Winners:         out.Winners,
			Weights:         weights,
			Fingerprint:     out.Fingerprint,
			EvaluatedAt:     out.EvaluatedAt,
		})
	}
}
