package api

import (
	"net/http"

	"github.com/arunkumarkundra/choicease/internal/analysis"
	"github.com/arunkumarkundra/choicease/internal/whatif"
)

type AdminHandler struct {
	analyzer *analysis.Analyzer
	manager  *whatif.Manager
}

func NewAdminHandler(a *analysis.Analyzer, wm *whatif.Manager) *AdminHandler {
	return &AdminHandler{analyzer: a, manager: wm}
}

type Stats struct {
	WhatIfSessions      int     `json:"whatif_sessions"`
	StabilityTrials     int     `json:"stability_trials"`
	StabilityNoise      float64 `json:"stability_noise"`
	SatisficerThreshold float64 `json:"satisficer_threshold"`
	Seeded              bool    `json:"seeded"`
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	settings := h.analyzer.Settings()
	writeJSON(w, http.StatusOK, Stats{
		WhatIfSessions:      h.manager.Len(),
		StabilityTrials:     settings.StabilityTrials,
		StabilityNoise:      settings.StabilityNoise,
		SatisficerThreshold: settings.SatisficerThreshold,
		Seeded:              settings.Seed != 0,
	})
}
