package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/llm"
)

// UsageResponse reports model usage and budget consumption
type UsageResponse struct {
	Total  llm.UsageStats    `json:"total"`
	Hourly llm.UsageStats    `json:"hourly"`
	Daily  llm.UsageStats    `json:"daily"`
	Budget llm.BudgetStatus  `json:"budget"`
	Recent []llm.UsageRecord `json:"recent,omitempty"`
}

func (s *Server) cacheStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Cache == nil {
		writeError(w, http.StatusNotFound, "cache disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Cache.Stats())
}

func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	if s.deps.Cache == nil {
		writeError(w, http.StatusNotFound, "cache disabled")
		return
	}

	if err := s.deps.Cache.Clear(); err != nil {
		log.Error().Err(err).Msg("failed to clear cache")
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}

	log.Info().Msg("cache cleared via API")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) usage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Usage == nil {
		writeError(w, http.StatusNotFound, "usage tracking disabled")
		return
	}

	t := s.deps.Usage
	writeJSON(w, http.StatusOK, UsageResponse{
		Total:  t.GetStats(),
		Hourly: t.GetHourlyStats(),
		Daily:  t.GetDailyStats(),
		Budget: t.GetBudgetStatus(),
		Recent: t.RecentRecords(20),
	})
}
