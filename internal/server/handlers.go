package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// closeEntry is one daily close in a history upload.
type closeEntry struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Close  float64 `json:"close"`
}

// handleSaveHistory handles POST /api/history
func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var entries []closeEntry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved := 0
	for _, e := range entries {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid date: "+e.Date)
			return
		}
		if err := s.history.SaveClose(domain.Symbol(e.Symbol), date, e.Close); err != nil {
			s.log.Error().Err(err).Str("symbol", e.Symbol).Msg("Failed to save close")
			s.writeError(w, http.StatusInternalServerError, "Failed to save history")
			return
		}
		saved++
	}

	s.writeJSON(w, http.StatusOK, map[string]int{"saved": saved})
}

// handleGetHistory handles GET /api/history/{symbol}
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	limit := 252
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	closes, err := s.history.Closes(domain.Symbol(symbol), limit)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to load closes")
		s.writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"closes": closes,
	})
}

// insightView is the diagnostics projection of an active insight.
type insightView struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Type      string  `json:"type"`
	Direction int     `json:"direction"`
	Generated string  `json:"generated_time_utc"`
	Close     string  `json:"close_time_utc"`
	Tag       string  `json:"tag,omitempty"`
	GroupID   *string `json:"group_id,omitempty"`
}

// handleGetInsights handles GET /api/insights
func (s *Server) handleGetInsights(w http.ResponseWriter, _ *http.Request) {
	if s.insights == nil {
		s.writeError(w, http.StatusNotFound, "No construction model registered")
		return
	}

	now := time.Now().UTC()
	active := s.insights.GetActiveInsights(now)

	views := make([]insightView, 0, len(active))
	for _, in := range active {
		v := insightView{
			ID:        in.ID.String(),
			Symbol:    string(in.Symbol),
			Type:      insightTypeName(in.Type),
			Direction: int(in.Direction),
			Generated: in.GeneratedTimeUTC.Format(time.RFC3339),
			Close:     in.CloseTimeUTC.Format(time.RFC3339),
			Tag:       in.Tag,
		}
		if in.GroupID != nil {
			id := in.GroupID.String()
			v.GroupID = &id
		}
		views = append(views, v)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"time":     now.Format(time.RFC3339),
		"insights": views,
	})
}

func insightTypeName(t insight.Type) string {
	if t == insight.TypeVolatility {
		return "volatility"
	}
	return "price"
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
