package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/adapters/middleware"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/nestlog/analytics-service/internal/core/ports"
)

// StatisticsHandler handles HTTP requests for weekly active-time
// statistics
type StatisticsHandler struct {
	statisticsService ports.StatisticsService
}

// NewStatisticsHandler creates a new statistics handler
func NewStatisticsHandler(statisticsService ports.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
	}
}

// GetWeeklyStatistics handles GET /babies/{baby_id}/statistics/weekly
// ADMIN: any baby, CAREGIVER: owned only
// Query: ?category=sleep&date=2026-09-01 (date defaults to today)
func (h *StatisticsHandler) GetWeeklyStatistics(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	// Extract user info from context
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		log.Printf("[%s] Failed to get user ID from context", requestID)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		log.Printf("[%s] Invalid user ID: %v", requestID, err)
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	isAdmin := middleware.IsAdmin(r.Context())

	// Extract baby_id from URL path
	babyIDStr := r.PathValue("baby_id")
	babyID, err := uuid.Parse(babyIDStr)
	if err != nil {
		log.Printf("[%s] Invalid baby ID: %v", requestID, err)
		http.Error(w, "invalid baby ID", http.StatusBadRequest)
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		http.Error(w, "missing category parameter", http.StatusBadRequest)
		return
	}

	anchorDate := time.Now()
	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		anchorDate, err = time.Parse("2006-01-02", dateParam)
		if err != nil {
			log.Printf("[%s] Invalid date parameter: %s", requestID, dateParam)
			http.Error(w, "invalid date parameter (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
	}

	stats, err := h.statisticsService.GetWeeklyStatistics(r.Context(), domain.RecordType(category), anchorDate, userID, babyID, isAdmin)
	if err != nil {
		log.Printf("[%s] Failed to get weekly statistics: user_id=%s, is_admin=%v, baby_id=%s, category=%s, error=%v", requestID, userIDStr, isAdmin, babyIDStr, category, err)
		writeServiceError(w, err)
		return
	}

	WeeklyStatisticsTotal.WithLabelValues(category).Inc()

	// Log structured JSON
	logStructured(requestID, userIDStr, isAdmin, "GET", "/babies/"+babyIDStr+"/statistics/weekly", http.StatusOK, time.Since(startTime))

	// Return response
	writeJSON(w, http.StatusOK, stats)
}
