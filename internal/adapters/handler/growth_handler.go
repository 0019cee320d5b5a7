package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/adapters/middleware"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/nestlog/analytics-service/internal/core/ports"
)

// GrowthHandler handles HTTP requests for growth samples, percentile
// classification and the growth trend series
type GrowthHandler struct {
	growthService ports.GrowthService
}

// NewGrowthHandler creates a new growth handler
func NewGrowthHandler(growthService ports.GrowthService) *GrowthHandler {
	return &GrowthHandler{
		growthService: growthService,
	}
}

// RecordSampleRequest represents the request body for recording a
// growth measurement
type RecordSampleRequest struct {
	Type       string    `json:"type"`
	Value      float64   `json:"value"`
	MeasuredAt time.Time `json:"measured_at,omitempty"`
}

// RecordSample handles POST /babies/{baby_id}/growth-samples
// CAREGIVER: owned only (ADMIN cannot record samples)
func (h *GrowthHandler) RecordSample(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

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

	babyIDStr := r.PathValue("baby_id")
	babyID, err := uuid.Parse(babyIDStr)
	if err != nil {
		log.Printf("[%s] Invalid baby ID: %v", requestID, err)
		http.Error(w, "invalid baby ID", http.StatusBadRequest)
		return
	}

	var req RecordSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[%s] Failed to decode request: %v", requestID, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sample, err := h.growthService.RecordSample(r.Context(), babyID, ports.RecordSampleRequest{
		Type:       domain.MeasurementType(req.Type),
		Value:      req.Value,
		MeasuredAt: req.MeasuredAt,
	}, userID, isAdmin)
	if err != nil {
		log.Printf("[%s] Failed to record growth sample: user_id=%s, is_admin=%v, baby_id=%s, error=%v", requestID, userIDStr, isAdmin, babyIDStr, err)
		writeServiceError(w, err)
		return
	}

	// Log structured JSON
	logStructured(requestID, userIDStr, isAdmin, "POST", "/babies/"+babyIDStr+"/growth-samples", http.StatusCreated, time.Since(startTime))

	writeJSON(w, http.StatusCreated, sample)
}

// GetPercentile handles GET /babies/{baby_id}/growth/{type}/percentile
// ADMIN: any baby, CAREGIVER: owned only
func (h *GrowthHandler) GetPercentile(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

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

	babyIDStr := r.PathValue("baby_id")
	babyID, err := uuid.Parse(babyIDStr)
	if err != nil {
		log.Printf("[%s] Invalid baby ID: %v", requestID, err)
		http.Error(w, "invalid baby ID", http.StatusBadRequest)
		return
	}

	measurementType := domain.MeasurementType(r.PathValue("type"))

	result, err := h.growthService.ClassifyPercentile(r.Context(), babyID, measurementType, userID, isAdmin)
	if err != nil {
		log.Printf("[%s] Failed to classify percentile: user_id=%s, is_admin=%v, baby_id=%s, type=%s, error=%v", requestID, userIDStr, isAdmin, babyIDStr, measurementType, err)
		writeServiceError(w, err)
		return
	}

	// Log structured JSON
	logStructured(requestID, userIDStr, isAdmin, "GET", "/babies/"+babyIDStr+"/growth/"+string(measurementType)+"/percentile", http.StatusOK, time.Since(startTime))

	writeJSON(w, http.StatusOK, result)
}

// GetHistory handles GET /babies/{baby_id}/growth/{type}/history
// ADMIN: any baby, CAREGIVER: owned only
func (h *GrowthHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

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

	babyIDStr := r.PathValue("baby_id")
	babyID, err := uuid.Parse(babyIDStr)
	if err != nil {
		log.Printf("[%s] Invalid baby ID: %v", requestID, err)
		http.Error(w, "invalid baby ID", http.StatusBadRequest)
		return
	}

	measurementType := domain.MeasurementType(r.PathValue("type"))

	points, err := h.growthService.GrowthHistory(r.Context(), babyID, measurementType, userID, isAdmin)
	if err != nil {
		log.Printf("[%s] Failed to build growth history: user_id=%s, is_admin=%v, baby_id=%s, type=%s, error=%v", requestID, userIDStr, isAdmin, babyIDStr, measurementType, err)
		writeServiceError(w, err)
		return
	}

	// Log structured JSON
	logStructured(requestID, userIDStr, isAdmin, "GET", "/babies/"+babyIDStr+"/growth/"+string(measurementType)+"/history", http.StatusOK, time.Since(startTime))

	writeJSON(w, http.StatusOK, points)
}
