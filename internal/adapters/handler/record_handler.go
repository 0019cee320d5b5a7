package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/adapters/middleware"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/nestlog/analytics-service/internal/core/ports"
)

// RecordHandler handles HTTP requests for care event records
type RecordHandler struct {
	recordService ports.RecordService
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(recordService ports.RecordService) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
	}
}

// CreateRecordRequest represents the request body for creating a care
// event record. EndedAt is required for feeding, sleep and excretion;
// fever and medication events are instantaneous and may omit it.
type CreateRecordRequest struct {
	Type      string    `json:"type"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// CreateRecord handles POST /babies/{baby_id}/records
// CAREGIVER: owned only (ADMIN cannot create records)
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
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

	// Parse request body
	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[%s] Failed to decode request: %v", requestID, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Default start to now for events logged as they happen
	if req.StartedAt.IsZero() {
		req.StartedAt = time.Now()
	}

	record, err := h.recordService.CreateRecord(r.Context(), babyID, ports.CreateRecordRequest{
		Type:      domain.RecordType(req.Type),
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
		Note:      req.Note,
	}, userID, isAdmin)
	if err != nil {
		log.Printf("[%s] Failed to create record: user_id=%s, is_admin=%v, baby_id=%s, error=%v", requestID, userIDStr, isAdmin, babyIDStr, err)
		writeServiceError(w, err)
		return
	}

	// Log structured JSON
	logStructured(requestID, userIDStr, isAdmin, "POST", "/babies/"+babyIDStr+"/records", http.StatusCreated, time.Since(startTime))

	// Return response
	writeJSON(w, http.StatusCreated, record)
}

// GetRecords handles GET /babies/{baby_id}/records
// ADMIN: any baby, CAREGIVER: owned only
// Supports ?type= and ?limit= query filters
func (h *RecordHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
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

	// Parse query parameters for filtering
	var recordType *domain.RecordType
	var limit *int

	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		t := domain.RecordType(typeParam)
		recordType = &t
	}

	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		limitInt, err := strconv.Atoi(limitParam)
		if err != nil || limitInt <= 0 {
			log.Printf("[%s] Invalid limit parameter: %s", requestID, limitParam)
			http.Error(w, "invalid limit parameter (must be positive integer)", http.StatusBadRequest)
			return
		}
		limit = &limitInt
	}

	// Get records with optional filters
	records, err := h.recordService.GetRecords(r.Context(), babyID, userID, isAdmin, recordType, limit)
	if err != nil {
		log.Printf("[%s] Failed to get records: user_id=%s, is_admin=%v, baby_id=%s, error=%v", requestID, userIDStr, isAdmin, babyIDStr, err)
		writeServiceError(w, err)
		return
	}

	// Log structured JSON
	logStructured(requestID, userIDStr, isAdmin, "GET", "/babies/"+babyIDStr+"/records", http.StatusOK, time.Since(startTime))

	// Return response
	writeJSON(w, http.StatusOK, records)
}
