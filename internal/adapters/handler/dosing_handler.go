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

// DosingHandler handles HTTP requests for dosing safety checks and the
// validate-then-record dose flow
type DosingHandler struct {
	dosingService ports.DosingService
}

// NewDosingHandler creates a new dosing handler
func NewDosingHandler(dosingService ports.DosingService) *DosingHandler {
	return &DosingHandler{
		dosingService: dosingService,
	}
}

// CheckSafetyRequest represents the request body for a dry-run safety
// check. At defaults to now when omitted.
type CheckSafetyRequest struct {
	DrugClass string    `json:"drug_class"`
	AmountMg  float64   `json:"amount_mg"`
	At        time.Time `json:"at,omitempty"`
}

// RecordDoseRequest represents the request body for the
// validate-then-record dose flow
type RecordDoseRequest struct {
	DrugClass      string    `json:"drug_class"`
	AmountMg       float64   `json:"amount_mg"`
	AdministeredAt time.Time `json:"administered_at,omitempty"`
}

// RecordDoseResponse is returned by POST /babies/{baby_id}/doses.
// Dose is present only when the check passed and the dose was persisted.
type RecordDoseResponse struct {
	Dose   *domain.DosingEvent      `json:"dose,omitempty"`
	Result domain.SafetyCheckResult `json:"result"`
}

// CheckSafety handles POST /babies/{baby_id}/dosing/check
// ADMIN: any baby, CAREGIVER: owned only
// A disallowed dose is a normal 200 response carrying the violations;
// nothing is persisted either way.
func (h *DosingHandler) CheckSafety(w http.ResponseWriter, r *http.Request) {
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

	var req CheckSafetyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[%s] Failed to decode request: %v", requestID, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.dosingService.CheckSafety(r.Context(), babyID, domain.DrugClass(req.DrugClass), req.AmountMg, req.At, userID, isAdmin)
	if err != nil {
		log.Printf("[%s] Failed to run safety check: user_id=%s, is_admin=%v, baby_id=%s, drug_class=%s, error=%v", requestID, userIDStr, isAdmin, babyIDStr, req.DrugClass, err)
		writeServiceError(w, err)
		return
	}

	observeSafetyCheck(result)

	// Log structured JSON
	logStructured(requestID, userIDStr, isAdmin, "POST", "/babies/"+babyIDStr+"/dosing/check", http.StatusOK, time.Since(startTime))

	writeJSON(w, http.StatusOK, result)
}

// RecordDose handles POST /babies/{baby_id}/doses
// CAREGIVER: owned only (ADMIN cannot record doses)
// Persists the dose only when the safety check passes; a disallowed
// dose returns 422 with the violations and persists nothing.
func (h *DosingHandler) RecordDose(w http.ResponseWriter, r *http.Request) {
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

	var req RecordDoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[%s] Failed to decode request: %v", requestID, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	dose, result, err := h.dosingService.RecordDose(r.Context(), babyID, ports.RecordDoseRequest{
		DrugClass:      domain.DrugClass(req.DrugClass),
		AmountMg:       req.AmountMg,
		AdministeredAt: req.AdministeredAt,
	}, userID, isAdmin)
	if err != nil {
		log.Printf("[%s] Failed to record dose: user_id=%s, is_admin=%v, baby_id=%s, drug_class=%s, error=%v", requestID, userIDStr, isAdmin, babyIDStr, req.DrugClass, err)
		writeServiceError(w, err)
		return
	}

	observeSafetyCheck(result)

	if !result.Allowed {
		logStructured(requestID, userIDStr, isAdmin, "POST", "/babies/"+babyIDStr+"/doses", http.StatusUnprocessableEntity, time.Since(startTime))
		writeJSON(w, http.StatusUnprocessableEntity, RecordDoseResponse{Result: *result})
		return
	}

	// Log structured JSON
	logStructured(requestID, userIDStr, isAdmin, "POST", "/babies/"+babyIDStr+"/doses", http.StatusCreated, time.Since(startTime))

	writeJSON(w, http.StatusCreated, RecordDoseResponse{Dose: dose, Result: *result})
}
