package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/adapters/handler"
	"github.com/nestlog/analytics-service/internal/adapters/middleware"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/nestlog/analytics-service/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDosingService is a mock implementation of DosingService
type MockDosingService struct {
	mock.Mock
}

func (m *MockDosingService) CheckSafety(ctx context.Context, babyID uuid.UUID, drugClass domain.DrugClass, proposedAmountMg float64, now time.Time, userID uuid.UUID, isAdmin bool) (*domain.SafetyCheckResult, error) {
	args := m.Called(ctx, babyID, drugClass, proposedAmountMg, now, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SafetyCheckResult), args.Error(1)
}

func (m *MockDosingService) RecordDose(ctx context.Context, babyID uuid.UUID, req ports.RecordDoseRequest, userID uuid.UUID, isAdmin bool) (*domain.DosingEvent, *domain.SafetyCheckResult, error) {
	args := m.Called(ctx, babyID, req, userID, isAdmin)
	var dose *domain.DosingEvent
	if args.Get(0) != nil {
		dose = args.Get(0).(*domain.DosingEvent)
	}
	var result *domain.SafetyCheckResult
	if args.Get(1) != nil {
		result = args.Get(1).(*domain.SafetyCheckResult)
	}
	return dose, result, args.Error(2)
}

func caregiverRequest(method, target string, babyID uuid.UUID, userID uuid.UUID, body interface{}) *http.Request {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("baby_id", babyID.String())

	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, middleware.RoleKey, middleware.RoleCaregiver)
	return req.WithContext(ctx)
}

func TestDosingHandler_CheckSafety_Allowed(t *testing.T) {
	mockService := new(MockDosingService)
	dosingHandler := handler.NewDosingHandler(mockService)

	babyID := uuid.New()
	userID := uuid.New()

	mockService.On("CheckSafety", mock.Anything, babyID, domain.DrugAcetaminophen, 80.0, mock.Anything, userID, false).Return(&domain.SafetyCheckResult{
		Allowed:    true,
		Violations: []domain.Violation{},
	}, nil)

	req := caregiverRequest("POST", "/babies/"+babyID.String()+"/dosing/check", babyID, userID, handler.CheckSafetyRequest{
		DrugClass: "acetaminophen",
		AmountMg:  80.0,
	})
	w := httptest.NewRecorder()
	dosingHandler.CheckSafety(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result domain.SafetyCheckResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Allowed)
	mockService.AssertExpectations(t)
}

func TestDosingHandler_CheckSafety_DisallowedIsStill200(t *testing.T) {
	mockService := new(MockDosingService)
	dosingHandler := handler.NewDosingHandler(mockService)

	babyID := uuid.New()
	userID := uuid.New()

	mockService.On("CheckSafety", mock.Anything, babyID, domain.DrugIbuprofen, 40.0, mock.Anything, userID, false).Return(&domain.SafetyCheckResult{
		Allowed:    false,
		Violations: []domain.Violation{domain.ViolationAgeNotSafe},
	}, nil)

	req := caregiverRequest("POST", "/babies/"+babyID.String()+"/dosing/check", babyID, userID, handler.CheckSafetyRequest{
		DrugClass: "ibuprofen",
		AmountMg:  40.0,
	})
	w := httptest.NewRecorder()
	dosingHandler.CheckSafety(w, req)

	// A disallowed dose is a successful check, not an HTTP error
	assert.Equal(t, http.StatusOK, w.Code)

	var result domain.SafetyCheckResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Allowed)
	assert.Contains(t, result.Violations, domain.ViolationAgeNotSafe)
}

func TestDosingHandler_CheckSafety_UnknownBaby(t *testing.T) {
	mockService := new(MockDosingService)
	dosingHandler := handler.NewDosingHandler(mockService)

	babyID := uuid.New()
	userID := uuid.New()

	mockService.On("CheckSafety", mock.Anything, babyID, domain.DrugAcetaminophen, 80.0, mock.Anything, userID, false).Return(nil, domain.ErrNotFound)

	req := caregiverRequest("POST", "/babies/"+babyID.String()+"/dosing/check", babyID, userID, handler.CheckSafetyRequest{
		DrugClass: "acetaminophen",
		AmountMg:  80.0,
	})
	w := httptest.NewRecorder()
	dosingHandler.CheckSafety(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDosingHandler_RecordDose_Created(t *testing.T) {
	mockService := new(MockDosingService)
	dosingHandler := handler.NewDosingHandler(mockService)

	babyID := uuid.New()
	userID := uuid.New()
	administeredAt := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	dose := &domain.DosingEvent{
		ID:             uuid.New(),
		BabyID:         babyID,
		CaregiverID:    userID,
		DrugClass:      domain.DrugAcetaminophen,
		AmountMg:       80.0,
		AdministeredAt: administeredAt,
	}
	mockService.On("RecordDose", mock.Anything, babyID, ports.RecordDoseRequest{
		DrugClass:      domain.DrugAcetaminophen,
		AmountMg:       80.0,
		AdministeredAt: administeredAt,
	}, userID, false).Return(dose, &domain.SafetyCheckResult{Allowed: true, Violations: []domain.Violation{}}, nil)

	req := caregiverRequest("POST", "/babies/"+babyID.String()+"/doses", babyID, userID, handler.RecordDoseRequest{
		DrugClass:      "acetaminophen",
		AmountMg:       80.0,
		AdministeredAt: administeredAt,
	})
	w := httptest.NewRecorder()
	dosingHandler.RecordDose(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp handler.RecordDoseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Dose)
	assert.Equal(t, dose.ID, resp.Dose.ID)
	assert.True(t, resp.Result.Allowed)
}

func TestDosingHandler_RecordDose_DisallowedIs422(t *testing.T) {
	mockService := new(MockDosingService)
	dosingHandler := handler.NewDosingHandler(mockService)

	babyID := uuid.New()
	userID := uuid.New()

	mockService.On("RecordDose", mock.Anything, babyID, mock.Anything, userID, false).Return(nil, &domain.SafetyCheckResult{
		Allowed:    false,
		Violations: []domain.Violation{domain.ViolationTooSoonSinceAnyDose, domain.ViolationTooSoonSameDrug},
	}, nil)

	req := caregiverRequest("POST", "/babies/"+babyID.String()+"/doses", babyID, userID, handler.RecordDoseRequest{
		DrugClass: "acetaminophen",
		AmountMg:  80.0,
	})
	w := httptest.NewRecorder()
	dosingHandler.RecordDose(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp handler.RecordDoseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Dose)
	assert.False(t, resp.Result.Allowed)
	assert.Len(t, resp.Result.Violations, 2)
}

func TestDosingHandler_RecordDose_Unauthorized(t *testing.T) {
	mockService := new(MockDosingService)
	dosingHandler := handler.NewDosingHandler(mockService)

	req := httptest.NewRequest("POST", "/babies/"+uuid.New().String()+"/doses", bytes.NewBufferString("{}"))

	w := httptest.NewRecorder()
	dosingHandler.RecordDose(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "RecordDose")
}

func TestDosingHandler_RecordDose_InvalidBabyID(t *testing.T) {
	mockService := new(MockDosingService)
	dosingHandler := handler.NewDosingHandler(mockService)

	req := httptest.NewRequest("POST", "/babies/nope/doses", bytes.NewBufferString("{}"))
	req.SetPathValue("baby_id", "nope")
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uuid.New().String())
	ctx = context.WithValue(ctx, middleware.RoleKey, middleware.RoleCaregiver)
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	dosingHandler.RecordDose(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "RecordDose")
}
