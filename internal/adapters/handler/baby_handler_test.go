package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/adapters/handler"
	"github.com/nestlog/analytics-service/internal/adapters/middleware"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBabyService is a mock implementation of BabyService
type MockBabyService struct {
	mock.Mock
}

func (m *MockBabyService) CreateBaby(ctx context.Context, lastName string, birthDate time.Time, sex domain.Sex, parentUserID uuid.UUID, createdByUserID uuid.UUID, isAdmin bool) (*domain.Baby, error) {
	args := m.Called(ctx, lastName, birthDate, sex, parentUserID, createdByUserID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Baby), args.Error(1)
}

func (m *MockBabyService) GetBaby(ctx context.Context, babyID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.Baby, error) {
	args := m.Called(ctx, babyID, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Baby), args.Error(1)
}

func (m *MockBabyService) ListBabies(ctx context.Context, userID uuid.UUID, isAdmin bool) ([]*domain.Baby, error) {
	args := m.Called(ctx, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Baby), args.Error(1)
}

func adminRequest(method, target string, userID uuid.UUID, body interface{}) *http.Request {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, middleware.RoleKey, middleware.RoleAdmin)
	return req.WithContext(ctx)
}

func TestBabyHandler_CreateBaby_Success(t *testing.T) {
	mockService := new(MockBabyService)
	babyHandler := handler.NewBabyHandler(mockService)

	userID := uuid.New()
	parentUserID := uuid.New()
	birthDate := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	expectedBaby := &domain.Baby{
		ID:           uuid.New(),
		LastName:     "Doe",
		BirthDate:    birthDate,
		Sex:          domain.SexFemale,
		ParentUserID: parentUserID,
	}
	mockService.On("CreateBaby", mock.Anything, "Doe", birthDate, domain.SexFemale, parentUserID, userID, true).Return(expectedBaby, nil)

	req := adminRequest("POST", "/babies", userID, handler.CreateBabyRequest{
		LastName:     "Doe",
		BirthDate:    birthDate,
		Sex:          "female",
		ParentUserID: parentUserID,
	})
	w := httptest.NewRecorder()
	babyHandler.CreateBaby(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var baby domain.Baby
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &baby))
	assert.Equal(t, expectedBaby.ID, baby.ID)
	mockService.AssertExpectations(t)
}

func TestBabyHandler_CreateBaby_Unauthorized(t *testing.T) {
	mockService := new(MockBabyService)
	babyHandler := handler.NewBabyHandler(mockService)

	req := httptest.NewRequest("POST", "/babies", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	babyHandler.CreateBaby(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "CreateBaby")
}

func TestBabyHandler_CreateBaby_Forbidden(t *testing.T) {
	mockService := new(MockBabyService)
	babyHandler := handler.NewBabyHandler(mockService)

	userID := uuid.New()
	mockService.On("CreateBaby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, userID, false).Return(nil, errors.New("forbidden: only ADMIN can create babies"))

	req := caregiverRequest("POST", "/babies", uuid.New(), userID, handler.CreateBabyRequest{
		LastName:     "Doe",
		BirthDate:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Sex:          "female",
		ParentUserID: uuid.New(),
	})
	w := httptest.NewRecorder()
	babyHandler.CreateBaby(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBabyHandler_CreateBaby_InvalidBody(t *testing.T) {
	mockService := new(MockBabyService)
	babyHandler := handler.NewBabyHandler(mockService)

	req := httptest.NewRequest("POST", "/babies", bytes.NewBufferString("not json"))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uuid.New().String())
	ctx = context.WithValue(ctx, middleware.RoleKey, middleware.RoleAdmin)
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	babyHandler.CreateBaby(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateBaby")
}

func TestBabyHandler_GetBaby_Success(t *testing.T) {
	mockService := new(MockBabyService)
	babyHandler := handler.NewBabyHandler(mockService)

	babyID := uuid.New()
	userID := uuid.New()

	mockService.On("GetBaby", mock.Anything, babyID, userID, false).Return(&domain.Baby{
		ID:           babyID,
		LastName:     "Doe",
		ParentUserID: userID,
	}, nil)

	req := caregiverRequest("GET", "/babies/"+babyID.String(), babyID, userID, nil)
	w := httptest.NewRecorder()
	babyHandler.GetBaby(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var baby domain.Baby
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &baby))
	assert.Equal(t, babyID, baby.ID)
}

func TestBabyHandler_GetBaby_NotFound(t *testing.T) {
	mockService := new(MockBabyService)
	babyHandler := handler.NewBabyHandler(mockService)

	babyID := uuid.New()
	userID := uuid.New()

	mockService.On("GetBaby", mock.Anything, babyID, userID, false).Return(nil, domain.ErrNotFound)

	req := caregiverRequest("GET", "/babies/"+babyID.String(), babyID, userID, nil)
	w := httptest.NewRecorder()
	babyHandler.GetBaby(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBabyHandler_ListBabies_Success(t *testing.T) {
	mockService := new(MockBabyService)
	babyHandler := handler.NewBabyHandler(mockService)

	userID := uuid.New()
	mockService.On("ListBabies", mock.Anything, userID, true).Return([]*domain.Baby{
		{ID: uuid.New(), LastName: "Doe"},
		{ID: uuid.New(), LastName: "Smith"},
	}, nil)

	req := adminRequest("GET", "/babies", userID, nil)
	w := httptest.NewRecorder()
	babyHandler.ListBabies(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var babies []*domain.Baby
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &babies))
	assert.Len(t, babies, 2)
}
