package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/adapters/handler"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStatisticsService is a mock implementation of StatisticsService
type MockStatisticsService struct {
	mock.Mock
}

func (m *MockStatisticsService) GetWeeklyStatistics(ctx context.Context, recordType domain.RecordType, anchorDate time.Time, userID uuid.UUID, babyID uuid.UUID, isAdmin bool) (*domain.WeeklyStatistics, error) {
	args := m.Called(ctx, recordType, anchorDate, userID, babyID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WeeklyStatistics), args.Error(1)
}

func TestStatisticsHandler_GetWeeklyStatistics_Success(t *testing.T) {
	mockService := new(MockStatisticsService)
	statisticsHandler := handler.NewStatisticsHandler(mockService)

	babyID := uuid.New()
	userID := uuid.New()
	anchorDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mockService.On("GetWeeklyStatistics", mock.Anything, domain.RecordTypeSleep, anchorDate, userID, babyID, false).Return(&domain.WeeklyStatistics{
		Category:   domain.RecordTypeSleep,
		AnchorDate: anchorDate,
		Days:       emptyWeek(anchorDate),
	}, nil)

	req := caregiverRequest("GET", "/babies/"+babyID.String()+"/statistics/weekly?category=sleep&date=2026-03-10", babyID, userID, nil)
	w := httptest.NewRecorder()
	statisticsHandler.GetWeeklyStatistics(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats domain.WeeklyStatistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, domain.RecordTypeSleep, stats.Category)
	assert.Len(t, stats.Days, 7)
	mockService.AssertExpectations(t)
}

// emptyWeek builds seven empty daily summaries ending at anchor
func emptyWeek(anchor time.Time) []domain.DailyActiveTime {
	days := make([]domain.DailyActiveTime, 0, 7)
	for i := 6; i >= 0; i-- {
		days = append(days, domain.DailyActiveTime{
			Date:   anchor.AddDate(0, 0, -i),
			Blocks: []domain.ActivityBlock{},
		})
	}
	return days
}

func TestStatisticsHandler_GetWeeklyStatistics_MissingCategory(t *testing.T) {
	mockService := new(MockStatisticsService)
	statisticsHandler := handler.NewStatisticsHandler(mockService)

	babyID := uuid.New()
	req := caregiverRequest("GET", "/babies/"+babyID.String()+"/statistics/weekly", babyID, uuid.New(), nil)
	w := httptest.NewRecorder()
	statisticsHandler.GetWeeklyStatistics(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetWeeklyStatistics")
}

func TestStatisticsHandler_GetWeeklyStatistics_InvalidDate(t *testing.T) {
	mockService := new(MockStatisticsService)
	statisticsHandler := handler.NewStatisticsHandler(mockService)

	babyID := uuid.New()
	req := caregiverRequest("GET", "/babies/"+babyID.String()+"/statistics/weekly?category=sleep&date=03-10-2026", babyID, uuid.New(), nil)
	w := httptest.NewRecorder()
	statisticsHandler.GetWeeklyStatistics(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetWeeklyStatistics")
}

func TestStatisticsHandler_GetWeeklyStatistics_InstantaneousCategory(t *testing.T) {
	mockService := new(MockStatisticsService)
	statisticsHandler := handler.NewStatisticsHandler(mockService)

	babyID := uuid.New()
	userID := uuid.New()

	mockService.On("GetWeeklyStatistics", mock.Anything, domain.RecordTypeFever, mock.Anything, userID, babyID, false).Return(nil, domain.ErrInvalidInput)

	req := caregiverRequest("GET", "/babies/"+babyID.String()+"/statistics/weekly?category=fever", babyID, userID, nil)
	w := httptest.NewRecorder()
	statisticsHandler.GetWeeklyStatistics(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
