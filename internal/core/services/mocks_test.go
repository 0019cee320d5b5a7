package services_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockBabyRepository is a mock implementation of BabyRepository
type MockBabyRepository struct {
	mock.Mock
}

func (m *MockBabyRepository) CreateBaby(ctx context.Context, baby *domain.Baby) error {
	args := m.Called(ctx, baby)
	return args.Error(0)
}

func (m *MockBabyRepository) GetBabyByID(ctx context.Context, babyID uuid.UUID) (*domain.Baby, error) {
	args := m.Called(ctx, babyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Baby), args.Error(1)
}

func (m *MockBabyRepository) ListBabies(ctx context.Context, parentUserID uuid.UUID, isAdmin bool) ([]*domain.Baby, error) {
	args := m.Called(ctx, parentUserID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Baby), args.Error(1)
}

func (m *MockBabyRepository) BabyExists(ctx context.Context, babyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, babyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBabyRepository) CheckBabyOwnership(ctx context.Context, babyID uuid.UUID, parentUserID uuid.UUID) (bool, error) {
	args := m.Called(ctx, babyID, parentUserID)
	return args.Bool(0), args.Error(1)
}

// MockRecordRepository is a mock implementation of RecordRepository
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) CreateRecord(ctx context.Context, record *domain.CareRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRecordRepository) GetRecordsByBabyID(ctx context.Context, babyID uuid.UUID, recordType *domain.RecordType, limit *int) ([]*domain.CareRecord, error) {
	args := m.Called(ctx, babyID, recordType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CareRecord), args.Error(1)
}

func (m *MockRecordRepository) GetIntervalRecords(ctx context.Context, babyID uuid.UUID, category domain.DurationCategory, from, to time.Time) ([]*domain.CareRecord, error) {
	args := m.Called(ctx, babyID, category, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CareRecord), args.Error(1)
}

// MockGrowthRepository is a mock implementation of GrowthRepository
type MockGrowthRepository struct {
	mock.Mock
}

func (m *MockGrowthRepository) CreateSample(ctx context.Context, sample *domain.GrowthSample) error {
	args := m.Called(ctx, sample)
	return args.Error(0)
}

func (m *MockGrowthRepository) GetLatestSample(ctx context.Context, babyID uuid.UUID, measurementType domain.MeasurementType) (*domain.GrowthSample, error) {
	args := m.Called(ctx, babyID, measurementType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GrowthSample), args.Error(1)
}

func (m *MockGrowthRepository) GetSamples(ctx context.Context, babyID uuid.UUID, measurementType domain.MeasurementType) ([]*domain.GrowthSample, error) {
	args := m.Called(ctx, babyID, measurementType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GrowthSample), args.Error(1)
}

// MockPercentileRepository is a mock implementation of PercentileRepository
type MockPercentileRepository struct {
	mock.Mock
}

func (m *MockPercentileRepository) GetRow(ctx context.Context, sex domain.Sex, measurementType domain.MeasurementType, dayOfLife int) (*domain.PercentileRow, error) {
	args := m.Called(ctx, sex, measurementType, dayOfLife)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PercentileRow), args.Error(1)
}

func (m *MockPercentileRepository) GetMedianValues(ctx context.Context, sex domain.Sex, measurementType domain.MeasurementType, daysOfLife []int) (map[int]float64, error) {
	args := m.Called(ctx, sex, measurementType, daysOfLife)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]float64), args.Error(1)
}

// MockDosingRepository is a mock implementation of DosingRepository
type MockDosingRepository struct {
	mock.Mock
}

func (m *MockDosingRepository) CreateDose(ctx context.Context, dose *domain.DosingEvent) error {
	args := m.Called(ctx, dose)
	return args.Error(0)
}

func (m *MockDosingRepository) GetDosesSince(ctx context.Context, babyID uuid.UUID, since time.Time) ([]*domain.DosingEvent, error) {
	args := m.Called(ctx, babyID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DosingEvent), args.Error(1)
}

// MockAlertPublisher is a mock implementation of AlertPublisher
type MockAlertPublisher struct {
	mock.Mock
}

func (m *MockAlertPublisher) PublishViolationAlert(ctx context.Context, babyID uuid.UUID, drugClass domain.DrugClass, amountMg float64, result domain.SafetyCheckResult) error {
	args := m.Called(ctx, babyID, drugClass, amountMg, result)
	return args.Error(0)
}
