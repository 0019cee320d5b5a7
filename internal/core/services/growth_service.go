package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/nestlog/analytics-service/internal/core/ports"
)

// GrowthService implements percentile-band classification and the
// growth trend series against the static reference population table
type GrowthService struct {
	growthRepo     ports.GrowthRepository
	percentileRepo ports.PercentileRepository
	babyRepo       ports.BabyRepository
	now            func() time.Time
}

// NewGrowthService creates a new growth service
func NewGrowthService(
	growthRepo ports.GrowthRepository,
	percentileRepo ports.PercentileRepository,
	babyRepo ports.BabyRepository,
) *GrowthService {
	return &GrowthService{
		growthRepo:     growthRepo,
		percentileRepo: percentileRepo,
		babyRepo:       babyRepo,
		now:            time.Now,
	}
}

// RecordSample validates and persists a new growth measurement.
// Only CAREGIVER can record samples, and only for their own babies.
func (s *GrowthService) RecordSample(
	ctx context.Context,
	babyID uuid.UUID,
	req ports.RecordSampleRequest,
	userID uuid.UUID,
	isAdmin bool,
) (*domain.GrowthSample, error) {
	if isAdmin {
		return nil, fmt.Errorf("forbidden: only CAREGIVER can record growth samples")
	}
	if !domain.IsValidMeasurementType(req.Type) {
		return nil, fmt.Errorf("%w: measurement type %q", domain.ErrInvalidInput, req.Type)
	}
	if req.Value <= 0 {
		return nil, fmt.Errorf("%w: measurement value must be greater than 0", domain.ErrInvalidInput)
	}

	baby, err := s.loadOwnedBaby(ctx, babyID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	measuredAt := req.MeasuredAt
	if measuredAt.IsZero() {
		measuredAt = s.now()
	}
	if measuredAt.Before(baby.BirthDate) {
		return nil, fmt.Errorf("%w: measurement predates birth", domain.ErrInvalidInput)
	}

	sample := &domain.GrowthSample{
		ID:         uuid.New(),
		BabyID:     babyID,
		Type:       req.Type,
		Value:      req.Value,
		MeasuredAt: measuredAt,
		CreatedAt:  s.now(),
	}

	if err := s.growthRepo.CreateSample(ctx, sample); err != nil {
		return nil, fmt.Errorf("failed to create growth sample: %w", err)
	}
	return sample, nil
}

// ClassifyPercentile locates the percentile band of the baby's latest
// measurement of the given type.
// A value exactly equal to a band boundary classifies into that band;
// a value above the 99th-percentile reference tops out at band 100.
// A day of life outside the reference table's coverage is reported as
// NotFound, never silently defaulted.
func (s *GrowthService) ClassifyPercentile(
	ctx context.Context,
	babyID uuid.UUID,
	measurementType domain.MeasurementType,
	userID uuid.UUID,
	isAdmin bool,
) (*ports.PercentileResult, error) {
	if !domain.IsValidMeasurementType(measurementType) {
		return nil, fmt.Errorf("%w: measurement type %q", domain.ErrInvalidInput, measurementType)
	}

	baby, err := s.loadOwnedBaby(ctx, babyID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	dayOfLife := domain.DayOfLife(baby.BirthDate, s.now())

	row, err := s.percentileRepo.GetRow(ctx, baby.Sex, measurementType, dayOfLife)
	if err != nil {
		return nil, fmt.Errorf("failed to load percentile row: %w", err)
	}

	sample, err := s.growthRepo.GetLatestSample(ctx, babyID, measurementType)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest sample: %w", err)
	}

	return &ports.PercentileResult{
		BabyID:    babyID,
		Type:      measurementType,
		DayOfLife: dayOfLife,
		Value:     sample.Value,
		Band:      row.ClassifyBand(sample.Value),
		Bands:     row.Bands(),
	}, nil
}

// GrowthHistory builds the charting series: population medians sampled
// every 14 days of life up to the baby's current day of life, overlaid
// with the baby's own recorded measurements at their actual day of
// life. The two series use independent time grids and are merged only
// for display, never averaged or interpolated against each other.
func (s *GrowthService) GrowthHistory(
	ctx context.Context,
	babyID uuid.UUID,
	measurementType domain.MeasurementType,
	userID uuid.UUID,
	isAdmin bool,
) ([]domain.GrowthTrendPoint, error) {
	if !domain.IsValidMeasurementType(measurementType) {
		return nil, fmt.Errorf("%w: measurement type %q", domain.ErrInvalidInput, measurementType)
	}

	baby, err := s.loadOwnedBaby(ctx, babyID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	currentDay := domain.DayOfLife(baby.BirthDate, s.now())

	sampleDays := make([]int, 0, currentDay/domain.MedianSampleCadenceDays+1)
	for day := 0; day <= currentDay; day += domain.MedianSampleCadenceDays {
		sampleDays = append(sampleDays, day)
	}

	medians, err := s.percentileRepo.GetMedianValues(ctx, baby.Sex, measurementType, sampleDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load median series: %w", err)
	}

	samples, err := s.growthRepo.GetSamples(ctx, babyID, measurementType)
	if err != nil {
		return nil, fmt.Errorf("failed to load growth samples: %w", err)
	}

	// Index the series by day of life; a median point and a measured
	// sample landing on the same day share one trend point
	points := make(map[int]*domain.GrowthTrendPoint)
	for _, day := range sampleDays {
		if median, ok := medians[day]; ok {
			m := median
			points[day] = &domain.GrowthTrendPoint{DayOfLife: day, PopulationMedian: &m}
		}
	}
	for _, sample := range samples {
		day := domain.DayOfLife(baby.BirthDate, sample.MeasuredAt)
		v := sample.Value
		if p, ok := points[day]; ok {
			p.MeasuredValue = &v
			continue
		}
		points[day] = &domain.GrowthTrendPoint{DayOfLife: day, MeasuredValue: &v}
	}

	result := make([]domain.GrowthTrendPoint, 0, len(points))
	for day := 0; day <= currentDay; day++ {
		if p, ok := points[day]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

// loadOwnedBaby fetches the baby and enforces ownership rules
func (s *GrowthService) loadOwnedBaby(ctx context.Context, babyID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.Baby, error) {
	exists, err := s.babyRepo.BabyExists(ctx, babyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check baby existence: %w", err)
	}
	if !exists {
		// Don't leak ownership info
		return nil, fmt.Errorf("%w: baby", domain.ErrNotFound)
	}

	if !isAdmin {
		owned, err := s.babyRepo.CheckBabyOwnership(ctx, babyID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check ownership: %w", err)
		}
		if !owned {
			// Don't leak ownership info - return generic not found
			return nil, fmt.Errorf("%w: baby", domain.ErrNotFound)
		}
	}

	baby, err := s.babyRepo.GetBabyByID(ctx, babyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get baby: %w", err)
	}
	return baby, nil
}
