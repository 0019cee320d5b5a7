package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/core/domain"
)

// BabyRepository defines the interface for baby data persistence
type BabyRepository interface {
	// CreateBaby creates a new baby (ADMIN only)
	CreateBaby(ctx context.Context, baby *domain.Baby) error

	// GetBabyByID retrieves a baby by ID
	GetBabyByID(ctx context.Context, babyID uuid.UUID) (*domain.Baby, error)

	// ListBabies retrieves babies based on role:
	// ADMIN: all babies
	// CAREGIVER: only babies where parent_user_id matches
	ListBabies(ctx context.Context, parentUserID uuid.UUID, isAdmin bool) ([]*domain.Baby, error)

	// BabyExists checks if a baby exists
	BabyExists(ctx context.Context, babyID uuid.UUID) (bool, error)

	// CheckBabyOwnership checks if a baby belongs to a specific caregiver
	CheckBabyOwnership(ctx context.Context, babyID uuid.UUID, parentUserID uuid.UUID) (bool, error)
}

// RecordRepository defines the interface for care event record persistence
type RecordRepository interface {
	// CreateRecord creates a new care event record
	CreateRecord(ctx context.Context, record *domain.CareRecord) error

	// GetRecordsByBabyID retrieves records for a baby, newest first
	// Optional filters: recordType, limit
	GetRecordsByBabyID(ctx context.Context, babyID uuid.UUID, recordType *domain.RecordType, limit *int) ([]*domain.CareRecord, error)

	// GetIntervalRecords retrieves records of one duration-bearing
	// category whose interval intersects [from, to), ordered by
	// started_at ascending
	GetIntervalRecords(ctx context.Context, babyID uuid.UUID, category domain.DurationCategory, from, to time.Time) ([]*domain.CareRecord, error)
}

// GrowthRepository defines the interface for growth sample lookups
type GrowthRepository interface {
	// CreateSample creates a new growth sample
	CreateSample(ctx context.Context, sample *domain.GrowthSample) error

	// GetLatestSample retrieves the most recent growth sample of one
	// type for a baby. Returns domain.ErrNotFound when the baby has no
	// sample of that type.
	GetLatestSample(ctx context.Context, babyID uuid.UUID, measurementType domain.MeasurementType) (*domain.GrowthSample, error)

	// GetSamples retrieves all growth samples of one type for a baby,
	// ordered by measured_at ascending
	GetSamples(ctx context.Context, babyID uuid.UUID, measurementType domain.MeasurementType) ([]*domain.GrowthSample, error)
}

// PercentileRepository defines the interface for the static growth
// reference table. The table is external read-only data; lookups are
// by nearest-or-equal day of life within table coverage.
type PercentileRepository interface {
	// GetRow retrieves the reference row for (sex, type, dayOfLife).
	// Returns domain.ErrNotFound when dayOfLife is outside the table's
	// coverage for that sex and type.
	GetRow(ctx context.Context, sex domain.Sex, measurementType domain.MeasurementType, dayOfLife int) (*domain.PercentileRow, error)

	// GetMedianValues retrieves the population median (p50) at each of
	// the given days of life. Days with no covering row are omitted
	// from the result.
	GetMedianValues(ctx context.Context, sex domain.Sex, measurementType domain.MeasurementType, daysOfLife []int) (map[int]float64, error)
}

// DosingRepository defines the interface for dosing history lookups
type DosingRepository interface {
	// CreateDose records an administered dose
	CreateDose(ctx context.Context, dose *domain.DosingEvent) error

	// GetDosesSince retrieves all doses administered to a baby at or
	// after the given instant, ordered by administered_at descending
	GetDosesSince(ctx context.Context, babyID uuid.UUID, since time.Time) ([]*domain.DosingEvent, error)
}

// AlertPublisher defines the interface for publishing dosing safety
// alerts to RabbitMQ
type AlertPublisher interface {
	// PublishViolationAlert publishes an alert event for a disallowed dose
	PublishViolationAlert(ctx context.Context, babyID uuid.UUID, drugClass domain.DrugClass, amountMg float64, result domain.SafetyCheckResult) error
}
