package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/core/domain"
)

// BabyService defines the business logic interface for baby operations
type BabyService interface {
	// CreateBaby creates a new baby (ADMIN only)
	// Validates input and enforces RBAC
	CreateBaby(ctx context.Context, lastName string, birthDate time.Time, sex domain.Sex, parentUserID uuid.UUID, createdByUserID uuid.UUID, isAdmin bool) (*domain.Baby, error)

	// GetBaby retrieves a baby by ID
	// Enforces ownership: ADMIN can access any, CAREGIVER only their own
	GetBaby(ctx context.Context, babyID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.Baby, error)

	// ListBabies retrieves babies based on role
	// ADMIN: all babies, CAREGIVER: only owned babies
	ListBabies(ctx context.Context, userID uuid.UUID, isAdmin bool) ([]*domain.Baby, error)
}

// RecordService defines the business logic interface for care event records
type RecordService interface {
	// CreateRecord persists a new care event record
	// Only CAREGIVER can create records, and only for their own babies
	CreateRecord(ctx context.Context, babyID uuid.UUID, req CreateRecordRequest, userID uuid.UUID, isAdmin bool) (*domain.CareRecord, error)

	// GetRecords retrieves records for a baby, newest first
	// Enforces ownership: ADMIN can access any, CAREGIVER only their own babies
	GetRecords(ctx context.Context, babyID uuid.UUID, userID uuid.UUID, isAdmin bool, recordType *domain.RecordType, limit *int) ([]*domain.CareRecord, error)
}

// StatisticsService defines the business logic interface for the
// active-time aggregator
type StatisticsService interface {
	// GetWeeklyStatistics merges one baby's raw events of a
	// duration-bearing category into seven daily summaries ending at
	// anchorDate (inclusive). Always returns exactly 7 days; days
	// without events carry empty blocks.
	GetWeeklyStatistics(ctx context.Context, recordType domain.RecordType, anchorDate time.Time, userID uuid.UUID, babyID uuid.UUID, isAdmin bool) (*domain.WeeklyStatistics, error)
}

// GrowthService defines the business logic interface for percentile
// classification and trend charting
type GrowthService interface {
	// RecordSample persists a new growth measurement
	// Only CAREGIVER can record samples, and only for their own babies
	RecordSample(ctx context.Context, babyID uuid.UUID, req RecordSampleRequest, userID uuid.UUID, isAdmin bool) (*domain.GrowthSample, error)

	// ClassifyPercentile resolves the percentile band of the baby's
	// latest measurement of the given type against the reference
	// population at the baby's current day of life
	ClassifyPercentile(ctx context.Context, babyID uuid.UUID, measurementType domain.MeasurementType, userID uuid.UUID, isAdmin bool) (*PercentileResult, error)

	// GrowthHistory builds the charting series: population medians at a
	// fixed 14-day cadence overlaid with the baby's own samples
	GrowthHistory(ctx context.Context, babyID uuid.UUID, measurementType domain.MeasurementType, userID uuid.UUID, isAdmin bool) ([]domain.GrowthTrendPoint, error)
}

// DosingService defines the business logic interface for the dosing
// safety validator and the validate-then-record flow
type DosingService interface {
	// CheckSafety evaluates a proposed dose against the baby's age,
	// latest weight and dosing history. A disallowed dose is a normal
	// result, not an error.
	CheckSafety(ctx context.Context, babyID uuid.UUID, drugClass domain.DrugClass, proposedAmountMg float64, now time.Time, userID uuid.UUID, isAdmin bool) (*domain.SafetyCheckResult, error)

	// RecordDose runs CheckSafety and persists the dose only when it is
	// allowed. On disallow the result is returned alongside a nil dose
	// and an alert is published asynchronously.
	RecordDose(ctx context.Context, babyID uuid.UUID, req RecordDoseRequest, userID uuid.UUID, isAdmin bool) (*domain.DosingEvent, *domain.SafetyCheckResult, error)
}

// CreateRecordRequest represents the input for creating a care event record
type CreateRecordRequest struct {
	Type      domain.RecordType `json:"type"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at"`
	Note      string            `json:"note,omitempty"`
}

// RecordSampleRequest represents the input for recording a growth
// measurement. Height and head size are centimeters, weight kilograms.
type RecordSampleRequest struct {
	Type       domain.MeasurementType `json:"type"`
	Value      float64                `json:"value"`
	MeasuredAt time.Time              `json:"measured_at"`
}

// RecordDoseRequest represents the input for the validate-then-record
// dose flow
type RecordDoseRequest struct {
	DrugClass      domain.DrugClass `json:"drug_class"`
	AmountMg       float64          `json:"amount_mg"`
	AdministeredAt time.Time        `json:"administered_at"`
}

// PercentileResult is the growth classification returned to the web layer
type PercentileResult struct {
	BabyID    uuid.UUID              `json:"baby_id"`
	Type      domain.MeasurementType `json:"type"`
	DayOfLife int                    `json:"day_of_life"`
	Value     float64                `json:"value"`
	Band      int                    `json:"band"`
	Bands     []domain.PercentileBand `json:"bands"`
}
