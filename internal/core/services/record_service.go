package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/nestlog/analytics-service/internal/core/ports"
)

// RecordService implements business logic for care event records.
// Enforces RBAC and ownership rules; the persisted records are the raw
// stream the analytics engine reads.
type RecordService struct {
	recordRepo ports.RecordRepository
	babyRepo   ports.BabyRepository
}

// NewRecordService creates a new record service
func NewRecordService(recordRepo ports.RecordRepository, babyRepo ports.BabyRepository) *RecordService {
	return &RecordService{
		recordRepo: recordRepo,
		babyRepo:   babyRepo,
	}
}

// CreateRecord creates a new care event record for a baby
// Enforces ownership: Only CAREGIVER can add records to their own babies
// ADMIN cannot create records (read-only access)
func (s *RecordService) CreateRecord(
	ctx context.Context,
	babyID uuid.UUID,
	req ports.CreateRecordRequest,
	userID uuid.UUID,
	isAdmin bool,
) (*domain.CareRecord, error) {
	if !domain.IsValidRecordType(req.Type) {
		return nil, fmt.Errorf("%w: record type %q", domain.ErrInvalidInput, req.Type)
	}
	if err := validateRecordTimes(req); err != nil {
		return nil, err
	}

	exists, err := s.babyRepo.BabyExists(ctx, babyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check baby existence: %w", err)
	}
	if !exists {
		// Don't leak ownership info
		return nil, fmt.Errorf("%w: baby", domain.ErrNotFound)
	}

	// RBAC enforcement: Only CAREGIVER can create records
	if isAdmin {
		return nil, fmt.Errorf("forbidden: only CAREGIVER can create records")
	}

	owned, err := s.babyRepo.CheckBabyOwnership(ctx, babyID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ownership: %w", err)
	}
	if !owned {
		// Don't leak ownership info - return generic not found
		return nil, fmt.Errorf("%w: baby", domain.ErrNotFound)
	}

	startedAt := req.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	endedAt := req.EndedAt
	if endedAt.IsZero() {
		// Instantaneous record
		endedAt = startedAt
	}

	record := &domain.CareRecord{
		ID:          uuid.New(),
		BabyID:      babyID,
		CaregiverID: userID,
		Type:        req.Type,
		StartedAt:   startedAt,
		EndedAt:     endedAt,
		Note:        req.Note,
		CreatedAt:   time.Now(),
	}

	if err := s.recordRepo.CreateRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	s.logRecord(record, "created")
	return record, nil
}

// GetRecords retrieves records for a baby, newest first
// Enforces ownership: ADMIN can access any, CAREGIVER only their own babies
func (s *RecordService) GetRecords(
	ctx context.Context,
	babyID uuid.UUID,
	userID uuid.UUID,
	isAdmin bool,
	recordType *domain.RecordType,
	limit *int,
) ([]*domain.CareRecord, error) {
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

	if recordType != nil && !domain.IsValidRecordType(*recordType) {
		return nil, fmt.Errorf("%w: record type filter %q", domain.ErrInvalidInput, *recordType)
	}
	if limit != nil && *limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be greater than 0", domain.ErrInvalidInput)
	}

	records, err := s.recordRepo.GetRecordsByBabyID(ctx, babyID, recordType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}

	return records, nil
}

// validateRecordTimes validates the interval invariant per record type
func validateRecordTimes(req ports.CreateRecordRequest) error {
	if req.EndedAt.IsZero() {
		// Open or instantaneous record; duration-bearing types need both ends
		if _, err := domain.DurationCategoryFor(req.Type); err == nil {
			return fmt.Errorf("%w: %s records require an end time", domain.ErrInvalidInput, req.Type)
		}
		return nil
	}
	if req.StartedAt.IsZero() {
		return fmt.Errorf("%w: end time without start time", domain.ErrInvalidInput)
	}
	if _, err := domain.NewTimeInterval(req.StartedAt, req.EndedAt); err != nil {
		return err
	}
	return nil
}

// logRecord logs structured JSON for record events
func (s *RecordService) logRecord(r *domain.CareRecord, event string) {
	logEntry := map[string]interface{}{
		"event":      event,
		"record_id":  r.ID.String(),
		"baby_id":    r.BabyID.String(),
		"type":       string(r.Type),
		"started_at": r.StartedAt.Format(time.RFC3339),
		"ended_at":   r.EndedAt.Format(time.RFC3339),
		"created_at": r.CreatedAt.Format(time.RFC3339),
	}
	if r.Note != "" {
		logEntry["note"] = r.Note
	}

	jsonBytes, err := json.Marshal(logEntry)
	if err != nil {
		log.Printf("Failed to marshal record log entry: %v", err)
		return
	}
	log.Printf("%s", string(jsonBytes))
}
