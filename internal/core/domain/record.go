package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordType identifies the category of a care event record
type RecordType string

const (
	RecordTypeFeeding    RecordType = "feeding"
	RecordTypeSleep      RecordType = "sleep"
	RecordTypeExcretion  RecordType = "excretion"
	RecordTypeFever      RecordType = "fever"
	RecordTypeMedication RecordType = "medication"
)

// ValidRecordTypes returns a slice of valid record types
func ValidRecordTypes() []RecordType {
	return []RecordType{
		RecordTypeFeeding,
		RecordTypeSleep,
		RecordTypeExcretion,
		RecordTypeFever,
		RecordTypeMedication,
	}
}

// IsValidRecordType checks if a record type is valid
func IsValidRecordType(recordType RecordType) bool {
	for _, t := range ValidRecordTypes() {
		if t == recordType {
			return true
		}
	}
	return false
}

// DurationCategory is the closed subset of record types that carry a
// continuous duration and are therefore eligible for active-time
// aggregation. Keeping it a distinct type makes "aggregate a fever
// record" unrepresentable after construction instead of a map lookup
// that can silently return nothing.
type DurationCategory struct {
	recordType RecordType
}

var (
	CategoryFeeding   = DurationCategory{recordType: RecordTypeFeeding}
	CategorySleep     = DurationCategory{recordType: RecordTypeSleep}
	CategoryExcretion = DurationCategory{recordType: RecordTypeExcretion}
)

// DurationCategoryFor maps a raw record type onto the duration-bearing
// subset. Instantaneous categories (fever, medication) are rejected
// with ErrInvalidInput.
func DurationCategoryFor(recordType RecordType) (DurationCategory, error) {
	switch recordType {
	case RecordTypeFeeding:
		return CategoryFeeding, nil
	case RecordTypeSleep:
		return CategorySleep, nil
	case RecordTypeExcretion:
		return CategoryExcretion, nil
	default:
		return DurationCategory{}, errInvalidCategory(recordType)
	}
}

func errInvalidCategory(recordType RecordType) error {
	return fmt.Errorf("%w: record type %q has no duration and cannot be aggregated", ErrInvalidInput, recordType)
}

// RecordType returns the underlying record type of the category
func (c DurationCategory) RecordType() RecordType {
	return c.recordType
}

// String implements fmt.Stringer
func (c DurationCategory) String() string {
	return string(c.recordType)
}

// CareRecord is one raw persisted care event. Duration-bearing
// categories carry both timestamps; instantaneous ones store
// StartedAt == EndedAt.
type CareRecord struct {
	ID           uuid.UUID  `json:"id"`
	BabyID       uuid.UUID  `json:"baby_id"`
	CaregiverID  uuid.UUID  `json:"caregiver_id"`
	Type         RecordType `json:"type"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      time.Time  `json:"ended_at"`
	Note         string     `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Interval returns the record's time range as a TimeInterval
func (r *CareRecord) Interval() TimeInterval {
	return TimeInterval{Start: r.StartedAt, End: r.EndedAt}
}
