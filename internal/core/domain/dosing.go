package domain

import (
	"time"

	"github.com/google/uuid"
)

// DrugClass is the active pharmaceutical ingredient category. The two
// classes carry separate minimum ages, mg/kg ceilings and same-drug
// interval rules.
type DrugClass string

const (
	DrugAcetaminophen DrugClass = "acetaminophen"
	DrugIbuprofen     DrugClass = "ibuprofen"
)

// IsValidDrugClass checks if a drug class is valid
func IsValidDrugClass(drugClass DrugClass) bool {
	return drugClass == DrugAcetaminophen || drugClass == DrugIbuprofen
}

// DosingEvent is one administered antipyretic dose, created by the
// caregiver-facing record flow and read-only for safety checks.
// Histories are ordered by AdministeredAt descending.
type DosingEvent struct {
	ID             uuid.UUID `json:"id"`
	BabyID         uuid.UUID `json:"baby_id"`
	CaregiverID    uuid.UUID `json:"caregiver_id"`
	DrugClass      DrugClass `json:"drug_class"`
	AmountMg       float64   `json:"amount_mg"`
	AdministeredAt time.Time `json:"administered_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// Violation names one failed dosing safety rule
type Violation string

const (
	ViolationAgeNotSafe          Violation = "AGE_NOT_SAFE"
	ViolationTooSoonSinceAnyDose Violation = "TOO_SOON_SINCE_ANY_DOSE"
	ViolationTooSoonSameDrug     Violation = "TOO_SOON_SINCE_SAME_DRUG"
	ViolationSingleDoseExceeded  Violation = "SINGLE_DOSE_EXCEEDED"
	ViolationDailyDoseExceeded   Violation = "DAILY_DOSE_EXCEEDED"
	ViolationWeightMissing       Violation = "WEIGHT_MISSING"
)

// SafetyCheckResult is the outcome of one memoryless safety check.
// Allowed is true iff Violations is empty. A disallowed dose is a
// normal domain decision, not a system failure.
type SafetyCheckResult struct {
	Allowed    bool        `json:"allowed"`
	Violations []Violation `json:"violations"`
}

// Has reports whether the result contains the given violation
func (r SafetyCheckResult) Has(violation Violation) bool {
	for _, v := range r.Violations {
		if v == violation {
			return true
		}
	}
	return false
}

// DrugRule holds the per-drug-class safety thresholds. These are
// medical reference constants, carried as configuration rather than
// engine logic.
type DrugRule struct {
	MinAgeMonths     int
	MaxSingleMgPerKg float64
	MaxDailyMgPerKg  float64
	SameDrugInterval time.Duration
}

// DosingPolicy holds all numeric thresholds the five safety rules
// evaluate against
type DosingPolicy struct {
	AnyDoseInterval time.Duration
	DailyWindow     time.Duration
	Rules           map[DrugClass]DrugRule
}

// DefaultDosingPolicy returns thresholds per standard pediatric
// antipyretic dosing references
func DefaultDosingPolicy() DosingPolicy {
	return DosingPolicy{
		AnyDoseInterval: 2 * time.Hour,
		DailyWindow:     24 * time.Hour,
		Rules: map[DrugClass]DrugRule{
			DrugAcetaminophen: {
				MinAgeMonths:     3,
				MaxSingleMgPerKg: 15.0,
				MaxDailyMgPerKg:  75.0,
				SameDrugInterval: 4 * time.Hour,
			},
			DrugIbuprofen: {
				MinAgeMonths:     6,
				MaxSingleMgPerKg: 10.0,
				MaxDailyMgPerKg:  40.0,
				SameDrugInterval: 6 * time.Hour,
			},
		},
	}
}

// AgeInMonths returns the number of whole calendar months elapsed
// between birth and now
func AgeInMonths(birthDate time.Time, now time.Time) int {
	years := now.Year() - birthDate.Year()
	months := int(now.Month()) - int(birthDate.Month())
	total := years*12 + months
	if now.Day() < birthDate.Day() {
		total--
	}
	if total < 0 {
		return 0
	}
	return total
}
