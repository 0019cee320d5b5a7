package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/nestlog/analytics-service/internal/core/ports"
)

// DosingService implements the antipyretic dosing safety validator and
// the validate-then-record flow around it.
// Each check is memoryless: a pure function of the proposed dose, the
// dosing history, the latest weight record and the baby's age,
// recomputed fully from history every time. The validator never
// mutates history.
type DosingService struct {
	dosingRepo     ports.DosingRepository
	growthRepo     ports.GrowthRepository
	babyRepo       ports.BabyRepository
	alertPublisher ports.AlertPublisher
	policy         domain.DosingPolicy
}

// NewDosingService creates a new dosing service
func NewDosingService(
	dosingRepo ports.DosingRepository,
	growthRepo ports.GrowthRepository,
	babyRepo ports.BabyRepository,
	alertPublisher ports.AlertPublisher,
	policy domain.DosingPolicy,
) *DosingService {
	return &DosingService{
		dosingRepo:     dosingRepo,
		growthRepo:     growthRepo,
		babyRepo:       babyRepo,
		alertPublisher: alertPublisher,
		policy:         policy,
	}
}

// CheckSafety evaluates a proposed dose against the five safety rules.
// All rules are evaluated and violations accumulate: a single check can
// report multiple simultaneous violations. A disallowed dose is a
// normal result, not an error.
func (s *DosingService) CheckSafety(
	ctx context.Context,
	babyID uuid.UUID,
	drugClass domain.DrugClass,
	proposedAmountMg float64,
	now time.Time,
	userID uuid.UUID,
	isAdmin bool,
) (*domain.SafetyCheckResult, error) {
	if !domain.IsValidDrugClass(drugClass) {
		return nil, fmt.Errorf("%w: drug class %q", domain.ErrInvalidInput, drugClass)
	}
	if proposedAmountMg <= 0 {
		return nil, fmt.Errorf("%w: proposed amount must be greater than 0 mg", domain.ErrInvalidInput)
	}
	if now.IsZero() {
		now = time.Now()
	}

	baby, err := s.loadOwnedBaby(ctx, babyID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	rule := s.policy.Rules[drugClass]
	result := &domain.SafetyCheckResult{Violations: []domain.Violation{}}

	// Rule 1: minimum approved age for the drug class
	if domain.AgeInMonths(baby.BirthDate, now) < rule.MinAgeMonths {
		result.Violations = append(result.Violations, domain.ViolationAgeNotSafe)
	}

	// Rules 2-4: weight-dependent ceilings. Without a weight record the
	// per-dose and daily rules cannot be evaluated at all; they are
	// absent from the violation set, not passed.
	weight, err := s.growthRepo.GetLatestSample(ctx, babyID, domain.MeasurementWeight)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		result.Violations = append(result.Violations, domain.ViolationWeightMissing)
		weight = nil
	case err != nil:
		return nil, fmt.Errorf("failed to load latest weight: %w", err)
	}

	// History window: the daily ceiling looks back 24h, the interval
	// rules look back at most the longest same-drug interval. One read
	// covers all of them.
	lookback := s.policy.DailyWindow
	if rule.SameDrugInterval > lookback {
		lookback = rule.SameDrugInterval
	}
	doses, err := s.dosingRepo.GetDosesSince(ctx, babyID, now.Add(-lookback))
	if err != nil {
		return nil, fmt.Errorf("failed to load dosing history: %w", err)
	}

	if weight != nil {
		weightKg := weight.Value

		// Rule 3: single-dose ceiling
		if proposedAmountMg > weightKg*rule.MaxSingleMgPerKg {
			result.Violations = append(result.Violations, domain.ViolationSingleDoseExceeded)
		}

		// Rule 4: daily cumulative ceiling over the trailing 24 hours
		dailyTotal := proposedAmountMg
		for _, dose := range doses {
			if dose.DrugClass == drugClass && now.Sub(dose.AdministeredAt) < s.policy.DailyWindow {
				dailyTotal += dose.AmountMg
			}
		}
		if dailyTotal > weightKg*rule.MaxDailyMgPerKg {
			result.Violations = append(result.Violations, domain.ViolationDailyDoseExceeded)
		}
	}

	// Rule 5: minimum-interval rules, drug-agnostic and drug-specific.
	// Strict "within window" semantics: now - lastDoseTime < window;
	// a dose exactly at the window boundary is safe.
	anyTooSoon := false
	sameTooSoon := false
	for _, dose := range doses {
		elapsed := now.Sub(dose.AdministeredAt)
		if elapsed < s.policy.AnyDoseInterval {
			anyTooSoon = true
		}
		if dose.DrugClass == drugClass && elapsed < rule.SameDrugInterval {
			sameTooSoon = true
		}
	}
	if anyTooSoon {
		result.Violations = append(result.Violations, domain.ViolationTooSoonSinceAnyDose)
	}
	if sameTooSoon {
		result.Violations = append(result.Violations, domain.ViolationTooSoonSameDrug)
	}

	result.Allowed = len(result.Violations) == 0

	s.logCheck(babyID, drugClass, proposedAmountMg, result)
	return result, nil
}

// RecordDose runs the safety check first and persists the dose only
// when it is allowed. On disallow the violation set is returned to the
// caller and an alert is published asynchronously; the refused dose is
// never written.
func (s *DosingService) RecordDose(
	ctx context.Context,
	babyID uuid.UUID,
	req ports.RecordDoseRequest,
	userID uuid.UUID,
	isAdmin bool,
) (*domain.DosingEvent, *domain.SafetyCheckResult, error) {
	// RBAC enforcement: ADMIN is read-only for dose records
	if isAdmin {
		return nil, nil, fmt.Errorf("forbidden: only CAREGIVER can record doses")
	}

	administeredAt := req.AdministeredAt
	if administeredAt.IsZero() {
		administeredAt = time.Now()
	}

	result, err := s.CheckSafety(ctx, babyID, req.DrugClass, req.AmountMg, administeredAt, userID, isAdmin)
	if err != nil {
		return nil, nil, err
	}

	if !result.Allowed {
		// Publish asynchronously so the response is not blocked on MQ
		go func() {
			bgCtx := context.Background()
			if err := s.alertPublisher.PublishViolationAlert(bgCtx, babyID, req.DrugClass, req.AmountMg, *result); err != nil {
				log.Printf("Failed to publish dosing violation alert: %v", err)
			}
		}()
		return nil, result, nil
	}

	dose := &domain.DosingEvent{
		ID:             uuid.New(),
		BabyID:         babyID,
		CaregiverID:    userID,
		DrugClass:      req.DrugClass,
		AmountMg:       req.AmountMg,
		AdministeredAt: administeredAt,
		CreatedAt:      time.Now(),
	}
	if err := s.dosingRepo.CreateDose(ctx, dose); err != nil {
		return nil, nil, fmt.Errorf("failed to record dose: %w", err)
	}

	return dose, result, nil
}

// logCheck logs structured JSON for each safety check outcome
func (s *DosingService) logCheck(babyID uuid.UUID, drugClass domain.DrugClass, amountMg float64, result *domain.SafetyCheckResult) {
	logEntry := map[string]interface{}{
		"event":      "dosing_safety_check",
		"baby_id":    babyID.String(),
		"drug_class": string(drugClass),
		"amount_mg":  amountMg,
		"allowed":    result.Allowed,
	}
	if len(result.Violations) > 0 {
		logEntry["violations"] = result.Violations
	}

	jsonBytes, err := json.Marshal(logEntry)
	if err != nil {
		log.Printf("Failed to marshal dosing check log entry: %v", err)
		return
	}
	log.Printf("%s", string(jsonBytes))
}

// loadOwnedBaby fetches the baby and enforces ownership rules
func (s *DosingService) loadOwnedBaby(ctx context.Context, babyID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.Baby, error) {
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
