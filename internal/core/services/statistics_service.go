package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/nestlog/analytics-service/internal/core/ports"
)

// StatisticsService implements the active-time aggregator: it folds a
// baby's raw event intervals of one duration-bearing category into
// merged daily blocks and a seven-day summary.
// Pure computation over caller-scoped data; no state between calls.
type StatisticsService struct {
	recordRepo ports.RecordRepository
	babyRepo   ports.BabyRepository
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(recordRepo ports.RecordRepository, babyRepo ports.BabyRepository) *StatisticsService {
	return &StatisticsService{
		recordRepo: recordRepo,
		babyRepo:   babyRepo,
	}
}

// GetWeeklyStatistics resolves the 7-day window ending at anchorDate
// (inclusive), loads the baby's raw events of the given category for
// that window and aggregates each day independently.
// Always returns exactly 7 DailyActiveTime entries; a day without
// events yields empty blocks, not an error.
// Enforces ownership: ADMIN can access any baby, CAREGIVER only their own.
func (s *StatisticsService) GetWeeklyStatistics(
	ctx context.Context,
	recordType domain.RecordType,
	anchorDate time.Time,
	userID uuid.UUID,
	babyID uuid.UUID,
	isAdmin bool,
) (*domain.WeeklyStatistics, error) {
	// Reject instantaneous categories before touching any data
	category, err := domain.DurationCategoryFor(recordType)
	if err != nil {
		return nil, err
	}
	if anchorDate.IsZero() {
		return nil, fmt.Errorf("%w: anchor date is required", domain.ErrInvalidInput)
	}

	if err := s.checkAccess(ctx, babyID, userID, isAdmin); err != nil {
		return nil, err
	}

	anchor := startOfDay(anchorDate)
	windowStart := anchor.AddDate(0, 0, -6)
	windowEnd := anchor.AddDate(0, 0, 1)

	records, err := s.recordRepo.GetIntervalRecords(ctx, babyID, category, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	intervals := make([]domain.TimeInterval, 0, len(records))
	for _, r := range records {
		intervals = append(intervals, r.Interval())
	}

	stats := &domain.WeeklyStatistics{
		Category:   category.RecordType(),
		AnchorDate: anchor,
		Days:       make([]domain.DailyActiveTime, 0, 7),
	}
	for i := 0; i < 7; i++ {
		day := windowStart.AddDate(0, 0, i)
		stats.Days = append(stats.Days, AggregateDaily(intervals, day))
	}

	return stats, nil
}

// AggregateDaily merges the raw intervals that touch one calendar day
// into the minimal set of strictly-adjacent-merged blocks.
// Intervals crossing a day boundary are clipped at the boundary: an
// activity spanning midnight contributes a trailing block to the
// earlier day and a leading block to the later day, so each day's
// summary is self-contained and independently re-derivable.
func AggregateDaily(intervals []domain.TimeInterval, day time.Time) domain.DailyActiveTime {
	dayStart := startOfDay(day)
	dayEnd := dayStart.AddDate(0, 0, 1)

	clipped := make([]domain.TimeInterval, 0, len(intervals))
	for _, iv := range intervals {
		if c, ok := iv.Clip(dayStart, dayEnd); ok {
			clipped = append(clipped, c)
		}
	}

	// Stable sort by start ascending
	sort.SliceStable(clipped, func(i, j int) bool {
		return clipped[i].Start.Before(clipped[j].Start)
	})

	result := domain.DailyActiveTime{
		Date:   dayStart,
		Blocks: []domain.ActivityBlock{},
	}
	if len(clipped) == 0 {
		return result
	}

	// Left fold: merge each interval into the current one when they are
	// strictly connected, otherwise emit and restart
	current := clipped[0]
	for _, next := range clipped[1:] {
		if domain.Connected(current, next) {
			current = domain.MustMerge(current, next)
			continue
		}
		result.Blocks = append(result.Blocks, toBlock(current, dayStart))
		current = next
	}
	result.Blocks = append(result.Blocks, toBlock(current, dayStart))

	return result
}

func toBlock(iv domain.TimeInterval, dayStart time.Time) domain.ActivityBlock {
	return domain.ActivityBlock{
		StartMinute: int(iv.Start.Sub(dayStart).Minutes()),
		EndMinute:   int(iv.End.Sub(dayStart).Minutes()),
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// checkAccess enforces the ownership rules shared by all engine reads
func (s *StatisticsService) checkAccess(ctx context.Context, babyID uuid.UUID, userID uuid.UUID, isAdmin bool) error {
	exists, err := s.babyRepo.BabyExists(ctx, babyID)
	if err != nil {
		return fmt.Errorf("failed to check baby existence: %w", err)
	}
	if !exists {
		// Don't leak ownership info
		return fmt.Errorf("%w: baby", domain.ErrNotFound)
	}

	if isAdmin {
		return nil
	}

	owned, err := s.babyRepo.CheckBabyOwnership(ctx, babyID, userID)
	if err != nil {
		return fmt.Errorf("failed to check ownership: %w", err)
	}
	if !owned {
		// Don't leak ownership info - return generic not found
		return fmt.Errorf("%w: baby", domain.ErrNotFound)
	}
	return nil
}
