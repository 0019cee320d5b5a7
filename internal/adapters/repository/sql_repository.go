package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/nestlog/analytics-service/internal/core/ports"
	"github.com/sony/gobreaker"
)

// SQLRepository implements the engine's data ports using PostgreSQL
// Includes retry logic and circuit breakers for resilience
type SQLRepository struct {
	db           *sql.DB
	babyCB       *gobreaker.CircuitBreaker
	recordCB     *gobreaker.CircuitBreaker
	growthCB     *gobreaker.CircuitBreaker
	dosingCB     *gobreaker.CircuitBreaker
	percentileCB *gobreaker.CircuitBreaker
	maxRetries   int
	retryDelay   time.Duration
}

// NewSQLRepository creates a new PostgreSQL repository with circuit breakers
func NewSQLRepository(db *sql.DB) *SQLRepository {
	settings := gobreaker.Settings{
		Name:        "database",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &SQLRepository{
		db:           db,
		babyCB:       gobreaker.NewCircuitBreaker(settings),
		recordCB:     gobreaker.NewCircuitBreaker(settings),
		growthCB:     gobreaker.NewCircuitBreaker(settings),
		dosingCB:     gobreaker.NewCircuitBreaker(settings),
		percentileCB: gobreaker.NewCircuitBreaker(settings),
		maxRetries:   3,
		retryDelay:   1 * time.Second,
	}
}

// executeWithRetry executes a database operation with retry logic
func (r *SQLRepository) executeWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error
	for i := 0; i < r.maxRetries; i++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err
		// Missing rows are not transient; retrying cannot produce them
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, domain.ErrNotFound) ||
			strings.Contains(strings.ToLower(err.Error()), "no rows") {
			return err
		}
		if i < r.maxRetries-1 {
			time.Sleep(r.retryDelay)
		}
	}
	return fmt.Errorf("operation failed after %d retries: %w", r.maxRetries, lastErr)
}

// BabyRepository implementation

func (r *SQLRepository) CreateBaby(ctx context.Context, baby *domain.Baby) error {
	_, err := r.babyCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO babies (id, last_name, birth_date, sex, parent_user_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
			_, err := r.db.ExecContext(ctx, query, baby.ID, baby.LastName, baby.BirthDate, string(baby.Sex), baby.ParentUserID, baby.CreatedAt)
			return err
		})
	})
	return err
}

func (r *SQLRepository) GetBabyByID(ctx context.Context, babyID uuid.UUID) (*domain.Baby, error) {
	result, err := r.babyCB.Execute(func() (interface{}, error) {
		var baby domain.Baby
		var sexStr string
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT id, last_name, birth_date, sex, parent_user_id, created_at FROM babies WHERE id = $1`
			row := r.db.QueryRowContext(ctx, query, babyID)
			return row.Scan(&baby.ID, &baby.LastName, &baby.BirthDate, &sexStr, &baby.ParentUserID, &baby.CreatedAt)
		})
		if err != nil {
			return nil, err
		}
		baby.Sex = domain.Sex(sexStr)
		return &baby, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: baby", domain.ErrNotFound)
		}
		return nil, err
	}

	return result.(*domain.Baby), nil
}

func (r *SQLRepository) ListBabies(ctx context.Context, parentUserID uuid.UUID, isAdmin bool) ([]*domain.Baby, error) {
	result, err := r.babyCB.Execute(func() (interface{}, error) {
		var babies []*domain.Baby
		err := r.executeWithRetry(ctx, func() error {
			var rows *sql.Rows
			var queryErr error

			if isAdmin {
				// ADMIN can see all babies
				rows, queryErr = r.db.QueryContext(ctx, `SELECT id, last_name, birth_date, sex, parent_user_id, created_at FROM babies ORDER BY created_at DESC`)
			} else {
				// CAREGIVER can only see their own babies
				rows, queryErr = r.db.QueryContext(ctx, `SELECT id, last_name, birth_date, sex, parent_user_id, created_at FROM babies WHERE parent_user_id = $1 ORDER BY created_at DESC`, parentUserID)
			}

			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				var baby domain.Baby
				var sexStr string
				if err := rows.Scan(&baby.ID, &baby.LastName, &baby.BirthDate, &sexStr, &baby.ParentUserID, &baby.CreatedAt); err != nil {
					return err
				}
				baby.Sex = domain.Sex(sexStr)
				babies = append(babies, &baby)
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return babies, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.Baby), nil
}

func (r *SQLRepository) BabyExists(ctx context.Context, babyID uuid.UUID) (bool, error) {
	result, err := r.babyCB.Execute(func() (interface{}, error) {
		var exists bool
		err := r.executeWithRetry(ctx, func() error {
			var count int
			query := `SELECT COUNT(*) FROM babies WHERE id = $1`
			err := r.db.QueryRowContext(ctx, query, babyID).Scan(&count)
			exists = count > 0
			return err
		})
		if err != nil {
			return nil, err
		}
		return exists, nil
	})

	if err != nil {
		return false, err
	}

	return result.(bool), nil
}

func (r *SQLRepository) CheckBabyOwnership(ctx context.Context, babyID uuid.UUID, parentUserID uuid.UUID) (bool, error) {
	result, err := r.babyCB.Execute(func() (interface{}, error) {
		var owned bool
		err := r.executeWithRetry(ctx, func() error {
			var count int
			query := `SELECT COUNT(*) FROM babies WHERE id = $1 AND parent_user_id = $2`
			err := r.db.QueryRowContext(ctx, query, babyID, parentUserID).Scan(&count)
			owned = count > 0
			return err
		})
		if err != nil {
			return nil, err
		}
		return owned, nil
	})

	if err != nil {
		return false, err
	}

	return result.(bool), nil
}

// RecordRepository implementation

func (r *SQLRepository) CreateRecord(ctx context.Context, record *domain.CareRecord) error {
	_, err := r.recordCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO care_records (id, baby_id, caregiver_id, type, started_at, ended_at, note, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
			_, err := r.db.ExecContext(ctx, query,
				record.ID, record.BabyID, record.CaregiverID, string(record.Type),
				record.StartedAt, record.EndedAt, record.Note, record.CreatedAt)
			return err
		})
	})
	return err
}

func (r *SQLRepository) GetRecordsByBabyID(ctx context.Context, babyID uuid.UUID, recordType *domain.RecordType, limit *int) ([]*domain.CareRecord, error) {
	result, err := r.recordCB.Execute(func() (interface{}, error) {
		var records []*domain.CareRecord
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT id, baby_id, caregiver_id, type, started_at, ended_at, note, created_at
				FROM care_records WHERE baby_id = $1`

			args := []interface{}{babyID}
			argIndex := 2

			if recordType != nil {
				query += fmt.Sprintf(" AND type = $%d", argIndex)
				args = append(args, string(*recordType))
				argIndex++
			}

			query += " ORDER BY started_at DESC, created_at DESC"

			if limit != nil {
				query += fmt.Sprintf(" LIMIT $%d", argIndex)
				args = append(args, *limit)
			}

			rows, queryErr := r.db.QueryContext(ctx, query, args...)
			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				record, err := scanRecord(rows)
				if err != nil {
					return err
				}
				records = append(records, record)
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return records, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.CareRecord), nil
}

func (r *SQLRepository) GetIntervalRecords(ctx context.Context, babyID uuid.UUID, category domain.DurationCategory, from, to time.Time) ([]*domain.CareRecord, error) {
	result, err := r.recordCB.Execute(func() (interface{}, error) {
		var records []*domain.CareRecord
		err := r.executeWithRetry(ctx, func() error {
			// Any record whose interval intersects the window, including
			// ones that started before it (they get clipped by the engine)
			query := `SELECT id, baby_id, caregiver_id, type, started_at, ended_at, note, created_at
				FROM care_records
				WHERE baby_id = $1 AND type = $2 AND started_at < $4 AND ended_at > $3
				ORDER BY started_at ASC, created_at ASC`

			rows, queryErr := r.db.QueryContext(ctx, query, babyID, string(category.RecordType()), from, to)
			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				record, err := scanRecord(rows)
				if err != nil {
					return err
				}
				records = append(records, record)
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return records, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.CareRecord), nil
}

func scanRecord(rows *sql.Rows) (*domain.CareRecord, error) {
	var record domain.CareRecord
	var typeStr string
	var note sql.NullString

	err := rows.Scan(&record.ID, &record.BabyID, &record.CaregiverID, &typeStr,
		&record.StartedAt, &record.EndedAt, &note, &record.CreatedAt)
	if err != nil {
		return nil, err
	}

	record.Type = domain.RecordType(typeStr)
	if note.Valid {
		record.Note = note.String
	}

	return &record, nil
}

// GrowthRepository implementation

func (r *SQLRepository) CreateSample(ctx context.Context, sample *domain.GrowthSample) error {
	_, err := r.growthCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO growth_samples (id, baby_id, type, value, measured_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)`
			_, err := r.db.ExecContext(ctx, query,
				sample.ID, sample.BabyID, string(sample.Type), sample.Value, sample.MeasuredAt, sample.CreatedAt)
			return err
		})
	})
	return err
}

func (r *SQLRepository) GetLatestSample(ctx context.Context, babyID uuid.UUID, measurementType domain.MeasurementType) (*domain.GrowthSample, error) {
	result, err := r.growthCB.Execute(func() (interface{}, error) {
		var sample domain.GrowthSample
		var typeStr string
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT id, baby_id, type, value, measured_at, created_at
				FROM growth_samples WHERE baby_id = $1 AND type = $2
				ORDER BY measured_at DESC, created_at DESC LIMIT 1`
			row := r.db.QueryRowContext(ctx, query, babyID, string(measurementType))
			return row.Scan(&sample.ID, &sample.BabyID, &typeStr, &sample.Value, &sample.MeasuredAt, &sample.CreatedAt)
		})
		if err != nil {
			return nil, err
		}
		sample.Type = domain.MeasurementType(typeStr)
		return &sample, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s sample for baby %s", domain.ErrNotFound, measurementType, babyID)
		}
		return nil, err
	}

	return result.(*domain.GrowthSample), nil
}

func (r *SQLRepository) GetSamples(ctx context.Context, babyID uuid.UUID, measurementType domain.MeasurementType) ([]*domain.GrowthSample, error) {
	result, err := r.growthCB.Execute(func() (interface{}, error) {
		var samples []*domain.GrowthSample
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT id, baby_id, type, value, measured_at, created_at
				FROM growth_samples WHERE baby_id = $1 AND type = $2
				ORDER BY measured_at ASC`
			rows, queryErr := r.db.QueryContext(ctx, query, babyID, string(measurementType))
			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				var sample domain.GrowthSample
				var typeStr string
				if err := rows.Scan(&sample.ID, &sample.BabyID, &typeStr, &sample.Value, &sample.MeasuredAt, &sample.CreatedAt); err != nil {
					return err
				}
				sample.Type = domain.MeasurementType(typeStr)
				samples = append(samples, &sample)
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return samples, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.GrowthSample), nil
}

// PercentileRepository implementation

func (r *SQLRepository) GetRow(ctx context.Context, sex domain.Sex, measurementType domain.MeasurementType, dayOfLife int) (*domain.PercentileRow, error) {
	result, err := r.percentileCB.Execute(func() (interface{}, error) {
		var row domain.PercentileRow
		var sexStr, typeStr string
		err := r.executeWithRetry(ctx, func() error {
			// Nearest-or-equal day-of-life lookup, but only within the
			// table's coverage: a day beyond the last reference row is
			// out of range, not "the last row forever"
			query := `SELECT sex, type, day_of_life, p3, p10, p25, p50, p75, p90, p97, p99
				FROM growth_percentiles
				WHERE sex = $1 AND type = $2 AND day_of_life <= $3
				AND $3 <= (SELECT MAX(day_of_life) FROM growth_percentiles WHERE sex = $1 AND type = $2)
				ORDER BY day_of_life DESC LIMIT 1`
			dbRow := r.db.QueryRowContext(ctx, query, string(sex), string(measurementType), dayOfLife)
			return dbRow.Scan(&sexStr, &typeStr, &row.DayOfLife,
				&row.P3, &row.P10, &row.P25, &row.P50, &row.P75, &row.P90, &row.P97, &row.P99)
		})
		if err != nil {
			return nil, err
		}
		row.Sex = domain.Sex(sexStr)
		row.Type = domain.MeasurementType(typeStr)
		return &row, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: percentile row for sex=%s type=%s day_of_life=%d", domain.ErrNotFound, sex, measurementType, dayOfLife)
		}
		return nil, err
	}

	return result.(*domain.PercentileRow), nil
}

func (r *SQLRepository) GetMedianValues(ctx context.Context, sex domain.Sex, measurementType domain.MeasurementType, daysOfLife []int) (map[int]float64, error) {
	result, err := r.percentileCB.Execute(func() (interface{}, error) {
		medians := make(map[int]float64, len(daysOfLife))
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT day_of_life, p50 FROM growth_percentiles
				WHERE sex = $1 AND type = $2 AND day_of_life = ANY($3)
				ORDER BY day_of_life ASC`
			rows, queryErr := r.db.QueryContext(ctx, query, string(sex), string(measurementType), pq.Array(daysOfLife))
			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				var day int
				var median float64
				if err := rows.Scan(&day, &median); err != nil {
					return err
				}
				medians[day] = median
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return medians, nil
	})

	if err != nil {
		return nil, err
	}

	return result.(map[int]float64), nil
}

// DosingRepository implementation

func (r *SQLRepository) CreateDose(ctx context.Context, dose *domain.DosingEvent) error {
	_, err := r.dosingCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO dosing_events (id, baby_id, caregiver_id, drug_class, amount_mg, administered_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`
			_, err := r.db.ExecContext(ctx, query,
				dose.ID, dose.BabyID, dose.CaregiverID, string(dose.DrugClass),
				dose.AmountMg, dose.AdministeredAt, dose.CreatedAt)
			return err
		})
	})
	return err
}

func (r *SQLRepository) GetDosesSince(ctx context.Context, babyID uuid.UUID, since time.Time) ([]*domain.DosingEvent, error) {
	result, err := r.dosingCB.Execute(func() (interface{}, error) {
		var doses []*domain.DosingEvent
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT id, baby_id, caregiver_id, drug_class, amount_mg, administered_at, created_at
				FROM dosing_events WHERE baby_id = $1 AND administered_at >= $2
				ORDER BY administered_at DESC`
			rows, queryErr := r.db.QueryContext(ctx, query, babyID, since)
			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				var dose domain.DosingEvent
				var drugStr string
				if err := rows.Scan(&dose.ID, &dose.BabyID, &dose.CaregiverID, &drugStr,
					&dose.AmountMg, &dose.AdministeredAt, &dose.CreatedAt); err != nil {
					return err
				}
				dose.DrugClass = domain.DrugClass(drugStr)
				doses = append(doses, &dose)
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return doses, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.DosingEvent), nil
}

// Ensure SQLRepository implements the interfaces
var _ ports.BabyRepository = (*SQLRepository)(nil)
var _ ports.RecordRepository = (*SQLRepository)(nil)
var _ ports.GrowthRepository = (*SQLRepository)(nil)
var _ ports.PercentileRepository = (*SQLRepository)(nil)
var _ ports.DosingRepository = (*SQLRepository)(nil)
