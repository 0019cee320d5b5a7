package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// InitDatabase creates the database schema from scratch
// This is POC-friendly: auto-creates tables on startup
// Set DROP_TABLES_ON_STARTUP=true environment variable to drop existing tables
func InitDatabase(db *sql.DB) error {
	// Only drop tables if explicitly requested (via env var)
	// This prevents accidental data loss on restart
	if os.Getenv("DROP_TABLES_ON_STARTUP") == "true" {
		log.Println("Dropping existing tables (DROP_TABLES_ON_STARTUP=true)...")
		drops := []string{
			"DROP TABLE IF EXISTS dosing_events CASCADE",
			"DROP TABLE IF EXISTS growth_samples CASCADE",
			"DROP TABLE IF EXISTS care_records CASCADE",
			"DROP TABLE IF EXISTS growth_percentiles CASCADE",
			"DROP TABLE IF EXISTS babies CASCADE",
		}
		for _, dropSQL := range drops {
			if _, err := db.Exec(dropSQL); err != nil {
				log.Printf("Warning: Failed to drop table: %v", err)
			}
		}
	} else {
		log.Println("Skipping table drop (set DROP_TABLES_ON_STARTUP=true to drop tables on startup)")
	}

	// Create babies table
	log.Println("Creating babies table...")
	babiesSchema := `
	CREATE TABLE IF NOT EXISTS babies (
		id UUID PRIMARY KEY,
		last_name TEXT NOT NULL,
		birth_date TIMESTAMP NOT NULL,
		sex TEXT NOT NULL CHECK (sex IN ('male', 'female')),
		parent_user_id UUID NOT NULL,
		created_at TIMESTAMP DEFAULT now()
	);`

	if _, err := db.Exec(babiesSchema); err != nil {
		return fmt.Errorf("failed to create babies table: %w", err)
	}

	// Create care_records table
	log.Println("Creating care_records table...")
	recordsSchema := `
	CREATE TABLE IF NOT EXISTS care_records (
		id UUID PRIMARY KEY,
		baby_id UUID NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
		caregiver_id UUID NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('feeding', 'sleep', 'excretion', 'fever', 'medication')),
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP NOT NULL,
		note TEXT,
		created_at TIMESTAMP DEFAULT now(),
		CONSTRAINT chk_record_interval CHECK (ended_at >= started_at)
	);`

	if _, err := db.Exec(recordsSchema); err != nil {
		return fmt.Errorf("failed to create care_records table: %w", err)
	}

	// Create growth_samples table
	log.Println("Creating growth_samples table...")
	samplesSchema := `
	CREATE TABLE IF NOT EXISTS growth_samples (
		id UUID PRIMARY KEY,
		baby_id UUID NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
		type TEXT NOT NULL CHECK (type IN ('height', 'weight', 'head_size')),
		value NUMERIC NOT NULL CHECK (value > 0),
		measured_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT now()
	);`

	if _, err := db.Exec(samplesSchema); err != nil {
		return fmt.Errorf("failed to create growth_samples table: %w", err)
	}

	// Create dosing_events table
	log.Println("Creating dosing_events table...")
	dosesSchema := `
	CREATE TABLE IF NOT EXISTS dosing_events (
		id UUID PRIMARY KEY,
		baby_id UUID NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
		caregiver_id UUID NOT NULL,
		drug_class TEXT NOT NULL CHECK (drug_class IN ('acetaminophen', 'ibuprofen')),
		amount_mg NUMERIC NOT NULL CHECK (amount_mg > 0),
		administered_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT now()
	);`

	if _, err := db.Exec(dosesSchema); err != nil {
		return fmt.Errorf("failed to create dosing_events table: %w", err)
	}

	// Create growth_percentiles reference table
	// Rows are seeded by the percentile loader job, not by this service
	log.Println("Creating growth_percentiles table...")
	percentilesSchema := `
	CREATE TABLE IF NOT EXISTS growth_percentiles (
		sex TEXT NOT NULL CHECK (sex IN ('male', 'female')),
		type TEXT NOT NULL CHECK (type IN ('height', 'weight', 'head_size')),
		day_of_life INTEGER NOT NULL CHECK (day_of_life >= 0),
		p3 NUMERIC NOT NULL,
		p10 NUMERIC NOT NULL,
		p25 NUMERIC NOT NULL,
		p50 NUMERIC NOT NULL,
		p75 NUMERIC NOT NULL,
		p90 NUMERIC NOT NULL,
		p97 NUMERIC NOT NULL,
		p99 NUMERIC NOT NULL,
		PRIMARY KEY (sex, type, day_of_life)
	);`

	if _, err := db.Exec(percentilesSchema); err != nil {
		return fmt.Errorf("failed to create growth_percentiles table: %w", err)
	}

	// Create indexes
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_babies_parent_user_id ON babies(parent_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_care_records_baby_id ON care_records(baby_id)",
		"CREATE INDEX IF NOT EXISTS idx_care_records_baby_type_started ON care_records(baby_id, type, started_at)",
		"CREATE INDEX IF NOT EXISTS idx_growth_samples_baby_type_measured ON growth_samples(baby_id, type, measured_at)",
		"CREATE INDEX IF NOT EXISTS idx_dosing_events_baby_administered ON dosing_events(baby_id, administered_at)",
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
		}
	}

	log.Println("Database schema initialized successfully")
	return nil
}

// ConnectDatabase establishes a connection to PostgreSQL with retry logic
func ConnectDatabase(databaseURL string, maxRetries int, retryDelay time.Duration) (*sql.DB, error) {
	var db *sql.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			log.Printf("Failed to open database connection (attempt %d/%d): %v", i+1, maxRetries, err)
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
		}

		// Test the connection
		if err = db.Ping(); err != nil {
			log.Printf("Failed to ping database (attempt %d/%d): %v", i+1, maxRetries, err)
			db.Close()
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", maxRetries, err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		log.Println("Database connection established successfully")
		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database: %w", err)
}
