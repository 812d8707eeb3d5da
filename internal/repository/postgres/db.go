package postgres

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/fhir-sync-api/internal/config"
	"github.com/jwalitptl/fhir-sync-api/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS patients (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	gender TEXT,
	birth_date DATE NOT NULL,
	postal_code TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS observations (
	id TEXT PRIMARY KEY,
	resource_type TEXT,
	status TEXT,
	patient_id TEXT NOT NULL REFERENCES patients (id)
);

CREATE TABLE IF NOT EXISTS outbox_events (
	id UUID PRIMARY KEY,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	status TEXT NOT NULL DEFAULT 'PENDING',
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	processed_at TIMESTAMPTZ,
	retry_count INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_patients_postal_code ON patients (postal_code);
CREATE INDEX IF NOT EXISTS idx_observations_patient_id ON observations (patient_id);
CREATE INDEX IF NOT EXISTS idx_outbox_events_status ON outbox_events (status);
`

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// WaitForDB connects with a bounded retry loop, for deployments where the
// database container comes up after the service.
func WaitForDB(cfg config.DatabaseConfig, attempts int, delay time.Duration, log *logger.Logger) (*sqlx.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := NewDB(cfg)
		if err == nil {
			return db, nil
		}
		lastErr = err
		log.Warn("database not ready", "attempt", attempt, "error", err.Error())
		if attempt < attempts {
			time.Sleep(delay)
		}
	}
	return nil, fmt.Errorf("database unavailable after %d attempts: %w", attempts, lastErr)
}

// EnsureSchema creates the tables this service owns if they are absent.
func EnsureSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
