// Package store provides storage backends for the vacancies database.
//
// It includes PostgreSQL and SQLite implementations of the VacancyStore
// interface, selected by DSN autodetection.
package store

import (
	"strings"

	"github.com/YoPracticando/PractiBot/internal/models"
)

// DefaultListLimit caps how many vacancies a bulk listing returns.
const DefaultListLimit = 20

// VacancyStore defines the vacancy persistence operations used by the
// conversation flow.
type VacancyStore interface {
	// GetByCareer returns active vacancies whose career matches the term.
	GetByCareer(career string) ([]models.Vacancy, error)

	// GetWithFilters returns active vacancies matching all non-zero filters.
	GetWithFilters(filters models.VacancyFilters) ([]models.Vacancy, error)

	// GetAll returns the most recent active vacancies, capped at limit
	// (DefaultListLimit when limit <= 0).
	GetAll(limit int) ([]models.Vacancy, error)

	// Careers returns the distinct careers with active vacancies.
	Careers() ([]string, error)

	// Locations returns the distinct locations with active vacancies.
	Locations() ([]string, error)

	// Add inserts a new vacancy and returns its ID.
	Add(v models.Vacancy) (int64, error)

	// Stats aggregates counts over active vacancies.
	Stats() (models.VacancyStats, error)

	// Close releases the underlying database connection.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL DSNs
// use the postgres:// scheme or key=value connection strings; everything
// else is treated as an SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "user=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}

// NewVacancyStore opens the backend matching the DSN type.
func NewVacancyStore(opts ...Option) (VacancyStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if DetectDSNType(cfg.DSN) == "postgres" {
		return NewPostgresStore(opts...)
	}
	return NewSQLiteStore(opts...)
}
