// Package store provides storage backends for the vacancies database.
//
// This file implements the PostgreSQL-backed vacancy store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/YoPracticando/PractiBot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore implements VacancyStore on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements VacancyStore.
var _ VacancyStore = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func postgresPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (s *PostgresStore) GetByCareer(career string) ([]models.Vacancy, error) {
	rows, err := s.db.Query(
		`SELECT `+vacancyColumns+` FROM vacantes
		 WHERE carrera LIKE $1 AND activa = TRUE
		 ORDER BY COALESCE(fecha_publicacion, created_at) DESC`,
		"%"+career+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query vacancies by career failed: %w", err)
	}
	return collectVacancies(rows)
}

func (s *PostgresStore) GetWithFilters(filters models.VacancyFilters) ([]models.Vacancy, error) {
	query, args := buildFilterQuery(filters, postgresPlaceholder)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vacancies with filters failed: %w", err)
	}
	return collectVacancies(rows)
}

func (s *PostgresStore) GetAll(limit int) ([]models.Vacancy, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.Query(
		`SELECT `+vacancyColumns+` FROM vacantes WHERE activa = TRUE
		 ORDER BY COALESCE(fecha_publicacion, created_at) DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query all vacancies failed: %w", err)
	}
	return collectVacancies(rows)
}

func (s *PostgresStore) Careers() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT carrera FROM vacantes WHERE activa = TRUE ORDER BY carrera`)
	if err != nil {
		return nil, fmt.Errorf("query careers failed: %w", err)
	}
	return collectStrings(rows)
}

func (s *PostgresStore) Locations() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT lugar FROM vacantes WHERE activa = TRUE ORDER BY lugar`)
	if err != nil {
		return nil, fmt.Errorf("query locations failed: %w", err)
	}
	return collectStrings(rows)
}

func (s *PostgresStore) Add(v models.Vacancy) (int64, error) {
	if err := v.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO vacantes (empresa, nombre_vacante, modalidad, cantidad_reclutar, lugar, link_url,
		 carrera, tipo_vacante, descripcion, requisitos, beneficios, fecha_publicacion, fecha_limite)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CURRENT_DATE, $12)
		 RETURNING id`,
		v.Company, v.Title, string(v.Modality), v.Openings, v.Location, nilIfEmpty(v.URL),
		v.Career, string(v.Type), nilIfEmpty(v.Description), nilIfEmpty(v.Requirements),
		nilIfEmpty(v.Benefits), nilIfZeroTime(v.Deadline),
	).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore Add failed", "error", err, "company", v.Company)
		return 0, fmt.Errorf("insert vacancy failed: %w", err)
	}
	slog.Debug("PostgresStore Add succeeded", "id", id, "company", v.Company)
	return id, nil
}

func (s *PostgresStore) Stats() (models.VacancyStats, error) {
	var stats models.VacancyStats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM vacantes WHERE activa = TRUE`).Scan(&stats.Total); err != nil {
		return stats, fmt.Errorf("count vacancies failed: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT carrera, COUNT(*) AS total FROM vacantes WHERE activa = TRUE
		 GROUP BY carrera ORDER BY total DESC LIMIT 5`)
	if err != nil {
		return stats, fmt.Errorf("career stats failed: %w", err)
	}
	for rows.Next() {
		var c models.CareerCount
		if err := rows.Scan(&c.Career, &c.Count); err != nil {
			rows.Close()
			return stats, err
		}
		stats.ByCareer = append(stats.ByCareer, c)
	}
	rows.Close()

	rows, err = s.db.Query(
		`SELECT lugar, COUNT(*) AS total FROM vacantes WHERE activa = TRUE
		 GROUP BY lugar ORDER BY total DESC LIMIT 5`)
	if err != nil {
		return stats, fmt.Errorf("location stats failed: %w", err)
	}
	for rows.Next() {
		var l models.LocationCount
		if err := rows.Scan(&l.Location, &l.Count); err != nil {
			rows.Close()
			return stats, err
		}
		stats.ByLocation = append(stats.ByLocation, l)
	}
	rows.Close()

	return stats, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
