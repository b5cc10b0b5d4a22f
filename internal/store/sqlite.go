// Package store provides storage backends for the vacancies database.
//
// This file implements the SQLite-backed vacancy store, used for local
// development and small deployments.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	"github.com/YoPracticando/PractiBot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore implements VacancyStore on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements VacancyStore.
var _ VacancyStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file; the directory
// is created if it does not exist.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")
	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// In-memory databases have no containing directory to create.
	if !strings.Contains(cfg.DSN, ":memory:") && !strings.Contains(cfg.DSN, "mode=memory") {
		dir := filepath.Dir(strings.TrimPrefix(cfg.DSN, "file:"))
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			slog.Error("Failed to create database directory", "error", err, "dir", dir)
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")
	return &SQLiteStore{db: db}, nil
}

func sqlitePlaceholder(int) string {
	return "?"
}

func (s *SQLiteStore) GetByCareer(career string) ([]models.Vacancy, error) {
	rows, err := s.db.Query(
		`SELECT `+vacancyColumns+` FROM vacantes
		 WHERE carrera LIKE ? AND activa = TRUE
		 ORDER BY COALESCE(fecha_publicacion, created_at) DESC`,
		"%"+career+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query vacancies by career failed: %w", err)
	}
	return collectVacancies(rows)
}

func (s *SQLiteStore) GetWithFilters(filters models.VacancyFilters) ([]models.Vacancy, error) {
	query, args := buildFilterQuery(filters, sqlitePlaceholder)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vacancies with filters failed: %w", err)
	}
	return collectVacancies(rows)
}

func (s *SQLiteStore) GetAll(limit int) ([]models.Vacancy, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.Query(
		`SELECT `+vacancyColumns+` FROM vacantes WHERE activa = TRUE
		 ORDER BY COALESCE(fecha_publicacion, created_at) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query all vacancies failed: %w", err)
	}
	return collectVacancies(rows)
}

func (s *SQLiteStore) Careers() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT carrera FROM vacantes WHERE activa = TRUE ORDER BY carrera`)
	if err != nil {
		return nil, fmt.Errorf("query careers failed: %w", err)
	}
	return collectStrings(rows)
}

func (s *SQLiteStore) Locations() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT lugar FROM vacantes WHERE activa = TRUE ORDER BY lugar`)
	if err != nil {
		return nil, fmt.Errorf("query locations failed: %w", err)
	}
	return collectStrings(rows)
}

func (s *SQLiteStore) Add(v models.Vacancy) (int64, error) {
	if err := v.Validate(); err != nil {
		return 0, err
	}
	result, err := s.db.Exec(
		`INSERT INTO vacantes (empresa, nombre_vacante, modalidad, cantidad_reclutar, lugar, link_url,
		 carrera, tipo_vacante, descripcion, requisitos, beneficios, fecha_publicacion, fecha_limite)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?)`,
		v.Company, v.Title, string(v.Modality), v.Openings, v.Location, nilIfEmpty(v.URL),
		v.Career, string(v.Type), nilIfEmpty(v.Description), nilIfEmpty(v.Requirements),
		nilIfEmpty(v.Benefits), nilIfZeroTime(v.Deadline),
	)
	if err != nil {
		slog.Error("SQLiteStore Add failed", "error", err, "company", v.Company)
		return 0, fmt.Errorf("insert vacancy failed: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted vacancy ID failed: %w", err)
	}
	slog.Debug("SQLiteStore Add succeeded", "id", id, "company", v.Company)
	return id, nil
}

func (s *SQLiteStore) Stats() (models.VacancyStats, error) {
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
