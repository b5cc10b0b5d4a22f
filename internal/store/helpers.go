package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/YoPracticando/PractiBot/internal/models"
)

// vacancyColumns is the column list shared by every vacancy SELECT.
const vacancyColumns = `id, empresa, nombre_vacante, modalidad, cantidad_reclutar, lugar, link_url,
	carrera, tipo_vacante, descripcion, requisitos, beneficios, fecha_publicacion, fecha_limite,
	activa, created_at, updated_at`

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nilIfZeroTime returns nil for a nil or zero time pointer.
func nilIfZeroTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}

// scanVacancy scans a Vacancy from sql.Rows.
func scanVacancy(rows *sql.Rows) (models.Vacancy, error) {
	var v models.Vacancy
	var url, description, requirements, benefits sql.NullString
	var publishedAt, deadline sql.NullTime
	err := rows.Scan(
		&v.ID, &v.Company, &v.Title, &v.Modality, &v.Openings, &v.Location, &url,
		&v.Career, &v.Type, &description, &requirements, &benefits, &publishedAt, &deadline,
		&v.Active, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return v, fmt.Errorf("scan vacancy failed: %w", err)
	}
	v.URL = url.String
	v.Description = description.String
	v.Requirements = requirements.String
	v.Benefits = benefits.String
	if publishedAt.Valid {
		v.PublishedAt = &publishedAt.Time
	}
	if deadline.Valid {
		v.Deadline = &deadline.Time
	}
	return v, nil
}

// collectVacancies drains rows into a slice.
func collectVacancies(rows *sql.Rows) ([]models.Vacancy, error) {
	defer rows.Close()
	var vacancies []models.Vacancy
	for rows.Next() {
		v, err := scanVacancy(rows)
		if err != nil {
			return nil, err
		}
		vacancies = append(vacancies, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vacancies failed: %w", err)
	}
	return vacancies, nil
}

// collectStrings drains a single-column string result set.
func collectStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var values []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan string failed: %w", err)
		}
		values = append(values, s)
	}
	return values, rows.Err()
}

// placeholderFunc renders the nth positional SQL placeholder (1-based).
type placeholderFunc func(n int) string

// buildFilterQuery assembles the WHERE clause for GetWithFilters. Vacancies
// typed "ambos" satisfy either specific type filter.
func buildFilterQuery(filters models.VacancyFilters, ph placeholderFunc) (string, []interface{}) {
	query := `SELECT ` + vacancyColumns + ` FROM vacantes WHERE activa = TRUE`
	var args []interface{}
	n := 0
	next := func() string {
		n++
		return ph(n)
	}

	if filters.Career != "" {
		query += ` AND carrera LIKE ` + next()
		args = append(args, "%"+filters.Career+"%")
	}
	if filters.Modality != "" {
		query += ` AND modalidad = ` + next()
		args = append(args, string(filters.Modality))
	}
	if filters.Location != "" {
		query += ` AND lugar LIKE ` + next()
		args = append(args, "%"+filters.Location+"%")
	}
	if filters.Type != "" {
		query += ` AND (tipo_vacante = ` + next() + ` OR tipo_vacante = 'ambos')`
		args = append(args, string(filters.Type))
	}
	if filters.Company != "" {
		query += ` AND empresa LIKE ` + next()
		args = append(args, "%"+filters.Company+"%")
	}

	query += ` ORDER BY COALESCE(fecha_publicacion, created_at) DESC`
	return query, args
}
