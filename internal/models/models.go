// Package models defines the core data structures for PractiBot.
//
// It includes vacancy types shared between the store and the conversation
// flow, messaging events, and the standard API response envelope.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Modality describes the working arrangement of a vacancy.
type Modality string

const (
	ModalityFullTime  Modality = "tiempo_completo"
	ModalityPartTime  Modality = "medio_tiempo"
	ModalityRemote    Modality = "remoto"
	ModalityHybrid    Modality = "hibrido"
	ModalityOnSite    Modality = "presencial"
)

// VacancyType distinguishes social-service postings from professional internships.
type VacancyType string

const (
	VacancyTypeSocialService VacancyType = "servicio_social"
	VacancyTypeInternship    VacancyType = "practicas_profesionales"
	VacancyTypeBoth          VacancyType = "ambos"
)

// Validation constants for vacancy input validation
const (
	// MaxVacancyFieldLength defines the maximum allowed length for short text columns
	MaxVacancyFieldLength = 255
	// MaxVacancyURLLength defines the maximum allowed length for the posting URL
	MaxVacancyURLLength = 500
)

// Error variables for better error handling and testability
var (
	ErrEmptyCompany       = errors.New("company cannot be empty")
	ErrEmptyTitle         = errors.New("vacancy title cannot be empty")
	ErrEmptyCareer        = errors.New("career cannot be empty")
	ErrEmptyLocation      = errors.New("location cannot be empty")
	ErrInvalidModality    = errors.New("invalid modality")
	ErrInvalidVacancyType = errors.New("invalid vacancy type")
	ErrFieldTooLong       = errors.New("field exceeds maximum length")
)

// IsValidModality checks if the given modality is supported.
func IsValidModality(m Modality) bool {
	switch m {
	case ModalityFullTime, ModalityPartTime, ModalityRemote, ModalityHybrid, ModalityOnSite:
		return true
	default:
		return false
	}
}

// IsValidVacancyType checks if the given vacancy type is supported.
func IsValidVacancyType(vt VacancyType) bool {
	switch vt {
	case VacancyTypeSocialService, VacancyTypeInternship, VacancyTypeBoth:
		return true
	default:
		return false
	}
}

// ModalityLabel returns the user-facing Spanish label for a modality.
func ModalityLabel(m Modality) string {
	switch m {
	case ModalityFullTime:
		return "Tiempo Completo"
	case ModalityPartTime:
		return "Medio Tiempo"
	case ModalityRemote:
		return "Remoto"
	case ModalityHybrid:
		return "Híbrido"
	case ModalityOnSite:
		return "Presencial"
	default:
		return string(m)
	}
}

// VacancyTypeLabel returns the user-facing Spanish label for a vacancy type.
func VacancyTypeLabel(vt VacancyType) string {
	switch vt {
	case VacancyTypeSocialService:
		return "Servicio Social"
	case VacancyTypeInternship:
		return "Prácticas Profesionales"
	case VacancyTypeBoth:
		return "Servicio Social y Prácticas"
	default:
		return string(vt)
	}
}

// Vacancy represents a job posting stored in the vacancies table.
type Vacancy struct {
	ID           int64       `json:"id"`
	Company      string      `json:"empresa"`
	Title        string      `json:"nombre_vacante"`
	Modality     Modality    `json:"modalidad"`
	Openings     int         `json:"cantidad_reclutar"`
	Location     string      `json:"lugar"`
	URL          string      `json:"link_url,omitempty"`
	Career       string      `json:"carrera"`
	Type         VacancyType `json:"tipo_vacante"`
	Description  string      `json:"descripcion,omitempty"`
	Requirements string      `json:"requisitos,omitempty"`
	Benefits     string      `json:"beneficios,omitempty"`
	PublishedAt  *time.Time  `json:"fecha_publicacion,omitempty"`
	Deadline     *time.Time  `json:"fecha_limite,omitempty"`
	Active       bool        `json:"activa"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Validate performs validation on a Vacancy before insertion.
func (v *Vacancy) Validate() error {
	if strings.TrimSpace(v.Company) == "" {
		return ErrEmptyCompany
	}
	if strings.TrimSpace(v.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(v.Career) == "" {
		return ErrEmptyCareer
	}
	if strings.TrimSpace(v.Location) == "" {
		return ErrEmptyLocation
	}
	if !IsValidModality(v.Modality) {
		return ErrInvalidModality
	}
	if !IsValidVacancyType(v.Type) {
		return ErrInvalidVacancyType
	}
	for _, f := range []string{v.Company, v.Title, v.Career, v.Location} {
		if len(f) > MaxVacancyFieldLength {
			return fmt.Errorf("%w: %q", ErrFieldTooLong, f[:32])
		}
	}
	if len(v.URL) > MaxVacancyURLLength {
		return fmt.Errorf("%w: link_url", ErrFieldTooLong)
	}
	return nil
}

// VacancyFilters narrows a vacancy query. Zero values mean "no filter".
type VacancyFilters struct {
	Career   string      `json:"carrera,omitempty"`
	Modality Modality    `json:"modalidad,omitempty"`
	Location string      `json:"lugar,omitempty"`
	Type     VacancyType `json:"tipo_vacante,omitempty"`
	Company  string      `json:"empresa,omitempty"`
}

// LocationCount pairs a location with its active-vacancy count.
type LocationCount struct {
	Location string `json:"lugar"`
	Count    int    `json:"total"`
}

// CareerCount pairs a career with its active-vacancy count.
type CareerCount struct {
	Career string `json:"carrera"`
	Count  int    `json:"total"`
}

// VacancyStats aggregates counts over the active vacancies.
type VacancyStats struct {
	Total      int             `json:"total"`
	ByCareer   []CareerCount   `json:"por_carrera"`
	ByLocation []LocationCount `json:"por_lugar"`
}

// MessageStatus represents the delivery status of an outbound message.
type MessageStatus string

const (
	StatusTypeSent      MessageStatus = "sent"
	StatusTypeDelivered MessageStatus = "delivered"
	StatusTypeRead      MessageStatus = "read"
)

// Receipt records a delivery/read receipt for an outbound message.
type Receipt struct {
	To     string        `json:"to"`
	Status MessageStatus `json:"status"`
	Time   int64         `json:"time"`
}

// Response represents an incoming message from an end user.
type Response struct {
	From string `json:"from"`
	Name string `json:"name,omitempty"` // push name reported by the provider
	Body string `json:"body"`
	Time int64  `json:"time"`
}
