package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/YoPracticando/PractiBot/internal/models"
)

func (s *Server) vacanciesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodGet:
		s.listVacancies(w, r)
	case http.MethodPost:
		s.createVacancy(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		slog.Warn("Server.vacanciesHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) listVacancies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := models.VacancyFilters{
		Career:   q.Get("carrera"),
		Location: q.Get("lugar"),
		Modality: models.Modality(q.Get("modalidad")),
		Type:     models.VacancyType(q.Get("tipo")),
		Company:  q.Get("empresa"),
	}
	if filters.Modality != "" && !models.IsValidModality(filters.Modality) {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid modality filter"))
		return
	}
	if filters.Type != "" && !models.IsValidVacancyType(filters.Type) {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid vacancy type filter"))
		return
	}

	vacancies, err := s.store.GetWithFilters(filters)
	if err != nil {
		slog.Error("Server.listVacancies: store query failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list vacancies"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(vacancies))
}

func (s *Server) createVacancy(w http.ResponseWriter, r *http.Request) {
	var v models.Vacancy
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		slog.Warn("Server.createVacancy: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := v.Validate(); err != nil {
		slog.Warn("Server.createVacancy: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	id, err := s.store.Add(v)
	if err != nil {
		slog.Error("Server.createVacancy: insert failed", "error", err, "company", v.Company)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create vacancy"))
		return
	}
	v.ID = id
	slog.Info("Server.createVacancy: vacancy created", "id", id, "company", v.Company)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Vacancy created", v))
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	stats, err := s.store.Stats()
	if err != nil {
		slog.Error("Server.statsHandler: store query failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to compute stats"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(stats))
}

func (s *Server) careersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	careers, err := s.store.Careers()
	if err != nil {
		slog.Error("Server.careersHandler: store query failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list careers"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(careers))
}

func (s *Server) locationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	locations, err := s.store.Locations()
	if err != nil {
		slog.Error("Server.locationsHandler: store query failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list locations"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(locations))
}

// sendRequest is an ad-hoc outbound message, e.g. an announcement to a student.
type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (s *Server) sendHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.sendHandler: processing send request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.sendHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.sendHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Body == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("message body is required"))
		return
	}

	canonicalTo, err := s.msgService.ValidateAndCanonicalizeRecipient(req.To)
	if err != nil {
		slog.Warn("Server.sendHandler: recipient validation failed", "error", err, "original_to", req.To)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	if err := s.msgService.SendMessage(context.Background(), canonicalTo, req.Body); err != nil {
		slog.Error("Server.sendHandler: failed to send message", "error", err, "to", canonicalTo)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to send message"))
		return
	}

	slog.Info("Server.sendHandler: message sent successfully", "to", canonicalTo)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Message sent successfully", nil))
}

// scheduleRequest is a recurring outbound message driven by a cron expression.
type scheduleRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
	Cron string `json:"cron"`
}

func (s *Server) scheduleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.sched == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Scheduling is not enabled"))
		return
	}
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.scheduleHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Body == "" || req.Cron == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("message body and cron expression are required"))
		return
	}

	canonicalTo, err := s.msgService.ValidateAndCanonicalizeRecipient(req.To)
	if err != nil {
		slog.Warn("Server.scheduleHandler: recipient validation failed", "error", err, "original_to", req.To)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	err = s.sched.AddJob(req.Cron, func() {
		if sendErr := s.msgService.SendMessage(context.Background(), canonicalTo, req.Body); sendErr != nil {
			slog.Error("Scheduled send failed", "error", sendErr, "to", canonicalTo)
		}
	})
	if err != nil {
		slog.Warn("Server.scheduleHandler: invalid cron expression", "error", err, "cron", req.Cron)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid cron expression"))
		return
	}

	slog.Info("Server.scheduleHandler: job scheduled", "to", canonicalTo, "cron", req.Cron)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Message scheduled", nil))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}
