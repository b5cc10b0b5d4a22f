// Package flow routes student messages to vacancy searches, a guided search
// conversation, or the AI assistant.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/YoPracticando/PractiBot/internal/models"
)

// Listing limits for WhatsApp-sized replies.
const (
	DefaultDetailLimit  = 5
	DefaultSummaryLimit = 10
	DefaultTopLocations = 3
)

// VacancyStore is the subset of the storage layer the router reads from.
type VacancyStore interface {
	GetByCareer(career string) ([]models.Vacancy, error)
	GetWithFilters(filters models.VacancyFilters) ([]models.Vacancy, error)
	GetAll(limit int) ([]models.Vacancy, error)
	Stats() (models.VacancyStats, error)
}

// ReplyGenerator produces an AI answer for messages with no recognized intent.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, userMessage string, vacancies []models.Vacancy) (string, error)
}

// searchStep tracks where a guided search conversation is.
type searchStep int

const (
	stepCareer searchStep = iota
	stepLocation
	stepModality
)

type searchState struct {
	searchType models.VacancyType
	step       searchStep
	career     string
	location   string
}

// Opts holds router configuration.
type Opts struct {
	Assistant    ReplyGenerator
	DetailLimit  int
	SummaryLimit int
}

// Option configures Opts.
type Option func(*Opts)

// WithAssistant sets the AI reply generator for free-form messages.
func WithAssistant(g ReplyGenerator) Option {
	return func(o *Opts) { o.Assistant = g }
}

// WithDetailLimit caps how many full vacancy cards a reply carries.
func WithDetailLimit(n int) Option {
	return func(o *Opts) { o.DetailLimit = n }
}

// WithSummaryLimit caps how many one-line summaries a reply carries.
func WithSummaryLimit(n int) Option {
	return func(o *Opts) { o.SummaryLimit = n }
}

// Router drives the vacancy conversation for every student, keeping per-phone
// guided search state in memory.
type Router struct {
	store        VacancyStore
	assistant    ReplyGenerator
	detailLimit  int
	summaryLimit int

	mu     sync.Mutex
	states map[string]*searchState
}

// NewRouter creates a conversation router over the given vacancy store.
func NewRouter(store VacancyStore, opts ...Option) *Router {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DetailLimit <= 0 {
		cfg.DetailLimit = DefaultDetailLimit
	}
	if cfg.SummaryLimit <= 0 {
		cfg.SummaryLimit = DefaultSummaryLimit
	}
	return &Router{
		store:        store,
		assistant:    cfg.Assistant,
		detailLimit:  cfg.DetailLimit,
		summaryLimit: cfg.SummaryLimit,
		states:       make(map[string]*searchState),
	}
}

// HandleMessage processes one inbound message and returns the ordered replies
// to send back. It never returns an empty slice.
func (r *Router) HandleMessage(ctx context.Context, from, text string) []string {
	text = strings.TrimSpace(text)
	slog.Debug("Router.HandleMessage processing", "from", from, "length", len(text))

	r.mu.Lock()
	state, inSearch := r.states[from]
	r.mu.Unlock()
	if inSearch {
		return r.handleSearchStep(from, state, text)
	}

	switch intent := DetectIntent(text); intent {
	case IntentSearchFlow:
		searchType := models.VacancyTypeInternship
		if strings.Contains(strings.ToLower(text), "servicio") {
			searchType = models.VacancyTypeSocialService
		}
		r.mu.Lock()
		r.states[from] = &searchState{searchType: searchType, step: stepCareer}
		r.mu.Unlock()
		slog.Debug("Router.HandleMessage starting guided search", "from", from, "type", searchType)
		return []string{msgAskCareer}

	case IntentDirectCareer:
		career := ExtractCareer(text)
		if len([]rune(career)) <= 2 {
			return []string{msgAskForTerm}
		}
		return r.searchByCareer(career)

	case IntentRemoteSearch:
		return r.searchByModality(models.ModalityRemote)

	case IntentLocationSearch:
		location := ExtractLocation(text)
		if len([]rune(location)) <= 2 {
			return []string{msgAskForTerm}
		}
		return r.searchByLocation(location)

	case IntentListAll:
		return r.showAllVacancies()

	case IntentHelp:
		return []string{msgHelp}

	default:
		return []string{r.assistantReply(ctx, text)}
	}
}

// Reset clears any guided search state for a phone number.
func (r *Router) Reset(from string) {
	r.mu.Lock()
	delete(r.states, from)
	r.mu.Unlock()
}

func (r *Router) handleSearchStep(from string, state *searchState, text string) []string {
	switch state.step {
	case stepCareer:
		state.career = text
		state.step = stepLocation
		return []string{msgAskLocation}

	case stepLocation:
		if !strings.EqualFold(text, "cualquiera") {
			state.location = text
		}
		state.step = stepModality
		return []string{msgAskModality}

	default:
		filters := models.VacancyFilters{
			Career:   state.career,
			Location: state.location,
			Modality: parseModalityAnswer(text),
			Type:     state.searchType,
		}
		r.Reset(from)
		return r.performSearch(filters)
	}
}

// parseModalityAnswer accepts the menu number or the modality name; anything
// else means no modality filter.
func parseModalityAnswer(text string) models.Modality {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case lower == "1" || strings.Contains(lower, "presencial"):
		return models.ModalityOnSite
	case lower == "2" || strings.Contains(lower, "remot"):
		return models.ModalityRemote
	case lower == "3" || strings.Contains(lower, "híbrid") || strings.Contains(lower, "hibrid"):
		return models.ModalityHybrid
	default:
		return ""
	}
}

func (r *Router) performSearch(filters models.VacancyFilters) []string {
	replies := []string{msgSearching}
	vacancies, err := r.store.GetWithFilters(filters)
	if err != nil {
		slog.Error("Router.performSearch store query failed", "error", err)
		return append(replies, msgSearchError)
	}
	if len(vacancies) == 0 {
		return append(replies, msgNoResults)
	}

	replies = append(replies, fmt.Sprintf("✅ ¡Encontré %d oportunidades para ti!", len(vacancies)))
	for _, v := range limitVacancies(vacancies, r.detailLimit) {
		replies = append(replies, FormatVacancyInfo(v))
	}
	if extra := len(vacancies) - r.detailLimit; extra > 0 {
		replies = append(replies, fmt.Sprintf("📌 Hay %d vacantes más que cumplen tus criterios.", extra))
	}
	return append(replies, motivationalMessage())
}

func (r *Router) searchByCareer(career string) []string {
	vacancies, err := r.store.GetByCareer(career)
	if err != nil {
		slog.Error("Router.searchByCareer store query failed", "career", career, "error", err)
		return []string{msgSearchError}
	}
	if len(vacancies) == 0 {
		return []string{fmt.Sprintf("❌ No encontré vacantes para %q.\n\nPuedes intentar con otro término o escribir \"buscar prácticas\".", career)}
	}

	replies := []string{fmt.Sprintf("✅ Encontré %d oportunidades para %s:", len(vacancies), career)}
	for _, v := range limitVacancies(vacancies, r.detailLimit) {
		replies = append(replies, FormatVacancyInfo(v))
	}
	if extra := len(vacancies) - r.detailLimit; extra > 0 {
		replies = append(replies, fmt.Sprintf("📌 Hay %d vacantes más.", extra))
	}
	return append(replies, motivationalMessage())
}

func (r *Router) searchByModality(modality models.Modality) []string {
	vacancies, err := r.store.GetWithFilters(models.VacancyFilters{Modality: modality})
	if err != nil {
		slog.Error("Router.searchByModality store query failed", "modality", modality, "error", err)
		return []string{msgSearchError}
	}
	if len(vacancies) == 0 {
		return []string{fmt.Sprintf("❌ No encontré vacantes %s por ahora.", models.ModalityLabel(modality))}
	}

	replies := []string{fmt.Sprintf("✅ Vacantes %s (%d):", models.ModalityLabel(modality), len(vacancies))}
	for _, v := range limitVacancies(vacancies, r.summaryLimit) {
		replies = append(replies, FormatVacancySummary(v))
	}
	if extra := len(vacancies) - r.summaryLimit; extra > 0 {
		replies = append(replies, fmt.Sprintf("... y %d más.", extra))
	}
	return append(replies, msgTipByCareer)
}

func (r *Router) searchByLocation(location string) []string {
	vacancies, err := r.store.GetWithFilters(models.VacancyFilters{Location: location})
	if err != nil {
		slog.Error("Router.searchByLocation store query failed", "location", location, "error", err)
		return []string{msgSearchError}
	}
	if len(vacancies) == 0 {
		return []string{fmt.Sprintf("❌ No encontré vacantes en %q.\n\nIntenta con otra ciudad o escribe \"vacantes remotas\".", location)}
	}

	replies := []string{fmt.Sprintf("✅ Vacantes en %s (%d):", location, len(vacancies))}
	for _, v := range limitVacancies(vacancies, r.summaryLimit) {
		replies = append(replies, FormatVacancySummary(v))
	}
	if extra := len(vacancies) - r.summaryLimit; extra > 0 {
		replies = append(replies, fmt.Sprintf("... y %d más.", extra))
	}
	return append(replies, msgTipByCareer)
}

func (r *Router) showAllVacancies() []string {
	vacancies, err := r.store.GetAll(r.summaryLimit)
	if err != nil {
		slog.Error("Router.showAllVacancies store query failed", "error", err)
		return []string{msgSearchError}
	}
	if len(vacancies) == 0 {
		return []string{msgNoVacancies}
	}

	var replies []string
	if stats, err := r.store.Stats(); err == nil {
		var cities []string
		for i, l := range stats.ByLocation {
			if i == DefaultTopLocations {
				break
			}
			cities = append(cities, l.Location)
		}
		replies = append(replies, fmt.Sprintf("📊 *Estadísticas actuales:*\nTotal de vacantes: %d\nCiudades principales: %s",
			stats.Total, strings.Join(cities, ", ")))
	} else {
		slog.Warn("Router.showAllVacancies stats query failed", "error", err)
	}

	replies = append(replies, "📌 *Últimas vacantes publicadas:*")
	for _, v := range vacancies {
		replies = append(replies, FormatVacancySummary(v))
	}
	return append(replies, msgTipDetails)
}

func (r *Router) assistantReply(ctx context.Context, text string) string {
	if r.assistant == nil {
		return fallbackResponse(text)
	}
	vacancies, err := r.store.GetAll(r.summaryLimit)
	if err != nil {
		slog.Warn("Router.assistantReply vacancy context unavailable", "error", err)
		vacancies = nil
	}
	reply, err := r.assistant.GenerateReply(ctx, text, vacancies)
	if err != nil {
		slog.Warn("Router.assistantReply generation failed, using fallback", "error", err)
		return fallbackResponse(text)
	}
	return reply
}

func limitVacancies(vacancies []models.Vacancy, limit int) []models.Vacancy {
	if len(vacancies) > limit {
		return vacancies[:limit]
	}
	return vacancies
}
