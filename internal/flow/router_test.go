package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/YoPracticando/PractiBot/internal/models"
)

// mockStore implements VacancyStore for testing.
type mockStore struct {
	vacancies   []models.Vacancy
	stats       models.VacancyStats
	err         error
	lastFilters models.VacancyFilters
	lastCareer  string
}

func (m *mockStore) GetByCareer(career string) ([]models.Vacancy, error) {
	m.lastCareer = career
	return m.vacancies, m.err
}

func (m *mockStore) GetWithFilters(filters models.VacancyFilters) ([]models.Vacancy, error) {
	m.lastFilters = filters
	return m.vacancies, m.err
}

func (m *mockStore) GetAll(limit int) ([]models.Vacancy, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.vacancies) > limit {
		return m.vacancies[:limit], nil
	}
	return m.vacancies, nil
}

func (m *mockStore) Stats() (models.VacancyStats, error) {
	return m.stats, m.err
}

// mockAssistant implements ReplyGenerator for testing.
type mockAssistant struct {
	reply string
	err   error
	calls int
}

func (m *mockAssistant) GenerateReply(ctx context.Context, userMessage string, vacancies []models.Vacancy) (string, error) {
	m.calls++
	return m.reply, m.err
}

func makeVacancies(n int) []models.Vacancy {
	out := make([]models.Vacancy, n)
	for i := range out {
		out[i] = models.Vacancy{
			ID:       int64(i + 1),
			Company:  fmt.Sprintf("Empresa %d", i+1),
			Title:    fmt.Sprintf("Vacante %d", i+1),
			Career:   "Ingeniería en Sistemas",
			Location: "Hermosillo",
			Modality: models.ModalityRemote,
			Openings: 1,
			Type:     models.VacancyTypeInternship,
		}
	}
	return out
}

func TestGuidedSearchFlow(t *testing.T) {
	store := &mockStore{vacancies: makeVacancies(2)}
	router := NewRouter(store)
	ctx := context.Background()
	from := "+525551234567"

	replies := router.HandleMessage(ctx, from, "quiero hacer prácticas")
	if len(replies) != 1 || replies[0] != msgAskCareer {
		t.Fatalf("expected career question, got %v", replies)
	}

	replies = router.HandleMessage(ctx, from, "Ingeniería en Sistemas")
	if len(replies) != 1 || replies[0] != msgAskLocation {
		t.Fatalf("expected location question, got %v", replies)
	}

	replies = router.HandleMessage(ctx, from, "cualquiera")
	if len(replies) != 1 || replies[0] != msgAskModality {
		t.Fatalf("expected modality question, got %v", replies)
	}

	replies = router.HandleMessage(ctx, from, "2")
	if replies[0] != msgSearching {
		t.Errorf("expected searching notice first, got %q", replies[0])
	}
	if !strings.Contains(replies[1], "2 oportunidades") {
		t.Errorf("expected result count, got %q", replies[1])
	}

	if store.lastFilters.Career != "Ingeniería en Sistemas" {
		t.Errorf("expected career filter, got %q", store.lastFilters.Career)
	}
	if store.lastFilters.Location != "" {
		t.Errorf("expected any location, got %q", store.lastFilters.Location)
	}
	if store.lastFilters.Modality != models.ModalityRemote {
		t.Errorf("expected remote modality, got %q", store.lastFilters.Modality)
	}
	if store.lastFilters.Type != models.VacancyTypeInternship {
		t.Errorf("expected internship type, got %q", store.lastFilters.Type)
	}

	// The guided search state is cleared when the search completes.
	replies = router.HandleMessage(ctx, from, "ayuda")
	if len(replies) != 1 || replies[0] != msgHelp {
		t.Errorf("expected help after flow ended, got %v", replies)
	}
}

func TestGuidedSearchSocialServiceType(t *testing.T) {
	store := &mockStore{vacancies: makeVacancies(1)}
	router := NewRouter(store)
	ctx := context.Background()
	from := "+525551234567"

	router.HandleMessage(ctx, from, "busco servicio social")
	router.HandleMessage(ctx, from, "Derecho")
	router.HandleMessage(ctx, from, "CDMX")
	router.HandleMessage(ctx, from, "4")

	if store.lastFilters.Type != models.VacancyTypeSocialService {
		t.Errorf("expected social service type, got %q", store.lastFilters.Type)
	}
	if store.lastFilters.Location != "CDMX" {
		t.Errorf("expected CDMX location, got %q", store.lastFilters.Location)
	}
	if store.lastFilters.Modality != "" {
		t.Errorf("expected no modality filter for 'cualquiera' answer, got %q", store.lastFilters.Modality)
	}
}

func TestGuidedSearchNoResults(t *testing.T) {
	store := &mockStore{}
	router := NewRouter(store)
	ctx := context.Background()
	from := "+525551234567"

	router.HandleMessage(ctx, from, "buscar prácticas")
	router.HandleMessage(ctx, from, "Medicina")
	router.HandleMessage(ctx, from, "cualquiera")
	replies := router.HandleMessage(ctx, from, "1")

	if len(replies) != 2 || replies[1] != msgNoResults {
		t.Errorf("expected no-results message, got %v", replies)
	}
}

func TestDirectCareerSearch(t *testing.T) {
	store := &mockStore{vacancies: makeVacancies(7)}
	router := NewRouter(store)

	replies := router.HandleMessage(context.Background(), "+525551234567", "vacantes de ingeniería")
	if store.lastCareer != "ingeniería" {
		t.Errorf("expected career term extracted, got %q", store.lastCareer)
	}
	if !strings.Contains(replies[0], "7 oportunidades") {
		t.Errorf("expected count header, got %q", replies[0])
	}
	// 1 header + 5 cards + 1 overflow note + 1 motivational message
	if len(replies) != 8 {
		t.Fatalf("expected 8 replies, got %d", len(replies))
	}
	if !strings.Contains(replies[6], "2 vacantes más") {
		t.Errorf("expected overflow note, got %q", replies[6])
	}
}

func TestDirectCareerTooShort(t *testing.T) {
	router := NewRouter(&mockStore{})
	replies := router.HandleMessage(context.Background(), "+525551234567", "vacantes de ti")
	if len(replies) != 1 || replies[0] != msgAskForTerm {
		t.Errorf("expected clarification request, got %v", replies)
	}
}

func TestRemoteSearchUsesSummaries(t *testing.T) {
	store := &mockStore{vacancies: makeVacancies(3)}
	router := NewRouter(store)

	replies := router.HandleMessage(context.Background(), "+525551234567", "vacantes remotas")
	if store.lastFilters.Modality != models.ModalityRemote {
		t.Errorf("expected remote filter, got %q", store.lastFilters.Modality)
	}
	if !strings.Contains(replies[1], "Vacante 1") || !strings.Contains(replies[1], "Empresa 1") {
		t.Errorf("expected summary line, got %q", replies[1])
	}
	if replies[len(replies)-1] != msgTipByCareer {
		t.Errorf("expected career tip last, got %q", replies[len(replies)-1])
	}
}

func TestListAllIncludesStats(t *testing.T) {
	store := &mockStore{
		vacancies: makeVacancies(4),
		stats: models.VacancyStats{
			Total: 4,
			ByLocation: []models.LocationCount{
				{Location: "Hermosillo", Count: 3},
				{Location: "CDMX", Count: 1},
			},
		},
	}
	router := NewRouter(store)

	replies := router.HandleMessage(context.Background(), "+525551234567", "todas las vacantes")
	if !strings.Contains(replies[0], "Total de vacantes: 4") {
		t.Errorf("expected stats header, got %q", replies[0])
	}
	if !strings.Contains(replies[0], "Hermosillo, CDMX") {
		t.Errorf("expected top cities, got %q", replies[0])
	}
	if replies[len(replies)-1] != msgTipDetails {
		t.Errorf("expected details tip last, got %q", replies[len(replies)-1])
	}
}

func TestFreeFormUsesAssistant(t *testing.T) {
	assistant := &mockAssistant{reply: "¡Con gusto te ayudo!"}
	router := NewRouter(&mockStore{}, WithAssistant(assistant))

	replies := router.HandleMessage(context.Background(), "+525551234567", "qué onda, necesito orientación")
	if len(replies) != 1 || replies[0] != "¡Con gusto te ayudo!" {
		t.Errorf("expected assistant reply, got %v", replies)
	}
	if assistant.calls != 1 {
		t.Errorf("expected one assistant call, got %d", assistant.calls)
	}
}

func TestFreeFormFallsBackWhenAssistantFails(t *testing.T) {
	assistant := &mockAssistant{err: errors.New("model unavailable")}
	router := NewRouter(&mockStore{}, WithAssistant(assistant))

	replies := router.HandleMessage(context.Background(), "+525551234567", "hola")
	if len(replies) != 1 || !strings.Contains(replies[0], "¡Hola!") {
		t.Errorf("expected greeting fallback, got %v", replies)
	}
}

func TestFreeFormFallbackWithoutAssistant(t *testing.T) {
	router := NewRouter(&mockStore{})

	replies := router.HandleMessage(context.Background(), "+525551234567", "gracias")
	if len(replies) != 1 || !strings.Contains(replies[0], "De nada") {
		t.Errorf("expected thanks fallback, got %v", replies)
	}
}

func TestStoreErrorProducesSearchError(t *testing.T) {
	store := &mockStore{err: errors.New("db down")}
	router := NewRouter(store)

	replies := router.HandleMessage(context.Background(), "+525551234567", "vacantes de ingeniería")
	if len(replies) != 1 || replies[0] != msgSearchError {
		t.Errorf("expected search error message, got %v", replies)
	}
}

func TestStatesAreIsolatedByPhone(t *testing.T) {
	store := &mockStore{vacancies: makeVacancies(1)}
	router := NewRouter(store)
	ctx := context.Background()

	router.HandleMessage(ctx, "+525551111111", "buscar prácticas")
	replies := router.HandleMessage(ctx, "+525552222222", "ayuda")
	if len(replies) != 1 || replies[0] != msgHelp {
		t.Errorf("expected second phone untouched by first phone's flow, got %v", replies)
	}
}
