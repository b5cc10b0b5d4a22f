package store

import (
	"testing"

	"github.com/YoPracticando/PractiBot/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	// A named shared-cache memory database keeps every pooled connection
	// on the same schema while staying isolated per test.
	st, err := NewSQLiteStore(WithDSN("file:" + t.Name() + "?mode=memory&cache=shared"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleVacancy() models.Vacancy {
	return models.Vacancy{
		Company:  "Acme",
		Title:    "Practicante de Sistemas",
		Modality: models.ModalityRemote,
		Openings: 2,
		Location: "Hermosillo",
		Career:   "Ingeniería en Sistemas",
		Type:     models.VacancyTypeInternship,
	}
}

func TestDetectDSNType(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{name: "postgres scheme", dsn: "postgres://user:pw@localhost/db", want: "postgres"},
		{name: "postgresql scheme", dsn: "postgresql://localhost/db", want: "postgres"},
		{name: "key=value pairs", dsn: "host=localhost user=postgres dbname=test", want: "postgres"},
		{name: "file path", dsn: "/var/lib/practibot/vacantes.db", want: "sqlite"},
		{name: "relative path", dsn: "./data/vacantes.db", want: "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDSNType(tt.dsn); got != tt.want {
				t.Errorf("DetectDSNType(%q) = %q, want %q", tt.dsn, got, tt.want)
			}
		})
	}
}

func TestAddAndGetByCareer(t *testing.T) {
	st := newTestStore(t)

	id, err := st.Add(sampleVacancy())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero vacancy ID")
	}

	vacancies, err := st.GetByCareer("sistemas")
	if err != nil {
		t.Fatalf("GetByCareer failed: %v", err)
	}
	if len(vacancies) != 1 {
		t.Fatalf("expected 1 vacancy, got %d", len(vacancies))
	}
	if vacancies[0].Company != "Acme" {
		t.Errorf("expected company Acme, got %q", vacancies[0].Company)
	}
}

func TestAddRejectsInvalidVacancy(t *testing.T) {
	st := newTestStore(t)

	v := sampleVacancy()
	v.Company = ""
	if _, err := st.Add(v); err != models.ErrEmptyCompany {
		t.Errorf("expected ErrEmptyCompany, got %v", err)
	}

	v = sampleVacancy()
	v.Modality = "volando"
	if _, err := st.Add(v); err != models.ErrInvalidModality {
		t.Errorf("expected ErrInvalidModality, got %v", err)
	}
}

func TestGetWithFilters(t *testing.T) {
	st := newTestStore(t)

	remote := sampleVacancy()
	onsite := sampleVacancy()
	onsite.Title = "Practicante Presencial"
	onsite.Modality = models.ModalityOnSite
	onsite.Location = "CDMX"
	social := sampleVacancy()
	social.Title = "Servicio Social Contable"
	social.Career = "Contaduría Pública"
	social.Type = models.VacancyTypeBoth

	for _, v := range []models.Vacancy{remote, onsite, social} {
		if _, err := st.Add(v); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		filters models.VacancyFilters
		want    int
	}{
		{name: "no filters", filters: models.VacancyFilters{}, want: 3},
		{name: "by modality", filters: models.VacancyFilters{Modality: models.ModalityRemote}, want: 2},
		{name: "by location", filters: models.VacancyFilters{Location: "cdmx"}, want: 1},
		{name: "by career", filters: models.VacancyFilters{Career: "Contaduría"}, want: 1},
		// "ambos" vacancies satisfy either specific type filter
		{name: "type includes ambos", filters: models.VacancyFilters{Type: models.VacancyTypeSocialService}, want: 1},
		{name: "internship includes ambos", filters: models.VacancyFilters{Type: models.VacancyTypeInternship}, want: 3},
		{name: "combined", filters: models.VacancyFilters{Modality: models.ModalityRemote, Career: "Sistemas"}, want: 1},
		{name: "no match", filters: models.VacancyFilters{Location: "Cancún"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.GetWithFilters(tt.filters)
			if err != nil {
				t.Fatalf("GetWithFilters failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d vacancies, got %d", tt.want, len(got))
			}
		})
	}
}

func TestGetAllRespectsLimit(t *testing.T) {
	st := newTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := st.Add(sampleVacancy()); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	vacancies, err := st.GetAll(3)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(vacancies) != 3 {
		t.Errorf("expected limit of 3, got %d", len(vacancies))
	}
}

func TestCareersAndLocationsDistinct(t *testing.T) {
	st := newTestStore(t)

	first := sampleVacancy()
	second := sampleVacancy()
	second.Career = "Derecho"
	second.Location = "CDMX"
	third := sampleVacancy() // duplicates first's career and location

	for _, v := range []models.Vacancy{first, second, third} {
		if _, err := st.Add(v); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	careers, err := st.Careers()
	if err != nil {
		t.Fatalf("Careers failed: %v", err)
	}
	if len(careers) != 2 {
		t.Errorf("expected 2 distinct careers, got %v", careers)
	}

	locations, err := st.Locations()
	if err != nil {
		t.Fatalf("Locations failed: %v", err)
	}
	if len(locations) != 2 {
		t.Errorf("expected 2 distinct locations, got %v", locations)
	}
}

func TestStats(t *testing.T) {
	st := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := st.Add(sampleVacancy()); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	other := sampleVacancy()
	other.Career = "Derecho"
	other.Location = "CDMX"
	if _, err := st.Add(other); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	stats, err := st.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("expected total 4, got %d", stats.Total)
	}
	if len(stats.ByCareer) != 2 {
		t.Errorf("expected 2 career buckets, got %v", stats.ByCareer)
	}
	if stats.ByCareer[0].Career != "Ingeniería en Sistemas" || stats.ByCareer[0].Count != 3 {
		t.Errorf("expected top career Ingeniería en Sistemas with 3, got %+v", stats.ByCareer[0])
	}
}
