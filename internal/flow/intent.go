package flow

import "strings"

// Intent classifies what a student message is asking for.
type Intent string

const (
	IntentSearchFlow     Intent = "search_flow"
	IntentDirectCareer   Intent = "direct_career"
	IntentRemoteSearch   Intent = "remote_search"
	IntentLocationSearch Intent = "location_search"
	IntentListAll        Intent = "list_all"
	IntentHelp           Intent = "help"
	IntentNone           Intent = "none"
)

// Keyword groups checked in order; the first group with a match wins.
var (
	searchFlowPatterns = []string{
		"buscar práctica", "busco práctica", "quiero práctica",
		"buscar prácticas", "busco prácticas", "quiero prácticas",
		"buscar servicio", "busco servicio", "quiero servicio",
		"necesito prácticas", "necesito servicio", "buscar vacantes",
		"quiero hacer prácticas", "quiero hacer servicio",
	}
	careerPatterns = []string{
		"vacantes de", "prácticas de", "servicio social de",
		"oportunidades de", "vacantes para",
	}
	remotePatterns = []string{
		"vacantes remota", "práctica remota", "prácticas remota", "trabajo remoto",
	}
	locationPatterns = []string{
		"vacantes en", "oportunidades en", "servicio social en",
	}
	listAllPatterns = []string{
		"todas las vacantes", "ver vacantes", "mostrar vacantes",
		"listar vacantes", "qué vacantes hay",
	}
	helpPatterns = []string{
		"ayuda", "help", "comandos", "qué puedo hacer",
		"opciones", "cómo funciona", "qué puedes hacer",
	}
)

// DetectIntent matches a message against the keyword groups. Remote search is
// checked before career extraction so "prácticas remotas" is not treated as a
// career named "remotas".
func DetectIntent(text string) Intent {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, searchFlowPatterns):
		return IntentSearchFlow
	case containsAny(lower, remotePatterns):
		return IntentRemoteSearch
	case containsAny(lower, careerPatterns):
		return IntentDirectCareer
	case containsAny(lower, locationPatterns):
		return IntentLocationSearch
	case containsAny(lower, listAllPatterns):
		return IntentListAll
	case containsAny(lower, helpPatterns):
		return IntentHelp
	default:
		return IntentNone
	}
}

func containsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// extractAfter returns whatever follows the first matching prefix pattern,
// e.g. "vacantes de ingeniería" yields "ingeniería".
func extractAfter(text string, patterns []string) string {
	lower := strings.ToLower(text)
	for _, p := range patterns {
		if idx := strings.Index(lower, p); idx >= 0 {
			return strings.TrimSpace(lower[idx+len(p):])
		}
	}
	return ""
}

// ExtractCareer pulls the career term out of a direct-career message.
func ExtractCareer(text string) string {
	return extractAfter(text, careerPatterns)
}

// ExtractLocation pulls the city out of a location-search message.
func ExtractLocation(text string) string {
	return extractAfter(text, locationPatterns)
}
