package flow

import "testing"

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Intent
	}{
		{name: "guided search", text: "Quiero prácticas profesionales", want: IntentSearchFlow},
		{name: "guided search social service", text: "busco servicio social", want: IntentSearchFlow},
		{name: "direct career", text: "vacantes de ingeniería en sistemas", want: IntentDirectCareer},
		{name: "direct career alt prefix", text: "oportunidades de derecho", want: IntentDirectCareer},
		{name: "remote", text: "hay prácticas remotas?", want: IntentRemoteSearch},
		{name: "remote beats career prefix", text: "vacantes remotas", want: IntentRemoteSearch},
		{name: "location", text: "vacantes en Hermosillo", want: IntentLocationSearch},
		{name: "list all", text: "todas las vacantes", want: IntentListAll},
		{name: "list all question", text: "qué vacantes hay", want: IntentListAll},
		{name: "help", text: "ayuda", want: IntentHelp},
		{name: "free form", text: "hola, cómo estás", want: IntentNone},
		{name: "case insensitive", text: "BUSCAR VACANTES", want: IntentSearchFlow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectIntent(tt.text); got != tt.want {
				t.Errorf("DetectIntent(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractCareer(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "vacantes de ingeniería en sistemas", want: "ingeniería en sistemas"},
		{text: "Prácticas de Derecho", want: "derecho"},
		{text: "vacantes de", want: ""},
	}
	for _, tt := range tests {
		if got := ExtractCareer(tt.text); got != tt.want {
			t.Errorf("ExtractCareer(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestExtractLocation(t *testing.T) {
	if got := ExtractLocation("vacantes en Guadalajara"); got != "guadalajara" {
		t.Errorf("ExtractLocation = %q, want %q", got, "guadalajara")
	}
}
