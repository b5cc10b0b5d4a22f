package phone

import "testing"

func TestNormalizeRules(t *testing.T) {
	n := NewNormalizer() // country code 52, no mobile indicator

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "already canonical", raw: "+525551234567", want: "+525551234567"},
		{name: "separators stripped", raw: "+52 (555) 123-4567", want: "+525551234567"},
		{name: "bare country code", raw: "525551234567", want: "+525551234567"},
		{name: "domestic 10 digits", raw: "5551234567", want: "+525551234567"},
		{name: "domestic with separators", raw: "555-123-4567", want: "+525551234567"},
		{name: "foreign number falls through", raw: "14155550100", want: "+14155550100"},
		{name: "short garbage still prefixed", raw: "12345", want: "+12345"},
		{name: "empty input", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeEquivalence(t *testing.T) {
	// Multiple raw forms of the same number must collapse to one canonical
	// string; reconciliation against the support inbox depends on this.
	n := NewNormalizer()

	forms := []string{"5551234567", "525551234567", "+525551234567", "555 123 4567", "(555) 123-4567"}
	want := "+525551234567"
	for _, raw := range forms {
		if got := n.Normalize(raw); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeIdempotence(t *testing.T) {
	n := NewNormalizer()

	inputs := []string{
		"5551234567",
		"525551234567",
		"+525551234567",
		"52 555 123 4567",
		"14155550100",
		"garbage",
	}
	for _, raw := range inputs {
		once := n.Normalize(raw)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestNormalizeMobilePrefix(t *testing.T) {
	// Legacy Mexican WhatsApp JIDs carry a "1" mobile indicator after the
	// country code; a normalizer configured with it must still collapse
	// the domestic and indicator-prefixed forms to the same identity.
	n := NewNormalizer(WithCountryCode("52"), WithMobilePrefix("1"))

	want := "+5215551234567"
	for _, raw := range []string{"5551234567", "5215551234567", "+5215551234567"} {
		if got := n.Normalize(raw); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeCustomCountry(t *testing.T) {
	n := NewNormalizer(WithCountryCode("54"))

	if got := n.Normalize("1123456789"); got != "+541123456789" {
		t.Errorf("Normalize(domestic AR) = %q, want %q", got, "+541123456789")
	}
	if got := n.Normalize("541123456789"); got != "+541123456789" {
		t.Errorf("Normalize(cc-prefixed AR) = %q, want %q", got, "+541123456789")
	}
}
