// Package phone canonicalizes raw phone strings into a single comparable
// E.164-like form.
//
// The canonical form is the sole join key used when reconciling contacts and
// conversations against the support inbox, so two raw representations of the
// same number must always normalize identically.
package phone

import "strings"

// Default home-country settings (Mexico).
const (
	// DefaultCountryCode is the dialing code assumed for domestic numbers.
	DefaultCountryCode = "52"
	// DomesticNumberLength is the subscriber-number length for domestic numbers.
	DomesticNumberLength = 10
)

// Normalizer canonicalizes phone numbers for a configured home country.
// The zero value is not usable; construct with NewNormalizer.
type Normalizer struct {
	countryCode  string
	mobilePrefix string // optional mobile indicator digit(s) appended after the country code
}

// Opts holds configuration options for the Normalizer.
type Opts struct {
	CountryCode  string
	MobilePrefix string
}

// Option defines a configuration option for the Normalizer.
type Option func(*Opts)

// WithCountryCode sets the home-country dialing code.
func WithCountryCode(cc string) Option {
	return func(o *Opts) { o.CountryCode = cc }
}

// WithMobilePrefix sets the mobile indicator digit(s) inserted after the
// country code when a bare domestic number is normalized. Providers that
// report mobile identities with the extra indicator (e.g. the legacy "1"
// for Mexican WhatsApp JIDs) need this to match.
func WithMobilePrefix(prefix string) Option {
	return func(o *Opts) { o.MobilePrefix = prefix }
}

// NewNormalizer creates a Normalizer, applying any provided options.
func NewNormalizer(opts ...Option) *Normalizer {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = DefaultCountryCode
	}
	return &Normalizer{countryCode: cfg.CountryCode, mobilePrefix: cfg.MobilePrefix}
}

// Normalize canonicalizes a raw phone string. It is total: unrecognized
// inputs degrade to prefixing "+" rather than failing.
//
// Rules, applied in order, first match wins:
//  1. strip whitespace, hyphens and parentheses
//  2. already prefixed with "+": returned unchanged
//  3. starts with country code + mobile indicator: "+" prefixed
//  4. starts with the bare country code: "+" prefixed
//  5. exactly 10 digits: assumed domestic, "+<cc><indicator>" prefixed
//  6. 12 digits starting with the country code: "+" prefixed
//  7. anything else: "+" prefixed
func (n *Normalizer) Normalize(raw string) string {
	s := stripSeparators(raw)
	if s == "" {
		return s
	}
	if strings.HasPrefix(s, "+") {
		return s
	}
	if n.mobilePrefix != "" && strings.HasPrefix(s, n.countryCode+n.mobilePrefix) {
		return "+" + s
	}
	if strings.HasPrefix(s, n.countryCode) && len(s) > len(n.countryCode) {
		return "+" + s
	}
	if len(s) == DomesticNumberLength && isDigits(s) {
		return "+" + n.countryCode + n.mobilePrefix + s
	}
	if len(s) == DomesticNumberLength+len(n.countryCode) && strings.HasPrefix(s, n.countryCode) {
		return "+" + s
	}
	return "+" + s
}

// stripSeparators removes whitespace, hyphens and parentheses.
func stripSeparators(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '\t', '-', '(', ')':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
