// Package lang normalizes user-supplied language identifiers to the ISO 639-1
// codes the ASR providers expect.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Common English names that BCP 47 parsing does not accept.
var byName = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"mandarin":   "zh",
	"cantonese":  "yue",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
}

// ToISO1 resolves a language code, tag, or English name to a two-letter code.
// It returns the fallback when the input cannot be resolved.
func ToISO1(value, fallback string) string {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if cleaned == "" {
		return fallback
	}
	if code, ok := byName[cleaned]; ok {
		return code
	}
	tag, err := language.Parse(cleaned)
	if err != nil {
		return fallback
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return fallback
	}
	return base.String()
}
