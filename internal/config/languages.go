package config

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is the recognition language used when none is configured.
const DefaultLanguage = "es-ES"

// Language is one entry of the supported recognition language enumeration.
type Language struct {
	Code string
	Name string
}

var supportedLanguages = []Language{
	{Code: "es-ES", Name: "Spanish"},
	{Code: "en-US", Name: "English"},
	{Code: "fr-FR", Name: "French"},
	{Code: "de-DE", Name: "German"},
	{Code: "it-IT", Name: "Italian"},
	{Code: "pt-BR", Name: "Portuguese (Brazil)"},
	{Code: "ja-JP", Name: "Japanese"},
	{Code: "zh-CN", Name: "Chinese (Simplified)"},
}

// SupportedLanguages returns a copy of the supported languages in display order.
func SupportedLanguages() []Language {
	out := make([]Language, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// IsSupported reports whether code is one of the supported language codes.
func IsSupported(code string) bool {
	for _, l := range supportedLanguages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// LanguageName returns the display name for code, or code itself if unknown.
func LanguageName(code string) string {
	for _, l := range supportedLanguages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// NextLanguage returns the language code after the given one in display order.
func NextLanguage(current string) string {
	for i, l := range supportedLanguages {
		if l.Code == current {
			return supportedLanguages[(i+1)%len(supportedLanguages)].Code
		}
	}
	return supportedLanguages[0].Code
}

// BaseLanguage returns the lowercase ISO 639 base of a BCP 47 tag, so
// "es-ES", "PT" and "zh-Hans" give "es", "pt" and "zh". Malformed or
// unknown tags give "".
func BaseLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return ""
	}
	b, conf := t.Base()
	if conf == language.No {
		return ""
	}
	return b.String()
}
