// Package i18n provides internationalization support for error messages.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// BaseLocale is the locale every lookup falls back to.
var BaseLocale = language.AmericanEnglish

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   language.Tag
	messages map[Code]string
}

var (
	catalogsMu sync.RWMutex
	// supported lists registered locales; index 0 is the fallback for the matcher.
	supported = []language.Tag{BaseLocale}
	catalogs  = map[language.Tag]*Catalog{BaseLocale: NewCatalog(BaseLocale, enUSMessages)}
)

// GetCatalog returns the best catalog for an Accept-Language style locale string.
// Falls back to en-US when nothing registered matches.
func GetCatalog(locale string) *Catalog {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()

	requested := strings.TrimSpace(locale)
	if requested == "" {
		return catalogs[BaseLocale]
	}
	tags, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(tags) == 0 {
		return catalogs[BaseLocale]
	}
	matcher := language.NewMatcher(supported)
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(supported) {
		return catalogs[BaseLocale]
	}
	return catalogs[supported[index]]
}

// Locale returns the BCP 47 locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale.String()
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// RegisterCatalog registers or replaces the catalog for its locale.
func RegisterCatalog(cat *Catalog) {
	if cat == nil {
		return
	}
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if _, exists := catalogs[cat.locale]; !exists {
		supported = append(supported, cat.locale)
	}
	catalogs[cat.locale] = cat
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale language.Tag, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{
		locale:   locale,
		messages: cloned,
	}
}
