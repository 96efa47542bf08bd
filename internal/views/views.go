// Package views renders the portfolio page with templ.
//
// Markup lives in the .templ files; run `templ generate` after editing them.
// The Go files hold the view models and the small helpers the templates
// call.
package views

import (
	"strings"
	"unicode"

	"github.com/araddon/dateparse"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"folio.dev/internal/config"
	"folio.dev/internal/services"
)

// ImageResolver looks up the settled load result of an image
type ImageResolver interface {
	Lookup(primary string) (services.Resolution, bool)
}

// Env carries the request independent rendering settings
type Env struct {
	BasePath   string
	Images     ImageResolver
	MaxRetries int
}

// Asset prefixes a site-relative path with the base path
func (e Env) Asset(p string) string {
	return config.JoinBasePath(e.BasePath, p)
}

var titleCaser = cases.Title(language.English)

// StatLabel turns a stat key such as "yearsExperience" into "Years Experience"
func StatLabel(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return titleCaser.String(strings.TrimSpace(b.String()))
}

// MonthYear formats a date as "Jan 2006"; unparseable input is returned as is
func MonthYear(date string) string {
	t, err := dateparse.ParseAny(date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2006")
}
