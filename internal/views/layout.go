package views

import (
	"github.com/a-h/templ"

	"folio.dev/internal/models"
	"folio.dev/internal/theme"
)

// PageData is everything the portfolio page renders
type PageData struct {
	Env          Env
	Hero         models.Hero
	HeroFallback string
	Profile      models.Profile
	Gallery      GalleryData
	Theme        theme.Theme
	// Live enables the websocket client that reloads on content changes
	Live bool
}

func (d PageData) currentTheme() theme.Theme {
	if !d.Theme.Valid() {
		return theme.Default
	}
	return d.Theme
}

// themeVars emits the palette as custom properties. The values come from
// the fixed palettes, never from content.
func themeVars(t theme.Theme) templ.Component {
	return templ.Raw(`<style id="theme-vars">:root{` + theme.PaletteFor(t).CSSVariables() + `}</style>`)
}
