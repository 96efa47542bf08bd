package views

import (
	"net/url"

	"folio.dev/internal/models"
	"folio.dev/internal/services"
)

const (
	// MaxTechTags is how many technology tags a card lists before "+N more"
	MaxTechTags = 6
	// GalleryLimit is how many projects show until the visitor asks for all
	GalleryLimit = 6
)

// GalleryData is the input of the project gallery
type GalleryData struct {
	// Projects is the filtered list, in display order
	Projects []models.Project
	// Total counts every project regardless of the filter
	Total      int
	Categories []models.CategoryCount
	Active     string
	ShowAll    bool
	// Error explains an empty gallery when the data was not empty
	Error           string
	ProjectFallback string
}

// Visible returns the projects the gallery shows
func (d GalleryData) Visible() []models.Project {
	if d.ShowAll || len(d.Projects) <= GalleryLimit {
		return d.Projects
	}
	return d.Projects[:GalleryLimit]
}

func (d GalleryData) activeName() string {
	if d.Active == "" {
		return services.AllCategories
	}
	return d.Active
}

func (d GalleryData) link(category string, all bool) string {
	q := url.Values{}
	if category != "" && category != services.AllCategories {
		q.Set("category", category)
	}
	if all {
		q.Set("all", "1")
	}
	if len(q) == 0 {
		return "?#projects"
	}
	return "?" + q.Encode() + "#projects"
}

func categoryLabel(name string) string {
	if name == services.AllCategories {
		return "All Projects"
	}
	return name
}

func shownTechs(techs []string) []string {
	if len(techs) > MaxTechTags {
		return techs[:MaxTechTags]
	}
	return techs
}

func moreTechs(techs []string) int {
	return max(len(techs)-MaxTechTags, 0)
}
