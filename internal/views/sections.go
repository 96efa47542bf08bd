package views

import (
	"strings"

	"folio.dev/internal/models"
	"folio.dev/internal/theme"
)

// CourseworkPreview is how many courses are listed before the rest collapse
const CourseworkPreview = 4

type navItem struct {
	id, label string
}

var navItems = []navItem{
	{"about", "About"},
	{"experience", "Experience"},
	{"education", "Education"},
	{"projects", "Projects"},
	{"publications", "Publications"},
	{"contact", "Contact"},
}

func splitName(name string) (first, rest string) {
	first, rest, _ = strings.Cut(strings.TrimSpace(name), " ")
	return first, strings.TrimSpace(rest)
}

func nameInitial(name string) string {
	first, _ := splitName(name)
	if first == "" {
		return ""
	}
	return strings.ToUpper(string([]rune(first)[0]))
}

func firstName(name string) string {
	first, _ := splitName(name)
	return first
}

func surname(name string) string {
	_, rest := splitName(name)
	return rest
}

func toggleLabel(current theme.Theme) string {
	if current == theme.Light {
		return "Switch to dark theme"
	}
	return "Switch to light theme"
}

func showResume(hero models.Hero) bool {
	return hero.ResumeURL != "" && hero.ResumeURL != "#"
}

// courses falls back to the skills list when no coursework is given
func courses(e models.Education) []string {
	if len(e.Coursework) > 0 {
		return e.Coursework
	}
	return e.Skills
}

func coursePreview(e models.Education) []string {
	c := courses(e)
	if len(c) > CourseworkPreview {
		return c[:CourseworkPreview]
	}
	return c
}

func courseRest(e models.Education) []string {
	c := courses(e)
	if len(c) > CourseworkPreview {
		return c[CourseworkPreview:]
	}
	return nil
}
