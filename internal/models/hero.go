package models

import "sort"

// Hero is the data shown in the landing section of the page
type Hero struct {
	Name         string            `json:"name"`
	Title        string            `json:"title"`
	Tagline      string            `json:"tagline"`
	ProfileImage string            `json:"profileImage"`
	Stats        map[string]string `json:"stats"`
	ResumeURL    string            `json:"resumeUrl"`
}

// Stat is one labelled counter of the hero section
type Stat struct {
	Key   string
	Value string
}

// defaultStatOrder is the display order of the built-in stat keys
var defaultStatOrder = []string{"experience", "projects", "technologies"}

// DefaultHero returns a fresh copy of the fallback hero record
func DefaultHero() Hero {
	return Hero{
		Name:         "Portfolio Owner",
		Title:        "Developer",
		Tagline:      "Building amazing things with code",
		ProfileImage: "/images/default-avatar.svg",
		Stats: map[string]string{
			"experience":   "0+",
			"projects":     "0+",
			"technologies": "0+",
		},
		ResumeURL: "#",
	}
}

// OrderedStats returns the stats with the built-in keys first and any
// extra keys after them in lexical order
func (h Hero) OrderedStats() []Stat {
	stats := make([]Stat, 0, len(h.Stats))
	seen := make(map[string]bool, len(defaultStatOrder))
	for _, key := range defaultStatOrder {
		if v, ok := h.Stats[key]; ok {
			stats = append(stats, Stat{Key: key, Value: v})
			seen[key] = true
		}
	}

	extra := make([]string, 0)
	for key := range h.Stats {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		stats = append(stats, Stat{Key: key, Value: h.Stats[key]})
	}
	return stats
}
