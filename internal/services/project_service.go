package services

import (
	"github.com/pkg/errors"

	"folio.dev/internal/models"
)

// AllCategories selects every project in category queries
const AllCategories = "All"

// ErrProjectNotFound is returned for unknown project ids
var ErrProjectNotFound = errors.New("project not found")

// SnapshotSource provides the current content snapshot
type SnapshotSource interface {
	Snapshot() *Snapshot
}

// ProjectService handles project-related operations
type ProjectService struct {
	content SnapshotSource
}

// NewProjectService creates a new ProjectService
func NewProjectService(content SnapshotSource) *ProjectService {
	return &ProjectService{content: content}
}

// GetAll returns all projects
func (s *ProjectService) GetAll() []models.Project {
	return s.content.Snapshot().Projects
}

// GetByID returns a specific project by ID
func (s *ProjectService) GetByID(id string) (*models.Project, error) {
	projects := s.content.Snapshot().Projects
	for i := range projects {
		if projects[i].ID == id {
			p := projects[i]
			return &p, nil
		}
	}
	return nil, errors.Wrapf(ErrProjectNotFound, "id %s", id)
}

// ByCategory returns the projects in category; "" and "All" select all
func (s *ProjectService) ByCategory(category string) []models.Project {
	projects := s.content.Snapshot().Projects
	if category == "" || category == AllCategories {
		return projects
	}
	filtered := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Featured returns the projects flagged as featured
func (s *ProjectService) Featured() []models.Project {
	projects := s.content.Snapshot().Projects
	featured := make([]models.Project, 0)
	for _, p := range projects {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	return featured
}

// Categories returns the "All" bucket followed by each category with its
// project count, in first-seen order
func (s *ProjectService) Categories() []models.CategoryCount {
	snap := s.content.Snapshot()
	counts := make(map[string]int, len(snap.Categories))
	for _, p := range snap.Projects {
		counts[p.Category]++
	}

	result := make([]models.CategoryCount, 0, len(snap.Categories)+1)
	result = append(result, models.CategoryCount{Name: AllCategories, Count: len(snap.Projects)})
	for _, c := range snap.Categories {
		result = append(result, models.CategoryCount{Name: c, Count: counts[c]})
	}
	return result
}
