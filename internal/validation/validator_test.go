package validation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"folio.dev/internal/models"
)

var fixedNow = time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return New(WithClock(func() time.Time { return fixedNow }))
}

// decode mimics how the content loader hands raw documents to the validator
func decode(t *testing.T, doc string) any {
	t.Helper()
	var raw any
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

func validProject() map[string]any {
	return map[string]any{
		"id":           "rag-pipeline",
		"title":        "RAG Pipeline",
		"description":  "Retrieval augmented generation over clinical notes.",
		"category":     "GenAI",
		"technologies": []any{"Go", "Postgres"},
		"date":         "2024-01-15",
		"level":        "Advanced",
		"image":        "https://example.com/rag.png",
		"links": map[string]any{
			"demo": "https://demo.example.com",
			"code": "https://github.com/example/rag",
		},
		"featured": true,
	}
}

func TestValidateProjectAcceptsWellFormedRecord(t *testing.T) {
	v := newTestValidator()

	got, err := v.ValidateProject(validProject())
	require.NoError(t, err)

	want := models.Project{
		ID:           "rag-pipeline",
		Title:        "RAG Pipeline",
		Description:  "Retrieval augmented generation over clinical notes.",
		Category:     "GenAI",
		Technologies: []string{"Go", "Postgres"},
		Date:         "2024-01-15",
		Level:        models.LevelAdvanced,
		Image:        "https://example.com/rag.png",
		Links: models.Links{
			Demo: "https://demo.example.com",
			Code: "https://github.com/example/rag",
		},
		Featured: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ValidateProject mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateProjectRejectsRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p map[string]any)
		field  string
	}{
		{"missing id", func(p map[string]any) { delete(p, "id") }, "id"},
		{"numeric id", func(p map[string]any) { p["id"] = 42.0 }, "id"},
		{"empty title", func(p map[string]any) { p["title"] = "" }, "title"},
		{"blank description", func(p map[string]any) { p["description"] = "   " }, "description"},
		{"missing category", func(p map[string]any) { delete(p, "category") }, "category"},
		{"technologies string", func(p map[string]any) { p["technologies"] = "Go" }, "technologies"},
		{"technologies missing", func(p map[string]any) { delete(p, "technologies") }, "technologies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validProject()
			tt.mutate(raw)

			_, err := newTestValidator().ValidateProject(raw)
			require.Error(t, err)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
			assert.Equal(t, tt.field, RejectedField(err))
		})
	}
}

func TestValidateProjectRejectsNonObjects(t *testing.T) {
	v := newTestValidator()
	for _, raw := range []any{nil, "project", 3.0, []any{}} {
		_, err := v.ValidateProject(raw)
		assert.Error(t, err, "input %#v", raw)
	}
}

func TestValidateProjectCorrectsFields(t *testing.T) {
	t.Run("unknown level", func(t *testing.T) {
		raw := validProject()
		raw["level"] = "Expert"
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.Equal(t, models.LevelIntermediate, got.Level)
	})

	t.Run("missing level", func(t *testing.T) {
		raw := validProject()
		delete(raw, "level")
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.Equal(t, models.LevelIntermediate, got.Level)
	})

	t.Run("unparseable date", func(t *testing.T) {
		raw := validProject()
		raw["date"] = "2024-13-45"
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-09", got.Date)
	})

	t.Run("missing date", func(t *testing.T) {
		raw := validProject()
		delete(raw, "date")
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-09", got.Date)
		assert.False(t, got.ParsedDate().IsZero())
	})

	t.Run("non-boolean featured", func(t *testing.T) {
		raw := validProject()
		raw["featured"] = "yes"
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.False(t, got.Featured)
	})

	t.Run("links not an object", func(t *testing.T) {
		raw := validProject()
		raw["links"] = []any{"https://example.com"}
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.True(t, got.Links.Empty())
	})

	t.Run("invalid demo url", func(t *testing.T) {
		raw := validProject()
		raw["links"] = map[string]any{"demo": "not-a-url", "code": "https://github.com/example/rag"}
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.Empty(t, got.Links.Demo)
		assert.Equal(t, "https://github.com/example/rag", got.Links.Code)
	})

	t.Run("javascript article url", func(t *testing.T) {
		raw := validProject()
		raw["links"] = map[string]any{"article": "javascript:alert(1)"}
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.Empty(t, got.Links.Article)
	})

	t.Run("invalid image", func(t *testing.T) {
		raw := validProject()
		raw["image"] = "not-a-url"
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.Empty(t, got.Image)
	})

	t.Run("site relative image", func(t *testing.T) {
		raw := validProject()
		raw["image"] = "/images/projects/rag.png"
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.Equal(t, "/images/projects/rag.png", got.Image)
	})

	t.Run("non-string technologies dropped", func(t *testing.T) {
		raw := validProject()
		raw["technologies"] = []any{"Go", 7.0, nil, "", "Redis"}
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"Go", "Redis"}, got.Technologies)
	})

	t.Run("empty technologies kept", func(t *testing.T) {
		raw := validProject()
		raw["technologies"] = []any{}
		got, err := newTestValidator().ValidateProject(raw)
		require.NoError(t, err)
		assert.NotNil(t, got.Technologies)
		assert.Empty(t, got.Technologies)
	})
}

func TestValidateProjectDoesNotMutateInput(t *testing.T) {
	raw := validProject()
	raw["level"] = "Expert"
	raw["date"] = "never"
	raw["links"] = map[string]any{"demo": "not-a-url"}

	_, err := newTestValidator().ValidateProject(raw)
	require.NoError(t, err)

	assert.Equal(t, "Expert", raw["level"])
	assert.Equal(t, "never", raw["date"])
	assert.Equal(t, map[string]any{"demo": "not-a-url"}, raw["links"])
}

func TestValidateProjectsFailsClosed(t *testing.T) {
	v := newTestValidator()

	for _, raw := range []any{nil, "projects", map[string]any{"projects": []any{}}, 12.0} {
		got := v.ValidateProjects(raw)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestValidateProjectsFiltersBadRecords(t *testing.T) {
	raw := decode(t, `[
		{"id": "a", "title": "A", "description": "first", "category": "Web", "technologies": ["Go"], "date": "2023-05-01", "level": "Beginner"},
		{"id": "b", "title": "B", "description": "no tech", "category": "Web"},
		"not even an object",
		{"id": "c", "title": "C", "description": "third", "category": "MLOps", "technologies": [], "level": "Expert", "links": {"demo": "not-a-url"}},
		{"id": "a", "title": "A again", "description": "dup", "category": "Web", "technologies": []}
	]`)

	got := newTestValidator().ValidateProjects(raw)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, models.LevelIntermediate, got[1].Level)
	assert.Empty(t, got[1].Links.Demo)
}

func TestValidateHeroData(t *testing.T) {
	v := newTestValidator()

	t.Run("empty object yields defaults", func(t *testing.T) {
		assert.Equal(t, models.DefaultHero(), v.ValidateHeroData(map[string]any{}))
	})

	t.Run("nil yields defaults", func(t *testing.T) {
		assert.Equal(t, models.DefaultHero(), v.ValidateHeroData(nil))
	})

	t.Run("non-object yields defaults", func(t *testing.T) {
		assert.Equal(t, models.DefaultHero(), v.ValidateHeroData([]any{"x"}))
	})

	t.Run("partial stats keep defaults", func(t *testing.T) {
		hero := v.ValidateHeroData(decode(t, `{"stats": {"experience": "9+"}}`))
		assert.Equal(t, "9+", hero.Stats["experience"])
		assert.Equal(t, "0+", hero.Stats["projects"])
		assert.Equal(t, "0+", hero.Stats["technologies"])
	})

	t.Run("fields override defaults", func(t *testing.T) {
		hero := v.ValidateHeroData(decode(t, `{
			"name": "Ada Lovelace",
			"title": "",
			"tagline": 12,
			"resumeUrl": "/resume.pdf",
			"stats": {"papers": 3, "talks": "5+", "broken": {"x": 1}}
		}`))
		assert.Equal(t, "Ada Lovelace", hero.Name)
		assert.Equal(t, "Developer", hero.Title)
		assert.Equal(t, "Building amazing things with code", hero.Tagline)
		assert.Equal(t, "/images/default-avatar.svg", hero.ProfileImage)
		assert.Equal(t, "/resume.pdf", hero.ResumeURL)
		assert.Equal(t, "3", hero.Stats["papers"])
		assert.Equal(t, "5+", hero.Stats["talks"])
		assert.NotContains(t, hero.Stats, "broken")
	})

	t.Run("defaults are not shared", func(t *testing.T) {
		first := v.ValidateHeroData(nil)
		first.Stats["experience"] = "99+"
		assert.Equal(t, "0+", v.ValidateHeroData(nil).Stats["experience"])
	})
}

func TestOrderedStats(t *testing.T) {
	hero := models.DefaultHero()
	hero.Stats["awards"] = "2"
	hero.Stats["talks"] = "4"

	var keys []string
	for _, s := range hero.OrderedStats() {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"experience", "projects", "technologies", "awards", "talks"}, keys)
}

func TestValidateProfile(t *testing.T) {
	raw := decode(t, `{
		"personal": {"name": "Ada", "profileImage": "not a path"},
		"experience": [
			{"id": "ibm", "company": "IBM", "position": "Engineer", "duration": "2020 - 2022", "highlights": ["Shipped"]},
			{"company": "Nameless"}
		],
		"education": [{"id": "ms", "institution": "UAB", "degree": "MSCS", "duration": "2022 - 2024"}],
		"publications": [
			{"id": "p1", "title": "On Retrieval", "url": "not-a-url", "date": "2024-02-01"},
			{"id": "p2", "title": "On Agents", "url": "https://example.com/p2", "date": "2024-13-45"},
			{"title": "Orphan"}
		]
	}`)

	profile := newTestValidator().ValidateProfile(raw)
	assert.Equal(t, "Ada", profile.Personal.Name)
	assert.Empty(t, profile.Personal.ProfileImage)
	require.Len(t, profile.Experience, 1)
	assert.Equal(t, []string{"Shipped"}, profile.Experience[0].Highlights)
	require.Len(t, profile.Education, 1)
	require.Len(t, profile.Publications, 2)
	assert.Empty(t, profile.Publications[0].URL)
	assert.Equal(t, "2024-02-01", profile.Publications[0].Date)
	assert.Equal(t, "https://example.com/p2", profile.Publications[1].URL)
	assert.Empty(t, profile.Publications[1].Date)
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/a?b=c", true},
		{"mailto:someone@example.com", true},
		{"not-a-url", false},
		{"http://", false},
		{"javascript:alert(1)", false},
		{"/relative/path", false},
		{"", false},
		{" https://example.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidURL(tt.in), tt.in)
	}
}

func TestIsValidImageRef(t *testing.T) {
	assert.True(t, IsValidImageRef("/images/a.png"))
	assert.True(t, IsValidImageRef("https://cdn.example.com/a.png"))
	assert.False(t, IsValidImageRef("//cdn.example.com/a.png"))
	assert.False(t, IsValidImageRef("images/a.png"))
	assert.False(t, IsValidImageRef("mailto:a@example.com"))
}

// panicOn returns a validator whose logger panics when msg is logged, which
// forces a failure in the middle of a validation step.
func panicOn(msg string) (*Validator, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core, zap.Hooks(func(e zapcore.Entry) error {
		if e.Message == msg {
			panic("forced: " + msg)
		}
		return nil
	}))
	return New(WithLogger(logger), WithClock(func() time.Time { return fixedNow })), logs
}

func TestValidateProjectsIsolatesPanickingRecord(t *testing.T) {
	v, logs := panicOn("Project has invalid level, defaulting to Intermediate")

	raw := decode(t, `[
		{"id": "a", "title": "A", "description": "first", "category": "Web", "technologies": ["Go"], "level": "Beginner"},
		{"id": "boom", "title": "B", "description": "second", "category": "Web", "technologies": [], "level": "Wizard"},
		{"id": "c", "title": "C", "description": "third", "category": "MLOps", "technologies": [], "level": "Advanced"}
	]`)

	got := v.ValidateProjects(raw)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	_, err := v.ValidateProject(raw.([]any)[1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forced")

	assert.NotZero(t, logs.FilterMessage("Error validating project").Len())
}

func TestValidateHeroDataPanicYieldsDefaults(t *testing.T) {
	v, logs := panicOn("Hero stat has unusable value, ignoring")

	hero := v.ValidateHeroData(decode(t, `{
		"name": "Ada Lovelace",
		"stats": {"broken": {"x": 1}}
	}`))

	assert.Equal(t, models.DefaultHero(), hero)
	assert.Equal(t, 1, logs.FilterMessage("Error validating hero data").Len())
}
