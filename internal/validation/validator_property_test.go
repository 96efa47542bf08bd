package validation

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"folio.dev/internal/models"
)

// genRawValue produces the scalar shapes a decoded JSON document can hold
func genRawValue() gopter.Gen {
	return gen.OneGenOf(
		gen.AlphaString().Map(func(s string) any { return s }),
		gen.Float64().Map(func(f float64) any { return f }),
		gen.Bool().Map(func(b bool) any { return b }),
		gen.OneConstOf("Beginner", "Intermediate", "Advanced", "Expert").Map(func(s string) any { return s }),
		gen.OneConstOf("2024-01-15", "2021-07", "not-a-date").Map(func(s string) any { return s }),
		gen.OneConstOf("https://example.com", "not-a-url", "/images/x.png").Map(func(s string) any { return s }),
	)
}

// genRawProject produces project-like objects where every field may be
// missing or of the wrong type
func genRawProject() gopter.Gen {
	keys := []string{"id", "title", "description", "category", "date", "level", "image", "featured"}
	return gopter.CombineGens(
		gen.SliceOfN(len(keys), genRawValue()),
		gen.SliceOfN(len(keys), gen.Bool()),
		gen.SliceOf(genRawValue()),
		gen.Bool(),
		gen.MapOf(gen.OneConstOf("demo", "code", "article"), genRawValue()),
	).Map(func(vals []any) any {
		values := vals[0].([]any)
		present := vals[1].([]bool)
		obj := make(map[string]any)
		for i, key := range keys {
			if present[i] {
				obj[key] = values[i]
			}
		}
		if vals[3].(bool) {
			obj["technologies"] = vals[2].([]any)
		}
		links := make(map[string]any)
		for k, v := range vals[4].(map[string]any) {
			links[k] = v
		}
		obj["links"] = links
		return obj
	})
}

func satisfiesInvariants(p models.Project) bool {
	if p.ID == "" || p.Title == "" || p.Description == "" || p.Category == "" {
		return false
	}
	if p.Technologies == nil || !p.Level.Valid() || !parseableDate(p.Date) {
		return false
	}
	for _, link := range []string{p.Links.Demo, p.Links.Code, p.Links.Article} {
		if link != "" && !IsValidURL(link) {
			return false
		}
	}
	return p.Image == "" || IsValidImageRef(p.Image)
}

func TestValidateProjectsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	v := newTestValidator()

	properties.Property("output never longer than input", prop.ForAll(
		func(list []any) bool {
			return len(v.ValidateProjects(list)) <= len(list)
		},
		gen.SliceOf(genRawProject()),
	))

	properties.Property("survivors satisfy record invariants", prop.ForAll(
		func(list []any) bool {
			for _, p := range v.ValidateProjects(list) {
				if !satisfiesInvariants(p) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genRawProject()),
	))

	properties.Property("arbitrary scalars are not a project list", prop.ForAll(
		func(raw any) bool {
			got := v.ValidateProjects(raw)
			return got != nil && len(got) == 0
		},
		genRawValue(),
	))

	properties.TestingRun(t)
}
