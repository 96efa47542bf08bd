// Package validation turns untrusted, untyped content documents into
// records the rest of the site can rely on.
//
// Raw input is whatever encoding/json or yaml.v3 produce when decoding into
// an interface{}: map[string]interface{}, []interface{}, string, float64,
// bool and nil. The validator never mutates that input; every accepted
// record is built fresh.
package validation

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"folio.dev/internal/metrics"
	"folio.dev/internal/models"
)

const dateLayout = "2006-01-02"

// Validator sanitizes project, hero and profile documents
type Validator struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Validator
type Option func(*Validator)

// WithLogger sets the logger diagnostics are written to
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithMetrics counts rejections and corrections
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Validator) { v.metrics = m }
}

// WithClock overrides the clock used for the missing-date default
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// New creates a Validator
func New(opts ...Option) *Validator {
	v := &Validator{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.Named("validation")
	return v
}

// ValidateProject converts one raw project into a record. A non-nil error
// means the record was rejected; the error is a *FieldError unless the
// check itself panicked.
func (v *Validator) ValidateProject(raw any) (project models.Project, err error) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("Error validating project", zap.Any("panic", r))
			project = models.Project{}
			err = fmt.Errorf("validating project: %v", r)
		}
	}()

	obj, ok := raw.(map[string]any)
	if !ok {
		return v.reject(nil, "record", fmt.Sprintf("expected an object, got %T", raw))
	}

	required := [...]string{"id", "title", "description", "category"}
	var values [len(required)]string
	for i, field := range required {
		s, ok := nonEmptyString(obj[field])
		if !ok {
			return v.reject(obj, field, "missing or not a string")
		}
		values[i] = s
	}

	rawTech, ok := obj["technologies"].([]any)
	if !ok {
		return v.reject(obj, "technologies", "missing or not an array")
	}

	project = models.Project{
		ID:           values[0],
		Title:        values[1],
		Description:  values[2],
		Category:     values[3],
		Technologies: v.technologies(values[0], rawTech),
		Level:        v.level(values[0], obj["level"]),
		Date:         v.date(values[0], obj["date"]),
		Featured:     v.featured(values[0], obj["featured"]),
		Links:        v.links(values[0], obj["links"]),
	}

	if img, present := obj["image"]; present && img != nil {
		if s, ok := img.(string); ok && IsValidImageRef(s) {
			project.Image = s
		} else {
			v.corrected(project.ID, "image", "Project has invalid image URL, removing", zap.Any("image", img))
		}
	}

	return project, nil
}

// ValidateProjects validates every element of a raw project list and keeps
// the survivors in input order. Input that is not a list yields an empty
// slice. A later record reusing an earlier id is dropped.
func (v *Validator) ValidateProjects(raw any) []models.Project {
	list, ok := raw.([]any)
	if !ok {
		v.logger.Error("Projects data is not an array",
			zap.Error(ErrNotArray), zap.String("type", fmt.Sprintf("%T", raw)))
		return []models.Project{}
	}

	projects := make([]models.Project, 0, len(list))
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		project, err := v.ValidateProject(item)
		if err != nil {
			v.logger.Debug("Project rejected", zap.Int("index", i), zap.Error(err))
			continue
		}
		if seen[project.ID] {
			v.reject(item.(map[string]any), "id", "duplicate id")
			continue
		}
		seen[project.ID] = true
		projects = append(projects, project)
	}

	if dropped := len(list) - len(projects); dropped > 0 {
		v.logger.Warn(fmt.Sprintf("Filtered out %d invalid projects", dropped),
			zap.Int("kept", len(projects)), zap.Int("dropped", dropped))
	}
	return projects
}

func (v *Validator) reject(obj map[string]any, field, reason string) (models.Project, error) {
	fields := []zap.Field{zap.String("field", field), zap.String("reason", reason)}
	if id, ok := obj["id"].(string); ok {
		fields = append(fields, zap.String("id", id))
	}
	v.logger.Warn("Project rejected", fields...)
	v.metrics.ProjectRejected(field)
	return models.Project{}, rejectField(field, reason)
}

func (v *Validator) corrected(id, field, msg string, extra ...zap.Field) {
	v.logger.Warn(msg, append([]zap.Field{zap.String("id", id), zap.String("field", field)}, extra...)...)
	v.metrics.FieldCorrected(field)
}

func (v *Validator) technologies(id string, raw []any) []string {
	techs := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := nonEmptyString(item)
		if !ok {
			v.corrected(id, "technologies", "Project has invalid technology entry, removing", zap.Any("entry", item))
			continue
		}
		techs = append(techs, s)
	}
	return techs
}

func (v *Validator) level(id string, raw any) models.Level {
	if s, ok := raw.(string); ok {
		if level := models.Level(s); level.Valid() {
			return level
		}
	}
	v.corrected(id, "level", "Project has invalid level, defaulting to Intermediate", zap.Any("level", raw))
	return models.DefaultLevel
}

func (v *Validator) date(id string, raw any) string {
	// YAML documents may carry unquoted dates as timestamps
	if t, ok := raw.(time.Time); ok && !t.IsZero() {
		return t.Format(dateLayout)
	}
	if s, ok := nonEmptyString(raw); ok && parseableDate(s) {
		return s
	}
	today := v.now().Format(dateLayout)
	v.corrected(id, "date", "Project has invalid date, using current date",
		zap.Any("date", raw), zap.String("default", today))
	return today
}

func (v *Validator) featured(id string, raw any) bool {
	if b, ok := raw.(bool); ok {
		return b
	}
	if raw != nil {
		v.corrected(id, "featured", "Project has non-boolean featured flag, defaulting to false", zap.Any("featured", raw))
	}
	return false
}

func (v *Validator) links(id string, raw any) models.Links {
	var links models.Links
	if raw == nil {
		return links
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		v.corrected(id, "links", "Project has malformed links, resetting", zap.Any("links", raw))
		return links
	}

	pick := func(key string) string {
		val, present := obj[key]
		if !present || val == nil {
			return ""
		}
		if s, ok := val.(string); ok && IsValidURL(s) {
			return s
		}
		v.corrected(id, "links."+key, fmt.Sprintf("Project has invalid %s URL, removing", key), zap.Any("url", val))
		return ""
	}
	links.Demo = pick("demo")
	links.Code = pick("code")
	links.Article = pick("article")
	return links
}

func nonEmptyString(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
