package validation

import (
	"strconv"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"

	"folio.dev/internal/models"
)

func parseableDate(s string) bool {
	_, err := dateparse.ParseAny(s)
	return err == nil
}

// ValidateHeroData merges raw hero input over the default hero. Scalar
// fields are replaced only by non-empty strings; stats are merged key by
// key so default counters survive a partial override. It never fails: any
// panic yields the full default record.
func (v *Validator) ValidateHeroData(raw any) (hero models.Hero) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("Error validating hero data", zap.Any("panic", r))
			hero = models.DefaultHero()
		}
	}()

	hero = models.DefaultHero()
	obj, ok := raw.(map[string]any)
	if !ok {
		if raw != nil {
			v.logger.Warn("Hero data is not an object, using defaults", zap.Any("hero", raw))
		}
		return hero
	}

	override := func(dst *string, key string) {
		if s, ok := nonEmptyString(obj[key]); ok {
			*dst = s
		}
	}
	override(&hero.Name, "name")
	override(&hero.Title, "title")
	override(&hero.Tagline, "tagline")
	override(&hero.ProfileImage, "profileImage")
	override(&hero.ResumeURL, "resumeUrl")

	switch stats := obj["stats"].(type) {
	case nil:
	case map[string]any:
		for key, val := range stats {
			if s, ok := statValue(val); ok {
				hero.Stats[key] = s
				continue
			}
			v.logger.Warn("Hero stat has unusable value, ignoring", zap.String("stat", key), zap.Any("value", val))
		}
	default:
		v.logger.Warn("Hero stats are not an object, using defaults", zap.Any("stats", stats))
	}

	return hero
}

func statValue(raw any) (string, bool) {
	switch val := raw.(type) {
	case string:
		return nonEmptyString(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	}
	return "", false
}
