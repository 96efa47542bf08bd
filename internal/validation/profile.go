package validation

import (
	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"folio.dev/internal/models"
)

// ValidateProfile decodes the biography document leniently. Entries
// without an id are dropped and publication links that are not valid URLs
// are cleared. Decoding problems are logged; whatever decoded cleanly is
// kept.
func (v *Validator) ValidateProfile(raw any) (profile models.Profile) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("Error validating profile", zap.Any("panic", r))
			profile = models.Profile{}
		}
	}()

	if raw == nil {
		return profile
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &profile,
	})
	if err != nil {
		v.logger.Error("Error building profile decoder", zap.Error(err))
		return models.Profile{}
	}
	if err := dec.Decode(raw); err != nil {
		v.logger.Warn("Profile data partially invalid", zap.Error(err))
	}

	experience := profile.Experience[:0]
	for _, e := range profile.Experience {
		if e.ID == "" {
			v.logger.Warn("Experience entry missing id, removing", zap.String("company", e.Company))
			continue
		}
		experience = append(experience, e)
	}
	profile.Experience = experience

	education := profile.Education[:0]
	for _, e := range profile.Education {
		if e.ID == "" {
			v.logger.Warn("Education entry missing id, removing", zap.String("institution", e.Institution))
			continue
		}
		education = append(education, e)
	}
	profile.Education = education

	publications := profile.Publications[:0]
	for _, p := range profile.Publications {
		if p.ID == "" || p.Title == "" {
			v.logger.Warn("Publication missing id or title, removing", zap.String("id", p.ID))
			continue
		}
		if p.URL != "" && !IsValidURL(p.URL) {
			v.logger.Warn("Publication has invalid URL, removing", zap.String("id", p.ID), zap.String("url", p.URL))
			p.URL = ""
		}
		if p.Date != "" && !parseableDate(p.Date) {
			v.logger.Warn("Publication has invalid date, removing", zap.String("id", p.ID), zap.String("date", p.Date))
			p.Date = ""
		}
		publications = append(publications, p)
	}
	profile.Publications = publications

	if img := profile.Personal.ProfileImage; img != "" && !IsValidImageRef(img) {
		v.logger.Warn("Profile image is not a valid reference, removing", zap.String("image", img))
		profile.Personal.ProfileImage = ""
	}

	return profile
}
