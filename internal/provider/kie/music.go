package kie

import (
	"errors"
	"strings"

	"github.com/everstacklabs/kai/internal/catalog"
	kieapi "github.com/everstacklabs/kai/internal/kie"
	"github.com/everstacklabs/kai/internal/validate"
)

const missing = "Required parameter is missing"

// withMusicRules adds the Suno cross-field requirements to the result of
// schema validation. Fields the schema pass already flagged are not
// reported twice.
func withMusicRules(m *catalog.Model, raw map[string]any, err error) error {
	var verr *validate.ValidationError
	if err != nil && !errors.As(err, &verr) {
		return err
	}

	custom, _ := validate.ToBoolean(raw["customMode"])
	instrumental, _ := validate.ToBoolean(raw["instrumental"])

	var need []string
	switch {
	case !custom:
		need = []string{"prompt"}
	case instrumental:
		need = []string{"style", "title"}
	default:
		need = []string{"style", "title", "prompt"}
	}

	flagged := make(map[string]bool)
	if verr != nil {
		for _, is := range verr.Issues {
			flagged[is.Field] = true
		}
	}

	var extra []validate.Issue
	for _, field := range need {
		if flagged[field] || !blank(raw[field]) {
			continue
		}
		msg := missing
		if custom {
			msg = "Required in custom mode"
		}
		extra = append(extra, validate.Issue{Field: field, Message: msg})
	}

	if len(extra) == 0 {
		if verr != nil {
			return verr
		}
		return nil
	}
	if verr == nil {
		verr = &validate.ValidationError{Model: m}
	}
	verr.Issues = append(verr.Issues, extra...)
	return verr
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// musicRequest maps a validated input payload onto the Suno request body.
func musicRequest(model string, in map[string]any) kieapi.MusicRequest {
	req := kieapi.MusicRequest{Model: model}
	req.Prompt, _ = in["prompt"].(string)
	req.CustomMode, _ = in["customMode"].(bool)
	req.Instrumental, _ = in["instrumental"].(bool)
	req.Style, _ = in["style"].(string)
	req.Title, _ = in["title"].(string)
	req.NegativeTags, _ = in["negativeTags"].(string)
	req.VocalGender, _ = in["vocalGender"].(string)
	req.PersonaID, _ = in["personaId"].(string)
	req.StyleWeight = optFloat(in["styleWeight"])
	req.WeirdnessConstraint = optFloat(in["weirdnessConstraint"])
	req.AudioWeight = optFloat(in["audioWeight"])
	return req
}

func optFloat(v any) *float64 {
	if v == nil {
		return nil
	}
	f, ok := validate.ToNumber(v)
	if !ok {
		return nil
	}
	return &f
}
