package task

import "strings"

// StatusMapper converts one upstream status token into a canonical Status.
// Implementations are total: tokens they do not recognize map to
// StateGenerating so an unexpected value never ends polling.
type StatusMapper interface {
	Map(id, token, errMsg string) Status
}

// JobMapper reads the generic market job vocabulary, which already uses the
// canonical lowercase state names.
type JobMapper struct{}

// Map implements StatusMapper.
func (JobMapper) Map(id, token, errMsg string) Status {
	s := Status{ID: id, State: StateGenerating}
	switch State(strings.ToLower(strings.TrimSpace(token))) {
	case StateWaiting:
		s.State = StateWaiting
	case StateQueuing:
		s.State = StateQueuing
	case StateSuccess:
		s.State = StateSuccess
	case StateFail:
		s.State = StateFail
		s.Message = errMsg
	}
	return s
}

// TokenMapper maps a vocabulary with one success token and a whitelist of
// failure tokens. Everything else is still in progress.
type TokenMapper struct {
	Success  string
	Failures map[string]bool
}

// Map implements StatusMapper.
func (m TokenMapper) Map(id, token, errMsg string) Status {
	s := Status{ID: id, State: StateGenerating, Message: token}
	switch {
	case token == m.Success:
		s.State = StateSuccess
		s.Message = ""
	case m.Failures[token]:
		s.State = StateFail
		s.Message = errMsg
		if s.Message == "" {
			s.Message = token
		}
	}
	return s
}

// MusicMapper covers Suno music generation and lyrics generation. PENDING,
// TEXT_SUCCESS and FIRST_SUCCESS are intermediate.
var MusicMapper = TokenMapper{
	Success: "SUCCESS",
	Failures: map[string]bool{
		"CREATE_TASK_FAILED":     true,
		"GENERATE_AUDIO_FAILED":  true,
		"GENERATE_LYRICS_FAILED": true,
		"CALLBACK_EXCEPTION":     true,
		"SENSITIVE_WORD_ERROR":   true,
	},
}

// MusicVideoMapper covers video rendering from a generated track.
var MusicVideoMapper = TokenMapper{
	Success: "SUCCESS",
	Failures: map[string]bool{
		"CREATE_TASK_FAILED":  true,
		"GENERATE_MP4_FAILED": true,
	},
}

// MapperFor returns the strategy that reads statuses of the given family.
func MapperFor(f Family) StatusMapper {
	switch f {
	case FamilyMusic, FamilyLyrics:
		return MusicMapper
	case FamilyMusicVideo:
		return MusicVideoMapper
	default:
		return JobMapper{}
	}
}
