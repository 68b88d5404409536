package task

import "testing"

func TestJobMapper(t *testing.T) {
	tests := []struct {
		token string
		want  State
	}{
		{"waiting", StateWaiting},
		{"queuing", StateQueuing},
		{"generating", StateGenerating},
		{"success", StateSuccess},
		{"fail", StateFail},
		{"SUCCESS", StateSuccess},
		{"", StateGenerating},
		{"paused", StateGenerating},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got := JobMapper{}.Map("t1", tt.token, "")
			if got.State != tt.want {
				t.Errorf("Map(%q) = %s, want %s", tt.token, got.State, tt.want)
			}
			if got.ID != "t1" {
				t.Errorf("ID = %q, want t1", got.ID)
			}
		})
	}
}

func TestJobMapperCarriesFailMessage(t *testing.T) {
	got := JobMapper{}.Map("t1", "fail", "quota exceeded")
	if got.State != StateFail || got.Message != "quota exceeded" {
		t.Errorf("got %+v", got)
	}
}

func TestMusicMapper(t *testing.T) {
	tests := []struct {
		token string
		want  State
	}{
		{"SUCCESS", StateSuccess},
		{"CREATE_TASK_FAILED", StateFail},
		{"GENERATE_AUDIO_FAILED", StateFail},
		{"GENERATE_LYRICS_FAILED", StateFail},
		{"CALLBACK_EXCEPTION", StateFail},
		{"SENSITIVE_WORD_ERROR", StateFail},
		{"PENDING", StateGenerating},
		{"TEXT_SUCCESS", StateGenerating},
		{"FIRST_SUCCESS", StateGenerating},
		{"GENERATE_MP4_FAILED", StateGenerating},
		{"success", StateGenerating},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := MusicMapper.Map("m1", tt.token, "").State; got != tt.want {
				t.Errorf("Map(%q) = %s, want %s", tt.token, got, tt.want)
			}
		})
	}
}

func TestMusicVideoMapper(t *testing.T) {
	tests := []struct {
		token string
		want  State
	}{
		{"SUCCESS", StateSuccess},
		{"CREATE_TASK_FAILED", StateFail},
		{"GENERATE_MP4_FAILED", StateFail},
		{"PENDING", StateGenerating},
		{"SENSITIVE_WORD_ERROR", StateGenerating},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := MusicVideoMapper.Map("v1", tt.token, "").State; got != tt.want {
				t.Errorf("Map(%q) = %s, want %s", tt.token, got, tt.want)
			}
		})
	}
}

func TestTokenMapperFailMessage(t *testing.T) {
	got := MusicMapper.Map("m1", "SENSITIVE_WORD_ERROR", "")
	if got.Message != "SENSITIVE_WORD_ERROR" {
		t.Errorf("message = %q, want the token when upstream gives none", got.Message)
	}
	got = MusicMapper.Map("m1", "GENERATE_AUDIO_FAILED", "model overloaded")
	if got.Message != "model overloaded" {
		t.Errorf("message = %q, want upstream error", got.Message)
	}
}

// Unknown tokens never terminate, whichever vocabulary reads them.
func TestMappersAreTotal(t *testing.T) {
	unknown := []string{"", "DONE", "COMPLETE", "ERROR", "failed", "cancelled", "unknown", "FIRST_SUCCESS_V2"}
	for _, f := range []Family{FamilyJob, FamilyMusic, FamilyLyrics, FamilyMusicVideo} {
		m := MapperFor(f)
		for _, tok := range unknown {
			if got := m.Map("x", tok, "boom").State; got != StateGenerating {
				t.Errorf("%s mapper: Map(%q) = %s, want generating", f, tok, got)
			}
		}
	}
}
