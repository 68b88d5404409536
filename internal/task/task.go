// Package task holds the provider-neutral task lifecycle types shared by the
// validator, the poller and provider façades.
package task

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// Type is the generation category a model belongs to.
type Type string

const (
	TypeImage Type = "image"
	TypeVideo Type = "video"
	TypeMusic Type = "music"
)

// Types lists every supported category.
var Types = []Type{TypeImage, TypeVideo, TypeMusic}

// Valid reports whether t is a known category.
func (t Type) Valid() bool {
	switch t {
	case TypeImage, TypeVideo, TypeMusic:
		return true
	}
	return false
}

// State is the canonical task status every upstream vocabulary maps into.
type State string

const (
	StateWaiting    State = "waiting"
	StateQueuing    State = "queuing"
	StateGenerating State = "generating"
	StateSuccess    State = "success"
	StateFail       State = "fail"
)

// IsTerminal reports whether polling should stop at this state.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateFail
}

// Family identifies which upstream endpoint group owns a task. It selects
// both the status endpoint and the StatusMapper used to read it.
type Family string

const (
	FamilyJob        Family = "job"
	FamilyMusic      Family = "music"
	FamilyLyrics     Family = "lyrics"
	FamilyMusicVideo Family = "music_video"
)

// ParseFamily returns the family named by s, defaulting to FamilyJob.
func ParseFamily(s string) (Family, bool) {
	switch Family(strings.ToLower(strings.TrimSpace(s))) {
	case "", FamilyJob:
		return FamilyJob, true
	case FamilyMusic:
		return FamilyMusic, true
	case FamilyLyrics:
		return FamilyLyrics, true
	case FamilyMusicVideo, "music-video", "video-from-audio":
		return FamilyMusicVideo, true
	}
	return FamilyJob, false
}

// Ref addresses a remote task.
type Ref struct {
	ID     string `json:"id"`
	Family Family `json:"family"`
}

// Task is the record returned when a task is created.
type Task struct {
	ID        string    `json:"id"`
	Family    Family    `json:"family"`
	Type      Type      `json:"type"`
	Model     string    `json:"model"`
	State     State     `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Ref returns the reference used to query this task.
func (t *Task) Ref() Ref {
	return Ref{ID: t.ID, Family: t.Family}
}

// Status is one observation of a task. It carries no identity beyond ID.
type Status struct {
	ID            string `json:"id"`
	State         State  `json:"status"`
	Progress      *int   `json:"progress,omitempty"`
	Message       string `json:"message,omitempty"`
	EstimatedTime *int   `json:"estimated_time,omitempty"`
	QueuePosition *int   `json:"queue_position,omitempty"`
}

// OutputType is the media kind of a produced artifact.
type OutputType string

const (
	OutputImage OutputType = "image"
	OutputVideo OutputType = "video"
	OutputAudio OutputType = "audio"
	OutputText  OutputType = "text"
)

// Output is one artifact produced by a finished task.
type Output struct {
	URL      string     `json:"url"`
	Type     OutputType `json:"type"`
	Filename string     `json:"filename,omitempty"`
	Duration float64    `json:"duration,omitempty"`
	Width    int        `json:"width,omitempty"`
	Height   int        `json:"height,omitempty"`
}

// Result is assembled once, after polling observed a terminal status.
type Result struct {
	ID       string         `json:"id"`
	State    State          `json:"status"`
	Outputs  []Output       `json:"outputs"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

var extTypes = map[string]OutputType{
	".mp4":  OutputVideo,
	".webm": OutputVideo,
	".mov":  OutputVideo,
	".mp3":  OutputAudio,
	".wav":  OutputAudio,
	".ogg":  OutputAudio,
	".txt":  OutputText,
	".srt":  OutputText,
	".vtt":  OutputText,
}

// InferOutputType guesses the media kind from the URL path extension.
// Query strings and fragments are ignored; anything unrecognized is an image.
func InferOutputType(rawURL string) OutputType {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	if t, ok := extTypes[strings.ToLower(path.Ext(p))]; ok {
		return t
	}
	return OutputImage
}

// Extension returns the default file extension for an output type.
func (t OutputType) Extension() string {
	switch t {
	case OutputVideo:
		return "mp4"
	case OutputAudio:
		return "mp3"
	case OutputText:
		return "txt"
	default:
		return "png"
	}
}
