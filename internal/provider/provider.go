// Package provider defines the uniform task lifecycle every generation
// backend exposes, and the registry the CLI resolves backends from.
package provider

import (
	"context"

	"github.com/everstacklabs/kai/internal/catalog"
	"github.com/everstacklabs/kai/internal/poll"
	"github.com/everstacklabs/kai/internal/task"
)

// Capability is a generation feature a provider offers.
type Capability string

const (
	CapTextToImage       Capability = "text-to-image"
	CapImageToImage      Capability = "image-to-image"
	CapTextToVideo       Capability = "text-to-video"
	CapImageToVideo      Capability = "image-to-video"
	CapTextToMusic       Capability = "text-to-music"
	CapLyrics            Capability = "lyrics-generation"
	CapTimestampedLyrics Capability = "timestamped-lyrics"
	CapMusicVideo        Capability = "music-video"
)

// Provider creates, tracks and collects generation tasks.
type Provider interface {
	// Name returns the registry key (e.g., "kie").
	Name() string
	// DisplayName returns a human-readable name.
	DisplayName() string
	// Capabilities lists supported generation features.
	Capabilities() []Capability
	// Configured reports whether credentials are present.
	Configured() bool
	// Models returns the catalog entries of one category.
	Models(t task.Type) []*catalog.Model
	// Model returns one catalog entry.
	Model(id string) (*catalog.Model, bool)

	// CreateTask validates params against the model schema and submits a task.
	CreateTask(ctx context.Context, t task.Type, modelID string, params map[string]any) (*task.Task, error)
	// GetTaskStatus fetches and normalizes the current task status.
	GetTaskStatus(ctx context.Context, ref task.Ref) (task.Status, error)
	// WaitForCompletion polls until the task is terminal and returns its result.
	WaitForCompletion(ctx context.Context, ref task.Ref, opts poll.Options) (*task.Result, error)
	// GetResult returns the result of a task that has already finished.
	GetResult(ctx context.Context, ref task.Ref) (*task.Result, error)
}

// LyricsRequest asks for generated lyrics.
type LyricsRequest struct {
	Prompt      string
	CallbackURL string
}

// MusicVideoRequest asks for a video rendering of a generated track.
type MusicVideoRequest struct {
	TaskID      string
	AudioID     string
	CallbackURL string
	Author      string
	Domain      string
}

// AlignedWord is one lyric word placed on the track timeline.
type AlignedWord struct {
	Word   string  `json:"word"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Synced bool    `json:"synced"`
}

// MusicProvider is an optional interface for providers with a music suite
// beyond plain track generation.
type MusicProvider interface {
	Provider
	CreateLyricsTask(ctx context.Context, req LyricsRequest) (*task.Task, error)
	CreateMusicVideoTask(ctx context.Context, req MusicVideoRequest) (*task.Task, error)
	TimestampedLyrics(ctx context.Context, taskID, audioID string) ([]AlignedWord, error)
}
