package kie

import "encoding/json"

// envelope is the wrapper every Kie.ai endpoint responds with.
type envelope struct {
	Code    *int            `json:"code"`
	Msg     string          `json:"msg"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CreateTaskRequest submits a market model job.
type CreateTaskRequest struct {
	Model       string         `json:"model"`
	Input       map[string]any `json:"input"`
	CallBackURL string         `json:"callBackUrl,omitempty"`
}

// TaskCreated is the data returned by every task creation endpoint.
type TaskCreated struct {
	TaskID string `json:"taskId"`
	Status string `json:"status,omitempty"`
}

// JobRecord is the status payload of a market model job.
type JobRecord struct {
	TaskID       string `json:"taskId"`
	Model        string `json:"model"`
	State        string `json:"state"`
	Param        string `json:"param,omitempty"`
	ResultJSON   string `json:"resultJson"`
	FailCode     any    `json:"failCode,omitempty"`
	FailMsg      string `json:"failMsg"`
	CostTime     int64  `json:"costTime,omitempty"`
	CompleteTime int64  `json:"completeTime,omitempty"`
	CreateTime   int64  `json:"createTime,omitempty"`
	Progress     *int   `json:"progress,omitempty"`
}

// JobResult is the decoded form of JobRecord.ResultJSON.
type JobResult struct {
	ResultURLs []string       `json:"resultUrls"`
	ResultObj  map[string]any `json:"resultObject,omitempty"`
}

// MusicRequest submits a Suno music generation.
type MusicRequest struct {
	Prompt              string   `json:"prompt,omitempty"`
	CustomMode          bool     `json:"customMode"`
	Instrumental        bool     `json:"instrumental"`
	Model               string   `json:"model"`
	CallBackURL         string   `json:"callBackUrl"`
	Style               string   `json:"style,omitempty"`
	Title               string   `json:"title,omitempty"`
	NegativeTags        string   `json:"negativeTags,omitempty"`
	VocalGender         string   `json:"vocalGender,omitempty"`
	StyleWeight         *float64 `json:"styleWeight,omitempty"`
	WeirdnessConstraint *float64 `json:"weirdnessConstraint,omitempty"`
	AudioWeight         *float64 `json:"audioWeight,omitempty"`
	PersonaID           string   `json:"personaId,omitempty"`
}

// Track is one generated song.
type Track struct {
	ID             string  `json:"id"`
	AudioURL       string  `json:"audioUrl"`
	StreamAudioURL string  `json:"streamAudioUrl"`
	ImageURL       string  `json:"imageUrl"`
	Prompt         string  `json:"prompt"`
	ModelName      string  `json:"modelName"`
	Title          string  `json:"title"`
	Tags           string  `json:"tags"`
	CreateTime     any     `json:"createTime,omitempty"`
	Duration       float64 `json:"duration"`
}

// MusicRecord is the status payload of a music generation.
type MusicRecord struct {
	TaskID        string `json:"taskId"`
	ParentMusicID string `json:"parentMusicId,omitempty"`
	Status        string `json:"status"`
	Type          string `json:"type,omitempty"`
	ErrorCode     any    `json:"errorCode,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	Response      *struct {
		TaskID   string  `json:"taskId"`
		SunoData []Track `json:"sunoData"`
	} `json:"response,omitempty"`
}

// Tracks returns the generated songs, if any.
func (r *MusicRecord) Tracks() []Track {
	if r.Response == nil {
		return nil
	}
	return r.Response.SunoData
}

// LyricsRequest submits a lyrics generation.
type LyricsRequest struct {
	Prompt      string `json:"prompt"`
	CallBackURL string `json:"callBackUrl"`
}

// Lyrics is one generated lyric sheet.
type Lyrics struct {
	Text         string `json:"text"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// LyricsRecord is the status payload of a lyrics generation.
type LyricsRecord struct {
	TaskID       string `json:"taskId"`
	Status       string `json:"status"`
	Type         string `json:"type,omitempty"`
	ErrorCode    any    `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Response     *struct {
		TaskID string   `json:"taskId"`
		Data   []Lyrics `json:"data"`
	} `json:"response,omitempty"`
}

// Sheets returns the generated lyric sheets, if any.
func (r *LyricsRecord) Sheets() []Lyrics {
	if r.Response == nil {
		return nil
	}
	return r.Response.Data
}

// TimestampRequest identifies a track to align lyrics for.
type TimestampRequest struct {
	TaskID  string `json:"taskId"`
	AudioID string `json:"audioId"`
}

// AlignedWord is one word with its time span in the track.
type AlignedWord struct {
	Word    string  `json:"word"`
	Success bool    `json:"success"`
	StartS  float64 `json:"startS"`
	EndS    float64 `json:"endS"`
	PAlign  float64 `json:"palign"`
}

// TimestampedLyrics are lyrics aligned to audio.
type TimestampedLyrics struct {
	AlignedWords []AlignedWord `json:"alignedWords"`
	WaveformData []float64     `json:"waveformData"`
	HootCer      float64       `json:"hootCer"`
	IsStreamed   bool          `json:"isStreamed"`
}

// MusicVideoRequest submits a video rendering of a generated track.
type MusicVideoRequest struct {
	TaskID      string `json:"taskId"`
	AudioID     string `json:"audioId"`
	CallBackURL string `json:"callBackUrl"`
	Author      string `json:"author,omitempty"`
	DomainName  string `json:"domainName,omitempty"`
}

// MusicVideoRecord is the status payload of a music video rendering.
type MusicVideoRecord struct {
	TaskID       string `json:"taskId"`
	MusicID      string `json:"musicId,omitempty"`
	SuccessFlag  string `json:"successFlag"`
	ErrorCode    any    `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Response     *struct {
		VideoURL string `json:"videoUrl"`
	} `json:"response,omitempty"`
}

// VideoURL returns the rendered video location, if any.
func (r *MusicVideoRecord) VideoURL() string {
	if r.Response == nil {
		return ""
	}
	return r.Response.VideoURL
}
