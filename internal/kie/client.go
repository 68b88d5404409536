// Package kie is the HTTP client for the Kie.ai API: market model jobs and
// the Suno music, lyrics and music video endpoints.
package kie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/everstacklabs/kai/internal/httpclient"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.kie.ai"

// Static errors for Kie.ai client operations.
var (
	// ErrAPIKeyRequired is returned when a request is made without an API key.
	ErrAPIKeyRequired = errors.New("kie: API key not configured")
	// ErrTaskIDRequired is returned when a status call gets an empty task ID.
	ErrTaskIDRequired = errors.New("kie: task ID is required")
	// ErrNoTaskID is returned when a creation response carries no task ID.
	ErrNoTaskID = errors.New("kie: create failed: no task ID returned")
)

// APIError is an upstream failure: either a non-2xx HTTP status or a
// non-success code inside an otherwise successful JSON body.
type APIError struct {
	Code    int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kie: API error (%d): %s", e.Code, e.Message)
}

// API is the set of remote calls the provider façade depends on.
type API interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskCreated, error)
	JobRecord(ctx context.Context, taskID string) (*JobRecord, error)
	GenerateMusic(ctx context.Context, req MusicRequest) (*TaskCreated, error)
	MusicRecord(ctx context.Context, taskID string) (*MusicRecord, error)
	GenerateLyrics(ctx context.Context, req LyricsRequest) (*TaskCreated, error)
	LyricsRecord(ctx context.Context, taskID string) (*LyricsRecord, error)
	TimestampedLyrics(ctx context.Context, req TimestampRequest) (*TimestampedLyrics, error)
	GenerateMusicVideo(ctx context.Context, req MusicVideoRequest) (*TaskCreated, error)
	MusicVideoRecord(ctx context.Context, taskID string) (*MusicVideoRecord, error)
}

// Client is the HTTP implementation of API.
type Client struct {
	apiKey    string
	baseURL   string
	rateLimit float64
	http      *http.Client
	hc        *httpclient.Client
}

var _ API = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key used as a bearer token.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) { c.rateLimit = rps }
}

// NewClient creates a Kie.ai client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}

	hopts := []httpclient.Option{
		httpclient.WithBearerToken(c.apiKey),
		httpclient.WithRateLimit(c.rateLimit),
		httpclient.WithUserAgent("kai"),
	}
	if c.http != nil {
		hopts = append(hopts, httpclient.WithHTTPClient(c.http))
	}
	c.hc = httpclient.New(hopts...)
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// CreateTask submits a market model job.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskCreated, error) {
	return c.create(ctx, "/api/v1/jobs/createTask", req)
}

// JobRecord fetches the state of a market model job.
func (c *Client) JobRecord(ctx context.Context, taskID string) (*JobRecord, error) {
	var rec JobRecord
	if err := c.record(ctx, "/api/v1/jobs/recordInfo", taskID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GenerateMusic submits a Suno music generation.
func (c *Client) GenerateMusic(ctx context.Context, req MusicRequest) (*TaskCreated, error) {
	return c.create(ctx, "/api/v1/generate", req)
}

// MusicRecord fetches the state of a music generation.
func (c *Client) MusicRecord(ctx context.Context, taskID string) (*MusicRecord, error) {
	var rec MusicRecord
	if err := c.record(ctx, "/api/v1/generate/record-info", taskID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GenerateLyrics submits a lyrics generation.
func (c *Client) GenerateLyrics(ctx context.Context, req LyricsRequest) (*TaskCreated, error) {
	return c.create(ctx, "/api/v1/lyrics", req)
}

// LyricsRecord fetches the state of a lyrics generation.
func (c *Client) LyricsRecord(ctx context.Context, taskID string) (*LyricsRecord, error) {
	var rec LyricsRecord
	if err := c.record(ctx, "/api/v1/lyrics/record-info", taskID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// TimestampedLyrics aligns the lyrics of a generated track to its audio.
func (c *Client) TimestampedLyrics(ctx context.Context, req TimestampRequest) (*TimestampedLyrics, error) {
	if req.TaskID == "" {
		return nil, ErrTaskIDRequired
	}
	var out TimestampedLyrics
	if err := c.call(ctx, http.MethodPost, "/api/v1/generate/get-timestamped-lyrics", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateMusicVideo submits a video rendering of a generated track.
func (c *Client) GenerateMusicVideo(ctx context.Context, req MusicVideoRequest) (*TaskCreated, error) {
	return c.create(ctx, "/api/v1/mp4/generate", req)
}

// MusicVideoRecord fetches the state of a music video rendering.
func (c *Client) MusicVideoRecord(ctx context.Context, taskID string) (*MusicVideoRecord, error) {
	var rec MusicVideoRecord
	if err := c.record(ctx, "/api/v1/mp4/record-info", taskID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) create(ctx context.Context, path string, body any) (*TaskCreated, error) {
	var out TaskCreated
	if err := c.call(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	if out.TaskID == "" {
		return nil, ErrNoTaskID
	}
	return &out, nil
}

func (c *Client) record(ctx context.Context, path, taskID string, out any) error {
	if taskID == "" {
		return ErrTaskIDRequired
	}
	return c.call(ctx, http.MethodGet, path+"?"+url.Values{"taskId": {taskID}}.Encode(), nil, out)
}

// call performs one request and unwraps the response envelope into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	if c.apiKey == "" {
		return ErrAPIKeyRequired
	}

	var env envelope
	var err error
	u := c.baseURL + path
	if method == http.MethodPost {
		err = c.hc.PostJSON(ctx, u, body, &env)
	} else {
		err = c.hc.GetJSON(ctx, u, &env)
	}
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) {
			return &APIError{
				Code:    se.StatusCode,
				Message: "API request failed: " + http.StatusText(se.StatusCode),
				Body:    string(se.Body),
			}
		}
		return err
	}

	if env.Code == nil || (*env.Code != 0 && *env.Code != http.StatusOK) {
		code := http.StatusInternalServerError
		if env.Code != nil && *env.Code != 0 {
			code = *env.Code
		}
		msg := env.Message
		if msg == "" {
			msg = env.Msg
		}
		if msg == "" {
			raw, _ := json.Marshal(env)
			msg = string(raw)
		}
		return &APIError{Code: code, Message: msg}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("kie: decoding %s response: %w", path, err)
	}
	return nil
}
