// Package kie adapts the Kie.ai API to the provider lifecycle: schema
// validated task creation, family-aware status mapping, and result
// collection after polling.
package kie

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/everstacklabs/kai/internal/cache"
	"github.com/everstacklabs/kai/internal/catalog"
	kieapi "github.com/everstacklabs/kai/internal/kie"
	"github.com/everstacklabs/kai/internal/poll"
	"github.com/everstacklabs/kai/internal/provider"
	"github.com/everstacklabs/kai/internal/task"
	"github.com/everstacklabs/kai/internal/validate"
)

// Name is the registry key of this provider.
const Name = "kie"

// DefaultCallbackURL is sent to endpoints that require a callback when the
// caller gives none. Completion is tracked by polling, not by the callback.
const DefaultCallbackURL = "https://api.example.com/callback"

// ErrNotFinished is returned by GetResult for tasks that are still running.
var ErrNotFinished = errors.New("kie: task has not finished")

// Provider is the Kie.ai implementation of provider.MusicProvider.
type Provider struct {
	api         kieapi.API
	catalog     *catalog.Registry
	poller      *poll.Poller
	cache       *cache.FileCache
	callbackURL string
	now         func() time.Time
}

var _ provider.MusicProvider = (*Provider)(nil)

// Option configures the Provider.
type Option func(*Provider)

// WithPoller replaces the poller used by WaitForCompletion.
func WithPoller(p *poll.Poller) Option {
	return func(k *Provider) { k.poller = p }
}

// WithResultCache memoizes finished task results.
func WithResultCache(c *cache.FileCache) Option {
	return func(k *Provider) { k.cache = c }
}

// WithCallbackURL sets the fallback callback URL for music endpoints.
func WithCallbackURL(u string) Option {
	return func(k *Provider) {
		if u != "" {
			k.callbackURL = u
		}
	}
}

// New creates the provider over a remote API and a model catalog.
func New(api kieapi.API, models *catalog.Registry, opts ...Option) *Provider {
	p := &Provider{
		api:         api,
		catalog:     models,
		poller:      poll.New(),
		callbackURL: DefaultCallbackURL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return Name }

// DisplayName implements provider.Provider.
func (p *Provider) DisplayName() string { return "Kie.ai" }

// Capabilities implements provider.Provider.
func (p *Provider) Capabilities() []provider.Capability {
	return []provider.Capability{
		provider.CapTextToImage,
		provider.CapImageToImage,
		provider.CapTextToVideo,
		provider.CapImageToVideo,
		provider.CapTextToMusic,
		provider.CapLyrics,
		provider.CapTimestampedLyrics,
		provider.CapMusicVideo,
	}
}

// Configured implements provider.Provider.
func (p *Provider) Configured() bool {
	if c, ok := p.api.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return p.api != nil
}

// Models implements provider.Provider.
func (p *Provider) Models(t task.Type) []*catalog.Model {
	return p.catalog.ByCategory(t)
}

// Model implements provider.Provider.
func (p *Provider) Model(id string) (*catalog.Model, bool) {
	return p.catalog.Get(id)
}

// CreateTask resolves the model, validates params against its schema, and
// submits the task. Validation failures are returned as
// *validate.ValidationError without any remote call.
func (p *Provider) CreateTask(ctx context.Context, t task.Type, modelID string, params map[string]any) (*task.Task, error) {
	m, err := p.catalog.Resolve(modelID, t)
	if err != nil {
		return nil, err
	}

	built, err := validate.BuildInput(m, params)
	if t == task.TypeMusic {
		err = withMusicRules(m, params, err)
	}
	if err != nil {
		return nil, err
	}

	if t == task.TypeMusic {
		return p.createMusic(ctx, m, built)
	}

	created, err := p.api.CreateTask(ctx, kieapi.CreateTaskRequest{
		Model:       m.ID,
		Input:       built.Input,
		CallBackURL: built.CallbackURL,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("task created", "task_id", created.TaskID, "model", m.ID)
	return p.newTask(created, task.FamilyJob, t, m.ID), nil
}

func (p *Provider) createMusic(ctx context.Context, m *catalog.Model, built *validate.BuiltInput) (*task.Task, error) {
	req := musicRequest(m.ID, built.Input)
	req.CallBackURL = p.callback(built.CallbackURL)

	created, err := p.api.GenerateMusic(ctx, req)
	if err != nil {
		return nil, err
	}
	slog.Info("music task created", "task_id", created.TaskID, "model", m.ID)
	return p.newTask(created, task.FamilyMusic, task.TypeMusic, m.ID), nil
}

// CreateLyricsTask submits a lyrics generation.
func (p *Provider) CreateLyricsTask(ctx context.Context, req provider.LyricsRequest) (*task.Task, error) {
	if req.Prompt == "" {
		return nil, &validate.ValidationError{
			Model:  &catalog.Model{ID: "lyrics"},
			Issues: []validate.Issue{{Field: "prompt", Message: "Required parameter is missing"}},
		}
	}
	created, err := p.api.GenerateLyrics(ctx, kieapi.LyricsRequest{
		Prompt:      req.Prompt,
		CallBackURL: p.callback(req.CallbackURL),
	})
	if err != nil {
		return nil, err
	}
	return p.newTask(created, task.FamilyLyrics, task.TypeMusic, "lyrics"), nil
}

// CreateMusicVideoTask submits a video rendering of a generated track.
func (p *Provider) CreateMusicVideoTask(ctx context.Context, req provider.MusicVideoRequest) (*task.Task, error) {
	var issues []validate.Issue
	if req.TaskID == "" {
		issues = append(issues, validate.Issue{Field: "taskId", Message: "Required parameter is missing"})
	}
	if req.AudioID == "" {
		issues = append(issues, validate.Issue{Field: "audioId", Message: "Required parameter is missing"})
	}
	if len(issues) > 0 {
		return nil, &validate.ValidationError{Model: &catalog.Model{ID: "music-video"}, Issues: issues}
	}

	created, err := p.api.GenerateMusicVideo(ctx, kieapi.MusicVideoRequest{
		TaskID:      req.TaskID,
		AudioID:     req.AudioID,
		CallBackURL: p.callback(req.CallbackURL),
		Author:      req.Author,
		DomainName:  req.Domain,
	})
	if err != nil {
		return nil, err
	}
	return p.newTask(created, task.FamilyMusicVideo, task.TypeVideo, "music-video"), nil
}

// TimestampedLyrics returns the lyrics of a track aligned to its audio.
func (p *Provider) TimestampedLyrics(ctx context.Context, taskID, audioID string) ([]provider.AlignedWord, error) {
	res, err := p.api.TimestampedLyrics(ctx, kieapi.TimestampRequest{TaskID: taskID, AudioID: audioID})
	if err != nil {
		return nil, err
	}
	words := make([]provider.AlignedWord, 0, len(res.AlignedWords))
	for _, w := range res.AlignedWords {
		words = append(words, provider.AlignedWord{Word: w.Word, Start: w.StartS, End: w.EndS, Synced: w.Success})
	}
	return words, nil
}

// GetTaskStatus fetches the task record and maps it through the status
// vocabulary of the task's family.
func (p *Provider) GetTaskStatus(ctx context.Context, ref task.Ref) (task.Status, error) {
	rec, err := p.fetch(ctx, ref)
	if err != nil {
		return task.Status{}, err
	}
	return rec.status, nil
}

// WaitForCompletion polls until the task is terminal, then collects its
// outputs. Results of finished tasks are served from the cache when one
// is configured.
func (p *Provider) WaitForCompletion(ctx context.Context, ref task.Ref, opts poll.Options) (*task.Result, error) {
	if res, ok := p.cached(ref); ok {
		return res, nil
	}

	status, err := p.poller.Poll(ctx, func(ctx context.Context) (task.Status, error) {
		return p.GetTaskStatus(ctx, ref)
	}, opts)
	if err != nil {
		return nil, err
	}

	if status.State == task.StateFail {
		res := &task.Result{ID: ref.ID, State: task.StateFail, Outputs: []task.Output{}, Error: status.Message}
		p.store(ref, res)
		return res, nil
	}

	rec, err := p.fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetching result: %w", err)
	}
	res := rec.result(ref)
	p.store(ref, res)
	return res, nil
}

// GetResult returns the result of a finished task with a single fetch.
func (p *Provider) GetResult(ctx context.Context, ref task.Ref) (*task.Result, error) {
	if res, ok := p.cached(ref); ok {
		return res, nil
	}
	rec, err := p.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !rec.status.State.IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotFinished, ref.ID, rec.status.State)
	}
	res := rec.result(ref)
	p.store(ref, res)
	return res, nil
}

func (p *Provider) newTask(created *kieapi.TaskCreated, f task.Family, t task.Type, model string) *task.Task {
	state := task.StateWaiting
	if created.Status != "" {
		state = task.MapperFor(f).Map(created.TaskID, created.Status, "").State
	}
	return &task.Task{
		ID:        created.TaskID,
		Family:    f,
		Type:      t,
		Model:     model,
		State:     state,
		CreatedAt: p.now(),
	}
}

func (p *Provider) callback(u string) string {
	if u != "" {
		return u
	}
	return p.callbackURL
}

func cacheKey(ref task.Ref) string {
	return Name + "/" + string(ref.Family) + "/" + ref.ID
}

func (p *Provider) cached(ref task.Ref) (*task.Result, bool) {
	if p.cache == nil {
		return nil, false
	}
	var res task.Result
	if !p.cache.Get(cacheKey(ref), &res) {
		return nil, false
	}
	slog.Debug("result served from cache", "task_id", ref.ID)
	return &res, true
}

func (p *Provider) store(ref task.Ref, res *task.Result) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(cacheKey(ref), res); err != nil {
		slog.Warn("caching result failed", "task_id", ref.ID, "error", err)
	}
}
