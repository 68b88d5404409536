package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/everstacklabs/kai/internal/cache"
	"github.com/everstacklabs/kai/internal/catalog"
	"github.com/everstacklabs/kai/internal/config"
	"github.com/everstacklabs/kai/internal/download"
	"github.com/everstacklabs/kai/internal/history"
	"github.com/everstacklabs/kai/internal/kie"
	"github.com/everstacklabs/kai/internal/poll"
	"github.com/everstacklabs/kai/internal/provider"
	kieprovider "github.com/everstacklabs/kai/internal/provider/kie"
	"github.com/everstacklabs/kai/internal/task"
)

// app is the wiring shared by the commands of one invocation.
type app struct {
	cfg       *config.Config
	catalog   *catalog.Registry
	providers *provider.Registry
	history   *history.Store
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	models, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		catalog:   models,
		providers: provider.NewRegistry(cfg.DefaultProvider),
		history:   history.New(cfg.HistoryPath),
	}
	a.providers.Register(a.kieProvider())
	return a, nil
}

func (a *app) kieProvider() *kieprovider.Provider {
	pc := a.cfg.Provider(kieprovider.Name)
	client := kie.NewClient(
		kie.WithAPIKey(pc.APIKey),
		kie.WithBaseURL(pc.BaseURL),
		kie.WithRateLimit(pc.RateLimit),
	)

	opts := []kieprovider.Option{
		kieprovider.WithCallbackURL(pc.CallbackURL),
		kieprovider.WithPoller(poll.New()),
	}
	if rc := a.resultCache(); rc != nil {
		opts = append(opts, kieprovider.WithResultCache(rc))
	}
	return kieprovider.New(client, a.catalog, opts...)
}

func (a *app) resultCache() *cache.FileCache {
	if a.cfg.NoCache {
		return nil
	}
	fc, err := cache.New(a.cfg.CacheDir, a.cfg.CacheTTL)
	if err != nil {
		slog.Warn("failed to create cache, continuing without", "error", err)
		return nil
	}
	return fc
}

// provider returns the named provider, or the default one, and checks it
// has credentials.
func (a *app) provider(name string) (provider.Provider, error) {
	p, err := a.providers.Get(name)
	if err != nil {
		return nil, err
	}
	if !p.Configured() {
		if _, err := a.cfg.APIKey(p.Name()); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// musicProvider returns the default provider's music suite.
func (a *app) musicProvider() (provider.MusicProvider, error) {
	p, err := a.provider("")
	if err != nil {
		return nil, err
	}
	mp, ok := p.(provider.MusicProvider)
	if !ok {
		return nil, fmt.Errorf("provider %q does not support music tools", p.Name())
	}
	return mp, nil
}

func (a *app) pollOptions(timeout, interval time.Duration) poll.Options {
	opts := poll.Options{
		Interval:    a.cfg.Poll.Interval,
		Timeout:     a.cfg.Poll.Timeout,
		MaxAttempts: a.cfg.Poll.MaxAttempts,
	}
	if timeout > 0 {
		opts.Timeout = timeout
	}
	if interval > 0 {
		opts.Interval = interval
	}
	return opts
}

// record adds a history entry. History is best effort.
func (a *app) record(e history.Entry) {
	if _, err := a.history.Add(e); err != nil {
		slog.Warn("failed to write history", "task_id", e.TaskID, "error", err)
	}
}

// complete stores a terminal result in history. History is best effort.
func (a *app) complete(res *task.Result) {
	if err := a.history.Complete(res); err != nil && !errors.Is(err, history.ErrNotFound) {
		slog.Warn("failed to update history", "task_id", res.ID, "error", err)
	}
}

// sink resolves a download destination: an s3:// URI or a local directory.
func (a *app) sink(ctx context.Context, dest string) (download.Sink, error) {
	if dest == "" {
		dest = a.cfg.OutputDir
	}
	bucket, prefix, ok, err := download.ParseS3URI(dest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return download.LocalSink{Dir: dest}, nil
	}
	return download.NewS3Sink(ctx, download.S3Config{
		Bucket:          bucket,
		Prefix:          prefix,
		Region:          a.cfg.S3.Region,
		Endpoint:        a.cfg.S3.Endpoint,
		AccessKeyID:     a.cfg.S3.AccessKeyID,
		SecretAccessKey: a.cfg.S3.SecretAccessKey,
	})
}

// download saves every output of res to dest.
func (a *app) download(ctx context.Context, res *task.Result, dest string) ([]string, error) {
	sink, err := a.sink(ctx, dest)
	if err != nil {
		return nil, err
	}
	return download.New().Download(ctx, res.ID, res.Outputs, sink)
}
