// Package download saves task outputs to a local directory or an S3 bucket.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/everstacklabs/kai/internal/httpclient"
	"github.com/everstacklabs/kai/internal/task"
)

// Sink stores one downloaded file and returns where it ended up.
type Sink interface {
	Put(ctx context.Context, name string, r io.Reader, size int64) (string, error)
}

// Downloader fetches output URLs and hands them to a Sink.
type Downloader struct {
	hc *httpclient.Client
}

// New creates a Downloader. Media URLs are fetched without credentials.
func New(opts ...httpclient.Option) *Downloader {
	base := []httpclient.Option{
		httpclient.WithTimeout(10 * time.Minute),
		httpclient.WithUserAgent("kai"),
	}
	return &Downloader{hc: httpclient.New(append(base, opts...)...)}
}

// Download saves every output with a URL. A failed file is logged and
// skipped; the returned error joins all per-file failures and the
// returned locations cover the files that were saved.
func (d *Downloader) Download(ctx context.Context, taskID string, outputs []task.Output, sink Sink) ([]string, error) {
	var (
		saved []string
		errs  []error
	)
	for i, out := range outputs {
		if out.URL == "" {
			continue
		}
		name := Filename(out, i, taskID)

		loc, err := d.fetch(ctx, out.URL, name, sink)
		if err != nil {
			slog.Warn("download failed", "task_id", taskID, "file", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		slog.Info("downloaded", "task_id", taskID, "location", loc)
		saved = append(saved, loc)
	}
	return saved, errors.Join(errs...)
}

func (d *Downloader) fetch(ctx context.Context, rawURL, name string, sink Sink) (string, error) {
	body, size, err := d.hc.Open(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer body.Close()
	return sink.Put(ctx, name, body, size)
}

// Filename picks the name an output is saved under: the explicit filename,
// else the last segment of the URL path, else "<taskID>_<n>.<ext>" with n
// counted from one.
func Filename(out task.Output, index int, taskID string) string {
	if name := safeName(out.Filename); name != "" {
		return name
	}
	if u, err := url.Parse(out.URL); err == nil {
		if name := safeName(u.Path); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%s_%d.%s", taskID, index+1, out.Type.Extension())
}

func safeName(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	name := path.Base(p)
	switch name {
	case ".", "/", "..":
		return ""
	}
	return name
}
