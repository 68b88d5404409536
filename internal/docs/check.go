package docs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/everstacklabs/kai/internal/catalog"
)

// Discovery compares the documentation index with the catalog.
type Discovery struct {
	// Pages are the market page paths listed in the index.
	Pages        []string
	// Uncatalogued are listed pages no catalog model links to.
	Uncatalogued []string
	// Unlisted are catalog models whose doc page is not in the index.
	Unlisted     []string
}

// Discover fetches the index at indexURL and matches its market pages
// against the doc URLs of the catalog models.
func (c *Client) Discover(ctx context.Context, indexURL string, reg *catalog.Registry) (*Discovery, error) {
	content, err := c.FetchText(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetching docs index: %w", err)
	}

	d := &Discovery{Pages: ExtractPaths(content, MarketPagePattern)}
	listed := make(map[string]bool, len(d.Pages))
	for _, p := range d.Pages {
		listed[p] = true
	}

	linked := make(map[string]bool)
	for _, m := range reg.All() {
		path, ok := PagePath(m.DocURL)
		if !ok {
			continue
		}
		linked[path] = true
		if !listed[path] {
			d.Unlisted = append(d.Unlisted, m.ID)
		}
	}
	for _, p := range d.Pages {
		if !linked[p] {
			d.Uncatalogued = append(d.Uncatalogued, p)
		}
	}
	return d, nil
}

// PagePath returns the market page path of a doc URL.
func PagePath(docURL string) (string, bool) {
	paths := ExtractPaths(docURL, MarketPagePattern)
	if len(paths) == 0 {
		return "", false
	}
	return paths[0], true
}

// ParamCheck is the outcome of checking one model against its doc page.
type ParamCheck struct {
	ModelID string
	DocURL  string
	// Missing are declared parameters the page never mentions.
	Missing []string
	Err     error
}

// CheckParams fetches the doc page of every model that has one and reports
// declared parameters the page does not mention. Fetch failures are
// recorded per model and do not stop the run.
func (c *Client) CheckParams(ctx context.Context, models []*catalog.Model) []ParamCheck {
	var out []ParamCheck
	for _, m := range models {
		if m.DocURL == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		pc := ParamCheck{ModelID: m.ID, DocURL: m.DocURL}
		doc, err := c.FetchPage(ctx, m.DocURL)
		if err != nil {
			slog.Warn("failed to fetch doc page", "model", m.ID, "url", m.DocURL, "error", err)
			pc.Err = err
			out = append(out, pc)
			continue
		}

		terms := Terms(doc)
		for _, p := range m.Params {
			if !terms[p.Name] {
				pc.Missing = append(pc.Missing, p.Name)
			}
		}
		slog.Debug("checked doc page", "model", m.ID, "terms", len(terms), "missing", len(pc.Missing))
		out = append(out, pc)
	}
	return out
}
