// Package docs reads the provider's published API documentation: the
// llms.txt page index and the per-model HTML pages the catalog links to.
package docs

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/everstacklabs/kai/internal/httpclient"
)

// DefaultIndexURL is the Kie.ai documentation index.
const DefaultIndexURL = "https://docs.kie.ai/llms.txt"

// MarketPagePattern matches market model pages in the index. The capture is
// the page path below /market/.
var MarketPagePattern = regexp.MustCompile(`https://docs\.kie\.ai/market/([A-Za-z0-9._\-]+/[A-Za-z0-9._\-]+?)(?:\.md)?(?:[)\s"'#?]|$)`)

// Client fetches documentation pages.
type Client struct {
	hc *httpclient.Client
}

// New creates a Client.
func New(opts ...httpclient.Option) *Client {
	base := []httpclient.Option{httpclient.WithUserAgent("kai"), httpclient.WithRateLimit(2)}
	return &Client{hc: httpclient.New(append(base, opts...)...)}
}

// FetchText performs a GET and returns the raw text body.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	body, _, err := c.hc.Open(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading body from %s: %w", url, err)
	}
	return string(data), nil
}

// FetchPage performs a GET and returns the parsed HTML document.
func (c *Client) FetchPage(ctx context.Context, url string) (*goquery.Document, error) {
	body, _, err := c.hc.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML from %s: %w", url, err)
	}
	return doc, nil
}

// ExtractPaths returns the unique first capture of every pattern match in
// content, in order of appearance. A pattern without a capture group
// contributes its full match.
func ExtractPaths(content string, patterns ...*regexp.Regexp) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, pat := range patterns {
		for _, match := range pat.FindAllStringSubmatch(content, -1) {
			id := match[0]
			if len(match) > 1 {
				id = match[1]
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

// Terms collects the identifiers a documentation page mentions: the text of
// every inline code element and the first cell of every table row.
func Terms(doc *goquery.Document) map[string]bool {
	terms := make(map[string]bool)
	add := func(s string) {
		s = strings.Trim(strings.TrimSpace(s), `"'`)
		if s != "" {
			terms[s] = true
		}
	}

	doc.Find("code").Each(func(_ int, s *goquery.Selection) {
		for _, f := range strings.FieldsFunc(s.Text(), func(r rune) bool {
			return !(r == '_' || r == '.' || r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
		}) {
			add(f)
		}
	})
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		if fields := strings.Fields(row.Find("td, th").First().Text()); len(fields) > 0 {
			add(fields[0])
		}
	})
	return terms
}
