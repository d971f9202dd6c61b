package scan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/rivalradar/rivalradar/app/cfg"
)

// ChangelogFetcher pulls a dedicated changelog URL when a competitor has one
// configured. Changelog pages are commonly RSS/Atom feeds; those are parsed
// as feeds and the latest entries become the excerpt. HTML pages go through
// readability instead.
type ChangelogFetcher struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
	timeout      time.Duration
}

func NewChangelogFetcher(httpClient *http.Client) *ChangelogFetcher {
	c := cfg.Get()

	return &ChangelogFetcher{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    c.UserAgent,
		timeout:      time.Duration(c.FetchTimeout) * time.Second,
	}
}

func (f *ChangelogFetcher) Run(ctx context.Context, url string) (string, error) {
	data, err := f.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if feed, err := f.gofeedParser.Parse(bytes.NewReader(data)); err == nil && len(feed.Items) > 0 {
		return feedExcerpt(feed), nil
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract changelog content: %w", err)
	}

	return truncate(normalizeText(article.TextContent), maxChangelogLength), nil
}

func (f *ChangelogFetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch changelog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// feedExcerpt compacts the newest feed entries into one normalized excerpt.
func feedExcerpt(feed *gofeed.Feed) string {
	const maxEntries = 10

	var b strings.Builder
	for i, item := range feed.Items {
		if i >= maxEntries {
			break
		}
		if b.Len() > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(item.Title)
		if item.Description != "" {
			b.WriteString(": ")
			b.WriteString(item.Description)
		}
	}

	return truncate(normalizeText(b.String()), maxChangelogLength)
}
