package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rivalradar/rivalradar/app/cfg"
)

// boilerplate elements are dropped before text extraction.
const boilerplateSelector = "script, style, nav, footer, header, aside"

var primaryClassPattern = regexp.MustCompile(`(?i)content|main`)

var changelogIndicators = []string{
	"changelog", "release notes", "what's new", "updates",
	"version", "releases", "news", "announcements", "blog",
}

type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewFetcher(httpClient *http.Client) *Fetcher {
	c := cfg.Get()

	return &Fetcher{
		httpClient: httpClient,
		userAgent:  c.UserAgent,
		timeout:    time.Duration(c.FetchTimeout) * time.Second,
	}
}

// Run fetches the URL and returns its normalized text, content fingerprint
// and an advisory changelog excerpt. Any network or HTTP failure comes back
// as a wrapped error; nothing panics past this boundary.
func (f *Fetcher) Run(ctx context.Context, url string) (*Page, error) {
	data, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "No title"
	}

	doc.Find(boilerplateSelector).Remove()

	normalized := normalizeText(extractPrimaryText(doc))

	return &Page{
		URL:              url,
		Title:            title,
		Content:          truncate(normalized, maxContentLength),
		ChangelogContent: extractChangelogContent(doc, normalized),
		ContentHash:      Fingerprint(normalized),
		ScrapedAt:        time.Now().UTC(),
	}, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
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

// extractPrimaryText prefers a semantic primary-content container over the
// whole document: main, then article, then the first div or section whose
// class mentions content or main.
func extractPrimaryText(doc *goquery.Document) string {
	if sel := doc.Find("main").First(); sel.Length() > 0 {
		return sel.Text()
	}
	if sel := doc.Find("article").First(); sel.Length() > 0 {
		return sel.Text()
	}

	var primary *goquery.Selection
	doc.Find("div, section").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, ok := s.Attr("class")
		if ok && primaryClassPattern.MatchString(class) {
			primary = s
			return false
		}
		return true
	})
	if primary != nil {
		return primary.Text()
	}

	return doc.Text()
}

// extractChangelogContent looks for a dedicated changelog-ish section first,
// then falls back to regex windows around indicator words in the normalized
// text. Advisory context only; change detection never depends on it.
func extractChangelogContent(doc *goquery.Document, normalized string) string {
	for _, indicator := range changelogIndicators {
		var section *goquery.Selection
		doc.Find("div, section").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			class, ok := s.Attr("class")
			if ok && strings.Contains(strings.ToLower(class), indicator) {
				section = s
				return false
			}
			return true
		})
		if section != nil {
			return truncate(normalizeText(section.Text()), maxChangelogLength)
		}
	}

	lower := strings.ToLower(normalized)
	var excerpt strings.Builder
	for _, indicator := range changelogIndicators {
		if !strings.Contains(lower, indicator) {
			continue
		}
		pattern := regexp.MustCompile(`(?i).{0,400}` + regexp.QuoteMeta(indicator) + `.{0,1000}`)
		matches := pattern.FindAllString(normalized, -1)
		if len(matches) > 0 {
			if excerpt.Len() > 0 {
				excerpt.WriteString(" ")
			}
			excerpt.WriteString(strings.Join(matches, " "))
		}
	}

	return truncate(excerpt.String(), maxChangelogLength)
}

// Fingerprint returns the deterministic content fingerprint of normalized
// text. Computed over the full text before the storage cap, so changes past
// the cap still flip the fingerprint.
func Fingerprint(normalized string) string {
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}

// normalizeText collapses all whitespace runs to single spaces, producing
// text that is directly hashable and diffable.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
