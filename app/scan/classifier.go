package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rivalradar/rivalradar/app/ai"
	"github.com/rivalradar/rivalradar/app/cfg"
)

// businessKeywords mark added words that turn a large diff into an
// announcement rather than a plain update.
var businessKeywords = map[string]bool{
	"launch": true, "release": true, "announce": true, "partnership": true,
	"acquisition": true, "merger": true, "funding": true, "investment": true,
	"expansion": true, "new": true, "update": true, "feature": true,
	"product": true, "service": true, "pricing": true, "price": true,
	"customer": true, "market": true,
}

// Classifier decides whether a meaningful change happened between two
// normalized texts and how important it is. The AI path is attempted first;
// any failure there degrades to the deterministic lexical heuristic, so a
// call always produces a complete Result.
type Classifier struct {
	ai      ai.Client
	timeout time.Duration
}

func NewClassifier(client ai.Client) *Classifier {
	return &Classifier{
		ai:      client,
		timeout: time.Duration(cfg.Get().AITimeout) * time.Second,
	}
}

func (c *Classifier) Run(ctx context.Context, previousText, currentText, competitorName, website string) Result {
	if currentText == "" {
		return Result{
			ChangeType:      CategoryError,
			ImportanceScore: 1,
			Analysis:        "Failed to scrape content",
			NewsTitle:       fmt.Sprintf("Scan Error for %s", competitorName),
			NewsExcerpt:     "Unable to retrieve website content",
			SourceLinks:     website,
		}
	}

	if previousText == "" {
		return Result{
			ChangeType:      CategoryFirstScan,
			ImportanceScore: 3,
			Analysis:        fmt.Sprintf("Started monitoring %s - baseline established for future news detection", competitorName),
			NewsTitle:       fmt.Sprintf("%s Added to Monitoring", competitorName),
			NewsExcerpt:     fmt.Sprintf("Now tracking %s for product updates, announcements, and market moves", competitorName),
			SourceLinks:     website,
		}
	}

	// Identical texts cannot yield anything above minor_update, so skip the
	// AI round-trip and let the heuristic produce the same answer for free.
	if previousText == currentText {
		return c.heuristic(previousText, currentText, competitorName, website)
	}

	if c.ai != nil {
		result, err := c.analyze(ctx, previousText, currentText, competitorName, website)
		if err == nil {
			return result
		}
		slog.Info("AI analysis unavailable, using heuristic fallback", "competitor", competitorName, "error", err)
	}

	return c.heuristic(previousText, currentText, competitorName, website)
}

func (c *Classifier) analyze(ctx context.Context, previousText, currentText, competitorName, website string) (Result, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := buildChangePrompt(previousText, currentText, competitorName, website)

	response, err := c.ai.Complete(timeoutCtx, prompt)
	if err != nil {
		return Result{}, err
	}

	return parseResponse(response, website), nil
}

func buildChangePrompt(previousText, currentText, competitorName, website string) string {
	return fmt.Sprintf(`You are a business news analyst monitoring competitor %s for market intelligence.

WEBSITE: %s

PREVIOUS CONTENT (first 800 chars):
%s

NEW CONTENT (first 800 chars):
%s

Analyze these changes as a business news story. Provide:

CHANGE_TYPE: [product_launch/feature_update/pricing_change/partnership/acquisition/content_update/press_release/blog_post]
IMPORTANCE: [1-10 where 8-10=breaking news, 6-7=important updates, 4-5=routine news, 1-3=minor changes]
NEWS_TITLE: [Write as a business news headline, max 70 chars]
NEWS_EXCERPT: [Write as a news summary focusing on business impact, max 180 chars]
ANALYSIS: [Business intelligence analysis focusing on competitive implications, max 250 chars]

Focus on business impact, market implications, and competitive intelligence rather than technical details.`,
		competitorName, website,
		truncate(previousText, promptTextLength),
		truncate(currentText, promptTextLength))
}

// parseResponse reads the fixed key:value protocol line by line. Unknown
// lines are ignored and any field missing from the response keeps its
// generic default; a misbehaving model degrades the result, never fails it.
func parseResponse(response, website string) Result {
	result := Result{
		ChangeType:      CategoryContentUpdate,
		ImportanceScore: 5,
		Analysis:        "Content changes detected",
		NewsTitle:       "Website Update Detected",
		NewsExcerpt:     "Changes identified in competitor website",
		SourceLinks:     website,
	}

	for _, line := range strings.Split(response, "\n") {
		switch {
		case strings.HasPrefix(line, "CHANGE_TYPE:"):
			result.ChangeType = strings.TrimSpace(strings.TrimPrefix(line, "CHANGE_TYPE:"))
		case strings.HasPrefix(line, "IMPORTANCE:"):
			value, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "IMPORTANCE:")))
			if err != nil {
				value = 5
			}
			result.ImportanceScore = value
		case strings.HasPrefix(line, "NEWS_TITLE:"):
			result.NewsTitle = strings.TrimSpace(strings.TrimPrefix(line, "NEWS_TITLE:"))
		case strings.HasPrefix(line, "NEWS_EXCERPT:"):
			result.NewsExcerpt = strings.TrimSpace(strings.TrimPrefix(line, "NEWS_EXCERPT:"))
		case strings.HasPrefix(line, "ANALYSIS:"):
			result.Analysis = strings.TrimSpace(strings.TrimPrefix(line, "ANALYSIS:"))
		}
	}

	if result.ImportanceScore < 1 {
		result.ImportanceScore = 1
	}
	if result.ImportanceScore > 10 {
		result.ImportanceScore = 10
	}

	if !knownCategories[result.ChangeType] {
		slog.Debug("AI returned unrecognized change type, mapping to content_update", "change_type", result.ChangeType)
		result.ChangeType = CategoryContentUpdate
	}

	return result
}

// heuristic is the deterministic, AI-independent classification path. Word
// sets are compared case-insensitively; thresholds are evaluated in order
// and the first match wins.
func (c *Classifier) heuristic(previousText, currentText, competitorName, website string) Result {
	oldWords := wordSet(previousText)
	newWords := wordSet(currentText)

	added := 0
	hasRelevantAddition := false
	for w := range newWords {
		if !oldWords[w] {
			added++
			if businessKeywords[w] {
				hasRelevantAddition = true
			}
		}
	}

	removed := 0
	for w := range oldWords {
		if !newWords[w] {
			removed++
		}
	}

	switch {
	case added > 50 || removed > 50 || hasRelevantAddition:
		if hasRelevantAddition {
			return Result{
				ChangeType:      CategoryMajorAnnouncement,
				ImportanceScore: 8,
				Analysis:        fmt.Sprintf("%s made significant website updates, potentially indicating new business developments or product announcements", competitorName),
				NewsTitle:       fmt.Sprintf("%s Major Business Update Detected", competitorName),
				NewsExcerpt:     fmt.Sprintf("Significant changes detected on %s's website suggesting new announcements or product developments", competitorName),
				SourceLinks:     website,
			}
		}
		return Result{
			ChangeType:      CategoryMajorUpdate,
			ImportanceScore: 7,
			Analysis:        fmt.Sprintf("%s made significant website updates, potentially indicating new business developments or product announcements", competitorName),
			NewsTitle:       fmt.Sprintf("%s Major Business Update Detected", competitorName),
			NewsExcerpt:     fmt.Sprintf("Significant changes detected on %s's website suggesting new announcements or product developments", competitorName),
			SourceLinks:     website,
		}
	case added > 10 || removed > 10:
		return Result{
			ChangeType:      CategoryContentUpdate,
			ImportanceScore: 5,
			Analysis:        fmt.Sprintf("%s updated their website content, possibly with new information about products or services", competitorName),
			NewsTitle:       fmt.Sprintf("%s Website Content Updated", competitorName),
			NewsExcerpt:     fmt.Sprintf("Moderate content changes detected on %s's website with potential business relevance", competitorName),
			SourceLinks:     website,
		}
	default:
		return Result{
			ChangeType:      CategoryMinorUpdate,
			ImportanceScore: 3,
			Analysis:        fmt.Sprintf("%s made minor website adjustments, likely routine maintenance or small content updates", competitorName),
			NewsTitle:       fmt.Sprintf("%s Minor Website Updates", competitorName),
			NewsExcerpt:     fmt.Sprintf("Small routine updates detected on %s's website", competitorName),
			SourceLinks:     website,
		}
	}
}

func wordSet(text string) map[string]bool {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
