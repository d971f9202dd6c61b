package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rivalradar/rivalradar/app/ai"
	"github.com/rivalradar/rivalradar/app/cfg"
	"github.com/rivalradar/rivalradar/app/database"
)

const (
	// digestItemLimit caps how many change records one digest considers.
	digestItemLimit = 15

	// priorityThreshold marks a change as a priority story.
	priorityThreshold = 7
)

const emptyDigestText = "No significant competitor news or updates detected this week."

var titleCaser = cases.Title(language.English)

// Summarizer composes a time-windowed set of change records into a ranked
// newsletter-style digest. The caller supplies records already filtered to
// the window and sorted by importance descending, recency descending.
type Summarizer struct {
	ai      ai.Client
	timeout time.Duration
}

func NewSummarizer(client ai.Client) *Summarizer {
	return &Summarizer{
		ai:      client,
		timeout: time.Duration(cfg.Get().AITimeout) * time.Second,
	}
}

type newsItem struct {
	Competitor string
	Title      string
	Excerpt    string
	Importance int
	Type       string
	Date       string
}

// Run never fails: the AI path is attempted first and any failure falls back
// to the deterministic template.
func (s *Summarizer) Run(ctx context.Context, changes []database.Change) string {
	if len(changes) == 0 {
		return emptyDigestText
	}

	items, priority := collectNewsItems(changes)

	if s.ai != nil {
		timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		digest, err := s.ai.Complete(timeoutCtx, buildDigestPrompt(items, priority))
		if err == nil && strings.TrimSpace(digest) != "" {
			return digest
		}
		slog.Info("AI digest unavailable, using template fallback", "error", err)
	}

	return fallbackDigest(items, priority)
}

func collectNewsItems(changes []database.Change) ([]newsItem, []newsItem) {
	var items, priority []newsItem

	for i, change := range changes {
		if i >= digestItemLimit {
			break
		}

		excerpt := change.NewsExcerpt
		if excerpt == "" {
			excerpt = truncate(change.Analysis, 100)
		}
		title := change.NewsTitle
		if title == "" {
			title = fmt.Sprintf("%s Update", change.CompetitorName)
		}

		item := newsItem{
			Competitor: change.CompetitorName,
			Title:      title,
			Excerpt:    excerpt,
			Importance: change.ImportanceScore,
			Type:       categoryLabel(change.ChangeType),
			Date:       change.DetectedAt.Format("2006-01-02"),
		}
		items = append(items, item)

		if change.ImportanceScore >= priorityThreshold {
			priority = append(priority, item)
		}
	}

	return items, priority
}

// categoryLabel turns a category constant into its human form, e.g.
// "major_announcement" becomes "Major Announcement".
func categoryLabel(changeType string) string {
	return titleCaser.String(strings.ReplaceAll(changeType, "_", " "))
}

func buildDigestPrompt(items, priority []newsItem) string {
	var news strings.Builder
	competitors := make(map[string]bool)

	for _, item := range items {
		competitors[item.Competitor] = true
		fmt.Fprintf(&news, "%s - %s\nHeadline: %s\nSummary: %s\nPriority: %d/10 | Type: %s\n---\n",
			item.Competitor, item.Date, item.Title, item.Excerpt, item.Importance, item.Type)
	}

	return fmt.Sprintf(`You are a business news analyst creating a weekly competitive intelligence newsletter.

COMPETITOR NEWS & UPDATES THIS WEEK:
%s

OVERVIEW:
- Total News Items: %d
- High Priority Updates: %d
- Active Competitors: %d

Create a professional newsletter-style summary that includes:

## Weekly Competitor News Digest

### Top Stories This Week
[Highlight the most important news items as headlines with brief descriptions]

### Market Intelligence Summary
[Overall assessment of competitive landscape movements]

### Priority Alerts
[Critical updates that require immediate attention]

### Competitor Activity Breakdown
[Brief overview of which competitors were most active]

### Strategic Insights
[Key takeaways and implications for our business]

Write this as a news digest focusing on business updates, product launches, market moves, and strategic announcements. Keep it professional and actionable, under 400 words.`,
		news.String(), len(items), len(priority), len(competitors))
}

// fallbackDigest is the deterministic template used when the AI capability
// is absent or fails.
func fallbackDigest(items, priority []newsItem) string {
	var b strings.Builder

	b.WriteString("## Weekly Competitor News Digest\n\n")

	b.WriteString("### Top Stories This Week\n")
	if len(priority) > 0 {
		for i, item := range priority {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", item.Competitor, item.Title)
			fmt.Fprintf(&b, "  _%s_\n\n", truncate(item.Excerpt, 80))
		}
	} else {
		b.WriteString("- No high-priority news items this week\n\n")
	}

	competitors := make(map[string]int)
	for _, item := range items {
		competitors[item.Competitor]++
	}

	b.WriteString("### Market Intelligence Summary\n")
	fmt.Fprintf(&b, "This week we tracked %d news items and updates across %d competitors. ",
		len(items), len(competitors))
	switch {
	case len(priority) > 3:
		fmt.Fprintf(&b, "We detected %d high-priority developments requiring attention.\n\n", len(priority))
	case len(priority) > 0:
		fmt.Fprintf(&b, "We identified %d important updates worth monitoring.\n\n", len(priority))
	default:
		b.WriteString("Most activity was routine updates and minor changes.\n\n")
	}

	b.WriteString("### Most Active Competitors\n")
	for _, activity := range rankActivity(competitors, 3) {
		fmt.Fprintf(&b, "- **%s**: %d news items\n", activity.name, activity.count)
	}

	b.WriteString("\n### Strategic Insights\n")
	if len(priority) > 2 {
		b.WriteString("- High competitor activity suggests increased market competition\n")
		b.WriteString("- Monitor for potential market shifts and new opportunities\n")
	} else {
		b.WriteString("- Stable competitive environment with routine updates\n")
		b.WriteString("- Good opportunity to focus on internal product development\n")
	}
	b.WriteString("- Continue monitoring for emerging trends and strategic moves")

	return b.String()
}

type competitorActivity struct {
	name  string
	count int
}

// rankActivity orders competitors by item count descending, ties broken by
// name, so the digest is stable across runs.
func rankActivity(counts map[string]int, limit int) []competitorActivity {
	ranked := make([]competitorActivity, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, competitorActivity{name: name, count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
