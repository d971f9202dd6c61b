package scan

import (
	"time"
)

// Change categories form a closed set. AI responses naming anything outside
// it are mapped to CategoryContentUpdate before the record is persisted.
const (
	CategoryFirstScan         = "first_scan"
	CategoryProductLaunch     = "product_launch"
	CategoryFeatureUpdate     = "feature_update"
	CategoryPricingChange     = "pricing_change"
	CategoryPartnership       = "partnership"
	CategoryAcquisition       = "acquisition"
	CategoryContentUpdate     = "content_update"
	CategoryPressRelease      = "press_release"
	CategoryBlogPost          = "blog_post"
	CategoryMajorAnnouncement = "major_announcement"
	CategoryMajorUpdate       = "major_update"
	CategoryMinorUpdate       = "minor_update"
	CategoryError             = "error"
)

var knownCategories = map[string]bool{
	CategoryFirstScan:         true,
	CategoryProductLaunch:     true,
	CategoryFeatureUpdate:     true,
	CategoryPricingChange:     true,
	CategoryPartnership:       true,
	CategoryAcquisition:       true,
	CategoryContentUpdate:     true,
	CategoryPressRelease:      true,
	CategoryBlogPost:          true,
	CategoryMajorAnnouncement: true,
	CategoryMajorUpdate:       true,
	CategoryMinorUpdate:       true,
	CategoryError:             true,
}

const (
	// maxContentLength bounds stored page text and therefore everything
	// downstream: snapshots, diffs and AI prompts all operate on the capped
	// text. Changes visible only beyond the cap go undetected.
	maxContentLength = 5000

	// maxChangelogLength bounds the advisory changelog excerpt.
	maxChangelogLength = 2000

	// promptTextLength is how much of each text makes it into an AI prompt.
	promptTextLength = 800
)

// Page is one fetched-and-normalized observation of a URL.
type Page struct {
	URL              string
	Title            string
	Content          string // normalized, capped at maxContentLength
	ChangelogContent string // advisory excerpt, capped at maxChangelogLength
	ContentHash      string // over the full normalized text, before capping
	ScrapedAt        time.Time
}

// Result is a structurally complete classification of one scan. The
// classifier always produces one; there is no error case.
type Result struct {
	ChangeType      string
	ImportanceScore int
	Analysis        string
	NewsTitle       string
	NewsExcerpt     string
	SourceLinks     string
}
