package watchlist

// Entry describes one monitored competitor as declared in a watchlist file.
// The file name (without the .yml extension) becomes the competitor name.
type Entry struct {
	Name         string // derived from filename
	Website      string `yaml:"website"`
	ChangelogURL string `yaml:"changelog_url"`
	Disabled     bool   `yaml:"disabled"`
}
