package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port         string
	WatchlistDir string
	WorkerCount  int
	ScanInterval int // seconds between scheduler passes
	ScanDelay    int // seconds between competitors in a batch scan
	FetchTimeout int // seconds per outbound page fetch
	APIAccessKey string

	// AI capability configuration
	AIProvider string // ollama, openai or none
	AIModel    string
	AITimeout  int // seconds per completion call
	OpenAIKey  string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
