package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./rivalradar.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WatchlistDir string `long:"watchlist-dir" env:"WATCHLIST_DIR" default:"./watchlist" description:"Directory containing competitor watchlist files"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"1" description:"Number of background workers for scan processing"`
	ScanInterval int    `long:"scan-interval" env:"SCAN_INTERVAL" default:"300" description:"Scheduler interval in seconds"`
	ScanDelay    int    `long:"scan-delay" env:"SCAN_DELAY" default:"2" description:"Delay in seconds between competitors during a batch scan"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15" description:"Timeout in seconds for outbound page fetches"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// AI capability configuration
	AIProvider string `long:"ai-provider" env:"AI_PROVIDER" default:"ollama" choice:"ollama" choice:"openai" choice:"none" description:"AI backend for change analysis"`
	AIModel    string `long:"ai-model" env:"AI_MODEL" default:"llama3" description:"Model name passed to the AI backend"`
	AITimeout  int    `long:"ai-timeout" env:"AI_TIMEOUT" default:"60" description:"Timeout in seconds for AI completion calls"`
	OpenAIKey  string `long:"openai-key" env:"OPENAI_API_KEY" description:"OpenAI API key (required when ai-provider is openai)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:       raw.DBPath,
		Port:         raw.Port,
		WatchlistDir: raw.WatchlistDir,
		WorkerCount:  raw.WorkerCount,
		ScanInterval: raw.ScanInterval,
		ScanDelay:    raw.ScanDelay,
		FetchTimeout: raw.FetchTimeout,
		APIAccessKey: raw.APIAccessKey,
		AIProvider:   raw.AIProvider,
		AIModel:      raw.AIModel,
		AITimeout:    raw.AITimeout,
		OpenAIKey:    raw.OpenAIKey,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if cfg.AIProvider == "openai" && cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("openai provider selected but no API key configured")
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Used by tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
