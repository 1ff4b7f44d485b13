package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

const (
	FirstRunEmit = "emit"
	FirstRunSeed = "seed"
)

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Sources
	FeedURLs []string `long:"feed-url" env:"FEED_URLS" env-delim:"," default:"https://status.openai.com/history.atom" description:"Status feed URL to poll (repeatable)"`
	FeedsDir string   `long:"feeds-dir" env:"FEEDS_DIR" description:"Directory containing feed source files (*.yml)"`

	// Polling
	PollInterval int     `long:"poll-interval" env:"POLL_INTERVAL" default:"60" description:"Seconds between poll cycles"`
	FetchTimeout int     `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15" description:"Per-fetch timeout in seconds"`
	Concurrency  int     `long:"concurrency" env:"CONCURRENCY" default:"20" description:"Maximum concurrent fetches per cycle"`
	FetchRate    float64 `long:"fetch-rate" env:"FETCH_RATE" default:"0" description:"Maximum fetches per second across all sources (0 = unlimited)"`
	FirstRun     string  `long:"first-run" env:"FIRST_RUN" default:"emit" choice:"emit" choice:"seed" description:"What the first successful parse of a source does with existing entries"`

	// Event handling
	BufferSize int    `long:"buffer-size" env:"BUFFER_SIZE" default:"50" description:"Number of recent events kept in memory"`
	SeenLimit  int    `long:"seen-limit" env:"SEEN_LIMIT" default:"10000" description:"Seen entry identities kept per source (0 = unbounded)"`
	Product    string `long:"product" env:"PRODUCT" default:"OpenAI API" description:"Default product label prefix"`

	// HTTP surface
	Port        string `long:"port" env:"PORT" default:"8000" description:"HTTP server port"`
	ServiceName string `long:"service-name" env:"SERVICE_NAME" default:"OpenAI Status Monitor" description:"Service name reported by the HTTP surface"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Status Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for event timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads an optional .env file, then flags and environment variables.
// It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	_ = godotenv.Load()
	return Parse(nil)
}

// Parse parses the given arguments (os.Args when nil) together with the environment.
func Parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validate(&raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	location, err := time.LoadLocation(raw.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", raw.Timezone, err)
	}

	return &Cfg{
		FeedURLs:     raw.FeedURLs,
		FeedsDir:     raw.FeedsDir,
		PollInterval: time.Duration(raw.PollInterval) * time.Second,
		FetchTimeout: time.Duration(raw.FetchTimeout) * time.Second,
		Concurrency:  raw.Concurrency,
		FetchRate:    raw.FetchRate,
		FirstRun:     raw.FirstRun,
		BufferSize:   raw.BufferSize,
		SeenLimit:    raw.SeenLimit,
		Product:      raw.Product,
		Location:     location,
		Port:         raw.Port,
		ServiceName:  raw.ServiceName,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}, nil
}

func validate(raw *rawCfg) error {
	positiveFields := map[string]int{
		"poll interval": raw.PollInterval,
		"fetch timeout": raw.FetchTimeout,
		"concurrency":   raw.Concurrency,
		"buffer size":   raw.BufferSize,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if raw.SeenLimit < 0 {
		return fmt.Errorf("seen limit must be non-negative")
	}
	if raw.FetchRate < 0 {
		return fmt.Errorf("fetch rate must be non-negative")
	}
	if len(raw.FeedURLs) == 0 && raw.FeedsDir == "" {
		return fmt.Errorf("at least one feed URL or a feeds directory is required")
	}

	return nil
}
