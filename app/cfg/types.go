package cfg

import "time"

type Cfg struct {
	// Sources
	FeedURLs []string
	FeedsDir string

	// Polling
	PollInterval time.Duration
	FetchTimeout time.Duration
	Concurrency  int
	FetchRate    float64
	FirstRun     string

	// Event handling
	BufferSize int
	SeenLimit  int
	Product    string
	Location   *time.Location

	// HTTP surface
	Port        string
	ServiceName string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
