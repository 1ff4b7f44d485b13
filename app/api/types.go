package api

import (
	"time"

	"github.com/lysyi3m/status-comb/app/events"
	"github.com/lysyi3m/status-comb/app/feed"
	"github.com/lysyi3m/status-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(channel feed.Channel, items []events.Event) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

// EventSource is the read side of the event buffer.
type EventSource interface {
	Snapshot() []string
	Events() []events.Event
	Len() int
	Capacity() int
}

var _ EventSource = (*events.Buffer)(nil)

type Handler struct {
	serviceName string
	version     string
	buffer      EventSource
	generator   GeneratorInterface
	configCache *feed.ConfigCache
	fetcher     *feed.Fetcher
	extractor   *feed.Extractor
	scheduler   tasks.TaskSchedulerInterface
}

type FeedStatus struct {
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	Enabled       bool       `json:"enabled"`
	Product       string     `json:"product,omitempty"`
	Filters       int        `json:"filters"`
	ETag          string     `json:"etag,omitempty"`
	LastModified  string     `json:"last_modified,omitempty"`
	LastCheckedAt *time.Time `json:"last_checked_at"`
	LastStatus    int        `json:"last_status"`
	LastError     string     `json:"last_error,omitempty"`
	Seen          int        `json:"seen"`
	Initialized   bool       `json:"initialized"`
}
