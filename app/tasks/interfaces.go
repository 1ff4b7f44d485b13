package tasks

import (
	"context"

	"github.com/lysyi3m/status-comb/app/events"
	"github.com/lysyi3m/status-comb/app/feed"
)

// TaskSchedulerInterface defines the lifecycle of the background poll loop.
// Used by the main application and the HTTP layer.
// Example usage:
//
//	scheduler := NewScheduler(configCache, fetcher, extractor, buffer, interval, concurrency)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	RunCycle(ctx context.Context) CycleResult
	GetStats() Stats
}

type ConfigSource interface {
	GetEnabledConfigs() []*feed.Config
}

type FeedFetcher interface {
	Fetch(ctx context.Context, feedConfig *feed.Config) (*feed.FetchResult, error)
}

type EventExtractor interface {
	Run(feedConfig *feed.Config, data []byte) []events.Event
}

type EventSink interface {
	Push(event events.Event)
}
