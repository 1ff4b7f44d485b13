package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/status-comb/app/events"
	"github.com/lysyi3m/status-comb/app/feed"
)

var _ TaskInterface = (*PollFeedTask)(nil)

// PollFeedTask fetches one source and extracts its new events. Events are
// kept on the task so the scheduler can push a whole cycle in order.
type PollFeedTask struct {
	Task
	FeedConfig  *feed.Config
	fetcher     FeedFetcher
	extractor   EventExtractor
	NotModified bool
	Events      []events.Event
}

func NewPollFeedTask(feedConfig *feed.Config, fetcher FeedFetcher, extractor EventExtractor) *PollFeedTask {
	return &PollFeedTask{
		Task:       NewTask(TaskTypePollFeed, feedConfig.Name),
		FeedConfig: feedConfig,
		fetcher:    fetcher,
		extractor:  extractor,
	}
}

func (t *PollFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.FeedName)
		return nil
	}

	result, err := t.fetcher.Fetch(ctx, t.FeedConfig)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	if result.NotModified {
		t.NotModified = true
		slog.Debug("Feed not modified", "feed", t.FeedName, "duration", t.GetDuration())
		return nil
	}

	t.Events = t.extractor.Run(t.FeedConfig, result.Data)

	slog.Debug("Task completed",
		"type", string(t.Type),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"bytes", len(result.Data),
		"new", len(t.Events))

	return nil
}
