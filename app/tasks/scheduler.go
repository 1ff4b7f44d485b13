package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lysyi3m/status-comb/app/events"
)

const (
	DefaultInterval    = 60 * time.Second
	DefaultConcurrency = 20
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// CycleResult summarizes one pass over the enabled sources.
type CycleResult struct {
	Sources     int
	Fetched     int
	NotModified int
	Failed      int
	Events      int
}

// Stats are cumulative counters since the scheduler was created.
type Stats struct {
	Running           bool          `json:"running"`
	Cycles            int64         `json:"cycles"`
	Fetched           int64         `json:"fetched"`
	NotModified       int64         `json:"not_modified"`
	Failed            int64         `json:"failed"`
	Events            int64         `json:"events"`
	LastCycleAt       *time.Time    `json:"last_cycle_at,omitempty"`
	LastCycleDuration time.Duration `json:"last_cycle_duration_ns"`
}

type Scheduler struct {
	configs     ConfigSource
	fetcher     FeedFetcher
	extractor   EventExtractor
	sink        EventSink
	interval    time.Duration
	workerCount int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	statsMu sync.RWMutex
	stats   Stats
}

func NewScheduler(configs ConfigSource, fetcher FeedFetcher, extractor EventExtractor,
	sink EventSink, interval time.Duration, concurrency int) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Scheduler{
		configs:     configs,
		fetcher:     fetcher,
		extractor:   extractor,
		sink:        sink,
		interval:    interval,
		workerCount: concurrency,
	}
}

// Start launches the poll loop. The first cycle runs immediately. Calling
// Start on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.setRunning(true)

	go func() {
		defer close(done)
		defer s.setRunning(false)

		for {
			s.RunCycle(ctx)

			timer := time.NewTimer(s.interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()

	slog.Info("Scheduler started", "interval", s.interval, "workers", s.workerCount)
}

// Stop cancels the loop and waits for the current cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	slog.Info("Scheduler stopped")
}

// RunCycle polls every enabled source once and pushes the new events into the
// sink, oldest first. Failures are logged per source and never returned.
func (s *Scheduler) RunCycle(ctx context.Context) CycleResult {
	start := time.Now()

	feedConfigs := s.configs.GetEnabledConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No enabled feed configurations found")
	}

	pollTasks := make([]*PollFeedTask, 0, len(feedConfigs))
	queue := make(chan int, len(feedConfigs))
	for i, feedConfig := range feedConfigs {
		pollTasks = append(pollTasks, NewPollFeedTask(feedConfig, s.fetcher, s.extractor))
		queue <- i
	}
	close(queue)

	failed := make([]bool, len(pollTasks))

	var wg sync.WaitGroup
	for i := 0; i < min(s.workerCount, len(pollTasks)); i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for taskIndex := range queue {
				if err := s.executeTask(ctx, workerID, pollTasks[taskIndex]); err != nil {
					failed[taskIndex] = true
				}
			}
		}(i)
	}
	wg.Wait()

	result := CycleResult{Sources: len(pollTasks)}
	var cycleEvents []events.Event
	for i, task := range pollTasks {
		switch {
		case failed[i]:
			result.Failed++
			continue
		case task.NotModified:
			result.NotModified++
		default:
			result.Fetched++
		}
		cycleEvents = append(cycleEvents, task.Events...)
	}

	sort.SliceStable(cycleEvents, func(i, j int) bool {
		return cycleEvents[i].Timestamp.Before(cycleEvents[j].Timestamp)
	})

	for _, event := range cycleEvents {
		s.sink.Push(event)
		slog.Info("Status event",
			"feed", event.Feed,
			"timestamp", event.FormattedTimestamp(),
			"product", event.Product,
			"status", event.Status)
	}
	result.Events = len(cycleEvents)

	duration := time.Since(start)
	s.recordCycle(result, start, duration)

	slog.Debug("Poll cycle completed",
		"duration", duration,
		"sources", result.Sources,
		"fetched", result.Fetched,
		"not_modified", result.NotModified,
		"failed", result.Failed,
		"new", result.Events)

	return result
}

func (s *Scheduler) executeTask(ctx context.Context, workerID int, task TaskInterface) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			slog.Error("Worker task panicked", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "feed", task.GetFeedName(), "error", err)
		}
	}()

	task.Start()

	err = task.Execute(ctx)
	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "feed", task.GetFeedName(), "duration", task.GetDuration(), "error", err)
	}
	return err
}

func (s *Scheduler) recordCycle(result CycleResult, start time.Time, duration time.Duration) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	startedAt := start.UTC()
	s.stats.Cycles++
	s.stats.Fetched += int64(result.Fetched)
	s.stats.NotModified += int64(result.NotModified)
	s.stats.Failed += int64(result.Failed)
	s.stats.Events += int64(result.Events)
	s.stats.LastCycleAt = &startedAt
	s.stats.LastCycleDuration = duration
}

func (s *Scheduler) setRunning(running bool) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.Running = running
}

func (s *Scheduler) GetStats() Stats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()

	stats := s.stats
	if s.stats.LastCycleAt != nil {
		lastCycleAt := *s.stats.LastCycleAt
		stats.LastCycleAt = &lastCycleAt
	}
	return stats
}
