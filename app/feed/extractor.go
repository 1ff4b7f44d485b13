package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lysyi3m/status-comb/app/events"
	"github.com/mmcdole/gofeed"
)

// FirstRunPolicy decides what the first successful parse of a source emits.
type FirstRunPolicy string

const (
	// FirstRunEmit treats every entry of the first document as new.
	FirstRunEmit FirstRunPolicy = "emit"
	// FirstRunSeed records the first document's entries without emitting them.
	FirstRunSeed FirstRunPolicy = "seed"

	DefaultProduct   = "OpenAI API"
	DefaultSeenLimit = 10000
)

type ExtractorOptions struct {
	Policy    FirstRunPolicy
	SeenLimit int
	Product   string
	Location  *time.Location
	Filterer  *Filterer
	Now       func() time.Time
}

// Extractor turns feed documents into new events. Deduplication state is kept
// per source.
type Extractor struct {
	gofeedParser *gofeed.Parser
	filterer     *Filterer
	policy       FirstRunPolicy
	seenLimit    int
	product      string
	location     *time.Location
	now          func() time.Time

	mu     sync.Mutex
	states map[string]*extractionState
}

type extractionState struct {
	seen        *SeenSet
	initialized bool
}

// ExtractionStatus is a read-only view of one source's deduplication state.
type ExtractionStatus struct {
	Seen        int
	Initialized bool
}

func NewExtractor(opts ExtractorOptions) *Extractor {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Extractor{
		gofeedParser: gofeed.NewParser(),
		filterer:     cmp.Or(opts.Filterer, NewFilterer()),
		policy:       cmp.Or(opts.Policy, FirstRunEmit),
		seenLimit:    opts.SeenLimit,
		product:      cmp.Or(opts.Product, DefaultProduct),
		location:     cmp.Or(opts.Location, time.UTC),
		now:          now,
		states:       make(map[string]*extractionState),
	}
}

// Parse decodes an Atom or RSS document into entries.
func (e *Extractor) Parse(data []byte) ([]Entry, error) {
	parsed, err := e.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, e.normalizeItem(item))
	}
	return entries, nil
}

func (e *Extractor) normalizeItem(item *gofeed.Item) Entry {
	return Entry{
		ID:          item.GUID,
		Link:        item.Link,
		Title:       item.Title,
		Summary:     cmp.Or(item.Description, item.Content),
		Categories:  item.Categories,
		PublishedAt: item.PublishedParsed,
		UpdatedAt:   item.UpdatedParsed,
	}
}

// Run parses the document and returns the events for entries not seen before
// on this source, oldest first. A document that cannot be parsed yields no
// events and leaves the source's state untouched.
func (e *Extractor) Run(feedConfig *Config, data []byte) []events.Event {
	entries, err := e.Parse(data)
	if err != nil {
		slog.Warn("Feed document could not be parsed", "feed", feedConfig.Name, "error", err)
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.stateLocked(feedConfig.Name)
	isFirstRun := !state.initialized

	result := e.extract(feedConfig, state, entries, isFirstRun)
	state.initialized = true

	if isFirstRun {
		slog.Debug("First run for feed", "feed", feedConfig.Name, "policy", string(e.policy), "entries", len(entries), "new", len(result))
	} else {
		slog.Debug("New events detected", "feed", feedConfig.Name, "entries", len(entries), "new", len(result))
	}

	return result
}

func (e *Extractor) extract(feedConfig *Config, state *extractionState, entries []Entry, isFirstRun bool) []events.Event {
	now := e.now()

	candidates := make([]Entry, 0, len(entries))
	present := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		identity := entry.Identity()
		if identity == "" {
			continue
		}
		present[identity] = struct{}{}

		if !state.seen.Touch(identity, now) {
			continue
		}
		if isFirstRun && e.policy == FirstRunSeed {
			continue
		}
		candidates = append(candidates, entry)
	}

	if evicted := state.seen.Trim(len(present)); evicted > 0 {
		slog.Debug("Seen identities evicted", "feed", feedConfig.Name, "evicted", evicted)
	}

	candidates = e.filterer.Run(candidates, feedConfig)

	result := make([]events.Event, 0, len(candidates))
	for _, entry := range candidates {
		if entry.IsFiltered {
			slog.Debug("Entry filtered", "feed", feedConfig.Name, "id", entry.Identity(), "reason", entry.FilterReason)
			continue
		}
		result = append(result, e.newEvent(feedConfig, entry, now))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result
}

func (e *Extractor) newEvent(feedConfig *Config, entry Entry, now time.Time) events.Event {
	product := cmp.Or(feedConfig.Settings.Product, e.product)

	return events.Event{
		Feed:      feedConfig.Name,
		ID:        entry.Identity(),
		Link:      entry.Link,
		Title:     entry.Title,
		Timestamp: e.timestamp(entry, now).In(e.location),
		Product:   product + " - " + ExtractComponents(entry.Summary),
		Status:    ExtractStatus(entry.Summary),
	}
}

func (e *Extractor) timestamp(entry Entry, now time.Time) time.Time {
	if entry.PublishedAt != nil {
		return *entry.PublishedAt
	}
	if entry.UpdatedAt != nil {
		return *entry.UpdatedAt
	}
	return now
}

func (e *Extractor) stateLocked(feedName string) *extractionState {
	state, ok := e.states[feedName]
	if !ok {
		state = &extractionState{seen: NewSeenSet(e.seenLimit)}
		e.states[feedName] = state
	}
	return state
}

func (e *Extractor) Status(feedName string) ExtractionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.states[feedName]
	if !ok {
		return ExtractionStatus{}
	}
	return ExtractionStatus{Seen: state.seen.Len(), Initialized: state.initialized}
}
