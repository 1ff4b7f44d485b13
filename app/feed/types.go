package feed

import (
	"time"
)

// Feed processing types

type Entry struct {
	ID          string
	Link        string
	Title       string
	Summary     string
	Categories  []string
	PublishedAt *time.Time
	UpdatedAt   *time.Time

	IsFiltered   bool
	FilterReason string
}

// Identity is the stable deduplication key: the entry id, falling back to its link.
func (e Entry) Identity() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Link
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension) or from the URL host
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled bool   `yaml:"enabled"`
	Timeout int    `yaml:"timeout"` // seconds, 0 falls back to the global fetch timeout
	Product string `yaml:"product"` // product label prefix, empty falls back to the global one
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
