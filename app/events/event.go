package events

import (
	"fmt"
	"time"
)

// TimestampLayout is the fixed display format for event timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Event is one processed status entry. It is never mutated after creation.
type Event struct {
	Feed      string
	ID        string
	Link      string
	Title     string
	Timestamp time.Time
	Product   string
	Status    string
}

// FormattedTimestamp renders the timestamp in the event's own location.
func (e Event) FormattedTimestamp() string {
	return e.Timestamp.Format(TimestampLayout)
}

func (e Event) Formatted() string {
	return fmt.Sprintf("[%s] Product: %s\nStatus: %s", e.FormattedTimestamp(), e.Product, e.Status)
}
