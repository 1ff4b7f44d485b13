package feed

import (
	"fmt"
	"strings"
)

// filterFields maps a filter field name to the part of a status entry it is
// matched against. "status" and "components" use the same cleaned values
// the emitted event carries.
var filterFields = map[string]func(Entry) string{
	"title":      func(e Entry) string { return e.Title },
	"status":     func(e Entry) string { return ExtractStatus(e.Summary) },
	"components": func(e Entry) string { return ExtractComponents(e.Summary) },
	"link":       func(e Entry) string { return e.Link },
}

func isFilterField(field string) bool {
	_, ok := filterFields[field]
	return ok
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run marks the entries a source's filters reject. Entries are returned in
// the same order, filtered or not.
func (f *Filterer) Run(entries []Entry, feedConfig *Config) []Entry {
	if len(feedConfig.Filters) == 0 {
		return entries
	}

	marked := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		entry.FilterReason = f.rejectReason(entry, feedConfig.Filters)
		entry.IsFiltered = entry.FilterReason != ""
		marked = append(marked, entry)
	}

	return marked
}

// rejectReason returns why the first failing filter rejects the entry, or ""
// when every filter lets it through.
func (f *Filterer) rejectReason(entry Entry, filters []ConfigFilter) string {
	for _, filter := range filters {
		value := strings.ToLower(f.fieldValue(entry, filter.Field))

		if term, ok := firstContained(value, filter.Excludes); ok {
			return fmt.Sprintf("%s mentions excluded term '%s'", filter.Field, term)
		}
		if len(filter.Includes) == 0 {
			continue
		}
		if _, ok := firstContained(value, filter.Includes); !ok {
			return fmt.Sprintf("%s mentions none of %v", filter.Field, filter.Includes)
		}
	}
	return ""
}

func (f *Filterer) fieldValue(entry Entry, field string) string {
	if value, ok := filterFields[field]; ok {
		return value(entry)
	}
	return ""
}

// firstContained reports the first term found in the lowercased value.
func firstContained(value string, terms []string) (string, bool) {
	for _, term := range terms {
		if strings.Contains(value, strings.ToLower(term)) {
			return term, true
		}
	}
	return "", false
}
