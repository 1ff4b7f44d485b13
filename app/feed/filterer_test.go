package feed

import (
	"strings"
	"testing"
)

const maintenanceSummary = `<p><strong>Status: Scheduled maintenance</strong></p>
<p>Affected components</p><ul><li>Fine-tuning (Under maintenance)</li></ul>`

const outageSummary = `<p><strong>Status: Investigating</strong> elevated error rates</p>
<p>Affected components</p><ul><li>ChatGPT (Partial outage)</li><li>API (Degraded performance)</li></ul>`

func TestFilterer_NoFilters(t *testing.T) {
	filterer := NewFilterer()

	entries := []Entry{
		{Title: "Elevated error rates", Summary: outageSummary},
		{Title: "Scheduled maintenance", Summary: maintenanceSummary},
	}

	result := filterer.Run(entries, &Config{})

	if len(result) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(result))
	}
	for i, entry := range result {
		if entry.IsFiltered {
			t.Errorf("Entry %d should not be filtered when no filters are configured", i)
		}
	}
}

func TestFilterer_StatusExclude(t *testing.T) {
	filterer := NewFilterer()

	entries := []Entry{
		{Title: "Fine-tuning maintenance", Summary: maintenanceSummary},
		{Title: "Elevated error rates", Summary: outageSummary},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "status", Excludes: []string{"SCHEDULED MAINTENANCE"}},
		},
	}

	result := filterer.Run(entries, feedConfig)

	if !result[0].IsFiltered {
		t.Error("Maintenance entry should be filtered")
	}
	if !strings.Contains(result[0].FilterReason, "SCHEDULED MAINTENANCE") {
		t.Errorf("Expected reason to name the excluded term, got: %s", result[0].FilterReason)
	}
	if result[1].IsFiltered {
		t.Errorf("Outage entry should not be filtered, got reason: %s", result[1].FilterReason)
	}
}

func TestFilterer_StatusIgnoresComponentMarkup(t *testing.T) {
	filterer := NewFilterer()

	entries := []Entry{{Summary: outageSummary}}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "status", Excludes: []string{"chatgpt"}},
		},
	}

	if result := filterer.Run(entries, feedConfig); result[0].IsFiltered {
		t.Errorf("Component names are not part of the status, got reason: %s", result[0].FilterReason)
	}
}

func TestFilterer_ComponentsInclude(t *testing.T) {
	filterer := NewFilterer()

	entries := []Entry{
		{Summary: maintenanceSummary},
		{Summary: outageSummary},
		{Summary: "Status: Resolved"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "components", Includes: []string{"api", "chatgpt"}},
		},
	}

	result := filterer.Run(entries, feedConfig)

	if !result[0].IsFiltered {
		t.Error("Fine-tuning entry should be filtered, it lists no included component")
	}
	if result[1].IsFiltered {
		t.Errorf("API entry should pass, got reason: %s", result[1].FilterReason)
	}
	if !result[2].IsFiltered {
		t.Error("Entry without components falls back to General and should be filtered")
	}
}

func TestFilterer_TitleAndLink(t *testing.T) {
	filterer := NewFilterer()

	entries := []Entry{
		{Title: "ChatGPT unavailable", Link: "https://status.openai.com/incidents/1"},
		{Title: "ChatGPT unavailable", Link: "https://mirror.example.com/incidents/1"},
		{Title: "Sora degraded", Link: "https://status.openai.com/incidents/2"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "link", Includes: []string{"status.openai.com"}},
			{Field: "title", Excludes: []string{"sora"}},
		},
	}

	result := filterer.Run(entries, feedConfig)

	if result[0].IsFiltered {
		t.Errorf("First entry should pass, got reason: %s", result[0].FilterReason)
	}
	if !result[1].IsFiltered || !result[2].IsFiltered {
		t.Error("Second and third entries should be filtered")
	}
}

func TestFilterer_FieldValue(t *testing.T) {
	filterer := NewFilterer()
	entry := Entry{
		Title:   "Elevated error rates",
		Summary: outageSummary,
		Link:    "https://status.openai.com/incidents/1",
	}

	tests := map[string]string{
		"title":      "Elevated error rates",
		"status":     "Investigating elevated error rates",
		"components": "ChatGPT, API",
		"link":       "https://status.openai.com/incidents/1",
		"summary":    "",
	}

	for field, expected := range tests {
		if got := filterer.fieldValue(entry, field); got != expected {
			t.Errorf("Field %s: expected '%s', got '%s'", field, expected, got)
		}
	}
}
