package feed

import "testing"

func TestExtractComponents(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		want    string
	}{
		{
			name:    "two components",
			summary: `<ul><li>ChatGPT (https://status.openai.com/components/1)</li><li>API (https://status.openai.com/components/2)</li></ul>`,
			want:    "ChatGPT, API",
		},
		{
			name:    "whitespace before parenthesis",
			summary: `<li>Sora   (Degraded performance)</li>`,
			want:    "Sora",
		},
		{
			name:    "list items without parenthesis",
			summary: `<ul><li>ChatGPT</li><li>API</li></ul>`,
			want:    DefaultComponent,
		},
		{
			name:    "no markup",
			summary: "We are investigating elevated error rates.",
			want:    DefaultComponent,
		},
		{
			name:    "empty",
			summary: "",
			want:    DefaultComponent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractComponents(tt.summary); got != tt.want {
				t.Errorf("ExtractComponents(%q) = %q, want %q", tt.summary, got, tt.want)
			}
		})
	}
}

func TestExtractStatus(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		want    string
	}{
		{
			name:    "plain text",
			summary: "Status: We are investigating. Affected components: API. All impacted services have recovered.",
			want:    "We are investigating.",
		},
		{
			name:    "markup and entities",
			summary: "<p><b>Status:</b> Resolved</p>\n<p>Users saw &quot;500&quot; errors &amp; timeouts.</p>\n<p><b>Affected components</b></p><ul><li>API (Operational)</li></ul>",
			want:    `Resolved Users saw "500" errors & timeouts.`,
		},
		{
			name:    "case insensitive cut points",
			summary: "Status: Monitoring\n\n  A fix has been deployed. ALL IMPACTED SERVICES are back. AFFECTED COMPONENTS none",
			want:    "Monitoring A fix has been deployed.",
		},
		{
			name:    "escaped markup is stripped after unescape",
			summary: "&lt;p&gt;Status: Degraded&lt;/p&gt;",
			want:    "Degraded",
		},
		{
			name:    "non-breaking spaces collapse",
			summary: "Status:&nbsp;&nbsp;Investigating&nbsp; latency",
			want:    "Investigating latency",
		},
		{
			name:    "decomposed characters are composed",
			summary: "Status: Cafe\u0301 integration degraded",
			want:    "Caf\u00e9 integration degraded",
		},
		{
			name:    "empty",
			summary: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractStatus(tt.summary); got != tt.want {
				t.Errorf("ExtractStatus(%q) = %q, want %q", tt.summary, got, tt.want)
			}
		})
	}
}
