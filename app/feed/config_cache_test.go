package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "openai.yml", `
url: "https://status.openai.com/history.atom"

settings:
  enabled: true
  timeout: 10
  product: "OpenAI Platform"

filters:
  - field: "status"
    excludes:
      - "scheduled maintenance"
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 feedConfig, got %d", configCache.GetConfigCount())
	}

	feedConfig, err := configCache.GetConfig("openai")
	if err != nil {
		t.Fatal(err)
	}

	if feedConfig.Name != "openai" {
		t.Errorf("Expected name 'openai', got '%s'", feedConfig.Name)
	}
	if feedConfig.URL != "https://status.openai.com/history.atom" {
		t.Errorf("Expected URL 'https://status.openai.com/history.atom', got '%s'", feedConfig.URL)
	}
	if !feedConfig.Settings.Enabled {
		t.Error("Expected feed to be enabled")
	}
	if feedConfig.Settings.Timeout != 10 {
		t.Errorf("Expected timeout 10, got %d", feedConfig.Settings.Timeout)
	}
	if feedConfig.Settings.Product != "OpenAI Platform" {
		t.Errorf("Expected product 'OpenAI Platform', got '%s'", feedConfig.Settings.Product)
	}
	if len(feedConfig.Filters) != 1 {
		t.Errorf("Expected 1 filter, got %d", len(feedConfig.Filters))
	}
}

func TestConfigCacheInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{
			name:    "missing url",
			content: "settings:\n  enabled: true\n",
			errPart: "feed URL is required",
		},
		{
			name:    "relative url",
			content: "url: \"/history.atom\"\n",
			errPart: "absolute http(s) URL",
		},
		{
			name:    "negative timeout",
			content: "url: \"https://example.com/feed\"\nsettings:\n  timeout: -1\n",
			errPart: "timeout must be non-negative",
		},
		{
			name:    "unknown filter field",
			content: "url: \"https://example.com/feed\"\nfilters:\n  - field: \"authors\"\n    includes: [\"x\"]\n",
			errPart: "invalid filter field",
		},
		{
			name:    "filter without rules",
			content: "url: \"https://example.com/feed\"\nfilters:\n  - field: \"title\"\n",
			errPart: "at least one include or exclude rule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeConfig(t, tempDir, "invalid.yml", tt.content)

			configCache := NewConfigCache(tempDir)
			err := configCache.Run()
			if err == nil {
				t.Fatal("Expected error for invalid configuration")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Expected error containing '%s', got: %v", tt.errPart, err)
			}
		})
	}
}

func TestConfigCacheEmptyOrMissingDirectory(t *testing.T) {
	for _, dir := range []string{"", t.TempDir(), filepath.Join(t.TempDir(), "missing")} {
		configCache := NewConfigCache(dir)
		if err := configCache.Run(); err != nil {
			t.Fatalf("Expected no error for %q, got: %v", dir, err)
		}
		if configCache.GetConfigCount() != 0 {
			t.Errorf("Expected 0 configs for %q, got %d", dir, configCache.GetConfigCount())
		}
	}
}

func TestConfigCacheAddURL(t *testing.T) {
	configCache := NewConfigCache("")

	first, err := configCache.AddURL("https://status.openai.com/history.atom")
	if err != nil {
		t.Fatal(err)
	}
	if first.Name != "status-openai-com" {
		t.Errorf("Expected name 'status-openai-com', got '%s'", first.Name)
	}
	if !first.Settings.Enabled {
		t.Error("Expected URL source to be enabled")
	}

	second, err := configCache.AddURL("https://status.openai.com/history.rss")
	if err != nil {
		t.Fatal(err)
	}
	if second.Name != "status-openai-com-2" {
		t.Errorf("Expected name 'status-openai-com-2', got '%s'", second.Name)
	}

	again, err := configCache.AddURL(" https://status.openai.com/history.atom ")
	if err != nil {
		t.Fatal(err)
	}
	if again != first {
		t.Error("Expected re-adding the same URL to return the existing source")
	}

	if _, err := configCache.AddURL("not a url"); err == nil {
		t.Error("Expected error for URL without host")
	}

	if configCache.GetConfigCount() != 2 {
		t.Errorf("Expected 2 configs, got %d", configCache.GetConfigCount())
	}
}

func TestConfigCacheGetEnabledConfigsSorted(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "zeta.yml", "url: \"https://zeta.example.com/feed\"\nsettings:\n  enabled: true\n")
	writeConfig(t, tempDir, "alpha.yml", "url: \"https://alpha.example.com/feed\"\nsettings:\n  enabled: true\n")
	writeConfig(t, tempDir, "off.yml", "url: \"https://off.example.com/feed\"\nsettings:\n  enabled: false\n")

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	enabled := configCache.GetEnabledConfigs()
	if len(enabled) != 2 {
		t.Fatalf("Expected 2 enabled configs, got %d", len(enabled))
	}
	if enabled[0].Name != "alpha" || enabled[1].Name != "zeta" {
		t.Errorf("Expected [alpha zeta], got [%s %s]", enabled[0].Name, enabled[1].Name)
	}

	if len(configCache.GetConfigs()) != 3 {
		t.Errorf("Expected 3 configs in total, got %d", len(configCache.GetConfigs()))
	}
}

func TestConfigCacheGetConfigEmptyCache(t *testing.T) {
	configCache := NewConfigCache("")

	_, err := configCache.GetConfig("missing")
	if err == nil {
		t.Error("Expected error for missing config")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected 'not found' error, got: %v", err)
	}
}
