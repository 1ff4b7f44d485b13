package api

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/status-comb/app/feed"
	"github.com/lysyi3m/status-comb/app/tasks"
)

const livePollInterval = 5 * time.Second

//go:embed templates/live.html
var templatesFS embed.FS

var liveTemplate = template.Must(template.ParseFS(templatesFS, "templates/live.html"))

func NewHandler(serviceName, version string, buffer EventSource, configCache *feed.ConfigCache,
	fetcher *feed.Fetcher, extractor *feed.Extractor, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		serviceName: serviceName,
		version:     version,
		buffer:      buffer,
		generator:   feed.NewGenerator(),
		configCache: configCache,
		fetcher:     fetcher,
		extractor:   extractor,
		scheduler:   scheduler,
	}
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s is running", h.serviceName)})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) GetEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.buffer.Snapshot()})
}

func (h *Handler) LivePage(c *gin.Context) {
	c.HTML(http.StatusOK, "live.html", gin.H{
		"Title":      h.serviceName,
		"EventsPath": "/events",
		"PollMillis": livePollInterval.Milliseconds(),
	})
}

func (h *Handler) GetEventsRSS(c *gin.Context) {
	items := h.buffer.Events()

	baseURL := requestBaseURL(c.Request)
	channel := feed.Channel{
		Title:     h.serviceName,
		Link:      baseURL + "/live",
		SelfLink:  baseURL + "/events.rss",
		Generator: fmt.Sprintf("%s %s", h.serviceName, h.version),
	}

	rss, err := h.generator.Run(channel, items)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := h.scheduler.GetStats()

	c.JSON(http.StatusOK, gin.H{
		"service":   h.serviceName,
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"feeds":     h.configCache.GetConfigCount(),
		"buffer": gin.H{
			"size":     h.buffer.Len(),
			"capacity": h.buffer.Capacity(),
		},
		"scheduler": gin.H{
			"running":             stats.Running,
			"cycles":              stats.Cycles,
			"fetched":             stats.Fetched,
			"not_modified":        stats.NotModified,
			"failed":              stats.Failed,
			"events":              stats.Events,
			"last_cycle_at":       stats.LastCycleAt,
			"last_cycle_duration": stats.LastCycleDuration.String(),
		},
	})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	feeds := make([]FeedStatus, 0, len(configs))
	for _, name := range names {
		feeds = append(feeds, h.feedStatus(configs[name]))
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) GetFeedStatus(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed name parameter"})
		return
	}

	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Debug("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feed":    h.feedStatus(feedConfig),
		"filters": feedConfig.Filters,
	})
}

func (h *Handler) feedStatus(feedConfig *feed.Config) FeedStatus {
	fetchState := h.fetcher.State(feedConfig.Name)
	extraction := h.extractor.Status(feedConfig.Name)

	return FeedStatus{
		Name:          feedConfig.Name,
		URL:           feedConfig.URL,
		Enabled:       feedConfig.Settings.Enabled,
		Product:       feedConfig.Settings.Product,
		Filters:       len(feedConfig.Filters),
		ETag:          fetchState.ETag,
		LastModified:  fetchState.LastModified,
		LastCheckedAt: fetchState.LastCheckedAt,
		LastStatus:    fetchState.LastStatus,
		LastError:     fetchState.LastError,
		Seen:          extraction.Seen,
		Initialized:   extraction.Initialized,
	}
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host
}
