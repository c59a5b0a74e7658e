package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/navbar/internal/httpserver/deps"
)

var timeNow = time.Now

type componentStatus struct {
	OK             bool   `json:"ok"`
	EntriesLoaded  *int   `json:"entries_loaded,omitempty"`
	LastStart      string `json:"last_start,omitempty"`
	PagesRendered  *int64 `json:"pages_rendered,omitempty"`
	HeaderSelector string `json:"header_selector,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Error          string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nav := d.Renderer.Current()
		started, lastStart := d.Renderer.Started()

		entries := nav.Len()
		lastStartStr := "never"
		if started {
			lastStartStr = lastStart.Format("2006-01-02 15:04:05")
		}

		components := map[string]componentStatus{
			"navigation": {
				OK:            started,
				EntriesLoaded: &entries,
				LastStart:     lastStartStr,
			},
			"redis": checkRedis(r.Context(), d),
		}

		response := infraResponse{
			Status:     determineStatus(components),
			Components: components,
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func determineStatus(components map[string]componentStatus) string {
	if nav, ok := components["navigation"]; ok && !nav.OK {
		return "starting" // no start event seen yet
	}
	if redis, ok := components["redis"]; ok && !redis.OK && redis.Mode != "disabled" {
		return "degraded" // snapshots and counters unavailable
	}
	return "ok"
}

func checkRedis(parent context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{
			OK:    false,
			Mode:  "degraded",
			Error: err.Error(),
		}
	}

	status := componentStatus{OK: true, Mode: "enabled"}
	if stats, err := d.Store.RenderStats(ctx); err == nil {
		var total int64
		for _, n := range stats {
			total += n
		}
		status.PagesRendered = &total
	}
	return status
}
