package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/navbar/internal/dom"
	"github.com/MrSnakeDoc/navbar/internal/domain"
	"github.com/MrSnakeDoc/navbar/internal/host"
	"github.com/MrSnakeDoc/navbar/internal/httpserver/deps"
	"github.com/MrSnakeDoc/navbar/internal/logger"
	"github.com/MrSnakeDoc/navbar/internal/navigation"
	redisstore "github.com/MrSnakeDoc/navbar/internal/store/redis"
)

const bookPage = `<!DOCTYPE html><html><head><title>Intro</title></head><body>` +
	`<div class="book"><div class="book-header"><h1>Intro</h1></div><section>Hello</section></div>` +
	`</body></html>`

type testEnv struct {
	handler  http.Handler
	bus      *host.Bus
	renderer *navigation.Renderer
	store    *redisstore.Store
	trigger  chan struct{}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	site := t.TempDir()
	writeFile(t, filepath.Join(site, "index.html"), bookPage)
	writeFile(t, filepath.Join(site, "guide", "setup.html"), bookPage)
	writeFile(t, filepath.Join(site, "manual", "index.html"), bookPage)
	writeFile(t, filepath.Join(site, "plain.html"), `<html><body><p>no header</p></body></html>`)
	writeFile(t, filepath.Join(site, "gitbook", "style.css"), `.book-header{color:red}`)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := redisstore.NewStore(client)

	log := logger.NewNop()
	bus := host.NewBus(log)
	renderer := navigation.NewRenderer(dom.MustCompileSelector(navigation.DefaultHeaderSelector), log)
	renderer.Attach(bus)

	trigger := make(chan struct{}, 1)
	d := deps.Deps{
		Logger:          log,
		StartTime:       time.Now(),
		Version:         "test",
		TimeNow:         time.Now,
		SiteDir:         site,
		Bus:             bus,
		Renderer:        renderer,
		RedisClient:     client,
		Store:           store,
		ReloadTrigger:   trigger,
		RateLimitBurst:  100,
		RateLimitPerMin: 600,
	}

	return &testEnv{
		handler:  NewRouter(log, d),
		bus:      bus,
		renderer: renderer,
		store:    store,
		trigger:  trigger,
	}
}

func (e *testEnv) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) start(entries ...domain.NavigationEntry) {
	e.bus.EmitStart(domain.HostConfig{
		Navigation: &domain.NavigationConfig{NavigatorList: entries},
	})
}

func TestReadyzBeforeAndAfterStart(t *testing.T) {
	env := setupServer(t)

	if rec := env.do(http.MethodGet, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before start = %d, want 503", rec.Code)
	}

	env.start()

	rec := env.do(http.MethodGet, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz after start = %d, want 200", rec.Code)
	}
	var body struct {
		Ready bool `json:"ready"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !body.Ready {
		t.Error("ready = false, want true")
	}
}

func TestHealthz(t *testing.T) {
	env := setupServer(t)

	rec := env.do(http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestPageGetsNavigation(t *testing.T) {
	env := setupServer(t)
	env.start(
		domain.NavigationEntry{Name: "Home", URL: "/"},
		domain.NavigationEntry{Name: "Setup", URL: "/guide/setup.html"},
	)

	for _, target := range []string{"/", "/index.html", "/guide/setup.html"} {
		t.Run(target, func(t *testing.T) {
			rec := env.do(http.MethodGet, target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}

			page, err := dom.Parse(rec.Body)
			if err != nil {
				t.Fatal(err)
			}
			header := page.Find(dom.MustCompileSelector(".book-header"))
			if header == nil {
				t.Fatal("header missing from rendered page")
			}
			list := header.NextSibling
			if list == nil || !dom.HasClass(list, navigation.ListClass) {
				t.Fatalf("expected nav list right after header")
			}
			items := dom.ElementChildren(list)
			if len(items) != 2 {
				t.Fatalf("got %d items, want 2", len(items))
			}
			if got := dom.TextContent(items[1]); got != "Setup" {
				t.Errorf("second item = %q, want Setup", got)
			}
		})
	}

	stats, err := env.store.RenderStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats["/index.html"] != 2 || stats["/guide/setup.html"] != 1 {
		t.Errorf("render stats = %v", stats)
	}
}

func TestDirectoryRedirectsToSlash(t *testing.T) {
	env := setupServer(t)
	env.start(domain.NavigationEntry{Name: "Home", URL: "/"})

	tests := []struct {
		target   string
		status   int
		location string
	}{
		{target: "/manual", status: http.StatusMovedPermanently, location: "/manual/"},
		{target: "/manual?lang=fr", status: http.StatusMovedPermanently, location: "/manual/?lang=fr"},
		{target: "/manual/", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
		})
	}

	stats, err := env.store.RenderStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats["/manual/index.html"] != 1 {
		t.Errorf("only the slash form should render, stats = %v", stats)
	}
}

func TestHeadDoesNotCountRender(t *testing.T) {
	env := setupServer(t)
	env.start()

	rec := env.do(http.MethodHead, "/guide/setup.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD body has %d bytes, want 0", rec.Body.Len())
	}

	stats, err := env.store.RenderStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := stats["/guide/setup.html"]; ok {
		t.Errorf("HEAD counted %d renders, want none", n)
	}
}

func TestPageWithoutHeader(t *testing.T) {
	env := setupServer(t)
	env.start()

	if rec := env.do(http.MethodGet, "/plain.html"); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestStaticFilesUntouched(t *testing.T) {
	env := setupServer(t)
	env.start(domain.NavigationEntry{Name: "Home", URL: "/"})

	rec := env.do(http.MethodGet, "/gitbook/style.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != `.book-header{color:red}` {
		t.Errorf("body = %q", got)
	}
}

func TestPageNotFound(t *testing.T) {
	env := setupServer(t)

	for _, target := range []string{"/missing.html", "/guide/", "/../etc/passwd"} {
		if rec := env.do(http.MethodGet, target); rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, rec.Code)
		}
	}
}

func TestReload(t *testing.T) {
	env := setupServer(t)

	if rec := env.do(http.MethodPost, "/reload"); rec.Code != http.StatusAccepted {
		t.Fatalf("first reload = %d, want 202", rec.Code)
	}
	if rec := env.do(http.MethodPost, "/reload"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("pending reload = %d, want 429", rec.Code)
	}

	<-env.trigger
	if rec := env.do(http.MethodPost, "/reload"); rec.Code != http.StatusAccepted {
		t.Fatalf("reload after drain = %d, want 202", rec.Code)
	}
}

func TestInfra(t *testing.T) {
	env := setupServer(t)
	env.start(domain.NavigationEntry{Name: "Home", URL: "/"})
	env.do(http.MethodGet, "/")

	rec := env.do(http.MethodGet, "/infra")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Status     string `json:"status"`
		Components map[string]struct {
			OK            bool   `json:"ok"`
			EntriesLoaded *int   `json:"entries_loaded"`
			PagesRendered *int64 `json:"pages_rendered"`
		} `json:"components"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	nav := body.Components["navigation"]
	if nav.EntriesLoaded == nil || *nav.EntriesLoaded != 1 {
		t.Errorf("entries_loaded = %v, want 1", nav.EntriesLoaded)
	}
	rd := body.Components["redis"]
	if !rd.OK || rd.PagesRendered == nil || *rd.PagesRendered != 1 {
		t.Errorf("redis component = %+v", rd)
	}
}
