package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/navbar/internal/domain"
)

func setupStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewStore(client)
}

func TestNavigationSnapshot(t *testing.T) {
	mr, store := setupStore(t)
	ctx := context.Background()

	snap, err := store.LoadNavigation(ctx)
	if err != nil {
		t.Fatalf("LoadNavigation() on empty store error = %v", err)
	}
	if snap != nil {
		t.Fatalf("LoadNavigation() on empty store = %+v, want nil", snap)
	}

	cfg := domain.NavigationConfig{NavigatorList: []domain.NavigationEntry{
		{Name: "Home", URL: "/"},
		{Name: "Docs", URL: "/docs"},
	}}
	if err := store.SaveNavigation(ctx, cfg); err != nil {
		t.Fatalf("SaveNavigation() error = %v", err)
	}

	if ttl := mr.TTL(KeyNavigation); ttl != DefaultSnapshotTTL {
		t.Errorf("snapshot TTL = %v, want %v", ttl, DefaultSnapshotTTL)
	}

	snap, err = store.LoadNavigation(ctx)
	if err != nil {
		t.Fatalf("LoadNavigation() error = %v", err)
	}
	if snap == nil {
		t.Fatal("LoadNavigation() = nil after save")
	}
	if diff := cmp.Diff(cfg, snap.Config); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if snap.UpdatedAt.IsZero() {
		t.Error("snapshot UpdatedAt not recorded")
	}

	if err := store.DeleteNavigation(ctx); err != nil {
		t.Fatalf("DeleteNavigation() error = %v", err)
	}
	if mr.Exists(KeyNavigation) {
		t.Error("snapshot still present after delete")
	}
}

func TestLoadNavigationCorrupt(t *testing.T) {
	mr, store := setupStore(t)
	if err := mr.Set(KeyNavigation, "{not json"); err != nil {
		t.Fatalf("failed to seed key: %v", err)
	}

	_, err := store.LoadNavigation(context.Background())
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("LoadNavigation() with corrupt data error = %v, want ErrCorruptSnapshot", err)
	}
}

func TestRenderCounters(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	for _, p := range []string{"/index.html", "/docs/intro.html", "/index.html"} {
		if _, err := store.IncrementRenders(ctx, p); err != nil {
			t.Fatalf("IncrementRenders(%q) error = %v", p, err)
		}
	}

	stats, err := store.RenderStats(ctx)
	if err != nil {
		t.Fatalf("RenderStats() error = %v", err)
	}

	want := map[string]int64{"/index.html": 2, "/docs/intro.html": 1}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPagePath(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: RendersKey("/a.html"), want: "/a.html"},
		{key: KeyPrefixRenders, wantErr: true},
		{key: "other:key", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ExtractPagePath(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractPagePath(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractPagePath(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
