package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/liangyou/sdkswitch/internal/platform"
	"github.com/liangyou/sdkswitch/pkg/models"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	return NewManager(platform.NewPaths(), WithConfigDir(dir)), dir
}

func TestLoadReturnsDefaultsWhenFileMissing(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager(t)
	cfg, err := manager.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Link != "~/" || cfg.CacheDir != "" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	manager, dir := newTestManager(t)
	cfg := models.Config{Link: "/opt/links", CacheDir: "/opt/sdks"}

	if err := manager.Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sdkswitch.yaml")); err != nil {
		t.Fatalf("config file missing: %v", err)
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != cfg {
		t.Fatalf("round trip mismatch: %#v", loaded)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	manager, dir := newTestManager(t)
	if err := os.WriteFile(filepath.Join(dir, "sdkswitch.yaml"), []byte("link: [broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := manager.Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCacheDirDefaultsToConfigDir(t *testing.T) {
	t.Parallel()

	manager, dir := newTestManager(t)
	cache, err := manager.CacheDir(models.DefaultConfig())
	if err != nil {
		t.Fatalf("CacheDir failed: %v", err)
	}
	if cache != dir {
		t.Fatalf("unexpected cache dir: %s", cache)
	}
}

func TestLinkPathAppendsPayloadName(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager(t)
	link, err := manager.LinkPath(models.Config{Link: "/opt/links"})
	if err != nil {
		t.Fatalf("LinkPath failed: %v", err)
	}
	if link != filepath.Join("/opt/links", "google_appengine") {
		t.Fatalf("unexpected link path: %s", link)
	}
}
