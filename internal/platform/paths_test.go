package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestPaths(goos, home string) *Paths {
	p := NewPaths()
	p.goos = func() string { return goos }
	p.homeFn = func() (string, error) { return home, nil }
	return p
}

func TestConfigDirDarwin(t *testing.T) {
	t.Parallel()

	p := newTestPaths("darwin", "/home/foo")
	dir, err := p.ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir failed: %v", err)
	}
	if dir != filepath.Join("/home/foo", "Library", "Application Support", "sdkswitch") {
		t.Fatalf("unexpected config dir: %s", dir)
	}
}

func TestConfigDirLinux(t *testing.T) {
	t.Parallel()

	p := newTestPaths("linux", "/home/foo")
	dir, err := p.ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir failed: %v", err)
	}
	if dir != "/home/foo/.sdkswitch" {
		t.Fatalf("unexpected config dir: %s", dir)
	}
}

func TestExpandHome(t *testing.T) {
	t.Parallel()

	p := newTestPaths("linux", "/home/foo")

	dir, err := p.ExpandHome("~/sdks")
	if err != nil {
		t.Fatalf("ExpandHome failed: %v", err)
	}
	if dir != "/home/foo/sdks" {
		t.Fatalf("unexpected expansion: %s", dir)
	}

	bare, err := p.ExpandHome("~")
	if err != nil {
		t.Fatalf("ExpandHome failed: %v", err)
	}
	if bare != "/home/foo" {
		t.Fatalf("unexpected expansion: %s", bare)
	}
}

func TestValidateCreatesCacheDir(t *testing.T) {
	t.Parallel()

	p := NewPaths()
	dir := filepath.Join(t.TempDir(), "cache")
	if err := p.Validate(dir); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("cache dir not created: %v", err)
	}
}

func TestValidateRejectsFilePath(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(filePath, []byte("content"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	p := NewPaths()
	if err := p.Validate(filePath); err == nil {
		t.Fatal("expected error due to invalid directory")
	}
}
