package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/liangyou/sdkswitch/pkg/models"
)

// 工具本身不加锁，同一缓存目录上的并发调用不在保障范围内，
// 因此这里只覆盖单进程串行执行的行为。

type fakeStore struct {
	sdks      []models.InstalledSDK
	activeErr error
}

func (f *fakeStore) List() ([]models.InstalledSDK, error) {
	return f.sdks, nil
}

func (f *fakeStore) Find(partial string) (models.InstalledSDK, error) {
	versions := make([]string, 0, len(f.sdks))
	for _, sdk := range f.sdks {
		versions = append(versions, sdk.Version)
	}
	version, err := models.MatchPartial(versions, partial)
	if err != nil {
		return models.InstalledSDK{}, err
	}
	for _, sdk := range f.sdks {
		if sdk.Version == version {
			return sdk, nil
		}
	}
	return models.InstalledSDK{}, models.ErrNotFound
}

func (f *fakeStore) Active() (models.InstalledSDK, error) {
	if f.activeErr != nil {
		return models.InstalledSDK{}, f.activeErr
	}
	for _, sdk := range f.sdks {
		if sdk.IsActive {
			return sdk, nil
		}
	}
	return models.InstalledSDK{}, models.ErrNoActiveVersion
}

type fakeInstaller struct {
	installed []string
	err       error
}

func (f *fakeInstaller) Install(ctx context.Context, version string) (models.InstalledSDK, error) {
	if f.err != nil {
		return models.InstalledSDK{}, f.err
	}
	f.installed = append(f.installed, version)
	return models.InstalledSDK{Version: version, Path: "/sdks/" + version}, nil
}

type fakeRemover struct {
	removed []string
	err     error
}

func (f *fakeRemover) Remove(partial string) (models.InstalledSDK, error) {
	if f.err != nil {
		return models.InstalledSDK{}, f.err
	}
	f.removed = append(f.removed, partial)
	return models.InstalledSDK{Version: partial, Path: "/sdks/" + partial}, nil
}

type fakeActivator struct {
	activated []string
	linkDirs  []string
	linkPath  string
	err       error
}

func (f *fakeActivator) Activate(sdk models.InstalledSDK) error {
	if f.err != nil {
		return f.err
	}
	f.activated = append(f.activated, sdk.Version)
	return nil
}

func (f *fakeActivator) SetLinkDir(dir string) error {
	if f.err != nil {
		return f.err
	}
	f.linkDirs = append(f.linkDirs, dir)
	return nil
}

func (f *fakeActivator) LinkPath() string {
	if f.linkPath == "" {
		return "/home/foo/google_appengine"
	}
	return f.linkPath
}

type fakeChecker struct {
	latest string
	err    error
}

func (f *fakeChecker) LatestVersion(ctx context.Context) (string, error) {
	return f.latest, f.err
}

type fixture struct {
	app       *App
	out       *bytes.Buffer
	store     *fakeStore
	installer *fakeInstaller
	remover   *fakeRemover
	activator *fakeActivator
	checker   *fakeChecker
}

func newFixture(sdks ...models.InstalledSDK) *fixture {
	f := &fixture{
		out:       &bytes.Buffer{},
		store:     &fakeStore{sdks: sdks},
		installer: &fakeInstaller{},
		remover:   &fakeRemover{},
		activator: &fakeActivator{},
		checker:   &fakeChecker{latest: "1.9.60"},
	}
	f.app = NewApp(f.out, Services{
		Store:     f.store,
		Installer: f.installer,
		Remover:   f.remover,
		Activator: f.activator,
		Checker:   f.checker,
	}, "/home/foo/.sdkswitch/sdkswitch.yaml", "/home/foo/.sdkswitch", "test")
	return f
}

func TestAppSummary(t *testing.T) {
	t.Parallel()

	f := newFixture(
		models.InstalledSDK{Version: "1.9.50", Path: "/sdks/1.9.50"},
		models.InstalledSDK{Version: "1.9.57", Path: "/sdks/1.9.57", IsActive: true},
	)

	if err := f.app.Run([]string{"summary"}); err != nil {
		t.Fatalf("run summary: %v", err)
	}

	output := f.out.String()
	for _, want := range []string{
		"Reading preferences from /home/foo/.sdkswitch/sdkswitch.yaml",
		"2 SDKs in /home/foo/.sdkswitch",
		"SDK symlink is /home/foo/google_appengine",
		"1.9.50",
		"1.9.57 *",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("missing %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "1.9.50 *") {
		t.Fatalf("inactive version marked active:\n%s", output)
	}
}

func TestAppSummaryReportsDanglingLink(t *testing.T) {
	t.Parallel()

	f := newFixture(models.InstalledSDK{Version: "1.9.57", Path: "/sdks/1.9.57"})
	f.store.activeErr = models.ErrDanglingLink

	if err := f.app.Run([]string{"summary"}); err != nil {
		t.Fatalf("run summary: %v", err)
	}
	if !strings.Contains(f.out.String(), "(dangling)") {
		t.Fatalf("dangling link not reported:\n%s", f.out.String())
	}
}

func TestAppNoArgsPrintsSummaryAndHelp(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if err := f.app.Run(nil); err != nil {
		t.Fatalf("run without args: %v", err)
	}

	output := f.out.String()
	if !strings.Contains(output, "0 SDKs in") {
		t.Fatalf("summary missing:\n%s", output)
	}
	if !strings.Contains(output, "Available Commands:") {
		t.Fatalf("help missing:\n%s", output)
	}
}

func TestAppInstallLatestActivates(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if err := f.app.Run([]string{"install", "latest"}); err != nil {
		t.Fatalf("run install: %v", err)
	}

	if len(f.installer.installed) != 1 || f.installer.installed[0] != "1.9.60" {
		t.Fatalf("unexpected installs: %#v", f.installer.installed)
	}
	if len(f.activator.activated) != 1 || f.activator.activated[0] != "1.9.60" {
		t.Fatalf("install did not activate: %#v", f.activator.activated)
	}
	if !strings.Contains(f.out.String(), "SDK version 1.9.60 is now active.") {
		t.Fatalf("unexpected output:\n%s", f.out.String())
	}
}

func TestAppDownloadDoesNotActivate(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if err := f.app.Run([]string{"dl", "1.9.57"}); err != nil {
		t.Fatalf("run dl: %v", err)
	}

	if len(f.installer.installed) != 1 || f.installer.installed[0] != "1.9.57" {
		t.Fatalf("unexpected installs: %#v", f.installer.installed)
	}
	if len(f.activator.activated) != 0 {
		t.Fatalf("download must not activate: %#v", f.activator.activated)
	}
}

func TestAppInstallResolvesPartialAgainstStore(t *testing.T) {
	t.Parallel()

	f := newFixture(
		models.InstalledSDK{Version: "1.9.50", Path: "/sdks/1.9.50"},
		models.InstalledSDK{Version: "1.9.57", Path: "/sdks/1.9.57"},
	)
	if err := f.app.Run([]string{"install", "57"}); err != nil {
		t.Fatalf("run install: %v", err)
	}
	if len(f.installer.installed) != 1 || f.installer.installed[0] != "1.9.57" {
		t.Fatalf("unexpected installs: %#v", f.installer.installed)
	}

	if err := f.app.Run([]string{"install", "9"}); !errors.Is(err, models.ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
}

func TestAppActivateAlias(t *testing.T) {
	t.Parallel()

	f := newFixture(models.InstalledSDK{Version: "1.9.57", Path: "/sdks/1.9.57"})
	if err := f.app.Run([]string{"ac", "57"}); err != nil {
		t.Fatalf("run ac: %v", err)
	}
	if len(f.activator.activated) != 1 || f.activator.activated[0] != "1.9.57" {
		t.Fatalf("unexpected activations: %#v", f.activator.activated)
	}
}

func TestAppCheck(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if err := f.app.Run([]string{"check"}); err != nil {
		t.Fatalf("run check: %v", err)
	}
	if !strings.Contains(f.out.String(), "Latest version: 1.9.60") {
		t.Fatalf("unexpected output:\n%s", f.out.String())
	}
}

func TestAppCheckSurfacesNetworkError(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.checker.err = errors.New("remote: request failed")
	if err := f.app.Run([]string{"check"}); err == nil {
		t.Fatal("expected network error to surface")
	}
}

func TestAppRemoveAlias(t *testing.T) {
	t.Parallel()

	f := newFixture(models.InstalledSDK{Version: "1.9.57", Path: "/sdks/1.9.57"})
	if err := f.app.Run([]string{"rm", "57"}); err != nil {
		t.Fatalf("run rm: %v", err)
	}
	if len(f.remover.removed) != 1 || f.remover.removed[0] != "57" {
		t.Fatalf("unexpected removals: %#v", f.remover.removed)
	}
}

func TestAppLinkAlias(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if err := f.app.Run([]string{"ln", "/opt/links"}); err != nil {
		t.Fatalf("run ln: %v", err)
	}
	if len(f.activator.linkDirs) != 1 || f.activator.linkDirs[0] != "/opt/links" {
		t.Fatalf("unexpected link dirs: %#v", f.activator.linkDirs)
	}
}

func TestAppRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if err := f.app.Run([]string{"bogus"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestAppRequiresCommandArguments(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{{"install"}, {"activate"}, {"remove"}, {"link"}, {"download"}} {
		f := newFixture()
		if err := f.app.Run(args); err == nil {
			t.Fatalf("expected missing argument error for %v", args)
		}
	}
}
