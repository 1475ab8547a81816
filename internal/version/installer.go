package version

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/liangyou/sdkswitch/internal/storage"
	"github.com/liangyou/sdkswitch/pkg/models"
)

// ArtifactDownloader 用于获取远程 SDK 压缩包。
type ArtifactDownloader interface {
	Download(ctx context.Context, version string) (string, error)
}

// Installer 负责把下载好的 SDK 版本安装到缓存目录。
type Installer struct {
	store      *storage.Store
	downloader ArtifactDownloader
}

// NewInstaller 创建 Installer。
func NewInstaller(store *storage.Store, downloader ArtifactDownloader) *Installer {
	return &Installer{store: store, downloader: downloader}
}

// Install 下载并解压指定版本。重复安装同一版本是无操作，直接返回已有安装。
// 解压失败时不会留下半成品目录：先解压到临时目录，成功后整体改名到位。
func (i *Installer) Install(ctx context.Context, ver string) (models.InstalledSDK, error) {
	if i.store == nil || i.downloader == nil {
		return models.InstalledSDK{}, errors.New("installer: missing dependencies")
	}

	ver, err := models.ParseVersion(ver)
	if err != nil {
		return models.InstalledSDK{}, err
	}

	if existing, ok, err := i.installed(ver); err != nil {
		return models.InstalledSDK{}, err
	} else if ok {
		logrus.WithField("version", ver).Debug("version already installed")
		return existing, nil
	}

	installPath := i.store.InstallPath(ver)
	if err := os.MkdirAll(filepath.Dir(installPath), 0o755); err != nil {
		return models.InstalledSDK{}, fmt.Errorf("installer: prepare parent dir: %w", err)
	}

	archivePath, err := i.downloader.Download(ctx, ver)
	if err != nil {
		return models.InstalledSDK{}, err
	}

	tempDir, err := os.MkdirTemp(filepath.Dir(installPath), "install-*")
	if err != nil {
		return models.InstalledSDK{}, fmt.Errorf("installer: create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	destDir := filepath.Join(tempDir, "root")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return models.InstalledSDK{}, fmt.Errorf("installer: prepare extract dir: %w", err)
	}

	if err := extractZip(archivePath, destDir); err != nil {
		return models.InstalledSDK{}, err
	}

	payload := filepath.Join(destDir, models.PayloadDirName)
	if info, err := os.Stat(payload); err != nil || !info.IsDir() {
		return models.InstalledSDK{}, fmt.Errorf("installer: archive has no %s directory", models.PayloadDirName)
	}

	if err := markScriptsExecutable(payload); err != nil {
		return models.InstalledSDK{}, err
	}

	if err := os.RemoveAll(installPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return models.InstalledSDK{}, fmt.Errorf("installer: cleanup previous install: %w", err)
	}
	if err := os.Rename(destDir, installPath); err != nil {
		return models.InstalledSDK{}, fmt.Errorf("installer: move install directory: %w", err)
	}

	logrus.WithField("version", ver).Debug("extracted sdk")

	return models.InstalledSDK{Version: ver, Path: installPath}, nil
}

func (i *Installer) installed(ver string) (models.InstalledSDK, bool, error) {
	sdks, err := i.store.List()
	if err != nil {
		return models.InstalledSDK{}, false, err
	}
	for _, sdk := range sdks {
		if sdk.Version == ver {
			return sdk, true, nil
		}
	}
	return models.InstalledSDK{}, false, nil
}

func extractZip(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("installer: open archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		target := filepath.Join(dest, filepath.FromSlash(file.Name))
		if err := ensureWithinRoot(dest, target); err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("installer: mkdir %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("installer: mkdir for file %s: %w", target, err)
		}
		if err := extractZipFile(file, target); err != nil {
			return err
		}
	}

	return nil
}

func extractZipFile(file *zip.File, target string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("installer: open entry %s: %w", file.Name, err)
	}
	defer src.Close()

	mode := file.Mode()
	if mode == 0 {
		mode = 0o644
	}

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("installer: create file %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("installer: copy file %s: %w", target, err)
	}
	return dst.Close()
}

// markScriptsExecutable 给载荷目录顶层的 .py 脚本加上可执行位。
func markScriptsExecutable(payload string) error {
	entries, err := os.ReadDir(payload)
	if err != nil {
		return fmt.Errorf("installer: read payload dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".py") {
			continue
		}
		path := filepath.Join(payload, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("installer: stat script: %w", err)
		}
		if err := os.Chmod(path, info.Mode()|0o111); err != nil {
			return fmt.Errorf("installer: chmod script: %w", err)
		}
	}
	return nil
}

func ensureWithinRoot(root, target string) error {
	root = filepath.Clean(root)
	target = filepath.Clean(target)
	if target == root {
		return nil
	}
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return fmt.Errorf("installer: illegal path %s", target)
	}
	return nil
}
