package link

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/liangyou/sdkswitch/pkg/models"
)

// ConfigStore 描述 Activator 所需的配置读写能力。
type ConfigStore interface {
	Load() (models.Config, error)
	Save(models.Config) error
	LinkPath(models.Config) (string, error)
}

// Activator 维护指向当前激活版本的软链。
type Activator struct {
	linkPath string
	config   ConfigStore
}

// NewActivator 创建 Activator。linkPath 是软链自身的完整路径。
func NewActivator(linkPath string, config ConfigStore) *Activator {
	return &Activator{linkPath: linkPath, config: config}
}

// LinkPath 返回软链自身的当前路径。
func (a *Activator) LinkPath() string {
	return a.linkPath
}

// Activate 把软链指向 sdk 的载荷目录。先以临时名字建新链再改名覆盖，
// 过程中断也不会留下半成品软链。
func (a *Activator) Activate(sdk models.InstalledSDK) error {
	target := filepath.Join(sdk.Path, models.PayloadDirName)
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		return fmt.Errorf("link: payload dir %s is missing", target)
	}
	if err := a.switchLink(a.linkPath, target); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"version": sdk.Version, "link": a.linkPath}).Debug("activated sdk")
	return nil
}

// Current 返回软链当前指向的目标路径。软链不存在时返回 ErrNoActiveVersion。
func (a *Activator) Current() (string, error) {
	target, err := os.Readlink(a.linkPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", models.ErrNoActiveVersion
		}
		return "", fmt.Errorf("link: read link: %w", err)
	}
	return target, nil
}

// SetLinkDir 修改软链所在目录并持久化到配置。已有激活版本时，
// 先在新位置建好软链，再删掉旧软链。
func (a *Activator) SetLinkDir(dir string) error {
	if a.config == nil {
		return errors.New("link: config store is required")
	}

	cfg, err := a.config.Load()
	if err != nil {
		return err
	}
	cfg.Link = dir

	newLink, err := a.config.LinkPath(cfg)
	if err != nil {
		return err
	}

	oldLink := a.linkPath
	if target, err := os.Readlink(oldLink); err == nil && oldLink != newLink {
		if err := a.switchLink(newLink, target); err != nil {
			return err
		}
		if err := os.Remove(oldLink); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("link: remove old link: %w", err)
		}
	}

	if err := a.config.Save(cfg); err != nil {
		return err
	}

	a.linkPath = newLink
	logrus.WithField("link", newLink).Debug("moved active link")
	return nil
}

// switchLink 原子替换 linkPath，使其指向 target。
func (a *Activator) switchLink(linkPath, target string) error {
	dir := filepath.Dir(linkPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("link: ensure link dir: %w", err)
	}

	tempLink := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", filepath.Base(linkPath), os.Getpid()))
	if err := os.Remove(tempLink); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("link: clear temp link: %w", err)
	}
	if err := os.Symlink(target, tempLink); err != nil {
		return fmt.Errorf("link: create link: %w", err)
	}
	if err := os.Rename(tempLink, linkPath); err != nil {
		os.Remove(tempLink)
		return fmt.Errorf("link: replace link: %w", err)
	}
	return nil
}
