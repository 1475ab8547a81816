package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/liangyou/sdkswitch/internal/platform"
	"github.com/liangyou/sdkswitch/pkg/models"
)

const fileName = "sdkswitch.yaml"

// file 对应 sdkswitch.yaml 的结构。
type file struct {
	Link     string `yaml:"link"`
	CacheDir string `yaml:"cache_dir"`
}

// Manager 负责配置文件的读写以及配置值到实际路径的解析。
type Manager struct {
	paths     *platform.Paths
	configDir string
}

// Option 用于配置 Manager。
type Option func(*Manager)

// WithConfigDir 指定自定义配置目录，主要用于测试。
func WithConfigDir(dir string) Option {
	return func(m *Manager) {
		if dir != "" {
			m.configDir = dir
		}
	}
}

// NewManager 创建配置管理器。
func NewManager(paths *platform.Paths, opts ...Option) *Manager {
	m := &Manager{paths: paths}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path 返回配置文件的绝对路径。
func (m *Manager) Path() (string, error) {
	dir, err := m.dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load 读取配置文件，文件不存在时返回默认配置。
func (m *Manager) Load() (models.Config, error) {
	cfg := models.DefaultConfig()

	path, err := m.Path()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if f.Link != "" {
		cfg.Link = f.Link
	}
	cfg.CacheDir = f.CacheDir

	return cfg, nil
}

// Save 将配置写入文件，必要时创建配置目录。
func (m *Manager) Save(cfg models.Config) error {
	path, err := m.Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: ensure config dir: %w", err)
	}

	data, err := yaml.Marshal(file{Link: cfg.Link, CacheDir: cfg.CacheDir})
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// CacheDir 解析缓存目录：未配置时使用配置目录本身。
func (m *Manager) CacheDir(cfg models.Config) (string, error) {
	if cfg.CacheDir == "" {
		return m.dir()
	}
	return m.paths.ExpandHome(cfg.CacheDir)
}

// LinkPath 解析激活软链的完整路径，软链始终叫 google_appengine。
func (m *Manager) LinkPath(cfg models.Config) (string, error) {
	dir, err := m.paths.ExpandHome(cfg.Link)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, models.PayloadDirName), nil
}

// DownloadsDir 解析下载缓存目录。
func (m *Manager) DownloadsDir(cfg models.Config) (string, error) {
	cache, err := m.CacheDir(cfg)
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "downloads"), nil
}

func (m *Manager) dir() (string, error) {
	if m.configDir != "" {
		return filepath.Abs(m.configDir)
	}
	if m.paths == nil {
		return "", errors.New("config: platform paths are required")
	}
	return m.paths.ConfigDir()
}
