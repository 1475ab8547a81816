package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appDirName = "sdkswitch"

// Paths 负责解析配置目录等平台相关路径。
type Paths struct {
	goos   func() string
	homeFn func() (string, error)
}

// NewPaths 创建平台路径解析器。
func NewPaths() *Paths {
	return &Paths{
		goos:   func() string { return runtime.GOOS },
		homeFn: os.UserHomeDir,
	}
}

// ConfigDir 返回保存配置文件（以及默认缓存）的目录的绝对路径。
func (p *Paths) ConfigDir() (string, error) {
	home, err := p.homeFn()
	if err != nil {
		return "", fmt.Errorf("platform: home dir: %w", err)
	}

	var dir string
	switch p.goos() {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", appDirName)
	case "windows":
		dir = filepath.Join(home, "Application Settings", appDirName)
	default:
		dir = filepath.Join(home, "."+appDirName)
	}

	return filepath.Abs(dir)
}

// ExpandHome 将路径开头的 ~ 展开为用户主目录并返回绝对路径。
func (p *Paths) ExpandHome(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := p.homeFn()
		if err != nil {
			return "", fmt.Errorf("platform: home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], string(os.PathSeparator)))
	}
	return filepath.Abs(path)
}

// Validate 确认缓存目录可创建可写入。
func (p *Paths) Validate(cacheDir string) error {
	if cacheDir == "" {
		return fmt.Errorf("platform: cache dir is not configured")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("platform: cannot access cache directory %s: %w", cacheDir, err)
	}
	return nil
}
