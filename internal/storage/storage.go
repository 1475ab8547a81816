package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/liangyou/sdkswitch/pkg/models"
)

// Store 枚举缓存目录里已安装的 SDK 版本，并解析激活软链指向哪一个。
type Store struct {
	cacheDir string
	linkPath string
}

// NewStore 创建版本存储。cacheDir 是各版本目录的父目录，
// linkPath 是激活软链自身的完整路径。
func NewStore(cacheDir, linkPath string) *Store {
	return &Store{cacheDir: cacheDir, linkPath: linkPath}
}

// InstallPath 返回指定版本的安装目录。
func (s *Store) InstallPath(version string) string {
	return filepath.Join(s.cacheDir, version)
}

// PayloadPath 返回指定版本内部 google_appengine 目录的路径，即软链的目标。
func (s *Store) PayloadPath(version string) string {
	return filepath.Join(s.cacheDir, version, models.PayloadDirName)
}

// LinkPath 返回激活软链自身的路径。
func (s *Store) LinkPath() string {
	return s.linkPath
}

// List 返回已安装版本的升序列表，并标记当前激活的版本。
// 名字不是版本号的目录、缺少 google_appengine 载荷的半成品目录都会被忽略。
func (s *Store) List() ([]models.InstalledSDK, error) {
	versions, err := s.versions()
	if err != nil {
		return nil, err
	}

	active, activeErr := s.linkVersion()

	sdks := make([]models.InstalledSDK, 0, len(versions))
	for _, v := range versions {
		sdks = append(sdks, models.InstalledSDK{
			Version:  v,
			Path:     s.InstallPath(v),
			IsActive: activeErr == nil && v == active,
		})
	}
	return sdks, nil
}

// Find 按部分版本号查找唯一匹配的已安装版本。
// 无匹配返回 ErrNotFound，多个匹配返回 ErrAmbiguousMatch。
func (s *Store) Find(partial string) (models.InstalledSDK, error) {
	versions, err := s.versions()
	if err != nil {
		return models.InstalledSDK{}, err
	}

	version, err := models.MatchPartial(versions, partial)
	if err != nil {
		return models.InstalledSDK{}, err
	}

	return models.InstalledSDK{Version: version, Path: s.InstallPath(version)}, nil
}

// Active 返回当前激活的版本。没有软链时返回 ErrNoActiveVersion；
// 软链存在但目标目录已被删除时返回 ErrDanglingLink，两者是不同的状态。
func (s *Store) Active() (models.InstalledSDK, error) {
	version, err := s.linkVersion()
	if err != nil {
		return models.InstalledSDK{}, err
	}

	payload := s.PayloadPath(version)
	if info, err := os.Stat(payload); err != nil || !info.IsDir() {
		return models.InstalledSDK{}, fmt.Errorf("storage: link targets %s: %w", payload, models.ErrDanglingLink)
	}

	return models.InstalledSDK{Version: version, Path: s.InstallPath(version), IsActive: true}, nil
}

// versions 扫描缓存目录，返回未排序前的合法版本号并完成升序排序。
func (s *Store) versions() ([]string, error) {
	if s.cacheDir == "" {
		return nil, errors.New("storage: cache dir is not configured")
	}

	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: read cache dir: %w", err)
	}

	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if !models.IsFullVersion(entry.Name()) {
			continue
		}
		// 半成品目录没有载荷目录，不算已安装。
		if info, err := os.Stat(s.PayloadPath(entry.Name())); err != nil || !info.IsDir() {
			continue
		}
		versions = append(versions, entry.Name())
	}

	models.SortVersions(versions)
	return versions, nil
}

// linkVersion 读取软链目标并取出其中的版本号，不校验目标是否仍存在。
func (s *Store) linkVersion() (string, error) {
	if s.linkPath == "" {
		return "", errors.New("storage: link path is not configured")
	}

	target, err := os.Readlink(s.linkPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", models.ErrNoActiveVersion
		}
		return "", fmt.Errorf("storage: read link: %w", err)
	}

	version := filepath.Base(filepath.Dir(target))
	if !models.IsFullVersion(version) {
		return "", fmt.Errorf("storage: link targets %s: %w", target, models.ErrDanglingLink)
	}
	return version, nil
}
