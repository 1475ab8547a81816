package models

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/coreos/go-semver/semver"
)

// versionPattern 匹配形如 1.9.57 的完整版本号。
var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// InstalledSDK 描述一个已安装到本地的 SDK 版本。
type InstalledSDK struct {
	Version  string // 纯版本号，例如 1.9.57
	Path     string // 版本目录的绝对路径
	IsActive bool   // 是否为当前激活版本
}

// IsFullVersion 判断 s 是否为完整版本号。
func IsFullVersion(s string) bool {
	return versionPattern.MatchString(strings.TrimSpace(s))
}

// ParseVersion 校验版本号格式并返回规范化结果。
func ParseVersion(s string) (string, error) {
	cleaned := strings.TrimSpace(s)
	if !versionPattern.MatchString(cleaned) {
		return "", fmt.Errorf("%w: %q", ErrBadVersion, s)
	}
	return cleaned, nil
}

// CompareVersions 按数值比较两个版本号，保证 1.9.5 排在 1.9.40 之前。
// a<b 返回 -1，a>b 返回 1，相等返回 0。无法解析的版本号按字符串比较兜底。
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	switch {
	case va.LessThan(*vb):
		return -1
	case vb.LessThan(*va):
		return 1
	default:
		return 0
	}
}

// SortVersions 原地升序排序版本号列表。
func SortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) < 0
	})
}

// LatestOf 返回列表中最大的版本号，空列表返回 ErrNotFound。
func LatestOf(versions []string) (string, error) {
	if len(versions) == 0 {
		return "", fmt.Errorf("latest: %w", ErrNotFound)
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if CompareVersions(v, latest) > 0 {
			latest = v
		}
	}
	return latest, nil
}

// MatchPartial 在版本列表中查找包含 partial 的唯一版本。
// 无匹配返回 ErrNotFound，多于一个匹配返回 ErrAmbiguousMatch。
func MatchPartial(versions []string, partial string) (string, error) {
	partial = strings.TrimSpace(partial)
	if partial == "" {
		return "", fmt.Errorf("match %q: %w", partial, ErrNotFound)
	}

	var matches []string
	for _, v := range versions {
		if strings.Contains(v, partial) {
			matches = append(matches, v)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("match %q: %w", partial, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("match %q hits %s: %w", partial, strings.Join(matches, ", "), ErrAmbiguousMatch)
	}
}
