package remote

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/liangyou/sdkswitch/pkg/models"
)

const (
	featuredArchiveURL   = "https://storage.googleapis.com/appengine-sdks/featured/google_appengine_%s.zip"
	deprecatedArchiveURL = "https://storage.googleapis.com/appengine-sdks/deprecated/%s/google_appengine_%s.zip"
)

// archiveKeyPattern 从索引里的对象名提取版本号。
var archiveKeyPattern = regexp.MustCompile(`google_appengine_(\d+\.\d+\.\d+)\.zip$`)

// ArchiveURL 返回指定版本在主发布源的压缩包地址。
func ArchiveURL(version string) string {
	return fmt.Sprintf(featuredArchiveURL, version)
}

// DeprecatedArchiveURL 返回指定版本在历史归档里的压缩包地址。
// 归档目录名是去掉点号的版本号，例如 1.8.0 对应 deprecated/180/。
func DeprecatedArchiveURL(version string) string {
	return fmt.Sprintf(deprecatedArchiveURL, strings.ReplaceAll(version, ".", ""), version)
}

// ArchiveURLs 按尝试顺序返回某版本所有候选下载地址。
func ArchiveURLs(version string) []string {
	return []string{ArchiveURL(version), DeprecatedArchiveURL(version)}
}

// listBucketResult 对应对象存储的 XML 索引结构，只取对象名。
type listBucketResult struct {
	Contents []struct {
		Key string `xml:"Key"`
	} `xml:"Contents"`
}

// parseIndexVersions 从 XML 索引里解析出所有可下载的版本号。
func parseIndexVersions(data []byte) ([]string, error) {
	var result listBucketResult
	if err := xml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("remote: decode index: %w", err)
	}

	var versions []string
	for _, object := range result.Contents {
		match := archiveKeyPattern.FindStringSubmatch(object.Key)
		if match == nil {
			continue
		}
		versions = append(versions, match[1])
	}

	if len(versions) == 0 {
		return nil, fmt.Errorf("remote: index lists no versions: %w", models.ErrNotFound)
	}
	models.SortVersions(versions)
	return versions, nil
}
