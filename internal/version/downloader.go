package version

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/liangyou/sdkswitch/internal/remote"
	"github.com/liangyou/sdkswitch/pkg/models"
)

// ProgressFunc 在下载过程中回调当前已完成的字节数以及总字节数。
type ProgressFunc func(downloaded, total int64)

// HTTPClient 定义 Downloader 所需的 HTTP 客户端能力。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Downloader 负责把指定版本的 SDK 压缩包下载到本地缓存。
type Downloader struct {
	httpClient   HTTPClient
	downloadsDir string
	urlsFor      func(version string) []string
	progressFunc ProgressFunc
}

// DownloaderOption 配置 Downloader。
type DownloaderOption func(*Downloader)

// WithHTTPClient 指定自定义 HTTP 客户端。
func WithHTTPClient(client HTTPClient) DownloaderOption {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithDownloadsDir 指定下载目录。
func WithDownloadsDir(dir string) DownloaderOption {
	return func(d *Downloader) {
		if dir != "" {
			d.downloadsDir = dir
		}
	}
}

// WithArchiveURLs 指定候选下载地址的生成函数。
func WithArchiveURLs(fn func(version string) []string) DownloaderOption {
	return func(d *Downloader) {
		if fn != nil {
			d.urlsFor = fn
		}
	}
}

// WithProgressFunc 指定进度回调。
func WithProgressFunc(fn ProgressFunc) DownloaderOption {
	return func(d *Downloader) {
		d.progressFunc = fn
	}
}

// NewDownloader 创建 Downloader。
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		httpClient: http.DefaultClient,
		urlsFor:    remote.ArchiveURLs,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.downloadsDir == "" {
		d.downloadsDir = filepath.Join(os.TempDir(), "sdkswitch", "downloads")
	}
	return d
}

// ArchiveFileName 返回某版本压缩包在本地缓存中的文件名。
func ArchiveFileName(version string) string {
	return fmt.Sprintf("google_appengine_%s.zip", version)
}

// Download 获取指定版本的压缩包并返回本地文件路径。已下载过的版本直接复用缓存。
// 主发布源返回 404 时会依次尝试历史归档地址。
func (d *Downloader) Download(ctx context.Context, version string) (string, error) {
	finalPath := filepath.Join(d.downloadsDir, ArchiveFileName(version))
	if _, err := os.Stat(finalPath); err == nil {
		logrus.WithField("path", finalPath).Debug("archive already downloaded")
		return finalPath, nil
	}

	if err := os.MkdirAll(d.downloadsDir, 0o755); err != nil {
		return "", fmt.Errorf("downloader: create dir: %w", err)
	}

	var lastErr error
	for _, url := range d.urlsFor(version) {
		err := d.fetch(ctx, url, finalPath)
		if err == nil {
			return finalPath, nil
		}

		var statusErr *statusError
		if !errors.As(err, &statusErr) {
			return "", err
		}
		logrus.WithField("url", url).WithError(err).Debug("archive source failed")
		if statusErr.code == http.StatusNotFound || statusErr.code == http.StatusForbidden {
			lastErr = fmt.Errorf("downloader: version %s: %w", version, models.ErrNotFound)
		} else {
			lastErr = err
		}
	}

	return "", lastErr
}

// statusError 表示远端返回了非 200 状态码，可以继续尝试下一个候选地址。
type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("downloader: %s returned status %d", e.url, e.code)
}

func (d *Downloader) fetch(ctx context.Context, url, finalPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("downloader: build request: %w", err)
	}

	logrus.WithField("url", url).Debug("downloading archive")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloader: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{url: url, code: resp.StatusCode}
	}

	tempFile, err := os.CreateTemp(d.downloadsDir, "download-*.tmp")
	if err != nil {
		return fmt.Errorf("downloader: temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		tempFile.Close()
		os.Remove(tempPath)
	}()

	reader := d.wrapProgress(resp.Body, resp.ContentLength)
	if _, err := io.Copy(tempFile, reader); err != nil {
		return fmt.Errorf("downloader: write file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("downloader: sync file: %w", err)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		return fmt.Errorf("downloader: finalize file: %w", err)
	}
	return nil
}

func (d *Downloader) wrapProgress(reader io.Reader, total int64) io.Reader {
	if d.progressFunc == nil {
		return reader
	}
	return &progressReader{r: reader, total: total, report: d.progressFunc}
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.report(p.read, p.total)
	}
	return n, err
}
