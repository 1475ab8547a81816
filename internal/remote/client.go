package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liangyou/sdkswitch/pkg/models"
)

const (
	defaultCheckURL = "https://appengine.google.com/api/updatecheck"
	defaultIndexURL = "https://storage.googleapis.com/appengine-sdks/?prefix=featured/google_appengine_"
	defaultCacheTTL = 5 * time.Minute
	defaultTimeout  = 10 * time.Second
)

// releasePattern 从 updatecheck 的纯文本响应里提取 release: "1.9.57"。
var releasePattern = regexp.MustCompile(`\brelease: "([^"]+)"`)

// HTTPClient 描述最小化的 HTTP 客户端接口，方便测试时替换。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option 用于配置 Client。
type Option func(*Client)

// WithHTTPClient 设置 HTTP 客户端。
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithCheckURL 设置自定义 updatecheck 地址。
func WithCheckURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.checkURL = url
		}
	}
}

// WithIndexURL 设置自定义版本索引地址。
func WithIndexURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.indexURL = url
		}
	}
}

// WithCacheTTL 设置查询结果的缓存时间。
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithTimeout 设置单次请求的超时时间。
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// Client 查询远程发布源，返回最新的 SDK 版本号。
type Client struct {
	checkURL   string
	indexURL   string
	httpClient HTTPClient
	timeout    time.Duration
	cacheTTL   time.Duration

	mu       sync.Mutex
	cached   string
	cachedAt time.Time
}

// NewClient 创建远程检查客户端。
func NewClient(opts ...Option) *Client {
	c := &Client{
		checkURL:   defaultCheckURL,
		indexURL:   defaultIndexURL,
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		cacheTTL:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestVersion 返回远程发布的最新版本号。updatecheck 接口失败时
// 回退到对象索引，取其中最大的版本号。结果在 cacheTTL 内缓存。
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	if version, ok := c.getCached(); ok {
		return version, nil
	}

	version, err := c.fromUpdateCheck(ctx)
	if err != nil {
		logrus.WithError(err).Debug("update check failed, falling back to index")
		fallback, fbErr := c.fromIndex(ctx)
		if fbErr != nil {
			return "", fmt.Errorf("%v (fallback: %v)", err, fbErr)
		}
		version = fallback
	}

	c.setCache(version)
	return version, nil
}

// fromUpdateCheck 解析 updatecheck 的文本响应。
func (c *Client) fromUpdateCheck(ctx context.Context) (string, error) {
	body, err := c.fetch(ctx, c.checkURL)
	if err != nil {
		return "", err
	}

	match := releasePattern.FindSubmatch(body)
	if match == nil {
		return "", errors.New("remote: no release in update check response")
	}
	return models.ParseVersion(string(match[1]))
}

// fromIndex 解析对象索引，返回其中最大的版本号。
func (c *Client) fromIndex(ctx context.Context) (string, error) {
	body, err := c.fetch(ctx, c.indexURL)
	if err != nil {
		return "", err
	}

	versions, err := parseIndexVersions(body)
	if err != nil {
		return "", err
	}
	return models.LatestOf(versions)
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	if c.httpClient == nil {
		return nil, errors.New("remote: http client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read body: %w", err)
	}
	return body, nil
}

func (c *Client) getCached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached == "" {
		return "", false
	}
	if c.cacheTTL > 0 && time.Since(c.cachedAt) > c.cacheTTL {
		c.cached = ""
		return "", false
	}
	return c.cached, true
}

func (c *Client) setCache(version string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cached = version
	c.cachedAt = time.Now()
}
