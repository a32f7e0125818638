package lanzou

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"lanzou-go/internal/db"
	"lanzou-go/internal/helpers"

	"github.com/bytedance/sonic"
	"golang.org/x/time/rate"
	"resty.dev/v3"
)

type Client struct {
	shareHost   string
	consoleHost string
	ua          string
	maxSize     int64 // MB
	retryDelay  time.Duration
	now         func() time.Time

	codec     *NameCodec
	extractor *Extractor
	archiver  Archiver
	cache     *db.CacheGlobal

	client     *resty.Client // 普通请求，带超时
	noRedirect *resty.Client // 获取直链，不跟随跳转
	stream     *resty.Client // 上传和下载响应体，不设超时

	shareHostName string

	limiterLock sync.RWMutex
	limiters    map[string]*rate.Limiter
}

func NewClient() *Client {
	client := resty.New()
	client.SetTimeout(time.Duration(DEFAULT_TIMEOUT) * time.Second)

	// 三个客户端共用同一个 cookie jar
	noRedirect := resty.New().
		SetCookieJar(client.CookieJar()).
		SetTimeout(time.Duration(DEFAULT_TIMEOUT) * time.Second).
		SetRedirectPolicy(resty.NoRedirectPolicy())
	stream := resty.New().SetCookieJar(client.CookieJar())

	c := &Client{
		ua:         DEFAULTUA,
		maxSize:    DEFAULT_MAX_SIZE,
		retryDelay: time.Duration(DEFAULT_RETRY_DELAY) * time.Second,
		now:        time.Now,
		codec:      NewNameCodec(""),
		extractor:  NewExtractor(),
		cache:      db.NewCache(1024 * 1024),
		client:     client,
		noRedirect: noRedirect,
		stream:     stream,
		limiters:   make(map[string]*rate.Limiter),
	}
	c.SetHosts(SHARE_HOST, CONSOLE_HOST)
	c.SetInsecureSkipVerify(true)
	c.initDefaultRateLimits()
	return c
}

// NewClientFromConfig 按配置文件创建客户端
func NewClientFromConfig(cfg helpers.Config) (*Client, error) {
	c := NewClient()
	lc := cfg.LanZou
	if lc.Host != "" || lc.ConsoleHost != "" {
		share, console := lc.Host, lc.ConsoleHost
		if share == "" {
			share = SHARE_HOST
		}
		if console == "" {
			console = CONSOLE_HOST
		}
		c.SetHosts(share, console)
	}
	if lc.Timeout > 0 {
		c.SetTimeout(time.Duration(lc.Timeout) * time.Second)
	}
	if lc.MaxSize > 0 {
		if err := c.SetMaxSize(lc.MaxSize); err != nil {
			return nil, err
		}
	}
	if lc.RetryDelayMs > 0 {
		c.SetRetryDelay(time.Duration(lc.RetryDelayMs) * time.Millisecond)
	}
	c.SetInsecureSkipVerify(lc.InsecureSkipVerify)
	for path, qps := range lc.RateLimits {
		c.SetRateLimit(path, qps)
	}
	if cfg.CacheSize > 0 {
		c.cache = db.NewCache(cfg.CacheSize)
	}
	if lc.RarPath != "" {
		if err := c.SetRarTool(lc.RarPath); err != nil {
			helpers.LanZouLog.Warnf("rar 工具不可用，分卷上传与解压将被禁用: %v", err)
		}
	}
	return c, nil
}

func (c *Client) initDefaultRateLimits() {
	c.SetRateLimit(PATH_DOUPLOAD, 5)
	c.SetRateLimit(PATH_MYDISK, 5)
	c.SetRateLimit(PATH_AJAXM, 2)
	c.SetRateLimit(PATH_FILEMOREAJAX, 2)
}

func (c *Client) SetRateLimit(path string, qps int) {
	c.limiterLock.Lock()
	defer c.limiterLock.Unlock()

	c.limiters[path] = rate.NewLimiter(rate.Limit(qps), 1)
}

func (c *Client) ClearRateLimits() {
	c.limiterLock.Lock()
	defer c.limiterLock.Unlock()

	c.limiters = make(map[string]*rate.Limiter)
}

// SetHosts 设置分享页和控制台的域名，分享链接的校验规则随之变化
func (c *Client) SetHosts(shareHost, consoleHost string) {
	c.shareHost = strings.TrimRight(shareHost, "/")
	c.consoleHost = strings.TrimRight(consoleHost, "/")

	c.shareHostName = c.shareHost
	if u, err := url.Parse(c.shareHost); err == nil && u.Host != "" {
		c.shareHostName = u.Host
	}

	headers := map[string]string{
		"User-Agent":      c.ua,
		"Referer":         c.shareHost,
		"Accept-Language": ACCEPT_LANGUAGE,
	}
	c.client.SetHeaders(headers)
	c.noRedirect.SetHeaders(headers)
	c.stream.SetHeaders(headers)
}

func (c *Client) ShareHost() string {
	return c.shareHost
}

func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.SetTimeout(timeout)
	c.noRedirect.SetTimeout(timeout)
}

func (c *Client) SetInsecureSkipVerify(skip bool) {
	tlsConfig := &tls.Config{InsecureSkipVerify: skip}
	c.client.SetTLSClientConfig(tlsConfig)
	c.noRedirect.SetTLSClientConfig(tlsConfig)
	c.stream.SetTLSClientConfig(tlsConfig)
}

// SetMaxSize 单文件大小上限，会员可以超过 100MB
func (c *Client) SetMaxSize(maxSizeMB int) error {
	if maxSizeMB < DEFAULT_MAX_SIZE {
		return newAPIErrorf(FAILED, "max size must be >= %d MB, got %d", DEFAULT_MAX_SIZE, maxSizeMB)
	}
	c.maxSize = int64(maxSizeMB)
	return nil
}

func (c *Client) SetRetryDelay(d time.Duration) {
	c.retryDelay = d
}

func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Client) SetPartToken(token string) {
	c.codec = NewNameCodec(token)
}

func (c *Client) Codec() *NameCodec {
	return c.codec
}

func (c *Client) Extractor() *Extractor {
	return c.extractor
}

func (c *Client) Close() error {
	for _, rc := range []*resty.Client{c.client, c.noRedirect, c.stream} {
		if rc != nil {
			rc.Close()
		}
	}
	return nil
}

func (c *Client) waitForPermission(ctx context.Context, path string) error {
	c.limiterLock.RLock()
	limiter, exists := c.limiters[path]
	c.limiterLock.RUnlock()

	if exists {
		return limiter.Wait(ctx)
	}
	return nil
}

// doRequest 按路径限速后发送请求，网络错误和非 2xx 响应统一视为 NETWORK_ERROR
func (c *Client) doRequest(ctx context.Context, req *resty.Request, method, requestURL string) (*resty.Response, error) {
	pathKey := requestURL
	if parsedURL, err := url.Parse(requestURL); err == nil {
		pathKey = parsedURL.Path
	}

	if err := c.waitForPermission(ctx, pathKey); err != nil {
		return nil, newAPIErrorf(NETWORK_ERROR, "rate limit wait error: %v", err)
	}

	resp, err := req.SetContext(ctx).Execute(method, requestURL)
	if err != nil {
		helpers.LanZouLog.Warnf("%s %s 请求失败: %v", method, requestURL, err)
		return nil, newAPIErrorf(NETWORK_ERROR, "%s %s: %v", method, requestURL, err)
	}
	if resp.IsError() {
		if resp.Body != nil {
			resp.Body.Close()
		}
		helpers.LanZouLog.Warnf("%s %s 返回状态码: %s", method, requestURL, resp.Status())
		return nil, newAPIErrorf(NETWORK_ERROR, "%s %s: status %s", method, requestURL, resp.Status())
	}
	return resp, nil
}

// getPage GET 页面并返回文本
func (c *Client) getPage(ctx context.Context, pageURL string, params map[string]string) (string, error) {
	req := c.client.R()
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := c.doRequest(ctx, req, resty.MethodGet, pageURL)
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

// postForm 提交表单并返回响应体
func (c *Client) postForm(ctx context.Context, postURL string, form map[string]string) ([]byte, error) {
	req := c.client.R().SetFormData(form)
	resp, err := c.doRequest(ctx, req, resty.MethodPost, postURL)
	if err != nil {
		return nil, err
	}
	return resp.Bytes(), nil
}

// postJSON 提交表单并把 JSON 响应解析到 result
func (c *Client) postJSON(ctx context.Context, postURL string, form map[string]string, result any) error {
	body, err := c.postForm(ctx, postURL, form)
	if err != nil {
		return err
	}
	return decodeJSON(body, result)
}

// doupload 调用控制台 doupload.php
func (c *Client) doupload(ctx context.Context, form map[string]string, result any) error {
	return c.postJSON(ctx, c.consoleHost+PATH_DOUPLOAD, form, result)
}

// douploadZt 只判断 zt==1 的 doupload 调用
func (c *Client) douploadZt(ctx context.Context, form map[string]string) error {
	result := &RespZt{}
	if err := c.doupload(ctx, form, result); err != nil {
		return err
	}
	if result.Zt != 1 {
		return newAPIErrorf(FAILED, "task %s failed: zt=%d, info=%v", form["task"], result.Zt, result.Info)
	}
	return nil
}

func decodeJSON(data []byte, v any) error {
	if err := sonic.Unmarshal(data, v); err != nil {
		return newAPIErrorf(NETWORK_ERROR, "unmarshal response failed: %v", err)
	}
	return nil
}

func (c *Client) accountURL() string {
	return c.consoleHost + PATH_ACCOUNT
}

func (c *Client) mydiskURL() string {
	return c.consoleHost + PATH_MYDISK
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func (c *Client) today() string {
	return c.now().Format(dateLayout)
}

// sleep 可被 ctx 取消的等待
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) String() string {
	return fmt.Sprintf("lanzou.Client{share=%s, console=%s}", c.shareHost, c.consoleHost)
}
