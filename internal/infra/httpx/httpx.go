package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 20 * time.Second
	DefaultUserAgent = "pmc/dev (+https://github.com/John-Robertt/PMC)"
)

// Transport 把“固定 UA + 限速 + keep-alive 策略”固化为统一策略。
//
// 设计目标：geocode provider 只负责“拼 URL + 解析 JSON”，不关心网络策略细节。
// 重试不在这一层做：重试次数与退避由 Resolver 按业务语义控制（空结果也要重试）。
type Transport struct {
	Base *http.Transport

	// UserAgent 为空时使用 DefaultUserAgent。公共地理编码服务要求可识别的 UA。
	UserAgent string

	// Limiter 为 nil 表示不限速。
	Limiter *rate.Limiter

	// DisableKeepAlives 决定是否对 Request 设置 Close=true（额外保险）。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	// Clone 会复制 Header 等，避免在 RoundTripper 内部“污染”调用方的 request。
	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" {
		ua := strings.TrimSpace(t.UserAgent)
		if ua == "" {
			ua = DefaultUserAgent
		}
		r.Header.Set("User-Agent", ua)
	}
	if r.Header.Get("Accept") == "" {
		r.Header.Set("Accept", "application/json")
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return t.Base.RoundTrip(r)
}

// Options 描述 provider HTTP client 的网络策略。
type Options struct {
	ProxyURL  string
	UserAgent string

	// Timeout 是单次请求的总超时；<=0 使用 DefaultTimeout。
	Timeout time.Duration

	// RatePerSec 是每秒请求数上限；<=0 表示不限速。
	RatePerSec float64
}

// NewClient 构造用于逆地理编码请求的 HTTP client。
//
// 规则：
// - proxyURL 非空：走代理，且禁用 keep-alive（每请求新连接）
// - 固定 UA；限速为令牌桶，突发为 1
// - 总超时：挂起的请求不会阻塞整条流水线
func NewClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	disableKeepAlives := false
	if proxyURL := strings.TrimSpace(opts.ProxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	var lim *rate.Limiter
	if opts.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Transport: &Transport{
			Base:              base,
			UserAgent:         opts.UserAgent,
			Limiter:           lim,
			DisableKeepAlives: disableKeepAlives,
		},
		Timeout: timeout,
	}, nil
}
