package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/John-Robertt/PMC/internal/domain"
)

// Provider 把“服务差异”限制在 geocode 包内部；核心流程只依赖统一接口与归一化后的 Location。
//
// 约束：
// - Reverse 不做缓存、不做重试（这些由 Resolver 统一实现）；限速由 http client 负责
// - 服务返回“没有结果”时必须返回 ErrNoResult（Resolver 会把它当作可重试失败）
// - 结果形状无法识别时返回 Unknown，而不是报错
type Provider interface {
	Name() string
	Reverse(ctx context.Context, c *http.Client, lat, lon float64) (domain.Location, error)
}

// ErrNoResult 表示服务正常响应但没有任何结果。
var ErrNoResult = errors.New("geocode: empty result")

// ProviderOptions 是内置 provider 的公共参数（来自配置）。
type ProviderOptions struct {
	Language string
	APIKey   string

	// Endpoints 按 provider 名覆盖默认的服务地址（自建实例/测试桩）。
	Endpoints map[string]string
}

// Builtin 返回全部内置 provider。
func Builtin(o ProviderOptions) []Provider {
	lang := strings.TrimSpace(o.Language)
	if lang == "" {
		lang = "en"
	}
	return []Provider{
		Nominatim{BaseURL: o.Endpoints[NameNominatim], Language: lang},
		Photon{BaseURL: o.Endpoints[NamePhoton], Language: lang},
		Google{BaseURL: o.Endpoints[NameGoogle], Language: lang, APIKey: o.APIKey},
	}
}

const maxBody = 4 << 20

// getJSON 发起 GET 并返回合法 JSON 响应体；非 2xx 返回 HTTPStatusError。
func getJSON(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode, RetryAfter: resp.Header.Get("Retry-After")}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("响应不是合法 JSON（%d 字节）", len(b))
	}
	return b, nil
}

// isEmptyJSON 判断响应是否为 null / {} / []。
func isEmptyJSON(r gjson.Result) bool {
	switch {
	case !r.Exists(), r.Type == gjson.Null:
		return true
	case r.IsArray():
		return len(r.Array()) == 0
	case r.IsObject():
		empty := true
		r.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return empty
	default:
		return false
	}
}
