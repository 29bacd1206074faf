package geocode

import (
	"fmt"
	"strings"
)

// HTTPStatusError 表示服务返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	RetryAfter string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	ra := strings.TrimSpace(e.RetryAfter)
	if ra == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d retry-after=%s", e.StatusCode, ra)
}

// APIStatusError 表示服务以 200 返回了业务层面的错误状态（例如 REQUEST_DENIED）。
type APIStatusError struct {
	Status  string
	Message string
}

func (e *APIStatusError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return "api status " + e.Status
	}
	return fmt.Sprintf("api status %s: %s", e.Status, e.Message)
}

// Error 是一次 provider 调用的可追溯错误。
// Stage 取值："fetch"（网络/HTTP/业务状态）或 "empty"（无结果）。
type Error struct {
	Provider string
	Stage    string
	Attempt  int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider=%s stage=%s attempt=%d: %v", e.Provider, e.Stage, e.Attempt, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// UnknownProviderError 表示配置选择了未注册的 provider（致命配置错误，不做静默回退）。
type UnknownProviderError struct {
	Name  string
	Known []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("未知 provider：%q（可选：%s）", e.Name, strings.Join(e.Known, ", "))
}
