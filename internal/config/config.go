package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/PMC/internal/geocode"
	"github.com/John-Robertt/PMC/internal/infra/cache"
	"github.com/John-Robertt/PMC/internal/infra/httpx"
)

const (
	// ErrCodeNotFound 表示 --config 指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示 CLI 与配置文件都没有给出 input/output。
	ErrCodeMissingPath = "config_missing_path"
)

const (
	// FileName 是 cwd 下自动发现的配置文件名。
	FileName = "pmc.yaml"
	// EnvAPIKey 是 api_key 的环境变量来源。
	EnvAPIKey = "PMC_API_KEY"

	DefaultProvider     = geocode.NameNominatim
	DefaultLanguage     = "en"
	DefaultRateLimit    = 1.0
	DefaultCacheDirName = ".pmc-cache"
	DefaultLogLevel     = "info"

	ExifBackendGoexif   = "goexif"
	ExifBackendExiftool = "exiftool"
)

// CLIArgs 是 CLI 暴露的入口参数，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --dry-run=false 必须能覆盖 dry_run: true。
type CLIArgs struct {
	Input  string
	Output string

	// ConfigPath 非空时必须存在；为空时尝试 <cwd>/pmc.yaml（可选）。
	ConfigPath string

	Provider    string
	ProviderSet bool

	DryRun    bool
	DryRunSet bool

	APIKey   string
	LogLevel string
}

// FileConfig 对应 pmc.yaml 的解析结构（未知字段视为错误）。
type FileConfig struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Provider string `yaml:"provider"`

	APIKey    string       `yaml:"api_key"`
	Endpoint  string       `yaml:"endpoint"`
	Language  string       `yaml:"language"`
	UserAgent string       `yaml:"user_agent"`
	Proxy     *ProxyConfig `yaml:"proxy"`

	DryRun               *bool    `yaml:"dry_run"`
	Recursive            bool     `yaml:"recursive"`
	ExcludeDirs          []string `yaml:"exclude_dirs"`
	VideoInheritLocation bool     `yaml:"video_inherit_location"`
	ExifBackend          string   `yaml:"exif_backend"`

	Retry     *RetryConfig  `yaml:"retry"`
	RateLimit *float64      `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`

	Cache *CacheConfig `yaml:"cache"`

	LogLevel string `yaml:"log_level"`
}

type ProxyConfig struct {
	URL string `yaml:"url"`
}

type RetryConfig struct {
	Attempts int            `yaml:"attempts"`
	Backoff  *time.Duration `yaml:"backoff"`
}

type CacheConfig struct {
	Dir     string `yaml:"dir"`
	Backend string `yaml:"backend"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Input  string
	Output string

	// ConfigPath 是实际读取到的配置文件；未读取为空。
	ConfigPath string

	Provider  string
	APIKey    string
	Endpoint  string
	Language  string
	UserAgent string
	ProxyURL  string

	DryRun               bool
	Recursive            bool
	ExcludeDirs          []string
	VideoInheritLocation bool
	ExifBackend          string

	RetryAttempts int
	RetryBackoff  time.Duration
	RateLimit     float64
	Timeout       time.Duration

	CacheDir     string
	CacheBackend string

	LogLevel string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return fmt.Sprintf("%s：缺少 input/output", e.Code)
	case ErrCodeInvalid:
		if e.Err != nil {
			if e.Path == "" {
				return fmt.Sprintf("%s：%v", e.Code, e.Err)
			}
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在
// 2) 否则尝试 <cwd>/pmc.yaml（可选）
//
// 覆盖优先级（固定）：CLI > 配置文件 > 默认；api_key 为 CLI > PMC_API_KEY > 配置文件。
// 路径：CLI 参数相对 cwd；配置文件里的路径相对配置文件所在目录。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	required := false
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		required = true
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		if required {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		cfgPath = ""
	}
	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, args ...any) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}
	cfgBase := cwdAbs
	if cfgPath != "" {
		cfgBase = filepath.Dir(cfgPath)
	}

	// input/output：CLI > config
	input := absCleanFrom(cwdAbs, cli.Input)
	if input == "" {
		input = absCleanFrom(cfgBase, fc.Input)
	}
	output := absCleanFrom(cwdAbs, cli.Output)
	if output == "" {
		output = absCleanFrom(cfgBase, fc.Output)
	}
	if input == "" || output == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath, Err: errors.New("必须通过参数或配置文件提供 input 与 output")}
	}
	fi, err := os.Stat(input)
	if err != nil {
		return EffectiveConfig{}, invalid("input 不可读：%w", err)
	}
	if !fi.IsDir() {
		return EffectiveConfig{}, invalid("input 不是目录：%q", input)
	}
	if fi, err := os.Stat(output); err == nil && !fi.IsDir() {
		return EffectiveConfig{}, invalid("output 不是目录：%q", output)
	}
	if output == input {
		return EffectiveConfig{}, invalid("output 不能与 input 相同：%q", output)
	}

	// provider：CLI > config > 默认
	provider := DefaultProvider
	if cli.ProviderSet {
		provider = cli.Provider
	} else if strings.TrimSpace(fc.Provider) != "" {
		provider = fc.Provider
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return EffectiveConfig{}, invalid("provider 不能为空")
	}

	// api_key：CLI > 环境变量 > config
	apiKey := strings.TrimSpace(cli.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	}
	if apiKey == "" {
		apiKey = strings.TrimSpace(fc.APIKey)
	}
	if provider == geocode.NameGoogle && apiKey == "" {
		return EffectiveConfig{}, invalid("provider=google 需要 api_key（或环境变量 %s）", EnvAPIKey)
	}

	// dry_run：CLI > config > 默认 false
	dryRun := false
	if cli.DryRunSet {
		dryRun = cli.DryRun
	} else if fc.DryRun != nil {
		dryRun = *fc.DryRun
	}

	endpoint := strings.TrimSpace(fc.Endpoint)
	if endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, invalid("endpoint 无效：%q", endpoint)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return EffectiveConfig{}, invalid("endpoint 必须是 http/https：%q", endpoint)
		}
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return EffectiveConfig{}, invalid("proxy.url 无效：%w", err)
		}
	}

	language := strings.TrimSpace(fc.Language)
	if language == "" {
		language = DefaultLanguage
	}

	exifBackend := strings.ToLower(strings.TrimSpace(fc.ExifBackend))
	switch exifBackend {
	case "":
		exifBackend = ExifBackendGoexif
	case ExifBackendGoexif, ExifBackendExiftool:
	default:
		return EffectiveConfig{}, invalid("exif_backend 只能是 goexif 或 exiftool，实际是 %q", fc.ExifBackend)
	}

	// retry：attempts 截断到 [3, 10]；backoff 默认 2s。
	attempts := 0
	backoff := geocode.DefaultBackoff
	if fc.Retry != nil {
		attempts = fc.Retry.Attempts
		if fc.Retry.Backoff != nil {
			backoff = *fc.Retry.Backoff
		}
	}
	if attempts < 0 {
		return EffectiveConfig{}, invalid("retry.attempts 不能为负：%d", attempts)
	}
	if backoff < 0 {
		return EffectiveConfig{}, invalid("retry.backoff 不能为负：%v", backoff)
	}
	attempts = geocode.ClampAttempts(attempts)

	rateLimit := DefaultRateLimit
	if fc.RateLimit != nil {
		rateLimit = *fc.RateLimit
	}
	if rateLimit < 0 {
		return EffectiveConfig{}, invalid("rate_limit 不能为负：%v", rateLimit)
	}

	timeout := fc.Timeout
	if timeout < 0 {
		return EffectiveConfig{}, invalid("timeout 不能为负：%v", timeout)
	}
	if timeout == 0 {
		timeout = httpx.DefaultTimeout
	}

	cacheDir := filepath.Join(output, DefaultCacheDirName)
	cacheBackend := cache.BackendJSON
	if fc.Cache != nil {
		if d := absCleanFrom(cfgBase, fc.Cache.Dir); d != "" {
			cacheDir = d
		}
		if b := strings.ToLower(strings.TrimSpace(fc.Cache.Backend)); b != "" {
			cacheBackend = b
		}
	}
	if cacheBackend != cache.BackendJSON && cacheBackend != cache.BackendSQLite {
		return EffectiveConfig{}, invalid("cache.backend 只能是 json 或 sqlite，实际是 %q", cacheBackend)
	}

	logLevel := strings.TrimSpace(cli.LogLevel)
	if logLevel == "" {
		logLevel = strings.TrimSpace(fc.LogLevel)
	}
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(logLevel)); err != nil {
		return EffectiveConfig{}, invalid("log_level 无效：%q", logLevel)
	}

	excludes := make([]string, 0, len(fc.ExcludeDirs))
	for _, x := range fc.ExcludeDirs {
		if x = strings.TrimSpace(x); x != "" {
			excludes = append(excludes, x)
		}
	}

	return EffectiveConfig{
		Input:                input,
		Output:               output,
		ConfigPath:           cfgPath,
		Provider:             provider,
		APIKey:               apiKey,
		Endpoint:             endpoint,
		Language:             language,
		UserAgent:            strings.TrimSpace(fc.UserAgent),
		ProxyURL:             proxyURL,
		DryRun:               dryRun,
		Recursive:            fc.Recursive,
		ExcludeDirs:          excludes,
		VideoInheritLocation: fc.VideoInheritLocation,
		ExifBackend:          exifBackend,
		RetryAttempts:        attempts,
		RetryBackoff:         backoff,
		RateLimit:            rateLimit,
		Timeout:              timeout,
		CacheDir:             cacheDir,
		CacheBackend:         cacheBackend,
		LogLevel:             strings.ToLower(logLevel),
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若为空：返回空串
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) {
			// 空文件：等同于没有任何字段。
			return FileConfig{}, true, nil
		}
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
