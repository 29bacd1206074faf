package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/PMC/internal/domain"
	"github.com/John-Robertt/PMC/internal/infra/cache"
)

const (
	MinAttempts     = 3
	MaxAttempts     = 10
	DefaultAttempts = MinAttempts
	DefaultBackoff  = 2 * time.Second
)

// ClampAttempts 把尝试次数限制在 [MinAttempts, MaxAttempts]；0 表示默认值。
func ClampAttempts(n int) int {
	switch {
	case n == 0:
		return DefaultAttempts
	case n < MinAttempts:
		return MinAttempts
	case n > MaxAttempts:
		return MaxAttempts
	default:
		return n
	}
}

// Outcome 是一次解析的结果标签。
type Outcome int

const (
	Resolved Outcome = iota + 1
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "invalid"
	}
}

// Result 是 Resolve 的返回值：Resolved(Location) 或 Failed(Reason)。
type Result struct {
	Outcome  Outcome
	Location domain.Location
	Reason   error
	Attempts int  // 本次实际发出的请求数（命中缓存时为 0）
	Cached   bool // 来自内存或持久化缓存
}

func (r Result) OK() bool { return r.Outcome == Resolved }

// Sleeper 在两次尝试之间等待 d；ctx 取消时应尽快返回错误。
type Sleeper func(ctx context.Context, d time.Duration) error

type Options struct {
	Attempts int
	Backoff  time.Duration
	Sleep    Sleeper

	// Places 为可选的持久化缓存（跨运行复用成功结果）。
	Places cache.Store

	Log zerolog.Logger
}

// Resolver 把坐标解析为 (country, city)，内置有界重试与两级缓存。
//
// 单线程使用：内部 map 不加锁。
type Resolver struct {
	provider Provider
	client   *http.Client

	attempts int
	backoff  time.Duration
	sleep    Sleeper
	places   cache.Store
	log      zerolog.Logger

	mem map[string]Result
}

func NewResolver(p Provider, c *http.Client, opts Options) *Resolver {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	backoff := opts.Backoff
	if backoff < 0 {
		backoff = 0
	}
	return &Resolver{
		provider: p,
		client:   c,
		attempts: ClampAttempts(opts.Attempts),
		backoff:  backoff,
		sleep:    sleep,
		places:   opts.Places,
		log:      opts.Log,
		mem:      make(map[string]Result, 64),
	}
}

func (r *Resolver) ProviderName() string { return r.provider.Name() }

// CoordKey 把坐标四舍五入到 6 位小数（约 0.11 米）作为内存缓存键。
func CoordKey(lat, lon float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lon)
}

// Resolve 解析坐标。
//
// - 内存缓存命中：不访问网络，也不读持久化缓存
// - 持久化缓存命中：写入内存缓存后返回
// - 否则最多发出 attempts 次请求，两次请求之间固定 sleep backoff；ErrNoResult 同样重试
// - 用尽后返回 Failed（不落持久化缓存；本次运行内记入内存，避免同一坐标反复重试）
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) Result {
	ck := CoordKey(lat, lon)
	if res, ok := r.mem[ck]; ok {
		res.Cached = true
		res.Attempts = 0
		return res
	}

	durableKey := cache.Key(r.provider.Name(), ck)
	if loc, ok := r.readPlace(durableKey); ok {
		res := Result{Outcome: Resolved, Location: loc, Cached: true}
		r.mem[ck] = res
		return res
	}

	res := r.query(ctx, lat, lon)
	r.mem[ck] = res
	if res.OK() {
		r.log.Info().
			Str("provider", r.provider.Name()).
			Str("country", res.Location.Country).
			Str("city", res.Location.City).
			Msg("新位置查询完成")
		r.writePlace(durableKey, res.Location)
	}
	return res
}

// Locate 是 Resolve 的宽松版本：失败一律降级为 Unknown/Unknown，保证批处理继续推进。
// ok=false 表示本次结果是降级得到的（调用方不应把它当作确定结果长期缓存）。
func (r *Resolver) Locate(ctx context.Context, lat, lon float64) (loc domain.Location, ok bool) {
	res := r.Resolve(ctx, lat, lon)
	if res.OK() {
		return res.Location, true
	}
	if res.Attempts > 0 {
		r.log.Warn().
			Float64("lat", lat).
			Float64("lon", lon).
			Int("attempts", res.Attempts).
			Err(res.Reason).
			Msg("逆地理编码失败，位置降级为 Unknown")
	}
	return domain.UnknownLocation(), false
}

func (r *Resolver) query(ctx context.Context, lat, lon float64) Result {
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			if err := r.sleep(ctx, r.backoff); err != nil {
				lastErr = err
				break
			}
		}

		attempts++
		loc, err := r.provider.Reverse(ctx, r.client, lat, lon)
		if err == nil {
			return Result{Outcome: Resolved, Location: loc.Normalize(), Attempts: attempts}
		}

		stage := "fetch"
		if errors.Is(err, ErrNoResult) {
			stage = "empty"
		}
		lastErr = &Error{Provider: r.provider.Name(), Stage: stage, Attempt: attempt, Err: err}
		r.log.Debug().Err(lastErr).Msg("逆地理编码请求失败")

		if ctx.Err() != nil {
			// ctx 已取消：不再重试，直接返回最后错误（更可解释）。
			break
		}
	}
	if lastErr == nil {
		lastErr = errors.New("无可用尝试")
	}
	return Result{Outcome: Failed, Location: domain.UnknownLocation(), Reason: lastErr, Attempts: attempts}
}

func (r *Resolver) readPlace(key string) (domain.Location, bool) {
	if r.places == nil {
		return domain.Location{}, false
	}
	b, ok, err := r.places.Get(key)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("读取位置缓存失败，改为在线查询")
		return domain.Location{}, false
	}
	if !ok {
		return domain.Location{}, false
	}
	var loc domain.Location
	if err := json.Unmarshal(b, &loc); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("位置缓存条目无法解码，改为在线查询")
		return domain.Location{}, false
	}
	return loc.Normalize(), true
}

func (r *Resolver) writePlace(key string, loc domain.Location) {
	if r.places == nil {
		return
	}
	b, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := r.places.Put(key, b); err != nil && !errors.Is(err, cache.ErrReadOnly) {
		r.log.Warn().Err(err).Str("key", key).Msg("写入位置缓存失败")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
