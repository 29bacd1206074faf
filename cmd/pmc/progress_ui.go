package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/John-Robertt/PMC/internal/app/run"
	"github.com/John-Robertt/PMC/internal/config"
	"github.com/John-Robertt/PMC/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出：阶段摘要一行一条，index/copy 两个长阶段用进度条。
//
// 所有输出写到 w（通常是 stderr），不污染 stdout 的 JSON 报告。
type progressUI struct {
	w   io.Writer
	bar *progressbar.ProgressBar

	// barOptions 允许测试关闭节流/动画，得到确定的输出。
	barOptions []progressbar.Option
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w: w,
		barOptions: []progressbar.Option{
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65 * time.Millisecond),
			progressbar.OptionClearOnFinish(),
		},
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	mode := "copy"
	if eff.DryRun {
		mode = "dry-run (不复制/不写缓存)"
	}
	fmt.Fprintf(p.w, "[%s] pmc run\n", time.Now().Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  input: %s\n", eff.Input)
	fmt.Fprintf(p.w, "  output: %s\n", eff.Output)
	if eff.ConfigPath != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigPath)
	}
	fmt.Fprintf(p.w, "  mode: %s\n", mode)
	fmt.Fprintf(p.w, "  provider: %s (language=%s, rate_limit=%g/s, retry=%d×%s)\n",
		eff.Provider, eff.Language, eff.RateLimit, eff.RetryAttempts, eff.RetryBackoff,
	)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintf(p.w, "  exif_backend: %s\n", eff.ExifBackend)
	fmt.Fprintf(p.w, "  cache: %s (%s)\n", eff.CacheDir, eff.CacheBackend)
	fmt.Fprintf(p.w, "  recursive: %s\n", onOff(eff.Recursive))
	fmt.Fprintf(p.w, "  exclude_dirs: %s\n", formatStringListJSON(eff.ExcludeDirs))
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseStart(name string, total int) {
	switch name {
	case run.PhaseIndex:
		p.startBar(total, "索引")
	case run.PhaseCopy:
		p.startBar(total, "复制")
	}
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.finishBar()

	switch name {
	case run.PhaseScan:
		fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", intField(fields, "files"), formatShortDuration(dur))
	case run.PhaseIndex:
		fmt.Fprintf(p.w, "索引: records=%d skipped=%d cached=%d inherited=%d (%s)\n",
			intField(fields, "records"),
			intField(fields, "skipped"),
			intField(fields, "cached"),
			intField(fields, "inherited"),
			formatShortDuration(dur),
		)
	case run.PhaseGroup:
		fmt.Fprintf(p.w, "分组: runs=%d (%s)\n", intField(fields, "runs"), formatShortDuration(dur))
	case run.PhasePlan:
		fmt.Fprintf(p.w, "规划: runs=%d copies=%d unchanged=%d failed=%d (%s)\n",
			intField(fields, "runs"),
			intField(fields, "copies"),
			intField(fields, "unchanged"),
			intField(fields, "failed"),
			formatShortDuration(dur),
		)
	case run.PhaseCopy:
		verb := "复制"
		if dry, _ := fields["dry"].(bool); dry {
			verb = "复制(dry-run)"
		}
		fmt.Fprintf(p.w, "%s: copied=%d failed=%d (%s)\n",
			verb, intField(fields, "copied"), intField(fields, "failed"), formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnFileIndexed(idx, total int, rec domain.MediaRecord, skipped bool) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *progressUI) OnRunDone(idx, total int, res domain.RunResult, dur time.Duration) {
	if res.Status == domain.StatusFailed {
		// 失败行不能被进度条覆盖：先清掉当前行。
		if p.bar != nil {
			_ = p.bar.Clear()
		}
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL %s: %s (%s)\n",
			idx, total, res.Label, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	}
	if p.bar == nil {
		return
	}
	p.bar.Describe(truncate(res.Label, 40))
	_ = p.bar.Add(1)
}

func (p *progressUI) startBar(total int, desc string) {
	p.finishBar()
	if total <= 0 {
		return
	}
	opts := append([]progressbar.Option{
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(desc),
	}, p.barOptions...)
	p.bar = progressbar.NewOptions(total, opts...)
}

func (p *progressUI) finishBar() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) => "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
