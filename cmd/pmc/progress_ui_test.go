package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/PMC/internal/app/run"
	"github.com/John-Robertt/PMC/internal/config"
	"github.com/John-Robertt/PMC/internal/domain"
)

func TestProgressUI_PhaseLines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	p.OnStart(config.EffectiveConfig{Input: "/in", Output: "/out", Provider: "nominatim", DryRun: true})
	p.OnPhaseStart(run.PhaseScan, 0)
	p.OnPhaseDone(run.PhaseScan, map[string]any{"files": 3}, time.Second)
	p.OnPhaseStart(run.PhaseIndex, 3)
	for i := 1; i <= 3; i++ {
		p.OnFileIndexed(i, 3, domain.MediaRecord{}, i == 3)
	}
	p.OnPhaseDone(run.PhaseIndex, map[string]any{"records": 2, "skipped": 1}, time.Second)
	p.OnPhaseStart(run.PhaseCopy, 1)
	p.OnRunDone(1, 1, domain.RunResult{Label: "2024-01-01_france_paris", Status: domain.StatusFailed, ErrorCode: domain.ErrCodeTargetConflict, ErrorMsg: "冲突"}, 0)
	p.OnPhaseDone(run.PhaseCopy, map[string]any{"copied": 0, "failed": 1, "dry": true}, 0)

	out := buf.String()
	for _, want := range []string{
		"mode: dry-run",
		"扫描: files=3",
		"索引: records=2 skipped=1",
		"[1/1] 2024-01-01_france_paris FAIL target_conflict: 冲突",
		"复制(dry-run): copied=0 failed=1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
	if p.bar != nil {
		t.Fatalf("阶段结束后进度条应被释放")
	}
}

func TestFormatProxy(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "off"},
		{"http://127.0.0.1:7890", "on (http://127.0.0.1:7890, auth=off)"},
		{"socks5://u:p@proxy:1080", "on (socks5://proxy:1080, auth=on)"},
	}
	for _, c := range cases {
		if got := formatProxy(c.in); got != c.want {
			t.Fatalf("formatProxy(%q)=%q，期望 %q", c.in, got, c.want)
		}
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	if got := truncate("巴黎巴黎巴黎巴黎", 5); got != "巴黎..." {
		t.Fatalf("truncate 不符合预期：%q", got)
	}
	if got := truncate("paris", 10); got != "paris" {
		t.Fatalf("短字符串不应截断：%q", got)
	}
}
