package run

import (
	"time"

	"github.com/John-Robertt/PMC/internal/config"
	"github.com/John-Robertt/PMC/internal/domain"
)

const (
	PhaseScan  = "scan"
	PhaseIndex = "index"
	PhaseGroup = "group"
	PhasePlan  = "plan"
	PhaseCopy  = "copy"
)

// Observer 用于把“运行进度/阶段/条目结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 事件全部来自调用 ExecuteWithObserver 的 goroutine，按发生顺序到达。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseStart 在阶段开始时调用；total 为该阶段的条目数（未知时为 0）。
	OnPhaseStart(name string, total int)
	// OnPhaseDone 在阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnFileIndexed 在单个文件抽取完成后调用；skipped=true 时 rec 为零值。
	OnFileIndexed(idx, total int, rec domain.MediaRecord, skipped bool)
	// OnRunDone 在某个 run 的复制（或 dry-run 规划）完成时调用。
	OnRunDone(idx, total int, res domain.RunResult, dur time.Duration)
}

// nopObserver 让主流程不必到处判断 obs != nil。
type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig) {}
func (nopObserver) OnPhaseStart(string, int) {}
func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration) {}
func (nopObserver) OnFileIndexed(int, int, domain.MediaRecord, bool) {}
func (nopObserver) OnRunDone(int, int, domain.RunResult, time.Duration) {}
