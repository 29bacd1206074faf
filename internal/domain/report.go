package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusProcessed = "processed"
	StatusPlanned   = "planned"
	StatusFailed    = "failed"
)

const (
	FileStatusPlanned   = "planned"
	FileStatusCopied    = "copied"
	FileStatusUnchanged = "unchanged"
	FileStatusFailed    = "failed"
)

const (
	ErrCodeUnsupportedType   = "unsupported_type"
	ErrCodeHiddenFile        = "hidden_file"
	ErrCodeExtractFailed     = "extract_failed"
	ErrCodeTargetConflict    = "target_conflict"
	ErrCodeIOFailed          = "io_failed"
	ErrCodeCopyFailed        = "copy_failed"
	ErrCodeCacheCorrupt      = "cache_corrupt"
	ErrCodeProviderUnknown   = "provider_unknown"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
	ErrCodeCanceled          = "canceled"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	Input    string `json:"input"`
	Output   string `json:"output"`
	Provider string `json:"provider"`
	DryRun   bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Error 非空表示整次运行在开始工作前就被中止（配置/缓存等致命错误）。
	Error *ReportError `json:"error,omitempty"`

	Summary ReportSummary `json:"summary"`
	Runs    []RunResult   `json:"runs"`
	Skipped []SkippedFile `json:"skipped"`
}

type ReportError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

type ReportSummary struct {
	Files   int `json:"files"`
	Runs    int `json:"runs"`
	Copied  int `json:"copied"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// RunResult 对应输出目录中的一个 run 文件夹。
type RunResult struct {
	Label   string `json:"label"`
	Dir     string `json:"dir"`
	Country string `json:"country"`
	City    string `json:"city"`
	Start   string `json:"start"`
	End     string `json:"end"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Files []FileResult `json:"files"`
}

type FileResult struct {
	Src        string `json:"src"`
	Dst        string `json:"dst"`
	Date       string `json:"date"`
	DateSource string `json:"date_source"`
	Status     string `json:"status"`
}

// SkippedFile 记录未进入任何 run 的输入文件及原因（保证“不静默丢文件”）。
type SkippedFile struct {
	Src       string `json:"src"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) skipped 稳定排序：按 src 字典序；runs 保持时间顺序不动
// 3) summary 由 runs/skipped 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Runs == nil {
		r.Runs = []RunResult{}
	}
	if r.Skipped == nil {
		r.Skipped = []SkippedFile{}
	}

	sort.SliceStable(r.Skipped, func(i, j int) bool { return r.Skipped[i].Src < r.Skipped[j].Src })

	s := ReportSummary{
		Runs:    len(r.Runs),
		Skipped: len(r.Skipped),
	}
	for _, it := range r.Runs {
		s.Files += len(it.Files)
		if it.Status == StatusFailed {
			s.Failed++
		}
		for _, f := range it.Files {
			if f.Status == FileStatusCopied {
				s.Copied++
			}
		}
	}
	s.Files += len(r.Skipped)
	r.Summary = s
}

// OK 表示运行没有致命错误且没有失败的 run。
func (r RunReport) OK() bool {
	return r.Error == nil && r.Summary.Failed == 0
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
