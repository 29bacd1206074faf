package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestRunReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := RunReport{
		Input:      "/abs/in",
		Output:     "/abs/out",
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Runs: []RunResult{
			{Label: "2024-01-03", Status: StatusProcessed, Files: []FileResult{
				{Src: "b.jpg", Status: FileStatusCopied},
				{Src: "c.jpg", Status: FileStatusUnchanged},
			}},
			{Label: "2024-01-01", Status: StatusFailed, Files: []FileResult{
				{Src: "a.jpg", Status: FileStatusFailed},
			}},
		},
		Skipped: []SkippedFile{
			{Src: "z.txt", ErrorCode: ErrCodeUnsupportedType},
			{Src: "notes.md", ErrorCode: ErrCodeUnsupportedType},
		},
	}

	r.Finalize()

	// runs 保持时间顺序（不重排）；skipped 按 src 排序。
	if r.Runs[0].Label != "2024-01-03" || r.Runs[1].Label != "2024-01-01" {
		t.Fatalf("runs 顺序不应被改变：%v", []string{r.Runs[0].Label, r.Runs[1].Label})
	}
	if r.Skipped[0].Src != "notes.md" || r.Skipped[1].Src != "z.txt" {
		t.Fatalf("skipped 排序不符合契约：%v", []string{r.Skipped[0].Src, r.Skipped[1].Src})
	}
	want := ReportSummary{Files: 5, Runs: 2, Copied: 1, Skipped: 2, Failed: 1}
	if r.Summary != want {
		t.Fatalf("summary 统计不正确：%+v", r.Summary)
	}
	if r.OK() {
		t.Fatalf("存在失败 run 时 OK() 应为 false")
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
	if bytes.Contains(b, []byte("\"error\"")) {
		t.Fatalf("无致命错误时不应输出 error 字段：%s", string(b))
	}
}

func TestRunReport_Finalize_EmptySlicesNotNull(t *testing.T) {
	var r RunReport
	r.Finalize()

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte(`"runs":[]`)) || !bytes.Contains(b, []byte(`"skipped":[]`)) {
		t.Fatalf("空列表应输出 []：%s", string(b))
	}
	if !r.OK() {
		t.Fatalf("空报告应视为 OK")
	}
}
