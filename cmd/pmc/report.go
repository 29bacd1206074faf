package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/John-Robertt/PMC/internal/config"
	"github.com/John-Robertt/PMC/internal/domain"
	"github.com/John-Robertt/PMC/internal/infra/fsx"
)

const reportFileName = "report.json"

// emitReport 输出最终报告。
//
// - jsonOut：stdout 必须且仅输出一个 RunReport JSON，摘要走 stderr
// - 否则：stdout 打印一行摘要，失败明细写 stderr
func emitReport(stdout, stderr io.Writer, rr domain.RunReport, jsonOut bool) {
	summary := fmt.Sprintf("完成：files=%d runs=%d copied=%d skipped=%d failed=%d",
		rr.Summary.Files, rr.Summary.Runs, rr.Summary.Copied, rr.Summary.Skipped, rr.Summary.Failed,
	)

	if jsonOut {
		_ = json.NewEncoder(stdout).Encode(rr)
		fmt.Fprintln(stderr, summary)
		if rr.Error != nil {
			fmt.Fprintf(stderr, "%s: %s\n", rr.Error.Code, rr.Error.Msg)
		}
		return
	}

	fmt.Fprintln(stdout, summary)
	if rr.Error != nil {
		fmt.Fprintf(stderr, "%s: %s\n", rr.Error.Code, rr.Error.Msg)
	}
	for _, r := range rr.Runs {
		if r.Status != domain.StatusFailed {
			continue
		}
		fmt.Fprintf(stderr, "%s %s: %s\n", r.Label, r.ErrorCode, r.ErrorMsg)
	}
	for _, s := range rr.Skipped {
		fmt.Fprintf(stderr, "%s %s: %s\n", s.Src, s.ErrorCode, s.ErrorMsg)
	}
}

func reportForConfigError(cli config.CLIArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	code := config.Code(err)
	if code == "" {
		code = domain.ErrCodeConfigInvalid
	}
	rr := domain.RunReport{
		Input:      cli.Input,
		Output:     cli.Output,
		Provider:   cli.Provider,
		DryRun:     cli.DryRunSet && cli.DryRun,
		StartedAt:  now,
		FinishedAt: now,
		Error:      &domain.ReportError{Code: code, Msg: err.Error()},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(cacheDir string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(cacheDir, reportFileName, b)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// emitLocations 在交互终端里提示产物位置，不影响 stdout 的 JSON 契约。
func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	if !eff.DryRun {
		fmt.Fprintf(w, "report: %s\n", filepath.Join(eff.CacheDir, reportFileName))
	}
	fmt.Fprintf(w, "out: %s\n", eff.Output)
}
