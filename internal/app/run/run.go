package run

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/PMC/internal/app"
	"github.com/John-Robertt/PMC/internal/app/planner"
	"github.com/John-Robertt/PMC/internal/config"
	"github.com/John-Robertt/PMC/internal/domain"
	"github.com/John-Robertt/PMC/internal/geocode"
	"github.com/John-Robertt/PMC/internal/infra/cache"
	"github.com/John-Robertt/PMC/internal/infra/fsx"
	"github.com/John-Robertt/PMC/internal/infra/httpx"
	"github.com/John-Robertt/PMC/internal/media"
	"github.com/John-Robertt/PMC/internal/scan"
)

// Execute 执行一次 run（dry-run/实际复制），并返回对外稳定的 RunReport。
func Execute(ctx context.Context, eff config.EffectiveConfig, reg geocode.Registry) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, reg, nil, zerolog.Nop())
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 与 logger（由上层决定是否启用）。
//
// 错误分两类：
// - 致命错误（provider 未知、缓存损坏、扫描失败、取消）：写入 RunReport.Error，立即结束
// - 单文件/单 run 错误：降级为 skipped 或失败的 run，批处理继续
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, reg geocode.Registry, obs Observer, log zerolog.Logger) domain.RunReport {
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(eff)

	rr := domain.RunReport{
		Input:     eff.Input,
		Output:    eff.Output,
		Provider:  eff.Provider,
		DryRun:    eff.DryRun,
		StartedAt: time.Now().UTC(),
		Runs:      make([]domain.RunResult, 0, 16),
		Skipped:   make([]domain.SkippedFile, 0, 8),
	}
	fatal := func(code string, err error) domain.RunReport {
		log.Error().Err(err).Str("error_code", code).Msg("运行中止")
		rr.Error = &domain.ReportError{Code: code, Msg: err.Error()}
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	p, err := reg.Lookup(eff.Provider)
	if err != nil {
		return fatal(domain.ErrCodeProviderUnknown, err)
	}

	stores, err := cache.OpenStores(eff.CacheDir, eff.CacheBackend, eff.DryRun)
	if err != nil {
		return fatal(cacheErrCode(err), err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Warn().Err(err).Msg("关闭缓存失败")
		}
	}()
	if err := stores.Load(); err != nil {
		return fatal(cacheErrCode(err), err)
	}

	client, err := httpx.NewClient(httpx.Options{
		ProxyURL:   eff.ProxyURL,
		UserAgent:  eff.UserAgent,
		Timeout:    eff.Timeout,
		RatePerSec: eff.RateLimit,
	})
	if err != nil {
		return fatal(domain.ErrCodeConfigInvalid, fmt.Errorf("proxy.url 无效：%w", err))
	}

	reader, closeReader, err := newExifReader(eff.ExifBackend)
	if err != nil {
		return fatal(domain.ErrCodeConfigInvalid, err)
	}
	defer closeReader()

	resolver := geocode.NewResolver(p, client, geocode.Options{
		Attempts: eff.RetryAttempts,
		Backoff:  eff.RetryBackoff,
		Places:   stores.Places,
		Log:      log.With().Str("component", "geocode").Logger(),
	})
	ex := &media.Extractor{
		Reader:   reader,
		Locator:  resolver,
		Provider: p.Name(),
		Media:    stores.Media,
		Coords:   stores.Coords,
		Log:      log.With().Str("component", "media").Logger(),
	}

	// scan
	obs.OnPhaseStart(PhaseScan, 0)
	scanStarted := time.Now()
	excludes := append(append([]string(nil), eff.ExcludeDirs...), eff.Output, eff.CacheDir)
	files, err := scan.ListMedia(eff.Input, scan.Options{Recursive: eff.Recursive, ExcludeDirs: excludes})
	if err != nil {
		return fatal(domain.ErrCodeIOFailed, fmt.Errorf("扫描失败：%w", err))
	}
	obs.OnPhaseDone(PhaseScan, map[string]any{"files": len(files)}, time.Since(scanStarted))

	absToRel := make(map[string]string, len(files))
	for i := range files {
		absToRel[files[i].AbsPath] = files[i].RelPath
	}

	// index
	obs.OnPhaseStart(PhaseIndex, len(files))
	indexStarted := time.Now()
	records := make([]domain.MediaRecord, 0, len(files))
	var cachedN int
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return fatal(domain.ErrCodeCanceled, err)
		}

		if f.Hidden {
			log.Info().Str("path", f.AbsPath).Msg("跳过隐藏文件")
			rr.Skipped = append(rr.Skipped, domain.SkippedFile{Src: f.RelPath, ErrorCode: domain.ErrCodeHiddenFile, ErrorMsg: "隐藏文件不参与整理"})
			obs.OnFileIndexed(i+1, len(files), domain.MediaRecord{}, true)
			continue
		}

		rec, cached, err := ex.Extract(ctx, f)
		switch {
		case errors.Is(err, media.ErrUnsupported):
			log.Info().Str("path", f.AbsPath).Msg("跳过不支持的文件类型")
			rr.Skipped = append(rr.Skipped, domain.SkippedFile{Src: f.RelPath, ErrorCode: domain.ErrCodeUnsupportedType, ErrorMsg: "不支持的文件类型：" + f.Ext})
			obs.OnFileIndexed(i+1, len(files), domain.MediaRecord{}, true)
			continue
		case cache.IsCorrupt(err):
			return fatal(domain.ErrCodeCacheCorrupt, err)
		case err != nil:
			log.Warn().Err(err).Str("path", f.AbsPath).Msg("元数据抽取失败，跳过")
			rr.Skipped = append(rr.Skipped, domain.SkippedFile{Src: f.RelPath, ErrorCode: domain.ErrCodeExtractFailed, ErrorMsg: err.Error()})
			obs.OnFileIndexed(i+1, len(files), domain.MediaRecord{}, true)
			continue
		}
		if cached {
			cachedN++
		}
		records = append(records, rec)
		obs.OnFileIndexed(i+1, len(files), rec, false)
	}
	inherited := 0
	if eff.VideoInheritLocation {
		inherited = app.InheritVideoLocations(records)
	}
	obs.OnPhaseDone(PhaseIndex, map[string]any{
		"records":   len(records),
		"skipped":   len(rr.Skipped),
		"cached":    cachedN,
		"inherited": inherited,
	}, time.Since(indexStarted))

	// group
	obs.OnPhaseStart(PhaseGroup, len(records))
	groupStarted := time.Now()
	app.SortRecords(records)
	runs := app.GroupRuns(records)
	obs.OnPhaseDone(PhaseGroup, map[string]any{"runs": len(runs)}, time.Since(groupStarted))

	// plan
	obs.OnPhaseStart(PhasePlan, len(runs))
	planStarted := time.Now()
	items := planRuns(eff.Output, runs)
	var copies, unchanged, planFailed int
	for _, it := range items {
		if it.err != nil {
			planFailed++
			continue
		}
		for _, c := range it.plan.Copies {
			copies++
			if c.Unchanged {
				unchanged++
			}
		}
	}
	obs.OnPhaseDone(PhasePlan, map[string]any{
		"runs":      len(items),
		"copies":    copies,
		"unchanged": unchanged,
		"failed":    planFailed,
	}, time.Since(planStarted))

	// copy（dry-run 只输出计划）
	obs.OnPhaseStart(PhaseCopy, len(items))
	copyStarted := time.Now()
	var copied, failed int
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return fatal(domain.ErrCodeCanceled, err)
		}
		oneStarted := time.Now()
		res := execRun(ctx, eff, it, absToRel, log)
		for _, f := range res.Files {
			if f.Status == domain.FileStatusCopied {
				copied++
			}
		}
		if res.Status == domain.StatusFailed {
			failed++
			log.Warn().Str("label", res.Label).Str("error_code", res.ErrorCode).Msg(res.ErrorMsg)
		}
		rr.Runs = append(rr.Runs, res)
		obs.OnRunDone(i+1, len(items), res, time.Since(oneStarted))
		if res.ErrorCode == domain.ErrCodeCanceled {
			return fatal(domain.ErrCodeCanceled, ctx.Err())
		}
	}
	obs.OnPhaseDone(PhaseCopy, map[string]any{
		"copied": copied,
		"failed": failed,
		"dry":    eff.DryRun,
	}, time.Since(copyStarted))

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

// planItem 是单个 run 的规划结果；err 非空表示规划失败（该 run 直接失败）。
type planItem struct {
	run  domain.Run
	plan domain.RunPlan
	err  error
}

func planRuns(outRoot string, runs []domain.Run) []planItem {
	// 标签相同的 run 共享同一个 OutState，保证名字分配不冲突。
	states := make(map[string]*domain.OutState, len(runs))
	stateErrs := make(map[string]error)

	items := make([]planItem, 0, len(runs))
	for _, r := range runs {
		dir := planner.OutDir(outRoot, r)
		if err, ok := stateErrs[dir]; ok {
			items = append(items, planItem{run: r, err: err})
			continue
		}
		st, ok := states[dir]
		if !ok {
			s, err := planner.ReadOutState(dir)
			if err != nil {
				stateErrs[dir] = err
				items = append(items, planItem{run: r, err: err})
				continue
			}
			st = &s
			states[dir] = st
		}

		p, err := planner.PlanRun(outRoot, r, st)
		items = append(items, planItem{run: r, plan: p, err: err})
	}
	return items
}

func execRun(ctx context.Context, eff config.EffectiveConfig, it planItem, absToRel map[string]string, log zerolog.Logger) domain.RunResult {
	res := newRunResult(eff, it, absToRel)
	if it.err != nil {
		failRun(&res, 0, fsErrCode(it.err, domain.ErrCodeIOFailed), fmt.Sprintf("规划失败：%v", it.err))
		return res
	}
	if eff.DryRun {
		return res
	}
	if err := ctx.Err(); err != nil {
		failRun(&res, 0, domain.ErrCodeCanceled, err.Error())
		return res
	}

	if err := fsx.EnsureDir(it.plan.OutDir); err != nil {
		failRun(&res, 0, fsErrCode(err, domain.ErrCodeIOFailed), fmt.Sprintf("创建目录失败：%v", err))
		return res
	}

	for i, c := range it.plan.Copies {
		if err := ctx.Err(); err != nil {
			failRun(&res, i, domain.ErrCodeCanceled, err.Error())
			return res
		}
		if c.Unchanged {
			continue
		}
		if err := fsx.CopyFile(c.SrcAbs, c.DstAbs); err != nil {
			failRun(&res, i, fsErrCode(err, domain.ErrCodeCopyFailed), fmt.Sprintf("复制 %q 失败：%v", c.SrcAbs, err))
			return res
		}
		res.Files[i].Status = domain.FileStatusCopied
		log.Debug().Str("src", c.SrcAbs).Str("dst", c.DstAbs).Msg("已复制")
	}
	return res
}

func newRunResult(eff config.EffectiveConfig, it planItem, absToRel map[string]string) domain.RunResult {
	r := it.run
	res := domain.RunResult{
		Label:   app.RunLabel(r),
		Dir:     planner.OutDir(eff.Output, r),
		Country: r.Location.Country,
		City:    r.Location.City,
		Start:   r.Start.String(),
		End:     r.End.String(),
		Status:  domain.StatusProcessed,
		Files:   make([]domain.FileResult, 0, len(r.Records)),
	}
	if eff.DryRun {
		res.Status = domain.StatusPlanned
	}

	for i, rec := range r.Records {
		fr := domain.FileResult{
			Src:        relOr(absToRel, rec.Path),
			Date:       rec.Date.String(),
			DateSource: rec.DateSource,
			Status:     domain.FileStatusPlanned,
		}
		if it.err == nil && i < len(it.plan.Copies) {
			c := it.plan.Copies[i]
			fr.Dst = relTo(eff.Output, c.DstAbs)
			if c.Unchanged {
				fr.Status = domain.FileStatusUnchanged
			}
		}
		res.Files = append(res.Files, fr)
	}
	return res
}

// failRun 把 run 标记为失败：from 之后尚未完成的文件一律 failed。
func failRun(res *domain.RunResult, from int, code, msg string) {
	res.Status = domain.StatusFailed
	res.ErrorCode = code
	res.ErrorMsg = msg
	for i := from; i < len(res.Files); i++ {
		if res.Files[i].Status == domain.FileStatusPlanned {
			res.Files[i].Status = domain.FileStatusFailed
		}
	}
}

func fsErrCode(err error, fallback string) string {
	if fsx.IsPathTypeConflict(err) {
		return domain.ErrCodeTargetConflict
	}
	return fallback
}

func cacheErrCode(err error) string {
	if cache.IsCorrupt(err) {
		return domain.ErrCodeCacheCorrupt
	}
	return domain.ErrCodeConfigInvalid
}

func newExifReader(backend string) (media.ExifReader, func(), error) {
	switch backend {
	case "", config.ExifBackendGoexif:
		return media.GoexifReader{}, func() {}, nil
	case config.ExifBackendExiftool:
		r, err := media.NewExiftoolReader()
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("未知 exif_backend：%q", backend)
	}
}

func relOr(absToRel map[string]string, abs string) string {
	if rel, ok := absToRel[abs]; ok {
		return rel
	}
	return abs
}

func relTo(base, p string) string {
	if rel, err := filepath.Rel(base, p); err == nil {
		return rel
	}
	return p
}
