package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/PMC/internal/app/run"
	"github.com/John-Robertt/PMC/internal/config"
	"github.com/John-Robertt/PMC/internal/geocode"
)

// errRunFailed 只用于让进程以非 0 退出；具体原因已经写进报告。
var errRunFailed = errors.New("运行未全部成功，详见报告")

type runFlags struct {
	configPath string
	provider   string
	apiKey     string
	logLevel   string
	dryRun     bool
	jsonOut    bool
	noProgress bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [input] [output]",
		Short: "整理 input 中的照片/视频到 output",
		Long: `扫描 input 目录，抽取每个文件的拍摄时间与 GPS 位置，按 (地点, 连续时间) 分组，
复制到 output/<日期>_<国家>_<城市>/ 下。input/output 也可以写在 pmc.yaml 中。`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := config.CLIArgs{
				ConfigPath:  f.configPath,
				Provider:    f.provider,
				ProviderSet: cmd.Flags().Changed("provider"),
				DryRun:      f.dryRun,
				DryRunSet:   cmd.Flags().Changed("dry-run"),
				APIKey:      f.apiKey,
				LogLevel:    f.logLevel,
			}
			if len(args) > 0 {
				cli.Input = args[0]
			}
			if len(args) > 1 {
				cli.Output = args[1]
			}
			return runCmd(cmd, cli, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "配置文件路径（默认读取当前目录下的 "+config.FileName+"）")
	fl.StringVar(&f.provider, "provider", config.DefaultProvider, "逆地理编码 provider（nominatim|photon|google）")
	fl.StringVar(&f.apiKey, "api-key", "", "provider API key（也可用环境变量 "+config.EnvAPIKey+"）")
	fl.StringVar(&f.logLevel, "log-level", "", "日志级别（debug|info|warn|error）")
	fl.BoolVar(&f.dryRun, "dry-run", false, "只规划，不复制也不写缓存")
	fl.BoolVar(&f.jsonOut, "json", false, "即使 stdout 是终端也输出 JSON 报告")
	fl.BoolVar(&f.noProgress, "no-progress", false, "关闭进度条")
	return cmd
}

func runCmd(cmd *cobra.Command, cli config.CLIArgs, f runFlags) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	jsonOut := f.jsonOut || !isTTY(stdout)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("读取当前目录失败：%w", err)
	}

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		emitReport(stdout, stderr, reportForConfigError(cli, err), jsonOut)
		return errRunFailed
	}

	log := newLogger(stderr, eff.LogLevel)
	reg, err := newRegistry(eff)
	if err != nil {
		return fmt.Errorf("初始化 provider registry 失败：%w", err)
	}

	var obs run.Observer
	if !f.noProgress && isTTY(stderr) {
		obs = newProgressUI(stderr)
	}

	rr := run.ExecuteWithObserver(cmd.Context(), eff, reg, obs, log)

	// dry-run 与致命错误都不落盘。
	if !eff.DryRun && rr.Error == nil {
		if err := writeReportFile(eff.CacheDir, rr); err != nil {
			log.Error().Err(err).Msg("写入 report.json 失败")
			emitReport(stdout, stderr, rr, jsonOut)
			return errRunFailed
		}
	}

	emitReport(stdout, stderr, rr, jsonOut)
	if obs != nil {
		emitLocations(stderr, eff)
	}
	if !rr.OK() {
		return errRunFailed
	}
	return nil
}

func newRegistry(eff config.EffectiveConfig) (geocode.Registry, error) {
	opts := geocode.ProviderOptions{
		Language: eff.Language,
		APIKey:   eff.APIKey,
	}
	if eff.Endpoint != "" {
		opts.Endpoints = map[string]string{eff.Provider: eff.Endpoint}
	}
	return geocode.NewRegistry(geocode.Builtin(opts)...)
}

// newLogger 把结构化日志写到 stderr；stdout 留给 JSON 报告。
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := w
	if isTTY(w) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
