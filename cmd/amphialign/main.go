package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	cfgpkg "amphialign/internal/config"
	"amphialign/internal/diag"
	"amphialign/internal/pipeline"
)

var pipelineRun = pipeline.Run

// 退出码
const (
	exitOK     = 0
	exitRun    = 1
	exitConfig = 3
)

// CLI：读取窗口内的平行语料，对齐两侧 token 并导出 JSONL。
// 全局旗标：--config, --offset, --limit, --concurrency, --output, --log-level, --status, --init-config
func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()
	corrID := diag.NewCorrID()
	// 在任何 ENV 读取前加载工作目录下的 .env；godotenv.Load 不覆盖已有 ENV。
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		fprintf(os.Stderr, "提示：.env 解析失败（已跳过）：%v\n", err)
	}
	// 先用默认级别，合并配置后重建
	logger := diag.NewLogger(corrID, "info")
	defer func() { _ = logger.Close() }()

	var (
		flagConfig      string
		flagOffset      int
		flagLimit       int
		flagConcurrency int
		flagOutput      string
		flagLogLevel    string
		flagInitDir     string
		flagStatus      bool
	)
	flag.StringVar(&flagConfig, "config", "", "配置文件路径（JSON）；缺省读取 ./config.json（若存在）")
	flag.IntVar(&flagOffset, "offset", -1, "跳过的语料行数（覆盖配置）")
	flag.IntVar(&flagLimit, "limit", -1, "最多处理的行数；0 表示不限（覆盖配置）")
	flag.IntVar(&flagConcurrency, "concurrency", 0, "对齐并发度（覆盖配置）")
	flag.StringVar(&flagOutput, "output", "", "导出产物名（覆盖配置）")
	flag.StringVar(&flagLogLevel, "log-level", "", "日志级别 debug|info|warn|error（覆盖配置）")
	flag.StringVar(&flagInitDir, "init-config", "", "在指定目录生成 config.json 与 .env 模板（已存在则跳过）；不带值时为当前目录")
	flag.BoolVar(&flagStatus, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
	normalizeInitArg()
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		return exitConfig
	}

	// --init-config: 生成模板并退出
	if initDir := strings.TrimSpace(flagInitDir); initDir != "" {
		if err := initConfig(initDir); err != nil {
			fprintf(os.Stderr, "生成默认配置失败: %v\n", err)
			logger.Error("cli", diag.Classify(err), "init-config failed", &start)
			return exitConfig
		}
		return exitOK
	}

	cfg, err := loadConfig(flagConfig)
	if err != nil {
		fprintf(os.Stderr, "配置解析失败: %v\n", err)
		logger.Error("cli", diag.Classify(err), "config failed", &start)
		return exitConfig
	}

	// CLI 覆盖
	var overCLI cfgpkg.Config
	if flagLimit >= 0 {
		overCLI.Limit = &flagLimit
	}
	if flagConcurrency > 0 {
		overCLI.Concurrency = flagConcurrency
	}
	overCLI.Output = flagOutput
	overCLI.Logging.Level = flagLogLevel
	cfg = cfgpkg.Merge(cfg, overCLI)
	if flagOffset >= 0 {
		cfg.Offset = flagOffset
	}

	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(os.Stderr, "配置校验失败: %v\n", err)
		_ = dumpConfig(cfg)
		logger.Error("cli", diag.Classify(err), "validate failed", &start)
		return exitConfig
	}

	// 使用最终配置中的日志级别重建 logger
	_ = logger.Close()
	logger = diag.NewLogger(corrID, cfg.Logging.Level)

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(os.Stderr, "装配失败: %v\n", err)
		logger.Error("cli", diag.Classify(err), "assemble failed", &start)
		return exitConfig
	}

	term := diag.NewTerminal(os.Stderr, flagStatus)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)

	logger.DebugKV("config", "effective", map[string]string{
		"offset":      fmt.Sprintf("%d", set.Offset),
		"limit":       fmt.Sprintf("%d", set.Limit),
		"concurrency": fmt.Sprintf("%d", set.Concurrency),
		"output":      set.Output,
		"reader":      cfg.Components.Reader,
		"aligner":     cfg.Components.Aligner,
		"exporter":    cfg.Components.Exporter,
		"writer":      cfg.Components.Writer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	t := logger.Start("pipeline", "run")
	n, err := pipelineRun(ctx, comp, set, logger)
	if err != nil {
		code := diag.Classify(err)
		logger.Error("pipeline", code, "first error: "+err.Error(), &start)
		diag.IncOp("pipeline", "error", "error")
		if code != diag.CodeUnknown {
			diag.IncError("pipeline", code)
		}
		if !errors.Is(err, context.Canceled) {
			fprintf(os.Stderr, "运行失败: %v\n", err)
		}
		return exitRun
	}
	t.Finish("run", int64(n))
	diag.IncOp("pipeline", "finish", "success")
	diag.ObserveDuration("pipeline", "finish", time.Since(start).Milliseconds())
	return exitOK
}

// loadConfig 依次合并：Defaults < JSON（--config / AMPHIALIGN_CONFIG_FILE / ./config.json，
// 或 AMPHIALIGN_CONFIG_JSON）< ENV。
func loadConfig(path string) (cfgpkg.Config, error) {
	var raw []byte
	if s := os.Getenv(cfgpkg.EnvPrefix + "CONFIG_JSON"); s != "" {
		raw = []byte(s)
	}
	if path == "" {
		path = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	cfg := cfgpkg.Defaults()
	if path != "" || len(raw) > 0 {
		base, err := cfgpkg.LoadJSON(path, raw)
		if err != nil {
			return cfg, err
		}
		cfg = cfgpkg.Merge(cfg, base)
	}
	over, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, err
	}
	return cfgpkg.Merge(cfg, over), nil
}

func initConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeConfig(filepath.Join(dir, "config.json"), cfgpkg.DefaultTemplateConfig()); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	if err := writeDotEnv(filepath.Join(dir, ".env")); err != nil {
		fprintf(os.Stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
	}
	return nil
}

func fprintf(w *os.File, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, _ = os.Stderr.Write(append([]byte("有效配置:\n"), b...))
	_, _ = os.Stderr.Write([]byte("\n"))
	return nil
}

// writeConfig 写出配置；path 为 "-" 时写 stdout。不覆盖已存在文件。
func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(b, '\n'))
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(b, '\n'))
	return err
}

// writeDotEnv 生成 .env 模板（已存在则跳过）。
func writeDotEnv(path string) error {
	env, err := godotenv.Unmarshal(cfgpkg.DefaultEnvTemplate())
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return godotenv.Write(env, path)
}

// normalizeInitArg: --init-config 未带值（位于末尾或后接其他开关）时补默认值 "."。
func normalizeInitArg() {
	args := os.Args
	if len(args) <= 1 {
		return
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	for i := 1; i < len(args); i++ {
		a := args[i]
		out = append(out, a)
		if a == "--init-config" || a == "-init-config" {
			if i == len(args)-1 || strings.HasPrefix(args[i+1], "-") {
				out = append(out, ".")
			}
		}
	}
	os.Args = out
}
