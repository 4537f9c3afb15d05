// Package main is the entry point for poolbench.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"pool-bench/internal/client"
	"pool-bench/internal/config"
	"pool-bench/internal/logger"
	"pool-bench/internal/metrics"
	"pool-bench/internal/scenario"
	"pool-bench/internal/server"
)

var (
	version = "dev"
)

// options はコマンドラインで明示されたフラグの値
type options struct {
	configFile  string
	envFile     string
	mode        string
	workers     int
	addr        string
	iterations  int
	maxConns    int
	logLevel    string
	bench       bool
	preset      string
	requests    uint64
	concurrency int
	duration    time.Duration
	timeout     time.Duration

	zeroWorkers bool // 位置引数で 0 が指定された
}

func main() {
	var opts options

	// フラグ定義
	flag.StringVar(&opts.configFile, "config", "", "設定ファイルパス (YAML/JSON)")
	flag.StringVar(&opts.envFile, "env-file", ".env", ".env ファイルパス")
	flag.StringVar(&opts.mode, "mode", "", "実行戦略 (async, pool)")
	flag.IntVar(&opts.workers, "workers", 0, "ワーカー数 (デフォルト: CPU数)")
	flag.StringVar(&opts.addr, "addr", "", "アドレス (デフォルト: 127.0.0.1:8080)")
	flag.IntVar(&opts.iterations, "iterations", 0, "リクエスト毎の級数の項数")
	flag.IntVar(&opts.maxConns, "max-conns", 0, "同時接続数の上限 (0で無制限)")
	flag.StringVar(&opts.logLevel, "log-level", "", "ログレベル (debug, info, warn, error)")
	flag.BoolVar(&opts.bench, "bench", false, "負荷生成モードで起動")
	flag.Uint64Var(&opts.requests, "requests", 0, "負荷生成: リクエスト数 (0で -duration を使用)")
	flag.IntVar(&opts.concurrency, "concurrency", 0, "負荷生成: 同時接続数")
	flag.DurationVar(&opts.duration, "duration", 0, "負荷生成: 実行時間 (例: 10s)")
	flag.DurationVar(&opts.timeout, "timeout", 0, "負荷生成: リクエスト毎のタイムアウト")
	flag.StringVar(&opts.preset, "preset", "", "比較シナリオ名 (quick, basic, contended, stress)")
	listPresets := flag.Bool("list-presets", false, "利用可能なプリセットを表示")
	showVersion := flag.Bool("version", false, "バージョンを表示")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `poolbench - Worker Pool vs Async TCP Server Benchmark

Usage:
  poolbench [options]
  poolbench [options] <tokio|threadpool> <num_threads>
  poolbench -bench [options]
  poolbench -preset <name>

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # ワーカープールで起動
  poolbench -mode pool -workers 8

  # 元の引数形式
  poolbench threadpool 8

  # 設定ファイルから起動
  poolbench -config poolbench.yaml

  # 起動中のサーバーに負荷をかける
  poolbench -bench -requests 10000 -concurrency 64

  # 両方の戦略を同じ負荷で比較
  poolbench -preset basic -workers 8
`)
	}

	flag.Parse()

	// バージョン表示
	if *showVersion {
		fmt.Printf("poolbench version %s\n", version)
		return
	}

	// プリセット一覧表示
	if *listPresets {
		printPresets()
		return
	}

	if err := applyPositional(&opts, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(1)
	}

	fc, err := loadConfig(opts)
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	level, err := fc.Level()
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}
	logger.Default.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n中断シグナルを受信、終了中...")
		cancel()
	}()

	if opts.preset != "" {
		if err := runScenario(ctx, opts); err != nil {
			logger.Error("", "シナリオ実行エラー: %v", err)
			os.Exit(1)
		}
		return
	}

	if opts.bench {
		if err := runBench(ctx, fc); err != nil {
			logger.Error("", "負荷生成エラー: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := runServer(ctx, fc, opts.zeroWorkers); err != nil {
		logger.Error("", "サーバーエラー: %v", err)
		os.Exit(1)
	}
}

// applyPositional は `<server_type> <num_threads>` 形式の引数を反映する
func applyPositional(opts *options, args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 2:
	default:
		return fmt.Errorf("usage: poolbench <server_type> <num_threads>")
	}

	mode, err := server.ParseMode(args[0])
	if err != nil {
		return fmt.Errorf("invalid server type %q: choose 'tokio' or 'threadpool'", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 0 {
		return fmt.Errorf("invalid number of threads %q: provide a positive integer", args[1])
	}

	opts.mode = string(mode)
	opts.workers = n
	// 0 はそのままプールに渡して構築エラーにする
	opts.zeroWorkers = n == 0
	return nil
}

// loadConfig は設定ファイル、環境変数、フラグの順に設定を構築する
func loadConfig(opts options) (*config.FileConfig, error) {
	fc := &config.FileConfig{}

	// 1. 設定ファイルから読み込み
	if opts.configFile != "" {
		loaded, err := config.LoadFile(opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
		}
		fc = loaded
	}

	// 2. .env と環境変数
	if err := fc.ApplyEnv(opts.envFile); err != nil {
		return nil, fmt.Errorf("環境変数読み込みエラー: %w", err)
	}

	// 3. フラグでオーバーライド
	if opts.mode != "" {
		fc.Server.Mode = opts.mode
	}
	if opts.workers > 0 {
		fc.Server.Workers = opts.workers
	}
	if opts.addr != "" {
		fc.Server.Addr = opts.addr
		fc.Bench.Addr = opts.addr
	}
	if opts.iterations > 0 {
		fc.Server.Iterations = opts.iterations
	}
	if opts.maxConns > 0 {
		fc.Server.MaxConns = opts.maxConns
	}
	if opts.logLevel != "" {
		fc.LogLevel = opts.logLevel
	}
	if opts.requests > 0 {
		fc.Bench.Requests = opts.requests
	}
	if opts.concurrency > 0 {
		fc.Bench.Concurrency = opts.concurrency
	}
	if opts.duration > 0 {
		fc.Bench.Duration = opts.duration.String()
	}
	if opts.timeout > 0 {
		fc.Bench.Timeout = opts.timeout.String()
	}

	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("設定検証エラー: %w", err)
	}
	return fc, nil
}

// runServer はサーバーを起動し、ctx がキャンセルされるまで待つ
func runServer(ctx context.Context, fc *config.FileConfig, zeroWorkers bool) error {
	cfg, err := fc.ToServerConfig()
	if err != nil {
		return fmt.Errorf("設定変換エラー: %w", err)
	}
	if fc.Server.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if zeroWorkers {
		cfg.Workers = 0
	}

	if cfg.Mode == server.ModeAsync && cfg.Workers > 0 {
		// ランタイムの並列度をワーカー数に合わせる
		runtime.GOMAXPROCS(cfg.Workers)
	}

	fmt.Println("poolbench - Worker Pool vs Async TCP Server")
	fmt.Println("===========================================")
	fmt.Printf("Mode: %s, Workers: %d, Iterations: %d\n", cfg.Mode, cfg.Workers, cfg.Iterations)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

// runBench は負荷生成を実行してレポートを出力する
func runBench(ctx context.Context, fc *config.FileConfig) error {
	run, err := fc.ToBenchRun()
	if err != nil {
		return fmt.Errorf("設定変換エラー: %w", err)
	}

	cl, err := client.New(run.Client)
	if err != nil {
		return err
	}

	fmt.Println("poolbench - Load Generator")
	fmt.Println("==========================")
	fmt.Printf("Target: %s, Concurrency: %d\n", run.Client.Addr, run.Client.Concurrency)
	fmt.Println()

	var result *metrics.Snapshot
	switch {
	case run.Requests > 0:
		result, err = cl.RunRequests(ctx, run.Requests)
	case run.Duration > 0:
		result, err = cl.RunFor(ctx, run.Duration)
	default:
		return errors.New("either -requests or -duration is required")
	}
	if err != nil {
		return err
	}

	fmt.Println(result.Report())
	return nil
}

// runScenario はプリセットで両方の戦略を比較する
func runScenario(ctx context.Context, opts options) error {
	cfg, ok := scenario.GetPreset(opts.preset)
	if !ok {
		return fmt.Errorf("不明なプリセット: %s (利用可能: %v)", opts.preset, scenario.ListPresets())
	}

	// フラグでオーバーライド
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
	if opts.iterations > 0 {
		cfg.Iterations = opts.iterations
	}
	if opts.concurrency > 0 {
		cfg.Concurrency = opts.concurrency
	}
	if opts.requests > 0 {
		cfg.Requests = opts.requests
		cfg.Duration = 0
	} else if opts.duration > 0 {
		cfg.Requests = 0
		cfg.Duration = opts.duration
	}
	if opts.mode != "" {
		mode, err := server.ParseMode(opts.mode)
		if err != nil {
			return err
		}
		cfg.Modes = []server.Mode{mode}
	}

	result, err := scenario.New(cfg).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(result.Report())
	return nil
}

// printPresets は利用可能なプリセットを表示する
func printPresets() {
	fmt.Println("利用可能なプリセットシナリオ:")
	fmt.Println()

	for _, name := range scenario.ListPresets() {
		cfg, _ := scenario.GetPreset(name)
		fmt.Printf("  %-12s %s\n", name, cfg.Description)
	}

	fmt.Println()
	fmt.Println("使用例: poolbench -preset quick")
}
