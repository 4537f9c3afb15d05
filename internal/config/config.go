package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pool-bench/internal/client"
	"pool-bench/internal/logger"
	"pool-bench/internal/server"
)

// EnvPrefix は環境変数の接頭辞
const EnvPrefix = "POOLBENCH_"

// FileConfig は設定ファイルの構造
type FileConfig struct {
	LogLevel string       `yaml:"log_level" json:"log_level"`
	Server   ServerConfig `yaml:"server" json:"server"`
	Bench    BenchConfig  `yaml:"bench" json:"bench"`
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Addr            string `yaml:"addr" json:"addr"`
	Mode            string `yaml:"mode" json:"mode"`
	Workers         int    `yaml:"workers" json:"workers"`
	Iterations      int    `yaml:"iterations" json:"iterations"`
	MaxConns        int    `yaml:"max_conns" json:"max_conns"`
	ReadTimeout     string `yaml:"read_timeout" json:"read_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BenchConfig は負荷生成の設定
type BenchConfig struct {
	Addr        string `yaml:"addr" json:"addr"`
	Concurrency int    `yaml:"concurrency" json:"concurrency"`
	Requests    uint64 `yaml:"requests" json:"requests"`
	Duration    string `yaml:"duration" json:"duration"`
	Timeout     string `yaml:"timeout" json:"timeout"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// ApplyEnv は .env ファイルと環境変数の値で設定を上書きする
// 優先順位は 環境変数 > .env > 設定ファイル。dotenvPath が空または存在しない場合は環境変数のみ
func (f *FileConfig) ApplyEnv(dotenvPath string) error {
	dotenv := map[string]string{}
	if dotenvPath != "" {
		values, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("config", "No env file at %s, reading from environment", dotenvPath)
		default:
			return fmt.Errorf("failed to read env file: %w", err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+key]
		return v, ok
	}

	if v, ok := lookup("LOG_LEVEL"); ok {
		f.LogLevel = v
	}
	if v, ok := lookup("ADDR"); ok {
		f.Server.Addr = v
	}
	if v, ok := lookup("MODE"); ok {
		f.Server.Mode = v
	}
	if v, ok := lookup("WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sWORKERS: %w", EnvPrefix, err)
		}
		f.Server.Workers = n
	}
	if v, ok := lookup("ITERATIONS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sITERATIONS: %w", EnvPrefix, err)
		}
		f.Server.Iterations = n
	}
	if v, ok := lookup("MAX_CONNS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_CONNS: %w", EnvPrefix, err)
		}
		f.Server.MaxConns = n
	}
	if v, ok := lookup("BENCH_ADDR"); ok {
		f.Bench.Addr = v
	}
	if v, ok := lookup("BENCH_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sBENCH_CONCURRENCY: %w", EnvPrefix, err)
		}
		f.Bench.Concurrency = n
	}

	return nil
}

// ToServerConfig はFileConfigをserver.Configに変換する
func (f *FileConfig) ToServerConfig() (server.Config, error) {
	sc := f.Server

	// デフォルト値の設定
	config := server.DefaultConfig()

	if sc.Addr != "" {
		config.Addr = sc.Addr
	}
	if sc.Mode != "" {
		mode, err := server.ParseMode(sc.Mode)
		if err != nil {
			return config, err
		}
		config.Mode = mode
	}
	if sc.Workers > 0 {
		config.Workers = sc.Workers
	}
	if sc.Iterations > 0 {
		config.Iterations = sc.Iterations
	}
	if sc.MaxConns > 0 {
		config.MaxConns = sc.MaxConns
	}
	if sc.ReadTimeout != "" {
		d, err := time.ParseDuration(sc.ReadTimeout)
		if err != nil {
			return config, fmt.Errorf("invalid read timeout: %w", err)
		}
		config.ReadTimeout = d
	}
	if sc.ShutdownTimeout != "" {
		d, err := time.ParseDuration(sc.ShutdownTimeout)
		if err != nil {
			return config, fmt.Errorf("invalid shutdown timeout: %w", err)
		}
		config.ShutdownTimeout = d
	}

	return config, nil
}

// BenchRun は負荷生成の実行内容
type BenchRun struct {
	Client   client.Config
	Requests uint64 // 0 なら Duration で実行
	Duration time.Duration
}

// ToBenchRun はFileConfigを負荷生成の設定に変換する
func (f *FileConfig) ToBenchRun() (BenchRun, error) {
	bc := f.Bench

	run := BenchRun{
		Client:   client.DefaultConfig(),
		Requests: bc.Requests,
	}

	if bc.Addr != "" {
		run.Client.Addr = bc.Addr
	} else if f.Server.Addr != "" {
		run.Client.Addr = f.Server.Addr
	}
	if bc.Concurrency > 0 {
		run.Client.Concurrency = bc.Concurrency
	}
	if bc.Timeout != "" {
		d, err := time.ParseDuration(bc.Timeout)
		if err != nil {
			return run, fmt.Errorf("invalid bench timeout: %w", err)
		}
		run.Client.Timeout = d
	}
	if bc.Duration != "" {
		d, err := time.ParseDuration(bc.Duration)
		if err != nil {
			return run, fmt.Errorf("invalid bench duration: %w", err)
		}
		run.Duration = d
	}

	return run, nil
}

// Level はログレベルを返す
func (f *FileConfig) Level() (logger.Level, error) {
	return logger.ParseLevel(f.LogLevel)
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	sc := f.Server

	if sc.Mode != "" {
		if _, err := server.ParseMode(sc.Mode); err != nil {
			return err
		}
	}

	if sc.Workers < 0 {
		return fmt.Errorf("server.workers must be non-negative")
	}

	if sc.Iterations < 0 {
		return fmt.Errorf("server.iterations must be non-negative")
	}

	if sc.MaxConns < 0 {
		return fmt.Errorf("server.max_conns must be non-negative")
	}

	if f.Bench.Concurrency < 0 {
		return fmt.Errorf("bench.concurrency must be non-negative")
	}

	if _, err := f.Level(); err != nil {
		return err
	}

	return nil
}
