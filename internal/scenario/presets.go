package scenario

import (
	"slices"
	"time"

	"pool-bench/internal/server"
	"pool-bench/internal/workload"
)

var bothModes = []server.Mode{server.ModeAsync, server.ModePool}

// QuickScenario は短時間の動作確認シナリオを返す
func QuickScenario() Config {
	return Config{
		Name:        "quick",
		Description: "Quick sanity check of both strategies",
		Modes:       slices.Clone(bothModes),
		Workers:     2,
		Iterations:  10000,
		Concurrency: 4,
		Requests:    200,
	}
}

// BasicScenario は基本的な比較シナリオを返す
// クライアント数とワーカー数が同じ
func BasicScenario() Config {
	return Config{
		Name:        "basic",
		Description: "Fixed request count, clients equal to workers",
		Modes:       slices.Clone(bothModes),
		Workers:     4,
		Iterations:  workload.DefaultIterations,
		Concurrency: 4,
		Requests:    2000,
	}
}

// ContendedScenario はワーカー数を超える同時接続のシナリオを返す
// プールではキューに接続が溜まる
func ContendedScenario() Config {
	return Config{
		Name:        "contended",
		Description: "Many more clients than workers",
		Modes:       slices.Clone(bothModes),
		Workers:     2,
		Iterations:  workload.DefaultIterations,
		Concurrency: 64,
		Requests:    2000,
	}
}

// StressScenario は高負荷シナリオを返す
func StressScenario() Config {
	return Config{
		Name:        "stress",
		Description: "High concurrency for a fixed duration",
		Modes:       slices.Clone(bothModes),
		Workers:     8,
		Iterations:  workload.DefaultIterations,
		Concurrency: 128,
		Duration:    30 * time.Second,
	}
}

// GetPreset は名前からプリセットを取得する
func GetPreset(name string) (Config, bool) {
	switch name {
	case "quick":
		return QuickScenario(), true
	case "basic":
		return BasicScenario(), true
	case "contended":
		return ContendedScenario(), true
	case "stress":
		return StressScenario(), true
	default:
		return Config{}, false
	}
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"quick", "basic", "contended", "stress"}
}
