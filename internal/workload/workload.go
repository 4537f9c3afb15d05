// Package workload provides the synthetic CPU-bound computation run per request.
package workload

import "math"

// DefaultIterations はリクエスト毎に評価する級数の項数
const DefaultIterations = 100000

// PiBBP は Bailey–Borwein–Plouffe 級数の最初の n 項で円周率を近似する
func PiBBP(n int) float64 {
	var pi float64
	for k := range n {
		k8 := float64(8 * k)
		term := 4/(k8+1) - 2/(k8+4) - 1/(k8+5) - 1/(k8+6)
		pi += term / math.Pow(16, float64(k))
	}
	return pi
}
