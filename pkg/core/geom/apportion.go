package geom

import (
	"math"
	"sort"
)

// Apportion splits total discrete units across segments in proportion to
// weights. Each segment first receives the floor of its ideal share; the
// remaining units go to the segments with the largest fractional remainder,
// ties broken by lower index. Non-positive weights receive nothing unless
// every weight is non-positive, in which case the split is even.
func Apportion(weights []float64, total int) []int {
	counts := make([]int, len(weights))
	if len(weights) == 0 || total <= 0 {
		return counts
	}

	w := make([]float64, len(weights))
	sum := 0.0
	for i, v := range weights {
		if v > 0 {
			w[i] = v
			sum += v
		}
	}
	if sum == 0 {
		for i := range w {
			w[i] = 1
		}
		sum = float64(len(w))
	}

	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, 0, len(w))
	assigned := 0
	for i, v := range w {
		ideal := float64(total) * v / sum
		fl := math.Floor(ideal)
		counts[i] = int(fl)
		assigned += counts[i]
		if v > 0 {
			rems = append(rems, rem{i, ideal - fl})
		}
	}

	sort.SliceStable(rems, func(a, b int) bool {
		return rems[a].frac > rems[b].frac
	})
	for k := 0; assigned < total && len(rems) > 0; k++ {
		counts[rems[k%len(rems)].idx]++
		assigned++
	}
	return counts
}
