package surface

import (
	"math"

	"github.com/paulmach/orb"

	"avalanche-planner/pkg/graph"
	"avalanche-planner/pkg/raster"
)

// ManhattanCell is the L1 distance between two cells.
func ManhattanCell(a, b raster.Cell) float64 {
	return math.Abs(float64(a.Row-b.Row)) + math.Abs(float64(a.Col-b.Col))
}

// ManhattanPoint is the L1 distance between two points.
func ManhattanPoint(a, b orb.Point) float64 {
	return math.Abs(a[0]-b[0]) + math.Abs(a[1]-b[1])
}

// Weighted scales h by w. A weight of 1 returns h unchanged and a weight of
// 0 disables the heuristic.
func Weighted[N comparable](h graph.Heuristic[N], w float64) graph.Heuristic[N] {
	switch w {
	case 1:
		return h
	case 0:
		return graph.Zero[N]
	}
	return func(n, goal N) float64 {
		return w * h(n, goal)
	}
}
