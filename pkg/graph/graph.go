// Package graph holds the weighted-graph contract shared by every cost
// surface and the A* search that runs over it.
package graph

// Graph is the capability set a cost surface exposes to the search.
//
// Neighbors must be deterministic for a fixed surface and must only return
// nodes inside the surface's valid domain. Cost is only defined for a `to`
// node returned by Neighbors(from); +Inf marks an impassable edge.
type Graph[N comparable] interface {
	Neighbors(n N) []N
	Cost(from, to N) float64
}

// Heuristic estimates the remaining cost from n to goal.
type Heuristic[N comparable] func(n, goal N) float64

// Zero is the heuristic that turns A* into Dijkstra's algorithm.
func Zero[N comparable](_, _ N) float64 {
	return 0
}
