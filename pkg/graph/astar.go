package graph

import (
	"container/heap"
	"log/slog"
	"math"
)

const (
	// interruptEvery is how many expansions pass between Interrupt polls.
	interruptEvery = 1024
	// progressEvery is how many expansions pass between debug progress logs.
	progressEvery = 10000
)

// Options tunes a single search.
type Options[N comparable] struct {
	// Heuristic guides the search. Nil means Zero.
	Heuristic Heuristic[N]

	// MaxIterations caps the number of expansions. Zero means no cap.
	MaxIterations int

	// Interrupt is polled periodically; returning true stops the search.
	Interrupt func() bool

	// Logger receives debug progress. Nil disables logging.
	Logger *slog.Logger
}

// Result is the search state left behind by Search.
type Result[N comparable] struct {
	// CameFrom maps every reached node to its predecessor. The start node
	// maps to itself.
	CameFrom map[N]N

	// CostSoFar holds the cheapest known cost from start to every reached node.
	CostSoFar map[N]float64

	// Found reports whether the goal was popped from the frontier.
	Found bool

	// Stopped reports whether the search ended because of MaxIterations or
	// Interrupt rather than by reaching the goal or exhausting the frontier.
	Stopped bool

	// Explored counts expanded nodes.
	Explored int
}

// Search runs A* from start to goal over g.
//
// Stale frontier entries are skipped on pop instead of being removed when a
// cheaper route to their node is found. Edges with +Inf or NaN cost are
// never relaxed.
func Search[N comparable](g Graph[N], start, goal N, opts Options[N]) Result[N] {
	h := opts.Heuristic
	if h == nil {
		h = Zero[N]
	}

	res := Result[N]{
		CameFrom:  map[N]N{start: start},
		CostSoFar: map[N]float64{start: 0},
	}

	frontier := &priorityQueue[N]{}
	heap.Init(frontier)
	var seq uint64
	heap.Push(frontier, &queueItem[N]{node: start, priority: 0, cost: 0, seq: seq})

	for frontier.Len() > 0 {
		current := heap.Pop(frontier).(*queueItem[N])
		currentCost := res.CostSoFar[current.node]
		if current.cost > currentCost {
			continue
		}

		if current.node == goal {
			res.Found = true
			return res
		}

		if opts.MaxIterations > 0 && res.Explored >= opts.MaxIterations {
			res.Stopped = true
			return res
		}
		if opts.Interrupt != nil && res.Explored%interruptEvery == 0 && opts.Interrupt() {
			res.Stopped = true
			return res
		}
		res.Explored++

		if opts.Logger != nil && res.Explored%progressEvery == 0 {
			opts.Logger.Debug("search progress",
				slog.Int("explored", res.Explored),
				slog.Int("frontier", frontier.Len()),
				slog.Float64("cost", currentCost),
			)
		}

		for _, next := range g.Neighbors(current.node) {
			edge := g.Cost(current.node, next)
			if math.IsInf(edge, 1) || math.IsNaN(edge) {
				continue
			}
			newCost := currentCost + edge
			if old, seen := res.CostSoFar[next]; seen && newCost >= old {
				continue
			}
			res.CostSoFar[next] = newCost
			res.CameFrom[next] = current.node
			seq++
			heap.Push(frontier, &queueItem[N]{
				node:     next,
				priority: newCost + h(next, goal),
				cost:     newCost,
				seq:      seq,
			})
		}
	}

	return res
}

// ShortestPath runs Search and reconstructs the node sequence. The path is
// empty when the goal was not reached.
func ShortestPath[N comparable](g Graph[N], start, goal N, opts Options[N]) ([]N, Result[N]) {
	res := Search(g, start, goal, opts)
	if !res.Found {
		return nil, res
	}
	return ReconstructPath(res.CameFrom, start, goal), res
}
