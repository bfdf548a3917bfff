package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cell struct{ r, c int }

// unitGrid is a 4-connected grid with unit cost and optional blocked cells.
type unitGrid struct {
	rows, cols int
	blocked    map[cell]bool
	costs      map[cell]float64
}

func (g unitGrid) Neighbors(n cell) []cell {
	out := []cell{}
	for _, d := range []cell{{0, 1}, {0, -1}, {-1, 0}, {1, 0}} {
		m := cell{n.r + d.r, n.c + d.c}
		if m.r < 0 || m.r >= g.rows || m.c < 0 || m.c >= g.cols || g.blocked[m] {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (g unitGrid) Cost(_, to cell) float64 {
	if c, ok := g.costs[to]; ok {
		return c
	}
	return 1
}

func manhattan(a, b cell) float64 {
	return math.Abs(float64(a.r-b.r)) + math.Abs(float64(a.c-b.c))
}

func bfsHops(g unitGrid, start, goal cell) int {
	dist := map[cell]int{start: 0}
	queue := []cell{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == goal {
			return dist[n]
		}
		for _, m := range g.Neighbors(n) {
			if _, ok := dist[m]; !ok {
				dist[m] = dist[n] + 1
				queue = append(queue, m)
			}
		}
	}
	return -1
}

func TestSearchMatchesBFS(t *testing.T) {
	g := unitGrid{rows: 5, cols: 5, blocked: map[cell]bool{{1, 1}: true, {1, 2}: true, {1, 3}: true, {3, 1}: true, {3, 2}: true}}

	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			goal := cell{r, c}
			if g.blocked[goal] {
				continue
			}
			want := bfsHops(g, cell{0, 0}, goal)
			path, res := ShortestPath[cell](g, cell{0, 0}, goal, Options[cell]{Heuristic: manhattan})
			require.True(t, res.Found, "goal %v", goal)
			assert.Equal(t, want, len(path)-1, "goal %v", goal)
		}
	}
}

func TestSearchFiveByFive(t *testing.T) {
	g := unitGrid{rows: 5, cols: 5}
	start, goal := cell{0, 0}, cell{4, 4}

	path, res := ShortestPath[cell](g, start, goal, Options[cell]{Heuristic: manhattan})

	require.True(t, res.Found)
	require.Len(t, path, 9)
	assert.Equal(t, start, path[0])
	assert.Equal(t, goal, path[len(path)-1])
	assert.Equal(t, 8.0, res.CostSoFar[goal])
	for i := 1; i < len(path); i++ {
		assert.GreaterOrEqual(t, res.CostSoFar[path[i]], res.CostSoFar[path[i-1]])
		assert.Equal(t, 1.0, manhattan(path[i], path[i-1]))
	}
}

func TestSearchSkipsInfiniteEdges(t *testing.T) {
	inf := math.Inf(1)
	g := unitGrid{rows: 5, cols: 5, costs: map[cell]float64{
		{0, 2}: inf, {1, 2}: inf, {2, 2}: inf, {3, 2}: inf,
	}}

	path, res := ShortestPath[cell](g, cell{0, 0}, cell{0, 4}, Options[cell]{Heuristic: manhattan})

	require.True(t, res.Found)
	for _, n := range path {
		assert.NotEqual(t, inf, g.Cost(n, n), "path crosses impassable cell %v", n)
	}
	assert.Contains(t, path, cell{4, 2})
	assert.False(t, math.IsInf(res.CostSoFar[cell{0, 4}], 1))
}

func TestSearchUnreachable(t *testing.T) {
	g := unitGrid{rows: 3, cols: 3, blocked: map[cell]bool{{0, 1}: true, {1, 0}: true, {1, 1}: true}}

	path, res := ShortestPath[cell](g, cell{0, 0}, cell{2, 2}, Options[cell]{})

	assert.False(t, res.Found)
	assert.False(t, res.Stopped)
	assert.Empty(t, path)
	assert.Empty(t, ReconstructPath(res.CameFrom, cell{0, 0}, cell{2, 2}))
}

func TestSearchStartIsGoal(t *testing.T) {
	g := unitGrid{rows: 2, cols: 2}

	path, res := ShortestPath[cell](g, cell{1, 1}, cell{1, 1}, Options[cell]{})

	require.True(t, res.Found)
	assert.Equal(t, []cell{{1, 1}}, path)
	assert.Equal(t, 0, res.Explored)
}

func TestSearchCaps(t *testing.T) {
	g := unitGrid{rows: 50, cols: 50}

	t.Run("max iterations", func(t *testing.T) {
		_, res := ShortestPath[cell](g, cell{0, 0}, cell{49, 49}, Options[cell]{MaxIterations: 10})
		assert.False(t, res.Found)
		assert.True(t, res.Stopped)
		assert.Equal(t, 10, res.Explored)
	})

	t.Run("interrupt", func(t *testing.T) {
		calls := 0
		_, res := ShortestPath[cell](g, cell{0, 0}, cell{49, 49}, Options[cell]{Interrupt: func() bool {
			calls++
			return true
		}})
		assert.False(t, res.Found)
		assert.True(t, res.Stopped)
		assert.Equal(t, 1, calls)
	})
}

func TestSearchRelaxesToCheaperRoute(t *testing.T) {
	// The direct neighbour of the goal is expensive, so the cheaper detour
	// discovered later must replace it.
	g := unitGrid{rows: 2, cols: 3, costs: map[cell]float64{{0, 1}: 10}}

	path, res := ShortestPath[cell](g, cell{0, 0}, cell{0, 2}, Options[cell]{})

	require.True(t, res.Found)
	assert.Equal(t, 4.0, res.CostSoFar[cell{0, 2}])
	assert.Equal(t, []cell{{0, 0}, {1, 0}, {1, 1}, {1, 2}, {0, 2}}, path)
}
