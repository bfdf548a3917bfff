package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconstructPath(t *testing.T) {
	tests := []struct {
		name     string
		cameFrom map[int]int
		start    int
		goal     int
		want     []int
	}{
		{name: "goal missing", cameFrom: map[int]int{1: 1, 2: 1}, start: 1, goal: 9, want: nil},
		{name: "start is goal", cameFrom: map[int]int{1: 1}, start: 1, goal: 1, want: []int{1}},
		{name: "chain", cameFrom: map[int]int{1: 1, 2: 1, 3: 2, 4: 3}, start: 1, goal: 4, want: []int{1, 2, 3, 4}},
		{name: "broken chain", cameFrom: map[int]int{1: 1, 3: 2, 4: 3}, start: 1, goal: 4, want: nil},
		{name: "cycle", cameFrom: map[int]int{1: 1, 2: 3, 3: 2}, start: 1, goal: 3, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReconstructPath(tt.cameFrom, tt.start, tt.goal))
		})
	}
}
