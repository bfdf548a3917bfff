package hazard

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCostTable is returned when a cost table breaks its invariants.
var ErrInvalidCostTable = errors.New("hazard: invalid cost table")

// NoRoute marks a cost table without a maintained-route override class.
const NoRoute = -1

// CostTable maps a category index to a traversal cost multiplier. Costs are
// positive and non-decreasing with danger, except for the optional route
// class which may be cheapest regardless of its position.
//
// A CostTable is immutable once built.
type CostTable struct {
	costs []float64
	route int
}

// NewCostTable copies costs into a validated table. route is the index of the
// maintained-route override class, or NoRoute.
func NewCostTable(costs []float64, route int) (CostTable, error) {
	if len(costs) == 0 {
		return CostTable{}, fmt.Errorf("%w: no categories", ErrInvalidCostTable)
	}
	if route != NoRoute && (route < 0 || route >= len(costs)) {
		return CostTable{}, fmt.Errorf("%w: route class %d out of range", ErrInvalidCostTable, route)
	}

	prev := 0.0
	for i, c := range costs {
		if math.IsNaN(c) || c <= 0 {
			return CostTable{}, fmt.Errorf("%w: cost %v at index %d is not positive", ErrInvalidCostTable, c, i)
		}
		if i == route {
			continue
		}
		if c < prev {
			return CostTable{}, fmt.Errorf("%w: cost %v at index %d is lower than %v", ErrInvalidCostTable, c, i, prev)
		}
		prev = c
	}

	owned := make([]float64, len(costs))
	copy(owned, costs)
	return CostTable{costs: owned, route: route}, nil
}

// MustCostTable is NewCostTable for static tables; it panics on error.
func MustCostTable(costs []float64, route int) CostTable {
	t, err := NewCostTable(costs, route)
	if err != nil {
		panic(err)
	}
	return t
}

// HazardCosts is the wide-spread table used with the classified palette.
func HazardCosts() CostTable {
	return MustCostTable([]float64{1, 10, 20, 30, 100, 200, 400, 800, 5000, 10000}, NoRoute)
}

// CompactCosts is the narrow table used with pre-discretised category
// rasters. The last entry is the maintained-route class.
func CompactCosts() CostTable {
	return MustCostTable([]float64{1, 2, 3, 4, 5, 6, 7, 8, 16, 32, 1}, 10)
}

// Cost returns the cost of category cat and whether cat is in the table.
func (t CostTable) Cost(cat int) (float64, bool) {
	if cat < 0 || cat >= len(t.costs) {
		return 0, false
	}
	return t.costs[cat], true
}

// Len returns the number of categories.
func (t CostTable) Len() int {
	return len(t.costs)
}

// RouteClass returns the maintained-route category, if the table has one.
func (t CostTable) RouteClass() (int, bool) {
	if t.route == NoRoute || len(t.costs) == 0 {
		return 0, false
	}
	return t.route, true
}

// Costs returns a copy of the table values.
func (t CostTable) Costs() []float64 {
	out := make([]float64, len(t.costs))
	copy(out, t.costs)
	return out
}
