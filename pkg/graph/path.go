package graph

// ReconstructPath walks cameFrom backwards from goal to start and returns the
// nodes in travel order. It returns nil when goal is absent from cameFrom or
// the predecessor chain never reaches start.
func ReconstructPath[N comparable](cameFrom map[N]N, start, goal N) []N {
	if _, ok := cameFrom[goal]; !ok {
		return nil
	}

	path := []N{}
	current := goal
	for {
		path = append(path, current)
		if current == start {
			break
		}
		prev, ok := cameFrom[current]
		if !ok || prev == current || len(path) > len(cameFrom) {
			return nil
		}
		current = prev
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
