package graph

// queueItem is a frontier entry. cost is the path cost at push time and is
// compared against the recorded cost to detect stale entries on pop.
type queueItem[N comparable] struct {
	node     N
	priority float64
	cost     float64
	seq      uint64
}

// priorityQueue implements heap.Interface ordered by ascending priority.
// Equal priorities pop in insertion order.
type priorityQueue[N comparable] []*queueItem[N]

func (pq priorityQueue[N]) Len() int { return len(pq) }

func (pq priorityQueue[N]) Less(i, j int) bool {
	if pq[i].priority == pq[j].priority {
		return pq[i].seq < pq[j].seq
	}
	return pq[i].priority < pq[j].priority
}

func (pq priorityQueue[N]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue[N]) Push(x interface{}) {
	*pq = append(*pq, x.(*queueItem[N]))
}

func (pq *priorityQueue[N]) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[0 : n-1]
	return item
}
