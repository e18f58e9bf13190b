package gridastar

// PriorityQueueItem is a frontier entry. Sequence records insertion order so
// that entries with equal (FCost, HCost) leave in the order they arrived.
type PriorityQueueItem struct {
	Index        int
	GScore       int
	FCost        int
	HCost        int
	Sequence     int
	IndexInQueue int
}

// PriorityQueue implements heap.Interface ordered by (FCost, HCost, Sequence).
type PriorityQueue []*PriorityQueueItem

func (queue PriorityQueue) Len() int { return len(queue) }

func (queue PriorityQueue) Less(i, j int) bool {
	a, b := queue[i], queue[j]
	if a.FCost != b.FCost {
		return a.FCost < b.FCost
	}
	if a.HCost != b.HCost {
		return a.HCost < b.HCost
	}
	return a.Sequence < b.Sequence
}

func (queue PriorityQueue) Swap(i, j int) {
	queue[i], queue[j] = queue[j], queue[i]
	queue[i].IndexInQueue = i
	queue[j].IndexInQueue = j
}

func (queue *PriorityQueue) Push(x any) {
	item := x.(*PriorityQueueItem)
	item.IndexInQueue = len(*queue)
	*queue = append(*queue, item)
}

func (queue *PriorityQueue) Pop() any {
	oldQueue := *queue
	n := len(oldQueue)
	item := oldQueue[n-1]
	oldQueue[n-1] = nil
	item.IndexInQueue = -1
	*queue = oldQueue[:n-1]
	return item
}
