package scheduler

// fifo is a queue of process handles (indices into Scheduler.procs).
// Popped slots are reclaimed once the dead prefix outgrows the live part.
type fifo struct {
	items []int
	head  int
}

func (q *fifo) Len() int { return len(q.items) - q.head }

func (q *fifo) Push(h int) {
	q.items = append(q.items, h)
}

// Pop removes and returns the head handle. Callers check Len first.
func (q *fifo) Pop() int {
	h := q.items[q.head]
	q.head++
	if q.head > len(q.items)/2 {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return h
}

// Handles returns a copy of the queued handles, head first.
func (q *fifo) Handles() []int {
	out := make([]int, q.Len())
	copy(out, q.items[q.head:])
	return out
}
