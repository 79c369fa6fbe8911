package minutiae

import "github.com/emirpasic/gods/queues/arrayqueue"

// queue is a FIFO of flat grid offsets.
type queue struct {
	q *arrayqueue.Queue
}

func newQueue() *queue { return &queue{q: arrayqueue.New()} }

func (q *queue) push(offset int) { q.q.Enqueue(offset) }

func (q *queue) pop() int {
	v, _ := q.q.Dequeue()
	return v.(int)
}

func (q *queue) empty() bool { return q.q.Empty() }
