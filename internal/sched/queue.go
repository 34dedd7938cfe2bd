// internal/sched/queue.go

package sched

import "github.com/emirpasic/gods/queues/linkedlistqueue"

// taskQueue is Q: a FIFO-ordered sequence of ready task records (§3, C6).
// The teacher orders its run queue with github.com/emirpasic/gods's
// red-black tree, keyed by CFS vruntime, because it implements priority
// scheduling. This design explicitly rules priority out (§1: "fair
// scheduling guarantees beyond FIFO dequeue" is a non-goal), so the FIFO
// member of the same library's family of containers — linkedlistqueue —
// takes over the same role.
type taskQueue struct {
	q *linkedlistqueue.Queue
}

func newTaskQueue() *taskQueue {
	return &taskQueue{q: linkedlistqueue.New()}
}

func (q *taskQueue) enqueue(t *Task) {
	q.q.Enqueue(t)
}

func (q *taskQueue) dequeue() (*Task, bool) {
	v, ok := q.q.Dequeue()
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

func (q *taskQueue) size() int {
	return q.q.Size()
}

func (q *taskQueue) clear() {
	q.q.Clear()
}
