package script

import "github.com/dop251/goja"

type timer struct {
	id    int64
	delay int64
	fn    goja.Callable
	args  []goja.Value
}

// timerQueue holds callbacks queued during a run. Callbacks come out ordered
// by delay, ties in registration order.
type timerQueue struct {
	nextID  int64
	pending []timer
}

func newTimerQueue() *timerQueue {
	return &timerQueue{nextID: 1}
}

func (q *timerQueue) add(fn goja.Callable, delay int64, args []goja.Value) int64 {
	id := q.nextID
	q.nextID++
	q.pending = append(q.pending, timer{id: id, delay: delay, fn: fn, args: args})
	return id
}

func (q *timerQueue) cancel(id int64) {
	for i, t := range q.pending {
		if t.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

func (q *timerQueue) next() (timer, bool) {
	if len(q.pending) == 0 {
		return timer{}, false
	}
	best := 0
	for i, t := range q.pending {
		if t.delay < q.pending[best].delay {
			best = i
		}
	}
	t := q.pending[best]
	q.pending = append(q.pending[:best], q.pending[best+1:]...)
	return t, true
}

func (q *timerQueue) len() int {
	return len(q.pending)
}
