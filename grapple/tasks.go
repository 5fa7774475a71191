package grapple

// task is a deferred unit of work. Guarded tasks belong to a session
// generation and are dropped once that generation is no longer current.
type task struct {
	gen     uint64
	tick    uint64
	due     float64
	guarded bool
	fn      func()
}

// TaskQueue holds "next tick" and "after duration" work. Scheduling is
// fire-and-forget; nothing can be cancelled.
//
// Work never runs in the tick that queued it, whether it was queued before or
// after that tick's Run. EndTick closes the current tick.
type TaskQueue struct {
	pending []task
	now     float64
	tick    uint64
}

func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// Next runs fn on the next Run if gen is still current then.
func (q *TaskQueue) Next(gen uint64, fn func()) {
	q.push(task{gen: gen, due: q.now, guarded: true, fn: fn})
}

// After runs fn once delay seconds have elapsed, if gen is still current.
func (q *TaskQueue) After(gen uint64, delay float64, fn func()) {
	if delay < 0 {
		delay = 0
	}
	q.push(task{gen: gen, due: q.now + delay, guarded: true, fn: fn})
}

// Cleanup runs fn on the next Run regardless of generation. Used to release
// resources owned by a session that has already ended.
func (q *TaskQueue) Cleanup(fn func()) {
	q.push(task{due: q.now, fn: fn})
}

func (q *TaskQueue) push(t task) {
	if q == nil || t.fn == nil {
		return
	}
	t.tick = q.tick
	q.pending = append(q.pending, t)
}

// EndTick closes the current tick. Work queued so far becomes eligible for the
// next Run.
func (q *TaskQueue) EndTick() {
	if q == nil {
		return
	}
	q.tick++
}

// Run advances the queue clock to now and executes due tasks queued in an
// earlier tick. It returns the number of tasks executed.
func (q *TaskQueue) Run(now float64, current uint64) int {
	if q == nil {
		return 0
	}
	q.now = now
	if len(q.pending) == 0 {
		return 0
	}
	batch := q.pending
	q.pending = nil

	ran := 0
	var waiting []task
	for _, t := range batch {
		if t.tick >= q.tick || t.due > now {
			waiting = append(waiting, t)
			continue
		}
		if t.guarded && t.gen != current {
			continue
		}
		t.fn()
		ran++
	}
	q.pending = append(waiting, q.pending...)
	return ran
}

// Len reports how many tasks are waiting.
func (q *TaskQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.pending)
}
