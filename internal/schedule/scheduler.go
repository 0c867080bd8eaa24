// Package schedule runs periodic and delayed bodies on the simulation loop.
// Nothing runs on its own goroutine: bodies execute inside Update, so they
// may call container operations without locking.
package schedule

import (
	"container/heap"
	"time"
)

// MinInterval is the shortest period accepted by RunPeriodic.
const MinInterval = time.Millisecond

// Task is a scheduled body. Cancel is idempotent and safe to call from
// inside the task's own body.
type Task struct {
	id        uint64
	due       time.Time
	interval  time.Duration
	body      func()
	cancelled bool
	index     int
	owner     *Scheduler
}

// Cancel stops the task. Later calls are no-ops.
func (t *Task) Cancel() {
	if t == nil || t.cancelled {
		return
	}
	t.cancelled = true
	t.owner.queue.remove(t)
}

// Cancelled reports whether Cancel was called or a one-shot task has run.
func (t *Task) Cancelled() bool { return t.cancelled }

// Due returns the next time the task will run.
func (t *Task) Due() time.Time { return t.due }

// Scheduler orders tasks by due time against a caller-supplied clock.
type Scheduler struct {
	now    time.Time
	queue  taskHeap
	nextID uint64
}

// New returns a scheduler whose clock starts at start.
func New(start time.Time) *Scheduler {
	s := &Scheduler{now: start}
	heap.Init(&s.queue)
	return s
}

// Now is the time of the last Update.
func (s *Scheduler) Now() time.Time { return s.now }

// Len is the number of pending tasks.
func (s *Scheduler) Len() int { return s.queue.Len() }

// RunPeriodic runs body every interval, first after one interval.
func (s *Scheduler) RunPeriodic(interval time.Duration, body func()) *Task {
	if interval < MinInterval {
		interval = MinInterval
	}
	return s.push(interval, interval, body)
}

// RunAfterDelay runs body once after delay.
func (s *Scheduler) RunAfterDelay(delay time.Duration, body func()) *Task {
	if delay < 0 {
		delay = 0
	}
	return s.push(delay, 0, body)
}

func (s *Scheduler) push(delay, interval time.Duration, body func()) *Task {
	s.nextID++
	t := &Task{
		id:       s.nextID,
		due:      s.now.Add(delay),
		interval: interval,
		body:     body,
		index:    -1,
		owner:    s,
	}
	heap.Push(&s.queue, t)
	return t
}

// Update advances the clock to now and runs every task that is due, earliest
// first. A periodic task runs at most once per Update; if it fell behind it
// is rearmed one interval after now.
func (s *Scheduler) Update(now time.Time) {
	if now.After(s.now) {
		s.now = now
	}
	var rearm []*Task
	for {
		t := s.queue.peek()
		if t == nil || t.due.After(s.now) {
			break
		}
		heap.Pop(&s.queue)
		if t.body != nil {
			t.body()
		}
		if t.cancelled {
			continue
		}
		if t.interval == 0 {
			t.cancelled = true
			continue
		}
		next := t.due.Add(t.interval)
		if !next.After(s.now) {
			next = s.now.Add(t.interval)
		}
		t.due = next
		rearm = append(rearm, t)
	}
	for _, t := range rearm {
		if !t.cancelled {
			heap.Push(&s.queue, t)
		}
	}
}
