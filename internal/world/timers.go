package world

import (
	"container/heap"
	"time"

	"trackerbot/internal/tracker"
)

type scheduledTimer struct {
	handle tracker.TimerHandle
	due    time.Duration
	period time.Duration
	fn     func()
	index  int
}

type timerQueue []*scheduledTimer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due == q[j].due {
		return q[i].handle < q[j].handle
	}
	return q[i].due < q[j].due
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	item := x.(*scheduledTimer)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// Scheduler runs callbacks against simulated time. Callbacks fire in due order
// and may schedule or cancel other timers, including themselves.
type Scheduler struct {
	now    time.Duration
	next   tracker.TimerHandle
	queue  timerQueue
	active map[tracker.TimerHandle]*scheduledTimer
	// afterFire runs after every callback.
	afterFire func()
}

func NewScheduler() *Scheduler {
	return &Scheduler{active: make(map[tracker.TimerHandle]*scheduledTimer)}
}

func (s *Scheduler) SetTimer(delay time.Duration, fn func()) tracker.TimerHandle {
	return s.schedule(delay, 0, fn)
}

// SetRepeating fires every period, starting one period from now.
func (s *Scheduler) SetRepeating(period time.Duration, fn func()) tracker.TimerHandle {
	if period <= 0 {
		period = time.Millisecond
	}
	return s.schedule(period, period, fn)
}

func (s *Scheduler) schedule(delay, period time.Duration, fn func()) tracker.TimerHandle {
	if delay < 0 {
		delay = 0
	}
	s.next++
	timer := &scheduledTimer{handle: s.next, due: s.now + delay, period: period, fn: fn}
	s.active[timer.handle] = timer
	heap.Push(&s.queue, timer)
	return timer.handle
}

func (s *Scheduler) Cancel(handle tracker.TimerHandle) {
	timer, ok := s.active[handle]
	if !ok {
		return
	}
	delete(s.active, handle)
	if timer.index >= 0 {
		heap.Remove(&s.queue, timer.index)
	}
}

func (s *Scheduler) Now() time.Duration {
	return s.now
}

func (s *Scheduler) Pending() int {
	return len(s.active)
}

// Advance moves simulated time forward by dt, firing every timer that comes
// due on the way with Now set to its due time.
func (s *Scheduler) Advance(dt time.Duration) {
	end := s.now + dt
	for s.queue.Len() > 0 && s.queue[0].due <= end {
		timer := heap.Pop(&s.queue).(*scheduledTimer)
		s.now = timer.due
		if timer.period > 0 {
			timer.due += timer.period
			heap.Push(&s.queue, timer)
		} else {
			delete(s.active, timer.handle)
		}
		if timer.fn != nil {
			timer.fn()
		}
		if s.afterFire != nil {
			s.afterFire()
		}
	}
	s.now = end
}
