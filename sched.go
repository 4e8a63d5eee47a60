package prio

import (
	"context"
	"fmt"
	"runtime/trace"
	"strings"

	"github.com/gammazero/deque"
)

// Schedule dispatches threads by strict priority: the ready thread
// with the highest effective priority always runs next, FIFO among
// equals. Exactly one thread executes at a time; all lock, ledger,
// and priority bookkeeping happens between suspension points on the
// dispatching goroutine, so it is never observed half-done.
type Schedule struct {
	runq    deque.Deque[*Thread]
	current *Thread
	threads []*Thread
	ctx     context.Context
	ids     uint64
	nlive   int
}

// New creates an empty Schedule. Threads are added with Go or Gogo
// and dispatched by Run.
func New() *Schedule {
	return new(Schedule)
}

// Gogo spawns a thread at the given priority running fn. When called
// while the schedule is running, the spawner yields immediately if
// the new thread outranks it.
func (s *Schedule) Gogo(priority int, fn func(context.Context, *Thread)) *Thread {
	return s.spawn(s.ctx, priority, fn)
}

// Go spawns a thread from a function that only takes a context.
func (s *Schedule) Go(priority int, fn func(context.Context)) *Thread {
	return s.Gogo(priority, func(ctx context.Context, _ *Thread) { fn(ctx) })
}

// Run dispatches threads until every spawned thread has finished. It
// panics if the run queue drains while threads remain blocked, since
// nothing inside the schedule can ever wake them again.
func (s *Schedule) Run(ctx context.Context) {
	var tracer *trace.Task

	ctx, tracer = trace.NewTask(ctx, threadTraceTaskType)
	defer tracer.End()

	s.ctx = ctx

	trace.Log(ctx, threadTraceCategory, "RUN")

	for s.runq.Len() > 0 {
		t := popHighest(&s.runq)
		if t.ctx == nil {
			t.ctx = withThreadContext(ctx, t)
		}

		s.current = t
		live := t.resumez()
		s.current = nil

		if !live {
			t.Log("DONE")
			t.done = true
			t.cancel()
			s.nlive--
		}
	}

	if s.nlive > 0 {
		panic("prio: deadlock: " + s.blockedReport())
	}

	trace.Log(ctx, threadTraceCategory, "RUN DONE")
}

func (s *Schedule) spawn(ctx context.Context, priority int, fn func(context.Context, *Thread)) *Thread {
	t := newThread(s, priority, fn)
	if ctx != nil {
		t.ctx = withThreadContext(ctx, t)
	}

	s.threads = append(s.threads, t)
	s.nlive++
	s.ready(t)
	s.preempt()

	return t
}

// ready places t on the run queue. It does not preempt; callers
// invoke preempt once their bookkeeping is consistent.
func (s *Schedule) ready(t *Thread) {
	s.runq.PushBack(t)
}

// preempt is the scheduler's yield-if-outranked hook, invoked after
// any event that raises a ready thread's effective priority or lowers
// the running thread's. If a ready thread now strictly outranks the
// running thread, the running thread is requeued and suspended.
// Idempotent, and a no-op outside a running dispatch.
func (s *Schedule) preempt() {
	t := s.current
	if t == nil {
		return
	}

	if i := highestIndex(&s.runq); i >= 0 && s.runq.At(i).effective > t.effective {
		t.Log("PREEMPT")
		s.ready(t)
		t.park()
	}
}

func (s *Schedule) nextid() uint64 {
	s.ids++
	return s.ids
}

func (s *Schedule) blockedReport() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d thread(s) blocked with none ready:", s.nlive)
	for _, t := range s.threads {
		if t.done {
			continue
		}
		fmt.Fprintf(&sb, " thread %d [pri %d/%d]", t.id, t.effective, t.base)
		if t.blockedOn != nil {
			fmt.Fprintf(&sb, " on lock %p", t.blockedOn)
		}
		sb.WriteRune(';')
	}
	return sb.String()
}

// highestIndex returns the index of the queued thread with the
// highest effective priority, or -1 when empty. Priorities are read
// at decision time, never cached, and the scan keeps FIFO order among
// equals.
func highestIndex(q *deque.Deque[*Thread]) int {
	if q.Len() == 0 {
		return -1
	}

	best := 0
	for i := 1; i < q.Len(); i++ {
		if q.At(i).effective > q.At(best).effective {
			best = i
		}
	}
	return best
}

// popHighest removes and returns the highest-priority queued thread,
// or nil when empty.
func popHighest(q *deque.Deque[*Thread]) *Thread {
	i := highestIndex(q)
	if i < 0 {
		return nil
	}
	return q.Remove(i)
}
