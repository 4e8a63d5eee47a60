package prio

import (
	"context"
	"fmt"
	"runtime/trace"
	"strings"

	"github.com/webriots/coro"
)

const (
	threadTraceTaskType   = "prio-thread"
	threadTraceRegionType = "prio-region"
	threadTraceCategory   = "prio"
)

// Thread priorities range from PriorityMin to PriorityMax. A thread's
// base priority is fixed at spawn (or via SetPriority); its effective
// priority may be temporarily higher while waiters donate through
// locks it holds.
const (
	PriorityMin     = 0
	PriorityDefault = 31
	PriorityMax     = 63
)

// Thread is a coroutine-backed unit of execution dispatched by a
// Schedule. The scheduler always runs the ready thread with the
// highest effective priority.
type Thread struct {
	sched     *Schedule
	ctx       context.Context
	resume    func(struct{}) (struct{}, bool)
	suspend   func() struct{}
	cancel    func()
	id        uint64
	base      int
	effective int
	blockedOn *Lock     // lock this thread is blocked acquiring, nil otherwise
	held      donations // contended locks this thread holds
	done      bool
}

func newThread(sched *Schedule, priority int, fn func(context.Context, *Thread)) *Thread {
	checkPriority(priority)

	t := &Thread{
		sched:     sched,
		id:        sched.nextid(),
		base:      priority,
		effective: priority,
	}

	resume, cancel := coro.New(
		func(_ func(struct{}) struct{}, suspend func() struct{}) (z struct{}) {
			region := trace.StartRegion(t.ctx, threadTraceRegionType)
			defer region.End()

			t.suspend = suspend

			fn(t.ctx, t)

			return
		},
	)

	t.resume = resume
	t.cancel = cancel
	return t
}

func checkPriority(priority int) {
	if priority < PriorityMin || priority > PriorityMax {
		panic(fmt.Sprintf("prio: priority %d out of range [%d, %d]", priority, PriorityMin, PriorityMax))
	}
}

// ID returns the thread's scheduler-assigned identifier.
func (t *Thread) ID() uint64 {
	return t.id
}

// Priority returns the thread's effective priority: its base
// priority, or higher while waiters donate through locks it holds.
func (t *Thread) Priority() int {
	return t.effective
}

// Base returns the thread's base priority, unaffected by donation.
func (t *Thread) Base() int {
	return t.base
}

// SetPriority changes the thread's base priority. The effective
// priority is recomputed against outstanding donations; if the thread
// is blocked on a lock, the change propagates through the donation
// chain. A thread that lowers itself below a ready thread yields.
func (t *Thread) SetPriority(priority int) {
	checkPriority(priority)

	t.Logf("SET PRIORITY %d -> %d", t.base, priority)

	t.base = priority
	t.refresh()

	if lock := t.blockedOn; lock != nil {
		lock.propagate(t)
	}

	t.sched.preempt()
}

// Gogo spawns a thread at the given priority running fn. The spawner
// yields immediately if the new thread outranks it.
func (t *Thread) Gogo(priority int, fn func(context.Context, *Thread)) *Thread {
	return t.sched.spawn(t.ctx, priority, fn)
}

// Go spawns a thread from a function that only takes a context.
func (t *Thread) Go(priority int, fn func(context.Context)) *Thread {
	return t.Gogo(priority, func(ctx context.Context, _ *Thread) { fn(ctx) })
}

// Yield requeues the thread and suspends it, letting the scheduler
// dispatch the highest-priority ready thread. With no higher- or
// equal-priority thread ready, the caller resumes immediately.
func (t *Thread) Yield() {
	t.Log("YIELD")
	t.sched.ready(t)
	t.park()
}

// refresh recomputes the effective priority: the base priority or the
// highest donation in the ledger, whichever is greater.
func (t *Thread) refresh() {
	t.effective = t.base
	if top := t.held.max(t.base); top > t.effective {
		t.effective = top
	}
}

// park suspends the thread, returning control to the dispatch loop.
// The thread must already be on the run queue or registered with a
// waker before parking, or it will never run again.
func (t *Thread) park() {
	t.suspend()
}

// unpark makes a blocked thread ready. It does not preempt; callers
// invoke the scheduler's preemption hook once their bookkeeping is
// consistent.
func (t *Thread) unpark() {
	t.sched.ready(t)
}

// resumez resumes the thread with a zero value and reports whether it
// is still live (suspended again) rather than finished.
func (t *Thread) resumez() bool {
	var z struct{}
	_, ok := t.resume(z)
	return ok
}

// Log emits msg to the execution tracer when tracing is enabled.
func (t *Thread) Log(msg string) {
	if trace.IsEnabled() {
		var sb strings.Builder
		fmt.Fprintf(&sb, "thread %d [pri %d/%d] ", t.id, t.effective, t.base)
		sb.WriteString(msg)
		trace.Log(t.ctx, threadTraceCategory, sb.String())
	}
}

// Logf emits a formatted message to the execution tracer when tracing
// is enabled.
func (t *Thread) Logf(format string, args ...any) {
	if trace.IsEnabled() {
		var sb strings.Builder
		fmt.Fprintf(&sb, "thread %d [pri %d/%d] ", t.id, t.effective, t.base)
		fmt.Fprintf(&sb, format, args...)
		trace.Log(t.ctx, threadTraceCategory, sb.String())
	}
}
