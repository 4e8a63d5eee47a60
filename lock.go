package prio

import "fmt"

// donationDepthMax bounds the transitive donation walk. A chain this
// deep means the wait-for graph is corrupted or cyclic, which is a
// caller-level deadlock bug; the bound exists to fail loudly instead
// of looping forever.
const donationDepthMax = 32

// Lock provides mutual exclusion for threads with priority donation:
// while higher-priority threads wait, the holder runs at the highest
// waiter's effective priority, transitively through chains of blocked
// holders, so it cannot be starved by mid-priority threads. Locks are
// not recursive; re-acquiring a held lock is a fatal caller error.
//
// The zero value is an unlocked Lock.
type Lock struct {
	noCopy  noCopy
	holder  *Thread // thread holding the lock, nil when free
	donated int     // highest priority among queued waiters; meaningless when free
	sema    sema    // queue of blocked waiters, priority-ordered wake
}

// Acquire locks l for t, suspending t until the lock is available.
// On contention t donates its effective priority to the holder before
// blocking. Threads blocked on the same lock are granted it in
// effective-priority order, not arrival order.
func (l *Lock) Acquire(t *Thread) {
	if l.holder == t {
		panic(fmt.Sprintf("prio: thread %d acquiring lock %p it already holds", t.id, l))
	}

	t.Logf("ACQUIRE %p", l)

	// Re-check after every wake: another thread may have taken the
	// lock between the release and this thread running, in which
	// case the donation must be redone against the new holder.
	for l.holder != nil {
		l.donate(t)
		l.sema.wait(t)
	}

	t.blockedOn = nil
	l.holder = t
	l.adopt(t)
}

// Release unlocks l, which must be held by t. The holder's donated
// priority from this lock is revoked, dropping its effective priority
// to the next-highest donor or to base, and the highest-priority
// waiter is woken.
func (l *Lock) Release(t *Thread) {
	if l.holder != t {
		panic(fmt.Sprintf("prio: thread %d releasing lock %p it does not hold", t.id, l))
	}

	t.Logf("RELEASE %p", l)

	l.holder = nil
	t.held.remove(l)
	t.refresh()

	l.sema.wake()
	t.sched.preempt()
}

// HeldBy reports whether t holds l.
func (l *Lock) HeldBy(t *Thread) bool {
	return l.holder == t
}

// WaitCount returns the number of threads blocked acquiring the lock.
func (l *Lock) WaitCount() int {
	return l.sema.waitCount()
}

// donate records t's claim on the contended lock, raises the holder's
// effective priority, and propagates through the chain of blocked
// holders. Invoked with the holder set.
func (l *Lock) donate(t *Thread) {
	t.blockedOn = l
	t.Logf("DONATE %d -> thread %d via lock %p", t.effective, l.holder.id, l)

	l.propagate(t)
	t.sched.preempt()
}

// propagate raises the lock's donated priority to t's effective
// priority if it is higher, repositions the lock in the holder's
// ledger, and walks the chain of blocked holders doing the same.
// Also used when a blocked thread's priority is raised after it has
// already donated.
func (l *Lock) propagate(t *Thread) {
	holder := l.holder
	if holder == nil {
		return
	}

	if l.donated < t.effective {
		l.donated = t.effective
	}
	holder.held.upsert(l)
	holder.refresh()

	// Transitive step: the holder may itself be blocked, in which
	// case the thread it waits on must inherit t's urgency too, and
	// so on until a runnable thread is reached.
	p := t.effective
	cur := holder
	for depth := 0; cur.blockedOn != nil; depth++ {
		if depth >= donationDepthMax {
			panic(fmt.Sprintf(
				"prio: donation chain through lock %p exceeds %d hops at thread %d: cyclic wait",
				l, donationDepthMax, cur.id))
		}

		next := cur.blockedOn
		h := next.holder
		if h == nil {
			// Lock in handoff: the woken waiter has not run yet.
			// Whoever acquires it recomputes the donation in adopt.
			break
		}

		if next.donated < p {
			next.donated = p
		}
		h.held.upsert(next)
		h.refresh()
		cur = h
	}
}

// adopt runs when t becomes the holder. The lock's donated priority
// is recomputed over the waiters still queued, so donations from
// departed waiters do not linger, and the lock enters t's ledger if
// any waiters remain.
func (l *Lock) adopt(t *Thread) {
	if l.sema.waitCount() == 0 {
		l.donated = -1
		return
	}

	max := -1
	for i := 0; i < l.sema.w.Len(); i++ {
		if p := l.sema.w.At(i).effective; p > max {
			max = p
		}
	}

	l.donated = max
	t.held.upsert(l)
	t.refresh()
}
