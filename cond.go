package prio

import (
	"fmt"

	"github.com/gammazero/deque"
)

// condWaiter is one thread inside Wait, carrying the private
// semaphore handle Signal posts to wake it. The handle banks a post
// that arrives before the waiter has parked, so a wakeup is never
// lost between releasing the lock and suspending.
type condWaiter struct {
	t    *Thread
	sema sema
}

// Cond is a condition variable with priority-ordered wakeups: Signal
// wakes the waiter with the highest effective priority, and Broadcast
// wakes all waiters strictly in descending priority order. Waiter
// priority is re-read at signal time, so a donation or SetPriority
// that lands while a thread waits changes its wake order.
//
// The zero value is a Cond with no waiters.
type Cond struct {
	noCopy  noCopy
	waiters deque.Deque[*condWaiter]
}

// Wait atomically releases lock and suspends t until another thread
// calls Signal or Broadcast, then re-acquires lock before returning.
// The caller must hold lock. As with any condition variable, the
// awaited condition must be re-checked on return.
func (c *Cond) Wait(t *Thread, lock *Lock) {
	if !lock.HeldBy(t) {
		panic(fmt.Sprintf("prio: thread %d waiting on cond %p without holding lock %p", t.id, c, lock))
	}

	t.Logf("COND WAIT %p", c)

	w := &condWaiter{t: t}
	c.waiters.PushBack(w)

	lock.Release(t)
	w.sema.wait(t)
	lock.Acquire(t)
}

// Signal wakes the waiter with the highest effective priority, FIFO
// among equals. No-op if no thread is waiting. The caller must hold
// lock.
func (c *Cond) Signal(t *Thread, lock *Lock) {
	if !lock.HeldBy(t) {
		panic(fmt.Sprintf("prio: thread %d signaling cond %p without holding lock %p", t.id, c, lock))
	}

	w := c.take()
	if w == nil {
		return
	}

	t.Logf("COND SIGNAL %p -> thread %d", c, w.t.id)

	w.sema.post()
	t.sched.preempt()
}

// Broadcast wakes every waiter, one Signal at a time, so waiters are
// released strictly in descending priority order and reach the
// re-acquired lock in that order. The caller must hold lock.
func (c *Cond) Broadcast(t *Thread, lock *Lock) {
	if !lock.HeldBy(t) {
		panic(fmt.Sprintf("prio: thread %d broadcasting cond %p without holding lock %p", t.id, c, lock))
	}

	t.Logf("COND BROADCAST %p", c)

	for c.waiters.Len() > 0 {
		c.Signal(t, lock)
	}
}

// WaitCount returns the number of threads inside Wait.
func (c *Cond) WaitCount() int {
	return c.waiters.Len()
}

// take removes and returns the highest-priority waiter, or nil when
// none is queued. Priority is read at selection time.
func (c *Cond) take() *condWaiter {
	if c.waiters.Len() == 0 {
		return nil
	}

	best := 0
	for i := 1; i < c.waiters.Len(); i++ {
		if c.waiters.At(i).t.effective > c.waiters.At(best).t.effective {
			best = i
		}
	}
	return c.waiters.Remove(best)
}
