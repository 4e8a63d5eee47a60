package prio

import "github.com/gammazero/deque"

// sema implements a semaphore for thread synchronization. It manages
// a count of banked posts and a queue of blocked threads. Wakes are
// priority-ordered, not FIFO: the highest-effective-priority waiter
// is released first, with priority re-read at wake time.
type sema struct {
	noCopy noCopy
	v      uint32               // banked posts
	w      deque.Deque[*Thread] // blocked threads
}

// wait blocks t until a post or wake arrives. A banked post is
// consumed without blocking.
func (s *sema) wait(t *Thread) {
	if s.v > 0 {
		s.v--
		return
	}

	s.w.PushBack(t)
	t.park()
}

// post wakes the highest-priority waiter, or banks the post when
// none is queued so a waiter arriving later does not block.
func (s *sema) post() {
	if s.w.Len() == 0 {
		s.v++
		return
	}

	s.wake()
}

// wake makes the highest-priority waiter ready, if any, and returns
// it. Unlike post, nothing is banked when the queue is empty.
func (s *sema) wake() *Thread {
	t := popHighest(&s.w)
	if t == nil {
		return nil
	}

	t.unpark()
	return t
}

// wakeAll readies every waiter, highest priority first, returning the
// last one woken.
func (s *sema) wakeAll() (last *Thread) {
	for s.w.Len() > 0 {
		last = s.wake()
	}
	return last
}

// waitCount returns the number of threads blocked on the semaphore.
func (s *sema) waitCount() int {
	return s.w.Len()
}
