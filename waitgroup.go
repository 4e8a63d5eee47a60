package prio

// WaitGroup is used to wait for a collection of threads to finish.
// Threads call Add(1) when they start and Done() when they finish.
// Other threads can call Wait() to block until all threads have
// finished. Waiters are released highest priority first.
type WaitGroup struct {
	noCopy noCopy
	v      int32  // counter for the number of threads
	w      uint32 // number of threads waiting
	sema   sema   // queue of waiting threads
}

// Add adds delta to the WaitGroup counter. If the counter becomes
// zero and there are threads waiting, they will be woken in priority
// order. If the counter goes negative, Add panics.
func (wg *WaitGroup) Add(delta int) {
	wg.v += int32(delta)

	if wg.v < 0 {
		panic("prio: negative WaitGroup counter")
	}

	if wg.w != 0 && delta > 0 && wg.v == int32(delta) {
		panic("prio: WaitGroup misuse: Add called concurrently with Wait")
	}

	if wg.v > 0 || wg.w == 0 {
		return
	}

	wg.w = 0
	if woken := wg.sema.wakeAll(); woken != nil {
		woken.sched.preempt()
	}
}

// Done decrements the WaitGroup counter by one. It's a convenience
// method equivalent to Add(-1).
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Wait blocks the calling thread until the WaitGroup counter is zero.
// If the counter is already zero, it returns immediately.
func (wg *WaitGroup) Wait(t *Thread) {
	if wg.v == 0 {
		return
	}

	wg.w++
	wg.sema.wait(t)
}
