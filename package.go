// Package prio provides a cooperative, strict-priority thread
// scheduler with priority-donating synchronization primitives. It is
// designed to bound priority inversion: when a high-priority thread
// blocks on a lock held by a lower-priority thread, the holder's
// effective priority is raised to the waiter's, transitively through
// chains of nested locks, so the holder runs promptly and releases.
//
// Key components:
//
//   - Thread: The coroutine-backed unit of execution. Each thread
//     carries a base priority, an effective (possibly donated)
//     priority, and a ledger of the contended locks it holds.
//
//   - Schedule: Manages the run queue and dispatches the
//     highest-priority ready thread. Preemption is driven by
//     priority comparisons after every donation, revoke, wake, and
//     spawn.
//
//   - Lock: A mutual-exclusion lock that donates its waiters'
//     priority to the holder, propagating transitively through
//     chains of blocked holders.
//
//   - Cond: A condition variable whose Signal and Broadcast always
//     wake the highest-priority waiter first.
//
//   - WaitGroup: Waits for a collection of threads to finish;
//     waiters are released in priority order.
package prio
