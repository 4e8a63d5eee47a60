package prio

// donations is the ledger of contended locks held by a single
// thread: every lock the thread holds that has at least one waiter,
// ordered by donated priority, highest first. The highest entry is
// the donation currently raising the thread's effective priority.
type donations struct {
	locks []*Lock
}

// upsert inserts lock into the ledger, or repositions it if already
// present, keeping descending order by donated priority. Lookup is by
// lock identity, so a lock is never duplicated when a second waiter
// donates through it.
func (d *donations) upsert(lock *Lock) {
	d.remove(lock)

	i := 0
	for ; i < len(d.locks); i++ {
		if d.locks[i].donated < lock.donated {
			break
		}
	}

	d.locks = append(d.locks, nil)
	copy(d.locks[i+1:], d.locks[i:])
	d.locks[i] = lock
}

// remove deletes lock from the ledger by identity. No-op if absent.
func (d *donations) remove(lock *Lock) {
	for i, held := range d.locks {
		if held == lock {
			d.locks = append(d.locks[:i], d.locks[i+1:]...)
			return
		}
	}
}

// max returns the highest donated priority in the ledger, or base
// when the ledger is empty.
func (d *donations) max(base int) int {
	if len(d.locks) == 0 {
		return base
	}
	return d.locks[0].donated
}

// contains reports whether lock is present in the ledger.
func (d *donations) contains(lock *Lock) bool {
	for _, held := range d.locks {
		if held == lock {
			return true
		}
	}
	return false
}

// len returns the number of ledger entries.
func (d *donations) len() int {
	return len(d.locks)
}
