package prio

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunHighestPriorityFirst(t *testing.T) {
	r := require.New(t)

	s := New()

	var order []int
	for _, pri := range []int{3, 9, 5} {
		s.Go(pri, func(context.Context) {
			order = append(order, pri)
		})
	}

	s.Run(context.Background())

	r.Equal([]int{9, 5, 3}, order)
}

func TestEqualPriorityRunsFIFO(t *testing.T) {
	r := require.New(t)

	s := New()

	var order []int
	for i := 0; i < 4; i++ {
		s.Go(PriorityDefault, func(context.Context) {
			order = append(order, i)
		})
	}

	s.Run(context.Background())

	r.Equal([]int{0, 1, 2, 3}, order)
}

func TestSpawnPreemptsWhenOutranked(t *testing.T) {
	r := require.New(t)

	s := New()

	var order []string
	s.Gogo(PriorityDefault, func(_ context.Context, parent *Thread) {
		order = append(order, "parent before")

		parent.Go(PriorityDefault+1, func(context.Context) {
			order = append(order, "high child")
		})

		order = append(order, "parent middle")

		parent.Go(PriorityDefault-1, func(context.Context) {
			order = append(order, "low child")
		})

		order = append(order, "parent after")
	})

	s.Run(context.Background())

	r.Equal([]string{
		"parent before",
		"high child",
		"parent middle",
		"parent after",
		"low child",
	}, order)
}

func TestEqualPrioritySpawnDoesNotPreempt(t *testing.T) {
	r := require.New(t)

	s := New()

	var order []string
	s.Gogo(PriorityDefault, func(_ context.Context, parent *Thread) {
		parent.Go(PriorityDefault, func(context.Context) {
			order = append(order, "child")
		})
		order = append(order, "parent")
	})

	s.Run(context.Background())

	r.Equal([]string{"parent", "child"}, order)
}

func TestYieldRoundRobinsEqualPriority(t *testing.T) {
	r := require.New(t)

	s := New()

	var order []string
	for _, name := range []string{"a", "b"} {
		s.Gogo(PriorityDefault, func(_ context.Context, t *Thread) {
			order = append(order, name+"1")
			t.Yield()
			order = append(order, name+"2")
		})
	}

	s.Run(context.Background())

	r.Equal([]string{"a1", "b1", "a2", "b2"}, order)
}

func TestYieldWithEmptyQueueResumesImmediately(t *testing.T) {
	r := require.New(t)

	s := New()

	n := 0
	s.Gogo(PriorityDefault, func(_ context.Context, t *Thread) {
		t.Yield()
		n++
	})

	s.Run(context.Background())

	r.Equal(1, n)
}

func TestSetPriorityYieldsWhenLowered(t *testing.T) {
	r := require.New(t)

	s := New()

	var order []string
	s.Gogo(40, func(_ context.Context, t *Thread) {
		t.Go(30, func(context.Context) {
			order = append(order, "other")
		})

		order = append(order, "before drop")
		t.SetPriority(20)
		order = append(order, "after drop")

		r.Equal(20, t.Priority())
		r.Equal(20, t.Base())
	})

	s.Run(context.Background())

	r.Equal([]string{"before drop", "other", "after drop"}, order)
}

func TestSetPriorityRaiseKeepsRunning(t *testing.T) {
	r := require.New(t)

	s := New()

	var order []string
	s.Gogo(10, func(_ context.Context, t *Thread) {
		t.Go(20, func(context.Context) {
			order = append(order, "mid")
		})

		// preempted by the spawn; resumes once mid finishes
		t.SetPriority(50)
		order = append(order, "raised")

		t.Go(40, func(context.Context) {
			order = append(order, "lower")
		})

		order = append(order, "still running")
	})

	s.Run(context.Background())

	r.Equal([]string{"mid", "raised", "still running", "lower"}, order)
}

func TestThreadFromContext(t *testing.T) {
	r := require.New(t)

	s := New()

	s.Gogo(PriorityDefault, func(ctx context.Context, t *Thread) {
		got, ok := ThreadFromContext(ctx)
		r.True(ok)
		r.Same(t, got)
		r.Same(t, MustThreadFromContext(ctx))
	})

	s.Run(context.Background())

	_, ok := ThreadFromContext(context.Background())
	r.False(ok)
	r.Panics(func() { MustThreadFromContext(context.Background()) })
}

func TestThreadIDsAreUnique(t *testing.T) {
	r := require.New(t)

	s := New()

	seen := map[uint64]bool{}
	for i := 0; i < 3; i++ {
		s.Gogo(PriorityDefault, func(_ context.Context, t *Thread) {
			r.False(seen[t.ID()])
			seen[t.ID()] = true
		})
	}

	s.Run(context.Background())

	r.Len(seen, 3)
}

func TestPriorityOutOfRangePanics(t *testing.T) {
	r := require.New(t)

	s := New()

	r.Panics(func() { s.Go(PriorityMax+1, func(context.Context) {}) })
	r.Panics(func() { s.Go(PriorityMin-1, func(context.Context) {}) })

	s.Gogo(PriorityDefault, func(_ context.Context, t *Thread) {
		r.Panics(func() { t.SetPriority(PriorityMax + 1) })
	})

	s.Run(context.Background())
}

func TestDeadlockPanics(t *testing.T) {
	r := require.New(t)

	s := New()

	var lock Lock
	s.Gogo(PriorityDefault, func(_ context.Context, t *Thread) {
		lock.Acquire(t)
		// exits holding the lock
	})
	s.Gogo(PriorityDefault, func(_ context.Context, t *Thread) {
		lock.Acquire(t)
	})

	defer func() {
		p := recover()
		r.NotNil(p)
		r.Contains(fmt.Sprint(p), "prio: deadlock")
	}()

	s.Run(context.Background())
}
