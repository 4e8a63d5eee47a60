package prio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaitGroup(t *testing.T) {
	r := require.New(t)

	s := New()

	expect, n := 100, 0
	s.Gogo(PriorityDefault, func(_ context.Context, t *Thread) {
		var wg WaitGroup

		for i := 0; i < expect-1; i++ {
			wg.Add(1)
			t.Gogo(PriorityDefault, func(_ context.Context, t *Thread) {
				defer wg.Done()
				t.Yield()
				n++
			})
		}

		wg.Wait(t)
		n++
	})

	s.Run(context.Background())

	r.Equal(expect, n)
}

func TestWaitGroupZeroCounterReturnsImmediately(t *testing.T) {
	r := require.New(t)

	s := New()

	n := 0
	s.Gogo(PriorityDefault, func(_ context.Context, t *Thread) {
		var wg WaitGroup
		wg.Wait(t)
		n++
	})

	s.Run(context.Background())

	r.Equal(1, n)
}

func TestWaitGroupWakesWaitersByPriority(t *testing.T) {
	r := require.New(t)

	s := New()

	var wg WaitGroup
	var order []int
	s.Gogo(1, func(_ context.Context, m *Thread) {
		wg.Add(1)

		for _, pri := range []int{3, 9, 5} {
			m.Go(pri, func(ctx context.Context) {
				w := MustThreadFromContext(ctx)
				wg.Wait(w)
				order = append(order, pri)
			})
		}

		wg.Done()
	})

	s.Run(context.Background())

	r.Equal([]int{9, 5, 3}, order)
}

func TestWaitGroupAddWhileWaitingPanics(t *testing.T) {
	r := require.New(t)

	s := New()

	s.Gogo(PriorityDefault, func(_ context.Context, _ *Thread) {
		// a waiter parked before the counter drained: reusing the
		// group by Add-ing from zero while it waits is misuse
		var wg WaitGroup
		wg.w = 1
		r.Panics(func() { wg.Add(1) })
	})

	s.Run(context.Background())
}

func TestWaitGroupNegativeCounterPanics(t *testing.T) {
	r := require.New(t)

	s := New()

	s.Gogo(PriorityDefault, func(_ context.Context, _ *Thread) {
		var wg WaitGroup
		r.Panics(func() { wg.Done() })
	})

	s.Run(context.Background())
}
