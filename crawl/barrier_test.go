package crawl_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/webcrawl/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarrier(t *testing.T) {
	t.Parallel()

	t.Run("wait returns immediately with no registered tasks", func(t *testing.T) {
		t.Parallel()

		b := crawl.NewBarrier()
		require.NoError(t, b.Wait(context.Background()))
		assert.Equal(t, 0, b.Pending())
	})

	t.Run("wait blocks until every registered task arrives", func(t *testing.T) {
		t.Parallel()

		b := crawl.NewBarrier()
		b.Register()
		b.Register()

		waited := make(chan error, 1)
		go func() { waited <- b.Wait(context.Background()) }()

		b.Arrive()
		select {
		case <-waited:
			t.Fatal("wait returned with a task pending")
		case <-time.After(20 * time.Millisecond):
		}

		b.Arrive()
		select {
		case err := <-waited:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("wait did not return")
		}
	})

	t.Run("tasks may register children while the waiter blocks", func(t *testing.T) {
		t.Parallel()

		b := crawl.NewBarrier()

		// Each task registers its children before arriving, forming a tree
		// of 1+2+4+8 tasks.
		var spawn func(level int)
		spawn = func(level int) {
			b.Register()
			go func() {
				defer b.Arrive()
				if level == 0 {
					return
				}
				spawn(level - 1)
				spawn(level - 1)
			}()
		}
		spawn(3)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, b.Wait(ctx))
		assert.Equal(t, 0, b.Pending())
	})

	t.Run("wait returns context error when tasks never arrive", func(t *testing.T) {
		t.Parallel()

		b := crawl.NewBarrier()
		b.Register()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := b.Wait(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, b.Pending())
	})

	t.Run("pending counts the waiter until it waits", func(t *testing.T) {
		t.Parallel()

		b := crawl.NewBarrier()
		assert.Equal(t, 1, b.Pending())

		b.Register()
		b.Register()
		assert.Equal(t, 3, b.Pending())

		b.Arrive()
		b.Arrive()
		assert.Equal(t, 1, b.Pending(), "waiter party keeps the barrier open")

		require.NoError(t, b.Wait(context.Background()))
		assert.Equal(t, 0, b.Pending())
	})

	t.Run("concurrent register and arrive", func(t *testing.T) {
		t.Parallel()

		b := crawl.NewBarrier()

		var wg sync.WaitGroup
		for range 100 {
			b.Register()
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.Arrive()
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, b.Pending())
		require.NoError(t, b.Wait(context.Background()))
	})

	t.Run("arrive without a pending party panics", func(t *testing.T) {
		t.Parallel()

		b := crawl.NewBarrier()
		b.Arrive()
		assert.Panics(t, func() { b.Arrive() })
	})

	t.Run("register after completion panics", func(t *testing.T) {
		t.Parallel()

		b := crawl.NewBarrier()
		require.NoError(t, b.Wait(context.Background()))
		assert.Panics(t, func() { b.Register() })
	})
}
