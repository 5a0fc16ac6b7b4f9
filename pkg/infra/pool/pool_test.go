package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	p, err := NewPool("test", nil)
	require.NoError(t, err)
	defer p.Release()

	assert.Equal(t, "test", p.Name())
	assert.Equal(t, DefaultPoolConfig().Capacity, p.Cap())
}

func TestPoolSubmit(t *testing.T) {
	p, err := NewPool("test", &Config{Capacity: 4, ExpiryDuration: time.Second})
	require.NoError(t, err)
	defer p.Release()

	var counter atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		}))
	}
	wg.Wait()

	assert.EqualValues(t, 50, counter.Load())
	assert.Eventually(t, func() bool { return p.Stats().Completed == 50 }, time.Second, 10*time.Millisecond)
}

func TestPoolGoRunsEveryTask(t *testing.T) {
	p, err := NewPool("test", &Config{Capacity: 1, ExpiryDuration: time.Second, Nonblocking: true})
	require.NoError(t, err)
	defer p.Release()

	var counter atomic.Int32
	tasks := make([]func(context.Context), 10)
	for i := range tasks {
		tasks[i] = func(context.Context) {
			time.Sleep(5 * time.Millisecond)
			counter.Add(1)
		}
	}

	p.Go(context.Background(), tasks...)
	assert.EqualValues(t, 10, counter.Load())
}

func TestPoolReleased(t *testing.T) {
	p, err := NewPool("test", nil)
	require.NoError(t, err)

	p.Release()
	p.Release()

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
	assert.NoError(t, p.ReleaseTimeout(time.Second))
}

func TestPoolPanicIsRecovered(t *testing.T) {
	recovered := make(chan interface{}, 1)
	p, err := NewPool("test", &Config{
		Capacity:       1,
		ExpiryDuration: time.Second,
		PanicHandler:   func(r interface{}) { recovered <- r },
	})
	require.NoError(t, err)
	defer p.Release()

	require.NoError(t, p.Submit(func() { panic("boom") }))

	select {
	case r := <-recovered:
		assert.Equal(t, "boom", r)
	case <-time.After(time.Second):
		t.Fatal("panic handler not called")
	}
	assert.EqualValues(t, 1, p.Stats().Panics)
}
