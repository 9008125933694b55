package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := New[int](10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Put(ctx, i))
	}

	for i := 0; i < 5; i++ {
		v, err := q.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
		q.Done()
	}
}

func TestQueue_TryPutFull(t *testing.T) {
	q := New[string](2)

	assert.True(t, q.TryPut("a"))
	assert.True(t, q.TryPut("b"))
	assert.False(t, q.TryPut("c"), "TryPut on a full queue must not block")
	assert.Equal(t, 2, q.Len())
}

func TestQueue_GetBlocksUntilPut(t *testing.T) {
	q := New[int](1)
	ctx := context.Background()

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.TryPut(42)
	}()

	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	q.Done()
}

func TestQueue_GetCancelled(t *testing.T) {
	q := New[int](1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_JoinWaitsForDone(t *testing.T) {
	q := New[int](10)
	ctx := context.Background()

	require.NoError(t, q.Put(ctx, 1))
	require.NoError(t, q.Put(ctx, 2))

	// Join must not return while items are outstanding.
	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Join(shortCtx), context.DeadlineExceeded)

	for i := 0; i < 2; i++ {
		_, err := q.Get(ctx)
		require.NoError(t, err)
		q.Done()
	}

	assert.NoError(t, q.Join(ctx))
}

func TestQueue_JoinEmptyReturnsImmediately(t *testing.T) {
	q := New[int](1)
	assert.NoError(t, q.Join(context.Background()))
}

func TestQueue_DoneUnderflowPanics(t *testing.T) {
	q := New[int](1)
	assert.Panics(t, func() { q.Done() })
}

func TestQueue_TryPutFailureDoesNotLeakAccounting(t *testing.T) {
	q := New[int](1)
	ctx := context.Background()

	assert.True(t, q.TryPut(1))
	assert.False(t, q.TryPut(2))

	_, err := q.Get(ctx)
	require.NoError(t, err)
	q.Done()

	// The rejected item must not be counted as outstanding.
	assert.NoError(t, q.Join(ctx))
}

func TestQueue_DefaultCapacity(t *testing.T) {
	q := New[int](0)
	for i := 0; i < DefaultCapacity; i++ {
		require.True(t, q.TryPut(1))
	}
	assert.False(t, q.TryPut(1))
}
