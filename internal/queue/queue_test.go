package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_RunsSequentially(t *testing.T) {
	q := New()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
				time.Sleep(time.Millisecond)
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return i, nil
			})
			require.NoError(t, err)
		}()
		// Give each submission a chance to enqueue before the next,
		// so the observed order is deterministic for the assertion below.
		time.Sleep(time.Millisecond)
	}
	wg.Wait()

	require.Len(t, order, 5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, i, order[i])
	}
}

func TestQueue_SecondWaitsForFirst(t *testing.T) {
	q := New()

	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _ = q.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()

	<-started

	secondDone := make(chan struct{})
	go func() {
		_, _ = q.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
			return nil, nil
		})
		close(secondDone)
	}()

	select {
	case <-secondDone:
		t.Fatal("second submission ran before the first completed")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-secondDone
}

func TestQueue_CanceledContextNeverRunsFn(t *testing.T) {
	q := New()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = q.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	_, err := q.Submit(ctx, func(ctx context.Context) (interface{}, error) {
		ran = true
		return nil, nil
	})
	assert.Error(t, err)
	assert.False(t, ran)

	close(release)
}
