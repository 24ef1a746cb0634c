package stats

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazy_WaiterHonorsOwnDeadline(t *testing.T) {
	t.Parallel()

	var l lazy[int]
	var loads int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return 7, nil
	}

	first := make(chan int, 1)
	go func() {
		v, _ := l.get(context.Background(), load)
		first <- v
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.get(ctx, load)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	select {
	case v := <-first:
		assert.Equal(t, 7, v)
	case <-time.After(2 * time.Second):
		t.Fatal("first caller never received the loaded value")
	}

	v, err := l.get(context.Background(), load)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestLazy_ErrorIsKept(t *testing.T) {
	t.Parallel()

	var l lazy[int]
	errLoad := errors.New("load failed")
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 0, errLoad
	}

	_, err := l.get(context.Background(), load)
	require.ErrorIs(t, err, errLoad)
	_, err = l.get(context.Background(), load)
	require.ErrorIs(t, err, errLoad)
	assert.Equal(t, 1, calls)
}

func TestLazy_PanicBecomesError(t *testing.T) {
	t.Parallel()

	var l lazy[string]
	_, err := l.get(context.Background(), func(context.Context) (string, error) {
		panic("bad response")
	})
	require.ErrorContains(t, err, "bad response")
}
