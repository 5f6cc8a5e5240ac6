package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(ctx context.Context, n int) (int, error) {
	return n * 2, nil
}

func TestMap_PreservesOrder(t *testing.T) {
	inputs := make([]int, 500)
	for i := range inputs {
		inputs[i] = i
	}

	out, stats, err := Map(context.Background(), Config{Size: 8, QueueSize: 16}, inputs, double)
	require.NoError(t, err)
	require.Len(t, out, len(inputs))
	for i, v := range out {
		assert.Equal(t, i*2, v)
	}
	assert.Equal(t, 8, stats.Workers)
	assert.Equal(t, int64(500), stats.Completed)
	assert.Zero(t, stats.Failed)
}

func TestMap_InvalidSize(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"zero size", Config{Size: 0}},
		{"negative size", Config{Size: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Map(context.Background(), tt.config, []int{1}, double)
			assert.ErrorIs(t, err, ErrInvalidSize)
		})
	}
}

func TestMap_Empty(t *testing.T) {
	out, stats, err := Map(context.Background(), DefaultConfig(), nil, double)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, stats.Workers)
}

func TestMap_FewerInputsThanWorkers(t *testing.T) {
	out, stats, err := Map(context.Background(), Config{Size: 16}, []int{1, 2}, double)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, out)
	assert.Equal(t, 2, stats.Workers)
}

func TestMap_FirstErrorStops(t *testing.T) {
	boom := errors.New("boom")
	var ran int64

	inputs := make([]int, 1000)
	for i := range inputs {
		inputs[i] = i
	}
	_, stats, err := Map(context.Background(), Config{Size: 2}, inputs, func(ctx context.Context, n int) (int, error) {
		atomic.AddInt64(&ran, 1)
		if n == 3 {
			return 0, boom
		}
		return n, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, 3, taskErr.Index)
	assert.Less(t, atomic.LoadInt64(&ran), int64(len(inputs)))
	assert.GreaterOrEqual(t, stats.Failed, int64(1))
}

func TestMap_Panic(t *testing.T) {
	_, _, err := Map(context.Background(), Config{Size: 1}, []int{1}, func(ctx context.Context, n int) (int, error) {
		panic("bad input")
	})
	assert.ErrorIs(t, err, ErrTaskPanic)
	assert.Contains(t, err.Error(), "bad input")
}

func TestMap_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Map(ctx, Config{Size: 2}, []int{1, 2, 3}, func(ctx context.Context, n int) (int, error) {
		time.Sleep(time.Millisecond)
		return n, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
