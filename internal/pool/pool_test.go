package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunKeepsInputOrder(t *testing.T) {
	t.Parallel()

	items := []int{5, 1, 4, 2, 3}
	out := Run(context.Background(), 3, items, func(_ context.Context, n int) int {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10
	})
	assert.Equal(t, []int{50, 10, 40, 20, 30}, out)
}

func TestRunRespectsLimit(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	items := make([]int, 20)
	Run(context.Background(), 4, items, func(_ context.Context, _ int) struct{} {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}
	})
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestRunEmpty(t *testing.T) {
	t.Parallel()

	out := Run(context.Background(), 0, []string(nil), func(_ context.Context, s string) string { return s })
	assert.Empty(t, out)
}

func TestScaled(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 8, Scaled(3, 8, 32))
	assert.Equal(t, 20, Scaled(100, 8, 32))
	assert.Equal(t, 32, Scaled(1000, 8, 32))
	assert.Equal(t, 5, Scaled(10, 5, 20))
	assert.Equal(t, 20, Scaled(500, 5, 20))
}
