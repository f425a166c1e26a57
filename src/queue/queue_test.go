package queue

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stealth-overlay/src/debounce"
)

type counterCapture struct {
	mu sync.Mutex
	n  int
}

func (c *counterCapture) capture() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return fmt.Sprintf("/tmp/capture-%d.png", c.n), nil
}

func TestRapidEnqueueYieldsOne(t *testing.T) {
	cc := &counterCapture{}
	q := NewWithGate(cc.capture, debounce.New(time.Hour))

	for i := 0; i < 10; i++ {
		n, err := q.Enqueue()
		require.NoError(t, err, "debounced enqueue is not an error")
		assert.Equal(t, 1, n)
	}
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 1, cc.n, "debounced calls must not capture")
}

func TestSpacedEnqueueKeepsOrder(t *testing.T) {
	cc := &counterCapture{}
	q := NewWithGate(cc.capture, debounce.New(0))

	for i := 1; i <= 5; i++ {
		n, err := q.Enqueue()
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	assert.Equal(t, []string{
		"/tmp/capture-1.png",
		"/tmp/capture-2.png",
		"/tmp/capture-3.png",
		"/tmp/capture-4.png",
		"/tmp/capture-5.png",
	}, q.Snapshot())
}

func TestEnqueueWithRealGateSpacing(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps past the capture interval")
	}
	cc := &counterCapture{}
	q := New(cc.capture)

	_, err := q.Enqueue()
	require.NoError(t, err)
	time.Sleep(debounce.CaptureInterval + 20*time.Millisecond)
	n, err := q.Enqueue()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestClearThenLen(t *testing.T) {
	cc := &counterCapture{}
	q := NewWithGate(cc.capture, debounce.New(0))
	_, _ = q.Enqueue()
	_, _ = q.Enqueue()

	q.Clear()
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Snapshot())
}

func TestSnapshotIsACopy(t *testing.T) {
	cc := &counterCapture{}
	q := NewWithGate(cc.capture, debounce.New(0))
	_, _ = q.Enqueue()

	snap := q.Snapshot()
	q.Clear()
	_, _ = q.Enqueue()

	assert.Equal(t, []string{"/tmp/capture-1.png"}, snap, "later mutations must not leak into an old snapshot")
}

func TestCaptureErrorPropagates(t *testing.T) {
	boom := errors.New("capture failed")
	q := NewWithGate(func() (string, error) { return "", boom }, debounce.New(0))

	_, err := q.Enqueue()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, q.Len())
}

func TestConcurrentEnqueueAndClear(t *testing.T) {
	cc := &counterCapture{}
	q := NewWithGate(cc.capture, debounce.New(0))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = q.Enqueue()
		}()
		go func() {
			defer wg.Done()
			_ = q.Snapshot()
			if q.Len() > 10 {
				q.Clear()
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, q.Len(), 50)
}
