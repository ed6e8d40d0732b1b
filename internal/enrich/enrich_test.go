package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/giving-cli/internal/failure"
	"github.com/sells-group/giving-cli/pkg/wgi"
)

type stubGetter struct {
	mu       sync.Mutex
	calls    map[string]int
	einByID  map[string]string
	failIDs  map[string]bool
	delay    func(id string) time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newStub() *stubGetter {
	return &stubGetter{calls: map[string]int{}, einByID: map[string]string{}, failIDs: map[string]bool{}}
}

func (s *stubGetter) GetDetail(ctx context.Context, id string) (*wgi.Detail, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxSeen.Load()
		if cur <= prev || s.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}

	s.mu.Lock()
	s.calls[id]++
	s.mu.Unlock()

	if s.delay != nil {
		time.Sleep(s.delay(id))
	}
	if s.failIDs[id] {
		return nil, failure.Unavailable(errors.New("status 500"))
	}
	ein, ok := s.einByID[id]
	if !ok {
		return &wgi.Detail{}, nil
	}
	return &wgi.Detail{EIN: wgi.Text{Value: ein, Valid: true}}, nil
}

func TestRun_PartialFailure(t *testing.T) {
	stub := newStub()
	stub.einByID["y"] = "04-1111111"
	stub.einByID["z"] = "04-2222222"
	stub.failIDs["x"] = true

	res := New(stub, 4).Run(context.Background(), []string{"x", "y", "z"})

	assert.Equal(t, 2, res.Succeeded())
	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, "04-1111111", res.TaxIDs["y"])
	assert.Equal(t, "04-2222222", res.TaxIDs["z"])
	require.Contains(t, res.Failures, "x")
	assert.True(t, failure.Is(res.Failures["x"], failure.EnrichmentFailed))
	_, ok := res.TaxIDs["x"]
	assert.False(t, ok)
}

func TestRun_ResultsKeyedByIDNotCompletionOrder(t *testing.T) {
	stub := newStub()
	ids := make([]string, 30)
	for i := range ids {
		ids[i] = fmt.Sprintf("org-%02d", i)
		stub.einByID[ids[i]] = fmt.Sprintf("ein-%02d", i)
	}
	// Earlier ids finish last.
	stub.delay = func(id string) time.Duration {
		var n int
		fmt.Sscanf(id, "org-%d", &n)
		return time.Duration(30-n) * time.Millisecond
	}

	res := New(stub, 10).Run(context.Background(), ids)

	require.Equal(t, 30, res.Succeeded())
	for i, id := range ids {
		assert.Equal(t, fmt.Sprintf("ein-%02d", i), res.TaxIDs[id])
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	stub := newStub()
	stub.delay = func(string) time.Duration { return 5 * time.Millisecond }
	ids := make([]string, 40)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}

	New(stub, 3).Run(context.Background(), ids)

	assert.LessOrEqual(t, stub.maxSeen.Load(), int32(3))
	assert.Greater(t, stub.maxSeen.Load(), int32(0))
}

func TestRun_NullTaxIDIsSuccess(t *testing.T) {
	stub := newStub()

	res := New(stub, 0).Run(context.Background(), []string{"a"})
	assert.Equal(t, 1, res.Succeeded())
	assert.Equal(t, "", res.TaxIDs["a"])
}

func TestRun_DuplicateIDsLookedUpOnce(t *testing.T) {
	stub := newStub()
	stub.einByID["a"] = "1"

	res := New(stub, 2).Run(context.Background(), []string{"a", "a", "a"})
	assert.Equal(t, 1, res.Succeeded())
	assert.Equal(t, 1, stub.calls["a"])
}

func TestRun_Empty(t *testing.T) {
	res := New(newStub(), 2).Run(context.Background(), nil)
	assert.Equal(t, 0, res.Succeeded())
	assert.Equal(t, 0, res.Failed())
}
