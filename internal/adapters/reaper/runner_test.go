package reaper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	mu    sync.Mutex
	calls int
	n     int64
	err   error
}

func (f *fakePurger) PurgeExpired(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.n, f.err
}

func (f *fakePurger) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingSink struct {
	mu     sync.Mutex
	counts map[string][]map[string]string
}

func (s *recordingSink) Count(name string, _ int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[string][]map[string]string{}
	}
	s.counts[name] = append(s.counts[name], tags)
}
func (s *recordingSink) Gauge(string, float64, map[string]string)        {}
func (s *recordingSink) Timing(string, time.Duration, map[string]string) {}

func TestNewRunner_RequiresPurger(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)
}

func TestPurgeOnce(t *testing.T) {
	sink := &recordingSink{}
	p := &fakePurger{n: 3}
	r, err := NewRunner(RunnerOptions{Purger: p, Metrics: sink})
	require.NoError(t, err)

	assert.Equal(t, int64(3), r.PurgeOnce(context.Background()))
	require.Len(t, sink.counts["session.purge"], 1)
	assert.Equal(t, "success", sink.counts["session.purge"][0]["result"])

	p.n = 0
	r.PurgeOnce(context.Background())
	assert.Equal(t, "noop", sink.counts["session.purge"][1]["result"])

	p.err = errors.New("db down")
	assert.Equal(t, int64(0), r.PurgeOnce(context.Background()))
	assert.Equal(t, "error", sink.counts["session.purge"][2]["result"])
}

func TestRun_StopsOnCancel(t *testing.T) {
	p := &fakePurger{}
	r, err := NewRunner(RunnerOptions{Purger: p, Interval: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool { return p.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}
