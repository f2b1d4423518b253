package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xform/internal/attribute"
	"xform/internal/hashing"
	"xform/internal/telemetry"
	"xform/internal/transform"
	"xform/sink"
)

var current, peak int32

type slowAction struct {
	transform.Base
	Config *slowConfig `transform:"parameters"`
}

type slowConfig struct {
	Delay time.Duration
	Fail  string
}

func (a *slowAction) Transform(_ context.Context, input string) ([]string, error) {
	n := atomic.AddInt32(&current, 1)
	defer atomic.AddInt32(&current, -1)
	for {
		p := atomic.LoadInt32(&peak)
		if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
			break
		}
	}
	time.Sleep(a.Config.Delay)
	if filepath.Base(input) == a.Config.Fail {
		return nil, fmt.Errorf("cannot handle %s", input)
	}
	return []string{}, nil
}

type captureSink struct {
	mu     sync.Mutex
	events []sink.Event
	closed int
}

func (s *captureSink) Configure(any) error { return nil }

func (s *captureSink) Push(e sink.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) Close() error { s.closed++; return nil }

type failingSink struct{ captureSink }

func (s *failingSink) Push(sink.Event) error { return errors.New("broker down") }

type observer struct {
	mu       sync.Mutex
	started  int
	outcomes []string
}

func (o *observer) InvocationStarted() {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
}

func (o *observer) InvocationFinished(_, _ string, outcome string, _ time.Duration) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, outcome)
	o.mu.Unlock()
}

func slowRegistration(t *testing.T, cfg *slowConfig) *transform.Registration {
	t.Helper()
	reg, err := transform.CreateRegistration(attribute.Empty, attribute.Empty,
		transform.ImplementationOf[slowAction](), cfg, nil, transform.FingerprintInputs{Environment: hashing.Static("test")})
	require.NoError(t, err)
	return reg
}

func jobs(t *testing.T, n int) []Job {
	dir := t.TempDir()
	out := make([]Job, n)
	for i := range out {
		out[i] = Job{Input: filepath.Join(dir, fmt.Sprintf("in-%d", i)), OutputDir: dir}
	}
	return out
}

func TestRunner_BoundedParallelism(t *testing.T) {
	atomic.StoreInt32(&peak, 0)
	cs := &captureSink{}
	obs := &observer{}
	r := NewRunner(2, WithObserver(obs), WithSinks(cs, &failingSink{}))

	js := jobs(t, 8)
	res, err := r.Run(context.Background(), "slow", slowRegistration(t, &slowConfig{Delay: 20 * time.Millisecond}), js)
	require.NoError(t, err)
	require.Len(t, res, 8)
	for i, j := range js {
		assert.Equal(t, j.Input, res[i].Input)
		assert.NotNil(t, res[i].Outputs)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))

	assert.Equal(t, 8, obs.started)
	assert.Len(t, obs.outcomes, 8)
	for _, o := range obs.outcomes {
		assert.Equal(t, telemetry.OutcomeOK, o)
	}
	require.Len(t, cs.events, 8)
	assert.Equal(t, "slow", cs.events[0].Transform)
	assert.Equal(t, "xform/internal/pipeline.slowAction", cs.events[0].Implementation)
	assert.True(t, cs.events[0].OK())

	require.NoError(t, r.Close())
	assert.Equal(t, 1, cs.closed)
}

func TestRunner_FirstErrorWins(t *testing.T) {
	cs := &captureSink{}
	obs := &observer{}
	r := NewRunner(1, WithObserver(obs), WithSinks(cs))

	res, err := r.Run(context.Background(), "slow", slowRegistration(t, &slowConfig{Fail: "in-1"}), jobs(t, 4))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, transform.ErrExecution))
	assert.Contains(t, err.Error(), "cannot handle")

	assert.Contains(t, obs.outcomes, telemetry.OutcomeExecution)
	var failed int
	for _, e := range cs.events {
		if !e.OK() {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.LessOrEqual(t, len(cs.events), 4)
}

func TestRunner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(4).Run(ctx, "slow", slowRegistration(t, &slowConfig{}), jobs(t, 3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, telemetry.OutcomeOK, outcome(nil))
	assert.Equal(t, telemetry.OutcomeOutput, outcome(&transform.OutputError{Reason: transform.NullResult}))
	assert.Equal(t, telemetry.OutcomeCanceled, outcome(&transform.ExecutionError{Err: context.DeadlineExceeded}))
	assert.Equal(t, telemetry.OutcomeExecution, outcome(&transform.ExecutionError{Err: errors.New("x")}))
}
