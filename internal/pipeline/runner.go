package pipeline

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"xform/internal/logging"
	"xform/internal/telemetry"
	"xform/internal/transform"
	"xform/sink"
)

// Observer is told about every invocation.
type Observer interface {
	InvocationStarted()
	InvocationFinished(transform, implementation, outcome string, took time.Duration)
}

// Job is one invocation of a registration.
type Job struct {
	Input        string
	OutputDir    string
	Dependencies transform.Dependencies
}

// Result pairs a job's input with its validated outputs.
type Result struct {
	Input   string
	Outputs []string
}

type Runner struct {
	parallelism int
	observer    Observer
	sinks       []sink.Adapter
}

type Option func(*Runner)

func WithObserver(o Observer) Option { return func(r *Runner) { r.observer = o } }

func WithSinks(s ...sink.Adapter) Option {
	return func(r *Runner) { r.sinks = append(r.sinks, s...) }
}

// NewRunner returns a runner executing at most parallelism invocations at a
// time.
func NewRunner(parallelism int, opts ...Option) *Runner {
	if parallelism < 1 {
		parallelism = 1
	}
	r := &Runner{parallelism: parallelism}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) AddSink(s sink.Adapter) { r.sinks = append(r.sinks, s) }

// Run invokes the transform registered as name once per job. Results are in
// job order. The first failure cancels the jobs not yet started and is
// returned alone.
func (r *Runner) Run(ctx context.Context, name string, reg *transform.Registration, jobs []Job) ([]Result, error) {
	t := reg.Transformer()
	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outs, err := r.invoke(gctx, name, t, job)
			if err != nil {
				return err
			}
			results[i] = Result{Input: job.Input, Outputs: outs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) invoke(ctx context.Context, name string, t *transform.Transformer, job Job) ([]string, error) {
	if r.observer != nil {
		r.observer.InvocationStarted()
	}
	start := time.Now()
	outs, err := t.Transform(ctx, transform.Request{
		Input:        job.Input,
		OutputDir:    job.OutputDir,
		Dependencies: job.Dependencies,
	})
	took := time.Since(start)

	if r.observer != nil {
		r.observer.InvocationFinished(name, t.DisplayName(), outcome(err), took)
	}
	ev := sink.Event{
		Transform:      name,
		Implementation: t.Implementation().Name(),
		Fingerprint:    t.Fingerprint().String(),
		Input:          job.Input,
		OutputDir:      job.OutputDir,
		Outputs:        outs,
		Duration:       took,
		Time:           start,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	r.publish(ev)
	return outs, err
}

func (r *Runner) publish(ev sink.Event) {
	for _, s := range r.sinks {
		if err := s.Push(ev); err != nil {
			logging.L().Warn("sink push failed", "transform", ev.Transform, "input", ev.Input, "err", err)
		}
	}
}

// Close closes every sink.
func (r *Runner) Close() error {
	var errs []error
	for _, s := range r.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return telemetry.OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return telemetry.OutcomeCanceled
	case errors.Is(err, transform.ErrOutputContract):
		return telemetry.OutcomeOutput
	default:
		return telemetry.OutcomeExecution
	}
}
