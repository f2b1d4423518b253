package transform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// recorder collects what test actions observed during an invocation.
type recorder struct {
	mu     sync.Mutex
	values []any
}

func (r *recorder) add(v any) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
}

func (r *recorder) take() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.values
	r.values = nil
	return out
}

var seen recorder

type echoAction struct {
	Base
	Input     string `transform:"primary-input"`
	Workspace string `transform:"workspace"`
}

func (a *echoAction) Transform(context.Context, string) ([]string, error) {
	seen.add([2]string{a.Input, a.Workspace})
	return []string{a.Input}, nil
}

type configAction struct {
	Base
	Config *sampleConfig `transform:"parameters"`
}

func (a *configAction) Transform(context.Context, string) ([]string, error) {
	seen.add(sampleConfig{Suffix: a.Config.Suffix, Tags: append([]string(nil), a.Config.Tags...)})
	a.Config.Suffix = "mutated"
	if len(a.Config.Tags) > 0 {
		a.Config.Tags[0] = "mutated"
	}
	return []string{}, nil
}

type depsAction struct {
	Base
	Deps []string `transform:"primary-input-dependencies"`
}

func (a *depsAction) Transform(context.Context, string) ([]string, error) {
	seen.add(a.Deps)
	return []string{}, nil
}

type optionalDepsAction struct {
	Base
	Deps []string `transform:"primary-input-dependencies,optional"`
}

func (a *optionalDepsAction) Transform(context.Context, string) ([]string, error) {
	seen.add(a.Deps == nil)
	return []string{}, nil
}

type writerAction struct {
	Base
}

func (a *writerAction) Transform(_ context.Context, input string) ([]string, error) {
	out := filepath.Join(a.OutputDirectory(), filepath.Base(input)+".out")
	if err := os.WriteFile(out, []byte("ok"), 0o644); err != nil {
		return nil, err
	}
	return []string{out}, nil
}

type returnAction struct {
	Base
	Config *returnConfig `transform:"parameters"`
}

type returnConfig struct {
	Outputs []string
	Null    bool
}

func (a *returnAction) Transform(context.Context, string) ([]string, error) {
	if a.Config.Null {
		return nil, nil
	}
	return a.Config.Outputs, nil
}

var errBoom = errors.New("boom")

type failingAction struct{ Base }

func (a *failingAction) Transform(context.Context, string) ([]string, error) {
	return nil, errBoom
}

type panickingAction struct{ Base }

func (a *panickingAction) Transform(context.Context, string) ([]string, error) {
	panic("kaboom")
}

type paramsAction struct {
	Base
	params []any
}

func (a *paramsAction) Configure(params []any) error {
	if len(params) > 0 {
		if _, ok := params[0].(string); !ok {
			return errors.New("first parameter must be a string")
		}
	}
	a.params = params
	return nil
}

func (a *paramsAction) Transform(context.Context, string) ([]string, error) {
	seen.add(a.params)
	return []string{}, nil
}

type plainAction struct {
	Base
	Logger any `inject:""`
}

func (a *plainAction) Transform(context.Context, string) ([]string, error) { return []string{}, nil }

type ctxAction struct{ Base }

func (a *ctxAction) Transform(ctx context.Context, _ string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
