package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"xform/internal/pipeline"
	"xform/internal/transform"
)

type Engine struct {
	regs          *pipeline.Registrations
	runner        *pipeline.Runner
	metricsSrv    *http.Server
	workspaceRoot string
}

// Transforms lists the registered transform names.
func (e *Engine) Transforms() []string { return e.regs.Names() }

func (e *Engine) Describe(name string) (pipeline.Compiled, bool) { return e.regs.Get(name) }

// Run invokes the transform registered as name on every input. Each input
// gets its own workspace below <workspace root>/<fingerprint prefix>/.
// deps, when non-empty, are the dependencies of every input.
func (e *Engine) Run(ctx context.Context, name string, inputs, deps []string) ([]pipeline.Result, error) {
	c, ok := e.regs.Get(name)
	if !ok {
		return nil, fmt.Errorf("no transform named %q", name)
	}
	t := c.Registration.Transformer()

	var provider transform.Dependencies
	if len(deps) > 0 {
		provider = transform.DependencyFiles(deps)
	}

	root := filepath.Join(e.workspaceRoot, t.Fingerprint().String()[:16])
	jobs := make([]pipeline.Job, 0, len(inputs))
	used := make(map[string]int, len(inputs))
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return nil, err
		}
		base := filepath.Base(abs)
		dir := filepath.Join(root, base)
		if n := used[base]; n > 0 {
			dir = fmt.Sprintf("%s-%d", dir, n)
		}
		used[base]++
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("workspace for %s: %w", in, err)
		}
		jobs = append(jobs, pipeline.Job{Input: abs, OutputDir: dir, Dependencies: provider})
	}
	return e.runner.Run(ctx, name, c.Registration, jobs)
}

func (e *Engine) Close() error {
	var errs []error
	errs = append(errs, e.runner.Close())
	if e.metricsSrv != nil {
		errs = append(errs, e.metricsSrv.Close())
	}
	return errors.Join(errs...)
}
