package transform

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"time"

	"xform/internal/attribute"
	"xform/internal/hashing"
	"xform/internal/isolation"
	"xform/internal/logging"
)

// Transformer is the immutable descriptor of one registered transform. It is
// safe for concurrent use; every invocation works on fresh copies of the
// isolated configuration.
type Transformer struct {
	impl                 Implementation
	from                 attribute.Set
	params               isolation.Snapshot
	config               isolation.Snapshot
	fingerprint          hashing.HashCode
	factory              *InstanceFactory
	requiresDependencies bool
}

func (t *Transformer) Implementation() Implementation { return t.impl }

// DisplayName is the implementation's bare type name.
func (t *Transformer) DisplayName() string { return t.impl.DisplayName() }

// Fingerprint identifies the implementation, its environment and its
// configuration.
func (t *Transformer) Fingerprint() hashing.HashCode { return t.fingerprint }

func (t *Transformer) FromAttributes() attribute.Set { return t.from }

// RequiresDependencies reports whether the implementation asks for the
// dependencies of its primary input.
func (t *Transformer) RequiresDependencies() bool { return t.requiresDependencies }

// ParametersType is the declared type of the implementation's parameters
// field, or nil.
func (t *Transformer) ParametersType() reflect.Type { return t.factory.ParametersType() }

// Equal reports whether both descriptors carry the same fingerprint.
func (t *Transformer) Equal(o *Transformer) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.fingerprint == o.fingerprint
}

func (t *Transformer) String() string {
	return fmt.Sprintf("%s@%s", t.impl.DisplayName(), t.fingerprint.String()[:12])
}

// Request is one invocation: a primary input and the directory outputs go
// to. Dependencies are handed to the action only when it asks for them.
type Request struct {
	Input        string
	OutputDir    string
	Dependencies Dependencies
}

// Transform runs one invocation and returns the validated outputs.
func (t *Transformer) Transform(ctx context.Context, req Request) ([]string, error) {
	log := logging.L().With("transform", t.impl.DisplayName(), "input", req.Input)
	start := time.Now()

	action, err := t.factory.NewInstance(t.services(req), t.materializeParams())
	if err != nil {
		return nil, &ExecutionError{Implementation: t.impl.DisplayName(), Input: req.Input, Err: err}
	}
	action.SetOutputDirectory(req.OutputDir)

	outputs, err := invoke(ctx, action, req.Input)
	if err != nil {
		log.Debug("transform failed", "err", err)
		return nil, &ExecutionError{Implementation: t.impl.DisplayName(), Input: req.Input, Err: err}
	}
	validated, err := ValidateOutputs(req.Input, req.OutputDir, outputs)
	if err != nil {
		return nil, err
	}
	log.Debug("transform done", "outputs", len(validated), "took", time.Since(start))
	return validated, nil
}

// services builds the capabilities of one invocation. Dependencies are
// only offered to implementations that declare them.
func (t *Transformer) services(req Request) *Services {
	var deps Dependencies
	if t.requiresDependencies {
		deps = req.Dependencies
	}
	return NewServices(req.OutputDir, req.Input, t.config.Materialize(), deps)
}

func (t *Transformer) materializeParams() []any {
	params, _ := t.params.Materialize().([]any)
	return params
}

func invoke(ctx context.Context, action Action, input string) (outputs []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.L().Debug("transform panicked", "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action.Transform(ctx, input)
}
