package builtin

import (
	"context"
	"fmt"
	"time"

	"xform/internal/transform"
	"xform/internal/transport"
)

const defaultRemoteTimeout = 30 * time.Second

type RemoteConfig struct {
	Address string        `mapstructure:"address" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
	// Parameters are forwarded to the plugin as is. Values must be plain
	// data: strings, numbers, booleans, lists and string keyed maps.
	Parameters map[string]any `mapstructure:"parameters"`
}

// Remote forwards the invocation to a plugin served over gRPC. The plugin
// shares the filesystem with the engine and writes into the workspace.
type Remote struct {
	transform.Base
	Input  string        `transform:"primary-input"`
	Deps   []string      `transform:"primary-input-dependencies,optional"`
	Config *RemoteConfig `transform:"parameters"`
}

func (t *Remote) Transform(ctx context.Context, _ string) ([]string, error) {
	timeout := t.Config.Timeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c, err := transport.Dial(t.Config.Address)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	resp, err := c.Transform(ctx, &transport.Request{
		Input:        t.Input,
		OutputDir:    t.OutputDirectory(),
		Dependencies: t.Deps,
		Parameters:   t.Config.Parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("remote %s: %w", t.Config.Address, err)
	}
	return resp.Outputs, nil
}
