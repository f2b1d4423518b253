package builtin

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"xform/internal/transform"
)

// Identity hands its input back unchanged.
type Identity struct {
	transform.Base
	Input string `transform:"primary-input"`
}

func (t *Identity) Transform(context.Context, string) ([]string, error) {
	return []string{t.Input}, nil
}

type CopyConfig struct {
	Suffix string `mapstructure:"suffix" validate:"required"`
}

// Copy writes a copy of its input into the workspace. The copy is named
// after the input with the configured suffix appended to the base name. A
// single string parameter overrides the configured suffix, even when empty.
type Copy struct {
	transform.Base
	Input  string      `transform:"primary-input"`
	Config *CopyConfig `transform:"parameters"`

	suffix    string
	hasSuffix bool
}

func (t *Copy) Configure(params []any) error {
	switch len(params) {
	case 0:
	case 1:
		s, ok := params[0].(string)
		if !ok {
			return fmt.Errorf("suffix parameter must be a string, got %T", params[0])
		}
		t.suffix, t.hasSuffix = s, true
	default:
		return fmt.Errorf("copy takes at most one parameter, got %d", len(params))
	}
	return nil
}

func (t *Copy) Transform(ctx context.Context, _ string) ([]string, error) {
	suffix := t.Config.Suffix
	if t.hasSuffix {
		suffix = t.suffix
	}
	base := filepath.Base(t.Input)
	ext := filepath.Ext(base)
	dst := filepath.Join(t.OutputDirectory(), strings.TrimSuffix(base, ext)+suffix+ext)
	if err := copyFile(ctx, t.Input, dst); err != nil {
		return nil, err
	}
	return []string{dst}, nil
}

func copyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// DependencyManifest writes <input base>.deps into the workspace, one
// dependency path per line.
type DependencyManifest struct {
	transform.Base
	Input string   `transform:"primary-input"`
	Deps  []string `transform:"primary-input-dependencies"`
}

func (t *DependencyManifest) Transform(context.Context, string) ([]string, error) {
	if err := os.MkdirAll(t.OutputDirectory(), 0o755); err != nil {
		return nil, err
	}
	dst := filepath.Join(t.OutputDirectory(), filepath.Base(t.Input)+".deps")
	var b strings.Builder
	for _, d := range t.Deps {
		b.WriteString(d)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(dst, []byte(b.String()), 0o644); err != nil {
		return nil, err
	}
	return []string{dst}, nil
}
