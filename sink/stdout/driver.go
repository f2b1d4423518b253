// xform/sink/stdout/driver.go
package stdout

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"xform/sink"
)

/* ────────── config ────────── */
type Config struct {
	PrintCounter bool      // prepend seq#
	Output       io.Writer // nil → os.Stdout
}

/* ────────── driver ────────── */
type driver struct {
	cfg Config
	mu  sync.Mutex // serializes lines
}

var seq uint64

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("stdout-sink: expected Config, got %T", raw)
	}
	if c.Output == nil {
		c.Output = os.Stdout
	}
	d.cfg = c
	return nil
}

func (d *driver) Push(e sink.Event) error {
	var b strings.Builder
	if d.cfg.PrintCounter {
		fmt.Fprintf(&b, "[sink %06d] ", atomic.AddUint64(&seq, 1))
	}
	if e.OK() {
		fmt.Fprintf(&b, "%s %s -> %s (%s)\n", e.Transform, e.Input, strings.Join(e.Outputs, ","), e.Duration)
	} else {
		fmt.Fprintf(&b, "%s %s FAILED: %s\n", e.Transform, e.Input, e.Error)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.cfg.Output
	if out == nil {
		out = os.Stdout
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func (d *driver) Close() error { return nil }

func init() { sink.Register("stdout", func() sink.Adapter { return &driver{} }) }
