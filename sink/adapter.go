package sink

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Event describes one finished invocation.
type Event struct {
	Transform      string        `json:"transform"`
	Implementation string        `json:"implementation"`
	Fingerprint    string        `json:"fingerprint"`
	Input          string        `json:"input"`
	OutputDir      string        `json:"output_dir"`
	Outputs        []string      `json:"outputs,omitempty"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
	Time           time.Time     `json:"time"`
}

// OK reports whether the invocation succeeded.
func (e Event) OK() bool { return e.Error == "" }

// Adapter is the common behaviour every sink exposes.
type Adapter interface {
	Configure(any) error // driver specific config struct
	Push(Event) error
	Close() error // idempotent
}

/*──────── registry ───────*/

type factory = func() Adapter

var (
	mu  sync.RWMutex
	reg = map[string]factory{}
)

func Register(name string, f factory) {
	mu.Lock()
	defer mu.Unlock()
	reg[name] = f
}

func NewAdapter(name string) (Adapter, error) {
	mu.RLock()
	f, ok := reg[name]
	mu.RUnlock()
	if ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q", name)
}

// Names lists the registered drivers.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
