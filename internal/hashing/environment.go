package hashing

import (
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

// EnvironmentHasher identifies the environment an implementation was loaded
// from. Two otherwise identical implementations coming from different
// environments must fingerprint differently.
type EnvironmentHasher interface {
	EnvironmentHash(pkgPath string) HashCode
}

// EnvironmentFunc adapts a function to EnvironmentHasher.
type EnvironmentFunc func(pkgPath string) HashCode

// EnvironmentHash calls f.
func (f EnvironmentFunc) EnvironmentHash(pkgPath string) HashCode { return f(pkgPath) }

// Static returns an EnvironmentHasher that reports the same identity for
// every package. Useful for tests and for out-of-process implementations
// whose environment is named by configuration.
func Static(identity string) EnvironmentHasher {
	c := HashString(identity)
	return EnvironmentFunc(func(string) HashCode { return c })
}

// BuildInfoHasher derives the environment of a package from the module that
// provides it, as recorded in the binary's build info.
type BuildInfoHasher struct {
	once    sync.Once
	info    *debug.BuildInfo
	modules []*debug.Module
}

// NewBuildInfoHasher returns a BuildInfoHasher reading the running binary's
// build info lazily.
func NewBuildInfoHasher() *BuildInfoHasher {
	return &BuildInfoHasher{}
}

func (b *BuildInfoHasher) load() {
	b.once.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		b.info = info
		if info.Main.Path != "" {
			main := info.Main
			b.modules = append(b.modules, &main)
		}
		b.modules = append(b.modules, info.Deps...)
	})
}

// EnvironmentHash hashes the path, version and checksum of the module that
// owns pkgPath. Packages outside any known module hash to the toolchain
// identity.
func (b *BuildInfoHasher) EnvironmentHash(pkgPath string) HashCode {
	b.load()

	h := NewHasher()
	if b.info != nil {
		h.PutString(b.info.GoVersion)
	} else {
		h.PutString(runtime.Version())
	}

	mod := b.owner(pkgPath)
	if mod == nil {
		h.PutNull()
		return h.Hash()
	}
	if mod.Replace != nil {
		mod = mod.Replace
	}
	h.PutString(mod.Path)
	h.PutString(mod.Version)
	h.PutString(mod.Sum)
	return h.Hash()
}

// owner returns the module with the longest path prefixing pkgPath.
func (b *BuildInfoHasher) owner(pkgPath string) *debug.Module {
	var best *debug.Module
	for _, m := range b.modules {
		if m == nil {
			continue
		}
		if pkgPath != m.Path && !strings.HasPrefix(pkgPath, m.Path+"/") {
			continue
		}
		if best == nil || len(m.Path) > len(best.Path) {
			best = m
		}
	}
	return best
}
