package transform

import (
	"context"
	"fmt"
	"reflect"
)

// Action is the contract every transform implementation fulfils.
//
// Construction happens in two ordered steps: capabilities are injected into
// tagged fields, then SetOutputDirectory is called. Only after both does the
// engine call Transform.
//
// Transform returns the produced files. A nil slice is a null result and is
// rejected; a non-nil empty slice means the input produced nothing.
type Action interface {
	SetOutputDirectory(dir string)
	Transform(ctx context.Context, input string) ([]string, error)
}

// Base provides the output directory setter. Implementations embed it.
type Base struct {
	outputDir string
}

// SetOutputDirectory records the invocation's output directory.
func (b *Base) SetOutputDirectory(dir string) { b.outputDir = dir }

// OutputDirectory returns the directory set by the engine.
func (b *Base) OutputDirectory() string { return b.outputDir }

// Configurable is implemented by actions that accept the explicit parameters
// of their registration. Configure runs after injection and before
// SetOutputDirectory.
type Configurable interface {
	Configure(params []any) error
}

// Dependencies supplies the files the primary input depends on.
type Dependencies interface {
	Files() []string
}

// DependencyFiles is a fixed list of dependency files.
type DependencyFiles []string

// Files returns the list.
func (d DependencyFiles) Files() []string { return d }

// Implementation identifies a transform implementation type.
type Implementation struct {
	typ reflect.Type
}

var actionType = reflect.TypeFor[Action]()

// ImplementationOf returns the implementation for struct type T, whose
// pointer must implement Action.
func ImplementationOf[T any, PT interface {
	*T
	Action
}]() Implementation {
	return Implementation{typ: reflect.TypeFor[T]()}
}

// NewImplementation builds an Implementation from a struct type or a pointer
// to one. The pointer type must implement Action.
func NewImplementation(t reflect.Type) (Implementation, error) {
	if t == nil {
		return Implementation{}, fmt.Errorf("implementation type is nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return Implementation{}, fmt.Errorf("implementation %s is not a struct type", t)
	}
	if t.Name() == "" {
		return Implementation{}, fmt.Errorf("implementation %s must be a named type", t)
	}
	if !reflect.PointerTo(t).Implements(actionType) {
		return Implementation{}, fmt.Errorf("implementation *%s does not implement transform.Action", t.Name())
	}
	return Implementation{typ: t}, nil
}

// Name is the stable identity of the implementation: package path and type
// name.
func (i Implementation) Name() string {
	if i.typ == nil {
		return ""
	}
	return i.typ.PkgPath() + "." + i.typ.Name()
}

// DisplayName is the bare type name.
func (i Implementation) DisplayName() string {
	if i.typ == nil {
		return ""
	}
	return i.typ.Name()
}

// PkgPath is the import path of the package declaring the type.
func (i Implementation) PkgPath() string {
	if i.typ == nil {
		return ""
	}
	return i.typ.PkgPath()
}

// Type returns the struct type.
func (i Implementation) Type() reflect.Type { return i.typ }

// IsZero reports whether i is unset.
func (i Implementation) IsZero() bool { return i.typ == nil }

func (i Implementation) String() string { return i.Name() }
