package transform

import (
	"fmt"
	"reflect"
	"strings"
)

const (
	tagTransform = "transform"
	tagInject    = "inject"
)

// Scheme restricts which capability qualifiers an implementation may use.
type Scheme struct {
	allowed map[Kind]bool
}

// NewScheme returns a scheme honoring kinds.
func NewScheme(kinds ...Kind) *Scheme {
	s := &Scheme{allowed: make(map[Kind]bool, len(kinds))}
	for _, k := range kinds {
		s.allowed[k] = true
	}
	return s
}

// DefaultScheme honors the four capability kinds.
var DefaultScheme = NewScheme(KindWorkspace, KindPrimaryInput, KindPrimaryInputDependencies, KindParameters)

// Allows reports whether kind is part of the scheme.
func (s *Scheme) Allows(kind Kind) bool { return s.allowed[kind] }

// injection is one tagged field of an implementation.
type injection struct {
	index    []int
	field    string
	kind     Kind
	typ      reflect.Type
	optional bool
}

// InstanceFactory constructs actions of one implementation. Field inspection
// happens once in Scheme.ForType.
type InstanceFactory struct {
	impl       Implementation
	injections []injection
	triggered  map[Kind]bool
}

// ForType inspects impl's tagged fields and returns its factory.
func (s *Scheme) ForType(impl Implementation) (*InstanceFactory, error) {
	if impl.IsZero() {
		return nil, fmt.Errorf("implementation is not set")
	}
	t := impl.Type()
	f := &InstanceFactory{impl: impl, triggered: map[Kind]bool{}}

	for _, sf := range reflect.VisibleFields(t) {
		qualified, hasQualified := sf.Tag.Lookup(tagTransform)
		_, hasPlain := sf.Tag.Lookup(tagInject)
		if !hasQualified && !hasPlain {
			continue
		}
		if hasQualified && hasPlain {
			return nil, fmt.Errorf("%s.%s: cannot combine %q and %q tags", t.Name(), sf.Name, tagTransform, tagInject)
		}
		if !sf.IsExported() {
			return nil, fmt.Errorf("%s.%s: injected fields must be exported", t.Name(), sf.Name)
		}
		if !settable(t, sf.Index) {
			return nil, fmt.Errorf("%s.%s: injected fields cannot be promoted through embedded pointers or unexported structs", t.Name(), sf.Name)
		}

		inj := injection{index: sf.Index, field: sf.Name, typ: sf.Type, kind: KindNone}
		if hasQualified {
			name, opts, _ := strings.Cut(qualified, ",")
			kind, err := ParseKind(strings.TrimSpace(name))
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err)
			}
			if !s.Allows(kind) {
				return nil, fmt.Errorf("%s.%s: capability %s is not allowed here", t.Name(), sf.Name, kind)
			}
			switch strings.TrimSpace(opts) {
			case "":
			case "optional":
				inj.optional = true
			default:
				return nil, fmt.Errorf("%s.%s: unknown tag option %q", t.Name(), sf.Name, opts)
			}
			inj.kind = kind
			f.triggered[kind] = true
		}
		f.injections = append(f.injections, inj)
	}
	return f, nil
}

// settable reports whether the field at index can be assigned on a freshly
// allocated value of t.
func settable(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		sf := t.Field(i)
		if sf.Type.Kind() == reflect.Ptr || !sf.IsExported() {
			return false
		}
		t = sf.Type
	}
	return true
}

// Implementation returns the implementation this factory builds.
func (f *InstanceFactory) Implementation() Implementation { return f.impl }

// TriggeredBy reports whether any field of the implementation is qualified
// with kind.
func (f *InstanceFactory) TriggeredBy(kind Kind) bool { return f.triggered[kind] }

// ParametersType returns the declared type of the parameters field, or nil
// when the implementation does not take a parameter object.
func (f *InstanceFactory) ParametersType() reflect.Type {
	for _, inj := range f.injections {
		if inj.kind == KindParameters {
			return inj.typ
		}
	}
	return nil
}

// NewInstance allocates an action, fills its tagged fields from lookup and
// hands it params through Configure.
func (f *InstanceFactory) NewInstance(lookup ServiceLookup, params []any) (Action, error) {
	ptr := reflect.New(f.impl.Type())
	for _, inj := range f.injections {
		var (
			val any
			err error
		)
		if inj.optional {
			v, ok := lookup.Find(inj.typ, inj.kind)
			if !ok {
				continue
			}
			val = v
		} else if val, err = lookup.Get(inj.typ, inj.kind); err != nil {
			return nil, &InjectionError{Implementation: f.impl.DisplayName(), Field: inj.field, Kind: inj.kind, Err: err}
		}
		if val == nil {
			continue
		}
		ptr.Elem().FieldByIndex(inj.index).Set(reflect.ValueOf(val))
	}

	action := ptr.Interface().(Action)
	if c, ok := action.(Configurable); ok {
		if err := c.Configure(params); err != nil {
			return nil, fmt.Errorf("configure %s: %w", f.impl.DisplayName(), err)
		}
	} else if len(params) > 0 {
		return nil, fmt.Errorf("%s takes no parameters but %d were given", f.impl.DisplayName(), len(params))
	}
	return action, nil
}
