package transform

import (
	"fmt"
	"reflect"
)

// Kind is one of the fixed capabilities an action may ask for.
type Kind int

const (
	// KindNone marks a plain, unqualified lookup.
	KindNone Kind = iota
	// KindWorkspace is the invocation's output directory.
	KindWorkspace
	// KindPrimaryInput is the file being transformed.
	KindPrimaryInput
	// KindPrimaryInputDependencies are the files the primary input depends on.
	KindPrimaryInputDependencies
	// KindParameters is the registration's parameter object.
	KindParameters
)

var kindNames = map[Kind]string{
	KindNone:                     "none",
	KindWorkspace:                "workspace",
	KindPrimaryInput:             "primary-input",
	KindPrimaryInputDependencies: "primary-input-dependencies",
	KindParameters:               "parameters",
}

// Kinds lists the qualified capabilities in lookup order.
var Kinds = []Kind{KindWorkspace, KindPrimaryInput, KindParameters, KindPrimaryInputDependencies}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a tag name to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s && k != KindNone {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("unknown capability %q", s)
}

var (
	typeString  = reflect.TypeFor[string]()
	typeStrings = reflect.TypeFor[[]string]()
)

// InjectionPoint is a capability value together with the type it is
// offered as.
type InjectionPoint struct {
	Kind  Kind
	Type  reflect.Type
	Value any
}

// matches reports whether the point satisfies a request for typ qualified
// by kind. The requested type must be assignable from the offered type.
func (p InjectionPoint) matches(typ reflect.Type, kind Kind) bool {
	return p.Kind == kind && p.Type.AssignableTo(typ)
}

// ServiceLookup resolves injection requests. Find is the optional form, Get
// fails with *UnknownServiceError.
type ServiceLookup interface {
	Find(typ reflect.Type, kind Kind) (any, bool)
	Get(typ reflect.Type, kind Kind) (any, error)
}

// Services is the capability lookup of a single invocation. It must not be
// kept beyond the invocation it was built for.
type Services struct {
	points []InjectionPoint
}

var _ ServiceLookup = (*Services)(nil)

// NewServices builds the lookup for one invocation. The parameter object and
// dependency provider are optional; absent values add no injection point.
func NewServices(workspace, input string, parameters any, deps Dependencies) *Services {
	points := []InjectionPoint{
		{Kind: KindWorkspace, Type: typeString, Value: workspace},
		{Kind: KindPrimaryInput, Type: typeString, Value: input},
	}
	if parameters != nil {
		points = append(points, InjectionPoint{
			Kind:  KindParameters,
			Type:  reflect.TypeOf(parameters),
			Value: parameters,
		})
	}
	if deps != nil {
		files := append([]string{}, deps.Files()...)
		points = append(points, InjectionPoint{
			Kind:  KindPrimaryInputDependencies,
			Type:  typeStrings,
			Value: files,
		})
	}
	return &Services{points: points}
}

// Points returns the injection points in lookup order.
func (s *Services) Points() []InjectionPoint {
	return append([]InjectionPoint(nil), s.points...)
}

// Has reports whether a capability of kind is present.
func (s *Services) Has(kind Kind) bool {
	for _, p := range s.points {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

// Find returns the first point matching typ and kind.
func (s *Services) Find(typ reflect.Type, kind Kind) (any, bool) {
	for _, p := range s.points {
		if p.matches(typ, kind) {
			return p.Value, true
		}
	}
	return nil, false
}

// Get is Find that fails when nothing matches.
func (s *Services) Get(typ reflect.Type, kind Kind) (any, error) {
	v, ok := s.Find(typ, kind)
	if !ok {
		return nil, &UnknownServiceError{Type: typ, Kind: kind}
	}
	return v, nil
}

// Lookup is the typed form of ServiceLookup.Get.
func Lookup[T any](s ServiceLookup, kind Kind) (T, error) {
	var zero T
	v, err := s.Get(reflect.TypeFor[T](), kind)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
