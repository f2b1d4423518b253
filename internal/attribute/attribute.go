// Package attribute holds the immutable attribute sets that describe which
// artifact variants a transform registration converts from and to.
package attribute

import (
	"fmt"
	"sort"
	"strings"
)

// Attribute is a single name/value pair.
type Attribute struct {
	Name  string
	Value string
}

// Set is an immutable, name-sorted attribute set. The zero Set is empty.
type Set struct {
	attrs []Attribute
}

// Empty is the empty set.
var Empty = Set{}

// Of builds a Set from a map.
func Of(m map[string]string) Set {
	if len(m) == 0 {
		return Empty
	}
	attrs := make([]Attribute, 0, len(m))
	for k, v := range m {
		attrs = append(attrs, Attribute{Name: k, Value: v})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
	return Set{attrs: attrs}
}

// Parse reads "name=value,name=value". Whitespace around entries is ignored.
func Parse(s string) (Set, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Empty, nil
	}
	m := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return Empty, fmt.Errorf("attribute %q: want name=value", part)
		}
		if _, dup := m[name]; dup {
			return Empty, fmt.Errorf("attribute %q given twice", name)
		}
		m[name] = strings.TrimSpace(value)
	}
	return Of(m), nil
}

// Get returns the value of name.
func (s Set) Get(name string) (string, bool) {
	i := sort.Search(len(s.attrs), func(i int) bool { return s.attrs[i].Name >= name })
	if i < len(s.attrs) && s.attrs[i].Name == name {
		return s.attrs[i].Value, true
	}
	return "", false
}

// Len returns the number of attributes.
func (s Set) Len() int { return len(s.attrs) }

// Attributes returns a copy of the attributes in name order.
func (s Set) Attributes() []Attribute {
	return append([]Attribute(nil), s.attrs...)
}

// Map returns the set as a fresh map.
func (s Set) Map() map[string]string {
	m := make(map[string]string, len(s.attrs))
	for _, a := range s.attrs {
		m[a.Name] = a.Value
	}
	return m
}

// Equal reports whether both sets hold the same pairs.
func (s Set) Equal(o Set) bool {
	if len(s.attrs) != len(o.attrs) {
		return false
	}
	for i := range s.attrs {
		if s.attrs[i] != o.attrs[i] {
			return false
		}
	}
	return true
}

// String renders "{a=1, b=2}".
func (s Set) String() string {
	parts := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		parts[i] = a.Name + "=" + a.Value
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
