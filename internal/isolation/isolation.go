// Package isolation takes immutable snapshots of arbitrary values so that
// they can be shared across invocations and materialized into fresh,
// independent copies on every use.
package isolation

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/mitchellh/copystructure"

	"xform/internal/hashing"
)

// ErrNotIsolatable is returned when a value contains parts that cannot be
// deep-copied: functions, channels, unsafe pointers, unexported state or
// reference cycles.
var ErrNotIsolatable = errors.New("value cannot be isolated")

// Error describes where in a value isolation failed.
type Error struct {
	Path   string
	Type   reflect.Type
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot isolate %s (%s): %s", e.Path, e.Type, e.Reason)
}

// Is lets callers match with errors.Is(err, ErrNotIsolatable).
func (e *Error) Is(target error) bool { return target == ErrNotIsolatable }

// Snapshot is an immutable deep copy of a value. The zero Snapshot is the
// snapshot of an absent value.
type Snapshot struct {
	value   any
	present bool
}

// Isolate snapshots v. A nil v yields an absent snapshot and no error.
func Isolate(v any) (Snapshot, error) {
	if v == nil {
		return Snapshot{}, nil
	}
	rv := reflect.ValueOf(v)
	if err := check(rv, "$", map[visit]bool{}); err != nil {
		return Snapshot{}, err
	}
	cp, err := copystructure.Copy(v)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrNotIsolatable, err)
	}
	return Snapshot{value: cp, present: true}, nil
}

// Present reports whether the snapshot holds a value.
func (s Snapshot) Present() bool { return s.present }

// Type returns the dynamic type of the snapshotted value, or nil.
func (s Snapshot) Type() reflect.Type {
	if !s.present {
		return nil
	}
	return reflect.TypeOf(s.value)
}

// Materialize returns a fresh deep copy of the snapshot. Mutating the result
// never affects the snapshot or other materialized copies. Absent snapshots
// materialize to nil.
func (s Snapshot) Materialize() any {
	if !s.present {
		return nil
	}
	cp, err := copystructure.Copy(s.value)
	if err != nil {
		// Isolate already copied this exact value once.
		panic(fmt.Sprintf("isolation: materialize %T: %v", s.value, err))
	}
	return cp
}

// AppendToHasher folds a canonical encoding of the snapshot into h.
func (s Snapshot) AppendToHasher(h *hashing.Hasher) {
	if !s.present {
		h.PutNull()
		return
	}
	encode(h, reflect.ValueOf(s.value))
}

type visit struct {
	ptr uintptr
	typ reflect.Type
}

// leaf reports whether t is copied as a unit by copystructure.
func leaf(t reflect.Type) bool {
	_, ok := copystructure.Copiers[t]
	return ok
}

func check(v reflect.Value, path string, stack map[visit]bool) error {
	if !v.IsValid() {
		return nil
	}
	t := v.Type()
	if leaf(t) {
		return nil
	}

	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return &Error{Path: path, Type: t, Reason: t.Kind().String() + " values cannot be copied"}
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return check(v.Elem(), path, stack)
	case reflect.Ptr, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if t.Kind() == reflect.Slice && v.Len() == 0 {
			return nil
		}
		key := visit{ptr: v.Pointer(), typ: t}
		if stack[key] {
			return &Error{Path: path, Type: t, Reason: "reference cycle"}
		}
		stack[key] = true
		defer delete(stack, key)

		switch t.Kind() {
		case reflect.Ptr:
			return check(v.Elem(), path, stack)
		case reflect.Map:
			iter := v.MapRange()
			for iter.Next() {
				if err := check(iter.Key(), path+"[key]", stack); err != nil {
					return err
				}
				if err := check(iter.Value(), fmt.Sprintf("%s[%v]", path, iter.Key()), stack); err != nil {
					return err
				}
			}
			return nil
		default:
			for i := 0; i < v.Len(); i++ {
				if err := check(v.Index(i), fmt.Sprintf("%s[%d]", path, i), stack); err != nil {
					return err
				}
			}
			return nil
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := check(v.Index(i), fmt.Sprintf("%s[%d]", path, i), stack); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				return &Error{Path: path + "." + f.Name, Type: f.Type, Reason: "unexported field"}
			}
			if err := check(v.Field(i), path+"."+f.Name, stack); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func typeName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// encode writes a canonical, type-aware encoding of v. Map entries are
// ordered by the hash of their key so the result does not depend on map
// iteration order.
func encode(h *hashing.Hasher, v reflect.Value) {
	if !v.IsValid() {
		h.PutNull()
		return
	}
	t := v.Type()
	h.PutString(typeName(t))

	if leaf(t) {
		if m, ok := v.Interface().(encoding.TextMarshaler); ok {
			if text, err := m.MarshalText(); err == nil {
				h.PutBytes(text)
				return
			}
		}
		h.PutString(fmt.Sprint(v.Interface()))
		return
	}

	switch t.Kind() {
	case reflect.Bool:
		h.PutBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		h.PutInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		h.PutUint(v.Uint())
	case reflect.Float32, reflect.Float64:
		h.PutFloat(math.Float64bits(v.Float()))
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		h.PutFloat(math.Float64bits(real(c)))
		h.PutFloat(math.Float64bits(imag(c)))
	case reflect.String:
		h.PutString(v.String())
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			h.PutNull()
			return
		}
		encode(h, v.Elem())
	case reflect.Slice:
		if v.IsNil() {
			h.PutNull()
			return
		}
		encodeSeq(h, v)
	case reflect.Array:
		encodeSeq(h, v)
	case reflect.Map:
		if v.IsNil() {
			h.PutNull()
			return
		}
		encodeMap(h, v)
	case reflect.Struct:
		h.PutInt(int64(t.NumField()))
		for i := 0; i < t.NumField(); i++ {
			h.PutString(t.Field(i).Name)
			encode(h, v.Field(i))
		}
	default:
		h.PutString(fmt.Sprint(v.Interface()))
	}
}

func encodeSeq(h *hashing.Hasher, v reflect.Value) {
	h.PutInt(int64(v.Len()))
	for i := 0; i < v.Len(); i++ {
		encode(h, v.Index(i))
	}
}

func encodeMap(h *hashing.Hasher, v reflect.Value) {
	type entry struct {
		key hashing.HashCode
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		kh := hashing.NewHasher()
		encode(kh, iter.Key())
		entries = append(entries, entry{key: kh.Hash(), val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key[:], entries[j].key[:]) < 0
	})

	h.PutInt(int64(len(entries)))
	for _, e := range entries {
		h.PutHash(e.key)
		encode(h, e.val)
	}
}
