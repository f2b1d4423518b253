// Package hashing computes the content fingerprints that identify transform
// registrations.
//
// A Hasher is a thin SHA-256 wrapper where every contribution is
// length-prefixed, so that ("ab", "c") and ("a", "bc") never collide. Hashers
// are created per registration; there is no process-wide hashing state.
package hashing

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
)

// Size is the length of a HashCode in bytes.
const Size = sha256.Size

// HashCode is a fixed-size content hash. It is comparable and can be used as
// a map key.
type HashCode [Size]byte

// String returns the hex encoding of the hash.
func (c HashCode) String() string {
	return hex.EncodeToString(c[:])
}

// IsZero reports whether c is the zero hash.
func (c HashCode) IsZero() bool {
	return c == HashCode{}
}

// ParseHashCode parses the hex form produced by HashCode.String.
func ParseHashCode(s string) (HashCode, error) {
	var c HashCode
	raw, err := hex.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("parse hash code: %w", err)
	}
	if len(raw) != Size {
		return c, fmt.Errorf("parse hash code: want %d bytes, got %d", Size, len(raw))
	}
	copy(c[:], raw)
	return c, nil
}

// Hasher accumulates typed contributions into a HashCode.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// field tags keep differently-typed contributions with equal bytes apart.
const (
	tagString byte = iota + 1
	tagBytes
	tagHash
	tagInt
	tagUint
	tagBool
	tagFloat
	tagNull
)

func (h *Hasher) putTagged(tag byte, data []byte) {
	var prefix [9]byte
	prefix[0] = tag
	binary.BigEndian.PutUint64(prefix[1:], uint64(len(data)))
	h.h.Write(prefix[:])
	h.h.Write(data)
}

// PutString adds a string.
func (h *Hasher) PutString(s string) {
	h.putTagged(tagString, []byte(s))
}

// PutBytes adds a byte slice.
func (h *Hasher) PutBytes(b []byte) {
	h.putTagged(tagBytes, b)
}

// PutHash adds another hash.
func (h *Hasher) PutHash(c HashCode) {
	h.putTagged(tagHash, c[:])
}

// PutInt adds a signed integer.
func (h *Hasher) PutInt(n int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	h.putTagged(tagInt, b[:])
}

// PutUint adds an unsigned integer.
func (h *Hasher) PutUint(n uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	h.putTagged(tagUint, b[:])
}

// PutFloat adds a float using its IEEE 754 bits.
func (h *Hasher) PutFloat(bits uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], bits)
	h.putTagged(tagFloat, b[:])
}

// PutBool adds a boolean.
func (h *Hasher) PutBool(v bool) {
	if v {
		h.putTagged(tagBool, []byte{1})
		return
	}
	h.putTagged(tagBool, []byte{0})
}

// PutNull marks an absent value.
func (h *Hasher) PutNull() {
	h.putTagged(tagNull, nil)
}

// Hash returns the hash of everything added so far. The Hasher may keep
// being used afterwards.
func (h *Hasher) Hash() HashCode {
	var c HashCode
	copy(c[:], h.h.Sum(nil))
	return c
}

// HashString is a shorthand for hashing a single string.
func HashString(s string) HashCode {
	h := NewHasher()
	h.PutString(s)
	return h.Hash()
}
