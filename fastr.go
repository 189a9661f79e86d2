package thirdvm

import "hash/fnv"

// maxNameLen is the longest prefix of a word name retained for identity
// purposes; longer names collapse to this prefix (documented limitation).
const maxNameLen = 31

// LenHash packs a 24-bit FNV-1a hash of a name's first maxNameLen bytes
// together with its length into a single 32-bit word, the way the
// reference implementation packs (len, hash) into one machine word to
// keep FaStr comparisons cheap.
type LenHash struct {
	inner uint32
}

const (
	lenHashHashMask = 0x00FF_FFFF
	lenHashLenMask  = 0x1F00_0000
	lenHashBitsMask = 0xE000_0000
)

// NewLenHash computes the packed (hash, len) descriptor for s, considering
// at most the first maxNameLen bytes.
func NewLenHash(s []byte) LenHash {
	n := len(s)
	if n > maxNameLen {
		n = maxNameLen
	}
	h := fnv.New32a()
	_, _ = h.Write(s[:n])
	hash := h.Sum32()
	return LenHash{inner: (uint32(n) << 24) | (hash & lenHashHashMask)}
}

// Len returns the packed length (0..31).
func (lh LenHash) Len() int { return int((lh.inner & lenHashLenMask) >> 24) }

// eqIgnoreBits compares two LenHash values ignoring the 3 reserved high
// bits, as the reference does.
func (lh LenHash) eqIgnoreBits(other LenHash) bool {
	return (lh.inner &^ lenHashBitsMask) == (other.inner &^ lenHashBitsMask)
}

// FaStr is a short-name fingerprint: a byte slice reference plus its
// packed (hash, len) descriptor. Equality first compares the cheap
// (hash, len) pair, falling back to a byte comparison only on a
// collision, since only 24 hash bits are retained.
type FaStr struct {
	b       []byte
	lenHash LenHash
}

// NewFaStr builds a FaStr over s without copying it; the caller is
// responsible for s's lifetime (typically arena-owned or a string
// literal's backing array).
func NewFaStr(s []byte) FaStr {
	n := len(s)
	if n > maxNameLen {
		n = maxNameLen
	}
	return FaStr{b: s[:n], lenHash: NewLenHash(s)}
}

// NewFaStrString is a convenience wrapper for string inputs.
func NewFaStrString(s string) FaStr {
	return NewFaStr([]byte(s))
}

// Bytes returns the (at most maxNameLen-byte) backing slice.
func (f FaStr) Bytes() []byte { return f.b }

// String returns the name as a Go string.
func (f FaStr) String() string { return string(f.b) }

// Equal reports whether f and other identify the same name.
func (f FaStr) Equal(other FaStr) bool {
	if !f.lenHash.eqIgnoreBits(other.lenHash) {
		return false
	}
	return string(f.b) == string(other.b)
}

// IsZero reports whether f is the zero FaStr (used for uninitialized
// header slots).
func (f FaStr) IsZero() bool { return f.b == nil }
