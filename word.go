package thirdvm

import (
	"math"
	"unsafe"
)

// Word is a single machine-sized cell shared by three logical views --
// signed integer, IEEE-754 float, and pointer -- with no runtime tag. The
// word that consumes a given cell determines which view is live; nothing
// in Word itself records which interpretation was last written.
//
// Cells are 8 bytes wide, matching a 64-bit pointer; the integer and float
// views share that width rather than being truncated to 32 bits, per the
// data model's note that ports may widen both consistently.
type Word struct {
	bits uint64
}

// WordData packs a signed integer into a word.
func WordData(v int64) Word { return Word{bits: uint64(v)} }

// WordFloat packs a float into a word.
func WordFloat(v float64) Word { return Word{bits: math.Float64bits(v)} }

// WordPtr packs a pointer into a word. The pointer must either be nil or
// refer to memory that outlives the word (the dictionary arena, a builtin
// table entry, or other statically-known memory).
func WordPtr(p unsafe.Pointer) Word { return Word{bits: uint64(uintptr(p))} }

// Data reads the word as a signed integer.
func (w Word) Data() int64 { return int64(w.bits) }

// Data32 reads the word as a 32-bit two's-complement integer, the width
// numeric literals are parsed at.
func (w Word) Data32() int32 { return int32(w.bits) }

// Float reads the word as a float.
func (w Word) Float() float64 { return math.Float64frombits(w.bits) }

// Ptr reads the word as a pointer.
func (w Word) Ptr() unsafe.Pointer { return unsafe.Pointer(uintptr(w.bits)) }

// IsNil reports whether the word's pointer view is nil.
func (w Word) IsNil() bool { return w.bits == 0 }

// wordTrue and wordFalse are the canonical boolean cells used by comparison
// builtins: Forth-style all-bits-set true, all-bits-clear false.
var (
	wordTrue  = WordData(-1)
	wordFalse = WordData(0)
)

func boolWord(b bool) Word {
	if b {
		return wordTrue
	}
	return wordFalse
}
