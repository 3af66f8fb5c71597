/*
Copyright (C) 2023  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package value describes the tagged-immediate runtime representation
// emitted by the compiler, and a diagnostics-only decoder for it. The
// compiler never manipulates values at runtime: it only emits the
// encodings below. Decode exists so tests and the REPL can print what a
// compiled function returned.
package value

const (
	FixnumShift = 2
	FixnumTag   = 0x0 // low 2 bits
	PairTag     = 0x1 // low 3 bits: 001
	VectorTag   = 0x2 // low 3 bits: 010 (reserved; not emitted by the core)
	StringTag   = 0x3 // low 3 bits: 011 (reserved)
	SymbolTag   = 0x5 // low 3 bits: 101 (reserved)
	ClosureTag  = 0x6 // low 3 bits: 110 (reserved)

	CharShift = 8
	CharTag   = 0x0F // 0000 1111

	BoolShift = 7
	BoolTag   = 0x1F // 0001 1111
	BoolFalse = 0x1F
	BoolTrue  = 0x9F

	NilTag = 0x2F // 0010 1111
)

// MinFixnum and MaxFixnum bound the representable signed 30-bit range
// the encoder asserts on the unshifted integer, so the shifted value
// fits a signed 32-bit immediate and decodes back unchanged.
const (
	MinFixnum = -(1 << 29)
	MaxFixnum = (1 << 29) - 1
)

// EncodeFixnum shifts n into the fixnum tag. Panics if n is out of the
// representable range — the encoder must assert per spec. The shift
// happens in 32-bit width (wrapping, like the 32-bit imm32 field it
// feeds) before zero-extending to 64 bits, matching `mov eax, imm32`'s
// actual machine semantics.
func EncodeFixnum(n int32) uint64 {
	if n < MinFixnum || n > MaxFixnum {
		panic("value: fixnum out of range")
	}
	return uint64(uint32(n) << FixnumShift)
}

// EncodeChar packs an ASCII code into the char tag.
func EncodeChar(c byte) uint64 {
	return uint64(c)<<CharShift | CharTag
}

// EncodeBool packs a boolean flag into the bool tag.
func EncodeBool(b bool) uint64 {
	if b {
		return BoolTrue
	}
	return BoolFalse
}

// EncodeNil is the constant nil encoding.
func EncodeNil() uint64 { return NilTag }

// Kind enumerates the shapes Decode can recognize.
type Kind int

const (
	KindFixnum Kind = iota
	KindPair
	KindChar
	KindBool
	KindNil
	KindUnknown
)

// Decoded is a diagnostics-only sum-of-shapes view of a raw tagged
// value, built purely for readable test assertions and REPL output —
// the compiler itself never constructs one.
type Decoded struct {
	Kind    Kind
	Fixnum  int32
	PairPtr uintptr // heap address of the pair (car/cdr derived from it)
	Char    byte
	Bool    bool
}

// Decode classifies a raw tagged uint64 as returned by invoking
// compiled code.
func Decode(raw uint64) Decoded {
	// Narrower tags (8-bit char, 7-bit bool, full-byte nil) are checked
	// before the 3-bit pair and 2-bit fixnum tags. Their low bits are
	// 111, which neither of those tags matches.
	switch {
	case raw == NilTag:
		return Decoded{Kind: KindNil}
	case raw&0x7F == BoolTag:
		return Decoded{Kind: KindBool, Bool: raw == BoolTrue}
	case raw&0xFF == CharTag:
		return Decoded{Kind: KindChar, Char: byte(raw >> CharShift)}
	case raw&0x7 == PairTag:
		return Decoded{Kind: KindPair, PairPtr: uintptr(raw &^ 0x7)}
	case raw&0x3 == FixnumTag:
		// raw's low 32 bits are the wrapped `imm32` EncodeFixnum built by
		// shifting n left in 32-bit width; reinterpreting them as int32
		// before shifting (rather than shifting the zero-extended uint64)
		// is what lets the shift sign-extend negative fixnums back out.
		return Decoded{Kind: KindFixnum, Fixnum: int32(uint32(raw)) >> FixnumShift}
	default:
		return Decoded{Kind: KindUnknown}
	}
}
