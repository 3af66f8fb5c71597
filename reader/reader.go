/*
Copyright (C) 2023  Carl-Philip Hänsch
Copyright (C) 2013  Pieter Kelchtermans (originally licensed unter WTFPL 2.0)

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

// Package reader is a recursive-descent parser over a source string,
// advancing a single cursor. It is deliberately mechanical: no strings,
// vectors, chars, booleans, quoting or comments exist at this level,
// and malformed input has no graceful recovery — it produces a form,
// reports "no form" via ok=false, or panics (on an unterminated list or
// a fixnum literal wider than 32 bits).
package reader

import (
	"fmt"
	"math"

	"github.com/launix-de/tinyjit/ast"
)

const maxAtomLen = 32

// Reader holds the source bytes and a cursor into them.
type Reader struct {
	src string
	pos int
}

// New returns a Reader positioned at the start of s.
func New(s string) *Reader {
	return &Reader{src: s}
}

func (r *Reader) peek() byte {
	if r.pos >= len(r.src) {
		return 0
	}
	return r.src[r.pos]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isAtomStart also admits '>' and '?', beyond the letters/+/- the source
// language's illustrative grammar names: integer->char and zero? are
// themselves atoms, so the lexer must be able to read them.
func isAtomStart(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '+' || c == '-' || c == '>' || c == '?'
}

// isAtomCont is isAtomStart plus digits: add1 and sub1 are themselves
// atoms, so once an atom has begun (on a non-digit, per isAtomStart) a
// digit must still be able to continue it. Digits stay excluded from
// isAtomStart itself so a bare fixnum literal is never misread as the
// start of an atom.
func isAtomCont(c byte) bool {
	return isAtomStart(c) || isDigit(c)
}

func (r *Reader) skipSpace() {
	for r.pos < len(r.src) && isSpace(r.src[r.pos]) {
		r.pos++
	}
}

// Read consumes one form from the source. ok is false ("no form") when
// the cursor sits on anything but a digit, an atom-class character, or
// an opening paren — the reader does not attempt to recover.
func (r *Reader) Read() (node *ast.Node, ok bool) {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return nil, false
	}
	c := r.peek()
	switch {
	case isDigit(c):
		return r.readFixnum(), true
	case isAtomStart(c):
		return r.readAtom(), true
	case c == '(':
		r.pos++
		return r.readList(), true
	default:
		return nil, false
	}
}

// readFixnum asserts on overflow rather than wrapping, the same
// fail-loudly stance toDisp8 takes on the emitter side.
func (r *Reader) readFixnum() *ast.Node {
	start := r.pos
	for r.pos < len(r.src) && isDigit(r.src[r.pos]) {
		r.pos++
	}
	n := int64(0)
	for _, c := range []byte(r.src[start:r.pos]) {
		n = n*10 + int64(c-'0')
		if n > math.MaxInt32 {
			panic(fmt.Sprintf("reader: fixnum literal %q exceeds 32 bits", r.src[start:r.pos]))
		}
	}
	return ast.NewFixnum(int32(n))
}

func (r *Reader) readAtom() *ast.Node {
	start := r.pos
	for r.pos < len(r.src) && r.pos-start < maxAtomLen && isAtomCont(r.src[r.pos]) {
		r.pos++
	}
	return ast.NewAtom(r.src[start:r.pos])
}

// readList reads elements until a matching ')', building a Pair chain
// where each element is the Car of a fresh pair and the tail is
// recursively constructed; `()` yields the shared Nil value.
func (r *Reader) readList() *ast.Node {
	var elems []*ast.Node
	for {
		r.skipSpace()
		if r.peek() == ')' {
			r.pos++
			break
		}
		node, ok := r.Read()
		if !ok {
			panic("reader: expecting matching )")
		}
		elems = append(elems, node)
	}
	return ast.NewList(elems)
}

// ReadAll reads every top-level form in the source.
func ReadAll(s string) []*ast.Node {
	r := New(s)
	var forms []*ast.Node
	for {
		node, ok := r.Read()
		if !ok {
			break
		}
		forms = append(forms, node)
	}
	return forms
}
