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

// Package ast is the three-variant tagged sum type the reader builds
// and the compiler walks: fixnum literal, symbol (atom), and pair.
package ast

// Kind discriminates the Node variants.
type Kind int

const (
	Fixnum Kind = iota
	Atom
	Pair
)

// Node is a single AST cell. Atoms own their name string; names are
// compared by value, not identity. Pair nodes link Car/Cdr; there is a
// single shared empty-list value (Nil, below) rather than a fresh
// allocation per empty list.
type Node struct {
	Kind Kind
	Int  int32  // valid when Kind == Fixnum
	Name string // valid when Kind == Atom
	Car  *Node  // valid when Kind == Pair
	Cdr  *Node  // valid when Kind == Pair
}

// Nil is the single shared empty-list sentinel. Constructing a Pair
// with both Car and Cdr absent returns this value rather than a new
// node, so callers can compare against it with ==.
var Nil = &Node{Kind: Pair, Car: nil, Cdr: nil}

// NewFixnum builds a fixnum literal node.
func NewFixnum(n int32) *Node {
	return &Node{Kind: Fixnum, Int: n}
}

// NewAtom builds a symbol node.
func NewAtom(name string) *Node {
	return &Node{Kind: Atom, Name: name}
}

// NewPair builds a cons cell, or returns the shared Nil singleton when
// both car and cdr are nil (the reader's representation of `()`).
func NewPair(car, cdr *Node) *Node {
	if car == nil && cdr == nil {
		return Nil
	}
	return &Node{Kind: Pair, Car: car, Cdr: cdr}
}

// IsNil reports whether node is the shared empty-list value.
func IsNil(node *Node) bool {
	return node == Nil
}

// IsAtom reports whether node is a symbol and, optionally, whether its
// name equals want (pass "" to only test the kind).
func IsAtom(node *Node, want string) bool {
	return node != nil && node.Kind == Atom && (want == "" || node.Name == want)
}

// List walks a chain of Pair nodes built by the reader's `(` production
// (each element is the Car of a fresh Pair, tail recursively built) and
// returns the elements as a slice. Panics if node is not such a chain —
// callers only use this on forms already known to be lists.
func List(node *Node) []*Node {
	var out []*Node
	for !IsNil(node) {
		if node.Kind != Pair {
			panic("ast: List called on a non-list node")
		}
		out = append(out, node.Car)
		node = node.Cdr
	}
	return out
}

// NewList builds the Pair chain for a literal slice of elements,
// terminated by the shared Nil value.
func NewList(elems []*Node) *Node {
	tail := Nil
	for i := len(elems) - 1; i >= 0; i-- {
		tail = NewPair(elems[i], tail)
	}
	return tail
}
