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

package reader

import (
	"testing"

	"github.com/launix-de/tinyjit/ast"
)

func TestReadFixnum(t *testing.T) {
	node, ok := New("42").Read()
	if !ok || node.Kind != ast.Fixnum || node.Int != 42 {
		t.Fatalf("Read(\"42\") = %+v, %v", node, ok)
	}
}

func TestReadAtom(t *testing.T) {
	node, ok := New("foo").Read()
	if !ok || node.Kind != ast.Atom || node.Name != "foo" {
		t.Fatalf("Read(\"foo\") = %+v, %v", node, ok)
	}
}

func TestReadAtomMaxLen(t *testing.T) {
	node, ok := New("abcdefghijklmnopqrstuvwxyzabcdefGARBAGE").Read()
	if !ok || node.Kind != ast.Atom || len(node.Name) != maxAtomLen {
		t.Fatalf("Read truncated atom: %+v, %v", node, ok)
	}
}

func TestReadEmptyList(t *testing.T) {
	node, ok := New("()").Read()
	if !ok || !ast.IsNil(node) {
		t.Fatalf("Read(\"()\") = %+v, %v, want Nil", node, ok)
	}
}

func TestReadNestedList(t *testing.T) {
	node, ok := New("(+ 1 (add1 2))").Read()
	if !ok {
		t.Fatal("Read failed")
	}
	elems := ast.List(node)
	if len(elems) != 3 {
		t.Fatalf("got %d elements, want 3", len(elems))
	}
	if !ast.IsAtom(elems[0], "+") {
		t.Fatalf("head = %+v, want +", elems[0])
	}
	inner := ast.List(elems[2])
	if len(inner) != 2 || !ast.IsAtom(inner[0], "add1") {
		t.Fatalf("inner form = %+v", inner)
	}
}

func TestReadNoForm(t *testing.T) {
	_, ok := New("").Read()
	if ok {
		t.Fatal("Read(\"\") returned ok = true")
	}
	_, ok = New(")").Read()
	if ok {
		t.Fatal("Read(\")\") returned ok = true")
	}
}

func TestReadListUnterminatedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unterminated list")
		}
	}()
	New("(1 2").Read()
}

func TestReadAllMultipleForms(t *testing.T) {
	forms := ReadAll("1 2 (+ 1 2)")
	if len(forms) != 3 {
		t.Fatalf("ReadAll returned %d forms, want 3", len(forms))
	}
}

func TestReadSkipsWhitespace(t *testing.T) {
	node, ok := New("  \n\t 7 ").Read()
	if !ok || node.Int != 7 {
		t.Fatalf("Read with leading whitespace = %+v, %v", node, ok)
	}
}
