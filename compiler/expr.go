/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

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

package compiler

import (
	"fmt"

	"github.com/launix-de/tinyjit/asm"
	"github.com/launix-de/tinyjit/ast"
	"github.com/launix-de/tinyjit/env"
	"github.com/launix-de/tinyjit/value"
)

// toDisp8 narrows a stack-slot offset to the signed 8-bit displacement
// the emitter's [rsp+disp8]/[r64+disp8] forms require. The original
// this was ported from wraps silently on overflow; here it asserts,
// per the documented decision to fail loudly instead of reproducing
// that bug.
func toDisp8(offset int32) int8 {
	if offset < -128 || offset > 127 {
		panic(fmt.Sprintf("compiler: stack slot %d exceeds the 8-bit displacement range", offset))
	}
	return int8(offset)
}

// compileExpr dispatches on node kind: a fixnum literal loads its
// encoding directly, an atom resolves against locals (an unbound name
// is the one recoverable diagnostic this level can produce), and a
// pair is a call form.
func compileExpr(w *asm.Writer, node *ast.Node, locals, labels *env.Env, stackIndex int32) error {
	switch node.Kind {
	case ast.Fixnum:
		w.EmitMovImm32(asm.RAX, uint32(value.EncodeFixnum(node.Int)))
		return nil
	case ast.Atom:
		slot, ok := env.Lookup(locals, node.Name)
		if !ok {
			return unboundVariable(node.Name)
		}
		w.EmitMovLoadRsp(asm.RAX, toDisp8(slot))
		return nil
	case ast.Pair:
		return compileCall(w, node, locals, labels, stackIndex)
	default:
		panic("compiler: unrecognized AST node kind")
	}
}

// compileCall dispatches a pair's head atom to one of the fixed set of
// forms spec.md names. Any other head is malformed input and a fatal
// assertion, not a recoverable error — §6.1 fixes this set closed.
func compileCall(w *asm.Writer, node *ast.Node, locals, labels *env.Env, stackIndex int32) error {
	elems := ast.List(node)
	if len(elems) == 0 {
		panic("compiler: empty call form")
	}
	head := elems[0]
	if head.Kind != ast.Atom {
		panic("compiler: call head must be a symbol")
	}
	args := elems[1:]
	switch head.Name {
	case "add1":
		return compileAdd1(w, args, locals, labels, stackIndex)
	case "sub1":
		return compileSub1(w, args, locals, labels, stackIndex)
	case "integer->char":
		return compileIntegerToChar(w, args, locals, labels, stackIndex)
	case "zero?":
		return compileZeroP(w, args, locals, labels, stackIndex)
	case "+":
		return compilePlus(w, args, locals, labels, stackIndex)
	case "let":
		return compileLet(w, args, locals, labels, stackIndex)
	case "if":
		return compileIf(w, args, locals, labels, stackIndex)
	case "cons":
		return compileCons(w, args, locals, labels, stackIndex)
	case "car":
		return compileCar(w, args, locals, labels, stackIndex)
	case "cdr":
		return compileCdr(w, args, locals, labels, stackIndex)
	case "labelcall":
		return compileLabelCall(w, args, locals, labels, stackIndex)
	case "code", "labels":
		panic(fmt.Sprintf("compiler: %s form is only valid as a labels program binding, not a nested expression", head.Name))
	default:
		panic(fmt.Sprintf("compiler: unknown head symbol %q", head.Name))
	}
}
