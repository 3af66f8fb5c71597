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
	"github.com/launix-de/tinyjit/asm"
	"github.com/launix-de/tinyjit/ast"
	"github.com/launix-de/tinyjit/env"
)

// Compile emits a complete entry into w: a `(labels (...) body)` form
// lays out its labels before a prologued entry; anything else is
// compiled as a single implicit entry expression.
func Compile(w *asm.Writer, node *ast.Node) error {
	if isLabelsForm(node) {
		return compileLabelsProgram(w, node)
	}
	return compileImplicitEntry(w, node)
}

func isLabelsForm(node *ast.Node) bool {
	return node.Kind == ast.Pair && !ast.IsNil(node) && ast.IsAtom(node.Car, "labels")
}

// compileImplicitEntry seeds the heap pointer, compiles node as a bare
// expression at the top-level stack_index, and returns.
func compileImplicitEntry(w *asm.Writer, node *ast.Node) error {
	w.EmitMovRegReg(asm.RSI, asm.RDI)
	if err := compileExpr(w, node, nil, nil, -8); err != nil {
		return err
	}
	w.EmitRet()
	return nil
}

// compileLabelsProgram lays out every label body before the entry: a
// leading jmp skips the label region, each binding's code position is
// recorded before compiling it (so later labels can call earlier
// ones), and only after all labels are emitted does the prologued
// entry body follow.
func compileLabelsProgram(w *asm.Writer, node *ast.Node) error {
	elems := ast.List(node)
	if len(elems) != 3 {
		panic("compiler: malformed labels form")
	}
	jmpPos := w.EmitJmpPlaceholder()
	var labels *env.Env
	for _, binding := range ast.List(elems[1]) {
		parts := ast.List(binding)
		if len(parts) != 2 || parts[0].Kind != ast.Atom {
			panic("compiler: malformed labels binding")
		}
		labels = env.Extend(labels, parts[0].Name, int32(w.Pos()))
		if err := compileCodeForm(w, parts[1], labels); err != nil {
			return err
		}
	}
	w.PatchJump(jmpPos)
	w.EmitMovRegReg(asm.RSI, asm.RDI)
	if err := compileExpr(w, elems[2], nil, labels, -8); err != nil {
		return err
	}
	w.EmitRet()
	return nil
}

// compileCodeForm compiles a `(code (x1 ... xn) body)` binding: it
// resets stack_index to -8 and assigns formals to descending slots in
// a fresh locals chain (labels are inherited, not locals), then
// compiles the body and emits the return.
func compileCodeForm(w *asm.Writer, node *ast.Node, labels *env.Env) error {
	elems := ast.List(node)
	if len(elems) != 3 || !ast.IsAtom(elems[0], "code") {
		panic("compiler: labels binding must be a code form")
	}
	var locals *env.Env
	stackIndex := int32(-8)
	for _, f := range ast.List(elems[1]) {
		if f.Kind != ast.Atom {
			panic("compiler: code formal must be a symbol")
		}
		locals = env.Extend(locals, f.Name, stackIndex)
		stackIndex -= 8
	}
	if err := compileExpr(w, elems[2], locals, labels, stackIndex); err != nil {
		return err
	}
	w.EmitRet()
	return nil
}
