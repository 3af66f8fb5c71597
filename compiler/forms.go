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

func arity(name string, args []*ast.Node, n int) {
	if len(args) != n {
		panic(fmt.Sprintf("compiler: %s expects %d argument(s), got %d", name, n, len(args)))
	}
}

// compileAdd1 and compileSub1 compile e, then add/sub the encoded
// literal 1 (0x04) directly onto the tagged fixnum in rax.
func compileAdd1(w *asm.Writer, args []*ast.Node, locals, labels *env.Env, stackIndex int32) error {
	arity("add1", args, 1)
	if err := compileExpr(w, args[0], locals, labels, stackIndex); err != nil {
		return err
	}
	w.EmitAddImm32(asm.RAX, uint32(value.EncodeFixnum(1)))
	return nil
}

func compileSub1(w *asm.Writer, args []*ast.Node, locals, labels *env.Env, stackIndex int32) error {
	arity("sub1", args, 1)
	if err := compileExpr(w, args[0], locals, labels, stackIndex); err != nil {
		return err
	}
	w.EmitSubImm32(asm.RAX, uint32(value.EncodeFixnum(1)))
	return nil
}

// compileIntegerToChar reinterprets a fixnum's payload as a char tag:
// shl by (CharShift - FixnumShift), then or in the char tag bits.
func compileIntegerToChar(w *asm.Writer, args []*ast.Node, locals, labels *env.Env, stackIndex int32) error {
	arity("integer->char", args, 1)
	if err := compileExpr(w, args[0], locals, labels, stackIndex); err != nil {
		return err
	}
	w.EmitShlImm8(asm.RAX, value.CharShift-value.FixnumShift)
	w.EmitOrImm32(asm.RAX, value.CharTag)
	return nil
}

// compileZeroP compiles e, compares it against the fixnum zero, and
// materializes a boolean encoding from the comparison flag.
func compileZeroP(w *asm.Writer, args []*ast.Node, locals, labels *env.Env, stackIndex int32) error {
	arity("zero?", args, 1)
	if err := compileExpr(w, args[0], locals, labels, stackIndex); err != nil {
		return err
	}
	w.EmitCmpImm32(asm.RAX, 0)
	w.EmitMovImm32(asm.RAX, 0)
	w.EmitSeteAL()
	w.EmitShlImm8(asm.RAX, value.BoolShift)
	w.EmitOrImm32(asm.RAX, value.BoolTag)
	return nil
}

// compilePlus evaluates b first into the current slot, then a one
// slot deeper (so a's own temporaries, if any, cannot clobber b's
// stashed value), then adds the stashed b onto a's result in rax.
func compilePlus(w *asm.Writer, args []*ast.Node, locals, labels *env.Env, stackIndex int32) error {
	arity("+", args, 2)
	a, b := args[0], args[1]
	if err := compileExpr(w, b, locals, labels, stackIndex); err != nil {
		return err
	}
	w.EmitMovStoreRsp(toDisp8(stackIndex), asm.RAX)
	if err := compileExpr(w, a, locals, labels, stackIndex-8); err != nil {
		return err
	}
	w.EmitAddRspMem(asm.RAX, toDisp8(stackIndex))
	return nil
}

// compileLet implements let*-style sequential binding: each value is
// compiled against the bindings introduced so far, stored to its own
// slot, and the name is bound to that slot for the rest of the chain.
// References always re-read the slot rather than forwarding a value
// kept live in a register.
func compileLet(w *asm.Writer, args []*ast.Node, locals, labels *env.Env, stackIndex int32) error {
	arity("let", args, 2)
	bindings := ast.List(args[0])
	si := stackIndex
	cur := locals
	for _, b := range bindings {
		parts := ast.List(b)
		if len(parts) != 2 || parts[0].Kind != ast.Atom {
			panic("compiler: malformed let binding")
		}
		if err := compileExpr(w, parts[1], cur, labels, si); err != nil {
			return err
		}
		w.EmitMovStoreRsp(toDisp8(si), asm.RAX)
		cur = env.Extend(cur, parts[0].Name, si)
		si -= 8
	}
	return compileExpr(w, args[1], cur, labels, si)
}

// compileIf compiles the test, branches on whether it is boolean-false
// (every other value, including nil and zero, is truthy), and patches
// both forward jumps once their targets are known.
func compileIf(w *asm.Writer, args []*ast.Node, locals, labels *env.Env, stackIndex int32) error {
	arity("if", args, 3)
	if err := compileExpr(w, args[0], locals, labels, stackIndex); err != nil {
		return err
	}
	w.EmitCmpImm32(asm.RAX, uint32(value.EncodeBool(false)))
	jePos := w.EmitJePlaceholder()
	if err := compileExpr(w, args[1], locals, labels, stackIndex); err != nil {
		return err
	}
	jmpPos := w.EmitJmpPlaceholder()
	w.PatchJump(jePos)
	if err := compileExpr(w, args[2], locals, labels, stackIndex); err != nil {
		return err
	}
	w.PatchJump(jmpPos)
	return nil
}

// compileCons allocates a pair at the current heap pointer (rsi),
// storing car then cdr, and advances rsi by the pair's 16-byte size.
func compileCons(w *asm.Writer, args []*ast.Node, locals, labels *env.Env, stackIndex int32) error {
	arity("cons", args, 2)
	a, b := args[0], args[1]
	if err := compileExpr(w, a, locals, labels, stackIndex-8); err != nil {
		return err
	}
	w.EmitMovStoreMem(asm.RSI, 0, asm.RAX)
	if err := compileExpr(w, b, locals, labels, stackIndex); err != nil {
		return err
	}
	w.EmitMovStoreMem(asm.RSI, 8, asm.RAX)
	w.EmitMovRegReg(asm.RAX, asm.RSI)
	w.EmitOrImm32(asm.RAX, value.PairTag)
	w.EmitAddImm32(asm.RSI, 16)
	return nil
}

// compileCar and compileCdr read the two words of a pair cell at the
// pointer's tag-adjusted displacements (-1 and +7).
func compileCar(w *asm.Writer, args []*ast.Node, locals, labels *env.Env, stackIndex int32) error {
	arity("car", args, 1)
	if err := compileExpr(w, args[0], locals, labels, stackIndex); err != nil {
		return err
	}
	w.EmitMovLoadMem(asm.RAX, asm.RAX, -1)
	return nil
}

func compileCdr(w *asm.Writer, args []*ast.Node, locals, labels *env.Env, stackIndex int32) error {
	arity("cdr", args, 1)
	if err := compileExpr(w, args[0], locals, labels, stackIndex); err != nil {
		return err
	}
	w.EmitMovLoadMem(asm.RAX, asm.RAX, 7)
	return nil
}

// compileLabelCall stages each argument into the slot the callee will
// actually read it from, then calls the label directly.
//
// Nothing in this compiler ever adjusts rsp with a sub: the only thing
// that moves it is call's own implicit push. That means the physical
// address a store targets is fixed relative to the CURRENT activation's
// rsp, not relative to however deep stack_index bookkeeping has nested
// while compiling the argument expressions. A fresh code body always
// starts reading its formals at -8, -16, ... below ITS OWN rsp (see
// compileCodeForm), which — after call's 8-byte push — is exactly
// -16, -24, ... below the caller's rsp. So argument i's store always
// targets -8*(i+2) from the caller's rsp, regardless of stackIndex.
//
// stackIndex is still threaded into each argument's own compilation:
// an argument that itself needs scratch slots (a nested let, +, or
// labelcall) must not clobber the caller's own live temporaries, and
// stackIndex already tracks how deep those are.
func compileLabelCall(w *asm.Writer, args []*ast.Node, locals, labels *env.Env, stackIndex int32) error {
	if len(args) == 0 || args[0].Kind != ast.Atom {
		panic("compiler: labelcall requires a label name")
	}
	name := args[0].Name
	values := args[1:]
	for i, v := range values {
		scratch := stackIndex - 8*int32(i+1)
		if err := compileExpr(w, v, locals, labels, scratch); err != nil {
			return err
		}
		argSlot := -8 * int32(i+2)
		w.EmitMovStoreRsp(toDisp8(argSlot), asm.RAX)
	}
	target, ok := env.Lookup(labels, name)
	if !ok {
		return unboundLabel(name)
	}
	w.EmitCall(int(target))
	return nil
}
