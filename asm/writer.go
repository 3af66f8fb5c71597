//go:build linux && amd64

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

package asm

// Writer is a thin x86-64 instruction encoder over a Buffer. It emits
// exactly the subset of the ISA spec.md's encoding table names: short
// forms for RAX are used precisely where the table requires them, so
// byte-exact tests can pin the output. Forward jumps go through
// EmitJmpPlaceholder/EmitJePlaceholder + PatchJump; everything else
// (labelcall) knows its target position up front and needs no
// back-patching, since spec.md's `labels` form compiles all label
// bodies — each only referencing previously bound labels — before the
// entry body that may call any of them.
type Writer struct {
	Buf *Buffer
}

// NewWriter wraps buf.
func NewWriter(buf *Buffer) *Writer {
	return &Writer{Buf: buf}
}

// Pos returns the current write cursor.
func (w *Writer) Pos() int { return w.Buf.Len() }

func (w *Writer) byte(b byte) { w.Buf.WriteByte(b) }

func (w *Writer) imm32(v uint32) {
	w.byte(byte(v))
	w.byte(byte(v >> 8))
	w.byte(byte(v >> 16))
	w.byte(byte(v >> 24))
}

// EmitMovImm32 emits `mov r64, imm32` (zero-extending): B8+r / imm32.
func (w *Writer) EmitMovImm32(dst Reg, imm uint32) {
	w.byte(0xB8 + byte(dst))
	w.imm32(imm)
}

// EmitMovRegReg emits `mov dst, src` (64-bit GPR to GPR): 48 89 /r.
func (w *Writer) EmitMovRegReg(dst, src Reg) {
	w.byte(0x48)
	w.byte(0x89)
	w.byte(0xC0 | byte(src)<<3 | byte(dst))
}

// emitMemOp emits REX.W, opcode and the ModRM(+SIB) prefix for `[base+disp8]` addressing.
// RSP (and only RSP, since the register set tops out at 7) requires the
// SIB escape byte 0x24; every other base encodes directly.
func (w *Writer) emitMemOp(opcode byte, reg, base Reg, disp int8) {
	w.byte(0x48)
	w.byte(opcode)
	if base == RSP {
		w.byte(0x44 | byte(reg)<<3)
		w.byte(0x24)
	} else {
		w.byte(0x40 | byte(reg)<<3 | byte(base))
	}
	w.byte(byte(disp))
}

// EmitMovStoreRsp emits `mov [rsp+disp8], src`: 48 89 44 24 disp8.
func (w *Writer) EmitMovStoreRsp(disp int8, src Reg) {
	w.emitMemOp(0x89, src, RSP, disp)
}

// EmitMovLoadRsp emits `mov dst, [rsp+disp8]`: 48 8B 44 24 disp8.
func (w *Writer) EmitMovLoadRsp(dst Reg, disp int8) {
	w.emitMemOp(0x8B, dst, RSP, disp)
}

// EmitMovStoreMem emits `mov [base+disp8], src`: 48 89 40+r disp8. Used
// to store into pair slots via RSI (cons) and any other non-RSP base.
func (w *Writer) EmitMovStoreMem(base Reg, disp int8, src Reg) {
	w.emitMemOp(0x89, src, base, disp)
}

// EmitMovLoadMem emits `mov dst, [base+disp8]`: 48 8B 40+r disp8. Used
// for car/cdr (base and dst are both RAX there).
func (w *Writer) EmitMovLoadMem(dst, base Reg, disp int8) {
	w.emitMemOp(0x8B, dst, base, disp)
}

// aluOp holds the short-form opcode and the ModRM opcode extension for
// each 32-bit ALU op spec.md lists.
type aluOp struct {
	short byte // opcode for "op eax, imm32" (RAX only)
	ext   byte // /digit opcode extension for "81 /n" (any register)
}

var (
	aluAdd = aluOp{0x05, 0x00}
	aluSub = aluOp{0x2D, 0x05}
	aluAnd = aluOp{0x25, 0x04}
	aluOr  = aluOp{0x0D, 0x01}
	aluCmp = aluOp{0x3D, 0x07}
)

// emitAluImm32 emits a 32-bit ALU-immediate op, using the RAX short
// form exactly when dst is RAX and the general `81 /n` form otherwise.
// These are 32-bit operations (no REX.W): the operand always already
// lives in the low 32 bits (fixnums, booleans, and heap pointers, since
// NewBuffer maps below 2 GiB) and the result's upper 32 bits are
// implicitly zeroed by the CPU, matching the tagged-value
// representation's low-bit tagging scheme.
func (w *Writer) emitAluImm32(op aluOp, dst Reg, imm uint32) {
	if dst == RAX {
		w.byte(op.short)
	} else {
		w.byte(0x81)
		w.byte(0xC0 | op.ext<<3 | byte(dst))
	}
	w.imm32(imm)
}

// EmitAddImm32 emits `add r64, imm32` (05 / 81 /0).
func (w *Writer) EmitAddImm32(dst Reg, imm uint32) { w.emitAluImm32(aluAdd, dst, imm) }

// EmitSubImm32 emits `sub r64, imm32` (2D / 81 /5).
func (w *Writer) EmitSubImm32(dst Reg, imm uint32) { w.emitAluImm32(aluSub, dst, imm) }

// EmitAndImm32 emits `and r64, imm32` (25 / 81 /4).
func (w *Writer) EmitAndImm32(dst Reg, imm uint32) { w.emitAluImm32(aluAnd, dst, imm) }

// EmitOrImm32 emits `or r64, imm32` (0D / 81 /1).
func (w *Writer) EmitOrImm32(dst Reg, imm uint32) { w.emitAluImm32(aluOr, dst, imm) }

// EmitCmpImm32 emits `cmp r64, imm32` (3D / 81 /7).
func (w *Writer) EmitCmpImm32(dst Reg, imm uint32) { w.emitAluImm32(aluCmp, dst, imm) }

// EmitAddRspMem emits `add dst, [rsp+disp8]`: 48 03 44 24 disp8. Used
// by `+` to add the first operand (in RAX) to the second (stashed on
// the stack).
func (w *Writer) EmitAddRspMem(dst Reg, disp int8) {
	w.emitMemOp(0x03, dst, RSP, disp)
}

// EmitShlImm8 emits `shl r64, imm8`: 48 C1 E0+r imm8.
func (w *Writer) EmitShlImm8(dst Reg, imm uint8) {
	w.byte(0x48)
	w.byte(0xC1)
	w.byte(0xE0 | byte(dst))
	w.byte(imm)
}

// EmitSeteAL emits `sete al`: 0F 94 C0. Only AL is needed by zero?.
func (w *Writer) EmitSeteAL() {
	w.byte(0x0F)
	w.byte(0x94)
	w.byte(0xC0)
}

// EmitJePlaceholder emits `je rel32` (0F 84) with a zero placeholder
// displacement and returns the position immediately after it — the
// position PatchJump needs to compute and backfill the real offset
// once the join point is known.
func (w *Writer) EmitJePlaceholder() (postJumpPos int) {
	w.byte(0x0F)
	w.byte(0x84)
	w.imm32(0)
	return w.Pos()
}

// EmitJmpPlaceholder emits `jmp rel32` (E9) with a zero placeholder
// displacement, mirroring EmitJePlaceholder.
func (w *Writer) EmitJmpPlaceholder() (postJumpPos int) {
	w.byte(0xE9)
	w.imm32(0)
	return w.Pos()
}

// PatchJump backfills the 4-byte placeholder immediately preceding
// postJumpPos with (current position - postJumpPos), the relative
// displacement from the end of the jump instruction to here.
func (w *Writer) PatchJump(postJumpPos int) {
	disp := int32(w.Pos() - postJumpPos)
	w.Buf.PatchInt32(postJumpPos-4, disp)
}

// EmitCall emits `call rel32` (E8) to a target whose position is
// already known (labels are always compiled before any call to them).
func (w *Writer) EmitCall(targetPos int) {
	w.byte(0xE8)
	posAfter := w.Pos() + 4
	w.imm32(uint32(int32(targetPos - posAfter)))
}

// EmitRet emits `ret`: C3.
func (w *Writer) EmitRet() { w.byte(0xC3) }

// EmitIncReg emits `inc r64`: 48 FF C0+r.
func (w *Writer) EmitIncReg(r Reg) {
	w.byte(0x48)
	w.byte(0xFF)
	w.byte(0xC0 + byte(r))
}

// EmitDecReg emits `dec r64`: 48 FF C8+r.
func (w *Writer) EmitDecReg(r Reg) {
	w.byte(0x48)
	w.byte(0xFF)
	w.byte(0xC8 + byte(r))
}
