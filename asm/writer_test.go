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

import (
	"bytes"
	"testing"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	buf := NewBuffer(4096)
	t.Cleanup(func() { buf.Close() })
	return NewWriter(buf)
}

func TestEmitMovImm32AllRegs(t *testing.T) {
	for r := Reg(0); r <= 7; r++ {
		w := newTestWriter(t)
		w.EmitMovImm32(r, 0x11223344)
		want := []byte{0xB8 + byte(r), 0x44, 0x33, 0x22, 0x11}
		if !bytes.Equal(w.Buf.Bytes(), want) {
			t.Fatalf("reg %d: got % x, want % x", r, w.Buf.Bytes(), want)
		}
	}
}

func TestEmitMovRegReg(t *testing.T) {
	w := newTestWriter(t)
	w.EmitMovRegReg(RSI, RDI)
	want := []byte{0x48, 0x89, 0xC0 | byte(RDI)<<3 | byte(RSI)}
	if !bytes.Equal(w.Buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", w.Buf.Bytes(), want)
	}
}

func TestEmitMovStoreRsp(t *testing.T) {
	w := newTestWriter(t)
	w.EmitMovStoreRsp(-8, RAX)
	want := []byte{0x48, 0x89, 0x44, 0x24, 0xF8}
	if !bytes.Equal(w.Buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", w.Buf.Bytes(), want)
	}
}

func TestEmitMovLoadRsp(t *testing.T) {
	w := newTestWriter(t)
	w.EmitMovLoadRsp(RAX, -16)
	want := []byte{0x48, 0x8B, 0x44, 0x24, 0xF0}
	if !bytes.Equal(w.Buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", w.Buf.Bytes(), want)
	}
}

func TestEmitMovStoreMemNonRspBase(t *testing.T) {
	w := newTestWriter(t)
	w.EmitMovStoreMem(RSI, 0, RAX)
	want := []byte{0x48, 0x89, 0x40 | byte(RSI), 0x00}
	if !bytes.Equal(w.Buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", w.Buf.Bytes(), want)
	}
}

func TestEmitAddImm32RaxShortForm(t *testing.T) {
	w := newTestWriter(t)
	w.EmitAddImm32(RAX, 4)
	want := []byte{0x05, 0x04, 0x00, 0x00, 0x00}
	if !bytes.Equal(w.Buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", w.Buf.Bytes(), want)
	}
}

func TestEmitAddImm32GeneralForm(t *testing.T) {
	w := newTestWriter(t)
	w.EmitAddImm32(RCX, 4)
	want := []byte{0x81, 0xC0 | byte(RCX), 0x04, 0x00, 0x00, 0x00}
	if !bytes.Equal(w.Buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", w.Buf.Bytes(), want)
	}
}

func TestEmitSubCmpAndOrImm32Opcodes(t *testing.T) {
	cases := []struct {
		name  string
		emit  func(w *Writer, dst Reg, imm uint32)
		short byte
		ext   byte
	}{
		{"sub", (*Writer).EmitSubImm32, 0x2D, 0x05},
		{"and", (*Writer).EmitAndImm32, 0x25, 0x04},
		{"or", (*Writer).EmitOrImm32, 0x0D, 0x01},
		{"cmp", (*Writer).EmitCmpImm32, 0x3D, 0x07},
	}
	for _, c := range cases {
		w := newTestWriter(t)
		c.emit(w, RAX, 1)
		want := []byte{c.short, 0x01, 0x00, 0x00, 0x00}
		if !bytes.Equal(w.Buf.Bytes(), want) {
			t.Fatalf("%s rax: got % x, want % x", c.name, w.Buf.Bytes(), want)
		}

		w2 := newTestWriter(t)
		c.emit(w2, RDX, 1)
		want2 := []byte{0x81, 0xC0 | c.ext<<3 | byte(RDX), 0x01, 0x00, 0x00, 0x00}
		if !bytes.Equal(w2.Buf.Bytes(), want2) {
			t.Fatalf("%s rdx: got % x, want % x", c.name, w2.Buf.Bytes(), want2)
		}
	}
}

func TestEmitShlImm8(t *testing.T) {
	w := newTestWriter(t)
	w.EmitShlImm8(RAX, 6)
	want := []byte{0x48, 0xC1, 0xE0, 0x06}
	if !bytes.Equal(w.Buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", w.Buf.Bytes(), want)
	}
}

func TestEmitSeteAL(t *testing.T) {
	w := newTestWriter(t)
	w.EmitSeteAL()
	want := []byte{0x0F, 0x94, 0xC0}
	if !bytes.Equal(w.Buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", w.Buf.Bytes(), want)
	}
}

func TestEmitRet(t *testing.T) {
	w := newTestWriter(t)
	w.EmitRet()
	if !bytes.Equal(w.Buf.Bytes(), []byte{0xC3}) {
		t.Fatalf("got % x, want c3", w.Buf.Bytes())
	}
}

func TestPatchJumpForwardDisplacement(t *testing.T) {
	w := newTestWriter(t)
	jePos := w.EmitJePlaceholder()
	w.EmitRet() // 1 byte "then" stand-in
	jmpPos := w.EmitJmpPlaceholder()
	w.PatchJump(jePos)
	elseStart := w.Pos()
	w.EmitRet() // 1 byte "else" stand-in
	w.PatchJump(jmpPos)
	end := w.Pos()

	bs := w.Buf.Bytes()
	jeDisp := int32(bs[2]) | int32(bs[3])<<8 | int32(bs[4])<<16 | int32(bs[5])<<24
	if int(jeDisp) != elseStart-jePos {
		t.Fatalf("je displacement = %d, want %d", jeDisp, elseStart-jePos)
	}
	jmpDisp := int32(bs[jmpPos-4]) | int32(bs[jmpPos-3])<<8 | int32(bs[jmpPos-2])<<16 | int32(bs[jmpPos-1])<<24
	if int(jmpDisp) != end-jmpPos {
		t.Fatalf("jmp displacement = %d, want %d", jmpDisp, end-jmpPos)
	}
}

func TestEmitCallRel32(t *testing.T) {
	w := newTestWriter(t)
	w.EmitRet()
	w.EmitRet()
	w.EmitRet() // target at position 3
	target := 3
	callPos := w.Pos()
	w.EmitCall(target)
	bs := w.Buf.Bytes()
	if bs[callPos] != 0xE8 {
		t.Fatalf("call opcode = %#x, want 0xE8", bs[callPos])
	}
	disp := int32(bs[callPos+1]) | int32(bs[callPos+2])<<8 | int32(bs[callPos+3])<<16 | int32(bs[callPos+4])<<24
	want := int32(target - (callPos + 5))
	if disp != want {
		t.Fatalf("call disp = %d, want %d", disp, want)
	}
}
