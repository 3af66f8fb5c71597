//go:build linux && amd64

/*
Copyright (C) 2023-2026  Carl-Philip Hänsch

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

// Package asm provides the executable-memory buffer and the x86-64
// instruction emitter the compiler writes into. Buffer owns a single
// mmap'd region of whole pages, writable until MakeExecutable flips it to RX; writing
// afterwards is a fatal error, matching spec.md's one-way W->X state.
package asm

import (
	"fmt"
	"syscall"
	"unsafe"
)

// state mirrors the two allowed protection states of the region.
type state int

const (
	writable state = iota
	executable
)

// Buffer is a contiguous, fixed-capacity region of mmap'd memory. It
// starts RW-mapped, anonymous and private; MakeExecutable flips it to
// RX exactly once. There is no growth: overflow during Write is fatal.
type Buffer struct {
	mem   []byte
	pos   int
	state state
}

// NewBuffer reserves capacity bytes of page-aligned RW memory. Fails
// fatally (panics) if the OS refuses the mapping, per spec.md's
// "resource failure is a fatal assertion". The region is mapped in the
// low 2 GiB of the address space (MAP_32BIT), so heap addresses fit the
// 32-bit ALU immediates the emitter uses on pair pointers and on RSI.
func NewBuffer(capacity int) *Buffer {
	page := syscall.Getpagesize()
	n := (capacity + page - 1) &^ (page - 1)
	mem, err := syscall.Mmap(-1, 0, n, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_PRIVATE|syscall.MAP_ANON|syscall.MAP_32BIT)
	if err != nil {
		panic(fmt.Sprintf("asm: mmap failed: %v", err))
	}
	return &Buffer{mem: mem}
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return b.pos }

// Cap returns the total mmap'd capacity.
func (b *Buffer) Cap() int { return len(b.mem) }

// WriteByte appends a single byte. Panics (fatal, per spec) if the
// buffer is already executable or would overflow its capacity.
func (b *Buffer) WriteByte(v byte) {
	if b.state != writable {
		panic("asm: write after MakeExecutable")
	}
	if b.pos >= len(b.mem) {
		panic("asm: buffer overflow")
	}
	b.mem[b.pos] = v
	b.pos++
}

// PatchInt32 overwrites 4 bytes at pos with a little-endian int32. Used
// by Writer to back-patch forward jump displacements once the target
// is known; the buffer need not still be writable-only in the logical
// sense (patches occur before MakeExecutable), but the state check
// still applies — patching after the RW->RX flip is also fatal.
func (b *Buffer) PatchInt32(pos int, v int32) {
	if b.state != writable {
		panic("asm: patch after MakeExecutable")
	}
	if pos < 0 || pos+4 > b.pos {
		panic("asm: patch out of bounds")
	}
	b.mem[pos] = byte(v)
	b.mem[pos+1] = byte(v >> 8)
	b.mem[pos+2] = byte(v >> 16)
	b.mem[pos+3] = byte(v >> 24)
}

// Bytes returns the emitted machine code written so far (valid in
// either state; read-only view, does not copy).
func (b *Buffer) Bytes() []byte {
	return b.mem[:b.pos]
}

// Addr returns the region's base address, valid in either state. Used
// to pass a heap region's base as the compiled entry's heap-base
// argument.
func (b *Buffer) Addr() uintptr {
	return uintptr(unsafe.Pointer(&b.mem[0]))
}

// MakeExecutable flips the region's protection from RW to RX. This is
// a one-way transition: subsequent Write/Patch calls panic.
func (b *Buffer) MakeExecutable() {
	if b.state != writable {
		panic("asm: MakeExecutable called twice")
	}
	if err := syscall.Mprotect(b.mem, syscall.PROT_READ|syscall.PROT_EXEC); err != nil {
		panic(fmt.Sprintf("asm: mprotect failed: %v", err))
	}
	b.state = executable
}

// Close unmaps the region, invalidating any outstanding AsFunc view.
// Callers must ensure no invocation of a function derived from AsFunc
// is in flight.
func (b *Buffer) Close() error {
	if b.mem == nil {
		return nil
	}
	err := syscall.Munmap(b.mem)
	b.mem = nil
	return err
}

// Entry is the ABI of compiled code: one 64-bit argument (the heap
// base), one 64-bit tagged return value. See spec.md §6.2.
type Entry func(heapBase uintptr) uint64

// AsFunc reinterprets the buffer's base address as an Entry function
// pointer. Only valid once MakeExecutable has been called.
func (b *Buffer) AsFunc() Entry {
	if b.state != executable {
		panic("asm: AsFunc called before MakeExecutable")
	}
	base := unsafe.Pointer(&b.mem[0])
	return func(heapBase uintptr) uint64 {
		return callEntry(base, heapBase)
	}
}
