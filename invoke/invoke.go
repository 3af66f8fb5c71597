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

// Package invoke ties the pipeline together: read a form, compile it
// into a fresh code buffer, flip that buffer to executable, and call
// it against a fresh heap region. Each Unit owns its own code and heap
// regions; nothing is shared across compiles.
package invoke

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/launix-de/tinyjit/asm"
	"github.com/launix-de/tinyjit/ast"
	"github.com/launix-de/tinyjit/compiler"
	"github.com/launix-de/tinyjit/reader"
	"github.com/launix-de/tinyjit/value"
)

// DefaultCodeCapacity and DefaultHeapCapacity size a Unit's regions
// when a caller doesn't need to override them.
const (
	DefaultCodeCapacity = 4096
	DefaultHeapCapacity = 64 * 1024
)

// Unit is one compiled program: its machine code buffer, a heap region
// for cons allocations, and a uuid used to tell repeated compiles of
// the same REPL session apart in diagnostic output.
type Unit struct {
	ID   uuid.UUID
	Code *asm.Buffer
	Heap *asm.Buffer
}

// Compile reads the first form from source and compiles it into a
// fresh Unit. The code buffer is left writable; call RunOnce to execute.
func Compile(source string, codeCapacity, heapCapacity int) (*Unit, error) {
	node, ok := reader.New(source).Read()
	if !ok {
		return nil, fmt.Errorf("invoke: no form")
	}
	return CompileNode(node, codeCapacity, heapCapacity)
}

// CompileNode compiles an already-parsed form into a fresh Unit.
func CompileNode(node *ast.Node, codeCapacity, heapCapacity int) (*Unit, error) {
	code := asm.NewBuffer(codeCapacity)
	w := asm.NewWriter(code)
	if err := compiler.Compile(w, node); err != nil {
		code.Close()
		return nil, err
	}
	return &Unit{
		ID:   uuid.New(),
		Code: code,
		Heap: asm.NewBuffer(heapCapacity),
	}, nil
}

// RunOnce makes the code buffer executable and invokes it. A Unit is
// meant for a single invocation: cons allocations advance the heap
// pointer monotonically, so repeated calls against the same heap would
// not restart from a clean region.
func (u *Unit) RunOnce() uint64 {
	u.Code.MakeExecutable()
	return u.Code.AsFunc()(u.Heap.Addr())
}

// Close releases the unit's mmap'd regions.
func (u *Unit) Close() error {
	errCode := u.Code.Close()
	errHeap := u.Heap.Close()
	if errCode != nil {
		return errCode
	}
	return errHeap
}

// Decode classifies a raw tagged result, for callers that only hold
// the uint64 RunOnce returned.
func Decode(raw uint64) value.Decoded {
	return value.Decode(raw)
}
