//go:build amd64

/*
Copyright (C) 2024  Carl-Philip Hänsch

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

import "unsafe"

// callEntry reinterprets code as a Go func(uintptr) uint64 and calls
// it. A Go func value is itself a pointer to a funcval struct whose
// first word is the entry PC; building that struct by hand and casting
// its address to the target func type lets us call into raw machine
// code without cgo. The callee follows System-V amd64: heapBase
// arrives in RDI, the tagged result comes back in RAX. Go's register
// ABI passes integer arguments in RAX, RBX, RCX, RDI, ..., so heapBase
// is passed as the fourth argument to land in RDI.
func callEntry(code unsafe.Pointer, heapBase uintptr) uint64 {
	fn := unsafe.Pointer(&struct{ code unsafe.Pointer }{code})
	return (*(*func(a, b, c, d uintptr) uint64)(unsafe.Pointer(&fn)))(0, 0, 0, heapBase)
}
