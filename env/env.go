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

// Package env is the immutable, append-only binding chain the compiler
// uses for both locals (name -> stack-slot offset) and labels (name ->
// code offset). The two are structurally identical (name -> int32) but
// semantically distinct, so callers keep two separate chains rather
// than mixing entries of both kinds in one.
package env

// Env is a single binding node linked to its parent. A nil *Env is the
// empty environment. Nodes are never mutated after creation: extending
// an environment allocates a new head and links it to the current one,
// so a reference to an outer Env remains valid (and unaffected by
// shadowing) after a nested Extend.
type Env struct {
	Name    string
	Payload int32
	Next    *Env
}

// Extend returns a new environment with (name -> payload) bound in
// front of e, shadowing any earlier binding of the same name.
func Extend(e *Env, name string, payload int32) *Env {
	return &Env{Name: name, Payload: payload, Next: e}
}

// Lookup walks from the most recent binding to the oldest. ok is false
// when name is bound nowhere in the chain.
func Lookup(e *Env, name string) (payload int32, ok bool) {
	for n := e; n != nil; n = n.Next {
		if n.Name == name {
			return n.Payload, true
		}
	}
	return 0, false
}
