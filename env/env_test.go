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

package env

import "testing"

func TestLookupEmpty(t *testing.T) {
	if _, ok := Lookup(nil, "x"); ok {
		t.Fatal("Lookup on nil env succeeded")
	}
}

func TestExtendAndLookup(t *testing.T) {
	e := Extend(nil, "x", -8)
	e = Extend(e, "y", -16)
	if v, ok := Lookup(e, "x"); !ok || v != -8 {
		t.Fatalf("Lookup(x) = %d, %v", v, ok)
	}
	if v, ok := Lookup(e, "y"); !ok || v != -16 {
		t.Fatalf("Lookup(y) = %d, %v", v, ok)
	}
}

func TestShadowing(t *testing.T) {
	e := Extend(nil, "x", -8)
	outer := e
	e = Extend(e, "x", -16)
	if v, _ := Lookup(e, "x"); v != -16 {
		t.Fatalf("Lookup(x) = %d, want the most recent binding -16", v)
	}
	if v, _ := Lookup(outer, "x"); v != -8 {
		t.Fatalf("the outer chain must be unaffected by the nested Extend, got %d", v)
	}
}

func TestLookupMissing(t *testing.T) {
	e := Extend(nil, "x", -8)
	if _, ok := Lookup(e, "z"); ok {
		t.Fatal("Lookup(z) succeeded, want not found")
	}
}
