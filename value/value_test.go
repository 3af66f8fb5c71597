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

package value

import "testing"

func TestEncodeFixnumRoundTrip(t *testing.T) {
	for _, n := range []int32{0, 1, -1, 2, 1000, -1000, MinFixnum, MaxFixnum} {
		raw := EncodeFixnum(n)
		d := Decode(raw)
		if d.Kind != KindFixnum {
			t.Fatalf("EncodeFixnum(%d): decoded kind = %v, want KindFixnum", n, d.Kind)
		}
		if d.Fixnum != n {
			t.Fatalf("EncodeFixnum(%d): decoded = %d", n, d.Fixnum)
		}
	}
}

func TestEncodeFixnumOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range fixnum")
		}
	}()
	EncodeFixnum(MinFixnum - 1)
}

func TestEncodeChar(t *testing.T) {
	raw := EncodeChar('A')
	if raw != 0x410F {
		t.Fatalf("EncodeChar('A') = %#x, want 0x410F", raw)
	}
	d := Decode(raw)
	if d.Kind != KindChar || d.Char != 'A' {
		t.Fatalf("Decode(%#x) = %+v", raw, d)
	}
}

func TestEncodeBool(t *testing.T) {
	if EncodeBool(false) != BoolFalse {
		t.Fatalf("EncodeBool(false) = %#x, want %#x", EncodeBool(false), BoolFalse)
	}
	if EncodeBool(true) != BoolTrue {
		t.Fatalf("EncodeBool(true) = %#x, want %#x", EncodeBool(true), BoolTrue)
	}
	if d := Decode(BoolFalse); d.Kind != KindBool || d.Bool != false {
		t.Fatalf("Decode(BoolFalse) = %+v", d)
	}
	if d := Decode(BoolTrue); d.Kind != KindBool || d.Bool != true {
		t.Fatalf("Decode(BoolTrue) = %+v", d)
	}
}

func TestEncodeNil(t *testing.T) {
	if d := Decode(EncodeNil()); d.Kind != KindNil {
		t.Fatalf("Decode(EncodeNil()) = %+v, want KindNil", d)
	}
}

func TestDecodePair(t *testing.T) {
	raw := uint64(0x1000) | PairTag
	d := Decode(raw)
	if d.Kind != KindPair {
		t.Fatalf("Decode(%#x) kind = %v, want KindPair", raw, d.Kind)
	}
	if d.PairPtr != 0x1000 {
		t.Fatalf("Decode(%#x).PairPtr = %#x, want 0x1000", raw, d.PairPtr)
	}
}

func TestDecodePrefersNarrowerTags(t *testing.T) {
	// BoolFalse (0x1F) ends in 11, not the fixnum tag bits (00); Decode
	// must classify it as a bool through the narrower bool check.
	if d := Decode(BoolFalse); d.Kind != KindBool {
		t.Fatalf("Decode(BoolFalse) = %+v, want KindBool", d)
	}
}
