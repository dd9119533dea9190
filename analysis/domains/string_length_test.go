// Copyright The bincheck Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package domains

import (
	"testing"

	"github.com/bincheck/bincheck/analysis/ir"
)

func lengthInterval(t *testing.T, lower, upper ir.ByteSize) StringLength {
	t.Helper()
	l, err := NewStringLength(lower, upper)
	if err != nil {
		t.Fatalf("NewStringLength(%d, %d): %v", lower, upper, err)
	}
	return l
}

func TestStringLength_InvalidInterval(t *testing.T) {
	if _, err := NewStringLength(5, 3); err == nil {
		t.Errorf("NewStringLength(5, 3) should be rejected")
	}
}

func TestStringLength_Merge(t *testing.T) {
	tests := []struct {
		name string
		a, b StringLength
		want StringLength
	}{
		{
			name: "equal intervals pass through",
			a:    StringLength{lower: 2, upper: 4},
			b:    StringLength{lower: 2, upper: 4},
			want: StringLength{lower: 2, upper: 4},
		},
		{
			name: "distinct intervals merge to their hull",
			a:    StringLength{lower: 2, upper: 4},
			b:    StringLength{lower: 1, upper: 8},
			want: StringLength{lower: 1, upper: 8},
		},
		{
			name: "overlapping intervals",
			a:    StringLength{lower: 0, upper: 3},
			b:    StringLength{lower: 2, upper: 5},
			want: StringLength{lower: 0, upper: 5},
		},
		{
			name: "top absorbs and keeps its width",
			a:    StringLengthTop(8),
			b:    StringLength{lower: 2, upper: 4},
			want: StringLengthTop(8),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Merge(tt.b); got != tt.want {
				t.Errorf("Merge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStringLength_MergeCommutesUpToWidth(t *testing.T) {
	a := lengthInterval(t, 1, 3)
	b := lengthInterval(t, 2, 9)
	if got, swapped := a.Merge(b), b.Merge(a); got != swapped {
		t.Errorf("Merge() is not commutative: %v vs %v", got, swapped)
	}
}

func TestStringLength_ByteSize(t *testing.T) {
	if got := StringLengthTop(8).ByteSize(); got != 8 {
		t.Errorf("Top ByteSize() = %d, want 8", got)
	}
	if got := lengthInterval(t, 2, 6).ByteSize(); got != 6 {
		t.Errorf("interval ByteSize() = %d, want the upper bound 6", got)
	}
}

func TestStringLength_RegisterOps(t *testing.T) {
	v := lengthInterval(t, 2, 6)
	tests := []struct {
		name      string
		got       StringLength
		wantWidth ir.ByteSize
	}{
		{"comparison yields a one-byte top", v.BinOp(ir.IntEqual, v), 1},
		{"piece concatenates widths", v.BinOp(ir.Piece, StringLengthTop(8)), 14},
		{"arithmetic keeps the operand width", v.BinOp(ir.IntAdd, v), 6},
		{"unary keeps the operand width", v.UnOp(ir.Int2Comp), 6},
		{"boolean negation is one byte", v.UnOp(ir.BoolNegate), 1},
		{"subpiece takes the extracted size", v.SubPiece(0, 4), 4},
		{"cast takes the target width", v.Cast(ir.IntZExt, 16), 16},
		{"new top takes the requested width", v.NewTop(32), 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.IsTop() {
				t.Fatalf("result %v should be Top", tt.got)
			}
			if tt.got.ByteSize() != tt.wantWidth {
				t.Errorf("result width = %d, want %d", tt.got.ByteSize(), tt.wantWidth)
			}
		})
	}
}

func TestStringLength_FromLiteral(t *testing.T) {
	got := StringLength{}.FromLiteral("/bin/sh")
	if want := (StringLength{lower: 7, upper: 7}); got != want {
		t.Errorf("FromLiteral() = %v, want %v", got, want)
	}
}

func TestStringLength_BoundsOnTop(t *testing.T) {
	if _, _, err := StringLengthTop(4).Bounds(); err != ErrTopValue {
		t.Errorf("Bounds() on Top should return ErrTopValue, got %v", err)
	}
}
