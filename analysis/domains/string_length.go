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
	"encoding/json"
	"fmt"

	"github.com/bincheck/bincheck/analysis/ir"
	"github.com/bincheck/bincheck/internal/funcutil"
)

// StringLength approximates a string by a closed interval [lower, upper]
// bounding its byte length. Top carries the byte width of the storage the
// value lives in, so that register operations on an unknown length still
// produce results of the correct width.
type StringLength struct {
	top   bool
	width ir.ByteSize // only meaningful when top

	lower ir.ByteSize
	upper ir.ByteSize
}

// StringLengthTop returns a Top value for storage of the given byte width.
func StringLengthTop(width ir.ByteSize) StringLength {
	return StringLength{top: true, width: width}
}

// NewStringLength returns the interval [lower, upper]. It returns an error
// when lower > upper; such an interval denotes no string at all and
// constructing it is a defect in the caller.
func NewStringLength(lower ir.ByteSize, upper ir.ByteSize) (StringLength, error) {
	if lower > upper {
		return StringLength{}, fmt.Errorf("invalid string length interval [%d, %d]", lower, upper)
	}
	return StringLength{lower: lower, upper: upper}, nil
}

// Merge returns the least upper bound: equal values pass through, Top
// absorbs (keeping that value's width), and distinct intervals merge to
// their hull [min(lowers), max(uppers)]. When both sides are Top with
// different widths the receiver's width wins, so merge is commutative
// only up to the width metadata; widths disagree only on malformed
// input, where any over-approximation is acceptable.
func (l StringLength) Merge(other StringLength) StringLength {
	if l.top {
		return l.Top()
	}
	if other.top {
		return other.Top()
	}
	if l.lower == other.lower && l.upper == other.upper {
		return l
	}
	return StringLength{
		lower: funcutil.Min(l.lower, other.lower),
		upper: funcutil.Max(l.upper, other.upper),
	}
}

// IsTop reports whether the value is Top.
func (l StringLength) IsTop() bool {
	return l.top
}

// Top returns a Top value of the same byte width as the receiver.
func (l StringLength) Top() StringLength {
	return StringLengthTop(l.ByteSize())
}

// ByteSize returns the width carried by a Top value, and the upper bound
// for an interval: the maximum storage a concrete string could need.
func (l StringLength) ByteSize() ir.ByteSize {
	if l.top {
		return l.width
	}
	return l.upper
}

// Bounds extracts the [lower, upper] payload. It returns ErrTopValue when
// the value is Top.
func (l StringLength) Bounds() (ir.ByteSize, ir.ByteSize, error) {
	if l.top {
		return 0, 0, ErrTopValue
	}
	return l.lower, l.upper, nil
}

// NewTop implements RegisterDomain.
func (l StringLength) NewTop(width ir.ByteSize) StringLength {
	return StringLengthTop(width)
}

// BinOp implements RegisterDomain. No binary operator has a precise
// string-length meaning, so every operator over-approximates to Top of the
// correct result width: one byte for comparisons and boolean operators,
// the concatenated width for Piece, and the operand width otherwise.
func (l StringLength) BinOp(op ir.BinOpType, rhs StringLength) StringLength {
	switch {
	case op.IsComparison():
		return StringLengthTop(1)
	case op == ir.Piece:
		return StringLengthTop(l.ByteSize() + rhs.ByteSize())
	default:
		return StringLengthTop(l.ByteSize())
	}
}

// UnOp implements RegisterDomain. Unary operators preserve width and are
// over-approximated by Top.
func (l StringLength) UnOp(op ir.UnOpType) StringLength {
	if op == ir.BoolNegate {
		return StringLengthTop(1)
	}
	return StringLengthTop(l.ByteSize())
}

// SubPiece implements RegisterDomain. Extracting bytes of a length value
// has no precise meaning; the result is Top of the extracted size.
func (l StringLength) SubPiece(lowByte ir.ByteSize, size ir.ByteSize) StringLength {
	return StringLengthTop(size)
}

// Cast implements RegisterDomain. Casts are over-approximated by Top of
// the target width.
func (l StringLength) Cast(kind ir.CastOpType, width ir.ByteSize) StringLength {
	return StringLengthTop(width)
}

// FromLiteral implements StringDomain: a known constant has the exact
// length interval [len(s), len(s)].
func (l StringLength) FromLiteral(s string) StringLength {
	n := ir.ByteSize(len(s))
	return StringLength{lower: n, upper: n}
}

// Equal reports whether two values are identical elements of the lattice.
func (l StringLength) Equal(other StringLength) bool {
	return l == other
}

// MarshalJSON encodes the value in the tagged form {"Top": width} or
// {"Value": [lower, upper]}.
func (l StringLength) MarshalJSON() ([]byte, error) {
	if l.top {
		return json.Marshal(map[string]any{"Top": l.width})
	}
	return json.Marshal(map[string]any{"Value": [2]ir.ByteSize{l.lower, l.upper}})
}

func (l StringLength) String() string {
	if l.top {
		return fmt.Sprintf("Top:%d", l.width)
	}
	return fmt.Sprintf("[%d, %d]", l.lower, l.upper)
}
