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
	"strings"

	"github.com/bincheck/bincheck/internal/funcutil"
	"golang.org/x/exp/maps"
)

// A Brick denotes the set of strings formed by concatenating between min
// and max elements, drawn with repetition in any order, from a finite set
// of candidate strings. For example [{"mo","de"}]^{1,2} denotes
// {mo, de, momo, mode, demo, dede}. The invariant min <= max holds for
// every Brick; NewBrick rejects violations.
type Brick struct {
	sequence map[string]bool
	min      uint32
	max      uint32
}

// NewBrick returns the brick [sequence]^{min,max}. It returns an error when
// min > max; such a brick denotes no string at all and constructing it is a
// defect in the caller.
func NewBrick(sequence []string, min uint32, max uint32) (Brick, error) {
	if min > max {
		return Brick{}, fmt.Errorf("invalid brick bounds [%d, %d]", min, max)
	}
	set := make(map[string]bool, len(sequence))
	for _, s := range sequence {
		set[s] = true
	}
	return Brick{sequence: set, min: min, max: max}, nil
}

// emptyBrick returns [{}]^{0,0}, the brick denoting only the empty string.
func emptyBrick() Brick {
	return Brick{sequence: map[string]bool{}}
}

// IsEmptyString reports whether the brick denotes exactly the empty string,
// i.e. its candidate set is empty and min = max = 0.
func (b Brick) IsEmptyString() bool {
	return len(b.sequence) == 0 && b.min == 0 && b.max == 0
}

// Sequence returns the candidate strings in increasing order.
func (b Brick) Sequence() []string {
	return funcutil.SortedKeys(b.sequence)
}

// Min returns the lower repetition bound.
func (b Brick) Min() uint32 {
	return b.min
}

// Max returns the upper repetition bound.
func (b Brick) Max() uint32 {
	return b.max
}

// Equal reports whether two bricks have the same candidate set and bounds.
func (b Brick) Equal(other Brick) bool {
	return b.min == other.min && b.max == other.max &&
		maps.Equal(b.sequence, other.sequence)
}

func (b Brick) String() string {
	return fmt.Sprintf("[{%s}]^{%d,%d}", strings.Join(b.Sequence(), ","), b.min, b.max)
}

// fuseBoundOne fuses two bricks that are both bound by min = max = 1 into a
// single such brick whose candidate set is the pairwise concatenation of
// the two sets, e.g. [{a,cd}]^{1,1} and [{b,ef}]^{1,1} fuse to
// [{ab,aef,cdb,cdef}]^{1,1}.
func (b Brick) fuseBoundOne(other Brick) Brick {
	product := make(map[string]bool, len(b.sequence)*len(other.sequence))
	for s1 := range b.sequence {
		for s2 := range other.sequence {
			product[s1+s2] = true
		}
	}
	return Brick{sequence: product, min: 1, max: 1}
}

// flatten turns a brick with a constant repetition count k into the
// equivalent brick bound by min = max = 1 whose candidate set holds every
// concatenation of exactly k candidates, e.g. [{a,b}]^{2,2} flattens to
// [{aa,ab,ba,bb}]^{1,1}.
//
// The generation is iterative: one pass per repetition, extending every
// partial string by every candidate. Recursion over k would overflow the
// stack for large constant bounds.
func (b Brick) flatten(k uint32) Brick {
	candidates := b.Sequence()
	generated := []string{""}
	for i := uint32(0); i < k; i++ {
		next := make([]string, 0, len(generated)*len(candidates))
		for _, prefix := range generated {
			for _, s := range candidates {
				next = append(next, prefix+s)
			}
		}
		generated = next
	}
	set := make(map[string]bool, len(generated))
	for _, s := range generated {
		set[s] = true
	}
	return Brick{sequence: set, min: 1, max: 1}
}

// fuseEqualSequence fuses two bricks with identical candidate sets into one
// with the bounds added, e.g. [S]^{m1,M1} and [S]^{m2,M2} fuse to
// [S]^{m1+m2,M1+M2}.
func (b Brick) fuseEqualSequence(other Brick) Brick {
	return Brick{sequence: b.sequence, min: b.min + other.min, max: b.max + other.max}
}

// split breaks a brick with min >= 1 and max > min into the two simpler
// bricks [flatten(S,min)]^{1,1} and [S]^{0,max-min}, e.g. [{a}]^{2,5}
// splits into [{aa}]^{1,1} and [{a}]^{0,3}.
func (b Brick) split() (Brick, Brick) {
	head := b.flatten(b.min)
	tail := Brick{sequence: b.sequence, min: 0, max: b.max - b.min}
	return head, tail
}

// mergeWith returns the per-brick least upper bound: the union of the
// candidate sets, the minimum of the lower bounds and the maximum of the
// upper bounds.
func (b Brick) mergeWith(other Brick) Brick {
	return Brick{
		sequence: funcutil.Union(b.sequence, other.sequence),
		min:      funcutil.Min(b.min, other.min),
		max:      funcutil.Max(b.max, other.max),
	}
}

// BrickDomain is the abstract domain of a single brick: either Top,
// denoting every string over the full alphabet, or a Brick value.
type BrickDomain struct {
	top   bool
	brick Brick
}

// NewBrickDomain wraps a brick as a domain value.
func NewBrickDomain(b Brick) BrickDomain {
	return BrickDomain{brick: b}
}

// BrickDomainTop returns the Top value of the single-brick domain.
func BrickDomainTop() BrickDomain {
	return BrickDomain{top: true}
}

// Merge returns the least upper bound; Top absorbs, and two bricks merge
// by candidate-set union and bound hull.
func (d BrickDomain) Merge(other BrickDomain) BrickDomain {
	if d.top || other.top {
		return BrickDomainTop()
	}
	return BrickDomain{brick: d.brick.mergeWith(other.brick)}
}

// IsTop reports whether the value is Top.
func (d BrickDomain) IsTop() bool {
	return d.top
}

// Top returns the Top value of the domain.
func (d BrickDomain) Top() BrickDomain {
	return BrickDomainTop()
}

// Brick extracts the brick payload. It returns ErrTopValue when the value
// is Top.
func (d BrickDomain) Brick() (Brick, error) {
	if d.top {
		return Brick{}, ErrTopValue
	}
	return d.brick, nil
}

// Equal reports whether two values are identical elements of the lattice.
func (d BrickDomain) Equal(other BrickDomain) bool {
	if d.top || other.top {
		return d.top == other.top
	}
	return d.brick.Equal(other.brick)
}

// MarshalJSON encodes the value in the tagged form "Top" or
// {"Value": {"sequence": [...], "min": m, "max": M}}.
func (d BrickDomain) MarshalJSON() ([]byte, error) {
	if d.top {
		return json.Marshal("Top")
	}
	payload := struct {
		Sequence []string `json:"sequence"`
		Min      uint32   `json:"min"`
		Max      uint32   `json:"max"`
	}{
		Sequence: d.brick.Sequence(),
		Min:      d.brick.min,
		Max:      d.brick.max,
	}
	return json.Marshal(map[string]any{"Value": payload})
}

func (d BrickDomain) String() string {
	if d.top {
		return "Top"
	}
	return d.brick.String()
}

// Bricks is the abstract domain of whole strings: either Top or an ordered
// list of single-brick domains denoting the concatenation of the list's
// elements left to right. Two different lists may denote the same string
// set; Normalize computes the canonical form.
type Bricks struct {
	top    bool
	bricks []BrickDomain
}

// NewBricks wraps an ordered brick list as a domain value.
func NewBricks(bricks []BrickDomain) Bricks {
	return Bricks{bricks: bricks}
}

// BricksTop returns the Top value of the bricks domain.
func BricksTop() Bricks {
	return Bricks{top: true}
}

// BricksFromLiteral returns the exact approximation of the single concrete
// string s: the one-element list [{s}]^{1,1}.
func BricksFromLiteral(s string) Bricks {
	brick := Brick{sequence: map[string]bool{s: true}, min: 1, max: 1}
	return Bricks{bricks: []BrickDomain{{brick: brick}}}
}

// Merge returns the least upper bound. Top absorbs. Otherwise the shorter
// list is padded with empty-string bricks so that equal bricks line up at
// the same index, and the lists merge element-wise.
//
// Merge deliberately does not normalize its result: normalization can blow
// up combinatorially, so the caller decides when to pay for it (after a
// merge or widening step of the fixpoint).
func (d Bricks) Merge(other Bricks) Bricks {
	if d.top || other.top {
		return BricksTop()
	}
	left, right := d.bricks, other.bricks
	if len(left) < len(right) {
		left = padList(left, right)
	} else if len(right) < len(left) {
		right = padList(right, left)
	}
	merged := make([]BrickDomain, len(left))
	for i := range left {
		merged[i] = left[i].Merge(right[i])
	}
	return Bricks{bricks: merged}
}

// padList pads the shorter brick list to the length of the longer one by
// inserting empty-string bricks. To achieve positional correspondence, the
// scan walks the long list and consumes the next short-list element only
// when it equals the long-list element at that position (or when all
// padding has been spent); otherwise it inserts an empty-string brick and
// leaves the short-list cursor in place.
func padList(short []BrickDomain, long []BrickDomain) []BrickDomain {
	padded := make([]BrickDomain, 0, len(long))
	lenDiff := len(long) - len(short)
	added := 0
	next := 0
	for i := range long {
		switch {
		case added >= lenDiff:
			padded = append(padded, short[next])
			next++
		case next >= len(short) || !short[next].Equal(long[i]):
			padded = append(padded, NewBrickDomain(emptyBrick()))
			added++
		default:
			padded = append(padded, short[next])
			next++
		}
	}
	return padded
}

// IsTop reports whether the value is Top.
func (d Bricks) IsTop() bool {
	return d.top
}

// Top returns the Top value of the domain.
func (d Bricks) Top() Bricks {
	return BricksTop()
}

// FromLiteral implements StringDomain.
func (d Bricks) FromLiteral(s string) Bricks {
	return BricksFromLiteral(s)
}

// Bricks extracts the ordered brick list. It returns ErrTopValue when the
// value is Top.
func (d Bricks) Bricks() ([]BrickDomain, error) {
	if d.top {
		return nil, ErrTopValue
	}
	return d.bricks, nil
}

// Equal reports whether two values are identical elements of the lattice.
func (d Bricks) Equal(other Bricks) bool {
	if d.top || other.top {
		return d.top == other.top
	}
	if len(d.bricks) != len(other.bricks) {
		return false
	}
	for i := range d.bricks {
		if !d.bricks[i].Equal(other.bricks[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the value in the tagged form "Top" or
// {"Value": [brick, ...]}.
func (d Bricks) MarshalJSON() ([]byte, error) {
	if d.top {
		return json.Marshal("Top")
	}
	return json.Marshal(map[string]any{"Value": d.bricks})
}

func (d Bricks) String() string {
	if d.top {
		return "Top"
	}
	parts := funcutil.Map(d.bricks, BrickDomain.String)
	return strings.Join(parts, " . ")
}
