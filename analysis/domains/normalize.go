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

import "golang.org/x/exp/maps"

// A string set can be represented by many different brick lists, e.g.
// [{abc}]^{1,1} and [{a}]^{1,1}[{b}]^{1,1}[{c}]^{1,1} denote the same set.
// Normalize rewrites a list into the canonical form in which every brick
// is either [S]^{1,1} or [S]^{0,max>0}, making equality of abstract values
// meaningful and bounding the representation's size.
//
// The rewrite rules, applied to the first position where one matches, with
// the scan restarting after every application, until a full scan matches
// nothing:
//
//  1. remove bricks of the form [{}]^{0,0}, denoting only the empty string
//  2. fuse two adjacent bricks both bound by min = max = 1 into one brick
//     holding the pairwise concatenation of their candidate sets
//  3. flatten a brick with constant repetition min = max = k > 1 into
//     [flatten(S,k)]^{1,1}, holding every concatenation of k candidates
//  4. fuse two adjacent bricks with identical candidate sets into
//     [S]^{min1+min2,max1+max2}
//  5. split a brick with min > 1 and max > min into [flatten(S,min)]^{1,1}
//     followed by [S]^{0,max-min}
//
// Rule 5 must not fire at min = 1: flatten(S,1) is S itself, so the split
// would produce [S]^{1,1} followed by [S]^{0,max-1}, which rule 4 fuses
// straight back, and normalization would never halt. [S]^{1,max} is
// therefore left as is.
//
// Every rule strictly shrinks either the list or a repetition bound: rules
// 1, 2 and 4 shorten the list, rule 3 reduces a bound to 1, and rule 5
// replaces a brick by one with a strictly smaller lower bound and one with
// bound one. Candidate sets grow but stay finite, so the procedure
// terminates on every finite input.
//
// Normalization is expensive (rules 2, 3 and 5 are combinatorial) and is
// therefore never invoked from Merge; callers trigger it explicitly after
// a merge or widening step.

// Normalize returns the canonical form of the brick list. Top normalizes
// to itself. Top bricks inside the list are opaque to every rule and stay
// in place.
func (d Bricks) Normalize() Bricks {
	if d.top {
		return d
	}
	bricks := append([]BrickDomain(nil), d.bricks...)
	for {
		rewritten, changed := applyFirstRule(bricks)
		if !changed {
			return Bricks{bricks: rewritten}
		}
		bricks = rewritten
	}
}

// applyFirstRule scans the list in order and applies the first matching
// rewrite rule, returning the rewritten list and whether a rule matched.
// The returned slice is a fresh copy when a rule matched.
func applyFirstRule(bricks []BrickDomain) ([]BrickDomain, bool) {
	for i, domain := range bricks {
		if domain.top {
			continue
		}
		brick := domain.brick

		// Rule 1: drop the empty-string brick.
		if brick.IsEmptyString() {
			return removeAt(bricks, i), true
		}

		// Rule 3: flatten a constant repetition bound greater than one.
		if brick.min == brick.max && brick.min > 1 {
			return replaceAt(bricks, i, NewBrickDomain(brick.flatten(brick.min))), true
		}

		// Rule 5: split an unbounded repetition with a minimum above one.
		if brick.min > 1 && brick.max > brick.min {
			head, tail := brick.split()
			return splitAt(bricks, i, NewBrickDomain(head), NewBrickDomain(tail)), true
		}

		if i+1 >= len(bricks) || bricks[i+1].top {
			continue
		}
		next := bricks[i+1].brick

		// Rule 2: fuse adjacent bricks that are both bound by one.
		if brick.min == 1 && brick.max == 1 && next.min == 1 && next.max == 1 {
			return fuseAt(bricks, i, NewBrickDomain(brick.fuseBoundOne(next))), true
		}

		// Rule 4: fuse adjacent bricks with identical candidate sets.
		if maps.Equal(brick.sequence, next.sequence) {
			return fuseAt(bricks, i, NewBrickDomain(brick.fuseEqualSequence(next))), true
		}
	}
	return bricks, false
}

func removeAt(bricks []BrickDomain, i int) []BrickDomain {
	out := make([]BrickDomain, 0, len(bricks)-1)
	out = append(out, bricks[:i]...)
	return append(out, bricks[i+1:]...)
}

func replaceAt(bricks []BrickDomain, i int, b BrickDomain) []BrickDomain {
	out := append([]BrickDomain(nil), bricks...)
	out[i] = b
	return out
}

// fuseAt replaces the bricks at i and i+1 by the single brick b.
func fuseAt(bricks []BrickDomain, i int, b BrickDomain) []BrickDomain {
	out := make([]BrickDomain, 0, len(bricks)-1)
	out = append(out, bricks[:i]...)
	out = append(out, b)
	return append(out, bricks[i+2:]...)
}

// splitAt replaces the brick at i by the two bricks head and tail.
func splitAt(bricks []BrickDomain, i int, head BrickDomain, tail BrickDomain) []BrickDomain {
	out := make([]BrickDomain, 0, len(bricks)+1)
	out = append(out, bricks[:i]...)
	out = append(out, head, tail)
	return append(out, bricks[i+1:]...)
}
