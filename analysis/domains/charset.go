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
	"strings"

	"golang.org/x/tools/container/intsets"
)

// A CharSet is an immutable set of characters, backed by a sparse integer
// set keyed by code point. The zero value is the empty set. All operations
// return new sets and never mutate the receiver.
type CharSet struct {
	set *intsets.Sparse
}

var emptySparse intsets.Sparse

func (c CharSet) sparse() *intsets.Sparse {
	if c.set == nil {
		return &emptySparse
	}
	return c.set
}

// NewCharSet returns the set of characters occurring in s.
func NewCharSet(s string) CharSet {
	set := &intsets.Sparse{}
	for _, r := range s {
		set.Insert(int(r))
	}
	return CharSet{set}
}

// Union returns the union of c and other.
func (c CharSet) Union(other CharSet) CharSet {
	out := &intsets.Sparse{}
	out.Copy(c.sparse())
	out.UnionWith(other.sparse())
	return CharSet{out}
}

// Inter returns the intersection of c and other.
func (c CharSet) Inter(other CharSet) CharSet {
	out := &intsets.Sparse{}
	out.Copy(c.sparse())
	out.IntersectionWith(other.sparse())
	return CharSet{out}
}

// SubsetOf reports whether every character of c is in other.
func (c CharSet) SubsetOf(other CharSet) bool {
	return c.Inter(other).Len() == c.Len()
}

// Contains reports whether r is in the set.
func (c CharSet) Contains(r rune) bool {
	return c.sparse().Has(int(r))
}

// Len returns the number of characters in the set.
func (c CharSet) Len() int {
	return c.sparse().Len()
}

// IsEmpty reports whether the set is empty.
func (c CharSet) IsEmpty() bool {
	return c.sparse().IsEmpty()
}

// Equal reports whether c and other contain the same characters.
func (c CharSet) Equal(other CharSet) bool {
	return c.sparse().Equals(other.sparse())
}

// Runes returns the characters of the set in increasing code point order.
func (c CharSet) Runes() []rune {
	ints := c.sparse().AppendTo(nil)
	runes := make([]rune, len(ints))
	for i, x := range ints {
		runes[i] = rune(x)
	}
	return runes
}

func (c CharSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, r := range c.Runes() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('}')
	return b.String()
}
