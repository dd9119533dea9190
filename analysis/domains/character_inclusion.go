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

import "encoding/json"

// CharacterInclusion approximates a string by the set of characters it
// certainly contains on every execution path and the set of characters it
// possibly contains on some path. The invariant certain ⊆ possible holds
// for every non-Top value. Top stands for (∅, full alphabet); since the
// alphabet is unbounded, Top carries no data.
type CharacterInclusion struct {
	top      bool
	certain  CharSet
	possible CharSet
}

// CharacterInclusionTop returns the Top value of the domain.
func CharacterInclusionTop() CharacterInclusion {
	return CharacterInclusion{top: true}
}

// NewCharacterInclusion returns the exact approximation of the single
// concrete string s: every character of s is both certain and possible.
func NewCharacterInclusion(s string) CharacterInclusion {
	set := NewCharSet(s)
	return CharacterInclusion{certain: set, possible: set}
}

// CharacterInclusionFromSets returns the value (certain, possible). The
// invariant certain ⊆ possible is restored by widening possible when
// needed.
func CharacterInclusionFromSets(certain CharSet, possible CharSet) CharacterInclusion {
	if !certain.SubsetOf(possible) {
		possible = possible.Union(certain)
	}
	return CharacterInclusion{certain: certain, possible: possible}
}

// Merge returns the least upper bound. A character is certainly contained
// only if it is certain on both paths (intersection), and possibly
// contained if it is possible on either path (union). Top absorbs.
func (c CharacterInclusion) Merge(other CharacterInclusion) CharacterInclusion {
	if c.top || other.top {
		return CharacterInclusionTop()
	}
	return CharacterInclusion{
		certain:  c.certain.Inter(other.certain),
		possible: c.possible.Union(other.possible),
	}
}

// IsTop reports whether the value is Top.
func (c CharacterInclusion) IsTop() bool {
	return c.top
}

// Top returns the Top value. The domain needs no width metadata, so Top is
// unconditional.
func (c CharacterInclusion) Top() CharacterInclusion {
	return CharacterInclusionTop()
}

// FromLiteral implements StringDomain.
func (c CharacterInclusion) FromLiteral(s string) CharacterInclusion {
	return NewCharacterInclusion(s)
}

// Sets extracts the (certain, possible) payload. It returns ErrTopValue
// when the value is Top.
func (c CharacterInclusion) Sets() (CharSet, CharSet, error) {
	if c.top {
		return CharSet{}, CharSet{}, ErrTopValue
	}
	return c.certain, c.possible, nil
}

// Equal reports whether two values are identical elements of the lattice.
func (c CharacterInclusion) Equal(other CharacterInclusion) bool {
	if c.top || other.top {
		return c.top == other.top
	}
	return c.certain.Equal(other.certain) && c.possible.Equal(other.possible)
}

// MarshalJSON encodes the value in the tagged form "Top" or
// {"Value": {"certain": [...], "possible": [...]}}.
func (c CharacterInclusion) MarshalJSON() ([]byte, error) {
	if c.top {
		return json.Marshal("Top")
	}
	payload := struct {
		Certain  []string `json:"certain"`
		Possible []string `json:"possible"`
	}{
		Certain:  charStrings(c.certain),
		Possible: charStrings(c.possible),
	}
	return json.Marshal(map[string]any{"Value": payload})
}

func charStrings(set CharSet) []string {
	out := make([]string, 0, set.Len())
	for _, r := range set.Runes() {
		out = append(out, string(r))
	}
	return out
}

func (c CharacterInclusion) String() string {
	if c.top {
		return "Top"
	}
	return "(" + c.certain.String() + ", " + c.possible.String() + ")"
}
