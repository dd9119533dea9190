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

	"github.com/google/go-cmp/cmp"
)

// brick is a test helper constructing [sequence]^{min,max}.
func brick(t *testing.T, min, max uint32, sequence ...string) Brick {
	t.Helper()
	b, err := NewBrick(sequence, min, max)
	if err != nil {
		t.Fatalf("NewBrick(%v, %d, %d): %v", sequence, min, max, err)
	}
	return b
}

func bd(t *testing.T, min, max uint32, sequence ...string) BrickDomain {
	t.Helper()
	return NewBrickDomain(brick(t, min, max, sequence...))
}

func TestNewBrick_InvalidBounds(t *testing.T) {
	if _, err := NewBrick([]string{"a"}, 3, 1); err == nil {
		t.Errorf("NewBrick with min > max should be rejected")
	}
}

func TestBrick_IsEmptyString(t *testing.T) {
	if brick(t, 1, 1, "a").IsEmptyString() {
		t.Errorf("[{a}]^{1,1} does not denote only the empty string")
	}
	if !emptyBrick().IsEmptyString() {
		t.Errorf("[{}]^{0,0} denotes only the empty string")
	}
}

func TestBrick_FuseBoundOne(t *testing.T) {
	got := brick(t, 1, 1, "a", "cd").fuseBoundOne(brick(t, 1, 1, "b", "ef"))
	want := brick(t, 1, 1, "ab", "aef", "cdb", "cdef")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fuseBoundOne() mismatch (-want +got):\n%s", diff)
	}
}

func TestBrick_Flatten(t *testing.T) {
	tests := []struct {
		name string
		in   Brick
		k    uint32
		want Brick
	}{
		{
			name: "two characters squared",
			in:   brick(t, 2, 2, "a", "b"),
			k:    2,
			want: brick(t, 1, 1, "aa", "ab", "ba", "bb"),
		},
		{
			name: "three characters squared",
			in:   brick(t, 2, 2, "a", "b", "c"),
			k:    2,
			want: brick(t, 1, 1, "aa", "ab", "ac", "ba", "bb", "bc", "ca", "cb", "cc"),
		},
		{
			name: "multi-character candidates count repetitions, not bytes",
			in:   brick(t, 2, 2, "mo", "de"),
			k:    2,
			want: brick(t, 1, 1, "momo", "mode", "demo", "dede"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.in.flatten(tt.k)); diff != "" {
				t.Errorf("flatten(%d) mismatch (-want +got):\n%s", tt.k, diff)
			}
		})
	}
}

func TestBrick_Split(t *testing.T) {
	tests := []struct {
		name     string
		in       Brick
		wantHead Brick
		wantTail Brick
	}{
		{
			name:     "single candidate",
			in:       brick(t, 2, 5, "a"),
			wantHead: brick(t, 1, 1, "aa"),
			wantTail: brick(t, 0, 3, "a"),
		},
		{
			name:     "two candidates",
			in:       brick(t, 2, 3, "a", "b"),
			wantHead: brick(t, 1, 1, "aa", "ab", "ba", "bb"),
			wantTail: brick(t, 0, 1, "a", "b"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			head, tail := tt.in.split()
			if diff := cmp.Diff(tt.wantHead, head); diff != "" {
				t.Errorf("split() head mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantTail, tail); diff != "" {
				t.Errorf("split() tail mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBrick_FuseEqualSequence(t *testing.T) {
	got := brick(t, 2, 2, "a", "b").fuseEqualSequence(brick(t, 0, 1, "a", "b"))
	if diff := cmp.Diff(brick(t, 2, 3, "a", "b"), got); diff != "" {
		t.Errorf("fuseEqualSequence() mismatch (-want +got):\n%s", diff)
	}
}

func TestBrickDomain_Merge(t *testing.T) {
	got := bd(t, 2, 2, "a", "b").Merge(bd(t, 0, 1, "a", "b"))
	if diff := cmp.Diff(bd(t, 0, 2, "a", "b"), got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}

	if got := bd(t, 1, 1, "a").Merge(BrickDomainTop()); !got.IsTop() {
		t.Errorf("merge with Top should be Top, got %v", got)
	}
}

func TestBricks_Merge(t *testing.T) {
	first := NewBricks([]BrickDomain{bd(t, 2, 2, "a", "b")})
	second := NewBricks([]BrickDomain{bd(t, 2, 2, "a", "b"), bd(t, 1, 1, "a", "cd")})

	// The shorter list is padded with an empty-string brick, so the second
	// position merges [{a,cd}]^{1,1} with [{}]^{0,0}.
	want := NewBricks([]BrickDomain{bd(t, 2, 2, "a", "b"), bd(t, 0, 1, "a", "cd")})
	got := first.Merge(second)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
	if swapped := second.Merge(first); !swapped.Equal(got) {
		t.Errorf("Merge() is not commutative: %v vs %v", got, swapped)
	}
}

func TestBricks_MergeTop(t *testing.T) {
	v := BricksFromLiteral("abc")
	if got := v.Merge(BricksTop()); !got.IsTop() {
		t.Errorf("merge with Top should be Top, got %v", got)
	}
	if got := BricksTop().Merge(v); !got.IsTop() {
		t.Errorf("Top should absorb, got %v", got)
	}
}

func TestBricks_MergeIdempotent(t *testing.T) {
	v := NewBricks([]BrickDomain{bd(t, 1, 1, "a"), bd(t, 0, 2, "a", "b")})
	if got := v.Merge(v); !got.Equal(v) {
		t.Errorf("Merge(x, x) = %v, want %v", got, v)
	}
}

func TestBricks_PadList(t *testing.T) {
	short := []BrickDomain{
		bd(t, 2, 2, "a", "b"),
		bd(t, 1, 1, "a", "cd"),
		bd(t, 1, 1, "b", "ef"),
	}
	long := []BrickDomain{
		bd(t, 2, 3, "a", "b"),
		bd(t, 2, 2, "a", "b"),
		bd(t, 1, 1, "a", "cd"),
		bd(t, 0, 1, "a", "b"),
		bd(t, 1, 1, "a"),
	}
	empty := NewBrickDomain(emptyBrick())
	want := []BrickDomain{
		empty,
		bd(t, 2, 2, "a", "b"),
		bd(t, 1, 1, "a", "cd"),
		empty,
		bd(t, 1, 1, "b", "ef"),
	}
	if diff := cmp.Diff(want, padList(short, long)); diff != "" {
		t.Errorf("padList() mismatch (-want +got):\n%s", diff)
	}
}

func TestBricks_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Bricks
		want Bricks
	}{
		{
			name: "drops the empty-string brick",
			in:   NewBricks([]BrickDomain{NewBrickDomain(emptyBrick()), bd(t, 1, 1, "a")}),
			want: NewBricks([]BrickDomain{bd(t, 1, 1, "a")}),
		},
		{
			name: "fuses adjacent equal sequences",
			in:   NewBricks([]BrickDomain{bd(t, 1, 1, "a", "b"), bd(t, 0, 1, "a", "b")}),
			want: NewBricks([]BrickDomain{bd(t, 1, 2, "a", "b")}),
		},
		{
			name: "flattens, splits and fuses",
			in: NewBricks([]BrickDomain{
				bd(t, 1, 1, "a"),
				bd(t, 2, 3, "a", "b"),
				bd(t, 0, 1, "a", "b"),
			}),
			want: NewBricks([]BrickDomain{
				bd(t, 1, 1, "aaa", "aab", "aba", "abb"),
				bd(t, 0, 2, "a", "b"),
			}),
		},
		{
			name: "top bricks stay in place",
			in:   NewBricks([]BrickDomain{BrickDomainTop(), bd(t, 2, 2, "a")}),
			want: NewBricks([]BrickDomain{BrickDomainTop(), bd(t, 1, 1, "aa")}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
			if again := got.Normalize(); !again.Equal(got) {
				t.Errorf("Normalize() is not idempotent: %v vs %v", got, again)
			}
		})
	}
}

func TestBricks_NormalizePreservesDenotation(t *testing.T) {
	inputs := []Bricks{
		NewBricks([]BrickDomain{bd(t, 1, 1, "a"), bd(t, 2, 3, "a", "b"), bd(t, 0, 1, "a", "b")}),
		NewBricks([]BrickDomain{bd(t, 1, 1, "a", "cd"), bd(t, 1, 1, "b", "ef")}),
		NewBricks([]BrickDomain{bd(t, 2, 5, "a")}),
		NewBricks([]BrickDomain{NewBrickDomain(emptyBrick()), bd(t, 0, 2, "xy")}),
	}
	for _, in := range inputs {
		want := denotation(t, in)
		got := denotation(t, in.Normalize())
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Normalize() changed the denoted string set of %v (-want +got):\n%s", in, diff)
		}
	}
}

// denotation enumerates the concrete string set a bricks value denotes.
// Only usable on small test values: the set grows combinatorially.
func denotation(t *testing.T, d Bricks) map[string]bool {
	t.Helper()
	bricks, err := d.Bricks()
	if err != nil {
		t.Fatalf("cannot enumerate Top: %v", err)
	}
	results := map[string]bool{"": true}
	for _, domain := range bricks {
		b, err := domain.Brick()
		if err != nil {
			t.Fatalf("cannot enumerate Top brick: %v", err)
		}
		var perBrick []string
		for k := b.Min(); k <= b.Max(); k++ {
			for s := range b.flatten(k).sequence {
				perBrick = append(perBrick, s)
			}
		}
		next := map[string]bool{}
		for prefix := range results {
			for _, s := range perBrick {
				next[prefix+s] = true
			}
		}
		results = next
	}
	return results
}

func TestBricks_FromLiteral(t *testing.T) {
	got := Bricks{}.FromLiteral("sh")
	want := NewBricks([]BrickDomain{bd(t, 1, 1, "sh")})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromLiteral() mismatch (-want +got):\n%s", diff)
	}
}

func TestBricks_ExtractTop(t *testing.T) {
	if _, err := BricksTop().Bricks(); err != ErrTopValue {
		t.Errorf("Bricks() on Top should return ErrTopValue, got %v", err)
	}
	if _, err := BrickDomainTop().Brick(); err != ErrTopValue {
		t.Errorf("Brick() on Top should return ErrTopValue, got %v", err)
	}
}
