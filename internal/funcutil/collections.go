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

// Package funcutil provides generic helpers over maps and slices that are
// used throughout the abstract domains.
package funcutil

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MergeInto merges the two maps into the first map.
// if x is in b but not in a, then a[x] := b[x]
// if x is in both a and b, then a[x] := both(a[x], b[x])
// @mutates a
func MergeInto[T comparable, S any](a map[T]S, b map[T]S, both func(x S, y S) S) {
	for x, yb := range b {
		ya, ina := a[x]
		if ina {
			a[x] = both(ya, yb)
		} else {
			a[x] = yb
		}
	}
}

// Union returns the union of the map-represented sets a and b as a new map.
// Neither argument is mutated.
func Union[T comparable](a map[T]bool, b map[T]bool) map[T]bool {
	c := make(map[T]bool, len(a)+len(b))
	maps.Copy(c, a)
	MergeInto(c, b, func(x bool, y bool) bool { return x || y })
	return c
}

// Map returns a new slice b such that for any i <= len(a), b[i] = f(a[i])
func Map[T any, S any](a []T, f func(T) S) []S {
	var b []S
	for _, x := range a {
		b = append(b, f(x))
	}
	return b
}

// SortedKeys returns the keys of map m in increasing order.
func SortedKeys[T constraints.Ordered, S any](m map[T]S) []T {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a T, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a T, b T) T {
	if a > b {
		return a
	}
	return b
}
