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

// Package strings implements the abstract string analysis: a per-program-
// point state mapping registers and memory cells to abstract string values,
// and the transfer functions the fixpoint solver drives over it.
package strings

import (
	"encoding/json"
	"fmt"

	"github.com/benbjohnson/immutable"
	"github.com/bincheck/bincheck/analysis/domains"
	"github.com/bincheck/bincheck/analysis/ir"
)

// A MemCell addresses the memory location a base register points to, at a
// constant byte offset.
type MemCell struct {
	Base   ir.Variable
	Offset int64
}

func (c MemCell) String() string {
	if c.Offset < 0 {
		return fmt.Sprintf("%s-0x%x", c.Base, -c.Offset)
	}
	return fmt.Sprintf("%s+0x%x", c.Base, c.Offset)
}

type variableComparer struct{}

func (variableComparer) Compare(a, b ir.Variable) int {
	return ir.CompareVariables(a, b)
}

type memCellComparer struct{}

func (memCellComparer) Compare(a, b MemCell) int {
	if c := ir.CompareVariables(a.Base, b.Base); c != 0 {
		return c
	}
	switch {
	case a.Offset < b.Offset:
		return -1
	case a.Offset > b.Offset:
		return 1
	default:
		return 0
	}
}

// A State maps the registers and memory cells known to hold a string value
// at one program point to their abstract approximation. Locations absent
// from the maps are not known to hold any string value; absence is the
// "not tracked" reading, not an unconstrained string.
//
// States are persistent values: every operation returns a new state that
// shares structure with the receiver, which is never mutated.
type State[T domains.Domain[T]] struct {
	registers *immutable.SortedMap[ir.Variable, T]
	memory    *immutable.SortedMap[MemCell, T]
}

// NewState returns the state at the analysis entry, tracking no locations.
func NewState[T domains.Domain[T]]() State[T] {
	return State[T]{
		registers: immutable.NewSortedMap[ir.Variable, T](variableComparer{}),
		memory:    immutable.NewSortedMap[MemCell, T](memCellComparer{}),
	}
}

// Register returns the value tracked for a register.
func (s State[T]) Register(v ir.Variable) (T, bool) {
	return s.registers.Get(v)
}

// SetRegister returns a state tracking v with the given value.
func (s State[T]) SetRegister(v ir.Variable, value T) State[T] {
	return State[T]{registers: s.registers.Set(v, value), memory: s.memory}
}

// ForgetRegister returns a state no longer tracking v.
func (s State[T]) ForgetRegister(v ir.Variable) State[T] {
	return State[T]{registers: s.registers.Delete(v), memory: s.memory}
}

// ClobberRegister returns a state in which a tracked v is replaced by its
// own Top value; an untracked v stays untracked.
func (s State[T]) ClobberRegister(v ir.Variable) State[T] {
	value, ok := s.registers.Get(v)
	if !ok {
		return s
	}
	return s.SetRegister(v, value.Top())
}

// MemValue returns the value tracked for a memory cell.
func (s State[T]) MemValue(cell MemCell) (T, bool) {
	return s.memory.Get(cell)
}

// SetMemValue returns a state tracking the cell with the given value.
func (s State[T]) SetMemValue(cell MemCell, value T) State[T] {
	return State[T]{registers: s.registers, memory: s.memory.Set(cell, value)}
}

// ForgetMemValue returns a state no longer tracking the cell.
func (s State[T]) ForgetMemValue(cell MemCell) State[T] {
	return State[T]{registers: s.registers, memory: s.memory.Delete(cell)}
}

// WithoutMemory returns a state keeping only the registers.
func (s State[T]) WithoutMemory() State[T] {
	fresh := NewState[T]()
	return State[T]{registers: s.registers, memory: fresh.memory}
}

// ForgetMemCellsBasedOn returns a state no longer tracking any memory cell
// addressed through the given base register.
func (s State[T]) ForgetMemCellsBasedOn(base ir.Variable) State[T] {
	memory := s.memory
	for itr := s.memory.Iterator(); !itr.Done(); {
		cell, _, _ := itr.Next()
		if ir.CompareVariables(cell.Base, base) == 0 {
			memory = memory.Delete(cell)
		}
	}
	return State[T]{registers: s.registers, memory: memory}
}

// WithoutRegisters returns a state keeping only the memory cells.
func (s State[T]) WithoutRegisters() State[T] {
	fresh := NewState[T]()
	return State[T]{registers: fresh.registers, memory: s.memory}
}

// Len returns the number of tracked locations.
func (s State[T]) Len() int {
	return s.registers.Len() + s.memory.Len()
}

// Merge joins the states of two control-flow paths. A location appears in
// the result only if it is tracked on both paths, with the merged value:
// a location holding a string on only one path cannot be claimed to hold
// one at the join point. Dropping one-sided keys keeps states small and
// preserves the "absence means not tracked" reading.
func (s State[T]) Merge(other State[T]) State[T] {
	registers := NewState[T]().registers
	for itr := s.registers.Iterator(); !itr.Done(); {
		key, value, _ := itr.Next()
		if otherValue, ok := other.registers.Get(key); ok {
			registers = registers.Set(key, value.Merge(otherValue))
		}
	}
	memory := NewState[T]().memory
	for itr := s.memory.Iterator(); !itr.Done(); {
		key, value, _ := itr.Next()
		if otherValue, ok := other.memory.Get(key); ok {
			memory = memory.Set(key, value.Merge(otherValue))
		}
	}
	return State[T]{registers: registers, memory: memory}
}

// IsTop reports whether the state holds no entries at all. There is no
// dedicated Top marker: a fully unconstrained state is represented by
// tracking nothing, and under key-intersection Merge the empty state is
// absorbing, which is consistent with it being the least precise state.
func (s State[T]) IsTop() bool {
	return s.Len() == 0
}

// Top returns the empty state.
func (s State[T]) Top() State[T] {
	return NewState[T]()
}

// Equal reports whether two states track the same locations, comparing
// values with eq.
func (s State[T]) Equal(other State[T], eq func(T, T) bool) bool {
	if s.registers.Len() != other.registers.Len() || s.memory.Len() != other.memory.Len() {
		return false
	}
	for itr := s.registers.Iterator(); !itr.Done(); {
		key, value, _ := itr.Next()
		otherValue, ok := other.registers.Get(key)
		if !ok || !eq(value, otherValue) {
			return false
		}
	}
	for itr := s.memory.Iterator(); !itr.Done(); {
		key, value, _ := itr.Next()
		otherValue, ok := other.memory.Get(key)
		if !ok || !eq(value, otherValue) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the state as location/value entry lists under
// "register" and "pointer", in key order, for diagnostic dumps.
func (s State[T]) MarshalJSON() ([]byte, error) {
	type entry struct {
		Location string `json:"location"`
		Value    T      `json:"value"`
	}
	var registers []entry
	for itr := s.registers.Iterator(); !itr.Done(); {
		key, value, _ := itr.Next()
		registers = append(registers, entry{Location: key.String(), Value: value})
	}
	var memory []entry
	for itr := s.memory.Iterator(); !itr.Done(); {
		key, value, _ := itr.Next()
		memory = append(memory, entry{Location: key.String(), Value: value})
	}
	return json.Marshal(struct {
		Register []entry `json:"register"`
		Pointer  []entry `json:"pointer"`
	}{Register: registers, Pointer: memory})
}
