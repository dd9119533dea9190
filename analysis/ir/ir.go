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

// Package ir defines the intermediate representation of a lifted binary.
//
// The IR is produced by an external lifting frontend and consumed read-only
// by the analyses. A program is a tree of terms: a Program contains Subs
// (functions), a Sub contains Blks (basic blocks), and a Blk contains Defs
// (register or memory effects) followed by Jmps (control transfers).
// Every term carries a Tid, a unique identifier that also names the address
// the term was lifted from.
package ir

import "fmt"

// ByteSize is the size in bytes of a register, value or memory access.
type ByteSize uint64

// Bits returns the size in bits.
func (b ByteSize) Bits() uint64 {
	return uint64(b) * 8
}

// A Tid is a unique identifier of a term, of the form "instr_0x00401000_2"
// or "blk_0x00401000". The Address is the address of the machine
// instruction the term was lifted from.
type Tid struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// NewTid returns a Tid with the given id and an unknown address.
func NewTid(id string) Tid {
	return Tid{ID: id, Address: "UNKNOWN"}
}

func (t Tid) String() string {
	return t.ID
}

// A Term attaches a Tid to an IR node.
type Term[T any] struct {
	Tid  Tid
	Term T
}

// A Variable is a physical register or a temporary introduced by the lifter.
type Variable struct {
	Name   string   `json:"name"`
	Size   ByteSize `json:"size"`
	IsTemp bool     `json:"is_temp"`
}

func (v Variable) String() string {
	if v.IsTemp {
		return fmt.Sprintf("$%s:%d", v.Name, v.Size)
	}
	return fmt.Sprintf("%s:%d", v.Name, v.Size)
}

// CompareVariables totally orders variables by temp flag, name and size.
// Physical registers sort before temporaries.
func CompareVariables(a Variable, b Variable) int {
	if a.IsTemp != b.IsTemp {
		if b.IsTemp {
			return -1
		}
		return 1
	}
	if a.Name != b.Name {
		if a.Name < b.Name {
			return -1
		}
		return 1
	}
	switch {
	case a.Size < b.Size:
		return -1
	case a.Size > b.Size:
		return 1
	default:
		return 0
	}
}
