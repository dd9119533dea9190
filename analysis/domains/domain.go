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

// Package domains implements the abstract domains used to approximate the
// string values flowing through a lifted binary.
//
// An abstract domain is a value type approximating a set of concrete
// runtime values, ordered by precision and closed under a join (Merge)
// operator. The domains here form lattices whose Top element approximates
// "any possible value". All domain values are immutable: every operation
// returns a new value and never mutates its receiver or arguments, so that
// the fixpoint solver may share values freely between control-flow nodes.
package domains

import (
	"errors"

	"github.com/bincheck/bincheck/analysis/ir"
)

// ErrTopValue is returned when a payload is extracted from a value whose
// tag is Top. Callers must either match on IsTop first or handle the error;
// continuing with a made-up payload would silently break soundness.
var ErrTopValue = errors.New("abstract value is Top")

// Domain is the contract every abstract value satisfies.
//
// Merge returns the least upper bound of the receiver and other: the
// result approximates every concrete value either operand approximates.
// Merge must be commutative and idempotent, and Top must absorb any value,
// so that fixpoint iteration converges independently of visit order.
//
// Top returns the maximally imprecise value of the same shape as the
// receiver. It is a method rather than a package constant because some
// domains parameterize Top with metadata of the receiver (such as the byte
// width of the approximated value).
type Domain[T any] interface {
	Merge(other T) T
	IsTop() bool
	Top() T
}

// RegisterDomain is a domain whose values live in fixed-width registers
// and therefore support the register operations of the IR.
//
// Soundness contract: an operation whose effect cannot be modeled
// precisely must return the top value of the correct resulting width. An
// abstract value must never exclude a real concrete outcome, so there is
// no error return; over-approximation is the only permitted failure mode.
type RegisterDomain[T any] interface {
	Domain[T]

	// NewTop returns a top value for a register of the given byte width.
	NewTop(width ir.ByteSize) T

	// ByteSize returns the width of the approximated value in bytes.
	ByteSize() ir.ByteSize

	// BinOp evaluates a binary operator with the receiver as left operand.
	BinOp(op ir.BinOpType, rhs T) T

	// UnOp evaluates a unary operator.
	UnOp(op ir.UnOpType) T

	// SubPiece extracts size bytes starting at lowByte.
	SubPiece(lowByte ir.ByteSize, size ir.ByteSize) T

	// Cast converts the value to the given width and interpretation.
	Cast(kind ir.CastOpType, width ir.ByteSize) T
}

// StringDomain is a domain that can construct an exact approximation of a
// known string constant. The analysis context uses it when a definition
// loads a string literal from the binary's read-only memory image. The
// receiver acts only as a constructor witness; its own value is ignored.
type StringDomain[T any] interface {
	Domain[T]

	FromLiteral(s string) T
}
