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

package ir

import "fmt"

// An Expression is a side-effect-free value computation over registers and
// constants. The variants mirror the P-code operations emitted by the lifter.
type Expression interface {
	fmt.Stringer
	isExpression()
}

// Var reads a register or temporary.
type Var struct {
	Var Variable
}

// Const is an integer constant of a fixed width. Constants that are
// addresses into the binary's memory image are not distinguished
// syntactically; consumers must consult the RuntimeMemoryImage.
type Const struct {
	Value uint64
	Size  ByteSize
}

// BinExpr applies a binary operator to two subexpressions.
type BinExpr struct {
	Op  BinOpType
	Lhs Expression
	Rhs Expression
}

// UnExpr applies a unary operator to a subexpression.
type UnExpr struct {
	Op  UnOpType
	Arg Expression
}

// CastExpr converts a subexpression to a different width or interpretation.
type CastExpr struct {
	Op   CastOpType
	Size ByteSize
	Arg  Expression
}

// SubPieceExpr extracts Size bytes starting at LowByte from the argument.
type SubPieceExpr struct {
	LowByte ByteSize
	Size    ByteSize
	Arg     Expression
}

// UnknownExpr is a value the lifter could not translate. Its only known
// property is its width.
type UnknownExpr struct {
	Description string
	Size        ByteSize
}

func (Var) isExpression()          {}
func (Const) isExpression()        {}
func (BinExpr) isExpression()      {}
func (UnExpr) isExpression()       {}
func (CastExpr) isExpression()     {}
func (SubPieceExpr) isExpression() {}
func (UnknownExpr) isExpression()  {}

func (e Var) String() string   { return e.Var.String() }
func (e Const) String() string { return fmt.Sprintf("0x%x:%d", e.Value, e.Size) }
func (e BinExpr) String() string {
	return fmt.Sprintf("%s(%s, %s)", e.Op, e.Lhs, e.Rhs)
}
func (e UnExpr) String() string   { return fmt.Sprintf("%s(%s)", e.Op, e.Arg) }
func (e CastExpr) String() string { return fmt.Sprintf("%s:%d(%s)", e.Op, e.Size, e.Arg) }
func (e SubPieceExpr) String() string {
	return fmt.Sprintf("SUBPIECE(%s, %d, %d)", e.Arg, e.LowByte, e.Size)
}
func (e UnknownExpr) String() string { return fmt.Sprintf("UNKNOWN(%s):%d", e.Description, e.Size) }

// BinOpType enumerates binary operators.
type BinOpType int

// The binary operators, named after their P-code mnemonics.
const (
	Piece BinOpType = iota
	IntEqual
	IntNotEqual
	IntLess
	IntSLess
	IntLessEqual
	IntSLessEqual
	IntAdd
	IntSub
	IntCarry
	IntSCarry
	IntSBorrow
	IntXOr
	IntAnd
	IntOr
	IntLeft
	IntRight
	IntSRight
	IntMult
	IntDiv
	IntRem
	IntSDiv
	IntSRem
	BoolXOr
	BoolAnd
	BoolOr
	FloatEqual
	FloatNotEqual
	FloatLess
	FloatLessEqual
	FloatAdd
	FloatSub
	FloatMult
	FloatDiv
)

var binOpNames = [...]string{
	Piece:          "PIECE",
	IntEqual:       "INT_EQUAL",
	IntNotEqual:    "INT_NOTEQUAL",
	IntLess:        "INT_LESS",
	IntSLess:       "INT_SLESS",
	IntLessEqual:   "INT_LESSEQUAL",
	IntSLessEqual:  "INT_SLESSEQUAL",
	IntAdd:         "INT_ADD",
	IntSub:         "INT_SUB",
	IntCarry:       "INT_CARRY",
	IntSCarry:      "INT_SCARRY",
	IntSBorrow:     "INT_SBORROW",
	IntXOr:         "INT_XOR",
	IntAnd:         "INT_AND",
	IntOr:          "INT_OR",
	IntLeft:        "INT_LEFT",
	IntRight:       "INT_RIGHT",
	IntSRight:      "INT_SRIGHT",
	IntMult:        "INT_MULT",
	IntDiv:         "INT_DIV",
	IntRem:         "INT_REM",
	IntSDiv:        "INT_SDIV",
	IntSRem:        "INT_SREM",
	BoolXOr:        "BOOL_XOR",
	BoolAnd:        "BOOL_AND",
	BoolOr:         "BOOL_OR",
	FloatEqual:     "FLOAT_EQUAL",
	FloatNotEqual:  "FLOAT_NOTEQUAL",
	FloatLess:      "FLOAT_LESS",
	FloatLessEqual: "FLOAT_LESSEQUAL",
	FloatAdd:       "FLOAT_ADD",
	FloatSub:       "FLOAT_SUB",
	FloatMult:      "FLOAT_MULT",
	FloatDiv:       "FLOAT_DIV",
}

func (op BinOpType) String() string {
	if op < 0 || int(op) >= len(binOpNames) {
		return fmt.Sprintf("BinOpType(%d)", int(op))
	}
	return binOpNames[op]
}

// IsComparison reports whether the operator produces a one-byte boolean.
func (op BinOpType) IsComparison() bool {
	switch op {
	case IntEqual, IntNotEqual, IntLess, IntSLess, IntLessEqual, IntSLessEqual,
		IntCarry, IntSCarry, IntSBorrow, BoolXOr, BoolAnd, BoolOr,
		FloatEqual, FloatNotEqual, FloatLess, FloatLessEqual:
		return true
	}
	return false
}

// UnOpType enumerates unary operators.
type UnOpType int

// The unary operators, named after their P-code mnemonics.
const (
	IntNegate UnOpType = iota
	Int2Comp
	BoolNegate
	FloatNegate
	FloatAbs
	FloatSqrt
	FloatCeil
	FloatFloor
	FloatRound
	FloatNaN
)

var unOpNames = [...]string{
	IntNegate:   "INT_NEGATE",
	Int2Comp:    "INT_2COMP",
	BoolNegate:  "BOOL_NEGATE",
	FloatNegate: "FLOAT_NEG",
	FloatAbs:    "FLOAT_ABS",
	FloatSqrt:   "FLOAT_SQRT",
	FloatCeil:   "FLOAT_CEIL",
	FloatFloor:  "FLOAT_FLOOR",
	FloatRound:  "FLOAT_ROUND",
	FloatNaN:    "FLOAT_NAN",
}

func (op UnOpType) String() string {
	if op < 0 || int(op) >= len(unOpNames) {
		return fmt.Sprintf("UnOpType(%d)", int(op))
	}
	return unOpNames[op]
}

// CastOpType enumerates width and interpretation changing operators.
type CastOpType int

// The cast operators, named after their P-code mnemonics.
const (
	IntZExt CastOpType = iota
	IntSExt
	Int2Float
	Float2Float
	Trunc
	PopCount
)

var castOpNames = [...]string{
	IntZExt:     "INT_ZEXT",
	IntSExt:     "INT_SEXT",
	Int2Float:   "INT2FLOAT",
	Float2Float: "FLOAT2FLOAT",
	Trunc:       "TRUNC",
	PopCount:    "POPCOUNT",
}

func (op CastOpType) String() string {
	if op < 0 || int(op) >= len(castOpNames) {
		return fmt.Sprintf("CastOpType(%d)", int(op))
	}
	return castOpNames[op]
}
