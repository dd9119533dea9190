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

package strings

import (
	"github.com/bincheck/bincheck/analysis/cfg"
	"github.com/bincheck/bincheck/analysis/domains"
	"github.com/bincheck/bincheck/analysis/ir"
)

// Context carries the transfer functions of the string analysis over one
// string domain T. It implements fixpoint.Context[State[T]].
type Context[T domains.StringDomain[T]] struct {
	graph   *cfg.Graph
	project *ir.Project
	memory  *ir.RuntimeMemoryImage
}

// NewContext builds a string analysis context for one project.
func NewContext[T domains.StringDomain[T]](project *ir.Project, memory *ir.RuntimeMemoryImage, graph *cfg.Graph) *Context[T] {
	return &Context[T]{graph: graph, project: project, memory: memory}
}

// Graph returns the control-flow graph the analysis runs on.
func (c *Context[T]) Graph() *cfg.Graph {
	return c.graph
}

// Merge joins the states of two control-flow paths.
func (c *Context[T]) Merge(a State[T], b State[T]) State[T] {
	return a.Merge(b)
}

// UpdateDef applies one assignment, load or store to the state.
func (c *Context[T]) UpdateDef(state State[T], def *ir.Term[ir.Def]) (State[T], bool) {
	switch d := def.Term.(type) {
	case ir.Assign:
		if value, ok := c.eval(state, d.Value); ok {
			return state.SetRegister(d.Var, value), true
		}
		return state.ForgetRegister(d.Var), true
	case ir.Load:
		cell, ok := c.evalAddress(state, d.Address)
		if !ok {
			return state.ForgetRegister(d.Var), true
		}
		if value, ok := state.MemValue(cell); ok {
			return state.SetRegister(d.Var, value), true
		}
		return state.ForgetRegister(d.Var), true
	case ir.Store:
		cell, ok := c.evalAddress(state, d.Address)
		if !ok {
			// A store through an unresolved pointer may hit any tracked
			// cell, so all memory knowledge has to go.
			return state.WithoutMemory(), true
		}
		if value, ok := c.eval(state, d.Value); ok {
			return state.SetMemValue(cell, value), true
		}
		return state.ForgetMemValue(cell), true
	default:
		return state, true
	}
}

// UpdateJump applies an intraprocedural control transfer. Both the taken
// conditional and the bypassed conditional of a fallthrough edge narrow
// the state; a contradictory branch direction cuts the edge.
func (c *Context[T]) UpdateJump(state State[T], jump *ir.Term[ir.Jmp], untaken *ir.Term[ir.Jmp], target *ir.Term[ir.Blk]) (State[T], bool) {
	if untaken != nil {
		if cond, ok := untaken.Term.(ir.CBranch); ok {
			narrowed, feasible := c.SpecializeConditional(state, cond.Condition, false)
			if !feasible {
				return State[T]{}, false
			}
			state = narrowed
		}
	}
	if cond, ok := jump.Term.(ir.CBranch); ok {
		narrowed, feasible := c.SpecializeConditional(state, cond.Condition, true)
		if !feasible {
			return State[T]{}, false
		}
		state = narrowed
	}
	return state, true
}

// UpdateCall propagates the caller's state into an analyzed callee. The
// callee starts with the caller's memory knowledge but none of its
// register knowledge, since register contents are caller-local.
func (c *Context[T]) UpdateCall(state State[T], call *ir.Term[ir.Jmp], target *cfg.Node) (State[T], bool) {
	if target == nil {
		return State[T]{}, false
	}
	return state.WithoutRegisters(), true
}

// UpdateReturn combines the callee's exit state with the caller's state
// before the call: register knowledge comes from the caller minus the
// registers the callee may have written, memory knowledge from the callee.
func (c *Context[T]) UpdateReturn(atReturn *State[T], beforeCall *State[T], call *ir.Term[ir.Jmp], ret *ir.Term[ir.Jmp]) (State[T], bool) {
	if beforeCall == nil {
		return State[T]{}, false
	}
	state := c.clobberCallerSaved(*beforeCall)
	if atReturn != nil {
		state = State[T]{registers: state.registers, memory: atReturn.memory}
	}
	return state, true
}

// UpdateCallStub approximates a call whose target is not analyzed, for
// example an external library function. Anything the callee may write is
// forgotten: the caller-saved registers, the return register, and every
// memory cell addressed through a caller-saved register.
func (c *Context[T]) UpdateCallStub(state State[T], call *ir.Term[ir.Jmp]) (State[T], bool) {
	return c.clobberCallerSaved(state), true
}

// SpecializeConditional narrows the state along a branch direction. Only
// constant conditions are decided; everything else passes through.
func (c *Context[T]) SpecializeConditional(state State[T], condition ir.Expression, isTrue bool) (State[T], bool) {
	if feasible, decided := evalCondition(condition, isTrue); decided && !feasible {
		return State[T]{}, false
	}
	return state, true
}

func evalCondition(condition ir.Expression, isTrue bool) (feasible bool, decided bool) {
	switch e := condition.(type) {
	case ir.Const:
		return (e.Value != 0) == isTrue, true
	case ir.UnExpr:
		if e.Op == ir.BoolNegate {
			return evalCondition(e.Arg, !isTrue)
		}
	}
	return true, false
}

func (c *Context[T]) clobberCallerSaved(state State[T]) State[T] {
	convention := c.project.CallingConvention
	for _, register := range convention.CallerSavedRegisters {
		state = state.ForgetMemCellsBasedOn(register)
		state = state.ForgetRegister(register)
	}
	state = state.ForgetRegister(convention.ReturnRegister)
	return state
}

// eval computes the abstract string value of an expression, or reports
// that the expression carries no string information. A constant that
// points into a read-only data segment evaluates to the abstraction of
// the NUL-terminated string found there.
func (c *Context[T]) eval(state State[T], expr ir.Expression) (T, bool) {
	var zero T
	switch e := expr.(type) {
	case ir.Var:
		return state.Register(e.Var)
	case ir.Const:
		if c.memory != nil {
			if literal, ok := c.memory.ReadString(e.Value); ok {
				return zero.FromLiteral(literal), true
			}
		}
		return zero, false
	case ir.BinExpr:
		lhs, okL := c.eval(state, e.Lhs)
		rhs, okR := c.eval(state, e.Rhs)
		if !okL || !okR {
			return zero, false
		}
		if rd, ok := any(lhs).(domains.RegisterDomain[T]); ok {
			return rd.BinOp(e.Op, rhs), true
		}
		return zero, false
	case ir.UnExpr:
		arg, ok := c.eval(state, e.Arg)
		if !ok {
			return zero, false
		}
		if rd, ok := any(arg).(domains.RegisterDomain[T]); ok {
			return rd.UnOp(e.Op), true
		}
		return zero, false
	case ir.CastExpr:
		arg, ok := c.eval(state, e.Arg)
		if !ok {
			return zero, false
		}
		if rd, ok := any(arg).(domains.RegisterDomain[T]); ok {
			return rd.Cast(e.Op, e.Size), true
		}
		return zero, false
	case ir.SubPieceExpr:
		arg, ok := c.eval(state, e.Arg)
		if !ok {
			return zero, false
		}
		if rd, ok := any(arg).(domains.RegisterDomain[T]); ok {
			return rd.SubPiece(e.LowByte, e.Size), true
		}
		return zero, false
	default:
		return zero, false
	}
}

// evalAddress resolves an address expression to a tracked memory cell.
// Only a bare register and register plus or minus a constant resolve.
func (c *Context[T]) evalAddress(state State[T], expr ir.Expression) (MemCell, bool) {
	switch e := expr.(type) {
	case ir.Var:
		return MemCell{Base: e.Var}, true
	case ir.BinExpr:
		switch e.Op {
		case ir.IntAdd:
			if base, offset, ok := splitBaseOffset(e.Lhs, e.Rhs); ok {
				return MemCell{Base: base, Offset: offset}, true
			}
			if base, offset, ok := splitBaseOffset(e.Rhs, e.Lhs); ok {
				return MemCell{Base: base, Offset: offset}, true
			}
		case ir.IntSub:
			if base, offset, ok := splitBaseOffset(e.Lhs, e.Rhs); ok {
				return MemCell{Base: base, Offset: -offset}, true
			}
		}
	}
	return MemCell{}, false
}

func splitBaseOffset(lhs ir.Expression, rhs ir.Expression) (ir.Variable, int64, bool) {
	base, okBase := lhs.(ir.Var)
	offset, okOffset := rhs.(ir.Const)
	if !okBase || !okOffset {
		return ir.Variable{}, 0, false
	}
	return base.Var, int64(offset.Value), true
}
