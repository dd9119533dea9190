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

// Package fixpoint declares the contract between an analysis and the
// forward interprocedural fixpoint solver driving it.
//
// The solver owns the worklist, the iteration order and any iteration
// bound; an analysis only supplies the transfer functions through the
// Context interface. All transfer functions are pure: they never mutate
// their inputs, so the solver may share state values between nodes and
// revisit nodes in any order.
package fixpoint

import (
	"github.com/bincheck/bincheck/analysis/cfg"
	"github.com/bincheck/bincheck/analysis/ir"
)

// Context supplies the transfer functions of one forward interprocedural
// analysis over value type V.
//
// Every Update method returns the propagated value and true, or a zero
// value and false when the transition yields no information, for example
// an infeasible branch or a call with no usable approximation. The solver
// must not propagate along an edge whose update returned false; this is
// the expected way to cut unreachable paths, not an error.
type Context[V any] interface {
	// Graph returns the control-flow graph the solver iterates.
	Graph() *cfg.Graph

	// Merge joins the values reaching a node along two edges.
	Merge(a V, b V) V

	// UpdateDef applies one assignment, load or store.
	UpdateDef(value V, def *ir.Term[ir.Def]) (V, bool)

	// UpdateJump applies an intraprocedural control transfer. untaken is
	// the conditional jump that was not taken when the transfer is the
	// fallthrough of a conditional branch, and nil otherwise.
	UpdateJump(value V, jump *ir.Term[ir.Jmp], untaken *ir.Term[ir.Jmp], target *ir.Term[ir.Blk]) (V, bool)

	// UpdateCall propagates the caller's state into an analyzed callee.
	UpdateCall(value V, call *ir.Term[ir.Jmp], target *cfg.Node) (V, bool)

	// UpdateReturn combines the callee's exit state with the caller's
	// state before the call. Either input may be nil when the respective
	// path has not produced a value yet.
	UpdateReturn(atReturn *V, beforeCall *V, call *ir.Term[ir.Jmp], ret *ir.Term[ir.Jmp]) (V, bool)

	// UpdateCallStub approximates a call whose target is not analyzed.
	UpdateCallStub(value V, call *ir.Term[ir.Jmp]) (V, bool)

	// SpecializeConditional narrows the value along a branch direction.
	SpecializeConditional(value V, condition ir.Expression, isTrue bool) (V, bool)
}
