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

// A Def is a side effect of an instruction on a register or on memory.
type Def interface {
	isDef()
}

// Assign writes the value of an expression to a register.
type Assign struct {
	Var   Variable
	Value Expression
}

// Load reads from the memory cell the address expression points to
// into a register.
type Load struct {
	Var     Variable
	Address Expression
}

// Store writes the value of an expression to the memory cell the address
// expression points to.
type Store struct {
	Address Expression
	Value   Expression
}

func (Assign) isDef() {}
func (Load) isDef()   {}
func (Store) isDef()  {}

// A Jmp is a control transfer terminating a basic block.
type Jmp interface {
	isJmp()
}

// Branch is an unconditional intraprocedural jump to a block.
type Branch struct {
	Target Tid
}

// CBranch jumps to Target when Condition evaluates to a nonzero value and
// falls through otherwise.
type CBranch struct {
	Target    Tid
	Condition Expression
}

// BranchInd is an indirect intraprocedural jump.
type BranchInd struct {
	Target Expression
}

// Call is a direct call. ReturnTo is the block the callee returns to, or
// nil for non-returning calls.
type Call struct {
	Target   Tid
	ReturnTo *Tid
}

// CallInd is an indirect call.
type CallInd struct {
	Target   Expression
	ReturnTo *Tid
}

// CallOther represents an instruction with unmodeled side effects, treated
// like a call to an unanalyzed target.
type CallOther struct {
	Description string
	ReturnTo    *Tid
}

// Return transfers control back to the caller.
type Return struct {
	Value Expression
}

func (Branch) isJmp()    {}
func (CBranch) isJmp()   {}
func (BranchInd) isJmp() {}
func (Call) isJmp()      {}
func (CallInd) isJmp()   {}
func (CallOther) isJmp() {}
func (Return) isJmp()    {}

// A Blk is a basic block: straight-line defs followed by the jumps
// leaving the block. A block ends with either one unconditional jump or a
// conditional jump followed by its fallthrough.
type Blk struct {
	Defs []Term[Def]
	Jmps []Term[Jmp]
}

// A Sub is a function of the binary.
type Sub struct {
	Name   string
	Blocks []Term[Blk]
}

// An ExternSymbol is a function linked from a shared object, known only by
// name and calling convention. Calls to extern symbols are approximated by
// stubs during analysis.
type ExternSymbol struct {
	Tid      Tid
	Name     string
	NoReturn bool
}

// A Program is the term tree of the whole binary.
type Program struct {
	Subs          []Term[Sub]
	ExternSymbols []ExternSymbol
	EntryPoints   []Tid
}

// A CallingConvention lists the registers the analyses need to reason about
// calls: which registers a callee may clobber and which register carries
// integer or pointer return values.
type CallingConvention struct {
	CallerSavedRegisters []Variable `json:"caller_saved_registers"`
	ReturnRegister       Variable   `json:"return_register"`
}

// A Project is a lifted binary together with the architecture facts the
// lifter recorded about it.
type Project struct {
	Program              Term[Program]
	CPUArchitecture      string
	StackPointerRegister Variable
	CallingConvention    CallingConvention
}

// FindBlock returns the block term with the given Tid, or nil if the
// program has no such block.
func (p *Program) FindBlock(tid Tid) *Term[Blk] {
	for i := range p.Subs {
		sub := &p.Subs[i]
		for j := range sub.Term.Blocks {
			if sub.Term.Blocks[j].Tid == tid {
				return &sub.Term.Blocks[j]
			}
		}
	}
	return nil
}

// FindSub returns the sub term with the given Tid, or nil if the program
// has no such sub.
func (p *Program) FindSub(tid Tid) *Term[Sub] {
	for i := range p.Subs {
		if p.Subs[i].Tid == tid {
			return &p.Subs[i]
		}
	}
	return nil
}

// IsExtern reports whether tid names an extern symbol of the program.
func (p *Program) IsExtern(tid Tid) bool {
	for _, symb := range p.ExternSymbols {
		if symb.Tid == tid {
			return true
		}
	}
	return false
}
