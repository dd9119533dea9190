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
	"fmt"

	"github.com/bincheck/bincheck/analysis"
	"github.com/bincheck/bincheck/analysis/config"
	"github.com/bincheck/bincheck/analysis/domains"
	"github.com/bincheck/bincheck/analysis/ir"
)

// Name and Version identify the module in configuration and reports.
const (
	Name    = "StringAbstraction"
	Version = "0.1"
)

// Module returns the registration record of the abstract string analysis.
func Module() analysis.Module {
	return analysis.Module{Name: Name, Version: Version, Run: run}
}

// run evaluates every configured string analysis problem. Propagation is
// block-local: each block is evaluated forward from the empty state, and
// the tracked values at calls to the configured extraction targets are
// reported. Fixpoint iteration across blocks is the job of an external
// solver driving the Context directly.
func run(state *analysis.State) ([]analysis.LogMessage, []analysis.Warning) {
	var logs []analysis.LogMessage
	var warnings []analysis.Warning
	for _, spec := range state.Config.StringAnalysisProblems {
		var specLogs []analysis.LogMessage
		var specWarnings []analysis.Warning
		switch spec.Domain {
		case config.DomainCharacterInclusion:
			specLogs, specWarnings = runProblem[domains.CharacterInclusion](state, spec)
		case config.DomainStringLength:
			specLogs, specWarnings = runProblem[domains.StringLength](state, spec)
		default:
			specLogs, specWarnings = runProblem[domains.Bricks](state, spec)
		}
		logs = append(logs, specLogs...)
		warnings = append(warnings, specWarnings...)
	}
	return logs, warnings
}

func runProblem[T domains.StringDomain[T]](state *analysis.State, spec config.StringSpec) ([]analysis.LogMessage, []analysis.Warning) {
	targets := make(map[string]bool)
	for _, name := range spec.ExtractionTargets {
		targets[name] = true
	}
	ctx := NewContext[T](state.Project, state.MemoryImage, state.Graph)
	program := &state.Project.Program.Term

	logs := []analysis.LogMessage{{
		Level: config.DebugLevel,
		Text:  fmt.Sprintf("string analysis with domain %s over %d extraction targets", spec.Domain, len(targets)),
	}}
	var warnings []analysis.Warning
	for i := range program.Subs {
		sub := &program.Subs[i]
		for j := range sub.Term.Blocks {
			block := &sub.Term.Blocks[j]
			warnings = append(warnings, evalBlock(ctx, program, block, targets, spec)...)
		}
	}
	return logs, warnings
}

// evalBlock runs the block's defs forward from the empty state and reports
// the tracked values at calls to extraction targets.
func evalBlock[T domains.StringDomain[T]](ctx *Context[T], program *ir.Program, block *ir.Term[ir.Blk], targets map[string]bool, spec config.StringSpec) []analysis.Warning {
	blockState := NewState[T]()
	for i := range block.Term.Defs {
		blockState, _ = ctx.UpdateDef(blockState, &block.Term.Defs[i])
	}
	var warnings []analysis.Warning
	for i := range block.Term.Jmps {
		jmp := &block.Term.Jmps[i]
		call, ok := jmp.Term.(ir.Call)
		if !ok {
			continue
		}
		name, ok := externName(program, call.Target)
		if !ok || !targets[name] {
			continue
		}
		warnings = append(warnings, describeCall(jmp, name, blockState, spec)...)
	}
	return warnings
}

func describeCall[T domains.StringDomain[T]](call *ir.Term[ir.Jmp], callee string, state State[T], spec config.StringSpec) []analysis.Warning {
	var warnings []analysis.Warning
	for itr := state.registers.Iterator(); !itr.Done(); {
		register, value, _ := itr.Next()
		warnings = append(warnings, analysis.Warning{
			Name:        Name,
			Version:     Version,
			Addresses:   []string{call.Tid.Address},
			Tids:        []string{call.Tid.ID},
			Description: fmt.Sprintf("call to %s with %s approximated as %v", callee, register, render(value, spec)),
		})
	}
	return warnings
}

// render normalizes bricks values before printing when the configuration
// asks for it; other domains print as-is.
func render[T domains.StringDomain[T]](value T, spec config.StringSpec) any {
	if bricks, ok := any(value).(domains.Bricks); ok && spec.NormalizeAfterMerge {
		return bricks.Normalize()
	}
	return value
}

func externName(program *ir.Program, tid ir.Tid) (string, bool) {
	for _, symbol := range program.ExternSymbols {
		if symbol.Tid == tid {
			return symbol.Name, true
		}
	}
	return "", false
}
