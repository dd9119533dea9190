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

package cfg

import (
	"fmt"

	"github.com/bincheck/bincheck/analysis/ir"
)

// blockNodes are the two program points of one block.
type blockNodes struct {
	start *Node
	end   *Node
}

type builder struct {
	graph   *Graph
	program *ir.Program
	blocks  map[ir.Tid]blockNodes
	subs    map[ir.Tid]*ir.Term[ir.Sub]
	// exits maps a sub's Tid to the BlkEnd nodes of its returning blocks.
	exits map[ir.Tid][]*Node
}

// NewGraph builds the interprocedural CFG of a program. Every block
// contributes a BlkStart and a BlkEnd node connected by an EdgeBlock; every
// call with a known return site contributes a CallReturn node combining the
// caller and callee states.
func NewGraph(program *ir.Program) (*Graph, error) {
	b := &builder{
		graph:   &Graph{out: map[int64][]*Edge{}, in: map[int64][]*Edge{}},
		program: program,
		blocks:  map[ir.Tid]blockNodes{},
		subs:    map[ir.Tid]*ir.Term[ir.Sub]{},
		exits:   map[ir.Tid][]*Node{},
	}
	b.addBlockNodes()
	if err := b.addEdges(); err != nil {
		return nil, err
	}
	return b.graph, nil
}

func (b *builder) addBlockNodes() {
	for i := range b.program.Subs {
		sub := &b.program.Subs[i]
		b.subs[sub.Tid] = sub
		for j := range sub.Term.Blocks {
			blk := &sub.Term.Blocks[j]
			nodes := blockNodes{
				start: b.graph.addNode(&Node{Kind: BlkStart, Block: blk, Sub: sub}),
				end:   b.graph.addNode(&Node{Kind: BlkEnd, Block: blk, Sub: sub}),
			}
			b.blocks[blk.Tid] = nodes
			b.graph.addEdge(&Edge{F: nodes.start, T: nodes.end, Kind: EdgeBlock})
			for k := range blk.Term.Jmps {
				if _, ok := blk.Term.Jmps[k].Term.(ir.Return); ok {
					b.exits[sub.Tid] = append(b.exits[sub.Tid], nodes.end)
				}
			}
		}
	}
}

func (b *builder) addEdges() error {
	for i := range b.program.Subs {
		sub := &b.program.Subs[i]
		for j := range sub.Term.Blocks {
			blk := &sub.Term.Blocks[j]
			if err := b.addJumpEdges(blk); err != nil {
				return err
			}
		}
	}
	return nil
}

// addJumpEdges adds the edges leaving one block. A block ends either with a
// single unconditional transfer or with a conditional jump followed by its
// fallthrough; the fallthrough edge records the untaken conditional so the
// analysis can refine the state along it.
func (b *builder) addJumpEdges(blk *ir.Term[ir.Blk]) error {
	from := b.blocks[blk.Tid].end
	var untaken *ir.Term[ir.Jmp]
	for k := range blk.Term.Jmps {
		jmp := &blk.Term.Jmps[k]
		switch j := jmp.Term.(type) {
		case ir.Branch:
			target, ok := b.blocks[j.Target]
			if !ok {
				return fmt.Errorf("jump %s targets unknown block %s", jmp.Tid, j.Target)
			}
			b.graph.addEdge(&Edge{F: from, T: target.start, Kind: EdgeJump, Jmp: jmp, Untaken: untaken})
		case ir.CBranch:
			target, ok := b.blocks[j.Target]
			if !ok {
				return fmt.Errorf("jump %s targets unknown block %s", jmp.Tid, j.Target)
			}
			b.graph.addEdge(&Edge{F: from, T: target.start, Kind: EdgeJump, Jmp: jmp})
			untaken = jmp
		case ir.BranchInd:
			// Indirect jump targets are not resolved; the node simply has
			// no successors along this jump.
		case ir.Call:
			if err := b.addCallEdges(from, jmp, j.Target, j.ReturnTo); err != nil {
				return err
			}
		case ir.CallInd:
			b.addStubEdges(from, jmp, j.ReturnTo)
		case ir.CallOther:
			b.addStubEdges(from, jmp, j.ReturnTo)
		case ir.Return:
			// Return edges are added per call site, in addCallEdges.
		}
	}
	return nil
}

func (b *builder) addCallEdges(from *Node, jmp *ir.Term[ir.Jmp], target ir.Tid, returnTo *ir.Tid) error {
	callee, analyzed := b.subs[target]
	if !analyzed || b.program.IsExtern(target) {
		b.addStubEdges(from, jmp, returnTo)
		return nil
	}
	if len(callee.Term.Blocks) == 0 {
		b.addStubEdges(from, jmp, returnTo)
		return nil
	}
	entry := b.blocks[callee.Term.Blocks[0].Tid]
	b.graph.addEdge(&Edge{F: from, T: entry.start, Kind: EdgeCall, Jmp: jmp})

	if returnTo == nil {
		return nil
	}
	returnBlock, ok := b.blocks[*returnTo]
	if !ok {
		return fmt.Errorf("call %s returns to unknown block %s", jmp.Tid, *returnTo)
	}
	combine := b.graph.addNode(&Node{
		Kind:      CallReturn,
		Block:     returnBlock.start.Block,
		Sub:       returnBlock.start.Sub,
		CallBlock: from.Block,
	})
	b.graph.addEdge(&Edge{F: from, T: combine, Kind: EdgeCallFallthrough, Jmp: jmp})
	for _, exit := range b.exits[target] {
		b.graph.addEdge(&Edge{F: exit, T: combine, Kind: EdgeCallReturnStub, Jmp: jmp})
	}
	b.graph.addEdge(&Edge{F: combine, T: returnBlock.start, Kind: EdgeReturnCombine})
	return nil
}

// addStubEdges connects a call to an unanalyzed target directly to its
// return site; the analysis approximates the callee's effect there.
func (b *builder) addStubEdges(from *Node, jmp *ir.Term[ir.Jmp], returnTo *ir.Tid) {
	if returnTo == nil {
		return
	}
	if target, ok := b.blocks[*returnTo]; ok {
		b.graph.addEdge(&Edge{F: from, T: target.start, Kind: EdgeExternCallStub, Jmp: jmp})
	}
}
