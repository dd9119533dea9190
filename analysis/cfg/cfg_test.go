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
	"testing"

	"github.com/bincheck/bincheck/analysis/ir"
)

// testProgram builds a program with a conditional loop, an analyzed call
// and an extern call:
//
//	main: a -> b | c        (conditional)
//	      b -> call help, returns to c
//	      c -> call puts (extern), returns to d
//	      d -> a | e        (conditional back edge)
//	      e -> return
//	help: h -> return
func testProgram() *ir.Program {
	blkA := ir.NewTid("blk_a")
	blkB := ir.NewTid("blk_b")
	blkC := ir.NewTid("blk_c")
	blkD := ir.NewTid("blk_d")
	blkE := ir.NewTid("blk_e")
	blkH := ir.NewTid("blk_h")
	subMain := ir.NewTid("sub_main")
	subHelp := ir.NewTid("sub_help")
	puts := ir.NewTid("extern_puts")

	cond := ir.Var{Var: ir.Variable{Name: "ZF", Size: 1}}
	block := func(tid ir.Tid, jmps ...ir.Jmp) ir.Term[ir.Blk] {
		blk := ir.Blk{}
		for i, j := range jmps {
			blk.Jmps = append(blk.Jmps, ir.Term[ir.Jmp]{
				Tid:  ir.NewTid(tid.ID + "_jmp" + string(rune('0'+i))),
				Term: j,
			})
		}
		return ir.Term[ir.Blk]{Tid: tid, Term: blk}
	}

	return &ir.Program{
		ExternSymbols: []ir.ExternSymbol{{Tid: puts, Name: "puts"}},
		EntryPoints:   []ir.Tid{subMain},
		Subs: []ir.Term[ir.Sub]{
			{Tid: subMain, Term: ir.Sub{Name: "main", Blocks: []ir.Term[ir.Blk]{
				block(blkA, ir.CBranch{Target: blkB, Condition: cond}, ir.Branch{Target: blkC}),
				block(blkB, ir.Call{Target: subHelp, ReturnTo: &blkC}),
				block(blkC, ir.Call{Target: puts, ReturnTo: &blkD}),
				block(blkD, ir.CBranch{Target: blkA, Condition: cond}, ir.Branch{Target: blkE}),
				block(blkE, ir.Return{}),
			}}},
			{Tid: subHelp, Term: ir.Sub{Name: "help", Blocks: []ir.Term[ir.Blk]{
				block(blkH, ir.Return{}),
			}}},
		},
	}
}

func findNode(t *testing.T, g *Graph, kind NodeKind, blockID string) *Node {
	t.Helper()
	for _, n := range g.NodeList() {
		if n.Kind == kind && n.Block.Tid.ID == blockID {
			return n
		}
	}
	t.Fatalf("no %v node for block %s", kind, blockID)
	return nil
}

func findEdge(t *testing.T, g *Graph, from, to *Node) *Edge {
	t.Helper()
	for _, e := range g.OutEdges(from) {
		if e.T == to {
			return e
		}
	}
	t.Fatalf("no edge from %v to %v", from, to)
	return nil
}

func TestNewGraphShape(t *testing.T) {
	g, err := NewGraph(testProgram())
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	// Six blocks contribute a start and an end node each, plus one
	// CallReturn node for the analyzed call to help.
	if got := len(g.NodeList()); got != 13 {
		t.Errorf("got %d nodes, want 13", got)
	}

	edgeKinds := map[EdgeKind]int{}
	for _, n := range g.NodeList() {
		for _, e := range g.OutEdges(n) {
			edgeKinds[e.Kind]++
		}
	}
	wantKinds := map[EdgeKind]int{
		EdgeBlock:           6,
		EdgeJump:            4,
		EdgeCall:            1,
		EdgeCallFallthrough: 1,
		EdgeCallReturnStub:  1,
		EdgeReturnCombine:   1,
		EdgeExternCallStub:  1,
	}
	for kind, want := range wantKinds {
		if edgeKinds[kind] != want {
			t.Errorf("%v edges = %d, want %d", kind, edgeKinds[kind], want)
		}
	}
}

func TestNewGraphFallthroughRecordsUntakenBranch(t *testing.T) {
	g, err := NewGraph(testProgram())
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	aEnd := findNode(t, g, BlkEnd, "blk_a")
	bStart := findNode(t, g, BlkStart, "blk_b")
	cStart := findNode(t, g, BlkStart, "blk_c")

	taken := findEdge(t, g, aEnd, bStart)
	if taken.Untaken != nil {
		t.Error("the taken conditional edge should not record an untaken jump")
	}
	fallthroughEdge := findEdge(t, g, aEnd, cStart)
	if fallthroughEdge.Untaken == nil {
		t.Fatal("the fallthrough edge should record the untaken conditional")
	}
	if _, ok := fallthroughEdge.Untaken.Term.(ir.CBranch); !ok {
		t.Errorf("untaken jump is %T, want CBranch", fallthroughEdge.Untaken.Term)
	}
}

func TestNewGraphCallReturnWiring(t *testing.T) {
	g, err := NewGraph(testProgram())
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	bEnd := findNode(t, g, BlkEnd, "blk_b")
	hStart := findNode(t, g, BlkStart, "blk_h")
	hEnd := findNode(t, g, BlkEnd, "blk_h")
	combine := findNode(t, g, CallReturn, "blk_c")

	if findEdge(t, g, bEnd, hStart).Kind != EdgeCall {
		t.Error("call site connects to the callee entry with an EdgeCall")
	}
	if findEdge(t, g, bEnd, combine).Kind != EdgeCallFallthrough {
		t.Error("call site connects to the combine node with an EdgeCallFallthrough")
	}
	if findEdge(t, g, hEnd, combine).Kind != EdgeCallReturnStub {
		t.Error("callee exit connects to the combine node with an EdgeCallReturnStub")
	}
	if combine.CallBlock == nil || combine.CallBlock.Tid.ID != "blk_b" {
		t.Errorf("combine.CallBlock = %v, want blk_b", combine.CallBlock)
	}

	cEnd := findNode(t, g, BlkEnd, "blk_c")
	dStart := findNode(t, g, BlkStart, "blk_d")
	if findEdge(t, g, cEnd, dStart).Kind != EdgeExternCallStub {
		t.Error("an extern call connects directly to its return site with a stub edge")
	}
}

func TestNewGraphRejectsUnknownJumpTarget(t *testing.T) {
	program := testProgram()
	blocks := program.Subs[0].Term.Blocks
	blocks[0].Term.Jmps[0].Term = ir.CBranch{Target: ir.NewTid("blk_nowhere")}
	if _, err := NewGraph(program); err == nil {
		t.Error("expected an error for a jump to an unknown block")
	}
}

func TestLoopNodes(t *testing.T) {
	g, err := NewGraph(testProgram())
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	loops := map[*Node]bool{}
	for _, n := range LoopNodes(g) {
		loops[n] = true
	}
	if !loops[findNode(t, g, BlkStart, "blk_a")] {
		t.Error("blk_a is on the conditional loop")
	}
	if !loops[findNode(t, g, BlkStart, "blk_h")] {
		t.Error("the callee is part of the interprocedural cycle")
	}
	if loops[findNode(t, g, BlkStart, "blk_e")] {
		t.Error("the exit block is not on any cycle")
	}
}

func TestReachable(t *testing.T) {
	g, err := NewGraph(testProgram())
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	if start := g.BlockStart(ir.NewTid("blk_a")); start != nil {
		reached := Reachable(g, start)
		if len(reached) != len(g.NodeList()) {
			t.Errorf("reached %d of %d nodes from the entry", len(reached), len(g.NodeList()))
		}
	} else {
		t.Fatal("BlockStart(blk_a) returned nil")
	}

	eStart := g.BlockStart(ir.NewTid("blk_e"))
	if got := Reachable(g, eStart); len(got) != 2 {
		t.Errorf("from the exit block only its own two nodes are reachable, got %d", len(got))
	}
}
