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

// Package cfg builds the interprocedural control-flow graph of a lifted
// program. The graph is the structure the fixpoint solver iterates; the
// analyses themselves only read it.
//
// The graph implements gonum's directed graph interfaces so existing graph
// algorithms (traversal, topological ordering) can run on it directly.
package cfg

import (
	"fmt"

	"github.com/bincheck/bincheck/analysis/ir"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

// NodeKind distinguishes the program points a block contributes to the graph.
type NodeKind int

const (
	// BlkStart is the program point before the first def of a block.
	BlkStart NodeKind = iota
	// BlkEnd is the program point after the last def of a block.
	BlkEnd
	// CallReturn is the program point where a callee's exit state and the
	// caller's state before the call are combined.
	CallReturn
)

var nodeKindNames = [...]string{
	BlkStart:   "BlkStart",
	BlkEnd:     "BlkEnd",
	CallReturn: "CallReturn",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindNames) {
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
	return nodeKindNames[k]
}

// A Node is a program point of the interprocedural CFG.
type Node struct {
	id   int64
	Kind NodeKind

	// Block is the block this node belongs to. For CallReturn nodes it is
	// the block execution resumes in after the call.
	Block *ir.Term[ir.Blk]

	// Sub is the function containing Block.
	Sub *ir.Term[ir.Sub]

	// CallBlock is the block containing the call, only set on CallReturn.
	CallBlock *ir.Term[ir.Blk]
}

// ID implements gonum's graph.Node.
func (n *Node) ID() int64 {
	return n.id
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.Kind, n.Block.Tid)
}

// EdgeKind distinguishes the transitions between program points.
type EdgeKind int

const (
	// EdgeBlock runs the defs of a block, from its BlkStart to its BlkEnd.
	EdgeBlock EdgeKind = iota
	// EdgeJump is an intraprocedural control transfer.
	EdgeJump
	// EdgeCall enters an analyzed callee at its entry block.
	EdgeCall
	// EdgeExternCallStub skips over a call whose target is not analyzed,
	// from the call site to the return site.
	EdgeExternCallStub
	// EdgeCallReturnStub carries a callee's exit state to the CallReturn
	// node of one of its call sites.
	EdgeCallReturnStub
	// EdgeCallFallthrough carries the caller's state at the call site to
	// the CallReturn node, where it is combined with the callee's exit.
	EdgeCallFallthrough
	// EdgeReturnCombine leaves a CallReturn node into the return block.
	EdgeReturnCombine
)

var edgeKindNames = [...]string{
	EdgeBlock:           "Block",
	EdgeJump:            "Jump",
	EdgeCall:            "Call",
	EdgeExternCallStub:  "ExternCallStub",
	EdgeCallReturnStub:  "CallReturnStub",
	EdgeCallFallthrough: "CallFallthrough",
	EdgeReturnCombine:   "ReturnCombine",
}

func (k EdgeKind) String() string {
	if k < 0 || int(k) >= len(edgeKindNames) {
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
	return edgeKindNames[k]
}

// An Edge is a transition between two program points.
type Edge struct {
	F    *Node
	T    *Node
	Kind EdgeKind

	// Jmp is the control transfer labeling the edge; nil for EdgeBlock,
	// EdgeCallFallthrough and EdgeReturnCombine.
	Jmp *ir.Term[ir.Jmp]

	// Untaken is the conditional jump that was not taken when this edge is
	// the fallthrough of a conditional branch.
	Untaken *ir.Term[ir.Jmp]
}

// From implements gonum's graph.Edge.
func (e *Edge) From() graph.Node { return e.F }

// To implements gonum's graph.Edge.
func (e *Edge) To() graph.Node { return e.T }

// ReversedEdge implements gonum's graph.Edge.
func (e *Edge) ReversedEdge() graph.Edge {
	r := *e
	r.F, r.T = e.T, e.F
	return &r
}

// A Graph is the interprocedural control-flow graph. Node IDs are dense,
// starting at zero.
type Graph struct {
	nodes []*Node
	out   map[int64][]*Edge
	in    map[int64][]*Edge
}

// NodeList returns all nodes in ID order.
func (g *Graph) NodeList() []*Node {
	return g.nodes
}

// BlockStart returns the BlkStart node of the block with the given Tid,
// or nil when the block is not part of the graph.
func (g *Graph) BlockStart(tid ir.Tid) *Node {
	for _, n := range g.nodes {
		if n.Kind == BlkStart && n.Block.Tid == tid {
			return n
		}
	}
	return nil
}

// OutEdges returns the edges leaving n.
func (g *Graph) OutEdges(n *Node) []*Edge {
	return g.out[n.id]
}

// InEdges returns the edges entering n.
func (g *Graph) InEdges(n *Node) []*Edge {
	return g.in[n.id]
}

// Node implements gonum's graph.Graph.
func (g *Graph) Node(id int64) graph.Node {
	if id < 0 || id >= int64(len(g.nodes)) {
		return nil
	}
	return g.nodes[id]
}

// Nodes implements gonum's graph.Graph.
func (g *Graph) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(g.nodes))
	for i, n := range g.nodes {
		nodes[i] = n
	}
	return iterator.NewOrderedNodes(nodes)
}

// From implements gonum's graph.Graph.
func (g *Graph) From(id int64) graph.Nodes {
	var nodes []graph.Node
	for _, e := range g.out[id] {
		nodes = append(nodes, e.T)
	}
	return iterator.NewOrderedNodes(nodes)
}

// To implements gonum's graph.Directed.
func (g *Graph) To(id int64) graph.Nodes {
	var nodes []graph.Node
	for _, e := range g.in[id] {
		nodes = append(nodes, e.F)
	}
	return iterator.NewOrderedNodes(nodes)
}

// Edge implements gonum's graph.Graph.
func (g *Graph) Edge(uid, vid int64) graph.Edge {
	for _, e := range g.out[uid] {
		if e.T.id == vid {
			return e
		}
	}
	return nil
}

// HasEdgeBetween implements gonum's graph.Graph.
func (g *Graph) HasEdgeBetween(xid, yid int64) bool {
	return g.Edge(xid, yid) != nil || g.Edge(yid, xid) != nil
}

// HasEdgeFromTo implements gonum's graph.Directed.
func (g *Graph) HasEdgeFromTo(uid, vid int64) bool {
	return g.Edge(uid, vid) != nil
}

// Order implements the Iterator interface of yourbasic/graph.
func (g *Graph) Order() int {
	return len(g.nodes)
}

// Visit implements the Iterator interface of yourbasic/graph.
func (g *Graph) Visit(v int, do func(w int, c int64) bool) bool {
	for _, e := range g.out[int64(v)] {
		if do(int(e.T.id), 1) {
			return true
		}
	}
	return false
}

func (g *Graph) addNode(n *Node) *Node {
	n.id = int64(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return n
}

func (g *Graph) addEdge(e *Edge) {
	g.out[e.F.id] = append(g.out[e.F.id], e)
	g.in[e.T.id] = append(g.in[e.T.id], e)
}
