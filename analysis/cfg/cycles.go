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
	"github.com/yourbasic/graph"
)

// LoopNodes returns the nodes taking part in a cycle of the graph: the
// members of strongly connected components of size two or more, plus
// self-loops. These are the program points where the fixpoint solver has
// to iterate until convergence; an acyclic graph converges in one pass.
func LoopNodes(g *Graph) []*Node {
	var loops []*Node
	for _, component := range graph.StrongComponents(g) {
		if len(component) >= 2 {
			for _, v := range component {
				loops = append(loops, g.nodes[v])
			}
			continue
		}
		v := component[0]
		if g.HasEdgeFromTo(int64(v), int64(v)) {
			loops = append(loops, g.nodes[v])
		}
	}
	return loops
}
