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
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"
)

// Reachable returns the nodes reachable from start, including start itself,
// in breadth-first order.
func Reachable(g *Graph, start *Node) []*Node {
	var reached []*Node
	bfs := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			reached = append(reached, n.(*Node))
		},
	}
	bfs.Walk(g, start, nil)
	return reached
}
