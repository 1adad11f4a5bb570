// Copyright 2011 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nin

import "fmt"

// Node is a file in the dependency graph: either the output of some Edge,
// or a source (leaf) that must already exist on disk.
type Node struct {
	Path string

	mtime    TimeStamp
	statDone bool

	// InEdge is the edge that produces this node, or nil if it's a source.
	InEdge *Edge

	// OutEdges are the edges that use this node as an input.
	OutEdges []*Edge
}

func NewNode(path string) *Node {
	return &Node{Path: path}
}

// Stat populates the node's cached mtime from disk, memoized per node. The
// scheduler clears the memo for an edge's outputs once that edge's command
// has run, so the next Stat reads the rewritten file.
func (n *Node) Stat(disk DiskInterface) error {
	if n.statDone {
		return nil
	}
	t, err := disk.Stat(n.Path)
	if err != nil {
		return err
	}
	n.mtime = t
	n.statDone = true
	return nil
}

// Mtime returns the node's modification time. Stat must have been called
// first.
func (n *Node) Mtime() TimeStamp { return n.mtime }

// Exists reports whether the node's file is present on disk.
func (n *Node) Exists() bool { return n.mtime != 0 }

// Edge is a resolved build edge: one rule invocation with fully expanded
// command and description strings and concrete input/output nodes. Nothing
// about it needs further evaluation; the scheduler only reads it.
type Edge struct {
	Rule string

	ExplicitOutputs []*Node
	Outputs         []*Node // explicit, then implicit

	ExplicitInputs []*Node
	Inputs         []*Node // explicit, then implicit

	Command     string
	Description string
}

func NewEdge(rule string) *Edge {
	return &Edge{Rule: rule}
}

func (e *Edge) String() string {
	outs := ""
	for _, o := range e.Outputs {
		outs += " " + o.Path
	}
	return fmt.Sprintf("build%s: %s", outs, e.Rule)
}

// Graph is the build graph assembled by the resolver: a file index keyed by
// path and the full edge list, in declaration order.
type Graph struct {
	nodes    map[string]*Node
	edges    []*Edge
	defaults []*Node
}

func NewGraph() *Graph {
	return &Graph{nodes: map[string]*Node{}}
}

// GetNode returns the node for path, creating a (so far source) node if
// this is the first time it's mentioned.
func (g *Graph) GetNode(path string) *Node {
	if n, ok := g.nodes[path]; ok {
		return n
	}
	n := NewNode(path)
	g.nodes[path] = n
	return n
}

// LookupNode returns the node for path, or nil if the graph has never seen
// that path.
func (g *Graph) LookupNode(path string) *Node {
	return g.nodes[path]
}

// AddEdge registers a resolved edge's outputs and inputs in the graph. It
// fails if any output is already produced by another edge.
func (g *Graph) AddEdge(e *Edge) error {
	for _, o := range e.Outputs {
		if o.InEdge != nil {
			return &ResolveError{Kind: DuplicateOutput, Detail: o.Path}
		}
	}
	for _, o := range e.Outputs {
		o.InEdge = e
	}
	for _, i := range e.Inputs {
		i.OutEdges = append(i.OutEdges, e)
	}
	g.edges = append(g.edges, e)
	return nil
}

func (g *Graph) Edges() []*Edge { return g.edges }

// SetDefaults records the deduplicated, declaration-ordered list of
// `default` targets.
func (g *Graph) SetDefaults(nodes []*Node) { g.defaults = nodes }

// DefaultNodes returns the explicit default target list if any, otherwise
// the set of outputs that are nobody's input.
func (g *Graph) DefaultNodes() []*Node {
	if len(g.defaults) != 0 {
		return g.defaults
	}
	var roots []*Node
	seen := map[*Node]bool{}
	for _, e := range g.edges {
		for _, o := range e.Outputs {
			if len(o.OutEdges) == 0 && !seen[o] {
				seen[o] = true
				roots = append(roots, o)
			}
		}
	}
	return roots
}

// SpellcheckNode finds the closest known path to an unknown target, for an
// UnknownTargetError's "did you mean" hint. Returns nil if nothing is close
// enough to be a plausible typo.
func (g *Graph) SpellcheckNode(path string) *Node {
	const maxValidEditDistance = 3
	minDistance := maxValidEditDistance + 1
	var result *Node
	for p, node := range g.nodes {
		distance := editDistance(p, path, true, maxValidEditDistance)
		if distance < minDistance {
			minDistance = distance
			result = node
		}
	}
	return result
}
