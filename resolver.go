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

import (
	"path"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Resolver turns a root manifest file into a build graph: it follows
// include/subninja directives, evaluates every binding and rule template
// in its proper scope, and assembles the resulting edges.
type Resolver struct {
	disk FileReader
	warn func(string, ...interface{})
}

func NewResolver(disk FileReader, warn func(string, ...interface{})) *Resolver {
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}
	return &Resolver{disk: disk, warn: warn}
}

// pendingSubninja is a subninja statement whose file is being read and
// parsed concurrently with the rest of its declaring manifest. Its child
// scope is created synchronously, at the point the statement is reached, on
// top of a copy of the declaring scope's bindings and rules as they stand
// then, so that later bindings in the declaring manifest can never leak into it;
// only the (expensive) I/O and parsing happen off the main walk.
type pendingSubninja struct {
	path  string
	scope *BindingEnv
	m     *Manifest
}

// Resolve parses rootPath and everything it includes/subninjas, and
// returns the assembled build graph.
func (r *Resolver) Resolve(rootPath string) (*Graph, error) {
	g := NewGraph()
	root := NewBindingEnv(nil)
	var defaultNames []string
	seen := map[string]bool{}

	if err := r.loadManifest(rootPath, root, g, &defaultNames, seen); err != nil {
		return nil, err
	}

	if v, ok := root.Bindings["ninja_required_version"]; ok {
		if err := CheckRequiredVersion(v, r.warn); err != nil {
			return nil, err
		}
	}

	var defaultNodes []*Node
	for _, name := range defaultNames {
		n := g.LookupNode(name)
		if n == nil {
			return nil, &UnknownTargetError{Target: name, DidYouMean: spellcheck(g, name)}
		}
		defaultNodes = append(defaultNodes, n)
	}
	g.SetDefaults(defaultNodes)
	return g, nil
}

func spellcheck(g *Graph, name string) string {
	if n := g.SpellcheckNode(name); n != nil {
		return n.Path
	}
	return ""
}

func (r *Resolver) loadManifest(path string, scope *BindingEnv, g *Graph, defaultNames *[]string, seen map[string]bool) error {
	buf, err := r.disk.ReadFile(path)
	if err != nil {
		return &ResolveError{Kind: IncludeError, Path: path, Detail: "reading manifest", Err: err}
	}
	m, err := ParseManifest(path, buf)
	if err != nil {
		return &ResolveError{Kind: IncludeError, Path: path, Detail: "parsing manifest", Err: err}
	}
	return r.applyManifest(m, path, scope, g, defaultNames, seen)
}

func (r *Resolver) applyManifest(m *Manifest, manifestPath string, scope *BindingEnv, g *Graph, defaultNames *[]string, seen map[string]bool) error {
	dir := path.Dir(manifestPath)
	var group errgroup.Group
	var pending []*pendingSubninja

	for _, stmt := range m.Statements {
		switch st := stmt.(type) {
		case *RuleDef:
			scope.Rules[st.Name] = &Rule{Name: st.Name, Bindings: st.Bindings}

		case *Binding:
			scope.Bindings[st.Name] = st.Value.Evaluate(scope)

		case *BuildEdge:
			if err := r.resolveEdge(st, scope, g); err != nil {
				return err
			}

		case *DefaultStmt:
			for _, v := range st.Targets {
				name := v.Evaluate(scope)
				if !seen[name] {
					seen[name] = true
					*defaultNames = append(*defaultNames, name)
				}
			}

		case *IncludeStmt:
			incPath := path.Join(dir, st.Path.Evaluate(scope))
			if err := r.loadManifest(incPath, scope, g, defaultNames, seen); err != nil {
				return err
			}

		case *SubninjaStmt:
			subPath := path.Join(dir, st.Path.Evaluate(scope))
			snapshot := &BindingEnv{Bindings: map[string]string{}, Rules: map[string]*Rule{}, Parent: scope.Parent}
			for k, v := range scope.Bindings {
				snapshot.Bindings[k] = v
			}
			for k, v := range scope.Rules {
				snapshot.Rules[k] = v
			}
			ps := &pendingSubninja{path: subPath, scope: NewBindingEnv(snapshot)}
			pending = append(pending, ps)
			group.Go(func() error {
				buf, err := r.disk.ReadFile(ps.path)
				if err != nil {
					return &ResolveError{Kind: IncludeError, Path: ps.path, Detail: "reading manifest", Err: err}
				}
				sm, err := ParseManifest(ps.path, buf)
				if err != nil {
					return &ResolveError{Kind: IncludeError, Path: ps.path, Detail: "parsing manifest", Err: err}
				}
				ps.m = sm
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return err
	}
	for _, ps := range pending {
		if err := r.applyManifest(ps.m, ps.path, ps.scope, g, defaultNames, seen); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveEdge(st *BuildEdge, scope *BindingEnv, g *Graph) error {
	rule := scope.LookupRule(st.Rule)
	if rule == nil {
		return &ResolveError{Kind: UnknownRule, Detail: st.Rule}
	}

	explicitOuts := evaluateAll(st.ExplicitOuts, scope)
	implicitOuts := evaluateAll(st.ImplicitOuts, scope)
	explicitIns := evaluateAll(st.ExplicitIns, scope)
	implicitIns := evaluateAll(st.ImplicitIns, scope)

	explicitOutNodes := nodesFor(g, explicitOuts)
	outNodes := append(append([]*Node{}, explicitOutNodes...), nodesFor(g, implicitOuts)...)
	explicitInNodes := nodesFor(g, explicitIns)
	inNodes := append(append([]*Node{}, explicitInNodes...), nodesFor(g, implicitIns)...)

	edgeScope := NewBindingEnv(scope)
	for name, v := range st.Bindings {
		edgeScope.Bindings[name] = v.Evaluate(scope)
	}
	edgeScope.Bindings["in"] = strings.Join(explicitIns, " ")
	edgeScope.Bindings["out"] = strings.Join(explicitOuts, " ")

	command := edgeScope.LookupWithFallback("command", rule.Bindings["command"], edgeScope)
	if command == "" {
		return &ResolveError{Kind: MissingCommand, Detail: st.Rule}
	}
	description := edgeScope.LookupWithFallback("description", rule.Bindings["description"], edgeScope)

	edge := NewEdge(st.Rule)
	edge.ExplicitOutputs = explicitOutNodes
	edge.Outputs = outNodes
	edge.ExplicitInputs = explicitInNodes
	edge.Inputs = inNodes
	edge.Command = command
	edge.Description = description
	return g.AddEdge(edge)
}

func evaluateAll(vals []*Value, env Env) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.Evaluate(env)
	}
	return out
}

func nodesFor(g *Graph, paths []string) []*Node {
	nodes := make([]*Node, len(paths))
	for i, p := range paths {
		nodes[i] = g.GetNode(p)
	}
	return nodes
}
