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

import "sort"

// Env is a scope for variable (e.g. "$foo") lookups.
type Env interface {
	LookupVariable(v string) string
}

// IsReservedBinding reports whether v is one of the rule-binding names the
// resolver gives special meaning to. Every other binding is just data
// carried along for expansion.
func IsReservedBinding(v string) bool {
	return v == "command" || v == "description"
}

// Rule is an invocable build command and its associated metadata
// (description, etc), keyed by unexpanded Value so that expansion happens
// once per edge, in the edge's own scope.
type Rule struct {
	Name     string
	Bindings map[string]*Value
}

func NewRule(name string) *Rule {
	return &Rule{Name: name, Bindings: map[string]*Value{}}
}

func (r *Rule) String() string {
	out := "Rule:" + r.Name + "{"
	names := make([]string, 0, len(r.Bindings))
	for n := range r.Bindings {
		names = append(names, n)
	}
	sort.Strings(names)
	for i, n := range names {
		if i != 0 {
			out += ","
		}
		out += n + ":" + r.Bindings[n].Unparse()
	}
	out += "}"
	return out
}

// BindingEnv is an Env backed by a mapping of variables to already-expanded
// string values, plus a map of rule definitions, and a pointer to a parent
// scope. It is the runtime representation of one manifest-local or
// edge-local frame in the scope chain described by the resolver.
type BindingEnv struct {
	Bindings map[string]string
	Rules    map[string]*Rule
	Parent   *BindingEnv
}

func NewBindingEnv(parent *BindingEnv) *BindingEnv {
	return &BindingEnv{
		Bindings: map[string]string{},
		Rules:    map[string]*Rule{},
		Parent:   parent,
	}
}

func (b *BindingEnv) String() string {
	out := "BindingEnv{"
	if b.Parent != nil {
		out += "(has parent)"
	}
	out += "\n  Bindings:"
	names := make([]string, 0, len(b.Bindings))
	for n := range b.Bindings {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		out += "\n    " + n + ":" + b.Bindings[n]
	}
	out += "\n  Rules:"
	names = make([]string, 0, len(b.Rules))
	for n := range b.Rules {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		out += "\n    " + n + ":" + b.Rules[n].String()
	}
	out += "\n}"
	return out
}

func (b *BindingEnv) LookupVariable(v string) string {
	if i, ok := b.Bindings[v]; ok {
		return i
	}
	if b.Parent != nil {
		return b.Parent.LookupVariable(v)
	}
	return ""
}

func (b *BindingEnv) LookupRule(ruleName string) *Rule {
	if i := b.Rules[ruleName]; i != nil {
		return i
	}
	if b.Parent != nil {
		return b.Parent.LookupRule(ruleName)
	}
	return nil
}

// LookupWithFallback resolves a rule-level binding in the order the
// resolver's edge expansion requires:
//  1. a value set on the edge itself (b.Bindings)
//  2. a value set on the rule, expanded in the edge's own scope (env)
//  3. a value set on an enclosing scope (b.Parent)
func (b *BindingEnv) LookupWithFallback(v string, eval *Value, env Env) string {
	if i, ok := b.Bindings[v]; ok {
		return i
	}
	if eval != nil {
		return eval.Evaluate(env)
	}
	if b.Parent != nil {
		return b.Parent.LookupVariable(v)
	}
	return ""
}
