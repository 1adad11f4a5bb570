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

// Statement is one top-level entry of an abstract Manifest: a rule
// definition, a build edge, a top-level binding, or an include/subninja/
// default directive. The parser produces these with zero evaluation; the
// resolver is the only component that expands a Value.
type Statement interface {
	statement()
}

// RuleDef is a `rule NAME` block and its indented bindings.
type RuleDef struct {
	Name     string
	Bindings map[string]*Value
}

func (*RuleDef) statement() {}

// BuildEdge is a `build OUTS: RULE INS` line and its indented bindings.
// Order-only inputs are deliberately not represented: the parser consumes
// and discards them (spec'd as "parsed but ignored").
type BuildEdge struct {
	Rule           string
	ExplicitOuts   []*Value
	ImplicitOuts   []*Value
	ExplicitIns    []*Value
	ImplicitIns    []*Value
	Bindings       map[string]*Value
	Offset         int
}

func (*BuildEdge) statement() {}

// Binding is a top-level `NAME = VALUE` line.
type Binding struct {
	Name  string
	Value *Value
}

func (*Binding) statement() {}

// IncludeStmt is `include PATH`: the named file's statements are injected
// into the current scope.
type IncludeStmt struct {
	Path   *Value
	Offset int
}

func (*IncludeStmt) statement() {}

// SubninjaStmt is `subninja PATH`: the named file's statements are parsed
// into a fresh child scope.
type SubninjaStmt struct {
	Path   *Value
	Offset int
}

func (*SubninjaStmt) statement() {}

// DefaultStmt is `default NAMES…`.
type DefaultStmt struct {
	Targets []*Value
	Offset  int
}

func (*DefaultStmt) statement() {}

// Manifest is the parser's output for a single file: an ordered, unresolved
// sequence of statements.
type Manifest struct {
	Path       string
	Statements []Statement
}
