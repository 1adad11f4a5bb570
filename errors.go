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

// LexError is raised by the lexer on malformed escapes, unterminated
// ${...}, or any other byte sequence it cannot tokenize.
type LexError struct {
	Path   string
	Offset int
	Reason string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Offset, e.Reason)
}

// ParseError is raised by the parser on an unknown statement, a build edge
// with no rule name, a rule with no command binding, or a binding line
// found outside any block.
type ParseError struct {
	Path   string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Offset, e.Reason)
}

// ResolveKind distinguishes the ways resolution can fail.
type ResolveKind int

const (
	IncludeError ResolveKind = iota
	DuplicateOutput
	UnknownRule
	MissingCommand
)

func (k ResolveKind) String() string {
	switch k {
	case IncludeError:
		return "include error"
	case DuplicateOutput:
		return "duplicate output"
	case UnknownRule:
		return "unknown rule"
	case MissingCommand:
		return "rule has no command"
	}
	return "resolve error"
}

// ResolveError is raised by the resolver while turning the abstract
// manifest into a build graph.
type ResolveError struct {
	Kind   ResolveKind
	Path   string
	Detail string
	Err    error // wrapped cause, e.g. the LexError/ParseError of an included file
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Path, e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, e.Detail)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// UnknownTargetError is raised when a requested or default target does not
// name any node in the build graph.
type UnknownTargetError struct {
	Target      string
	DidYouMean  string
}

func (e *UnknownTargetError) Error() string {
	if e.DidYouMean != "" {
		return fmt.Sprintf("unknown target %q, did you mean %q?", e.Target, e.DidYouMean)
	}
	return fmt.Sprintf("unknown target %q", e.Target)
}

// MissingSourceError is raised when an edge's input is neither produced by
// another edge nor present on disk.
type MissingSourceError struct {
	Path string
	For  string // the output the edge was trying to produce
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("%s: missing and no known rule to make it (needed by %s)", e.Path, e.For)
}

// CommandFailedError wraps a non-zero exit from an edge's command.
type CommandFailedError struct {
	Edge     string // representative output, for diagnostics
	Command  string
	ExitCode int
	Err      error // non-nil only for a SpawnError being reported as CommandFailed
}

func (e *CommandFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to spawn %q: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: command %q exited with code %d", e.Edge, e.Command, e.ExitCode)
}

func (e *CommandFailedError) Unwrap() error { return e.Err }

// SpawnError is raised by a Runner when the command could not even be
// started (missing shell, etc). The scheduler treats it identically to a
// CommandFailedError.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
