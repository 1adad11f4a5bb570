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

// TokenKind identifies the lexical category of a Token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenNewline
	TokenIdent
	TokenIndent
	TokenEquals
	TokenColon
	TokenPipe  // |
	TokenPipe2 // ||
	TokenText  // a fragment of an unparsed value: literal text or a $-reference
	TokenError
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "eof"
	case TokenNewline:
		return "newline"
	case TokenIdent:
		return "identifier"
	case TokenIndent:
		return "indent"
	case TokenEquals:
		return "'='"
	case TokenColon:
		return "':'"
	case TokenPipe:
		return "'|'"
	case TokenPipe2:
		return "'||'"
	case TokenText:
		return "text"
	case TokenError:
		return "lexing error"
	}
	return "?"
}

// Token is a single lexical unit, tagged with its byte offset in the
// manifest for diagnostics.
type Token struct {
	Kind   TokenKind
	Text   string // identifier name, or error message for TokenError
	Offset int
}

// EvalFragment is one piece of an as-yet-unexpanded value: either literal
// text or the name of a variable to substitute (from $name, ${name} or the
// literal produced by $$).
type EvalFragment struct {
	Text      string
	IsVariable bool
}

// Value is a sequence of literal and variable-reference fragments, read by
// the lexer for one RHS of a `key = value` line, a path in an `outs`/`ins`
// list, or a `default`/`include`/`subninja` argument. It is expanded later,
// against whatever scope is active at the point of use.
type Value struct {
	Fragments []EvalFragment
}

func (v *Value) addText(s string) {
	if s == "" {
		return
	}
	v.Fragments = append(v.Fragments, EvalFragment{Text: s})
}

func (v *Value) addVariable(name string) {
	v.Fragments = append(v.Fragments, EvalFragment{Text: name, IsVariable: true})
}

// Evaluate expands the value against env, substituting each variable
// fragment with env.LookupVariable. Unresolved names expand to "".
func (v *Value) Evaluate(env Env) string {
	if len(v.Fragments) == 1 && !v.Fragments[0].IsVariable {
		return v.Fragments[0].Text
	}
	out := ""
	for _, f := range v.Fragments {
		if f.IsVariable {
			out += env.LookupVariable(f.Text)
		} else {
			out += f.Text
		}
	}
	return out
}

// Unparse writes the value back out in manifest syntax, unexpanded:
// variable references as ${name}, and '$', ' ' and ':' in literal text
// escaped, so that lexing the result again yields the same fragments.
func (v *Value) Unparse() string {
	out := ""
	for _, f := range v.Fragments {
		if f.IsVariable {
			out += "${" + f.Text + "}"
			continue
		}
		for i := 0; i < len(f.Text); i++ {
			if c := f.Text[i]; c == '$' || c == ' ' || c == ':' {
				out += "$"
			}
			out += f.Text[i : i+1]
		}
	}
	return out
}
