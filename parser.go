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

// parser turns one manifest file's bytes into an abstract Manifest. It
// performs no variable expansion and does not follow include/subninja
// statements itself; that is the resolver's job.
type parser struct {
	path string
	lex  *lexer
	m    *Manifest
}

// ParseManifest parses the bytes of a single manifest file into its
// abstract statement sequence.
func ParseManifest(path string, buf []byte) (*Manifest, error) {
	p := &parser{
		path: path,
		lex:  newLexer(path, buf),
		m:    &Manifest{Path: path},
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.m, nil
}

func (p *parser) errorf(offset int, format string, a ...interface{}) *ParseError {
	return &ParseError{Path: p.path, Offset: offset, Reason: fmt.Sprintf(format, a...)}
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok, err := p.lex.ReadToken()
	if err != nil {
		return tok, err
	}
	if tok.Kind != kind {
		return tok, p.errorf(tok.Offset, "expected %s, got %s", kind, tok.Kind)
	}
	return tok, nil
}

func (p *parser) parse() error {
	for {
		tok, err := p.lex.ReadToken()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case TokenEOF:
			return nil
		case TokenNewline:
			continue
		case TokenIndent:
			return p.errorf(tok.Offset, "unexpected indent outside of a block")
		case TokenIdent:
			if err := p.parseStatement(tok); err != nil {
				return err
			}
		default:
			return p.errorf(tok.Offset, "unexpected %s", tok.Kind)
		}
	}
}

func (p *parser) parseStatement(tok Token) error {
	switch tok.Text {
	case "rule":
		return p.parseRule(tok.Offset)
	case "build":
		return p.parseBuild(tok.Offset)
	case "default":
		return p.parseDefault(tok.Offset)
	case "include":
		return p.parseInclude(tok.Offset)
	case "subninja":
		return p.parseSubninja(tok.Offset)
	default:
		return p.parseBinding(tok)
	}
}

// parseBindingBlock consumes the indented `name = value` lines that follow
// a `rule`/`build` header, stopping at the first non-indented token (a
// blank line or the next top-level statement both end the block).
func (p *parser) parseBindingBlock() (map[string]*Value, error) {
	bindings := map[string]*Value{}
	for p.lex.PeekToken(TokenIndent) {
		offset := p.lex.pos
		name := p.lex.readIdent()
		if name == "" {
			return nil, p.errorf(offset, "expected variable name")
		}
		if _, err := p.expect(TokenEquals); err != nil {
			return nil, err
		}
		val, err := p.lex.readValue(false)
		if err != nil {
			return nil, err
		}
		bindings[name] = &val
	}
	return bindings, nil
}

func (p *parser) parseRule(offset int) error {
	name := p.lex.readIdent()
	if name == "" {
		return p.errorf(offset, "expected rule name")
	}
	if _, err := p.expect(TokenNewline); err != nil {
		return err
	}
	bindings, err := p.parseBindingBlock()
	if err != nil {
		return err
	}
	if _, ok := bindings["command"]; !ok {
		return p.errorf(offset, "rule %q has no command", name)
	}
	p.m.Statements = append(p.m.Statements, &RuleDef{Name: name, Bindings: bindings})
	return nil
}

// readValueList repeatedly calls readValue(true) and returns the non-empty
// results, stopping (without consuming) at the first terminator.
func (p *parser) readValueList() ([]*Value, error) {
	var out []*Value
	for {
		v, err := p.lex.readValue(true)
		if err != nil {
			return nil, err
		}
		if len(v.Fragments) == 0 {
			return out, nil
		}
		out = append(out, &v)
	}
}

func (p *parser) parseBuild(offset int) error {
	outs, err := p.readValueList()
	if err != nil {
		return err
	}
	if len(outs) == 0 {
		return p.errorf(offset, "expected output path after build")
	}
	var implicitOuts []*Value
	if p.lex.PeekToken(TokenPipe) {
		if implicitOuts, err = p.readValueList(); err != nil {
			return err
		}
	}
	if _, err := p.expect(TokenColon); err != nil {
		return err
	}
	rule := p.lex.readIdent()
	if rule == "" {
		return p.errorf(offset, "expected rule name after ':'")
	}
	ins, err := p.readValueList()
	if err != nil {
		return err
	}
	var implicitIns []*Value
	if p.lex.PeekToken(TokenPipe) {
		if implicitIns, err = p.readValueList(); err != nil {
			return err
		}
	}
	if p.lex.PeekToken(TokenPipe2) {
		// Order-only inputs are accepted syntactically and discarded: this
		// tool has no notion of a dependency that doesn't gate staleness.
		if _, err := p.readValueList(); err != nil {
			return err
		}
	}
	if _, err := p.expect(TokenNewline); err != nil {
		return err
	}
	bindings, err := p.parseBindingBlock()
	if err != nil {
		return err
	}
	p.m.Statements = append(p.m.Statements, &BuildEdge{
		Rule:         rule,
		ExplicitOuts: outs,
		ImplicitOuts: implicitOuts,
		ExplicitIns:  ins,
		ImplicitIns:  implicitIns,
		Bindings:     bindings,
		Offset:       offset,
	})
	return nil
}

func (p *parser) parseDefault(offset int) error {
	targets, err := p.readValueList()
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return p.errorf(offset, "expected target name after default")
	}
	if _, err := p.expect(TokenNewline); err != nil {
		return err
	}
	p.m.Statements = append(p.m.Statements, &DefaultStmt{Targets: targets, Offset: offset})
	return nil
}

func (p *parser) parseInclude(offset int) error {
	path, err := p.lex.readValue(false)
	if err != nil {
		return err
	}
	if len(path.Fragments) == 0 {
		return p.errorf(offset, "expected path after include")
	}
	p.m.Statements = append(p.m.Statements, &IncludeStmt{Path: &path, Offset: offset})
	return nil
}

func (p *parser) parseSubninja(offset int) error {
	path, err := p.lex.readValue(false)
	if err != nil {
		return err
	}
	if len(path.Fragments) == 0 {
		return p.errorf(offset, "expected path after subninja")
	}
	p.m.Statements = append(p.m.Statements, &SubninjaStmt{Path: &path, Offset: offset})
	return nil
}

func (p *parser) parseBinding(tok Token) error {
	if _, err := p.expect(TokenEquals); err != nil {
		return err
	}
	val, err := p.lex.readValue(false)
	if err != nil {
		return err
	}
	p.m.Statements = append(p.m.Statements, &Binding{Name: tok.Text, Value: &val})
	return nil
}
