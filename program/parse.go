// Copyright 2024 The go-shielded Authors
// This file is part of the go-shielded library.
//
// The go-shielded library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-shielded library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-shielded library. If not, see <http://www.gnu.org/licenses/>.

package program

import (
	"fmt"
	"strings"

	"github.com/probechain/go-shielded/params"
)

// Fields splits s around runs of whitespace like strings.Fields, except that
// double-quoted string literals are kept whole.
func Fields(s string) ([]string, error) {
	var (
		out   []string
		start = -1
		quote bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote:
			if c == '\\' {
				i++
			} else if c == '"' {
				quote = false
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
		default:
			if start < 0 {
				start = i
			}
			if c == '"' {
				quote = true
			}
		}
	}
	if quote {
		return nil, fmt.Errorf("%w: unterminated string literal", ErrParse)
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out, nil
}

// scanner walks the tokens of a program text.
type scanner struct {
	toks []string
	pos  int
}

func newScanner(src string) (*scanner, error) {
	var b strings.Builder
	for _, line := range strings.Split(src, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		// Separators are tokens of their own.
		line = strings.ReplaceAll(line, ";", " ; ")
		line = strings.ReplaceAll(line, ":", " : ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	toks, err := Fields(b.String())
	if err != nil {
		return nil, err
	}
	return &scanner{toks: toks}, nil
}

func (s *scanner) done() bool { return s.pos >= len(s.toks) }

func (s *scanner) peek() string {
	if s.done() {
		return ""
	}
	return s.toks[s.pos]
}

func (s *scanner) next() (string, error) {
	if s.done() {
		return "", fmt.Errorf("%w: unexpected end of program", ErrParse)
	}
	tok := s.toks[s.pos]
	s.pos++
	return tok, nil
}

func (s *scanner) expect(want string) error {
	tok, err := s.next()
	if err != nil {
		return err
	}
	if tok != want {
		return fmt.Errorf("%w: expected %q, found %q", ErrParse, want, tok)
	}
	return nil
}

// declaration reads `<name> as <type> ;` and returns name and type text.
func (s *scanner) declaration() (string, string, error) {
	name, err := s.next()
	if err != nil {
		return "", "", err
	}
	if err := s.expect("as"); err != nil {
		return "", "", err
	}
	typ, err := s.next()
	if err != nil {
		return "", "", err
	}
	return name, typ, s.expect(";")
}

// Parse reads a program declaration:
//
//	program token.aleo;
//
//	interface point:
//	    x as field;
//	    y as field;
//
//	record token:
//	    owner as address.private;
//	    balance as u64.private;
//	    amount as u64.public;
func Parse(net *params.Network, src string) (*Program, error) {
	s, err := newScanner(src)
	if err != nil {
		return nil, err
	}
	if err := s.expect("program"); err != nil {
		return nil, err
	}
	id, err := s.next()
	if err != nil {
		return nil, err
	}
	if err := s.expect(";"); err != nil {
		return nil, err
	}
	prog, err := New(net, id)
	if err != nil {
		return nil, err
	}
	for !s.done() {
		kind, _ := s.next()
		name, err := s.next()
		if err != nil {
			return nil, err
		}
		if err := s.expect(":"); err != nil {
			return nil, err
		}
		switch kind {
		case "interface":
			iface, err := parseInterface(net, s, name)
			if err != nil {
				return nil, err
			}
			if err := prog.AddInterface(iface); err != nil {
				return nil, err
			}
		case "record":
			rec, err := parseRecordType(net, s, name)
			if err != nil {
				return nil, err
			}
			if err := prog.AddRecord(rec); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unexpected %q, want interface or record", ErrParse, kind)
		}
	}
	return prog, nil
}

func atDefinition(s *scanner) bool {
	tok := s.peek()
	return tok == "" || tok == "interface" || tok == "record"
}

func parseInterface(net *params.Network, s *scanner, name string) (*Interface, error) {
	iface := &Interface{Name: name}
	for !atDefinition(s) {
		member, typ, err := s.declaration()
		if err != nil {
			return nil, err
		}
		pt, err := ParsePlaintextType(net, typ)
		if err != nil {
			return nil, err
		}
		iface.Members = append(iface.Members, MemberType{Name: member, Type: pt})
	}
	return iface, nil
}

func parseRecordType(net *params.Network, s *scanner, name string) (*RecordType, error) {
	rec := &RecordType{Name: name}

	// Owner and balance come first, in that order.
	for _, field := range []struct {
		name string
		typ  PlaintextType
		vis  *Visibility
	}{
		{OwnerName, LiteralPlaintext(LitAddress), &rec.Owner},
		{BalanceName, LiteralPlaintext(LitU64), &rec.Balance},
	} {
		got, typ, err := s.declaration()
		if err != nil {
			return nil, err
		}
		if got != field.name {
			return nil, fmt.Errorf("%w: record %q must declare %s, found %q", ErrParse, name, field.name, got)
		}
		vt, err := ParseValueType(net, typ)
		if err != nil {
			return nil, err
		}
		pt, _ := vt.Plaintext()
		vis, ok := vt.Visibility()
		if !ok || pt != field.typ || vis == Constant {
			return nil, fmt.Errorf("%w: record %q %s must be %s.public or %s.private", ErrParse, name, field.name, field.typ, field.typ)
		}
		*field.vis = vis
	}
	for !atDefinition(s) {
		entry, typ, err := s.declaration()
		if err != nil {
			return nil, err
		}
		vt, err := ParseValueType(net, typ)
		if err != nil {
			return nil, err
		}
		if vt.IsRecord() {
			return nil, fmt.Errorf("%w: record entry %q cannot hold a record", ErrParse, entry)
		}
		pt, _ := vt.Plaintext()
		vis, _ := vt.Visibility()
		rec.Entries = append(rec.Entries, EntryDecl{Name: entry, Type: EntryType{Mode: vis, Type: pt}})
	}
	return rec, nil
}
