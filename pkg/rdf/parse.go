// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package rdf

import (
	"fmt"
	"strings"
)

// ParseTerm decodes a term from its N-Triples form as produced by
// Term.String. It accepts exactly the three variants: <iri>, _:id, and
// "literal" with an optional @lang or ^^<datatype> suffix.
func ParseTerm(s string) (Term, error) {
	switch {
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
		return NamedNode(s[1 : len(s)-1]), nil

	case strings.HasPrefix(s, "_:"):
		id := s[2:]
		if id == "" {
			return Term{}, fmt.Errorf("parse term: empty blank node id")
		}
		return Term{Kind: KindBlankNode, Value: id}, nil

	case strings.HasPrefix(s, `"`):
		end := closingQuote(s)
		if end < 0 {
			return Term{}, fmt.Errorf("parse term: unterminated literal %q", s)
		}
		value := unescapeLiteral(s[1:end])
		rest := s[end+1:]
		switch {
		case rest == "":
			return Literal(value), nil
		case strings.HasPrefix(rest, "@"):
			return LangLiteral(value, rest[1:]), nil
		case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
			return TypedLiteral(value, rest[3:len(rest)-1]), nil
		default:
			return Term{}, fmt.Errorf("parse term: bad literal suffix %q", rest)
		}

	default:
		return Term{}, fmt.Errorf("parse term: unrecognized form %q", s)
	}
}

// closingQuote finds the index of the unescaped closing quote of a
// literal starting at index 0, or -1 if there is none.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
