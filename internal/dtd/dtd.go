// Package dtd scans DTD text for entity declarations.
//
// This is deliberately a small subset of DTD grammar: general entity
// declarations with an internal replacement value or an external SYSTEM or
// PUBLIC identifier. Element and attribute-list declarations are skipped;
// parameter entities are recognized and ignored. That is all the resolution
// pipeline needs to satisfy entity references in a document.
package dtd

import (
	"fmt"
	"strings"
)

// Entity is one general entity declaration.
type Entity struct {
	Name     string
	Value    string // replacement text for internal entities
	SystemID string // system identifier for external entities
	PublicID string
	External bool
	Unparsed bool // NDATA entities
}

// DTD holds the declarations found in one DTD or internal subset.
type DTD struct {
	Entities map[string]Entity
}

// Parse scans data for entity declarations. Declarations it does not
// understand are skipped without error; structurally broken input (an
// unterminated literal or declaration) fails.
func Parse(data []byte) (*DTD, error) {
	d := &DTD{Entities: make(map[string]Entity)}

	s := scanner{src: string(data)}
	for !s.eof() {
		s.skipSpace()

		switch {
		case s.consume("<!--"):
			if !s.skipUntil("-->") {
				return nil, fmt.Errorf("unterminated comment at byte %d", s.pos)
			}
		case s.consume("<!ENTITY"):
			if err := s.entity(d); err != nil {
				return nil, err
			}
		case s.consume("<?"):
			if !s.skipUntil("?>") {
				return nil, fmt.Errorf("unterminated processing instruction at byte %d", s.pos)
			}
		case s.consume("<!"):
			// ELEMENT, ATTLIST, NOTATION: skip to the closing bracket,
			// honoring quoted literals.
			if err := s.skipDeclaration(); err != nil {
				return nil, err
			}
		default:
			s.pos++
		}
	}

	return d, nil
}

// scanner is a minimal cursor over DTD text.
type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) skipSpace() {
	for !s.eof() && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

// consume advances past prefix when it is next in the input.
func (s *scanner) consume(prefix string) bool {
	if strings.HasPrefix(s.src[s.pos:], prefix) {
		s.pos += len(prefix)

		return true
	}

	return false
}

// skipUntil advances past the next occurrence of marker.
func (s *scanner) skipUntil(marker string) bool {
	idx := strings.Index(s.src[s.pos:], marker)
	if idx < 0 {
		s.pos = len(s.src)

		return false
	}

	s.pos += idx + len(marker)

	return true
}

// skipDeclaration advances past the closing '>' of a declaration, treating
// quoted literals as opaque.
func (s *scanner) skipDeclaration() error {
	for !s.eof() {
		c := s.src[s.pos]
		switch c {
		case '>':
			s.pos++

			return nil
		case '"', '\'':
			if _, err := s.literal(); err != nil {
				return err
			}
		default:
			s.pos++
		}
	}

	return fmt.Errorf("unterminated declaration at byte %d", s.pos)
}

// literal reads a quoted literal, cursor on the opening quote.
func (s *scanner) literal() (string, error) {
	quote := s.src[s.pos]
	s.pos++

	idx := strings.IndexByte(s.src[s.pos:], quote)
	if idx < 0 {
		return "", fmt.Errorf("unterminated literal at byte %d", s.pos)
	}

	lit := s.src[s.pos : s.pos+idx]
	s.pos += idx + 1

	return lit, nil
}

// name reads an XML name token.
func (s *scanner) name() string {
	start := s.pos
	for !s.eof() && isNameByte(s.src[s.pos]) {
		s.pos++
	}

	return s.src[start:s.pos]
}

// entity parses one <!ENTITY ...> declaration, cursor just past "<!ENTITY".
func (s *scanner) entity(d *DTD) error {
	s.skipSpace()

	// Parameter entities are declared with '%'; recognized but not stored.
	parameter := false
	if !s.eof() && s.src[s.pos] == '%' {
		parameter = true
		s.pos++
		s.skipSpace()
	}

	name := s.name()
	if name == "" {
		return fmt.Errorf("entity declaration without a name at byte %d", s.pos)
	}
	s.skipSpace()

	ent := Entity{Name: name}

	switch {
	case s.consume("SYSTEM"):
		s.skipSpace()
		sys, err := s.literal()
		if err != nil {
			return err
		}
		ent.SystemID = sys
		ent.External = true
	case s.consume("PUBLIC"):
		s.skipSpace()
		pub, err := s.literal()
		if err != nil {
			return err
		}
		s.skipSpace()
		sys, err := s.literal()
		if err != nil {
			return err
		}
		ent.PublicID = pub
		ent.SystemID = sys
		ent.External = true
	default:
		if s.eof() || (s.src[s.pos] != '"' && s.src[s.pos] != '\'') {
			return fmt.Errorf("entity %q has no value or external identifier", name)
		}
		value, err := s.literal()
		if err != nil {
			return err
		}
		ent.Value = value
	}

	s.skipSpace()
	if s.consume("NDATA") {
		s.skipSpace()
		s.name() // notation name, not needed
		ent.Unparsed = true
		s.skipSpace()
	}

	if !s.consume(">") {
		return fmt.Errorf("unterminated entity declaration for %q", name)
	}

	// First declaration wins, per XML entity semantics.
	if !parameter {
		if _, exists := d.Entities[name]; !exists {
			d.Entities[name] = ent
		}
	}

	return nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.' || c == ':'
}
