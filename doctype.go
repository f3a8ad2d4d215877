package xmlres

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errNoRootElement   = errors.New("document has no root element")
	errTrailingContent = errors.New("content after root element")
)

// doctype is the parsed DOCTYPE declaration of a document prolog.
type doctype struct {
	name           string
	publicID       string
	systemID       string
	internalSubset string
	offset         int64 // byte offset of "<!DOCTYPE" in the document
	end            int   // byte offset just past the closing '>'
}

// scanDoctype looks for a DOCTYPE declaration in the document prolog,
// skipping the XML declaration, comments and processing instructions.
// Returns nil when the root element starts without one.
func scanDoctype(data []byte) (*doctype, error) {
	src := string(data)
	pos := 0

	for pos < len(src) {
		switch {
		case isXMLSpace(src[pos]):
			pos++
		case strings.HasPrefix(src[pos:], "<?"):
			idx := strings.Index(src[pos:], "?>")
			if idx < 0 {
				return nil, fmt.Errorf("unterminated processing instruction at byte %d", pos)
			}
			pos += idx + 2
		case strings.HasPrefix(src[pos:], "<!--"):
			idx := strings.Index(src[pos:], "-->")
			if idx < 0 {
				return nil, fmt.Errorf("unterminated comment at byte %d", pos)
			}
			pos += idx + 3
		case strings.HasPrefix(src[pos:], "<!DOCTYPE"):
			return parseDoctype(src, pos)
		default:
			// Root element or stray content; either way the prolog is over.
			return nil, nil
		}
	}

	return nil, nil
}

// parseDoctype parses a DOCTYPE declaration, pos pointing at "<!DOCTYPE".
func parseDoctype(src string, pos int) (*doctype, error) {
	dt := &doctype{offset: int64(pos)}
	i := pos + len("<!DOCTYPE")

	skip := func() {
		for i < len(src) && isXMLSpace(src[i]) {
			i++
		}
	}
	literal := func() (string, error) {
		if i >= len(src) || (src[i] != '"' && src[i] != '\'') {
			return "", fmt.Errorf("expected quoted literal at byte %d", i)
		}
		quote := src[i]
		i++
		idx := strings.IndexByte(src[i:], quote)
		if idx < 0 {
			return "", fmt.Errorf("unterminated literal at byte %d", i)
		}
		lit := src[i : i+idx]
		i += idx + 1

		return lit, nil
	}

	skip()
	start := i
	for i < len(src) && !isXMLSpace(src[i]) && src[i] != '[' && src[i] != '>' {
		i++
	}
	dt.name = src[start:i]
	if dt.name == "" {
		return nil, fmt.Errorf("DOCTYPE without a name at byte %d", pos)
	}
	skip()

	switch {
	case strings.HasPrefix(src[i:], "SYSTEM"):
		i += len("SYSTEM")
		skip()
		sys, err := literal()
		if err != nil {
			return nil, err
		}
		dt.systemID = sys
	case strings.HasPrefix(src[i:], "PUBLIC"):
		i += len("PUBLIC")
		skip()
		pub, err := literal()
		if err != nil {
			return nil, err
		}
		skip()
		sys, err := literal()
		if err != nil {
			return nil, err
		}
		dt.publicID = pub
		dt.systemID = sys
	}
	skip()

	if i < len(src) && src[i] == '[' {
		i++
		start := i
		depth := 1
		for i < len(src) && depth > 0 {
			switch src[i] {
			case '[':
				depth++
				i++
			case ']':
				depth--
				i++
			case '"', '\'':
				quote := src[i]
				i++
				idx := strings.IndexByte(src[i:], quote)
				if idx < 0 {
					return nil, fmt.Errorf("unterminated literal in internal subset at byte %d", i)
				}
				i += idx + 1
			default:
				i++
			}
		}
		if depth != 0 {
			return nil, fmt.Errorf("unterminated internal subset at byte %d", start)
		}
		dt.internalSubset = src[start : i-1]
		skip()
	}

	if i >= len(src) || src[i] != '>' {
		return nil, fmt.Errorf("unterminated DOCTYPE declaration at byte %d", pos)
	}
	dt.end = i + 1

	return dt, nil
}

// entityRef is one general entity reference found in document content.
type entityRef struct {
	name   string
	offset int64
}

// entityRefs scans document content for general entity references, in
// document order, skipping comments and CDATA sections. Predefined entities
// and character references are not reported.
func entityRefs(data []byte) []entityRef {
	src := string(data)

	var refs []entityRef
	seen := make(map[string]bool)

	pos := 0
	for pos < len(src) {
		switch {
		case strings.HasPrefix(src[pos:], "<!--"):
			idx := strings.Index(src[pos:], "-->")
			if idx < 0 {
				return refs
			}
			pos += idx + 3
		case strings.HasPrefix(src[pos:], "<![CDATA["):
			idx := strings.Index(src[pos:], "]]>")
			if idx < 0 {
				return refs
			}
			pos += idx + 3
		case src[pos] == '&':
			start := pos
			pos++
			if pos < len(src) && src[pos] == '#' {
				continue // character reference
			}
			nameStart := pos
			for pos < len(src) && isRefNameByte(src[pos]) {
				pos++
			}
			if pos >= len(src) || src[pos] != ';' || pos == nameStart {
				continue
			}
			name := src[nameStart:pos]
			pos++
			if predefinedEntities[name] || seen[name] {
				continue
			}
			seen[name] = true
			refs = append(refs, entityRef{name: name, offset: int64(start)})
		default:
			pos++
		}
	}

	return refs
}

var predefinedEntities = map[string]bool{
	"lt":   true,
	"gt":   true,
	"amp":  true,
	"apos": true,
	"quot": true,
}

func isXMLSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isRefNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.' || c == ':'
}
