package xmlres

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/arloliu/xmlres/internal/dtd"
	"github.com/arloliu/xmlres/internal/types"
)

// Attr is one attribute on an element.
type Attr struct {
	Name  string
	Value string
}

// Element is a node in the minimal document tree.
// Text accumulates the character data directly inside the element.
type Element struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Element
}

// Document is the parsed result.
type Document struct {
	Root      *Element
	SourceURI string
}

// Parse resolves the document at uri and parses it. External references
// found inside it (DTD, entities) are resolved strictly in the order they
// are encountered, each one subject to the parser's policy.
func (p *Parser) Parse(ctx context.Context, uri string) (*Document, error) {
	content, err := p.Resolve(ctx, Reference{URI: uri, Kind: KindDocument})
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(content.Reader)
	if err != nil {
		return nil, &types.TransportError{URI: uri, Category: types.CategoryProtocol, Err: err}
	}

	return p.parseDocument(ctx, data, content.SourceURI)
}

// ParseBytes parses an in-memory document. baseURI is used to resolve
// relative references inside the document and may be empty.
func (p *Parser) ParseBytes(ctx context.Context, data []byte, baseURI string) (*Document, error) {
	return p.parseDocument(ctx, data, baseURI)
}

// boundEntity is an entity declaration paired with the base URI of the
// source that declared it, for resolving relative system identifiers.
type boundEntity struct {
	dtd.Entity
	base string
}

func (p *Parser) parseDocument(ctx context.Context, data []byte, baseURI string) (*Document, error) {
	dt, err := scanDoctype(data)
	if err != nil {
		return nil, &types.SyntaxError{URI: baseURI, Err: err}
	}

	entities := make(map[string]boundEntity)
	bodyStart := 0

	if dt != nil {
		bodyStart = dt.end

		// The internal subset is processed first; its declarations win over
		// duplicates in the external DTD.
		if dt.internalSubset != "" {
			sub, err := dtd.Parse([]byte(dt.internalSubset))
			if err != nil {
				return nil, &types.SyntaxError{URI: baseURI, Offset: dt.offset, Err: err}
			}
			for name, ent := range sub.Entities {
				entities[name] = boundEntity{Entity: ent, base: baseURI}
			}
		}

		if dt.systemID != "" && p.config.LoadDTD {
			p.loadExternalDTD(ctx, dt, baseURI, entities)
		}
	}

	values, err := p.resolveReferencedEntities(ctx, data, bodyStart, baseURI, entities)
	if err != nil {
		return nil, err
	}

	return buildTree(data, baseURI, values)
}

// loadExternalDTD fetches the DOCTYPE's external subset and merges its entity
// declarations. A DTD that cannot be resolved (denied by policy or failed in
// transit) downgrades to "no DTD": the parse continues and any reference to
// an entity it would have defined surfaces later as a syntax error naming
// that entity. The failed attempt issues no fetch when denied, one otherwise.
func (p *Parser) loadExternalDTD(ctx context.Context, dt *doctype, baseURI string, entities map[string]boundEntity) {
	dtdURI := resolveURI(baseURI, dt.systemID)

	content, err := p.Resolve(ctx, Reference{URI: dtdURI, Kind: KindDTD, Offset: dt.offset})
	if err != nil {
		return
	}

	data, err := io.ReadAll(content.Reader)
	if err != nil {
		return
	}

	ext, err := dtd.Parse(data)
	if err != nil {
		return
	}

	for name, ent := range ext.Entities {
		if _, exists := entities[name]; !exists {
			entities[name] = boundEntity{Entity: ent, base: content.SourceURI}
		}
	}
}

// resolveReferencedEntities walks the entity references that actually occur
// in the document body, in document order, and produces their replacement
// text. External parsed entities are fetched on first use only; entities
// that are declared but never referenced are never fetched.
func (p *Parser) resolveReferencedEntities(ctx context.Context, data []byte, bodyStart int, baseURI string, entities map[string]boundEntity) (map[string]string, error) {
	values := make(map[string]string)

	for _, ref := range entityRefs(data[bodyStart:]) {
		if _, done := values[ref.name]; done {
			continue
		}

		offset := int64(bodyStart) + ref.offset

		ent, declared := entities[ref.name]
		if !declared {
			return nil, &types.SyntaxError{URI: baseURI, Entity: ref.name, Offset: offset}
		}

		if ent.Unparsed {
			// Unparsed entities may only appear in ENTITY-typed attributes,
			// never as general references.
			return nil, &types.SyntaxError{URI: baseURI, Entity: ref.name, Offset: offset}
		}

		if !ent.External {
			values[ref.name] = ent.Value

			continue
		}

		entURI := resolveURI(ent.base, ent.SystemID)

		content, err := p.Resolve(ctx, Reference{URI: entURI, Kind: KindEntity, Offset: offset})
		if err != nil {
			return nil, err
		}

		text, err := io.ReadAll(content.Reader)
		if err != nil {
			return nil, &types.TransportError{URI: entURI, Category: types.CategoryProtocol, Err: err}
		}

		values[ref.name] = string(text)
	}

	return values, nil
}

// buildTree runs the token stream into the minimal element tree.
func buildTree(data []byte, baseURI string, entityValues map[string]string) (*Document, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Entity = entityValues

	doc := &Document{SourceURI: baseURI}

	var stack []*Element
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &types.SyntaxError{URI: baseURI, Offset: d.InputOffset(), Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Tag: t.Name.Local}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}

			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, &types.SyntaxError{URI: baseURI, Offset: d.InputOffset(), Err: errTrailingContent}
				}
				doc.Root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if doc.Root == nil {
		return nil, &types.SyntaxError{URI: baseURI, Err: errNoRootElement}
	}

	return doc, nil
}

// resolveURI resolves ref against base. Absolute refs pass through; an empty
// base leaves the ref untouched. A base without a scheme is treated as a
// local filesystem path.
func resolveURI(base, ref string) string {
	if base == "" || strings.Contains(ref, "://") {
		return ref
	}

	bu, err := url.Parse(base)
	if err != nil || bu.Scheme == "" {
		if strings.HasPrefix(ref, "/") {
			return ref
		}

		return path.Join(path.Dir(base), ref)
	}

	ru, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	return bu.ResolveReference(ru).String()
}
