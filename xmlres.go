// Package xmlres resolves external resources referenced from XML documents
// under a caller-controlled network-access policy.
//
// Given a URI encountered during parsing (the document itself, an external
// DTD, a parsed entity), the resolver decides whether a fetch is permitted,
// performs it through a pluggable transport, normalizes the response
// (HTTP status handling, transparent gzip), and reports failures with enough
// context to distinguish "network disabled" from "remote error" from
// "malformed response".
//
// Network access is strictly opt-in. The secure defaults disable both
// network access and DTD loading:
//
//	doc, err := xmlres.Parse(ctx, "doc.xml")
//
// For remote documents and DTDs, enable the switches explicitly:
//
//	parser, err := xmlres.New().
//	    WithNetworkAccess(true).
//	    WithDTDLoading(true).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc, err := parser.Parse(ctx, "http://example.com/doc.xml")
//
// DTD loading and network access are independent switches and the stricter
// one wins: a remote DTD is denied when the network is disabled even with
// DTD loading enabled.
package xmlres

import (
	"context"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arloliu/xmlres/internal/policy"
	"github.com/arloliu/xmlres/internal/resolve"
	"github.com/arloliu/xmlres/internal/transport"
)

// Config holds the resolution switches for one parser.
// A Config is read-only for the duration of a parse and may be shared across
// concurrently executing parses.
type Config struct {
	// NetworkAccess permits fetching http:// and https:// references.
	// Disabled by default; local file references are always permitted.
	NetworkAccess bool `yaml:"network_access"`

	// LoadDTD enables fetching and processing of external DTDs.
	LoadDTD bool `yaml:"load_dtd"`

	// Timeout bounds each transport fetch. Zero means no timeout: a hung
	// fetch blocks indefinitely.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// MaxSize caps how many bytes one fetch may return.
	MaxSize int64 `yaml:"max_size" default:"16777216" validate:"gte=0"`
}

// Rewriter rewrites resource URIs before the policy check, typically from a
// resolution catalog mapping remote identifiers onto local copies.
type Rewriter = resolve.Rewriter

// Parser resolves and parses XML documents under one fixed Config.
// A Parser is safe for concurrent use; each parse runs sequentially and
// depth-first with no internal parallelism.
type Parser struct {
	config   Config
	resolver *resolve.Resolver
}

// Builder provides a fluent API for constructing a Parser.
type Builder struct {
	config    Config
	transport Transport
	catalog   Rewriter
	logger    zerolog.Logger
	fs        afero.Fs
	validator *validator.Validate
}

// New creates a new parser Builder with the secure defaults: network access
// and DTD loading both disabled.
func New() *Builder {
	return &Builder{
		logger:    zerolog.Nop(),
		validator: validator.New(),
	}
}

// WithNetworkAccess enables or disables fetching of remote references.
func (b *Builder) WithNetworkAccess(enabled bool) *Builder {
	b.config.NetworkAccess = enabled

	return b
}

// WithDTDLoading enables or disables external DTD processing.
func (b *Builder) WithDTDLoading(enabled bool) *Builder {
	b.config.LoadDTD = enabled

	return b
}

// WithTimeout bounds each transport fetch. Zero (the default) means a hung
// fetch blocks indefinitely.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout

	return b
}

// WithMaxSize caps how many bytes one fetch may return.
func (b *Builder) WithMaxSize(n int64) *Builder {
	b.config.MaxSize = n

	return b
}

// WithTransport substitutes the fetch layer. The transport receives every
// allowed reference regardless of scheme; WithTimeout, WithMaxSize and
// WithFilesystem have no effect on a custom transport.
func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t

	return b
}

// WithCatalog installs a URI rewriter consulted before the policy check.
func (b *Builder) WithCatalog(c Rewriter) *Builder {
	b.catalog = c

	return b
}

// WithLogger sets the logger for per-resolution events.
// Without it the parser is silent.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger

	return b
}

// WithFilesystem sets the filesystem backing file: resolution.
// If not set, DefaultFs is used.
func (b *Builder) WithFilesystem(fs afero.Fs) *Builder {
	b.fs = fs

	return b
}

// WithValidator sets a custom validator instance for Config validation.
func (b *Builder) WithValidator(v *validator.Validate) *Builder {
	b.validator = v

	return b
}

// Build creates the Parser with the configured options.
func (b *Builder) Build() (*Parser, error) {
	cfg := b.config
	if err := defaults.Set(&cfg); err != nil {
		return nil, err
	}

	if b.validator != nil {
		if err := b.validator.Struct(cfg); err != nil {
			return nil, err
		}
	}

	t := b.transport
	if t == nil {
		fs := b.fs
		if fs == nil {
			fs = DefaultFs
		}
		t = transport.NewComposite(fs, cfg.Timeout, cfg.MaxSize)
	}

	opts := []resolve.Option{resolve.WithLogger(b.logger)}
	if b.catalog != nil {
		opts = append(opts, resolve.WithCatalog(b.catalog))
	}

	return &Parser{
		config:   cfg,
		resolver: resolve.New(t, opts...),
	}, nil
}

// Config returns a copy of the parser's configuration.
func (p *Parser) Config() Config {
	return p.config
}

// Resolve runs a single reference through the policy, transport and
// normalization stages. This is the call surface the grammar engine uses
// whenever it encounters a reference it cannot satisfy from already-buffered
// input. Nothing is cached: resolving the same URI twice issues two fetches.
func (p *Parser) Resolve(ctx context.Context, ref Reference) (*Content, error) {
	return p.resolver.Resolve(ctx, ref, p.switches())
}

func (p *Parser) switches() policy.Switches {
	return policy.Switches{
		NetworkAccess: p.config.NetworkAccess,
		LoadDTD:       p.config.LoadDTD,
	}
}

// Convenience Functions

// Parse parses the document at uri with the secure defaults (network access
// and DTD loading disabled).
func Parse(ctx context.Context, uri string) (*Document, error) {
	p, err := New().Build()
	if err != nil {
		return nil, err
	}

	return p.Parse(ctx, uri)
}

// ParseBytes parses an in-memory document with the secure defaults.
func ParseBytes(ctx context.Context, data []byte) (*Document, error) {
	p, err := New().Build()
	if err != nil {
		return nil, err
	}

	return p.ParseBytes(ctx, data, "")
}
