// Command xmlresolve resolves one XML resource through the policy-gated
// resolution pipeline and writes the normalized bytes to stdout, or parses
// the document and prints its element outline.
//
// Usage:
//
//	xmlresolve [-config config.toml] [-env-file .env] [-network] [-dtd] [-parse] URI
//
// Network access stays disabled unless enabled in the config file or with
// the -network flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/arloliu/xmlres"
	"github.com/arloliu/xmlres/catalog"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "xmlresolve: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("xmlresolve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to TOML config file")
	envFile := fs.String("env-file", "", "path to dotenv file to load")
	network := fs.Bool("network", false, "enable network access")
	loadDTD := fs.Bool("dtd", false, "enable DTD loading")
	doParse := fs.Bool("parse", false, "parse the document and print its outline")
	verbose := fs.Bool("v", false, "log each resolution step")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one URI argument")
	}
	uri := fs.Arg(0)

	// Optional dotenv overlay before anything reads the environment.
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load() // .env in the working directory, if present
	}

	cfg := defaultAppConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadAppConfig(*configPath)
		if err != nil {
			return err
		}
	}

	// Flags win over the config file.
	if *network {
		cfg.Resolution.NetworkAccess = true
	}
	if *loadDTD {
		cfg.Resolution.LoadDTD = true
	}

	logger, err := newLogger(cfg.LogLevel, *verbose)
	if err != nil {
		return err
	}

	builder := xmlres.New().
		WithNetworkAccess(cfg.Resolution.NetworkAccess).
		WithDTDLoading(cfg.Resolution.LoadDTD).
		WithTimeout(cfg.Resolution.Timeout).
		WithMaxSize(cfg.Resolution.MaxSize).
		WithLogger(logger)

	if cfg.CatalogPath != "" {
		cat, err := catalog.Load(nil, cfg.CatalogPath)
		if err != nil {
			return err
		}
		builder = builder.WithCatalog(cat)
	}

	parser, err := builder.Build()
	if err != nil {
		return err
	}

	ctx := context.Background()

	if *doParse {
		doc, err := parser.Parse(ctx, uri)
		if err != nil {
			return err
		}
		printOutline(out, doc.Root, 0)

		return nil
	}

	content, err := parser.Resolve(ctx, xmlres.Reference{URI: uri, Kind: xmlres.KindDocument})
	if err != nil {
		return err
	}

	_, err = io.Copy(out, content.Reader)

	return err
}

func newLogger(level string, verbose bool) (zerolog.Logger, error) {
	if verbose {
		level = "debug"
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr}

	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger(), nil
}

func printOutline(out io.Writer, el *xmlres.Element, depth int) {
	if el == nil {
		return
	}

	indent := strings.Repeat("  ", depth)
	if text := strings.TrimSpace(el.Text); text != "" {
		fmt.Fprintf(out, "%s<%s> %q\n", indent, el.Tag, text)
	} else {
		fmt.Fprintf(out, "%s<%s>\n", indent, el.Tag)
	}

	for _, child := range el.Children {
		printOutline(out, child, depth+1)
	}
}
