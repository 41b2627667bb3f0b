package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"qbxml-mapper/internal/cache"
	"qbxml-mapper/internal/codec"
	"qbxml-mapper/internal/dtd"
	"qbxml-mapper/internal/logging"
	"qbxml-mapper/internal/mapper"
	"qbxml-mapper/internal/object"
	"qbxml-mapper/internal/schema"
	"qbxml-mapper/internal/template"
)

// Options configure New. The grammar comes from Grammar, else GrammarFile,
// else SchemaType resolved inside SchemaDir.
type Options struct {
	// SchemaType is "qb" or "qbpos".
	SchemaType string
	SchemaDir  string
	// GrammarFile is an explicit grammar path.
	GrammarFile string
	// Grammar is grammar source held in memory.
	Grammar []byte
	// Root overrides the inferred container element.
	Root string

	// UseDiskCache restores the compiled model from CacheDir and writes it
	// back after compiling.
	UseDiskCache bool
	CacheDir     string
	CacheFormat  cache.Format
	// ForceRebuild ignores an existing snapshot.
	ForceRebuild bool

	// Ambiguity decides how keys found at several schema positions resolve.
	Ambiguity template.Policy

	// Version is written as the document version; it defaults to the
	// schema type's version.
	Version string
	// Indent is the output indentation; Compact writes one line.
	Indent  string
	Compact bool

	// StrictParse rejects documents missing mandatory members.
	StrictParse bool
	// MaxDocumentBytes bounds parsed input; zero means unlimited.
	MaxDocumentBytes int64

	Logger *slog.Logger
}

// API converts between documents, graphs and maps for one grammar.
type API struct {
	model   *schema.Model
	locator *template.Locator
	mapper  *mapper.Mapper
	parse   codec.ParseOptions
	render  codec.SerializeOptions
	logger  *slog.Logger
}

// New compiles or restores the grammar and warms the template tree.
func New(ctx context.Context, opts Options) (*API, error) {
	logger := logging.OrDiscard(opts.Logger)

	src, source, st, err := readGrammar(opts)
	if errors.Is(err, ErrSchemaType) {
		return nil, err
	}

	m, err := loadModel(ctx, opts, src, source, err, logger)
	if err != nil {
		return nil, err
	}

	loc := template.NewLocator(m, opts.Ambiguity)
	tree := loc.Warm()
	logger.DebugContext(ctx, "template tree ready", "root", m.Root(), "positions", tree.Size())

	version := opts.Version
	if version == "" {
		version = st.Version
	}

	return &API{
		model:   m,
		locator: loc,
		mapper:  mapper.New(loc),
		parse:   codec.ParseOptions{Strict: opts.StrictParse, MaxBytes: opts.MaxDocumentBytes},
		render: codec.SerializeOptions{
			Version:     version,
			Instruction: st.Instruction,
			Indent:      opts.Indent,
			Compact:     opts.Compact,
		},
		logger: logger,
	}, nil
}

// readGrammar returns the grammar source, a name for it and the schema type
// it belongs to, if any. The name is set even when reading fails.
func readGrammar(opts Options) ([]byte, string, SchemaType, error) {
	var st SchemaType

	if opts.SchemaType != "" {
		var err error

		st, err = LookupSchemaType(opts.SchemaType)
		if err != nil {
			return nil, "", st, err
		}
	}

	switch {
	case opts.Grammar != nil:
		return opts.Grammar, "", st, nil
	case opts.GrammarFile != "":
		src, err := os.ReadFile(opts.GrammarFile)
		if err != nil {
			return nil, opts.GrammarFile, st, fmt.Errorf("failed to read grammar: %w", err)
		}

		return src, opts.GrammarFile, st, nil
	case opts.SchemaType != "":
		path := filepath.Join(opts.SchemaDir, st.File)

		src, err := os.ReadFile(path)
		if err != nil {
			return nil, path, st, fmt.Errorf("failed to read grammar: %w", err)
		}

		return src, path, st, nil
	default:
		return nil, "", st, fmt.Errorf("%w, must be one of [%s]", ErrSchemaType, strings.Join(SchemaTypes(), " | "))
	}
}

// loadModel restores the model from the disk cache or compiles it. When
// the grammar cannot be read or compiled, a cached snapshot of any
// fingerprint is used instead, unless a rebuild is forced.
func loadModel(
	ctx context.Context, opts Options, src []byte, source string, readErr error, logger *slog.Logger,
) (*schema.Model, error) {
	var store *cache.Store
	if opts.UseDiskCache {
		store = cache.New(cache.Options{
			Dir:    opts.CacheDir,
			Name:   cacheName(opts, source),
			Format: opts.CacheFormat,
			Logger: logger,
		})
	}

	if readErr != nil {
		return fallback(ctx, opts, store, readErr, logger)
	}

	fingerprint := cache.Fingerprint(src, opts.Root)

	if store != nil && !opts.ForceRebuild {
		if m, ok := store.Load(ctx, fingerprint); ok {
			return m, nil
		}

		logger.InfoContext(ctx, "rebuilding schema", "path", store.Path())
	}

	m, diags := dtd.Analyze(src, dtd.Options{Root: opts.Root})
	for _, w := range diags.Warnings {
		logger.WarnContext(ctx, "grammar warning",
			"source", source, "code", w.Code, "element", w.Element, "line", w.Line, "detail", w.Message)
	}

	if diags.HasErrors() {
		return fallback(ctx, opts, store, &dtd.GrammarError{Source: source, Diagnostics: diags}, logger)
	}

	logger.InfoContext(ctx, "grammar compiled", "source", source, "types", m.Len(), "root", m.Root())

	if store != nil {
		if err := store.Store(ctx, m, fingerprint); err != nil {
			logger.WarnContext(ctx, "failed to write schema cache", "path", store.Path(), "err", err)
		}
	}

	return m, nil
}

func fallback(ctx context.Context, opts Options, store *cache.Store, cause error, logger *slog.Logger) (*schema.Model, error) {
	if store == nil || opts.ForceRebuild {
		return nil, cause
	}

	m, ok := store.LoadAny(ctx)
	if !ok {
		return nil, cause
	}

	logger.WarnContext(ctx, "grammar unusable, using cached schema that may be stale",
		"path", store.Path(), "err", cause)

	return m, nil
}

func cacheName(opts Options, source string) string {
	switch {
	case opts.SchemaType != "" && opts.GrammarFile == "" && opts.Grammar == nil:
		return strings.ToLower(opts.SchemaType)
	case source != "":
		return strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	default:
		return "schema"
	}
}

// Schema returns the compiled model.
func (a *API) Schema() *schema.Model {
	return a.model
}

// Locate returns the schema path a top-level key resolves to.
func (a *API) Locate(key string) (template.Path, error) {
	return a.locator.Locate(key)
}

// ReadQBXML parses a document from r.
func (a *API) ReadQBXML(r io.Reader) (*codec.Document, error) {
	return codec.Parse(a.model, r, a.parse)
}

// QBXMLToObject parses a document into a typed graph.
func (a *API) QBXMLToObject(doc string) (*object.Node, error) {
	d, err := a.ReadQBXML(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}

	return d.Root, nil
}

// QBXMLToHash parses a document into a raw map. With includeRoot the map
// is wrapped in the container element's name.
func (a *API) QBXMLToHash(doc string, includeRoot bool) (map[string]any, error) {
	n, err := a.QBXMLToObject(doc)
	if err != nil {
		return nil, err
	}

	return n.ToHash(includeRoot), nil
}

// ObjectToQBXML renders a graph as a document.
func (a *API) ObjectToQBXML(n *object.Node) (string, error) {
	return codec.Serialize(n, a.render)
}

// WriteQBXML renders a graph to w.
func (a *API) WriteQBXML(w io.Writer, n *object.Node) error {
	return codec.Encode(w, n, a.render)
}

// ObjectToHash projects a graph into a raw map.
func (a *API) ObjectToHash(n *object.Node, includeRoot bool) map[string]any {
	return n.ToHash(includeRoot)
}

// HashToObject wraps a single-key map into a graph rooted at the container.
func (a *API) HashToObject(h map[string]any) (*object.Node, error) {
	return a.mapper.Wrap(h)
}

// HashToQBXML wraps a single-key map and renders it as a document.
func (a *API) HashToQBXML(h map[string]any) (string, error) {
	n, err := a.HashToObject(h)
	if err != nil {
		return "", err
	}

	return a.ObjectToQBXML(n)
}

// IsGrammarError reports whether err came from compiling the grammar.
func IsGrammarError(err error) bool {
	var ge *dtd.GrammarError

	return errors.As(err, &ge)
}
