package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"qbxml-mapper/internal/logging"
	"qbxml-mapper/internal/schema"
)

// Options configure a Store.
type Options struct {
	// Dir is the cache directory; it is created on the first Store.
	Dir string
	// Name identifies the grammar, so several grammars can share Dir.
	Name   string
	Format Format
	Logger *slog.Logger
}

// Store reads and writes snapshots of one grammar.
type Store struct {
	path   string
	format Format
	logger *slog.Logger
}

// New returns a store for opts.Name inside opts.Dir.
func New(opts Options) *Store {
	name := opts.Name
	if name == "" {
		name = "schema"
	}

	format := opts.Format
	if format == "" {
		format = FormatMsgpack
	}

	return &Store{
		path:   filepath.Join(opts.Dir, name+format.Ext()),
		format: format,
		logger: logging.OrDiscard(opts.Logger).With("component", "cache"),
	}
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Fingerprint identifies a grammar source compiled with a given root.
func Fingerprint(src []byte, root string) string {
	h := sha256.New()
	h.Write(src)
	h.Write([]byte{0})
	h.Write([]byte(root))

	return hex.EncodeToString(h.Sum(nil))
}

// Load returns the stored model when a usable snapshot for fingerprint
// exists. Every failure is logged and reported as a miss.
func (s *Store) Load(ctx context.Context, fingerprint string) (*schema.Model, bool) {
	return s.load(ctx, fingerprint, true)
}

// LoadAny returns the stored model whatever grammar it was compiled from.
// It serves when the grammar itself is missing or broken.
func (s *Store) LoadAny(ctx context.Context) (*schema.Model, bool) {
	return s.load(ctx, "", false)
}

func (s *Store) load(ctx context.Context, fingerprint string, checkFingerprint bool) (*schema.Model, bool) {
	if err := ctx.Err(); err != nil {
		return nil, false
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.InfoContext(ctx, "schema cache is empty", "path", s.path)

		return nil, false
	}

	if err != nil {
		s.logger.WarnContext(ctx, "schema cache unreadable", "path", s.path, "err", err)

		return nil, false
	}

	f, err := decode(s.format, data)
	if err != nil {
		s.logger.WarnContext(ctx, "schema cache corrupt", "path", s.path, "err", err)

		return nil, false
	}

	if f.Version != FormatVersion {
		s.logger.InfoContext(ctx, "schema cache has another format version",
			"path", s.path, "version", f.Version, "want", FormatVersion)

		return nil, false
	}

	if checkFingerprint && f.Fingerprint != fingerprint {
		s.logger.InfoContext(ctx, "schema cache is stale", "path", s.path, "fingerprint", f.Fingerprint)

		return nil, false
	}

	m, err := schema.FromSnapshot(f.Model)
	if err != nil {
		s.logger.WarnContext(ctx, "schema cache holds an invalid model", "path", s.path, "err", err)

		return nil, false
	}

	s.logger.DebugContext(ctx, "schema cache hit", "path", s.path, "types", m.Len())

	return m, true
}

// Store writes a snapshot of m atomically.
func (s *Store) Store(ctx context.Context, m *schema.Model, fingerprint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(s.format, &file{
		Version:     FormatVersion,
		Fingerprint: fingerprint,
		Model:       m.Snapshot(),
	})
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	s.logger.InfoContext(ctx, "schema cache written", "path", s.path, "bytes", len(data))

	return nil
}

// Clear removes the snapshot; a missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	return nil
}
