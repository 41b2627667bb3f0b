package cache

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"qbxml-mapper/internal/schema"
)

// FormatVersion is bumped whenever the snapshot layout changes.
const FormatVersion = 1

// Format selects the on-disk snapshot encoding.
type Format string

const (
	// FormatMsgpack is zstd-compressed msgpack.
	FormatMsgpack Format = "msgpack"
	// FormatYAML is plain YAML, readable by humans.
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name; the empty string selects msgpack.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatMsgpack:
		return FormatMsgpack, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown cache format %q", s)
	}
}

// Ext returns the file extension used for the format.
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}

	return ".msgpack.zst"
}

// file is the snapshot as written to disk.
type file struct {
	Version     int             `yaml:"version"     msgpack:"version"`
	Fingerprint string          `yaml:"fingerprint" msgpack:"fingerprint"`
	Model       schema.Snapshot `yaml:"model"       msgpack:"model"`
}

func encode(f Format, v *file) ([]byte, error) {
	if f == FormatYAML {
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot: %w", err)
		}

		return data, nil
	}

	var buf bytes.Buffer

	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}

	if err := msgpack.NewEncoder(zw).Encode(v); err != nil {
		zw.Close()

		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}

	return buf.Bytes(), nil
}

func decode(f Format, data []byte) (*file, error) {
	var v file

	if f == FormatYAML {
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}

		return &v, nil
	}

	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open compressed snapshot: %w", err)
	}
	defer zr.Close()

	if err := msgpack.NewDecoder(zr).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &v, nil
}
