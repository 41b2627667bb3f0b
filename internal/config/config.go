// Package config loads CLI settings from a config file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"qbxml-mapper/api"
	"qbxml-mapper/internal/cache"
	"qbxml-mapper/internal/template"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. QBXML_MAPPER_SCHEMA_TYPE.
	EnvPrefix = "QBXML_MAPPER"
	// FileName is the config file looked up in the working directory.
	FileName = "qbxml-mapper"
)

// Keys.
const (
	KeySchemaType   = "schema.type"
	KeySchemaDir    = "schema.dir"
	KeySchemaFile   = "schema.file"
	KeySchemaRoot   = "schema.root"
	KeyCacheEnabled = "cache.enabled"
	KeyCacheDir     = "cache.dir"
	KeyCacheFormat  = "cache.format"
	KeyCacheRebuild = "cache.rebuild"
	KeyAmbiguity    = "mapping.ambiguity"
	KeyVersion      = "output.qbxml_version"
	KeyIndent       = "output.indent"
	KeyCompact      = "output.compact"
	KeyStrict       = "parse.strict"
	KeyMaxBytes     = "parse.max_bytes"
	KeyLogLevel     = "log.level"
	KeyLogFormat    = "log.format"
)

// Config is the resolved configuration.
type Config struct {
	SchemaType string
	SchemaDir  string
	SchemaFile string
	SchemaRoot string

	CacheEnabled bool
	CacheDir     string
	CacheFormat  string
	CacheRebuild bool

	Ambiguity string

	QBXMLVersion string
	Indent       string
	Compact      bool

	StrictParse bool
	MaxBytes    int64

	LogLevel  string
	LogFormat string
}

// New returns a viper instance with defaults and environment overrides set.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeySchemaType, "qb")
	v.SetDefault(KeySchemaDir, "xml_schema")
	v.SetDefault(KeyCacheEnabled, false)
	v.SetDefault(KeyCacheDir, ".qbxml-cache")
	v.SetDefault(KeyCacheFormat, string(cache.FormatMsgpack))
	v.SetDefault(KeyAmbiguity, template.FirstMatch.String())
	v.SetDefault(KeyIndent, "  ")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads path, or qbxml-mapper.yaml in the working directory when path
// is empty, into v and returns the resolved configuration. A missing
// default config file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &Config{
		SchemaType:   v.GetString(KeySchemaType),
		SchemaDir:    v.GetString(KeySchemaDir),
		SchemaFile:   v.GetString(KeySchemaFile),
		SchemaRoot:   v.GetString(KeySchemaRoot),
		CacheEnabled: v.GetBool(KeyCacheEnabled),
		CacheDir:     v.GetString(KeyCacheDir),
		CacheFormat:  v.GetString(KeyCacheFormat),
		CacheRebuild: v.GetBool(KeyCacheRebuild),
		Ambiguity:    v.GetString(KeyAmbiguity),
		QBXMLVersion: v.GetString(KeyVersion),
		Indent:       v.GetString(KeyIndent),
		Compact:      v.GetBool(KeyCompact),
		StrictParse:  v.GetBool(KeyStrict),
		MaxBytes:     v.GetInt64(KeyMaxBytes),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
	}, nil
}

// Options converts the configuration into facade options.
func (c *Config) Options(logger *slog.Logger) (api.Options, error) {
	policy, err := template.ParsePolicy(c.Ambiguity)
	if err != nil {
		return api.Options{}, err
	}

	format, err := cache.ParseFormat(c.CacheFormat)
	if err != nil {
		return api.Options{}, err
	}

	if c.MaxBytes < 0 {
		return api.Options{}, fmt.Errorf("%s must not be negative, got %d", KeyMaxBytes, c.MaxBytes)
	}

	return api.Options{
		SchemaType:       c.SchemaType,
		SchemaDir:        c.SchemaDir,
		GrammarFile:      c.SchemaFile,
		Root:             c.SchemaRoot,
		UseDiskCache:     c.CacheEnabled,
		CacheDir:         c.CacheDir,
		CacheFormat:      format,
		ForceRebuild:     c.CacheRebuild,
		Ambiguity:        policy,
		Version:          c.QBXMLVersion,
		Indent:           c.Indent,
		Compact:          c.Compact,
		StrictParse:      c.StrictParse,
		MaxDocumentBytes: c.MaxBytes,
		Logger:           logger,
	}, nil
}
