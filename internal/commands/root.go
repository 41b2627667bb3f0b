// Package commands implements the qbxml-mapper command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"qbxml-mapper/api"
	"qbxml-mapper/internal/common"
	"qbxml-mapper/internal/config"
	"qbxml-mapper/internal/logging"
)

// Version is reported by --version.
const Version = "0.1.0"

// env carries settings shared by every subcommand.
type env struct {
	v          *viper.Viper
	configPath string
}

// RootCmd returns the root command with every subcommand attached.
func RootCmd() *cobra.Command {
	e := &env{v: config.New()}

	cmd := &cobra.Command{
		Use:   "qbxml-mapper",
		Short: "Convert between qbXML documents and nested maps",
		Long: `qbxml-mapper compiles a qbXML grammar (DTD) and uses it to parse
documents into maps, render maps as documents and inspect the schema.

Settings come from qbxml-mapper.yaml, QBXML_MAPPER_* environment
variables and flags, flags winning.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&e.configPath, "config", "", "config file (default ./qbxml-mapper.yaml)")
	flags.String("schema", "qb", "schema type: qb or qbpos")
	flags.String("schema-dir", "xml_schema", "directory holding the bundled grammars")
	flags.String("grammar", "", "grammar file, overrides --schema-dir")
	flags.String("root", "", "container element, inferred when empty")
	flags.Bool("cache", false, "restore and store the compiled schema on disk")
	flags.String("cache-dir", ".qbxml-cache", "schema cache directory")
	flags.String("cache-format", "msgpack", "schema cache encoding: msgpack or yaml")
	flags.Bool("rebuild", false, "ignore an existing schema cache")
	flags.String("ambiguity", "first", "resolution of keys found at several paths: first or strict")
	flags.String("qbxml-version", "", "document version written on output")
	flags.Bool("compact", false, "write documents on one line")
	flags.Bool("strict", false, "reject documents missing mandatory members")
	flags.Int64("max-bytes", 0, "maximum document size, 0 for unlimited")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")

	for key, flag := range map[string]string{
		config.KeySchemaType:   "schema",
		config.KeySchemaDir:    "schema-dir",
		config.KeySchemaFile:   "grammar",
		config.KeySchemaRoot:   "root",
		config.KeyCacheEnabled: "cache",
		config.KeyCacheDir:     "cache-dir",
		config.KeyCacheFormat:  "cache-format",
		config.KeyCacheRebuild: "rebuild",
		config.KeyAmbiguity:    "ambiguity",
		config.KeyVersion:      "qbxml-version",
		config.KeyCompact:      "compact",
		config.KeyStrict:       "strict",
		config.KeyMaxBytes:     "max-bytes",
		config.KeyLogLevel:     "log-level",
		config.KeyLogFormat:    "log-format",
	} {
		if err := e.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %q: %v", flag, err))
		}
	}

	cmd.AddCommand(
		compileCmd(e),
		parseCmd(e),
		renderCmd(e),
		locateCmd(e),
		dumpCmd(e),
		schemaCmd(e),
	)

	return cmd
}

// load resolves the configuration and builds the facade.
func (e *env) load(cmd *cobra.Command, override func(*api.Options)) (*api.API, error) {
	cfg, err := config.Load(e.v, e.configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())

	opts, err := cfg.Options(logger)
	if err != nil {
		return nil, err
	}

	if override != nil {
		override(&opts)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return api.New(ctx, opts)
}

// input opens the named file, or stdin for "" and "-".
func input(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	name := common.FirstOr(args, "-")
	if name == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	return f, nil
}
