package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"qbxml-mapper/internal/common"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func parseCmd(e *env) *cobra.Command {
	var (
		format   string
		withRoot bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse a qbXML document into a nested map",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load(cmd, nil)
			if err != nil {
				return err
			}

			in, err := input(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			doc, err := a.ReadQBXML(in)
			if err != nil {
				return err
			}

			return writeMap(cmd.OutOrStdout(), format, doc.Root.ToHash(withRoot))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json or yaml")
	cmd.Flags().BoolVar(&withRoot, "with-root", true, "wrap the map in the container element")

	return cmd
}

func renderCmd(e *env) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a single-key nested map as a qbXML document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load(cmd, nil)
			if err != nil {
				return err
			}

			in, err := input(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			if format == "" {
				format = formatFromPath(common.FirstOr(args, "-"))
			}

			h, err := readMap(in, format)
			if err != nil {
				return err
			}

			n, err := a.HashToObject(h)
			if err != nil {
				return err
			}

			return a.WriteQBXML(cmd.OutOrStdout(), n)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format: json or yaml (default from extension, else json)")

	return cmd
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

func readMap(r io.Reader, format string) (map[string]any, error) {
	var h map[string]any

	switch strings.ToLower(format) {
	case "", formatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()

		if err := dec.Decode(&h); err != nil {
			return nil, fmt.Errorf("failed to decode JSON input: %w", err)
		}
	case formatYAML:
		if err := yaml.NewDecoder(r).Decode(&h); err != nil {
			return nil, fmt.Errorf("failed to decode YAML input: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	return h, nil
}

func writeMap(w io.Writer, format string, h map[string]any) error {
	switch strings.ToLower(format) {
	case "", formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(h); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(h); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	return nil
}
