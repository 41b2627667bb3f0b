package commands

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"qbxml-mapper/internal/schema"
)

func locateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "locate KEY...",
		Short: "Print the schema path each key resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load(cmd, nil)
			if err != nil {
				return err
			}

			for _, key := range args {
				p, err := a.Locate(key)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, p)
			}

			return nil
		},
	}
}

func dumpCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [file|-]",
		Short: "Parse a document and dump the resulting map for debugging",
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

			cfg := spew.ConfigState{
				Indent:                  "  ",
				SortKeys:                true,
				DisablePointerAddresses: true,
				DisableCapacities:       true,
			}

			if doc.Version != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "version %s\n", doc.Version)
			}

			cfg.Fdump(cmd.OutOrStdout(), doc.Root.ToHash(true))

			return nil
		},
	}
}

func schemaCmd(e *env) *cobra.Command {
	var brief bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export the compiled schema as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.load(cmd, nil)
			if err != nil {
				return err
			}

			m := a.Schema()

			if brief {
				for _, t := range m.Types() {
					fmt.Fprintln(cmd.OutOrStdout(), t.String())
				}

				return nil
			}

			data, err := schema.Marshal(m)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}

	cmd.Flags().BoolVar(&brief, "brief", false, "print one line per type")

	return cmd
}
