package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"qbxml-mapper/api"
	"qbxml-mapper/internal/cache"
)

func compileCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Compile the grammar and write the schema cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var dir string

			a, err := e.load(cmd, func(o *api.Options) {
				o.UseDiskCache = true
				o.ForceRebuild = true
				dir = o.CacheDir
			})
			if err != nil {
				return err
			}

			m := a.Schema()

			fmt.Fprintf(cmd.OutOrStdout(), "compiled %d types, root %s\n", m.Len(), m.Root())
			fmt.Fprintf(cmd.OutOrStdout(), "cache written to %s (format version %d)\n", dir, cache.FormatVersion)

			return nil
		},
	}
}
