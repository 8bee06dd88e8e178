package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ritmo/internal/core/library"
)

func newSongsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "songs",
		Short: "List the authored songs in the pattern library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTITLE\tSECTIONS\tBARS")
			for _, name := range env.library.SongNames() {
				sections := env.library.Songs[name]
				bars := 0
				for _, section := range sections {
					bars += len(section.Bars)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", name, library.SongLabel(name), len(sections), bars)
			}
			return tw.Flush()
		},
	}
}
