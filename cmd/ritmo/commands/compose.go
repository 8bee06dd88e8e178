package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ritmo/internal/core/model"
)

func newComposeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compose",
		Short: "Print a generated exercise (or an authored song)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			settings := env.settings
			var (
				score  model.Score
				ending *model.Ending
			)
			if settings.Song != "" {
				score, err = env.generator.LoadSong(settings.Song)
				if err != nil {
					return err
				}
			} else {
				result := env.generator.Compose(settings.BarCount, settings.UseEndings, false)
				score, ending = result.Score, result.Ending
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderHeader("ritmo",
				fmt.Sprintf("%d bars", score.Len()),
				fmt.Sprintf("♩ = %d", settings.BPM),
				fmt.Sprintf("%d/4", model.BeatsPerBar),
			))
			fmt.Fprintln(out, renderScore(score, ending, settings.BarsPerRow, -1))
			return nil
		},
	}
}
