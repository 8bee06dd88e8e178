// Package commands implements the ritmo command line.
package commands

import (
	"github.com/spf13/cobra"
)

const appName = "Ritmo"

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree. Without a subcommand it opens the
// trainer window.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "ritmo",
		Short: "Rhythmic sight-reading trainer in 3/4",
		Long: `ritmo: a sight-reading trainer for three-beat rhythms.

Commands:
  (none)    Open the trainer window
  compose   Print a generated exercise
  songs     List the authored songs
  play      Play a click track in the terminal

Examples:
  ritmo
  ritmo compose --bars 4 --endings
  ritmo play --bpm 96 --song chacarera_simple
  ritmo --store badger --config ~/.config/Ritmo/db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "settings location (YAML file, or directory for badger)")
	flags.StringVar(&opts.storeKind, "store", storeYAML, "settings backend: yaml or badger")
	flags.StringVar(&opts.patterns, "patterns", "", "pattern library YAML (default: built-in)")
	flags.BoolVar(&opts.debug, "debug", false, "debug logging")
	flags.Int64Var(&opts.seed, "seed", 0, "random seed for bar selection (0: time based)")
	flags.IntVar(&opts.bpm, "bpm", 0, "tempo override")
	flags.IntVar(&opts.bars, "bars", 0, "bar count override")
	flags.BoolVar(&opts.endings, "endings", false, "use endings")
	flags.BoolVar(&opts.regenerate, "regenerate", false, "regenerate material when the exercise loops")
	flags.StringVar(&opts.song, "song", "", "play an authored song")

	root.AddCommand(newComposeCommand(opts), newSongsCommand(opts), newPlayCommand(opts))
	return root
}
