package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ritmo/internal/audio"
	"ritmo/internal/core/scheduler"
)

func newPlayCommand(opts *options) *cobra.Command {
	var (
		silent bool
		loops  int
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the click track and print the cursor until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			output, closeOutput, err := openOutput(env.log, silent)
			if err != nil {
				return err
			}
			defer closeOutput()

			player, err := scheduler.New(env.settings.TrainerConfig(), env.generator, output, scheduler.Options{Logger: env.log})
			if err != nil {
				return err
			}
			defer player.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderScore(player.Score(), nil, env.settings.BarsPerRow, -1))

			events := player.Subscribe(64)
			player.Start()
			err = printPlayback(ctx, out, player.Score().Len(), events, loops, env.settings.BarsPerRow)
			player.Stop()
			return err
		},
	}
	cmd.Flags().BoolVar(&silent, "silent", false, "do not open the audio device")
	cmd.Flags().IntVar(&loops, "loops", 0, "stop after this many passes through the exercise (0: until interrupted)")
	return cmd
}

// openOutput opens the audio device, falling back to a silent output when
// none is available.
func openOutput(logger *zap.Logger, silent bool) (scheduler.Output, func(), error) {
	if silent {
		return audio.NewSilent(), func() {}, nil
	}
	output, err := audio.Open(logger)
	if errors.Is(err, audio.ErrNoDevice) {
		logger.Warn("no audio device, playing silently", zap.Error(err))
		return audio.NewSilent(), func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return output, func() {
		if err := output.Close(); err != nil {
			logger.Warn("close audio", zap.Error(err))
		}
	}, nil
}

// printPlayback writes one line per pre-roll beat and bar until ctx ends or
// the requested number of loops completes.
func printPlayback(ctx context.Context, out io.Writer, barCount int, events <-chan scheduler.Event, loops, barsPerRow int) error {
	completed := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			switch event.Type {
			case scheduler.EventPreRoll:
				fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("count-in %d", event.PreRollBeat)))
			case scheduler.EventScoreChange:
				if event.Score != nil {
					barCount = event.Score.Len()
					fmt.Fprintln(out, helpStyle.Render("new material"))
					fmt.Fprintln(out, renderScore(*event.Score, nil, barsPerRow, -1))
				}
			case scheduler.EventBarAdvance:
				if event.Bar == 0 && barCount > 0 {
					if loops > 0 && completed == loops {
						return nil
					}
					completed++
				}
				fmt.Fprintln(out, barLine(event, barCount))
			}
		}
	}
}

func barLine(event scheduler.Event, barCount int) string {
	line := fmt.Sprintf("bar %d/%d", event.Bar+1, barCount)
	if event.Section != "" {
		line += " [" + event.Section + "]"
	}
	if event.Hint != nil {
		line += helpStyle.Render("   next: " + event.Hint.String())
	}
	return line
}
