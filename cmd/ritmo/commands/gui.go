package commands

import (
	"context"
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ritmo/internal/core/composer"
	"ritmo/internal/core/scheduler"
	"ritmo/internal/platform"
	"ritmo/internal/ui/preferences"
	"ritmo/internal/ui/trainer"
	"ritmo/internal/ui/tray"
)

func runGUI(cmd *cobra.Command, opts *options) error {
	instance, err := platform.AcquireSingleInstance(appName)
	if errors.Is(err, platform.ErrAlreadyRunning) {
		if raiseErr := platform.RaiseRunning(appName); raiseErr != nil {
			return fmt.Errorf("%w: %v", err, raiseErr)
		}
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		_ = instance.Release()
	}()

	env, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer env.Close()
	logger := env.log

	output, closeOutput, err := openOutput(logger, false)
	if err != nil {
		return err
	}
	defer closeOutput()

	settings := env.settings
	player, err := scheduler.New(settings.TrainerConfig(), env.generator, output, scheduler.Options{Logger: logger})
	if errors.Is(err, composer.ErrUnknownSong) {
		logger.Warn("stored song missing from library", zap.String("song", settings.Song))
		settings.Song = ""
		player, err = scheduler.New(settings.TrainerConfig(), env.generator, output, scheduler.Options{Logger: logger})
	}
	if err != nil {
		return err
	}
	defer player.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	fyneApp := app.NewWithID("com.ritmo.app")
	fyneApp.SetIcon(theme.MediaMusicIcon())
	songs := env.library.SongNames()

	save := func(updated preferences.Settings) {
		settings = updated.Clamp()
		if err := env.store.Save(settings); err != nil {
			logger.Error("save settings", zap.Error(err))
		}
	}

	var (
		trainerWindow *trainer.Window
		prefsWindow   *preferences.Window
		trayManager   *tray.Manager
	)
	quit := func() {
		player.Stop()
		fyneApp.Quit()
	}

	trainerWindow = trainer.New(fyneApp, player, songs, settings.BarsPerRow, trainer.Callbacks{
		OnSongChange: func(song string) {
			updated := settings
			updated.Song = song
			if err := player.UpdateConfig(updated.TrainerConfig()); err != nil {
				logger.Error("change song", zap.String("song", song), zap.Error(err))
				return
			}
			save(updated)
			prefsWindow.UpdateSettings(settings)
		},
		OnPreferences: func() {
			prefsWindow.Show()
		},
		OnQuit: quit,
	})

	prefsWindow = preferences.New(fyneApp, settings, songs, func(updated preferences.Settings) {
		if err := player.UpdateConfig(updated.TrainerConfig()); err != nil {
			logger.Error("apply settings", zap.Error(err))
			updated.Song = settings.Song
			if err := player.UpdateConfig(updated.TrainerConfig()); err != nil {
				logger.Error("apply settings without song", zap.Error(err))
				return
			}
		}
		save(updated)
		trainerWindow.SetBarsPerRow(settings.BarsPerRow)
		trainerWindow.Refresh()
	})

	if desktopApp, ok := fyneApp.(desktop.App); ok {
		trayManager = tray.New(desktopApp, tray.Callbacks{
			OnShow:        trainerWindow.Show,
			OnPreferences: prefsWindow.Show,
			OnTransport: func() {
				if player.Status() == scheduler.StateIdle {
					player.Start()
					return
				}
				player.Stop()
			},
			OnToggleMute: func() { player.ToggleMute() },
			OnGenerate:   func() { player.Regenerate() },
			OnQuit:       quit,
		})
		desktopApp.SetSystemTrayIcon(theme.MediaMusicIcon())
	} else {
		logger.Info("system tray unsupported on this platform")
	}

	go instance.Serve(ctx, func() {
		fyne.Do(trainerWindow.Show)
	})

	trainerWindow.Listen(ctx, player.Subscribe(256))
	if trayManager != nil {
		watchTray(ctx, player.Subscribe(64), trayManager, player.Score().Len())
	}

	logger.Info("trainer ready", zap.Int("bpm", settings.BPM), zap.Int("bars", settings.BarCount), zap.String("song", settings.Song))
	trainerWindow.Show()
	fyneApp.Run()
	return nil
}

// watchTray mirrors playback state into the tray menu.
func watchTray(ctx context.Context, events <-chan scheduler.Event, manager *tray.Manager, barCount int) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				fyne.Do(func() {
					switch event.Type {
					case scheduler.EventStateChange:
						manager.SetPlaying(event.State != scheduler.StateIdle)
						manager.SetStatus(string(event.State))
					case scheduler.EventScoreChange:
						if event.Score != nil {
							barCount = event.Score.Len()
						}
					case scheduler.EventBarAdvance:
						if barCount > 0 {
							manager.SetStatus(fmt.Sprintf("bar %d/%d", event.Bar+1, barCount))
						}
					case scheduler.EventMute:
						manager.SetMuted(event.Muted)
					}
				})
			}
		}
	}()
}
