package commands

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ritmo/internal/core/composer"
	"ritmo/internal/core/library"
	"ritmo/internal/core/selector"
	"ritmo/internal/logging"
	"ritmo/internal/storage"
	"ritmo/internal/ui/preferences"
)

const (
	storeYAML   = "yaml"
	storeBadger = "badger"
)

type options struct {
	configPath string
	storeKind  string
	patterns   string
	debug      bool
	seed       int64

	bpm        int
	bars       int
	endings    bool
	regenerate bool
	song       string
}

// environment holds what every command needs: logger, settings and the
// composition pipeline.
type environment struct {
	log       *zap.Logger
	store     storage.Store
	settings  preferences.Settings
	library   *library.Library
	generator *composer.Composer
}

func (opts *options) open(cmd *cobra.Command) (*environment, error) {
	logger, err := logging.New(opts.debug)
	if err != nil {
		return nil, err
	}

	store, err := opts.openStore(logger)
	if err != nil {
		return nil, err
	}
	settings, err := store.Load()
	if err != nil {
		logger.Warn("load settings, using defaults", zap.Error(err))
		settings = preferences.DefaultSettings()
	}
	settings = opts.override(cmd, settings)

	lib, err := library.Load(opts.patterns)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load patterns: %w", err)
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Debug("environment ready",
		zap.String("store", opts.storeKind),
		zap.Int64("seed", seed),
		zap.Int("cells", len(lib.Cells)),
		zap.Int("endings", len(lib.Endings)),
		zap.Strings("songs", lib.SongNames()),
	)

	return &environment{
		log:       logger,
		store:     store,
		settings:  settings,
		library:   lib,
		generator: composer.New(lib, selector.New(lib, rand.NewSource(seed))),
	}, nil
}

func (opts *options) openStore(logger *zap.Logger) (storage.Store, error) {
	switch opts.storeKind {
	case storeYAML, "":
		path := opts.configPath
		if path == "" {
			resolved, err := storage.DefaultYAMLPath(appName)
			if err != nil {
				return nil, err
			}
			path = resolved
		}
		store := storage.NewYAML(path)
		logger.Debug("settings store", zap.String("kind", storeYAML), zap.String("path", store.Path()))
		return store, nil
	case storeBadger:
		dir := opts.configPath
		if dir == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("resolve user config dir: %w", err)
			}
			dir = filepath.Join(configDir, appName, "settings.db")
		}
		return storage.OpenBadger(storage.BadgerOptions{Dir: dir, Logger: logger})
	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", opts.storeKind, storeYAML, storeBadger)
	}
}

// override applies flags the user set explicitly on top of stored settings.
func (opts *options) override(cmd *cobra.Command, settings preferences.Settings) preferences.Settings {
	flags := cmd.Flags()
	if flags.Changed("bpm") {
		settings.BPM = opts.bpm
	}
	if flags.Changed("bars") {
		settings.BarCount = opts.bars
	}
	if flags.Changed("endings") {
		settings.UseEndings = opts.endings
	}
	if flags.Changed("regenerate") {
		settings.RegenerateOnFinish = opts.regenerate
	}
	if flags.Changed("song") {
		settings.Song = opts.song
	}
	return settings.Clamp()
}

func (env *environment) Close() {
	if err := env.store.Close(); err != nil {
		env.log.Warn("close settings store", zap.Error(err))
	}
	_ = env.log.Sync()
}
