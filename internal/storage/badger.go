package storage

import (
	"errors"
	"fmt"
	"strconv"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"ritmo/internal/ui/preferences"
)

const keyPrefix = "settings:"

// BadgerOptions configures the Badger store.
type BadgerOptions struct {
	// Dir holds the data files. Required unless InMemory is set.
	Dir string
	// InMemory keeps everything in memory, for tests.
	InMemory bool
	Logger   *zap.Logger
}

// Badger stores one key per setting in a BadgerDB database.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens or creates the database.
func OpenBadger(options BadgerOptions) (*Badger, error) {
	if !options.InMemory && options.Dir == "" {
		return nil, errors.New("storage: badger dir is required for on-disk mode")
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	dbOptions := badger.DefaultOptions(options.Dir).
		WithLogger(badgerLogger{options.Logger.Named("badger").Sugar()})
	if options.InMemory {
		dbOptions = dbOptions.WithInMemory(true)
	}
	db, err := badger.Open(dbOptions)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

// Load reads every known key and keeps defaults for missing ones.
func (store *Badger) Load() (preferences.Settings, error) {
	settings := preferences.DefaultSettings()
	values := make(map[string]string)

	err := store.db.View(func(txn *badger.Txn) error {
		for _, key := range settingKeys() {
			item, err := txn.Get([]byte(keyPrefix + key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			values[key] = string(value)
		}
		return nil
	})
	if err != nil {
		return settings, fmt.Errorf("read settings: %w", err)
	}

	for key, value := range values {
		if err := applyValue(&settings, key, value); err != nil {
			return settings, err
		}
	}
	return settings.Clamp(), nil
}

// Save writes all keys in one transaction.
func (store *Badger) Save(settings preferences.Settings) error {
	settings = settings.Clamp()
	values := map[string]string{
		keyBarCount:           strconv.Itoa(settings.BarCount),
		keyBPM:                strconv.Itoa(settings.BPM),
		keyMuted:              strconv.FormatBool(settings.Muted),
		keyRegenerateOnFinish: strconv.FormatBool(settings.RegenerateOnFinish),
		keyUseEndings:         strconv.FormatBool(settings.UseEndings),
		keyBarsPerRow:         strconv.Itoa(settings.BarsPerRow),
		keySong:               settings.Song,
	}
	err := store.db.Update(func(txn *badger.Txn) error {
		for key, value := range values {
			if err := txn.Set([]byte(keyPrefix+key), []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (store *Badger) Close() error {
	return store.db.Close()
}

func settingKeys() []string {
	return []string{keyBarCount, keyBPM, keyMuted, keyRegenerateOnFinish, keyUseEndings, keyBarsPerRow, keySong}
}

func applyValue(settings *preferences.Settings, key, value string) error {
	var err error
	switch key {
	case keyBarCount:
		settings.BarCount, err = strconv.Atoi(value)
	case keyBPM:
		settings.BPM, err = strconv.Atoi(value)
	case keyBarsPerRow:
		settings.BarsPerRow, err = strconv.Atoi(value)
	case keyMuted:
		settings.Muted, err = strconv.ParseBool(value)
	case keyRegenerateOnFinish:
		settings.RegenerateOnFinish, err = strconv.ParseBool(value)
	case keyUseEndings:
		settings.UseEndings, err = strconv.ParseBool(value)
	case keySong:
		settings.Song = value
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	return nil
}

// badgerLogger routes badger output to zap, dropping info and debug chatter.
type badgerLogger struct {
	log *zap.SugaredLogger
}

func (logger badgerLogger) Errorf(format string, args ...interface{}) {
	logger.log.Errorf(format, args...)
}

func (logger badgerLogger) Warningf(format string, args ...interface{}) {
	logger.log.Warnf(format, args...)
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}
