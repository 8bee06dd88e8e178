// Package storage persists user preferences.
package storage

import (
	"ritmo/internal/ui/preferences"
)

// Store loads and saves preferences. Load returns defaults for keys that
// were never saved.
type Store interface {
	Load() (preferences.Settings, error)
	Save(settings preferences.Settings) error
	Close() error
}

// Setting keys shared by every backend.
const (
	keyBarCount           = "barCount"
	keyBPM                = "bpm"
	keyMuted              = "isMuted"
	keyRegenerateOnFinish = "regenerateOnFinish"
	keyUseEndings         = "useEndings"
	keyBarsPerRow         = "barsPerRow"
	keySong               = "song"
)
