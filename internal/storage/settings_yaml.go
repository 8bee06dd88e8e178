package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ritmo/internal/ui/preferences"
)

const settingsFileName = "settings.yaml"

// Pointers tell a missing key from a zero value.
type yamlSettings struct {
	BarCount           *int    `yaml:"barCount,omitempty"`
	BPM                *int    `yaml:"bpm,omitempty"`
	Muted              *bool   `yaml:"isMuted,omitempty"`
	RegenerateOnFinish *bool   `yaml:"regenerateOnFinish,omitempty"`
	UseEndings         *bool   `yaml:"useEndings,omitempty"`
	BarsPerRow         *int    `yaml:"barsPerRow,omitempty"`
	Song               *string `yaml:"song,omitempty"`
}

// YAML stores preferences in one YAML file.
type YAML struct {
	path string
}

// NewYAML returns a store backed by the file at path.
func NewYAML(path string) *YAML {
	return &YAML{path: path}
}

// DefaultYAMLPath returns settings.yaml inside the user config directory.
func DefaultYAMLPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// Path returns the settings file location.
func (store *YAML) Path() string {
	return store.path
}

// Load reads user preferences from YAML.
// If the config file does not exist, default settings are returned.
func (store *YAML) Load() (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings.Clamp(), nil
}

// Save writes user preferences to YAML.
func (store *YAML) Save(settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	settings = settings.Clamp()
	fileData := yamlSettings{
		BarCount:           &settings.BarCount,
		BPM:                &settings.BPM,
		Muted:              &settings.Muted,
		RegenerateOnFinish: &settings.RegenerateOnFinish,
		UseEndings:         &settings.UseEndings,
		BarsPerRow:         &settings.BarsPerRow,
	}
	if settings.Song != "" {
		fileData.Song = &settings.Song
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(store.path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// Close is a no-op; the file is not held open.
func (store *YAML) Close() error {
	return nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.BarCount != nil {
		settings.BarCount = *fileData.BarCount
	}
	if fileData.BPM != nil {
		settings.BPM = *fileData.BPM
	}
	if fileData.BarsPerRow != nil {
		settings.BarsPerRow = *fileData.BarsPerRow
	}
	if fileData.Muted != nil {
		settings.Muted = *fileData.Muted
	}
	if fileData.RegenerateOnFinish != nil {
		settings.RegenerateOnFinish = *fileData.RegenerateOnFinish
	}
	if fileData.UseEndings != nil {
		settings.UseEndings = *fileData.UseEndings
	}
	if fileData.Song != nil {
		settings.Song = *fileData.Song
	}
}
