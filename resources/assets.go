package resources

import (
	_ "embed"
	"fmt"
	"os"
	"sync"
)

//go:embed patterns.yaml
var patternsYAML []byte

var patternCache sync.Map

// Patterns returns the built-in pattern library.
func Patterns() []byte {
	return patternsYAML
}

// PatternsFrom returns the pattern library stored at path, or the built-in
// one when path is empty.
func PatternsFrom(path string) ([]byte, error) {
	if path == "" {
		return patternsYAML, nil
	}
	if cached, ok := patternCache.Load(path); ok {
		return cached.([]byte), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load patterns %s: %w", path, err)
	}

	patternCache.Store(path, data)
	return data, nil
}
