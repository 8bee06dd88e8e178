// Package library holds the catalog of rhythm cells, endings and authored
// songs. Templates are plain data: every bar is checked against the
// duration invariant once, when the catalog is parsed.
package library

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"ritmo/internal/core/model"
	"ritmo/resources"
)

var (
	// ErrEmptyCatalog indicates a library without cells or endings.
	ErrEmptyCatalog = errors.New("empty catalog")
	// ErrBadToken indicates an unreadable note token.
	ErrBadToken = errors.New("bad note token")
)

// Placeholder is a symbolic pitch resolved at materialization.
type Placeholder string

const (
	PlaceholderHigh       Placeholder = "g"
	PlaceholderLow        Placeholder = "e"
	PlaceholderPercussive Placeholder = "x"
	PlaceholderRest       Placeholder = "r"
)

// Token is one symbol of a template bar.
type Token struct {
	Placeholder Placeholder
	Duration    model.Duration
	Triplet     bool
}

// Template is a bar as authored, before placeholders are resolved.
type Template struct {
	Name   string
	Tokens []Token
}

// EndingTemplate is an authored cadence pair.
type EndingTemplate struct {
	Name  string
	Final Template
	Next  Template
}

// SectionTemplate is a named run of template bars in a song.
type SectionTemplate struct {
	Name string
	Bars []Template
}

// Library is the read-only pattern catalog.
type Library struct {
	Cells   []Template
	Endings []EndingTemplate
	Songs   map[string][]SectionTemplate
}

type yamlCell struct {
	Name  string `yaml:"name"`
	Notes string `yaml:"notes"`
}

type yamlEnding struct {
	Name  string `yaml:"name"`
	Final string `yaml:"final"`
	Next  string `yaml:"next"`
}

type yamlSection struct {
	Section string   `yaml:"section"`
	Bars    []string `yaml:"bars"`
}

type yamlLibrary struct {
	Cells   []yamlCell               `yaml:"cells"`
	Endings []yamlEnding             `yaml:"endings"`
	Songs   map[string][]yamlSection `yaml:"songs"`
}

// Default returns the built-in library. The embedded data is fixed, so a
// parse failure is a build defect and panics.
func Default() *Library {
	lib, err := Parse(resources.Patterns())
	if err != nil {
		panic(fmt.Errorf("built-in patterns: %w", err))
	}
	return lib
}

// Load reads a library from path, or the built-in one when path is empty.
func Load(path string) (*Library, error) {
	data, err := resources.PatternsFrom(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and validates every bar.
func Parse(data []byte) (*Library, error) {
	var fileData yamlLibrary
	if err := yaml.Unmarshal(data, &fileData); err != nil {
		return nil, fmt.Errorf("parse patterns yaml: %w", err)
	}
	if len(fileData.Cells) == 0 || len(fileData.Endings) == 0 {
		return nil, fmt.Errorf("%w: %d cells, %d endings", ErrEmptyCatalog, len(fileData.Cells), len(fileData.Endings))
	}

	lib := &Library{Songs: make(map[string][]SectionTemplate, len(fileData.Songs))}
	for _, cell := range fileData.Cells {
		template, err := parseTemplate(cell.Name, cell.Notes)
		if err != nil {
			return nil, err
		}
		lib.Cells = append(lib.Cells, template)
	}
	for _, ending := range fileData.Endings {
		final, err := parseTemplate(ending.Name+" final", ending.Final)
		if err != nil {
			return nil, err
		}
		next, err := parseTemplate(ending.Name+" next", ending.Next)
		if err != nil {
			return nil, err
		}
		lib.Endings = append(lib.Endings, EndingTemplate{Name: ending.Name, Final: final, Next: next})
	}
	for song, sections := range fileData.Songs {
		if len(sections) == 0 {
			return nil, fmt.Errorf("song %s: %w", song, ErrEmptyCatalog)
		}
		parsed := make([]SectionTemplate, 0, len(sections))
		for _, section := range sections {
			if section.Section == "" || len(section.Bars) == 0 {
				return nil, fmt.Errorf("song %s: unnamed or empty section", song)
			}
			bars := make([]Template, 0, len(section.Bars))
			for i, notes := range section.Bars {
				template, err := parseTemplate(fmt.Sprintf("%s/%s[%d]", song, section.Section, i), notes)
				if err != nil {
					return nil, err
				}
				bars = append(bars, template)
			}
			parsed = append(parsed, SectionTemplate{Name: section.Section, Bars: bars})
		}
		lib.Songs[song] = parsed
	}
	return lib, nil
}

// SongNames returns the authored songs in alphabetical order.
func (lib *Library) SongNames() []string {
	names := make([]string, 0, len(lib.Songs))
	for name := range lib.Songs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Materialize resolves placeholders into a playable bar.
func (template Template) Materialize() model.Bar {
	bar := make(model.Bar, 0, len(template.Tokens))
	for _, token := range template.Tokens {
		if token.Triplet {
			bar = append(bar, model.Triplet())
			continue
		}
		switch token.Placeholder {
		case PlaceholderRest:
			bar = append(bar, model.Rest(token.Duration))
		case PlaceholderHigh:
			bar = append(bar, model.Note(model.High, token.Duration))
		case PlaceholderPercussive:
			bar = append(bar, model.Note(model.Percussive, token.Duration))
		default:
			bar = append(bar, model.Note(model.Low, token.Duration))
		}
	}
	return bar
}

// Materialize resolves both bars of the ending.
func (ending EndingTemplate) Materialize() model.Ending {
	return model.Ending{Final: ending.Final.Materialize(), Next: ending.Next.Materialize()}
}

// SongLabel turns a song key such as "chacarera_doble" into "Chacarera doble".
func SongLabel(name string) string {
	if name == "" {
		return ""
	}
	spaced := strings.ReplaceAll(name, "_", " ")
	first, size := utf8.DecodeRuneInString(spaced)
	return cases.Upper(language.Spanish).String(string(first)) + spaced[size:]
}

func parseTemplate(name, notes string) (Template, error) {
	fields := strings.Fields(notes)
	tokens := make([]Token, 0, len(fields))
	for _, field := range fields {
		token, err := parseToken(field)
		if err != nil {
			return Template{}, fmt.Errorf("%s: %w", name, err)
		}
		tokens = append(tokens, token)
	}
	template := Template{Name: name, Tokens: tokens}
	if err := template.Materialize().Validate(); err != nil {
		return Template{}, fmt.Errorf("%s: %w", name, err)
	}
	return template, nil
}

func parseToken(field string) (Token, error) {
	if field == "3" {
		return Token{Triplet: true}, nil
	}
	placeholder := Placeholder(field[:1])
	switch placeholder {
	case PlaceholderHigh, PlaceholderLow, PlaceholderPercussive, PlaceholderRest:
	default:
		return Token{}, fmt.Errorf("%w: %q", ErrBadToken, field)
	}
	var duration model.Duration
	switch field[1:] {
	case "4", "q":
		duration = model.Quarter
	case "8":
		duration = model.Eighth
	case "4.", "q.":
		duration = model.DottedQuarter
	case "2", "h":
		duration = model.Half
	default:
		return Token{}, fmt.Errorf("%w: %q", ErrBadToken, field)
	}
	return Token{Placeholder: placeholder, Duration: duration}, nil
}
