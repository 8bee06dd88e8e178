package model

// Section is a named run of bars inside a song.
type Section struct {
	Name string
	Bars []Bar
}

// Score is an ordered list of sections. Generated exercises hold a single
// unnamed section.
type Score struct {
	Sections []Section
}

// NewFlatScore wraps bars as a generated exercise.
func NewFlatScore(bars []Bar) Score {
	return Score{Sections: []Section{{Bars: bars}}}
}

// IsSong reports whether the score came from an authored song.
func (score Score) IsSong() bool {
	for _, section := range score.Sections {
		if section.Name != "" {
			return true
		}
	}
	return false
}

// Len returns the total number of bars.
func (score Score) Len() int {
	total := 0
	for _, section := range score.Sections {
		total += len(section.Bars)
	}
	return total
}

// Bars returns all bars flattened in playing order.
func (score Score) Bars() []Bar {
	bars := make([]Bar, 0, score.Len())
	for _, section := range score.Sections {
		bars = append(bars, section.Bars...)
	}
	return bars
}

// Bar returns the bar at a flattened index.
func (score Score) Bar(index int) (Bar, bool) {
	section, offset, ok := score.locate(index)
	if !ok {
		return nil, false
	}
	return score.Sections[section].Bars[offset], true
}

// SetBar replaces the bar at a flattened index.
func (score Score) SetBar(index int, bar Bar) bool {
	section, offset, ok := score.locate(index)
	if !ok {
		return false
	}
	score.Sections[section].Bars[offset] = bar
	return true
}

// SectionAt returns the name of the section holding a flattened index.
func (score Score) SectionAt(index int) string {
	section, _, ok := score.locate(index)
	if !ok {
		return ""
	}
	return score.Sections[section].Name
}

// Clone deep-copies the score.
func (score Score) Clone() Score {
	sections := make([]Section, len(score.Sections))
	for i, section := range score.Sections {
		bars := make([]Bar, len(section.Bars))
		for j, bar := range section.Bars {
			bars[j] = bar.Clone()
		}
		sections[i] = Section{Name: section.Name, Bars: bars}
	}
	return Score{Sections: sections}
}

func (score Score) locate(index int) (int, int, bool) {
	if index < 0 {
		return 0, 0, false
	}
	for i, section := range score.Sections {
		if index < len(section.Bars) {
			return i, index, true
		}
		index -= len(section.Bars)
	}
	return 0, 0, false
}
