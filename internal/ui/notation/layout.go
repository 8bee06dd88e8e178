// Package notation turns bars into staff geometry and draws it with fyne.
package notation

import (
	"ritmo/internal/core/model"
)

// Config controls engraving density.
type Config struct {
	BarsPerRow int
	BarWidth   float32
	// LineGap is the distance between two staff lines.
	LineGap float32
	RowGap  float32
	Margin  float32
}

// DefaultConfig returns the engraving used by the trainer window.
func DefaultConfig() Config {
	return Config{
		BarsPerRow: 4,
		BarWidth:   220,
		LineGap:    10,
		RowGap:     50,
		Margin:     20,
	}
}

// Point is a position in layout units.
type Point struct {
	X, Y float32
}

// Line is a straight segment.
type Line struct {
	From, To Point
}

// HeadKind selects how a glyph is drawn.
type HeadKind int

const (
	HeadFilled HeadKind = iota
	HeadOpen
	HeadCross
	HeadRest
)

// Glyph is one notated event.
type Glyph struct {
	Event  model.Event
	Head   HeadKind
	Center Point
	// Stem is set unless HasStem is false.
	Stem    Line
	HasStem bool
	// Flag marks an unbeamed eighth.
	Flag   bool
	Dotted bool
}

// Bracket marks a tuplet group.
type Bracket struct {
	Line  Line
	Label string
}

// BarLayout is everything drawn for one bar.
type BarLayout struct {
	Index    int
	Origin   Point
	Width    float32
	Height   float32
	Active   bool
	Staff    [5]Line
	Barline  Line
	Glyphs   []Glyph
	Beams    []Line
	Brackets []Bracket
}

// Layout is a laid out score.
type Layout struct {
	Width  float32
	Height float32
	Bars   []BarLayout
}

const (
	headroomLines = 4
	stemLines     = 3.5
	paddingShare  = 0.08
)

// Compute lays out bars in rows of config.BarsPerRow. Active is the
// highlighted bar index, -1 for none.
func Compute(bars []model.Bar, config Config, active int) Layout {
	config = normalize(config)

	rowHeight := config.rowHeight()
	result := Layout{Bars: make([]BarLayout, 0, len(bars))}
	for index, bar := range bars {
		row := index / config.BarsPerRow
		column := index % config.BarsPerRow
		origin := Point{
			X: config.Margin + float32(column)*config.BarWidth,
			Y: config.Margin + float32(row)*rowHeight,
		}
		result.Bars = append(result.Bars, layoutBar(index, bar, origin, config, index == active))
	}

	if len(bars) > 0 {
		columns := config.BarsPerRow
		if len(bars) < columns {
			columns = len(bars)
		}
		rows := (len(bars) + config.BarsPerRow - 1) / config.BarsPerRow
		result.Width = 2*config.Margin + float32(columns)*config.BarWidth
		result.Height = 2*config.Margin + float32(rows)*rowHeight - config.RowGap
	}
	return result
}

func normalize(config Config) Config {
	defaults := DefaultConfig()
	if config.BarsPerRow <= 0 {
		config.BarsPerRow = defaults.BarsPerRow
	}
	if config.BarWidth <= 0 {
		config.BarWidth = defaults.BarWidth
	}
	if config.LineGap <= 0 {
		config.LineGap = defaults.LineGap
	}
	if config.RowGap < 0 {
		config.RowGap = defaults.RowGap
	}
	if config.Margin < 0 {
		config.Margin = defaults.Margin
	}
	return config
}

func (config Config) rowHeight() float32 {
	return config.staffTop() + 4*config.LineGap + config.RowGap
}

// staffTop is the offset of the top staff line below the bar origin. The
// space above holds stems, beams and brackets.
func (config Config) staffTop() float32 {
	return headroomLines * config.LineGap
}

func layoutBar(index int, bar model.Bar, origin Point, config Config, active bool) BarLayout {
	top := origin.Y + config.staffTop()
	bottom := top + 4*config.LineGap
	right := origin.X + config.BarWidth

	result := BarLayout{
		Index:   index,
		Origin:  origin,
		Width:   config.BarWidth,
		Height:  bottom - origin.Y + config.LineGap,
		Active:  active,
		Barline: Line{From: Point{X: right, Y: top}, To: Point{X: right, Y: bottom}},
	}
	for i := range result.Staff {
		y := top + float32(i)*config.LineGap
		result.Staff[i] = Line{From: Point{X: origin.X, Y: y}, To: Point{X: right, Y: y}}
	}

	events := bar.Events()
	ticks := bar.EventTicks()
	padding := config.BarWidth * paddingShare
	usable := config.BarWidth - 2*padding
	stemLength := stemLines * config.LineGap

	offsets := make([]int, len(events))
	offset := 0
	for i, event := range events {
		offsets[i] = offset
		offset += ticks[i]

		glyph := Glyph{
			Event:  event,
			Center: Point{X: origin.X + padding + float32(offsets[i])/model.BarTicks*usable},
			Dotted: event.Duration == model.DottedQuarter,
		}
		if event.Rest {
			glyph.Head = HeadRest
			glyph.Center.Y = top + 2*config.LineGap
			result.Glyphs = append(result.Glyphs, glyph)
			continue
		}

		glyph.Center.Y = pitchY(event.Pitch, top, config.LineGap)
		switch {
		case event.Pitch == model.Percussive:
			glyph.Head = HeadCross
		case event.Duration == model.Half:
			glyph.Head = HeadOpen
		default:
			glyph.Head = HeadFilled
		}
		stemX := glyph.Center.X + config.LineGap/2
		glyph.Stem = Line{
			From: Point{X: stemX, Y: glyph.Center.Y},
			To:   Point{X: stemX, Y: glyph.Center.Y - stemLength},
		}
		glyph.HasStem = true
		result.Glyphs = append(result.Glyphs, glyph)
	}

	for _, group := range beamGroups(events, offsets) {
		if len(group) == 1 {
			result.Glyphs[group[0]].Flag = true
			continue
		}
		first := result.Glyphs[group[0]]
		last := result.Glyphs[group[len(group)-1]]
		y := first.Stem.To.Y
		for _, i := range group {
			if result.Glyphs[i].Stem.To.Y < y {
				y = result.Glyphs[i].Stem.To.Y
			}
		}
		for _, i := range group {
			result.Glyphs[i].Stem.To.Y = y
		}
		result.Beams = append(result.Beams, Line{
			From: Point{X: first.Stem.From.X, Y: y},
			To:   Point{X: last.Stem.From.X, Y: y},
		})
	}

	if start, end, ok := bar.TripletRange(); ok {
		y := top
		for i := start; i < end; i++ {
			glyph := result.Glyphs[i]
			if glyph.HasStem && glyph.Stem.To.Y < y {
				y = glyph.Stem.To.Y
			}
		}
		y -= config.LineGap
		result.Brackets = append(result.Brackets, Bracket{
			Line: Line{
				From: Point{X: result.Glyphs[start].Center.X, Y: y},
				To:   Point{X: result.Glyphs[end-1].Center.X + config.LineGap/2, Y: y},
			},
			Label: "3",
		})
	}
	return result
}

// beamGroups returns runs of consecutive eighth notes that fall in the same
// beat. Rests break a run.
func beamGroups(events []model.Event, offsets []int) [][]int {
	var groups [][]int
	var current []int
	beat := -1
	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
		}
		current = nil
	}
	for i, event := range events {
		if event.Rest || !event.Duration.Beamable() {
			flush()
			continue
		}
		eventBeat := offsets[i] / model.TicksPerBeat
		if eventBeat != beat {
			flush()
			beat = eventBeat
		}
		current = append(current, i)
	}
	flush()
	return groups
}

// pitchY places low on the bottom line, high on the second line and
// percussive sounds on the middle line.
func pitchY(pitch model.Pitch, top, gap float32) float32 {
	switch pitch {
	case model.Low:
		return top + 4*gap
	case model.High:
		return top + 3*gap
	default:
		return top + 2*gap
	}
}
