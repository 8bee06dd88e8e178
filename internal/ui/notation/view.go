package notation

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"

	"ritmo/internal/core/model"
)

var (
	inkColor      = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
	staffColor    = color.NRGBA{R: 90, G: 90, B: 90, A: 255}
	activeColor   = color.NRGBA{R: 232, G: 190, B: 66, A: 90}
	inactiveColor = color.NRGBA{A: 0}
	paperColor    = color.NRGBA{R: 250, G: 248, B: 240, A: 255}
)

// View draws a score and highlights the bar under the cursor. Methods must
// be called on the fyne main goroutine.
type View struct {
	config     Config
	bars       []model.Bar
	active     int
	content    *fyne.Container
	highlights []*canvas.Rectangle
}

// NewView creates an empty view.
func NewView(config Config) *View {
	view := &View{
		config:  normalize(config),
		active:  -1,
		content: container.NewWithoutLayout(),
	}
	view.redraw()
	return view
}

// Object returns the canvas object to place in a window.
func (view *View) Object() fyne.CanvasObject {
	return view.content
}

// SetBars replaces the drawn score.
func (view *View) SetBars(bars []model.Bar) {
	view.bars = bars
	view.redraw()
}

// SetBarsPerRow changes the wrapping width.
func (view *View) SetBarsPerRow(count int) {
	if count == view.config.BarsPerRow {
		return
	}
	view.config.BarsPerRow = count
	view.config = normalize(view.config)
	view.redraw()
}

// SetActive moves the highlight. Negative clears it.
func (view *View) SetActive(index int) {
	if index == view.active {
		return
	}
	view.paint(view.active, false)
	view.active = index
	view.paint(view.active, true)
}

func (view *View) paint(index int, active bool) {
	if index < 0 || index >= len(view.highlights) {
		return
	}
	rect := view.highlights[index]
	rect.FillColor = inactiveColor
	if active {
		rect.FillColor = activeColor
	}
	rect.Refresh()
}

func (view *View) redraw() {
	layout := Compute(view.bars, view.config, view.active)

	paper := canvas.NewRectangle(paperColor)
	paper.SetMinSize(fyne.NewSize(layout.Width, layout.Height))
	paper.Resize(fyne.NewSize(layout.Width, layout.Height))

	objects := []fyne.CanvasObject{paper}
	view.highlights = view.highlights[:0]
	for _, bar := range layout.Bars {
		highlight, drawn := drawBar(bar, view.config)
		view.highlights = append(view.highlights, highlight)
		objects = append(objects, drawn...)
	}
	view.content.Objects = objects
	view.content.Refresh()
}

// drawBar renders one bar. The first returned object is also the highlight.
func drawBar(bar BarLayout, config Config) (*canvas.Rectangle, []fyne.CanvasObject) {
	highlight := canvas.NewRectangle(inactiveColor)
	if bar.Active {
		highlight.FillColor = activeColor
	}
	highlight.Move(fyne.NewPos(bar.Origin.X, bar.Origin.Y))
	highlight.Resize(fyne.NewSize(bar.Width, bar.Height))

	objects := []fyne.CanvasObject{highlight}
	for _, line := range bar.Staff {
		objects = append(objects, stroke(line, staffColor, 1))
	}
	objects = append(objects, stroke(bar.Barline, staffColor, 1))

	radius := config.LineGap / 2
	for _, glyph := range bar.Glyphs {
		objects = append(objects, drawGlyph(glyph, radius)...)
	}
	for _, beam := range bar.Beams {
		objects = append(objects, stroke(beam, inkColor, radius*0.8))
	}
	for _, bracket := range bar.Brackets {
		objects = append(objects, stroke(bracket.Line, inkColor, 1))
		label := canvas.NewText(bracket.Label, inkColor)
		label.TextSize = config.LineGap * 1.2
		label.TextStyle = fyne.TextStyle{Italic: true, Bold: true}
		size := label.MinSize()
		middle := (bracket.Line.From.X + bracket.Line.To.X) / 2
		label.Move(fyne.NewPos(middle-size.Width/2, bracket.Line.From.Y-size.Height))
		objects = append(objects, label)
	}
	return highlight, objects
}

func drawGlyph(glyph Glyph, radius float32) []fyne.CanvasObject {
	center := glyph.Center
	var objects []fyne.CanvasObject

	switch glyph.Head {
	case HeadRest:
		return drawRest(glyph, radius)
	case HeadCross:
		objects = append(objects,
			stroke(Line{From: Point{center.X - radius, center.Y - radius}, To: Point{center.X + radius, center.Y + radius}}, inkColor, 1.5),
			stroke(Line{From: Point{center.X - radius, center.Y + radius}, To: Point{center.X + radius, center.Y - radius}}, inkColor, 1.5),
		)
	default:
		head := canvas.NewCircle(inkColor)
		if glyph.Head == HeadOpen {
			head.FillColor = inactiveColor
			head.StrokeColor = inkColor
			head.StrokeWidth = 1.5
		}
		head.Move(fyne.NewPos(center.X-radius, center.Y-radius*0.8))
		head.Resize(fyne.NewSize(2*radius, 1.6*radius))
		objects = append(objects, head)
	}

	if glyph.Dotted {
		dot := canvas.NewCircle(inkColor)
		dot.Move(fyne.NewPos(center.X+radius*1.6, center.Y-radius*0.6))
		dot.Resize(fyne.NewSize(radius*0.5, radius*0.5))
		objects = append(objects, dot)
	}
	if glyph.HasStem {
		objects = append(objects, stroke(glyph.Stem, inkColor, 1.2))
	}
	if glyph.Flag {
		top := glyph.Stem.To
		objects = append(objects, stroke(Line{From: top, To: Point{top.X + radius*1.4, top.Y + radius*2.4}}, inkColor, 1.5))
	}
	return objects
}

func drawRest(glyph Glyph, radius float32) []fyne.CanvasObject {
	center := glyph.Center
	switch glyph.Event.Duration {
	case model.Half:
		block := canvas.NewRectangle(inkColor)
		block.Move(fyne.NewPos(center.X-radius, center.Y-radius))
		block.Resize(fyne.NewSize(2*radius, radius))
		return []fyne.CanvasObject{block}
	case model.Eighth:
		dot := canvas.NewCircle(inkColor)
		dot.Move(fyne.NewPos(center.X-radius*0.6, center.Y-radius*1.2))
		dot.Resize(fyne.NewSize(radius*0.7, radius*0.7))
		return []fyne.CanvasObject{
			dot,
			stroke(Line{From: Point{center.X + radius*0.6, center.Y - radius}, To: Point{center.X - radius*0.2, center.Y + radius*2}}, inkColor, 1.5),
		}
	default:
		return []fyne.CanvasObject{
			stroke(Line{From: Point{center.X - radius*0.4, center.Y - radius*2}, To: Point{center.X + radius*0.4, center.Y - radius*0.6}}, inkColor, 2),
			stroke(Line{From: Point{center.X + radius*0.4, center.Y - radius*0.6}, To: Point{center.X - radius*0.4, center.Y + radius*0.6}}, inkColor, 2),
			stroke(Line{From: Point{center.X - radius*0.4, center.Y + radius*0.6}, To: Point{center.X + radius*0.2, center.Y + radius*2}}, inkColor, 2),
		}
	}
}

func stroke(line Line, colour color.Color, width float32) *canvas.Line {
	drawn := canvas.NewLine(colour)
	drawn.StrokeWidth = width
	drawn.Position1 = fyne.NewPos(line.From.X, line.From.Y)
	drawn.Position2 = fyne.NewPos(line.To.X, line.To.Y)
	return drawn
}
