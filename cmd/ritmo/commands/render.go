package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ritmo/internal/core/library"
	"ritmo/internal/core/model"
)

var (
	primary = lipgloss.Color("#e8be42")
	dim     = lipgloss.Color("#6e7681")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(primary).MarginTop(1)
	barStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim).
			Padding(0, 1)
	activeBarStyle = barStyle.BorderForeground(primary)
	helpStyle      = lipgloss.NewStyle().Foreground(dim)
)

// renderScore prints a score as rows of boxed bars, one row per section.
func renderScore(score model.Score, ending *model.Ending, barsPerRow, active int) string {
	var blocks []string
	index := 0
	for _, section := range score.Sections {
		if section.Name != "" {
			blocks = append(blocks, sectionStyle.Render(library.SongLabel(section.Name)))
		}
		var row []string
		for _, bar := range section.Bars {
			style := barStyle
			if index == active {
				style = activeBarStyle
			}
			row = append(row, style.Render(fmt.Sprintf("%2d │ %s", index+1, bar)))
			index++
			if len(row) == barsPerRow {
				blocks = append(blocks, lipgloss.JoinHorizontal(lipgloss.Top, row...))
				row = nil
			}
		}
		if len(row) > 0 {
			blocks = append(blocks, lipgloss.JoinHorizontal(lipgloss.Top, row...))
		}
	}
	if ending != nil {
		blocks = append(blocks, helpStyle.Render(fmt.Sprintf("ending: %s   next opener: %s", ending.Final, ending.Next)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderHeader(title string, details ...string) string {
	return titleStyle.Render(title) + " " + helpStyle.Render(strings.Join(details, " · "))
}
