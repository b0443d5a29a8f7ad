package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	salmonPink = lipgloss.Color("#FFB3BA")
	mintGreen  = lipgloss.Color("#A8E6CF")
	mutedGray  = lipgloss.Color("#6B7280")

	// QuestionStyle renders prompt questions.
	QuestionStyle = lipgloss.NewStyle().Foreground(salmonPink).Bold(true)

	// PromptStyle renders the input marker.
	PromptStyle = lipgloss.NewStyle().Foreground(mintGreen)

	// MutedStyle renders secondary text.
	MutedStyle = lipgloss.NewStyle().Foreground(mutedGray)

	headerCellStyle = lipgloss.NewStyle().Foreground(salmonPink).Bold(true).Padding(0, 1)
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
)

// Table renders rows under headers with a rounded border.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedGray)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.Render()
}
