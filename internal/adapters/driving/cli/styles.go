package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// palette holds the colours of tabular output.
type palette struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color
}

func defaultPalette() palette {
	return palette{
		Primary: lipgloss.Color("#7C3AED"), // Purple
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
		Success: lipgloss.Color("#A6E3A1"), // Green
		Error:   lipgloss.Color("#F38BA8"), // Red
		Border:  lipgloss.Color("#45475A"), // Border gray
	}
}

// tableStyles are the cell styles of a rendered table.
type tableStyles struct {
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Border  lipgloss.Style
	Muted   lipgloss.Style
}

func newTableStyles(p palette) tableStyles {
	cell := lipgloss.NewStyle().Padding(0, 1)
	return tableStyles{
		Header: cell.
			Bold(true).
			Foreground(p.Primary),
		Cell:    cell,
		Success: cell.Foreground(p.Success),
		Error:   cell.Foreground(p.Error),
		Border:  lipgloss.NewStyle().Foreground(p.Border),
		Muted:   lipgloss.NewStyle().Foreground(p.Muted),
	}
}

// newTable creates a bordered table with styled headers. cellStyle picks
// the style of a body cell; nil uses the plain cell style.
func newTable(styles tableStyles, cellStyle func(row, col int) lipgloss.Style, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.Border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			if cellStyle != nil {
				return cellStyle(row, col)
			}
			return styles.Cell
		})
}
