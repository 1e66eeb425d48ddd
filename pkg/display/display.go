// Package display renders the tools available across MCP servers as a
// terminal table.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
)

// MaxDescriptionWidth is the cell width descriptions are truncated to.
const MaxDescriptionWidth = 72

// Row is one tool offered by one server.
type Row struct {
	Server      string
	Tool        string
	Description string
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0969da")).Padding(0, 1)
	descStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1a7f37")).Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#656d76"))
)

// Table builds the table for rows.
func Table(rows []Row) *table.Table {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Server", "Tool", "Description").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 2:
				return descStyle
			default:
				return nameStyle
			}
		})

	for _, r := range rows {
		t.Row(r.Server, r.Tool, Summary(r.Description, MaxDescriptionWidth))
	}

	return t
}

// Render writes a titled table of rows to w.
func Render(w io.Writer, rows []Row) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n", titleStyle.Render("Available MCP Server Tools"), Table(rows).Render())
	return err
}

// Summary returns the first line of s truncated to width terminal cells.
func Summary(s string, width int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return runewidth.Truncate(strings.TrimSpace(line), width, "…")
}
