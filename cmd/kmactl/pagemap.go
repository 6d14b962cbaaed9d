package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/joshuapare/kmakit/alloc"
)

// granulesPerRow is the width of a rendered page map.
const granulesPerRow = 64

var (
	// Color palette
	primaryColor = lipgloss.Color("#7D56F4")
	successColor = lipgloss.Color("#04B575")
	mutedColor   = lipgloss.Color("#666666")
	borderColor  = lipgloss.Color("#383838")
)

// pageStyles holds the styles of one renderer so --no-color can strip them.
type pageStyles struct {
	header lipgloss.Style
	used   lipgloss.Style
	free   lipgloss.Style
	pane   lipgloss.Style
}

func newPageStyles(w io.Writer, plain bool) pageStyles {
	r := lipgloss.NewRenderer(w)
	if plain {
		r.SetColorProfile(termenv.Ascii)
	}
	return pageStyles{
		header: r.NewStyle().Bold(true).Foreground(primaryColor),
		used:   r.NewStyle().Foreground(successColor),
		free:   r.NewStyle().Foreground(mutedColor),
		pane: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1),
	}
}

// renderPage draws one page's bitmap, one character per granule.
func (s pageStyles) renderPage(ps alloc.PageSnapshot) string {
	var rows []string
	for i := 0; i < len(ps.Bitmap); i += granulesPerRow {
		row := ps.Bitmap[i:min(i+granulesPerRow, len(ps.Bitmap))]
		var b strings.Builder
		for _, c := range row {
			if c == '#' {
				b.WriteString(s.used.Render("#"))
			} else {
				b.WriteString(s.free.Render("."))
			}
		}
		rows = append(rows, b.String())
	}

	used := 0
	for _, blk := range ps.Allocated {
		used += blk.Size
	}
	title := s.header.Render(fmt.Sprintf("page %d @ 0x%x", ps.ID, uint64(ps.Base)))
	info := fmt.Sprintf("%d allocated (%s, %d granules written), %d free blocks",
		len(ps.Allocated), formatBytes(int64(used)), ps.UsedGranules, len(ps.Free))

	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{title, info}, rows...)...)
	return s.pane.Render(body)
}

// renderPages draws every page map.
func renderPages(w io.Writer, pages []alloc.PageSnapshot, plain bool) {
	s := newPageStyles(w, plain)
	for _, ps := range pages {
		fmt.Fprintln(w, s.renderPage(ps))
	}
}
