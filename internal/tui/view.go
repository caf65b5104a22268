package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"geomap/internal/mapview"
	"geomap/internal/viewsync"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	mapWidth, mapHeight, _, _ := m.layout()
	contentWidth := max(10, m.width)

	// Header
	title := " geomap ─ terminal geospatial viewer "
	header := titleStyle.Render(title)
	if m.source != "" {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, dimStyle.Render(" "+m.source))
	}
	header = lipgloss.NewStyle().Width(contentWidth).MaxHeight(1).Render(header)

	// Map area
	var mapView string
	switch {
	case m.showAttrs:
		// infer a reasonable width from columns
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		maxW := min(mapWidth, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(mapHeight-2, 20))
		box := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(mapWidth, mapHeight, lipgloss.Center, lipgloss.Center, box)
	case m.pasteMode:
		m.ta.SetWidth(mapWidth)
		m.ta.SetHeight(min(mapHeight, 12))
		mapView = lipgloss.NewStyle().Width(mapWidth).Height(mapHeight).Render(m.ta.View())
	default:
		mapView = lipgloss.NewStyle().Width(mapWidth).Height(mapHeight).Render(m.mp.Render())
	}

	// Inspect popup replaces the left edge of the map area
	if m.inspectPopup != "" && !m.showAttrs && !m.pasteMode {
		popupW := max(20, min(48, mapWidth/2))
		box := boxStyle.MaxWidth(popupW).Render(m.inspectPopup)
		mapView = lipgloss.Place(mapWidth, mapHeight, lipgloss.Left, lipgloss.Center, box)
	}

	body := mapView
	if m.showSidebar {
		sidebar := lipgloss.NewStyle().Width(sidebarWidth).Height(mapHeight).Render(m.l.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	}

	footer := lipgloss.JoinVertical(lipgloss.Left, m.statusLine(contentWidth), m.renderHelp(contentWidth))
	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}

// statusLine shows the status message on the left and cursor position plus
// view bounds on the right.
func (m Model) statusLine(width int) string {
	st := dimStyle
	if m.statusErr {
		st = errStyle
	}
	marker := " "
	if m.sync.Pending() {
		marker = pendingStyle.Render("●")
	}
	left := marker + st.Render(" "+m.status+" ")

	var parts []string
	if m.hoverHasGeo {
		parts = append(parts, fmt.Sprintf("lon=%.5f lat=%.5f", m.hover.Lon(), m.hover.Lat()))
	}
	parts = append(parts, m.mp.Bounds().String())
	right := dimStyle.Render(strings.Join(parts, "  ") + " ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return lipgloss.NewStyle().MaxWidth(width).Render(left)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderHelp(width int) string {
	swatches := []string{
		layerSwatch(m, viewsync.LayerID, "current"),
		layerSwatch(m, mapview.OverlayID, "overlay"),
	}
	if !m.helpVisible {
		return strings.Join(swatches, " ")
	}
	keys := []string{
		"↑↓←→ pan",
		"+/- zoom",
		"r refresh",
		"1/2/3 kinds",
		"c/o layers",
		"Tab files",
		"Enter open",
		"p paste",
		"a attrs",
		"i inspect",
		"h help",
		"q quit",
	}
	line := strings.Join(swatches, " ") + dimStyle.Render("  "+strings.Join(keys, "  "))
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}

func layerSwatch(m Model, id, label string) string {
	l, ok := m.mp.Layer(id)
	if !ok {
		return ""
	}
	if !l.Visible {
		return dimStyle.Render("○ " + label)
	}
	return lipgloss.NewStyle().Foreground(l.Color).Render("● " + label)
}
