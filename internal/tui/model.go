package tui

import (
	"fmt"
	"os"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"

	"geomap/internal/mapview"
	"geomap/internal/viewsync"
)

// Options wires the model to its map and data sync.
type Options struct {
	Map  *mapview.Map
	Sync *viewsync.Sync
	// Dir is the directory listed in the sidebar; defaults to the working
	// directory.
	Dir string
	// Overlay is an optional file loaded into the overlay layer at start.
	Overlay string
	// Source is shown in the header.
	Source string
}

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	status    string
	statusErr bool

	// File explorer
	cwd         string
	l           list.Model
	overlayPath string

	// paste mode
	pasteMode bool
	ta        textarea.Model

	// inspect popup
	inspectPopup string

	// hover state
	hoverHasGeo bool
	hover       orb.Point

	// attributes table
	showAttrs bool
	attrLayer string
	tbl       table.Model

	source string
	mp     *mapview.Map
	sync   *viewsync.Sync
	sub    mapview.Subscription
}

// New registers the overlay and current layers, subscribes the sync to
// viewport settles and optionally preloads an overlay file.
func New(opts Options) (Model, error) {
	m := Model{
		helpVisible: true,
		status:      "geomap ready",
		source:      opts.Source,
		mp:          opts.Map,
		sync:        opts.Sync,
		cwd:         opts.Dir,
	}
	if m.cwd == "" {
		m.cwd, _ = os.Getwd()
	}

	if err := m.mp.AddLayer(mapview.OverlayID); err != nil {
		return Model{}, fmt.Errorf("overlay layer: %w", err)
	}
	if err := m.sync.Initialize(); err != nil {
		return Model{}, err
	}
	m.sub = m.mp.OnSettled(m.sync.OnViewportSettled)

	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Overlay files"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste WKT here (one geometry per line). Enter draws it on the overlay; Esc cancels."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	// attributes table setup (columns follow the shown layer)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()

	if opts.Overlay != "" {
		m.loadOverlay(opts.Overlay)
	}
	return m, nil
}

func (m Model) Init() tea.Cmd { return nil }

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = true
}

// layout returns the map area size and its top-left corner on screen.
func (m Model) layout() (w, h, x, y int) {
	const headerHeight, footerHeight = 1, 2
	h = max(4, m.height-headerHeight-footerHeight)
	w = max(10, m.width)
	if m.showSidebar {
		x = sidebarWidth + 1
		w = max(10, w-x)
	}
	return w, h, x, headerHeight
}

const sidebarWidth = 28

// resize pushes the current layout to the map and the sidebar list.
func (m *Model) resize() tea.Cmd {
	w, h, _, _ := m.layout()
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, h-2)
	}
	return m.mp.Resize(w, h)
}
