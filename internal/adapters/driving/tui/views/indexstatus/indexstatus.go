// Package indexstatus shows evidence index statistics in the TUI.
package indexstatus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
)

// ErrNoIndexService indicates that no index service was provided.
var ErrNoIndexService = errors.New("index service is required")

// View shows how many abstracts, chunks and embeddings the index holds.
type View struct {
	styles       *styles.Styles
	keymap       *keymap.KeyMap
	indexService driving.IndexService
	ctx          context.Context

	stats   domain.IndexStats
	loaded  bool
	loading bool
	err     error
	width   int
	height  int
}

// NewView creates a new index status view.
func NewView(s *styles.Styles, km *keymap.KeyMap, indexService driving.IndexService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:       s,
		keymap:       km,
		indexService: indexService,
		ctx:          context.Background(),
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads index statistics.
func (v *View) Init() tea.Cmd {
	v.loading = true
	svc := v.indexService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.IndexStatsLoaded{Err: ErrNoIndexService}
		}
		stats, err := svc.Stats(ctx)
		return messages.IndexStatsLoaded{Stats: stats, Err: err}
	}
}

// Update handles messages for the index view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.IndexStatsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.stats = msg.Stats
			v.loaded = true
		}
		return v, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		if keymap.Matches(msg.String(), v.keymap.Refresh) {
			return v, v.Init()
		}
	}
	return v, nil
}

// View renders the index statistics.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Evidence index"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.loaded:
		fmt.Fprintf(&b, "  Abstracts:  %d\n", v.stats.Abstracts)
		fmt.Fprintf(&b, "  Chunks:     %d\n", v.stats.Chunks)
		fmt.Fprintf(&b, "  Embedded:   %d\n", v.stats.Embedded)
		if !v.stats.BuiltAt.IsZero() {
			fmt.Fprintf(&b, "  Built at:   %s\n", v.stats.BuiltAt.Local().Format(time.DateTime))
		}
		b.WriteString("\n")
		if v.stats.Ready() {
			b.WriteString(v.styles.Success.Render("Ready for retrieval."))
		} else {
			b.WriteString(v.styles.Warning.Render(
				"Not ready. Run 'reinfect index fetch' then 'reinfect index build'."))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[r] Refresh  [Esc] Back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Stats returns the last loaded statistics.
func (v *View) Stats() domain.IndexStats {
	return v.stats
}
