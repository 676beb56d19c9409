// Package history provides the question/answer log view for the TUI.
package history

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

// Limit is the number of entries loaded.
const Limit = 50

// ErrNoHistoryService indicates that no history service was provided.
var ErrNoHistoryService = errors.New("history service is required")

// View lists recent questions, newest first, with the selected answer below.
type View struct {
	styles         *styles.Styles
	keymap         *keymap.KeyMap
	historyService driving.HistoryService
	ctx            context.Context

	entries  []domain.QnALogEntry
	selected int
	loading  bool
	err      error
	width    int
	height   int
}

// NewView creates a new history view.
func NewView(s *styles.Styles, km *keymap.KeyMap, historyService driving.HistoryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:         s,
		keymap:         km,
		historyService: historyService,
		ctx:            context.Background(),
		width:          80,
		height:         24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the history.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	svc := v.historyService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.HistoryLoaded{Err: ErrNoHistoryService}
		}
		entries, err := svc.Recent(ctx, Limit)
		return messages.HistoryLoaded{Entries: entries, Err: err}
	}
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.HistoryLoaded:
		v.loading = false
		v.err = msg.Err
		v.entries = reversed(msg.Entries)
		v.selected = 0
		return v, nil

	case tea.KeyMsg:
		key := msg.String()
		switch {
		case msg.Type == tea.KeyEsc:
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case keymap.Matches(key, v.keymap.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(key, v.keymap.Down):
			if v.selected < len(v.entries)-1 {
				v.selected++
			}
		case keymap.Matches(key, v.keymap.Refresh):
			return v, v.Init()
		}
	}
	return v, nil
}

// reversed returns entries newest first. The log returns them oldest first.
func reversed(entries []domain.QnALogEntry) []domain.QnALogEntry {
	out := make([]domain.QnALogEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

// View renders the history view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("History"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.entries) == 0:
		b.WriteString(v.styles.Muted.Render("No questions asked yet."))
	default:
		v.renderEntries(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [r] Refresh  [Esc] Back"))
	return b.String()
}

func (v *View) renderEntries(b *strings.Builder) {
	visible := max(v.height/3, 3)
	start := 0
	if v.selected >= visible {
		start = v.selected - visible + 1
	}
	end := min(start+visible, len(v.entries))

	for i := start; i < end; i++ {
		e := v.entries[i]
		line := fmt.Sprintf("%s  %s", e.Timestamp.Local().Format(time.DateTime), e.Question)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if e := v.SelectedEntry(); e != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Answer.Width(max(v.width-4, 20)).Render(e.Answer))
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Entries returns the loaded entries, newest first.
func (v *View) Entries() []domain.QnALogEntry {
	return v.entries
}

// SelectedEntry returns the selected entry, or nil.
func (v *View) SelectedEntry() *domain.QnALogEntry {
	if v.selected < 0 || v.selected >= len(v.entries) {
		return nil
	}
	return &v.entries[v.selected]
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
