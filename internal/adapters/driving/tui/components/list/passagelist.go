// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// PassageList displays retrieved evidence passages in a navigable list.
type PassageList struct {
	passages []domain.EvidencePassage
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewPassageList creates a new passage list component.
func NewPassageList(s *styles.Styles) *PassageList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &PassageList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the passage list.
func (r *PassageList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *PassageList) Update(msg tea.Msg) (*PassageList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the passage list.
func (r *PassageList) View() string {
	if len(r.passages) == 0 {
		return r.styles.Muted.Render("No evidence passages")
	}

	lines := make([]string, 0, len(r.passages)*2+2)

	header := r.styles.Subtitle.Render(fmt.Sprintf("Evidence (%d)", len(r.passages)))
	lines = append(lines, header, "")

	// Each passage takes two lines plus spacing.
	visibleCount := max((r.height-4)/3, 1)

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(r.passages))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderPassage(i, &r.passages[i]))
	}

	return strings.Join(lines, "\n")
}

// renderPassage formats a passage as a PMID/similarity line and a preview.
func (r *PassageList) renderPassage(index int, p *domain.EvidencePassage) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	label := "PMID " + p.SourceID
	if p.SourceID == "" {
		label = "(unknown source)"
	}
	score := fmt.Sprintf("%.3f", p.Similarity)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%s  %s", indicator, label, score))
	} else {
		titleLine = r.styles.Source.Render(indicator+label) + "  " + r.styles.Muted.Render(score)
	}

	previewLine := r.styles.Muted.Render("    " + truncate(p.Text, max(r.width-6, 20)))
	return titleLine + "\n" + previewLine
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetPassages replaces the list contents and resets the selection.
func (r *PassageList) SetPassages(passages []domain.EvidencePassage) {
	r.passages = passages
	r.selected = 0
}

// Passages returns the current passages.
func (r *PassageList) Passages() []domain.EvidencePassage {
	return r.passages
}

// Selected returns the index of the selected passage.
func (r *PassageList) Selected() int {
	return r.selected
}

// SelectedPassage returns the currently selected passage, or nil if none.
func (r *PassageList) SelectedPassage() *domain.EvidencePassage {
	if len(r.passages) == 0 || r.selected < 0 || r.selected >= len(r.passages) {
		return nil
	}
	return &r.passages[r.selected]
}

// MoveUp moves selection up.
func (r *PassageList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *PassageList) MoveDown() {
	if r.selected < len(r.passages)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *PassageList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of passages.
func (r *PassageList) Count() int {
	return len(r.passages)
}
