// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
)

// View asks questions of the explanation service and shows the answer with
// the evidence behind it.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.PromptInput
	passages  *list.PassageList
	statusbar *status.Bar

	explanationService driving.ExplanationService
	ctx                context.Context

	width       int
	height      int
	ready       bool
	err         error
	focusInput  bool // true = typing a question, false = reading the answer
	pending     bool
	showSources bool
	question    string
	answer      *domain.Explanation
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, explanationService driving.ExplanationService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:             s,
		keymap:             km,
		input:              input.NewPromptInput(s, "Ask:", "Does vaccination lower reinfection risk?"),
		passages:           list.NewPassageList(s),
		statusbar:          status.NewBar(s, km),
		explanationService: explanationService,
		ctx:                context.Background(),
		width:              80,
		height:             24,
		focusInput:         true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.pending = false
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		v.focusInput = true
		return v, v.input.Focus()
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	// One question at a time.
	if v.pending {
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(v.input.Value())
			if question == "" {
				return v, nil
			}
			return v, v.submit(question)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.NewQuestion):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case keymap.Matches(msg.String(), v.keymap.Sources):
		v.showSources = !v.showSources
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.Up):
		v.passages.MoveUp()
	case keymap.Matches(msg.String(), v.keymap.Down):
		v.passages.MoveDown()
	}
	return v, nil
}

// submit starts answering question in the background.
func (v *View) submit(question string) tea.Cmd {
	v.pending = true
	v.question = question
	v.err = nil
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")
	return v.ask(question)
}

// ask calls the explanation service and reports the answer.
func (v *View) ask(question string) tea.Cmd {
	svc := v.explanationService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoExplanationService}
		}
		return messages.AnswerReceived{
			Question:    question,
			Explanation: svc.Chat(ctx, question),
		}
	}
}

// handleAnswer shows a completed answer. Degraded answers are shown with
// their error marker and a warning in the status bar.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = false
	v.question = msg.Question
	v.answer = msg.Explanation
	v.focusInput = false
	v.showSources = false

	var passages []domain.EvidencePassage
	if msg.Explanation != nil {
		passages = msg.Explanation.Passages
	}
	v.passages.SetPassages(passages)

	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetSourceCount(len(passages))
	v.statusbar.SetMessage("")
	if msg.Explanation.Degraded() {
		v.statusbar.SetMessage("Answer degraded: " + msg.Explanation.Err.Error())
	}
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("reinfect"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.question != "" {
		sections = append(sections, v.styles.Question.Render("Q: "+v.question), "")
	}

	switch {
	case v.pending:
		sections = append(sections, v.styles.Muted.Render("Thinking..."))
	case v.answer != nil:
		sections = append(sections, v.renderAnswer())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderAnswer renders the answer text and either the passage list or a
// one-line summary of the cited PMIDs.
func (v *View) renderAnswer() string {
	wrap := v.styles.Answer.Width(max(v.width-4, 20))
	parts := []string{wrap.Render(v.answer.Text)}

	if level := v.answer.Assessment.RiskLevel; level != "" {
		parts = append(parts, "", v.styles.Risk(level).Render("Risk level: "+string(level)))
	}

	if v.showSources {
		parts = append(parts, "", v.passages.View())
	} else if ids := sourceIDs(v.answer.Passages); len(ids) > 0 {
		parts = append(parts, "", v.styles.Source.Render("Sources: PMID "+strings.Join(ids, ", ")))
	}
	return strings.Join(parts, "\n")
}

// sourceIDs returns the distinct PMIDs in order.
func sourceIDs(passages []domain.EvidencePassage) []string {
	seen := make(map[string]bool, len(passages))
	var ids []string
	for _, p := range passages {
		if p.SourceID == "" || seen[p.SourceID] {
			continue
		}
		seen[p.SourceID] = true
		ids = append(ids, p.SourceID)
	}
	return ids
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.passages.SetDimensions(width, height-12) // Reserve space for header, input, answer, status
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Question returns the last submitted question.
func (v *View) Question() string {
	return v.question
}

// Answer returns the last answer, or nil.
func (v *View) Answer() *domain.Explanation {
	return v.answer
}

// Pending reports whether a question is being answered.
func (v *View) Pending() bool {
	return v.pending
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// SourcesVisible reports whether the passage list is shown.
func (v *View) SourcesVisible() bool {
	return v.showSources
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset clears the conversation and focuses the input.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.passages.SetPassages(nil)
	v.question = ""
	v.answer = nil
	v.pending = false
	v.showSources = false
	v.err = nil
	v.statusbar.Clear()
}
