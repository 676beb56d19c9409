// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/styles"
)

// charLimit bounds a question's length.
const charLimit = 500

// PromptInput wraps a bubbles textinput with a styled label.
type PromptInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// NewPromptInput creates a focused input labelled label.
func NewPromptInput(s *styles.Styles, label, placeholder string) *PromptInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.CharLimit = charLimit
	ti.Width = 50

	return &PromptInput{
		textinput: ti,
		styles:    s,
		label:     label,
		width:     50,
	}
}

// Init starts the cursor blinking.
func (s *PromptInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (s *PromptInput) Update(msg tea.Msg) (*PromptInput, tea.Cmd) {
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// View renders the label and input.
func (s *PromptInput) View() string {
	label := s.styles.Title.Render(s.label + " ")
	input := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, input)
}

// Value returns the current input value.
func (s *PromptInput) Value() string {
	return s.textinput.Value()
}

// SetValue sets the input value.
func (s *PromptInput) SetValue(value string) {
	s.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (s *PromptInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus from the input.
func (s *PromptInput) Blur() {
	s.textinput.Blur()
}

// Focused returns whether the input is focused.
func (s *PromptInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth sets the width of the input.
func (s *PromptInput) SetWidth(width int) {
	s.width = width
	// Account for label and padding
	s.textinput.Width = max(width-len(s.label)-6, 20)
}

// Width returns the current width.
func (s *PromptInput) Width() int {
	return s.width
}

// Label returns the input label.
func (s *PromptInput) Label() string {
	return s.label
}

// Reset clears the input.
func (s *PromptInput) Reset() {
	s.textinput.Reset()
}
