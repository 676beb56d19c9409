// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// QuestionAsked is sent when the user submits a question.
type QuestionAsked struct {
	Question string
}

// AnswerReceived carries the composed answer back to the model. Degraded
// answers arrive here too; their Explanation.Err is set.
type AnswerReceived struct {
	Question    string
	Explanation *domain.Explanation
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the question and answer view.
	ViewChat
	// ViewHistory lists past questions and answers.
	ViewHistory
	// ViewIndex shows evidence index statistics.
	ViewIndex
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewHistory:
		return "history"
	case ViewIndex:
		return "index"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// HistoryLoaded carries recent log entries.
type HistoryLoaded struct {
	Entries []domain.QnALogEntry
	Err     error
}

// IndexStatsLoaded carries evidence index statistics.
type IndexStatsLoaded struct {
	Stats domain.IndexStats
	Err   error
}
