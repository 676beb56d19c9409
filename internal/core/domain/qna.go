package domain

import "time"

// QnALogEntry is one question/answer pair recorded by the explanation path.
type QnALogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
}

// NewQnALogEntry stamps an entry with the current UTC time.
func NewQnALogEntry(question, answer string) QnALogEntry {
	return QnALogEntry{
		Timestamp: time.Now().UTC(),
		Question:  question,
		Answer:    answer,
	}
}
