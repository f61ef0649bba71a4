package entity

import (
	"time"

	"github.com/google/uuid"
)

// Question is the caller's text, passed to the page verbatim.
type Question string

// Answer is the inner text of the newest answer turn.
type Answer string

// Outcome is the result of one retrieval: an Answer or a classified error, never both.
type Outcome struct {
	RequestID uuid.UUID
	Answer    Answer
	Err       error
	Duration  time.Duration
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Diagnostics are the artefacts captured when every polling attempt timed out.
type Diagnostics struct {
	RequestID      uuid.UUID
	URL            string
	ScreenshotPath string
	HTML           string
	CapturedAt     time.Time
}

// Layout is the contract with the target page.
type Layout struct {
	InputSelector  string
	AnswerSelector string
}

// PageSummary is a structural digest of captured HTML.
type PageSummary struct {
	Title        string `json:"title"`
	InputPresent bool   `json:"input_present"`
	TurnCount    int    `json:"turn_count"`
	AnswerTurns  int    `json:"answer_turns"`
}
