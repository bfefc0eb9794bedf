package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported answer input kinds.
type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionDropdown QuestionType = "dropdown"
	QuestionRadio    QuestionType = "radio"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionDropdown, QuestionRadio:
		return true
	}
	return false
}

// IsChoice reports whether t requires an option list.
func (t QuestionType) IsChoice() bool {
	return t == QuestionDropdown || t == QuestionRadio
}

// Question is one entry of a template. Position is zero-based and contiguous
// within the template; Options is non-empty iff the type is a choice type.
type Question struct {
	ID         uuid.UUID    `json:"id"`
	TemplateID uuid.UUID    `json:"template_id"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Options    []string     `json:"options,omitempty"`
	Required   bool         `json:"required"`
	Position   int          `json:"position"`
}

// Template is a reusable ordered set of questions that sessions are launched
// from. Sessions reference templates; the question set is assumed stable once
// responses start arriving.
type Template struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Questions    []Question `json:"questions,omitempty"`
	SessionCount int        `json:"session_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
