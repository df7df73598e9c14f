// Package models defines the data structures used by the quiz generation service.
package models

import (
	"fmt"
	"strconv"
	"strings"

	contextutils "hirequiz/internal/utils"
)

// QuestionType represents the type of question
type QuestionType string

// Question types supported by the system
const (
	// MultipleChoice represents four-option single-answer questions
	MultipleChoice QuestionType = "multiple_choice"
	// OpenQuestion represents free-text questions, optionally code-related
	OpenQuestion QuestionType = "open_question"
	// CodeSnippet represents find-the-bug questions with a corrected solution
	CodeSnippet QuestionType = "code_snippet"
)

// AllQuestionTypes lists every supported question type.
var AllQuestionTypes = []QuestionType{MultipleChoice, OpenQuestion, CodeSnippet}

// IsValid reports whether the question type is one of the supported types.
func (t QuestionType) IsValid() bool {
	switch t {
	case MultipleChoice, OpenQuestion, CodeSnippet:
		return true
	}
	return false
}

// Question is the strict, fully validated question representation. Every
// instance that leaves the generation service satisfies the per-type required
// field set; downstream code never sees an un-normalized question.
type Question struct {
	ID       string       `json:"id" yaml:"id"`
	Type     QuestionType `json:"type" yaml:"type"`
	Question string       `json:"question" yaml:"question"`

	// multiple_choice fields
	Options       []string `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty" yaml:"correctAnswer,omitempty"`

	// open_question fields
	SampleAnswer string `json:"sampleAnswer,omitempty" yaml:"sampleAnswer,omitempty"`

	// code_snippet fields (sampleSolution/codeSnippet also apply to
	// code-related open questions)
	CodeSnippet    string `json:"codeSnippet,omitempty" yaml:"codeSnippet,omitempty"`
	SampleSolution string `json:"sampleSolution,omitempty" yaml:"sampleSolution,omitempty"`
	Language       string `json:"language,omitempty" yaml:"language,omitempty"`

	// shared optional fields
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// QuestionID formats the deterministic identifier for a 1-based question index.
func QuestionID(index int) string {
	return fmt.Sprintf("q%d", index)
}

// ParseQuestionIndex extracts the 1-based index from a question ID of the form
// "q<N>". Returns 0 and an error for any other shape.
func ParseQuestionIndex(id string) (int, error) {
	rest, ok := strings.CutPrefix(id, "q")
	if !ok {
		return 0, contextutils.ErrorWithContextf("question ID %q does not match q<N>", id)
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, contextutils.ErrorWithContextf("question ID %q does not match q<N>", id)
	}
	return n, nil
}

// FlexibleQuestion is the loosely-typed question shape as emitted directly by
// the completion call, before normalization. It exists only at the boundary
// between the executor and the normalizer.
type FlexibleQuestion map[string]interface{}

// GenerationMode distinguishes full-quiz from single-question generation.
type GenerationMode string

const (
	// ModeQuiz generates a full question set wrapped in {"questions": [...]}
	ModeQuiz GenerationMode = "quiz"
	// ModeSingleQuestion generates one question wrapped in {"question": {...}}
	ModeSingleQuestion GenerationMode = "single_question"
)

// PositionContext carries the job-position metadata shared by both request shapes.
type PositionContext struct {
	Title           string   `json:"position_title" binding:"required"`
	ExperienceLevel string   `json:"experience_level" binding:"required"`
	Skills          []string `json:"skills" binding:"required,min=1"`
	Description     string   `json:"description,omitempty"`
}

// GenerateQuizParams is the request shape for full-quiz generation.
type GenerateQuizParams struct {
	Position PositionContext `json:"position" binding:"required"`

	QuizTitle     string `json:"quiz_title" binding:"required"`
	QuestionCount int    `json:"question_count" binding:"required,min=1,max=30"`
	Difficulty    int    `json:"difficulty" binding:"required,min=1,max=5"`

	IncludeMultipleChoice bool `json:"include_multiple_choice"`
	IncludeOpenQuestions  bool `json:"include_open_questions"`
	IncludeCodeSnippets   bool `json:"include_code_snippets"`

	Instructions      string   `json:"instructions,omitempty"`
	PreviousQuestions []string `json:"previous_questions,omitempty"`
	SpecificModel     string   `json:"specific_model,omitempty"`
}

// GenerateQuestionParams is the request shape for single-question generation.
// QuestionIndex is 1-based and determines the generated question's ID, so a
// regenerated question can be spliced back into an existing quiz in place.
type GenerateQuestionParams struct {
	Position PositionContext `json:"position" binding:"required"`

	QuizTitle     string       `json:"quiz_title" binding:"required"`
	QuestionType  QuestionType `json:"question_type" binding:"required"`
	QuestionIndex int          `json:"question_index" binding:"required,min=1"`
	Difficulty    int          `json:"difficulty,omitempty" binding:"omitempty,min=1,max=5"`

	Instructions      string   `json:"instructions,omitempty"`
	PreviousQuestions []string `json:"previous_questions,omitempty"`
	SpecificModel     string   `json:"specific_model,omitempty"`
}

// QuizGenerationResult is the outbound shape for full-quiz generation.
type QuizGenerationResult struct {
	Questions []*Question `json:"questions"`
	Model     string      `json:"model"`
	ElapsedMs int64       `json:"elapsed_ms"`
}

// Validate checks the invariants a quiz request must satisfy before any prompt
// is built.
func (p *GenerateQuizParams) Validate() error {
	if err := p.Position.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.QuizTitle) == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "quiz_title is required")
	}
	if p.QuestionCount < 1 {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "question_count must be at least 1")
	}
	if p.Difficulty < 1 || p.Difficulty > 5 {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "difficulty must be between 1 and 5")
	}
	if !p.IncludeMultipleChoice && !p.IncludeOpenQuestions && !p.IncludeCodeSnippets {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "at least one question type must be enabled")
	}
	return contextutils.ValidateStruct(p)
}

// EnabledTypes returns the question types the request allows, in stable order.
func (p *GenerateQuizParams) EnabledTypes() []QuestionType {
	var types []QuestionType
	if p.IncludeMultipleChoice {
		types = append(types, MultipleChoice)
	}
	if p.IncludeOpenQuestions {
		types = append(types, OpenQuestion)
	}
	if p.IncludeCodeSnippets {
		types = append(types, CodeSnippet)
	}
	return types
}

// Validate checks the invariants a single-question request must satisfy.
func (p *GenerateQuestionParams) Validate() error {
	if err := p.Position.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.QuizTitle) == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "quiz_title is required")
	}
	if !p.QuestionType.IsValid() {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown question type: %s", p.QuestionType)
	}
	if p.QuestionIndex < 1 {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "question_index must be at least 1")
	}
	if p.Difficulty != 0 && (p.Difficulty < 1 || p.Difficulty > 5) {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "difficulty must be between 1 and 5")
	}
	return contextutils.ValidateStruct(p)
}

func (pc *PositionContext) validate() error {
	if strings.TrimSpace(pc.Title) == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "position_title is required")
	}
	if strings.TrimSpace(pc.ExperienceLevel) == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "experience_level is required")
	}
	if len(pc.Skills) == 0 {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "at least one skill is required")
	}
	return nil
}
