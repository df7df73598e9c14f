// Embedded templates for generation prompts.

package services

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var promptTemplatesFS embed.FS

// Template names as constants
const (
	QuizSystemPromptTemplate           = "quiz_system_prompt.tmpl"
	SingleQuestionSystemPromptTemplate = "single_question_system_prompt.tmpl"
	QuizUserPromptTemplate             = "quiz_user_prompt.tmpl"
	SingleQuestionUserPromptTemplate   = "single_question_user_prompt.tmpl"
)

// PromptTemplateData holds data for rendering generation prompt templates.
// Every free-text field is sanitized before it is placed here.
type PromptTemplateData struct {
	// Position context
	PositionTitle   string
	ExperienceLevel string
	Skills          string
	Description     string

	// Quiz context
	QuizTitle     string
	QuestionCount int
	Difficulty    int
	Types         []string
	Instructions  string

	// Single-question context
	QuestionType  string
	QuestionIndex int
	QuestionID    string

	// De-duplication block; advisory only
	PreviousQuestions []string

	// Content language for generated text; JSON keys stay English
	ContentLanguage string
}

// PromptTemplateManager manages generation prompt templates
type PromptTemplateManager struct {
	templates *template.Template
}

// NewPromptTemplateManager creates a new template manager
func NewPromptTemplateManager() (result0 *PromptTemplateManager, err error) {
	templates, err := template.New("").ParseFS(promptTemplatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	return &PromptTemplateManager{
		templates: templates,
	}, nil
}

// RenderTemplate renders a template with the given data
func (tm *PromptTemplateManager) RenderTemplate(templateName string, data PromptTemplateData) (result0 string, err error) {
	var buf strings.Builder
	err = tm.templates.ExecuteTemplate(&buf, templateName, data)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
