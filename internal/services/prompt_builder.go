package services

import (
	"strings"

	"hirequiz/internal/models"
	contextutils "hirequiz/internal/utils"
)

// contentLanguageNames maps locale codes to the language names used inside
// prompts. Prompts themselves are English; only generated content follows the
// configured locale.
var contentLanguageNames = map[string]string{
	"it": "Italian",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
}

// PromptBuilder turns typed generation requests into system/user prompt pairs.
// All caller-supplied free text passes through SanitizeInput before it is
// interpolated. Pure: no I/O, no failure modes beyond template rendering.
type PromptBuilder struct {
	templates *PromptTemplateManager
	locale    string
}

// NewPromptBuilder creates a prompt builder for the given content locale.
func NewPromptBuilder(locale string) (*PromptBuilder, error) {
	tm, err := NewPromptTemplateManager()
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to parse prompt templates")
	}
	return &PromptBuilder{templates: tm, locale: locale}, nil
}

// contentLanguage resolves the configured locale to a prompt language name.
func (b *PromptBuilder) contentLanguage() string {
	if name, ok := contentLanguageNames[strings.ToLower(b.locale)]; ok {
		return name
	}
	return "English"
}

// BuildSystemPrompt renders the system prompt for the given mode. For quiz
// mode n is the target question count; for single-question mode n is the
// 1-based question index that pins the generated question's ID.
func (b *PromptBuilder) BuildSystemPrompt(mode models.GenerationMode, n int) (string, error) {
	data := PromptTemplateData{
		ContentLanguage: b.contentLanguage(),
	}

	switch mode {
	case models.ModeQuiz:
		data.QuestionCount = n
		return b.templates.RenderTemplate(QuizSystemPromptTemplate, data)
	case models.ModeSingleQuestion:
		data.QuestionIndex = n
		data.QuestionID = models.QuestionID(n)
		return b.templates.RenderTemplate(SingleQuestionSystemPromptTemplate, data)
	default:
		return "", contextutils.ErrorWithContextf("unknown generation mode: %s", mode)
	}
}

// BuildQuizUserPrompt renders the user prompt for a full-quiz request.
func (b *PromptBuilder) BuildQuizUserPrompt(params *models.GenerateQuizParams) (string, error) {
	types := make([]string, 0, 3)
	for _, t := range params.EnabledTypes() {
		types = append(types, string(t))
	}

	data := PromptTemplateData{
		PositionTitle:     SanitizeInput(params.Position.Title),
		ExperienceLevel:   SanitizeInput(params.Position.ExperienceLevel),
		Skills:            strings.Join(sanitizeAll(params.Position.Skills), ", "),
		Description:       SanitizeInput(params.Position.Description),
		QuizTitle:         SanitizeInput(params.QuizTitle),
		QuestionCount:     params.QuestionCount,
		Difficulty:        params.Difficulty,
		Types:             types,
		Instructions:      SanitizeInput(params.Instructions),
		PreviousQuestions: sanitizeAll(params.PreviousQuestions),
		ContentLanguage:   b.contentLanguage(),
	}

	return b.templates.RenderTemplate(QuizUserPromptTemplate, data)
}

// BuildQuestionUserPrompt renders the user prompt for a single-question request.
func (b *PromptBuilder) BuildQuestionUserPrompt(params *models.GenerateQuestionParams) (string, error) {
	data := PromptTemplateData{
		PositionTitle:     SanitizeInput(params.Position.Title),
		ExperienceLevel:   SanitizeInput(params.Position.ExperienceLevel),
		Skills:            strings.Join(sanitizeAll(params.Position.Skills), ", "),
		Description:       SanitizeInput(params.Position.Description),
		QuizTitle:         SanitizeInput(params.QuizTitle),
		QuestionType:      string(params.QuestionType),
		QuestionIndex:     params.QuestionIndex,
		QuestionID:        models.QuestionID(params.QuestionIndex),
		Difficulty:        params.Difficulty,
		Instructions:      SanitizeInput(params.Instructions),
		PreviousQuestions: sanitizeAll(params.PreviousQuestions),
		ContentLanguage:   b.contentLanguage(),
	}

	return b.templates.RenderTemplate(SingleQuestionUserPromptTemplate, data)
}
