package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hirequiz/internal/models"
	"hirequiz/internal/observability"
	contextutils "hirequiz/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
)

// Per-type strict schemas. These are the boundary between whatever the model
// emitted and what the rest of the application is allowed to assume.
const (
	// MultipleChoiceQuestionSchema requires exactly 4 options and a 0-based
	// correct answer index.
	MultipleChoiceQuestionSchema = `{
  "type": "object",
  "required": ["type", "question", "options", "correctAnswer"],
  "properties": {
    "id": { "type": "string" },
    "type": { "type": "string", "enum": ["multiple_choice"] },
    "question": { "type": "string", "minLength": 1 },
    "options": {
      "type": "array",
      "items": { "type": "string", "minLength": 1 },
      "minItems": 4,
      "maxItems": 4
    },
    "correctAnswer": { "type": "integer", "minimum": 0, "maximum": 3 },
    "keywords": { "type": "array", "items": { "type": "string" } },
    "explanation": { "type": "string" }
  }
}`

	// OpenQuestionSchema allows the code-related fields for open questions
	// that ask about a snippet.
	OpenQuestionSchema = `{
  "type": "object",
  "required": ["type", "question"],
  "properties": {
    "id": { "type": "string" },
    "type": { "type": "string", "enum": ["open_question"] },
    "question": { "type": "string", "minLength": 1 },
    "sampleAnswer": { "type": "string" },
    "codeSnippet": { "type": "string" },
    "sampleSolution": { "type": "string" },
    "keywords": { "type": "array", "items": { "type": "string" } },
    "explanation": { "type": "string" }
  }
}`

	// CodeSnippetQuestionSchema requires the snippet, a sample solution and
	// the programming language.
	CodeSnippetQuestionSchema = `{
  "type": "object",
  "required": ["type", "question", "codeSnippet", "sampleSolution", "language"],
  "properties": {
    "id": { "type": "string" },
    "type": { "type": "string", "enum": ["code_snippet"] },
    "question": { "type": "string", "minLength": 1 },
    "codeSnippet": { "type": "string", "minLength": 1 },
    "sampleSolution": { "type": "string", "minLength": 1 },
    "language": { "type": "string", "minLength": 1 },
    "keywords": { "type": "array", "items": { "type": "string" } },
    "explanation": { "type": "string" }
  }
}`
)

// QuestionNormalizer turns raw generation output into strict Question values.
// Schemas are compiled once at construction.
type QuestionNormalizer struct {
	schemas map[models.QuestionType]*gojsonschema.Schema
	logger  *observability.Logger
}

// NewQuestionNormalizer compiles the per-type schemas.
func NewQuestionNormalizer(logger *observability.Logger) (*QuestionNormalizer, error) {
	sources := map[models.QuestionType]string{
		models.MultipleChoice: MultipleChoiceQuestionSchema,
		models.OpenQuestion:   OpenQuestionSchema,
		models.CodeSnippet:    CodeSnippetQuestionSchema,
	}

	schemas := make(map[models.QuestionType]*gojsonschema.Schema, len(sources))
	for qType, source := range sources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to compile schema for question type %v", qType)
		}
		schemas[qType] = schema
	}

	return &QuestionNormalizer{
		schemas: schemas,
		logger:  logger,
	}, nil
}

// quizEnvelope matches the quiz-mode top-level response shape.
type quizEnvelope struct {
	Questions []json.RawMessage `json:"questions"`
}

// questionEnvelope matches the single-question-mode top-level response shape.
type questionEnvelope struct {
	Question json.RawMessage `json:"question"`
}

// NormalizeQuiz validates every item of a quiz-mode response and re-assigns
// sequential IDs q1..qN. Validation is all-or-nothing: a single bad item
// rejects the whole batch, and the error lists every non-conforming field.
// expectedCount <= 0 skips the count check.
func (n *QuestionNormalizer) NormalizeQuiz(ctx context.Context, raw json.RawMessage, expectedCount int) (result0 []*models.Question, err error) {
	_, span := observability.TraceGenerationFunction(ctx, "normalize_quiz",
		attribute.Int("expected_count", expectedCount),
	)
	defer observability.FinishSpan(span, &err)

	var envelope quizEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidResponse, "failed to parse questions array: %v", err)
	}

	if len(envelope.Questions) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidResponse, "response contains no questions")
	}
	if expectedCount > 0 && len(envelope.Questions) != expectedCount {
		return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed,
			"expected %d questions, got %d", expectedCount, len(envelope.Questions))
	}

	span.SetAttributes(observability.AttributeQuestionCount(len(envelope.Questions)))

	questions := make([]*models.Question, 0, len(envelope.Questions))
	var violations []string

	for i, item := range envelope.Questions {
		question, itemErrs := n.normalizeItem(item, i+1)
		if len(itemErrs) > 0 {
			violations = append(violations, itemErrs...)
			continue
		}
		questions = append(questions, question)
	}

	if len(violations) > 0 {
		n.logger.Warn(ctx, "Rejecting generated question batch", map[string]interface{}{
			"violations": len(violations),
			"total":      len(envelope.Questions),
		})
		return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed,
			"%d of %d questions failed validation: %s",
			len(envelope.Questions)-len(questions), len(envelope.Questions), strings.Join(violations, "; "))
	}

	return questions, nil
}

// NormalizeQuestion validates a single-question-mode response and pins its ID
// to the caller-supplied index.
func (n *QuestionNormalizer) NormalizeQuestion(ctx context.Context, raw json.RawMessage, questionIndex int) (result0 *models.Question, err error) {
	_, span := observability.TraceGenerationFunction(ctx, "normalize_question",
		attribute.Int("question_index", questionIndex),
	)
	defer observability.FinishSpan(span, &err)

	var envelope questionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidResponse, "failed to parse question object: %v", err)
	}
	if len(envelope.Question) == 0 || string(envelope.Question) == "null" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidResponse, "response contains no question")
	}

	question, itemErrs := n.normalizeItem(envelope.Question, questionIndex)
	if len(itemErrs) > 0 {
		return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed,
			"question failed validation: %s", strings.Join(itemErrs, "; "))
	}

	return question, nil
}

// normalizeItem validates one raw item against its declared type's schema and
// decodes it, forcing the ID to the given 1-based index. Returned strings
// describe every violation found for the item.
func (n *QuestionNormalizer) normalizeItem(item json.RawMessage, index int) (*models.Question, []string) {
	label := fmt.Sprintf("question %d", index)

	var discriminator struct {
		Type models.QuestionType `json:"type"`
	}
	if err := json.Unmarshal(item, &discriminator); err != nil {
		return nil, []string{fmt.Sprintf("%s: not a JSON object: %v", label, err)}
	}

	schema, ok := n.schemas[discriminator.Type]
	if !ok {
		return nil, []string{fmt.Sprintf("%s: unknown question type '%s'", label, discriminator.Type)}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(item))
	if err != nil {
		return nil, []string{fmt.Sprintf("%s: schema validation error: %v", label, err)}
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			violations = append(violations, fmt.Sprintf("%s: %s", label, e.String()))
		}
		return nil, violations
	}

	var question models.Question
	if err := json.Unmarshal(item, &question); err != nil {
		return nil, []string{fmt.Sprintf("%s: failed to decode: %v", label, err)}
	}

	// IDs from the model are never trusted.
	question.ID = models.QuestionID(index)
	return &question, nil
}
