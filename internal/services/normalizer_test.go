package services

import (
	"context"
	"encoding/json"
	"testing"

	"hirequiz/internal/models"
	contextutils "hirequiz/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(t *testing.T) *QuestionNormalizer {
	t.Helper()
	normalizer, err := NewQuestionNormalizer(newTestLogger())
	require.NoError(t, err)
	return normalizer
}

func TestNormalizeQuiz_ReassignsSequentialIDs(t *testing.T) {
	raw := json.RawMessage(`{"questions": [
		{"id": "q9", "type": "multiple_choice", "question": "Pick one",
		 "options": ["a", "b", "c", "d"], "correctAnswer": 1},
		{"id": "wrong", "type": "open_question", "question": "Explain defer",
		 "sampleAnswer": "Runs at function exit"},
		{"type": "code_snippet", "question": "Find the bug",
		 "codeSnippet": "x := <-ch", "sampleSolution": "x, ok := <-ch", "language": "go"}
	]}`)

	questions, err := newTestNormalizer(t).NormalizeQuiz(context.Background(), raw, 3)
	require.NoError(t, err)
	require.Len(t, questions, 3)

	assert.Equal(t, "q1", questions[0].ID)
	assert.Equal(t, "q2", questions[1].ID)
	assert.Equal(t, "q3", questions[2].ID)

	assert.Equal(t, models.MultipleChoice, questions[0].Type)
	require.NotNil(t, questions[0].CorrectAnswer)
	assert.Equal(t, 1, *questions[0].CorrectAnswer)
	assert.Equal(t, "Runs at function exit", questions[1].SampleAnswer)
	assert.Equal(t, "go", questions[2].Language)
}

func TestNormalizeQuiz_AllOrNothing(t *testing.T) {
	// Second item lacks codeSnippet/sampleSolution/language, third has only
	// 3 options; both must appear in the error and nothing is returned.
	raw := json.RawMessage(`{"questions": [
		{"type": "open_question", "question": "Fine"},
		{"type": "code_snippet", "question": "Broken"},
		{"type": "multiple_choice", "question": "Short options",
		 "options": ["a", "b", "c"], "correctAnswer": 0}
	]}`)

	questions, err := newTestNormalizer(t).NormalizeQuiz(context.Background(), raw, 3)
	require.Error(t, err)
	assert.Nil(t, questions)

	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
	assert.Contains(t, err.Error(), "question 2")
	assert.Contains(t, err.Error(), "question 3")
}

func TestNormalizeQuiz_RejectsUnknownType(t *testing.T) {
	raw := json.RawMessage(`{"questions": [
		{"type": "essay", "question": "Write about Go"}
	]}`)

	_, err := newTestNormalizer(t).NormalizeQuiz(context.Background(), raw, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown question type 'essay'")
}

func TestNormalizeQuiz_CountMismatch(t *testing.T) {
	raw := json.RawMessage(`{"questions": [
		{"type": "open_question", "question": "Only one"}
	]}`)

	_, err := newTestNormalizer(t).NormalizeQuiz(context.Background(), raw, 3)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
	assert.Contains(t, err.Error(), "expected 3 questions, got 1")
}

func TestNormalizeQuiz_EmptyBatch(t *testing.T) {
	_, err := newTestNormalizer(t).NormalizeQuiz(context.Background(), json.RawMessage(`{"questions": []}`), 0)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeInvalidResponse, contextutils.GetErrorCode(err))
}

func TestNormalizeQuiz_CorrectAnswerBounds(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		wantErr bool
	}{
		{"lower bound", "0", false},
		{"upper bound", "3", false},
		{"negative", "-1", true},
		{"out of range", "4", true},
		{"non-integer", "1.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := json.RawMessage(`{"questions": [
				{"type": "multiple_choice", "question": "Pick",
				 "options": ["a", "b", "c", "d"], "correctAnswer": ` + tt.answer + `}
			]}`)
			_, err := newTestNormalizer(t).NormalizeQuiz(context.Background(), raw, 1)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeQuestion_PinsID(t *testing.T) {
	raw := json.RawMessage(`{"question":
		{"id": "q1", "type": "open_question", "question": "Explain interfaces",
		 "sampleAnswer": "Behavior contracts"}
	}`)

	question, err := newTestNormalizer(t).NormalizeQuestion(context.Background(), raw, 7)
	require.NoError(t, err)

	assert.Equal(t, "q7", question.ID)
	assert.Equal(t, models.OpenQuestion, question.Type)
}

func TestNormalizeQuestion_MissingQuestion(t *testing.T) {
	for _, raw := range []string{`{}`, `{"question": null}`} {
		_, err := newTestNormalizer(t).NormalizeQuestion(context.Background(), json.RawMessage(raw), 1)
		require.Error(t, err, raw)
		assert.Equal(t, contextutils.ErrorCodeInvalidResponse, contextutils.GetErrorCode(err))
	}
}

func TestNormalizeQuestion_InvalidItem(t *testing.T) {
	raw := json.RawMessage(`{"question":
		{"type": "code_snippet", "question": "Find the bug", "language": "go"}
	}`)

	_, err := newTestNormalizer(t).NormalizeQuestion(context.Background(), raw, 2)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
}

func TestNormalizeQuiz_OpenQuestionWithCodeFields(t *testing.T) {
	raw := json.RawMessage(`{"questions": [
		{"type": "open_question", "question": "What does this print?",
		 "codeSnippet": "fmt.Println(len(\"ciao\"))", "sampleAnswer": "4"}
	]}`)

	questions, err := newTestNormalizer(t).NormalizeQuiz(context.Background(), raw, 1)
	require.NoError(t, err)
	assert.Equal(t, "fmt.Println(len(\"ciao\"))", questions[0].CodeSnippet)
}
