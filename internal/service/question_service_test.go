package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"
)

func validQuestionInput() QuestionInput {
	return QuestionInput{
		CompetencyCode: "gram-01",
		Level:          models.LevelB1,
		Text:           "Choose the correct form.",
		Options: []models.QuestionOption{
			{Key: "a", Label: "goes"},
			{Key: "b", Label: "go"},
			{Key: "c", Label: "gone"},
		},
		CorrectOptionKey: "a",
	}
}

func TestNewQuestionNormalizesCompetencyCode(t *testing.T) {
	q, err := NewQuestion(validQuestionInput())
	require.NoError(t, err)
	assert.Equal(t, "GRAM-01", q.CompetencyCode)
	assert.True(t, q.IsActive)
}

func TestPrepareBulkQuestionsIsolatesBadItems(t *testing.T) {
	good := validQuestionInput()
	badLevel := validQuestionInput()
	badLevel.Level = "Z9"
	noText := validQuestionInput()
	noText.Text = ""

	docs, errs := prepareBulkQuestions([]QuestionInput{good, badLevel, good, noText})

	require.Len(t, docs, 2)
	for _, q := range docs {
		assert.Equal(t, "GRAM-01", q.CompetencyCode)
	}

	require.Len(t, errs, 2)
	assert.Equal(t, 1, errs[0].Index)
	assert.Equal(t, 3, errs[1].Index)
	assert.NotEmpty(t, errs[0].Message)
}

func TestNewQuestionValidation(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*QuestionInput)
	}{
		{"unknown level", func(in *QuestionInput) { in.Level = "D1" }},
		{"empty text", func(in *QuestionInput) { in.Text = "  " }},
		{"single option", func(in *QuestionInput) {
			in.Options = in.Options[:1]
		}},
		{"duplicate option keys", func(in *QuestionInput) {
			in.Options[1].Key = "a"
		}},
		{"correct key not among options", func(in *QuestionInput) {
			in.CorrectOptionKey = "z"
		}},
		{"option without label", func(in *QuestionInput) {
			in.Options[0].Label = ""
		}},
		{"no competency reference", func(in *QuestionInput) {
			in.CompetencyCode = ""
			in.CompetencyID = ""
		}},
		{"malformed competency id", func(in *QuestionInput) {
			in.CompetencyID = "xyz"
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := validQuestionInput()
			tc.modify(&in)
			_, err := NewQuestion(in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		})
	}
}
