package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"
	"assessment-service/internal/repository"
	"assessment-service/internal/sampling"
)

// QuestionService is the admin surface of the question pool. Normalization
// and validation happen here, in explicit factory functions, not in hidden
// persistence hooks.
type QuestionService struct {
	repo    *repository.QuestionRepository
	sampler *sampling.Sampler
}

func NewQuestionService(repo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{
		repo:    repo,
		sampler: sampling.NewSampler(repo),
	}
}

// QuestionInput is the admin create/update payload.
type QuestionInput struct {
	CompetencyID     string                  `json:"competency_id"`
	CompetencyCode   string                  `json:"competency_code"`
	Level            models.Level            `json:"level"`
	Text             string                  `json:"text"`
	Options          []models.QuestionOption `json:"options"`
	CorrectOptionKey string                  `json:"correct_option_key"`
	IsActive         *bool                   `json:"is_active"`
}

// NewQuestion validates and normalizes an input into a persistable question.
func NewQuestion(in QuestionInput) (*models.Question, error) {
	if !in.Level.Valid() {
		return nil, apperrors.E(apperrors.ErrInvalidState, fmt.Sprintf("unknown level %q", in.Level))
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, apperrors.E(apperrors.ErrInvalidState, "question text is required")
	}
	if err := validateOptions(in.Options, in.CorrectOptionKey); err != nil {
		return nil, err
	}

	q := &models.Question{
		CompetencyCode:   NormalizeCompetencyCode(in.CompetencyCode),
		Level:            in.Level,
		Text:             strings.TrimSpace(in.Text),
		Options:          in.Options,
		CorrectOptionKey: in.CorrectOptionKey,
		IsActive:         true,
	}
	if in.CompetencyID != "" {
		id, err := primitive.ObjectIDFromHex(in.CompetencyID)
		if err != nil {
			return nil, apperrors.E(apperrors.ErrInvalidState, "invalid competency id")
		}
		q.CompetencyID = id
	}
	if q.CompetencyID.IsZero() && q.CompetencyCode == "" {
		return nil, apperrors.E(apperrors.ErrInvalidState, "competency_id or competency_code is required")
	}
	if in.IsActive != nil {
		q.IsActive = *in.IsActive
	}

	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	return q, nil
}

func validateOptions(options []models.QuestionOption, correctKey string) error {
	if len(options) < 2 {
		return apperrors.E(apperrors.ErrInvalidState, "at least two options are required")
	}
	keys := make(map[string]bool, len(options))
	for _, o := range options {
		if o.Key == "" || o.Label == "" {
			return apperrors.E(apperrors.ErrInvalidState, "every option needs a key and a label")
		}
		if keys[o.Key] {
			return apperrors.E(apperrors.ErrInvalidState, fmt.Sprintf("duplicate option key %q", o.Key))
		}
		keys[o.Key] = true
	}
	if !keys[correctKey] {
		return apperrors.E(apperrors.ErrInvalidState, "correct_option_key must match one of the option keys")
	}
	return nil
}

// NormalizeCompetencyCode mirrors the invariant that the denormalized code
// is always stored uppercase.
func NormalizeCompetencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *QuestionService) Create(ctx context.Context, in QuestionInput) (*models.Question, error) {
	q, err := NewQuestion(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// BulkError pinpoints one rejected item by its position in the payload.
type BulkError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// BulkResult reports a bulk import: how many documents landed and which
// items were rejected.
type BulkResult struct {
	Inserted int         `json:"inserted"`
	Errors   []BulkError `json:"errors"`
}

// prepareBulkQuestions validates every item independently. A bad item is
// recorded against its index and does not block the rest.
func prepareBulkQuestions(items []QuestionInput) ([]*models.Question, []BulkError) {
	docs := make([]*models.Question, 0, len(items))
	var errs []BulkError
	for i, in := range items {
		q, err := NewQuestion(in)
		if err != nil {
			errs = append(errs, BulkError{Index: i, Message: err.Error()})
			continue
		}
		docs = append(docs, q)
	}
	return docs, errs
}

// BulkCreate imports a batch of questions. Each item is validated through the
// same factory as single creates; valid items are inserted even when siblings
// fail.
func (s *QuestionService) BulkCreate(ctx context.Context, items []QuestionInput) (*BulkResult, error) {
	if len(items) == 0 {
		return nil, apperrors.E(apperrors.ErrInvalidState, "items must be a non-empty array")
	}

	docs, errs := prepareBulkQuestions(items)
	result := &BulkResult{Errors: errs}
	for _, q := range docs {
		if err := s.repo.Create(ctx, q); err != nil {
			return result, err
		}
		result.Inserted++
	}
	return result, nil
}

// Update revalidates the full option set; partial option edits are not
// supported to keep the correct-key invariant checkable in one place.
func (s *QuestionService) Update(ctx context.Context, id primitive.ObjectID, in QuestionInput) (*models.Question, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperrors.E(apperrors.ErrNotFound, "question not found")
	}

	updated, err := NewQuestion(in)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"competency_code":    updated.CompetencyCode,
		"level":              updated.Level,
		"text":               updated.Text,
		"options":            updated.Options,
		"correct_option_key": updated.CorrectOptionKey,
		"is_active":          updated.IsActive,
	}
	if !updated.CompetencyID.IsZero() {
		update["competency_id"] = updated.CompetencyID
	}
	if err := s.repo.Update(ctx, id, update); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *QuestionService) Get(ctx context.Context, id primitive.ObjectID) (*models.Question, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperrors.E(apperrors.ErrNotFound, "question not found")
	}
	return q, nil
}

func (s *QuestionService) List(ctx context.Context, filter repository.QuestionFilter) ([]models.Question, error) {
	filter.CompetencyCode = NormalizeCompetencyCode(filter.CompetencyCode)
	return s.repo.List(ctx, filter)
}

func (s *QuestionService) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if q == nil {
		return apperrors.E(apperrors.ErrNotFound, "question not found")
	}
	return s.repo.Deactivate(ctx, id)
}

// PoolInfo reports per-level active counts so administrators can see whether
// the bank can sustain sampling.
func (s *QuestionService) PoolInfo(ctx context.Context) ([]sampling.PoolInfo, error) {
	infos := make([]sampling.PoolInfo, 0, len(models.Levels))
	for _, level := range models.Levels {
		info, err := s.sampler.PoolInfo(ctx, level)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
