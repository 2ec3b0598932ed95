// Package sampling draws randomized question sets for a proficiency level
// pair from the question pool.
package sampling

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"
)

// QuestionSource is the slice of the question store the sampler needs.
type QuestionSource interface {
	// SampleActiveByLevel returns up to count uniformly selected, unique
	// active questions at the given level.
	SampleActiveByLevel(ctx context.Context, level models.Level, count int) ([]models.Question, error)
	CountActiveByLevel(ctx context.Context, level models.Level) (int64, error)
}

// Sampler builds the shuffled question set for one assessment step.
type Sampler struct {
	source QuestionSource
	rand   *rand.Rand
}

func NewSampler(source QuestionSource) *Sampler {
	return &Sampler{
		source: source,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Sample draws count unique active questions at level, failing with
// InsufficientPool when the pool cannot satisfy the request. It never
// returns a short sample.
func (s *Sampler) Sample(ctx context.Context, level models.Level, count int) ([]models.Question, error) {
	questions, err := s.source.SampleActiveByLevel(ctx, level, count)
	if err != nil {
		return nil, err
	}
	if len(questions) < count {
		return nil, apperrors.E(apperrors.ErrInsufficientPool,
			fmt.Sprintf("insufficient active questions for level %s: need %d, have %d", level, count, len(questions)))
	}
	return questions, nil
}

// SampleLevelPair draws perLevel questions from each band and shuffles the
// concatenation once, so level identity cannot be inferred from position.
// Either both samples succeed or the whole call fails; no partial step.
func (s *Sampler) SampleLevelPair(ctx context.Context, pair []models.Level, perLevel int) ([]models.Question, error) {
	combined := make([]models.Question, 0, perLevel*len(pair))
	for _, level := range pair {
		questions, err := s.Sample(ctx, level, perLevel)
		if err != nil {
			return nil, err
		}
		combined = append(combined, questions...)
	}
	s.shuffle(combined)
	return combined, nil
}

// shuffle is an in-place Fisher-Yates permutation; every ordering is equally
// likely.
func (s *Sampler) shuffle(questions []models.Question) {
	for i := len(questions) - 1; i > 0; i-- {
		j := s.rand.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

// PoolInfo reports how many active questions a level currently holds.
type PoolInfo struct {
	Level       models.Level `json:"level"`
	ActiveCount int64        `json:"active_count"`
}

func (s *Sampler) PoolInfo(ctx context.Context, level models.Level) (PoolInfo, error) {
	count, err := s.source.CountActiveByLevel(ctx, level)
	if err != nil {
		return PoolInfo{}, err
	}
	return PoolInfo{Level: level, ActiveCount: count}, nil
}
