package sampling

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"
)

// fakeSource serves fixed in-memory pools per level. Sampling mimics the
// store contract: unique questions, at most count, at most pool size.
type fakeSource struct {
	pools map[models.Level][]models.Question
}

func (f *fakeSource) SampleActiveByLevel(_ context.Context, level models.Level, count int) ([]models.Question, error) {
	pool := f.pools[level]
	perm := rand.Perm(len(pool))
	n := count
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]models.Question, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, pool[idx])
	}
	return out, nil
}

func (f *fakeSource) CountActiveByLevel(_ context.Context, level models.Level) (int64, error) {
	return int64(len(f.pools[level])), nil
}

func makePool(level models.Level, n int) []models.Question {
	pool := make([]models.Question, n)
	for i := range pool {
		pool[i] = models.Question{
			ID:       primitive.NewObjectID(),
			Level:    level,
			IsActive: true,
		}
	}
	return pool
}

func TestSampleExactPoolSize(t *testing.T) {
	source := &fakeSource{pools: map[models.Level][]models.Question{
		models.LevelA1: makePool(models.LevelA1, 22),
	}}
	sampler := NewSampler(source)

	questions, err := sampler.Sample(context.Background(), models.LevelA1, 22)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 22 {
		t.Fatalf("expected 22 questions, got %d", len(questions))
	}

	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if seen[q.ID.Hex()] {
			t.Errorf("duplicate question %s in sample", q.ID.Hex())
		}
		seen[q.ID.Hex()] = true
	}
}

func TestSampleUndersizedPool(t *testing.T) {
	source := &fakeSource{pools: map[models.Level][]models.Question{
		models.LevelA1: makePool(models.LevelA1, 21),
	}}
	sampler := NewSampler(source)

	_, err := sampler.Sample(context.Background(), models.LevelA1, 22)
	if err == nil {
		t.Fatal("expected error for undersized pool")
	}
	if !errors.Is(err, apperrors.ErrInsufficientPool) {
		t.Errorf("expected InsufficientPool, got %v", err)
	}
}

func TestSampleLevelPairCombinesAndShuffles(t *testing.T) {
	source := &fakeSource{pools: map[models.Level][]models.Question{
		models.LevelA1: makePool(models.LevelA1, 30),
		models.LevelA2: makePool(models.LevelA2, 30),
	}}
	sampler := NewSampler(source)

	pair := []models.Level{models.LevelA1, models.LevelA2}
	questions, err := sampler.SampleLevelPair(context.Background(), pair, 22)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 44 {
		t.Fatalf("expected 44 questions, got %d", len(questions))
	}

	counts := map[models.Level]int{}
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		counts[q.Level]++
		if seen[q.ID.Hex()] {
			t.Errorf("duplicate question %s in combined sample", q.ID.Hex())
		}
		seen[q.ID.Hex()] = true
	}
	if counts[models.LevelA1] != 22 || counts[models.LevelA2] != 22 {
		t.Errorf("expected 22 per level, got %v", counts)
	}
}

func TestSampleLevelPairAbortsWhenSecondLevelShort(t *testing.T) {
	source := &fakeSource{pools: map[models.Level][]models.Question{
		models.LevelB1: makePool(models.LevelB1, 25),
		models.LevelB2: makePool(models.LevelB2, 5),
	}}
	sampler := NewSampler(source)

	pair := []models.Level{models.LevelB1, models.LevelB2}
	questions, err := sampler.SampleLevelPair(context.Background(), pair, 22)
	if !errors.Is(err, apperrors.ErrInsufficientPool) {
		t.Fatalf("expected InsufficientPool, got %v", err)
	}
	if questions != nil {
		t.Error("expected no partial question set on failure")
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	sampler := NewSampler(&fakeSource{})
	original := makePool(models.LevelC1, 40)
	shuffled := make([]models.Question, len(original))
	copy(shuffled, original)

	sampler.shuffle(shuffled)

	want := make(map[string]bool, len(original))
	for _, q := range original {
		want[q.ID.Hex()] = true
	}
	for _, q := range shuffled {
		if !want[q.ID.Hex()] {
			t.Fatalf("shuffle introduced unknown question %s", q.ID.Hex())
		}
	}
	if len(shuffled) != len(original) {
		t.Fatalf("shuffle changed length: %d != %d", len(shuffled), len(original))
	}
}

func TestPoolInfo(t *testing.T) {
	source := &fakeSource{pools: map[models.Level][]models.Question{
		models.LevelC2: makePool(models.LevelC2, 7),
	}}
	sampler := NewSampler(source)

	info, err := sampler.PoolInfo(context.Background(), models.LevelC2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ActiveCount != 7 {
		t.Errorf("expected 7 active questions, got %d", info.ActiveCount)
	}
}
