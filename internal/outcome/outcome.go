// Package outcome holds the pure grading policy for the three-step
// assessment. No I/O, no randomness: the same (step, score) input always
// produces the same result.
package outcome

import "assessment-service/internal/models"

// Result is the decision for one graded step. AwardedLevel is nil only when
// the candidate fails step 1 outright.
type Result struct {
	AwardedLevel *models.Level
	CanProceed   bool
	UserStatus   models.AssessmentState
}

// Compute maps a step number and score percentage onto the certification
// table. Thresholds are exclusive upper bounds: a score of exactly 25, 50 or
// 75 belongs to the upper band. Step 3 is terminal regardless of score.
// ok is false for step numbers outside 1..3.
func Compute(stepNumber int, scorePercent float64) (result Result, ok bool) {
	score := scorePercent

	switch stepNumber {
	case 1:
		switch {
		case score < 25:
			return Result{UserStatus: models.AssessmentFailed}, true
		case score < 50:
			return completed(models.LevelA1), true
		case score < 75:
			return completed(models.LevelA2), true
		default:
			return proceed(models.LevelA2), true
		}
	case 2:
		switch {
		case score < 25:
			return completed(models.LevelA2), true
		case score < 50:
			return completed(models.LevelB1), true
		case score < 75:
			return completed(models.LevelB2), true
		default:
			return proceed(models.LevelB2), true
		}
	case 3: // two bands only, never proceeds
		switch {
		case score < 25:
			return completed(models.LevelB2), true
		case score < 50:
			return completed(models.LevelC1), true
		default:
			return completed(models.LevelC2), true
		}
	default:
		return Result{}, false
	}
}

func completed(level models.Level) Result {
	return Result{
		AwardedLevel: models.LevelPtr(level),
		UserStatus:   models.AssessmentCompleted,
	}
}

func proceed(level models.Level) Result {
	return Result{
		AwardedLevel: models.LevelPtr(level),
		CanProceed:   true,
		UserStatus:   models.AssessmentInProgress,
	}
}

// LevelPairForStep returns the two bands whose questions are combined for a
// step. ok is false for step numbers outside 1..3.
func LevelPairForStep(stepNumber int) (pair []models.Level, ok bool) {
	switch stepNumber {
	case 1:
		return []models.Level{models.LevelA1, models.LevelA2}, true
	case 2:
		return []models.Level{models.LevelB1, models.LevelB2}, true
	case 3:
		return []models.Level{models.LevelC1, models.LevelC2}, true
	default:
		return nil, false
	}
}

// NextLevelPair returns the pair for the step following a completed step, or
// ok=false after step 3.
func NextLevelPair(lastCompletedStep int) (pair []models.Level, ok bool) {
	return LevelPairForStep(lastCompletedStep + 1)
}
