package app

import (
	"math"

	"english-practice-service/internal/domain"
)

// Percentage returns round(100*count/size), or 0 when size is 0.
func Percentage(count, size int) int {
	if size <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(size)))
}

// StageCorrect counts correct answers in one stage. Missing slots count as unanswered.
func StageCorrect(stage domain.Stage, answers []domain.Answer) int {
	correct := 0
	for i, q := range stage.Questions {
		if i < len(answers) && answers[i].Matches(q) {
			correct++
		}
	}
	return correct
}

// Score is the rounded percentage of correct answers across all stages.
func Score(stages []domain.Stage, answers [][]domain.Answer) int {
	correct, total := 0, 0
	for i, stage := range stages {
		var stageAnswers []domain.Answer
		if i < len(answers) {
			stageAnswers = answers[i]
		}
		correct += StageCorrect(stage, stageAnswers)
		total += len(stage.Questions)
	}
	return Percentage(correct, total)
}

// Flatten concatenates per-stage answers in stage order.
func Flatten(answers [][]domain.Answer) []domain.Answer {
	total := 0
	for _, stageAnswers := range answers {
		total += len(stageAnswers)
	}
	out := make([]domain.Answer, 0, total)
	for _, stageAnswers := range answers {
		out = append(out, stageAnswers...)
	}
	return out
}
