package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/luminlms/assessment-engine/internal/model"
)

// GradeSubmission scores a closed attempt. It is deterministic: the same
// questions, answers, and configuration always produce the same result.
//
// Choice questions are all-or-nothing. A selected set earns the question's
// weight only when it exactly equals the correct set; any deviation counts
// as incorrect and accrues one unit of negative marking. Unanswered
// questions earn nothing and accrue no penalty. Free-text questions are
// recorded for manual review and excluded from the automatic score entirely,
// including MaxMark.
func GradeSubmission(sub *model.Submission, questions []model.Question, answers map[uuid.UUID]model.AnswerInput, cfg model.QuestionSetConfig, grading model.GradingMode) (*model.Result, []model.SubmissionAnswer) {
	var (
		totalMark      float64
		maxMark        float64
		incorrectCount int
	)
	graded := make([]model.SubmissionAnswer, 0, len(questions))

	for _, q := range questions {
		if q.AutoGradable() {
			maxMark += q.Weight
		}

		ans, ok := answers[q.ID]
		if !ok || !ans.Answered() {
			continue
		}

		row := model.SubmissionAnswer{
			SubmissionID:      sub.ID,
			QuestionID:        q.ID,
			SelectedOptionIDs: ans.SelectedOptionIDs,
			FreeText:          ans.FreeText,
		}

		if q.AutoGradable() {
			correct := selectionMatches(q, ans.SelectedOptionIDs)
			row.IsCorrect = &correct
			if correct {
				totalMark += q.Weight
			} else {
				incorrectCount++
			}
		}
		graded = append(graded, row)
	}

	negativeMark := cfg.NegativeMarking * float64(incorrectCount)
	netMark := totalMark - negativeMark
	if cfg.ClampNegativeTotal && netMark < 0 {
		netMark = 0
	}

	var percentage float64
	if maxMark > 0 {
		percentage = netMark / maxMark * 100
	}

	result := &model.Result{
		SubmissionID: sub.ID,
		TotalMark:    totalMark,
		NegativeMark: negativeMark,
		NetMark:      netMark,
		MaxMark:      maxMark,
		Percentage:   percentage,
		CreatedAt:    time.Now(),
	}
	if grading.IsPercentage() {
		passed := percentage >= grading.PassPercentage()
		result.Passed = &passed
	}
	return result, graded
}

// selectionMatches reports exact set equality between the selected options
// and the question's correct options. Order and duplicates are irrelevant.
func selectionMatches(q model.Question, selected []uuid.UUID) bool {
	correct := q.CorrectOptionIDs()

	chosen := make(map[uuid.UUID]struct{}, len(selected))
	for _, id := range selected {
		chosen[id] = struct{}{}
	}
	if len(chosen) != len(correct) {
		return false
	}
	for id := range chosen {
		if _, ok := correct[id]; !ok {
			return false
		}
	}
	return true
}
