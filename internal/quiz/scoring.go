package quiz

import "math"

// grader checks a single response against a question. Unanswered or
// mismatched response kinds are incorrect, never an error.
type grader interface {
	grade(q Question, a Answer) bool
}

type choiceGrader struct{}

func (choiceGrader) grade(q Question, a Answer) bool {
	return a.Kind == AnswerChoice && q.Correct.Kind == AnswerChoice && a.Choice == q.Correct.Choice
}

type boolGrader struct{}

func (boolGrader) grade(q Question, a Answer) bool {
	return a.Kind == AnswerBool && q.Correct.Kind == AnswerBool && a.Bool == q.Correct.Bool
}

// graders routes by question kind. Unknown kinds grade as incorrect.
var graders = map[string]grader{
	KindMultipleChoice: choiceGrader{},
	KindTrueFalse:      boolGrader{},
}

// Score grades a completed answer set. Pure: the session layer fills in the
// persistence fields (ID, completion time, timed-out flag, timestamp).
// A quiz with zero total points scores 0.
func Score(qz Quiz, answers []Answer) Result {
	res := Result{
		QuizID:         qz.ID,
		QuizTitle:      qz.Title,
		TotalQuestions: len(qz.Questions),
		PerQuestion:    make([]QuestionResult, 0, len(qz.Questions)),
	}

	for i, q := range qz.Questions {
		var ans Answer
		if i < len(answers) {
			ans = answers[i]
		}
		pts := q.Points
		if pts == 0 {
			pts = DefaultPoints
		}
		res.TotalPoints += pts

		correct := false
		if g, ok := graders[q.Kind]; ok {
			correct = g.grade(q, ans)
		}
		awarded := 0
		if correct {
			res.CorrectCount++
			res.EarnedPoints += pts
			awarded = pts
		}
		res.PerQuestion = append(res.PerQuestion, QuestionResult{
			QuestionID:    q.ID,
			Prompt:        q.Prompt,
			UserAnswer:    ans,
			CorrectAnswer: q.Correct,
			IsCorrect:     correct,
			PointsAwarded: awarded,
			Explanation:   q.Explanation,
		})
	}

	if res.TotalPoints > 0 {
		res.Score = int(math.Round(100 * float64(res.EarnedPoints) / float64(res.TotalPoints)))
	}
	passing := qz.PassingScore
	if passing == 0 {
		passing = DefaultPassingScore
	}
	res.Passed = res.Score >= passing
	return res
}
