package quiz

import "testing"

func twoChoiceQuiz() Quiz {
	return Quiz{
		ID:    "welding-assessment",
		Title: "Welding Assessment",
		Questions: []Question{
			{ID: 1, Kind: KindMultipleChoice, Prompt: "Q1", Options: []string{"a", "b", "c"}, Correct: ChoiceAnswer(2), Points: 10},
			{ID: 2, Kind: KindTrueFalse, Prompt: "Q2", Correct: BoolAnswer(true), Points: 10},
		},
	}
}

func TestScorePerfect(t *testing.T) {
	res := Score(twoChoiceQuiz(), []Answer{ChoiceAnswer(2), BoolAnswer(true)})
	if res.Score != 100 {
		t.Fatalf("score = %d, want 100", res.Score)
	}
	if !res.Passed {
		t.Fatal("expected a passing result")
	}
	if res.CorrectCount != 2 || res.EarnedPoints != 20 || res.TotalPoints != 20 {
		t.Fatalf("correct=%d earned=%d total=%d", res.CorrectCount, res.EarnedPoints, res.TotalPoints)
	}
	if len(res.PerQuestion) != 2 {
		t.Fatalf("per-question breakdown has %d entries, want 2", len(res.PerQuestion))
	}
}

func TestScoreAllWrong(t *testing.T) {
	res := Score(twoChoiceQuiz(), []Answer{ChoiceAnswer(0), BoolAnswer(false)})
	if res.Score != 0 {
		t.Fatalf("score = %d, want 0", res.Score)
	}
	if res.Passed {
		t.Fatal("expected a failing result")
	}
}

func TestScoreUnansweredIsIncorrect(t *testing.T) {
	// short and nil answer slices both read as unanswered
	for _, answers := range [][]Answer{nil, {ChoiceAnswer(2)}, {ChoiceAnswer(2), Unanswered()}} {
		res := Score(twoChoiceQuiz(), answers)
		if res.TotalQuestions != 2 {
			t.Fatalf("total questions = %d, want 2", res.TotalQuestions)
		}
		if res.CorrectCount > 1 {
			t.Fatalf("unanswered question graded correct (answers=%v)", answers)
		}
		if res.Passed {
			t.Fatalf("expected fail with answers=%v", answers)
		}
	}
}

func TestScorePartialRounds(t *testing.T) {
	qz := Quiz{
		ID: "q",
		Questions: []Question{
			{ID: 1, Kind: KindTrueFalse, Correct: BoolAnswer(true), Points: 10},
			{ID: 2, Kind: KindTrueFalse, Correct: BoolAnswer(true), Points: 10},
			{ID: 3, Kind: KindTrueFalse, Correct: BoolAnswer(true), Points: 10},
		},
	}
	res := Score(qz, []Answer{BoolAnswer(true), BoolAnswer(true), BoolAnswer(false)})
	if res.Score != 67 { // 200/3 rounds to 67
		t.Fatalf("score = %d, want 67", res.Score)
	}
}

func TestScoreZeroQuestions(t *testing.T) {
	res := Score(Quiz{ID: "empty"}, nil)
	if res.Score != 0 || res.Passed {
		t.Fatalf("empty quiz scored %d passed=%v, want 0/false", res.Score, res.Passed)
	}
}

func TestScoreDefaultPoints(t *testing.T) {
	qz := Quiz{
		ID:        "q",
		Questions: []Question{{ID: 1, Kind: KindTrueFalse, Correct: BoolAnswer(true)}},
	}
	res := Score(qz, []Answer{BoolAnswer(true)})
	if res.TotalPoints != DefaultPoints || res.EarnedPoints != DefaultPoints {
		t.Fatalf("points earned=%d total=%d, want %d", res.EarnedPoints, res.TotalPoints, DefaultPoints)
	}
}

func TestScoreCustomPassingScore(t *testing.T) {
	qz := twoChoiceQuiz()
	qz.PassingScore = 40
	res := Score(qz, []Answer{ChoiceAnswer(2), BoolAnswer(false)})
	if res.Score != 50 {
		t.Fatalf("score = %d, want 50", res.Score)
	}
	if !res.Passed {
		t.Fatal("50 should pass a 40% threshold")
	}
}

func TestScoreMismatchedAnswerKind(t *testing.T) {
	// boolean answer on a multiple-choice question is wrong, not an error
	res := Score(twoChoiceQuiz(), []Answer{BoolAnswer(true), ChoiceAnswer(1)})
	if res.CorrectCount != 0 {
		t.Fatalf("correct count = %d, want 0", res.CorrectCount)
	}
}
