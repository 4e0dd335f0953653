package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Question kinds the engine can grade.
const (
	KindMultipleChoice = "multiple-choice"
	KindTrueFalse      = "true-false"
)

const (
	DefaultPoints       = 10
	DefaultPassingScore = 70
)

// AnswerKind discriminates the Answer union.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota // unanswered
	AnswerChoice
	AnswerBool
)

// Answer is a tagged union: a choice index for multiple-choice questions,
// a boolean for true/false questions, or the unanswered zero value.
// On the wire it is a bare number, bool, or null.
type Answer struct {
	Kind   AnswerKind
	Choice int
	Bool   bool
}

func ChoiceAnswer(i int) Answer { return Answer{Kind: AnswerChoice, Choice: i} }
func BoolAnswer(b bool) Answer  { return Answer{Kind: AnswerBool, Bool: b} }
func Unanswered() Answer        { return Answer{} }

func (a Answer) Answered() bool { return a.Kind != AnswerNone }

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerChoice:
		return json.Marshal(a.Choice)
	case AnswerBool:
		return json.Marshal(a.Bool)
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	switch s {
	case "null":
		*a = Unanswered()
		return nil
	case "true":
		*a = BoolAnswer(true)
		return nil
	case "false":
		*a = BoolAnswer(false)
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid answer value %q", s)
	}
	*a = ChoiceAnswer(n)
	return nil
}

type Question struct {
	ID          int      `json:"id"`
	Kind        string   `json:"type"` // multiple-choice, true-false
	Prompt      string   `json:"question"`
	Options     []string `json:"options,omitempty"` // multiple-choice only, ordered
	Correct     Answer   `json:"correct_answer"`
	Points      int      `json:"points,omitempty"` // 0 means DefaultPoints
	Explanation string   `json:"explanation,omitempty"`
}

// Quiz is a loaded assessment definition. Immutable once loaded.
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	TimeLimitSec int        `json:"time_limit_sec,omitempty"`
	PassingScore int        `json:"passing_score,omitempty"` // 0 means DefaultPassingScore
	AutoAdvance  bool       `json:"auto_advance,omitempty"`
	Questions    []Question `json:"questions"`
}

// Redacted returns a copy safe to serve to takers: answer keys and
// explanations stripped (parity across provider backends).
func (q Quiz) Redacted() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	copy(out.Questions, q.Questions)
	for i := range out.Questions {
		out.Questions[i].Correct = Unanswered()
		out.Questions[i].Explanation = ""
	}
	return out
}

type QuestionResult struct {
	QuestionID    int    `json:"question_id"`
	Prompt        string `json:"question"`
	UserAnswer    Answer `json:"user_answer"`
	CorrectAnswer Answer `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	PointsAwarded int    `json:"points_awarded"`
	Explanation   string `json:"explanation,omitempty"`
}

// Result is produced once at submit and never mutated afterwards.
type Result struct {
	ID               string           `json:"id"`
	QuizID           string           `json:"quiz_id"`
	QuizTitle        string           `json:"quiz_title"`
	Score            int              `json:"score"` // 0-100
	Passed           bool             `json:"passed"`
	CorrectCount     int              `json:"correct_count"`
	TotalQuestions   int              `json:"total_questions"`
	EarnedPoints     int              `json:"earned_points"`
	TotalPoints      int              `json:"total_points"`
	CompletionTimeMs int64            `json:"completion_time_ms"`
	TimedOut         bool             `json:"timed_out"`
	PerQuestion      []QuestionResult `json:"per_question"`
	RecordedAt       time.Time        `json:"recorded_at"`
}
