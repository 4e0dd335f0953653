package event

type Type string

const (
	TypeQuizStarted     Type = "QuizStarted"
	TypeTimerWarning    Type = "TimerWarning"
	TypeQuizCompleted   Type = "QuizCompleted"
	TypeNotifyRequested Type = "NotifyRequested"
)

// Event is implemented by every domain event published on the bus.
// Key is the natural key recorded in the event log.
type Event interface {
	EventType() Type
	EventKey() string
}

type QuizStarted struct {
	SessionID     string `json:"session_id"`
	QuizID        string `json:"quiz_id"`
	QuestionCount int    `json:"question_count"`
	TimeLimitSec  int    `json:"time_limit_sec,omitempty"`
}

func (QuizStarted) EventType() Type    { return TypeQuizStarted }
func (e QuizStarted) EventKey() string { return e.SessionID }

type TimerWarning struct {
	SessionID        string `json:"session_id"`
	QuizID           string `json:"quiz_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

func (TimerWarning) EventType() Type    { return TypeTimerWarning }
func (e TimerWarning) EventKey() string { return e.SessionID }

type QuizCompleted struct {
	SessionID        string `json:"session_id"`
	QuizID           string `json:"quiz_id"`
	ResultID         string `json:"result_id"`
	Score            int    `json:"score"`
	Passed           bool   `json:"passed"`
	CompletionTimeMs int64  `json:"completion_time_ms"`
	TimedOut         bool   `json:"timed_out"`
}

func (QuizCompleted) EventType() Type    { return TypeQuizCompleted }
func (e QuizCompleted) EventKey() string { return e.SessionID }

// Severity levels for NotifyRequested.
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

type NotifyRequested struct {
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	DurationMs int64  `json:"duration_ms"`
}

func (NotifyRequested) EventType() Type  { return TypeNotifyRequested }
func (NotifyRequested) EventKey() string { return "" }
