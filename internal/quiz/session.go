package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tvetlabs/tvet-platform/internal/event"
)

// State of a session. Transitions:
// not_started -> in_progress -> submitted -> closed, with restart looping
// back to in_progress and close reachable from anywhere.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateSubmitted  State = "submitted"
	StateClosed     State = "closed"
)

// Timer warning marks, in seconds remaining.
const (
	warnRemaining         = 300
	warnRemainingCritical = 60
)

// Options tune a single attempt.
type Options struct {
	TimeLimitSec     int   // >0 overrides the quiz's own limit
	AutoAdvance      *bool // nil means use the quiz's flag
	Clock            func() time.Time
	TickInterval     time.Duration // timer resolution, default 1s
	AutoAdvanceDelay time.Duration // default 500ms
}

// Session is one in-progress attempt at a quiz. All fields are owned by the
// session and guarded by its mutex; events are published outside the lock.
type Session struct {
	ID string

	mu        sync.Mutex
	quiz      Quiz
	state     State
	current   int
	answers   []Answer
	startedAt time.Time
	remaining int
	timeLimit int
	result    *Result
	stopTimer chan struct{}

	autoAdvance      bool
	autoAdvanceDelay time.Duration
	tick             time.Duration
	now              func() time.Time

	history History
	bus     *event.Bus
	log     logrus.FieldLogger
}

func newSession(qz Quiz, h History, b *event.Bus, opts Options, log logrus.FieldLogger) *Session {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	tick := opts.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	delay := opts.AutoAdvanceDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	limit := qz.TimeLimitSec
	if opts.TimeLimitSec > 0 {
		limit = opts.TimeLimitSec
	}
	auto := qz.AutoAdvance
	if opts.AutoAdvance != nil {
		auto = *opts.AutoAdvance
	}
	return &Session{
		ID:               uuid.NewString(),
		quiz:             qz,
		state:            StateNotStarted,
		timeLimit:        limit,
		autoAdvance:      auto,
		autoAdvanceDelay: delay,
		tick:             tick,
		now:              now,
		history:          h,
		bus:              b,
		log:              log,
	}
}

func (s *Session) publish(evts ...event.Event) {
	if s.bus == nil {
		return
	}
	for _, e := range evts {
		if e != nil {
			s.bus.Publish(e)
		}
	}
}

// start transitions not_started into in_progress.
func (s *Session) start() {
	s.mu.Lock()
	ev := s.startLocked()
	s.mu.Unlock()
	s.publish(ev)
}

func (s *Session) startLocked() event.Event {
	s.state = StateInProgress
	s.current = 0
	s.answers = make([]Answer, len(s.quiz.Questions))
	s.startedAt = s.now()
	s.result = nil
	if s.timeLimit > 0 {
		s.remaining = s.timeLimit
		s.startTimerLocked()
	}
	return event.QuizStarted{
		SessionID:     s.ID,
		QuizID:        s.quiz.ID,
		QuestionCount: len(s.quiz.Questions),
		TimeLimitSec:  s.timeLimit,
	}
}

// RecordAnswer stores value at questionIndex, overwriting any prior answer.
// With auto-advance on, navigation moves one question forward after a short
// delay; that is a UI affordance, not a scoring rule.
func (s *Session) RecordAnswer(questionIndex int, value Answer) error {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return ErrSessionNotActive
	}
	if questionIndex < 0 || questionIndex >= len(s.answers) {
		s.mu.Unlock()
		return ErrIndexOutOfRange
	}
	s.answers[questionIndex] = value
	advance := s.autoAdvance && questionIndex == s.current && s.current < len(s.answers)-1
	s.mu.Unlock()

	if advance {
		time.AfterFunc(s.autoAdvanceDelay, func() { _, _ = s.Next() })
	}
	return nil
}

// Next advances one question, clamping at the last. Returns the new index.
func (s *Session) Next() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return s.current, ErrSessionNotActive
	}
	if s.current < len(s.quiz.Questions)-1 {
		s.current++
	}
	return s.current, nil
}

// Previous moves one question back, clamping at the first.
func (s *Session) Previous() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return s.current, ErrSessionNotActive
	}
	if s.current > 0 {
		s.current--
	}
	return s.current, nil
}

// Submit stops the timer, scores the attempt, persists the result, and
// transitions to submitted. A second Submit while already submitted is
// silently ignored and returns the existing result.
func (s *Session) Submit(timedOut bool) (Result, error) {
	s.mu.Lock()
	if s.state == StateSubmitted {
		r := *s.result
		s.mu.Unlock()
		return r, nil
	}
	if s.state != StateInProgress {
		s.mu.Unlock()
		return Result{}, ErrSessionNotActive
	}
	ev := s.submitLocked(timedOut)
	r := *s.result
	s.mu.Unlock()
	s.publish(ev)
	return r, nil
}

func (s *Session) submitLocked(timedOut bool) event.Event {
	s.stopTimerLocked()
	res := Score(s.quiz, s.answers)
	res.ID = uuid.NewString()
	res.TimedOut = timedOut
	res.CompletionTimeMs = s.now().Sub(s.startedAt).Milliseconds()
	res.RecordedAt = s.now()

	if s.history != nil {
		if err := s.history.Append(context.Background(), res); err != nil {
			s.log.WithError(err).WithField("quiz_id", s.quiz.ID).Warn("failed to save quiz result")
		}
	}

	s.result = &res
	s.state = StateSubmitted
	return event.QuizCompleted{
		SessionID:        s.ID,
		QuizID:           s.quiz.ID,
		ResultID:         res.ID,
		Score:            res.Score,
		Passed:           res.Passed,
		CompletionTimeMs: res.CompletionTimeMs,
		TimedOut:         timedOut,
	}
}

// Restart discards the current attempt and begins a fresh one for the same
// quiz. Valid while in progress or after submit. The state check and the
// fresh start happen under one lock hold so a concurrent Close cannot be
// overwritten.
func (s *Session) Restart() error {
	s.mu.Lock()
	if s.state != StateInProgress && s.state != StateSubmitted {
		s.mu.Unlock()
		return ErrSessionNotActive
	}
	s.stopTimerLocked()
	ev := s.startLocked()
	s.mu.Unlock()
	s.publish(ev)
	return nil
}

// Close cancels the timer and ends the session. Valid from any state and
// idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.state = StateClosed
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the scored result once submitted.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// Quiz returns the definition with answer keys stripped.
func (s *Session) Quiz() Quiz { return s.quiz.Redacted() }

// SessionView is the wire snapshot of a session.
type SessionView struct {
	ID            string   `json:"id"`
	QuizID        string   `json:"quiz_id"`
	QuizTitle     string   `json:"quiz_title"`
	State         State    `json:"state"`
	CurrentIndex  int      `json:"current_index"`
	QuestionCount int      `json:"question_count"`
	Answers       []Answer `json:"answers"`
	RemainingSec  int      `json:"remaining_sec,omitempty"`
	TimedOut      bool     `json:"timed_out,omitempty"`
}

func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers := make([]Answer, len(s.answers))
	copy(answers, s.answers)
	v := SessionView{
		ID:            s.ID,
		QuizID:        s.quiz.ID,
		QuizTitle:     s.quiz.Title,
		State:         s.state,
		CurrentIndex:  s.current,
		QuestionCount: len(s.quiz.Questions),
		Answers:       answers,
	}
	if s.timeLimit > 0 && s.state == StateInProgress {
		v.RemainingSec = s.remaining
	}
	if s.result != nil {
		v.TimedOut = s.result.TimedOut
	}
	return v
}

// --- timer ---

func (s *Session) startTimerLocked() {
	s.stopTimerLocked()
	stop := make(chan struct{})
	s.stopTimer = stop
	go s.runTimer(stop)
}

func (s *Session) stopTimerLocked() {
	if s.stopTimer != nil {
		close(s.stopTimer)
		s.stopTimer = nil
	}
}

func (s *Session) runTimer(stop chan struct{}) {
	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if s.tickOnce() {
				return
			}
		}
	}
}

// tickOnce decrements the countdown, emits warnings at the fixed marks, and
// forces a timed-out submit at zero. Returns true when the timer is done.
func (s *Session) tickOnce() bool {
	s.mu.Lock()
	if s.state != StateInProgress || s.timeLimit <= 0 {
		s.mu.Unlock()
		return true
	}
	s.remaining--
	rem := s.remaining

	var evts []event.Event
	if rem == warnRemaining || rem == warnRemainingCritical {
		evts = append(evts, event.TimerWarning{
			SessionID:        s.ID,
			QuizID:           s.quiz.ID,
			RemainingSeconds: rem,
		})
	}
	done := false
	if rem <= 0 {
		evts = append(evts, s.submitLocked(true))
		done = true
	}
	s.mu.Unlock()
	s.publish(evts...)
	return done
}
