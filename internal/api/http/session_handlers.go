package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tvetlabs/tvet-platform/internal/quiz"
)

func StartSessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizType     string `json:"quiz_type"`
			TimeLimitSec int    `json:"time_limit_sec,omitempty"`
			AutoAdvance  *bool  `json:"auto_advance,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuizType == "" {
			http.Error(w, "quiz_type required", http.StatusBadRequest)
			return
		}
		s, err := mgr.Start(r.Context(), req.QuizType, quiz.Options{
			TimeLimitSec: req.TimeLimitSec,
			AutoAdvance:  req.AutoAdvance,
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, s.Snapshot())
	}
}

func GetSessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := mgr.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, s.Snapshot())
	}
}

func RecordAnswerHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := mgr.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeSessionError(w, err)
			return
		}
		var req struct {
			QuestionIndex int         `json:"question_index"`
			Value         quiz.Answer `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := s.RecordAnswer(req.QuestionIndex, req.Value); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, s.Snapshot())
	}
}

// NavigateHandler moves one question forward or back, clamping at the ends.
func NavigateHandler(mgr *quiz.Manager, forward bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := mgr.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeSessionError(w, err)
			return
		}
		if forward {
			_, err = s.Next()
		} else {
			_, err = s.Previous()
		}
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, s.Snapshot())
	}
}

func SubmitHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := mgr.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeSessionError(w, err)
			return
		}
		res, err := s.Submit(false)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, res)
	}
}

func RestartHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := mgr.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeSessionError(w, err)
			return
		}
		if err := s.Restart(); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, s.Snapshot())
	}
}

// CloseSessionHandler is idempotent: closing an unknown or already-closed
// session still returns 204.
func CloseSessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr.Close(chi.URLParam(r, "sessionID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound), errors.Is(err, quiz.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrIndexOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, quiz.ErrSessionNotActive):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
