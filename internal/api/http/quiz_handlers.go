package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tvetlabs/tvet-platform/internal/quiz"
)

// GetQuizHandler serves a quiz definition with answer keys stripped.
func GetQuizHandler(provider quiz.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizType := chi.URLParam(r, "quizType")
		q, err := provider.Load(r.Context(), quizType)
		if err != nil {
			if errors.Is(err, quiz.ErrQuizNotFound) {
				http.Error(w, "quiz not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, q.Redacted())
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
