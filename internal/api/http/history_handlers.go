package http

import (
	"net/http"

	"github.com/tvetlabs/tvet-platform/internal/quiz"
)

func GetHistoryHandler(h quiz.History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := h.Load(r.Context())
		if err != nil {
			// reads never fail the caller
			results = []quiz.Result{}
		}
		writeJSON(w, results)
	}
}

func ClearHistoryHandler(h quiz.History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.Clear(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
