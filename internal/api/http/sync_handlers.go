package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tvetlabs/tvet-platform/internal/syncx"
)

// TriggerSyncHandler fires a sync pass for one tag. A pass with failed
// uploads reports 502 but the queue is retained for the next trigger.
func TriggerSyncHandler(worker *syncx.Worker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag := chi.URLParam(r, "tag")
		if tag != syncx.TagProgress && tag != syncx.TagQuizResults {
			http.Error(w, "unknown sync tag", http.StatusNotFound)
			return
		}
		if err := worker.Sync(r.Context(), tag); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}
