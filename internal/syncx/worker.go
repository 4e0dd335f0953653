package syncx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tvetlabs/tvet-platform/internal/event"
)

// Worker flushes queued uploads to the upstream API. Successes are acked,
// failures stay queued for the next trigger.
type Worker struct {
	queue  Queue
	api    *url.URL
	client *http.Client
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewWorker(queue Queue, apiBase string, client *http.Client, log logrus.FieldLogger) (*Worker, error) {
	u, err := url.Parse(apiBase)
	if err != nil {
		return nil, fmt.Errorf("sync api url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Worker{queue: queue, api: u, client: client, log: log, now: time.Now}, nil
}

func endpoint(tag string) (string, bool) {
	switch tag {
	case TagProgress:
		return "/api/progress", true
	case TagQuizResults:
		return "/api/quiz-results", true
	default:
		return "", false
	}
}

// Sync posts every pending upload for a tag. Returns an error when any
// upload failed so the trigger can report it; the queue is left intact for
// those uploads.
func (w *Worker) Sync(ctx context.Context, tag string) error {
	path, ok := endpoint(tag)
	if !ok {
		return fmt.Errorf("unknown sync tag %q", tag)
	}
	pending, err := w.queue.Pending(ctx, tag)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	target := *w.api
	target.Path = path

	failed := 0
	for _, u := range pending {
		if err := w.post(ctx, target.String(), u.Payload); err != nil {
			failed++
			if ferr := w.queue.Fail(ctx, u.ID, err.Error()); ferr != nil {
				w.log.WithError(ferr).Warn("failed to record sync failure")
			}
			w.log.WithError(err).WithFields(logrus.Fields{
				"tag": tag, "upload_id": u.ID,
			}).Warn("upload failed, will retry")
			continue
		}
		if err := w.queue.Ack(ctx, u.ID); err != nil {
			w.log.WithError(err).WithField("upload_id", u.ID).Warn("ack failed")
		}
	}
	w.log.WithFields(logrus.Fields{
		"tag": tag, "synced": len(pending) - failed, "failed": failed,
	}).Info("sync pass finished")
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(pending))
	}
	return nil
}

func (w *Worker) post(ctx context.Context, target string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}

// Attach subscribes the worker to the bus: quiz starts queue a progress
// snapshot, completions queue the result for upload.
func (w *Worker) Attach(b *event.Bus) {
	b.Subscribe(func(e event.Event) {
		switch ev := e.(type) {
		case event.QuizStarted:
			w.enqueueEvent(TagProgress, ev)
		case event.QuizCompleted:
			w.enqueueEvent(TagQuizResults, ev)
		}
	})
}

func (w *Worker) enqueueEvent(tag string, e event.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		w.log.WithError(err).Warn("drop unmarshalable sync payload")
		return
	}
	u := Upload{
		ID:       uuid.NewString(),
		Tag:      tag,
		Payload:  payload,
		QueuedAt: w.now(),
	}
	if err := w.queue.Enqueue(context.Background(), u); err != nil {
		w.log.WithError(err).WithField("tag", tag).Warn("enqueue failed")
	}
}

// Run fires both sync tags on a fixed interval until the context ends.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, tag := range []string{TagProgress, TagQuizResults} {
				if err := w.Sync(ctx, tag); err != nil {
					w.log.WithError(err).WithField("tag", tag).Debug("periodic sync incomplete")
				}
			}
		}
	}
}
