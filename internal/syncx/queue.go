// Package syncx implements best-effort background upload of locally queued
// progress and quiz results. Delivery is at-least-once with no ordering
// guarantee between retries; the server must tolerate duplicates.
package syncx

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// Sync trigger tags.
const (
	TagProgress    = "progress"
	TagQuizResults = "quiz-results"
)

// Upload is one pending payload.
type Upload struct {
	ID        string
	Tag       string
	Payload   []byte // JSON body posted verbatim
	QueuedAt  time.Time
	Retries   int
	LastError string
}

// Queue holds uploads until they are acknowledged. Failed uploads stay
// queued for a future trigger.
type Queue interface {
	Enqueue(ctx context.Context, u Upload) error
	Pending(ctx context.Context, tag string) ([]Upload, error)
	Ack(ctx context.Context, id string) error
	Fail(ctx context.Context, id, reason string) error
}

// MemoryQueue is the in-process implementation.
type MemoryQueue struct {
	mu      sync.Mutex
	uploads []Upload
}

func NewMemoryQueue() *MemoryQueue { return &MemoryQueue{} }

func (q *MemoryQueue) Enqueue(_ context.Context, u Upload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.uploads = append(q.uploads, u)
	return nil
}

func (q *MemoryQueue) Pending(_ context.Context, tag string) ([]Upload, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Upload, 0, len(q.uploads))
	for _, u := range q.uploads {
		if u.Tag == tag {
			out = append(out, u)
		}
	}
	return out, nil
}

func (q *MemoryQueue) Ack(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, u := range q.uploads {
		if u.ID == id {
			q.uploads = append(q.uploads[:i], q.uploads[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *MemoryQueue) Fail(_ context.Context, id, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.uploads {
		if q.uploads[i].ID == id {
			q.uploads[i].Retries++
			q.uploads[i].LastError = reason
			return nil
		}
	}
	return nil
}

// SQLQueue persists uploads in the pending_uploads table so they survive
// restarts.
type SQLQueue struct{ db *sql.DB }

func NewSQLQueue(db *sql.DB) *SQLQueue { return &SQLQueue{db: db} }

func (q *SQLQueue) Enqueue(ctx context.Context, u Upload) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO pending_uploads (id, tag, payload, queued_at, retries, last_error)
		 VALUES ($1,$2,$3,$4,0,'')`,
		u.ID, u.Tag, string(u.Payload), u.QueuedAt.Unix())
	return err
}

func (q *SQLQueue) Pending(ctx context.Context, tag string) ([]Upload, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, tag, payload, queued_at, retries, last_error
		 FROM pending_uploads WHERE tag=$1 ORDER BY queued_at`, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		var (
			u       Upload
			payload string
			queued  int64
		)
		if err := rows.Scan(&u.ID, &u.Tag, &payload, &queued, &u.Retries, &u.LastError); err != nil {
			return nil, err
		}
		u.Payload = []byte(payload)
		u.QueuedAt = time.Unix(queued, 0)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (q *SQLQueue) Ack(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pending_uploads WHERE id=$1`, id)
	return err
}

func (q *SQLQueue) Fail(ctx context.Context, id, reason string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE pending_uploads SET retries=retries+1, last_error=$1 WHERE id=$2`,
		reason, id)
	return err
}
