package quiz

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// SQLHistory persists results in the quiz_history table, trimmed to the cap
// on every append. Rows that fail to decode are skipped, never fatal.
type SQLHistory struct {
	db  *sql.DB
	cap int
	log logrus.FieldLogger
}

func NewSQLHistory(db *sql.DB, capacity int, log logrus.FieldLogger) *SQLHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &SQLHistory{db: db, cap: capacity, log: log}
}

func (h *SQLHistory) Append(ctx context.Context, r Result) error {
	buf, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO quiz_history (id, quiz_id, recorded_at, result_json)
		 VALUES ($1,$2,$3,$4)`,
		r.ID, r.QuizID, r.RecordedAt.Unix(), string(buf))
	if err != nil {
		return err
	}
	// evict everything past the cap, oldest first
	_, err = h.db.ExecContext(ctx,
		`DELETE FROM quiz_history WHERE seq NOT IN
		   (SELECT seq FROM quiz_history ORDER BY seq DESC LIMIT $1)`, h.cap)
	return err
}

func (h *SQLHistory) Load(ctx context.Context) ([]Result, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT result_json FROM quiz_history ORDER BY seq DESC LIMIT $1`, h.cap)
	if err != nil {
		h.log.WithError(err).Warn("history read failed, treating as empty")
		return []Result{}, nil
	}
	defer rows.Close()

	out := make([]Result, 0, h.cap)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var r Result
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			h.log.WithError(err).Warn("skipping corrupt history row")
			continue
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		h.log.WithError(err).Warn("history read interrupted, returning partial results")
	}
	return out, nil
}

func (h *SQLHistory) Clear(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx, `DELETE FROM quiz_history`)
	return err
}
