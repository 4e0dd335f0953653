package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// LogRepo appends domain events to the event_log table so a later sync pass
// can replay what happened at this site.
type LogRepo struct {
	db  *sql.DB
	log logrus.FieldLogger
}

func NewLogRepo(db *sql.DB, log logrus.FieldLogger) *LogRepo {
	return &LogRepo{db: db, log: log}
}

func (r *LogRepo) Append(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		string(e.EventType()), e.EventKey(), string(data), time.Now().Unix())
	return err
}

// Attach subscribes the repo to the bus. Write failures are logged and
// dropped; the log is best-effort bookkeeping, never a gate on the flow.
func (r *LogRepo) Attach(b *Bus) {
	b.Subscribe(func(e Event) {
		if err := r.Append(context.Background(), e); err != nil {
			r.log.WithError(err).WithField("event", e.EventType()).Warn("event log append failed")
		}
	})
}
