package syncx

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tvetlabs/tvet-platform/internal/db"
)

func TestSQLQueueRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	q := NewSQLQueue(conn)
	base := time.Unix(1700000000, 0)
	for i, id := range []string{"u1", "u2", "u3"} {
		err := q.Enqueue(ctx, Upload{
			ID:       id,
			Tag:      TagProgress,
			Payload:  []byte(`{"n":` + id[1:] + `}`),
			QueuedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	pending, err := q.Pending(ctx, TagProgress)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 3 || pending[0].ID != "u1" {
		t.Fatalf("pending = %+v, want u1..u3 oldest first", pending)
	}
	if string(pending[1].Payload) != `{"n":2}` {
		t.Fatalf("payload = %s", pending[1].Payload)
	}

	if err := q.Fail(ctx, "u2", "server returned 500"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := q.Ack(ctx, "u1"); err != nil {
		t.Fatalf("ack: %v", err)
	}

	pending, _ = q.Pending(ctx, TagProgress)
	if len(pending) != 2 {
		t.Fatalf("pending after ack = %d, want 2", len(pending))
	}
	if pending[0].ID != "u2" || pending[0].Retries != 1 || pending[0].LastError != "server returned 500" {
		t.Fatalf("failed upload not recorded: %+v", pending[0])
	}

	// other tags untouched
	other, _ := q.Pending(ctx, TagQuizResults)
	if len(other) != 0 {
		t.Fatalf("quiz-results pending = %d, want 0", len(other))
	}
}
