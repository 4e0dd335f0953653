package quiz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFSProviderLoad(t *testing.T) {
	dir := t.TempDir()
	doc := `{
		"title": "Plumbing Assessment",
		"time_limit_sec": 600,
		"questions": [
			{"id": 1, "type": "true-false", "question": "Water flows downhill.", "correct_answer": true}
		]
	}`
	if err := os.WriteFile(filepath.Join(dir, "plumbing.json"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write quiz: %v", err)
	}
	p, err := NewFSProvider(dir)
	if err != nil {
		t.Fatalf("provider: %v", err)
	}

	q, err := p.Load(context.Background(), "plumbing")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if q.ID != "plumbing-assessment" {
		t.Fatalf("id = %q, want default plumbing-assessment", q.ID)
	}
	if q.Title != "Plumbing Assessment" || len(q.Questions) != 1 {
		t.Fatalf("unexpected quiz %+v", q)
	}
	if q.Questions[0].Correct != BoolAnswer(true) {
		t.Fatalf("correct answer = %+v", q.Questions[0].Correct)
	}

	if _, err := p.Load(context.Background(), "missing"); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("missing quiz err = %v, want ErrQuizNotFound", err)
	}
}

func TestFSProviderRejectsPathTricks(t *testing.T) {
	p, err := NewFSProvider(t.TempDir())
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	for _, typ := range []string{"", "../etc/passwd", "a/b", `a\b`, "a.b"} {
		if _, err := p.Load(context.Background(), typ); !errors.Is(err, ErrQuizNotFound) {
			t.Fatalf("type %q: err = %v, want ErrQuizNotFound", typ, err)
		}
	}
}

func TestFSProviderRejectsEmptyQuiz(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hollow.json"), []byte(`{"title":"x","questions":[]}`), 0o644); err != nil {
		t.Fatalf("write quiz: %v", err)
	}
	p, _ := NewFSProvider(dir)
	if _, err := p.Load(context.Background(), "hollow"); err == nil {
		t.Fatal("expected error for quiz with no questions")
	}
}

func TestFallbackServesSampleQuiz(t *testing.T) {
	p := Fallback(NewStaticProvider(nil), testLogger())

	q, err := p.Load(context.Background(), "carpentry")
	if err != nil {
		t.Fatalf("fallback load: %v", err)
	}
	if q.ID != "carpentry-assessment" {
		t.Fatalf("id = %q", q.ID)
	}
	if len(q.Questions) != 3 {
		t.Fatalf("sample quiz has %d questions, want 3", len(q.Questions))
	}
	if q.TimeLimitSec != 1800 || q.PassingScore != 70 {
		t.Fatalf("limit=%d passing=%d", q.TimeLimitSec, q.PassingScore)
	}
}

func TestFallbackPrefersInner(t *testing.T) {
	inner := NewStaticProvider(map[string]Quiz{"welding": twoChoiceQuiz()})
	p := Fallback(inner, testLogger())

	q, err := p.Load(context.Background(), "welding")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if q.ID != "welding-assessment" || len(q.Questions) != 2 {
		t.Fatalf("fallback shadowed the real quiz: %+v", q)
	}
}
