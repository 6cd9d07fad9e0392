package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	j, err := New(db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return j
}

func TestBeginFinishRecent(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	install := j.Begin(ctx, KindInstall, "default_pack.zip")
	j.Finish(ctx, install, StateSucceeded, "")
	apply := j.Begin(ctx, KindApply, "themeA")
	j.Finish(ctx, apply, StateFailed, "extract themeA: io failure")
	running := j.Begin(ctx, KindDownload, "pack.zip")

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(Recent) = %d; want 3", len(entries))
	}

	if entries[0].ID != running.ID || entries[0].State != StateRunning {
		t.Errorf("entries[0] = %+v; want running download", entries[0])
	}
	if !entries[0].FinishedAt.IsZero() || entries[0].Duration() != 0 {
		t.Errorf("unfinished entry has FinishedAt %v", entries[0].FinishedAt)
	}
	if entries[1].Kind != KindApply || entries[1].State != StateFailed || entries[1].Message != "extract themeA: io failure" {
		t.Errorf("entries[1] = %+v; want failed apply", entries[1])
	}
	if entries[2].Pack != "default_pack.zip" || entries[2].State != StateSucceeded {
		t.Errorf("entries[2] = %+v; want succeeded install", entries[2])
	}
	if entries[2].FinishedAt.Before(entries[2].StartedAt) {
		t.Errorf("FinishedAt %v before StartedAt %v", entries[2].FinishedAt, entries[2].StartedAt)
	}

	limited, err := j.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len(Recent(1)) = %d; want 1", len(limited))
	}
}

func TestNilJournal(t *testing.T) {
	var j *Journal
	ctx := context.Background()
	e := j.Begin(ctx, KindApply, "themeA")
	j.Finish(ctx, e, StateSkipped, "")
	if e.State != StateSkipped {
		t.Errorf("State = %v; want Skipped", e.State)
	}
	if entries, err := j.Recent(ctx, 5); err != nil || entries != nil {
		t.Errorf("Recent on nil journal = %v, %v; want nil, nil", entries, err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("Close on nil journal = %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	e := j.Begin(context.Background(), KindInstall, "default_pack.zip")
	j.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != e.ID {
		t.Errorf("Recent after reopen = %+v; want entry %s", entries, e.ID)
	}
}
