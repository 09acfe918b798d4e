package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type fakeExec struct {
	stmts []string
	args  [][]any
	err   error
}

func (f *fakeExec) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.stmts = append(f.stmts, sql)
	f.args = append(f.args, args)
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag("DELETE 2"), nil
}

func TestPrune(t *testing.T) {
	db := &fakeExec{}
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	rep, err := prune(context.Background(), db, now, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if rep != (report{Sessions: 2}) {
		t.Errorf("report = %+v", rep)
	}
	if len(db.stmts) != 1 {
		t.Fatalf("statements = %d", len(db.stmts))
	}
	if cutoff := db.args[0][0].(time.Time); !cutoff.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("sessions cutoff = %v", cutoff)
	}
}

func TestPruneLeavesQueueTablesAlone(t *testing.T) {
	db := &fakeExec{}
	prune(context.Background(), db, time.Now(), time.Hour)
	for _, sql := range db.stmts {
		if strings.Contains(sql, "queue_entries") || strings.Contains(sql, "queue_sequences") {
			t.Errorf("janitor wrote to the queue: %s", sql)
		}
	}
}

func TestPruneError(t *testing.T) {
	db := &fakeExec{err: errors.New("boom")}
	if _, err := prune(context.Background(), db, time.Now(), time.Hour); err == nil {
		t.Fatal("expected error")
	}
}

func TestIdleFromEnv(t *testing.T) {
	t.Setenv("SESSION_MAX_IDLE", "")
	if d, err := idleFromEnv(); err != nil || d != 30*24*time.Hour {
		t.Errorf("default = %v, %v", d, err)
	}
	t.Setenv("SESSION_MAX_IDLE", "48h")
	if d, _ := idleFromEnv(); d != 48*time.Hour {
		t.Errorf("48h = %v", d)
	}
	t.Setenv("SESSION_MAX_IDLE", "-1h")
	if _, err := idleFromEnv(); err == nil {
		t.Error("negative idle should fail")
	}
}
