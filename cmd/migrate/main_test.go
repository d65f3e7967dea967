package main

import (
	"strings"
	"testing"

	"lecturequiz/db"
)

func TestSplitStatements(t *testing.T) {
	script := "-- header\ncreate table a (\n  id int\n);\n\ncreate index i on a (id);\nselect 1"
	got := splitStatements(script)
	if len(got) != 3 {
		t.Fatalf("got %d statements: %q", len(got), got)
	}
	if got[0] != "create table a (\n  id int\n)" {
		t.Fatalf("first = %q", got[0])
	}
	if got[2] != "select 1" {
		t.Fatalf("last = %q", got[2])
	}
}

func TestEmbeddedSchema(t *testing.T) {
	stmts := splitStatements(db.Schema)
	if len(stmts) != 4 {
		t.Fatalf("schema statements = %d, want 4", len(stmts))
	}
	for _, s := range stmts {
		if !strings.Contains(s, "if not exists") {
			t.Fatalf("statement is not idempotent: %s", summary(s))
		}
	}
	if got := summary(stmts[0]); got != "create table if not exists jobs" {
		t.Fatalf("summary = %q", got)
	}
}
