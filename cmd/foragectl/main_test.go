package main

import (
	"context"
	"strings"
	"testing"
)

func TestRunRequiresCommand(t *testing.T) {
	err := run(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "missing command") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"evolve"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunTasksCommand(t *testing.T) {
	if err := run(context.Background(), []string{"tasks"}); err != nil {
		t.Fatalf("tasks: %v", err)
	}
}

func TestRunRunCommandMemoryStore(t *testing.T) {
	err := run(context.Background(), []string{
		"run",
		"-task", "coupled-block",
		"-trials", "20",
		"-seed", "42",
		"-store", "memory",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunBatchRequiresConfig(t *testing.T) {
	err := run(context.Background(), []string{"batch"})
	if err == nil || !strings.Contains(err.Error(), "requires -config") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunExportRequiresSessionID(t *testing.T) {
	err := run(context.Background(), []string{"export"})
	if err == nil || !strings.Contains(err.Error(), "requires -session-id") {
		t.Fatalf("err = %v", err)
	}
}
