package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"mediasort/internal/domain"
	"mediasort/internal/txlog"
)

type recordingLog struct {
	records []txlog.Record
	err     error
}

func (l *recordingLog) Append(rec txlog.Record) (txlog.Record, error) {
	if l.err != nil {
		return txlog.Record{}, l.err
	}
	rec.ID = "test"
	rec.CompletedAt = time.Now()
	l.records = append(l.records, rec)
	return rec, nil
}

func entry(src, dst string, op domain.Operation) domain.PlanEntry {
	return domain.PlanEntry{
		File: domain.File{
			Kind:   domain.KindMedia,
			Record: domain.FileRecord{SourcePath: src, Name: src},
		},
		DestPath: dst,
		Op:       op,
	}
}

func TestExecutorDryRunTouchesNothing(t *testing.T) {
	mock := newMockFS()
	executor := &Executor{FS: mock, Log: &recordingLog{}}

	plan := domain.Plan{Entries: []domain.PlanEntry{
		entry("/source/a.jpg", "/target/a.jpg", domain.OperationCopy),
		entry("/source/b.jpg", "/target/b.jpg", domain.OperationMove),
	}}

	summary, err := executor.Execute(context.Background(), plan, Options{DryRun: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Planned != 2 {
		t.Fatalf("expected 2 planned, got %d", summary.Planned)
	}
	if len(mock.copies) != 0 || len(mock.renames) != 0 || len(mock.removes) != 0 {
		t.Fatalf("dry run mutated the filesystem: %v %v %v", mock.copies, mock.renames, mock.removes)
	}
	log := executor.Log.(*recordingLog)
	if len(log.records) != 0 {
		t.Fatalf("dry run wrote transaction records")
	}
}

func TestExecutorSkipsExistingDestinations(t *testing.T) {
	mock := newMockFS()
	mock.exists["/target/a.jpg"] = true
	executor := &Executor{FS: mock}

	plan := domain.Plan{Entries: []domain.PlanEntry{
		entry("/source/a.jpg", "/target/a.jpg", domain.OperationCopy),
		entry("/source/b.jpg", "/target/b.jpg", domain.OperationCopy),
	}}

	summary, err := executor.Execute(context.Background(), plan, Options{SkipExisting: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Skipped != 1 || summary.Copied != 1 {
		t.Fatalf("expected 1 skipped and 1 copied, got %+v", summary)
	}
	if len(mock.copies) != 1 || mock.copies[0] != [2]string{"/source/b.jpg", "/target/b.jpg"} {
		t.Fatalf("unexpected copies %v", mock.copies)
	}
}

func TestExecutorMoveUsesRename(t *testing.T) {
	mock := newMockFS()
	log := &recordingLog{}
	executor := &Executor{FS: mock, Log: log}

	plan := domain.Plan{Entries: []domain.PlanEntry{
		entry("/source/a.jpg", "/target/a.jpg", domain.OperationMove),
	}}

	summary, err := executor.Execute(context.Background(), plan, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Moved != 1 {
		t.Fatalf("expected 1 moved, got %+v", summary)
	}
	if len(mock.renames) != 1 {
		t.Fatalf("expected a rename, got %v", mock.renames)
	}
	if len(log.records) != 1 || log.records[0].Op != "move" {
		t.Fatalf("unexpected log records %v", log.records)
	}
}

func TestExecutorMoveKeepsSourceOnCopyFailure(t *testing.T) {
	mock := newMockFS()
	// Rename fails (cross-device), copy fallback also fails: the source
	// must never be removed.
	mock.failRename["/source/a.jpg"] = errors.New("cross-device link")
	mock.failCopy["/source/a.jpg"] = errors.New("disk full")
	executor := &Executor{FS: mock}

	plan := domain.Plan{Entries: []domain.PlanEntry{
		entry("/source/a.jpg", "/target/a.jpg", domain.OperationMove),
	}}

	summary, err := executor.Execute(context.Background(), plan, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("expected 1 failure, got %+v", summary)
	}
	if len(mock.removes) != 0 {
		t.Fatalf("source was removed despite failed write: %v", mock.removes)
	}
}

func TestExecutorMoveFallsBackToCopyThenDelete(t *testing.T) {
	mock := newMockFS()
	mock.failRename["/source/a.jpg"] = errors.New("cross-device link")
	executor := &Executor{FS: mock}

	plan := domain.Plan{Entries: []domain.PlanEntry{
		entry("/source/a.jpg", "/target/a.jpg", domain.OperationMove),
	}}

	summary, err := executor.Execute(context.Background(), plan, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Moved != 1 {
		t.Fatalf("expected 1 moved, got %+v", summary)
	}
	if len(mock.copies) != 1 || len(mock.removes) != 1 || mock.removes[0] != "/source/a.jpg" {
		t.Fatalf("expected copy then source delete, got %v %v", mock.copies, mock.removes)
	}
}

func TestExecutorContinuesAfterEntryFailure(t *testing.T) {
	mock := newMockFS()
	mock.failCopy["/source/bad.jpg"] = errors.New("permission denied")
	executor := &Executor{FS: mock}

	plan := domain.Plan{Entries: []domain.PlanEntry{
		entry("/source/bad.jpg", "/target/bad.jpg", domain.OperationCopy),
		entry("/source/good.jpg", "/target/good.jpg", domain.OperationCopy),
	}}

	summary, err := executor.Execute(context.Background(), plan, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Failed != 1 || summary.Copied != 1 {
		t.Fatalf("expected 1 failed and 1 copied, got %+v", summary)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].Entry.File.Record.SourcePath != "/source/bad.jpg" {
		t.Fatalf("unexpected failures %v", summary.Failures)
	}
}

func TestExecutorStopsBetweenFilesOnCancel(t *testing.T) {
	mock := newMockFS()
	executor := &Executor{FS: mock}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := domain.Plan{Entries: []domain.PlanEntry{
		entry("/source/a.jpg", "/target/a.jpg", domain.OperationCopy),
	}}

	if _, err := executor.Execute(ctx, plan, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(mock.copies) != 0 {
		t.Fatalf("cancelled run mutated the filesystem")
	}
}

func TestRollbackReversesCompletedOperations(t *testing.T) {
	mock := newMockFS()
	executor := &Executor{FS: mock}

	records := []txlog.Record{
		{ID: "1", Op: "copy", Source: "/source/a.jpg", Destination: "/target/a.jpg"},
		{ID: "2", Op: "move", Source: "/source/b.jpg", Destination: "/target/b.jpg"},
	}

	errs := executor.Rollback(context.Background(), records)
	if len(errs) != 0 {
		t.Fatalf("unexpected rollback errors: %v", errs)
	}
	// Newest first: the move is undone before the copy.
	if len(mock.renames) != 1 || mock.renames[0] != [2]string{"/target/b.jpg", "/source/b.jpg"} {
		t.Fatalf("expected move undone by rename, got %v", mock.renames)
	}
	if len(mock.removes) != 1 || mock.removes[0] != "/target/a.jpg" {
		t.Fatalf("expected copy undone by delete, got %v", mock.removes)
	}
}

func TestRollbackReportsFailures(t *testing.T) {
	mock := newMockFS()
	mock.failRename["/target/b.jpg"] = errors.New("gone")
	mock.failCopy["/target/b.jpg"] = errors.New("gone")
	executor := &Executor{FS: mock}

	records := []txlog.Record{
		{ID: "1", Op: "move", Source: "/source/b.jpg", Destination: "/target/b.jpg"},
	}

	errs := executor.Rollback(context.Background(), records)
	if len(errs) != 1 {
		t.Fatalf("expected 1 rollback error, got %v", errs)
	}
}
