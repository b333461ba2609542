package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"mediasort/internal/domain"
	"mediasort/internal/logging"
	"mediasort/internal/txlog"
)

// TransactionLog receives one record per completed mutation. *txlog.Writer
// satisfies it; tests substitute their own.
type TransactionLog interface {
	Append(rec txlog.Record) (txlog.Record, error)
}

type Executor struct {
	FS         FileSystem
	Log        TransactionLog
	Logger     logging.Logger
	OnProgress ProgressFunc
}

// Options control one execution pass.
type Options struct {
	DryRun bool
	// SkipExisting skips entries whose destination path already exists.
	// Name-based only; content-duplicate detection is a separate concern.
	SkipExisting bool
}

// Execute runs the plan in order. A failing entry is recorded and the batch
// continues; completed work is never reversed here. Rollback is a separate,
// explicitly invoked operation. Cancellation is honored between entries and
// leaves the transaction log consistent.
func (e *Executor) Execute(ctx context.Context, plan domain.Plan, opts Options) (domain.Summary, error) {
	if e.FS == nil {
		return domain.Summary{}, errors.New("executor requires FS")
	}

	stop := e.Logger.Measure("Executing plan")
	defer stop()

	var summary domain.Summary
	total := len(plan.Entries)

	for i, entry := range plan.Entries {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		result := e.executeEntry(entry, opts)
		switch result.Status {
		case domain.StatusSkipped:
			summary.Skipped++
		case domain.StatusPlanned:
			summary.Planned++
		case domain.StatusFailed:
			summary.Failed++
			summary.Failures = append(summary.Failures, result)
			e.Logger.Warnf("%s failed: %v", entry.File.Record.Name, result.Err)
		default:
			if entry.Op == domain.OperationMove {
				summary.Moved++
			} else {
				summary.Copied++
			}
		}

		if e.OnProgress != nil {
			e.OnProgress(i+1, total)
		}
	}

	return summary, nil
}

func (e *Executor) executeEntry(entry domain.PlanEntry, opts Options) domain.EntryResult {
	result := domain.EntryResult{Entry: entry, Status: domain.StatusDone}

	if opts.SkipExisting {
		exists, err := e.FS.Exists(entry.DestPath)
		if err != nil {
			result.Status = domain.StatusFailed
			result.Err = err
			return result
		}
		if exists {
			result.Status = domain.StatusSkipped
			return result
		}
	}

	if opts.DryRun {
		result.Status = domain.StatusPlanned
		e.Logger.Verbosef("Would %s %s -> %s", entry.Op, entry.File.Record.SourcePath, entry.DestPath)
		return result
	}

	var err error
	if entry.Op == domain.OperationMove {
		err = e.move(entry.File.Record.SourcePath, entry.DestPath)
	} else {
		err = e.FS.CopyFile(entry.File.Record.SourcePath, entry.DestPath)
	}
	if err != nil {
		result.Status = domain.StatusFailed
		result.Err = err
		return result
	}

	if e.Log != nil {
		_, err := e.Log.Append(txlog.Record{
			Source:      entry.File.Record.SourcePath,
			Destination: entry.DestPath,
			Op:          entry.Op.String(),
			Checksum:    entry.File.Checksum,
		})
		if err != nil {
			// The mutation happened but is unrecorded; surface it so the
			// caller does not trust rollback for this entry.
			result.Status = domain.StatusFailed
			result.Err = fmt.Errorf("operation completed but not logged: %w", err)
			return result
		}
	}

	return result
}

// move prefers an atomic rename and falls back to copy-then-delete across
// devices. The source is removed only after the destination write is
// confirmed.
func (e *Executor) move(src, dst string) error {
	if err := e.FS.Rename(src, dst); err == nil {
		return nil
	}
	if err := e.FS.CopyFile(src, dst); err != nil {
		return err
	}
	return e.FS.Remove(src)
}

// Rollback undoes completed operations from a transaction log, newest
// first: moves are moved back, copies have their destination deleted.
// Failures are collected and reported, never swallowed.
func (e *Executor) Rollback(ctx context.Context, records []txlog.Record) []error {
	var errs []error
	for i := len(records) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
			return errs
		default:
		}

		rec := records[i]
		var err error
		switch rec.Op {
		case domain.OperationMove.String():
			err = e.moveBack(rec.Destination, rec.Source)
		case domain.OperationCopy.String():
			err = e.FS.Remove(rec.Destination)
		default:
			err = fmt.Errorf("unknown operation %q in record %s", rec.Op, rec.ID)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("rollback %s %s: %w", rec.Op, filepath.Base(rec.Destination), err))
		}
	}
	return errs
}

func (e *Executor) moveBack(from, to string) error {
	if err := e.FS.Rename(from, to); err == nil {
		return nil
	}
	if err := e.FS.CopyFile(from, to); err != nil {
		return err
	}
	return e.FS.Remove(from)
}
