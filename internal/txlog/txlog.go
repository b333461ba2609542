// Package txlog is the append-only record of executed filesystem
// mutations. Each completed copy or move is written as one JSON line and
// synced before the executor moves on, so the log stays consistent at any
// cancellation point. Rollback consumes the records in reverse order.
package txlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record describes one completed operation.
type Record struct {
	ID          string    `json:"id"`
	Batch       string    `json:"batch"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Op          string    `json:"op"`
	Checksum    string    `json:"checksum,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// Writer appends records for one batch. Opened before the batch begins,
// closed on success, optionally discarded when nothing went wrong.
type Writer struct {
	mu    sync.Mutex
	file  *os.File
	path  string
	batch string
}

// Open creates (or appends to) the log file at path and starts a new batch.
func Open(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create transaction log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transaction log: %w", err)
	}
	return &Writer{
		file:  file,
		path:  path,
		batch: uuid.NewString(),
	}, nil
}

// Batch returns the id shared by every record of this run.
func (w *Writer) Batch() string {
	return w.batch
}

// Append writes one completed operation. The record is synced to disk
// before Append returns; a crash after Append never loses it.
func (w *Writer) Append(rec Record) (Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec.ID = uuid.NewString()
	rec.Batch = w.batch
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encode transaction record: %w", err)
	}
	if _, err := w.file.Write(append(line, '\n')); err != nil {
		return Record{}, fmt.Errorf("append transaction record: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return Record{}, fmt.Errorf("sync transaction log: %w", err)
	}
	return rec, nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Discard closes and deletes the log file. Used after a fully successful
// batch when the caller does not want to keep the history.
func (w *Writer) Discard() error {
	if err := w.Close(); err != nil {
		return err
	}
	return os.Remove(w.path)
}

// Read loads every record from a log file, in append order.
func Read(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transaction log: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decode transaction record: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transaction log: %w", err)
	}
	return records, nil
}

// ForBatch filters records down to one batch, preserving order.
func ForBatch(records []Record, batch string) []Record {
	var out []Record
	for _, rec := range records {
		if rec.Batch == batch {
			out = append(out, rec)
		}
	}
	return out
}

// Prune rewrites the log without the records of one batch, so an undone
// batch cannot be rolled back twice. The file is removed when no records
// remain.
func Prune(path, batch string) error {
	records, err := Read(path)
	if err != nil {
		return err
	}

	var kept []Record
	for _, rec := range records {
		if rec.Batch != batch {
			kept = append(kept, rec)
		}
	}
	if len(kept) == 0 {
		return os.Remove(path)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("rewrite transaction log: %w", err)
	}
	for _, rec := range kept {
		line, err := json.Marshal(rec)
		if err != nil {
			file.Close()
			return fmt.Errorf("encode transaction record: %w", err)
		}
		if _, err := file.Write(append(line, '\n')); err != nil {
			file.Close()
			return fmt.Errorf("rewrite transaction log: %w", err)
		}
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync transaction log: %w", err)
	}
	return file.Close()
}
