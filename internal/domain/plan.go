package domain

import "time"

// Operation is the filesystem mutation an entry asks for.
type Operation int

const (
	OperationCopy Operation = iota
	OperationMove
)

func (o Operation) String() string {
	if o == OperationMove {
		return "move"
	}
	return "copy"
}

// PlanEntry pairs an enriched file with its resolved, collision-free
// destination path. Consumed exactly once by the executor.
type PlanEntry struct {
	File     File
	DestPath string
	Op       Operation
}

// Rejection records a file excluded by a validator. Informational, not an
// error.
type Rejection struct {
	File      File
	Validator string
	Reason    string
}

// Plan is the output of one planning pass over the source tree.
type Plan struct {
	Entries    []PlanEntry
	Rejected   []Rejection
	Warnings   []string
	MediaCount int
	OtherCount int
	RangeStart *time.Time
	RangeEnd   *time.Time
}

// EntryStatus is the executor's outcome for one plan entry.
type EntryStatus int

const (
	StatusDone EntryStatus = iota
	StatusPlanned
	StatusSkipped
	StatusFailed
)

// EntryResult reports what the executor did with one entry.
type EntryResult struct {
	Entry  PlanEntry
	Status EntryStatus
	Err    error
}

// Summary aggregates one execution pass. Failed entries keep their errors;
// the caller decides whether the batch should be rolled back.
type Summary struct {
	Copied   int
	Moved    int
	Planned  int
	Skipped  int
	Failed   int
	Failures []EntryResult
}

func (s Summary) Total() int {
	return s.Copied + s.Moved + s.Planned + s.Skipped + s.Failed
}
