package presentation

import (
	"fmt"
	"io"
	"time"

	"mediasort/internal/domain"
)

type Printer struct {
	Writer  io.Writer
	Verbose bool
}

// PrintPlan shows the planned operations before anything is executed.
func (p Printer) PrintPlan(plan domain.Plan) {
	fmt.Fprintln(p.Writer, "Planned:")
	fmt.Fprintln(p.Writer)

	for _, line := range formatEntryLines(plan.Entries) {
		fmt.Fprintln(p.Writer, line)
	}

	if len(plan.Rejected) > 0 {
		fmt.Fprintln(p.Writer)
		fmt.Fprintln(p.Writer, "Excluded by validators:")
		for _, rejection := range plan.Rejected {
			fmt.Fprintf(p.Writer, "%s (%s: %s)\n", rejection.File.Record.Name, rejection.Validator, rejection.Reason)
		}
	}

	fmt.Fprintln(p.Writer)
	rangeStart := formatDate(plan.RangeStart)
	rangeEnd := formatDate(plan.RangeEnd)
	if rangeStart == "" || rangeEnd == "" {
		fmt.Fprintf(p.Writer, "Planned %d media and %d other files.\n", plan.MediaCount, plan.OtherCount)
	} else {
		fmt.Fprintf(p.Writer, "Planned %d media and %d other files from %s until %s.\n", plan.MediaCount, plan.OtherCount, rangeStart, rangeEnd)
	}

	if p.Verbose && len(plan.Warnings) > 0 {
		fmt.Fprintln(p.Writer)
		fmt.Fprintln(p.Writer, "Warnings:")
		for _, warning := range plan.Warnings {
			fmt.Fprintln(p.Writer, "- "+warning)
		}
	}
}

// PrintSummary reports the outcome of one execution pass.
func (p Printer) PrintSummary(summary domain.Summary, dryRun bool) {
	fmt.Fprintln(p.Writer)
	if dryRun {
		fmt.Fprintf(p.Writer, "Dry run: %d operations planned, %d skipped, nothing touched.\n", summary.Planned, summary.Skipped)
		return
	}

	fmt.Fprintf(p.Writer, "Copied %d and moved %d files, skipped %d.\n", summary.Copied, summary.Moved, summary.Skipped)
	if summary.Failed == 0 {
		return
	}

	fmt.Fprintf(p.Writer, "%d entries failed:\n", summary.Failed)
	for _, failure := range summary.Failures {
		fmt.Fprintf(p.Writer, "- %s: %v\n", failure.Entry.File.Record.Name, failure.Err)
	}
	fmt.Fprintln(p.Writer, "Completed operations were kept; run rollback to undo this batch.")
}

// PrintRollback reports the outcome of an explicit rollback.
func (p Printer) PrintRollback(undone int, errs []error) {
	fmt.Fprintf(p.Writer, "Rolled back %d operations.\n", undone-len(errs))
	for _, err := range errs {
		fmt.Fprintf(p.Writer, "- %v\n", err)
	}
}

func formatEntryLines(entries []domain.PlanEntry) []string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		date := entry.File.Date.Time.Format("2006-01-02 15:04")
		lines = append(lines, fmt.Sprintf("%s %s -> %s  %s", title(entry.Op), entry.File.Record.Name, entry.DestPath, date))
	}

	if len(lines) <= 4 {
		return lines
	}
	head := lines[:2]
	tail := lines[len(lines)-2:]
	return append(append(head, "..."), tail...)
}

func title(op domain.Operation) string {
	if op == domain.OperationMove {
		return "Move"
	}
	return "Copy"
}

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02")
}
