package app

import (
	"fmt"
	"time"

	"mediasort/internal/domain"
)

// Validator decides whether a file belongs in the plan. A failing validator
// excludes the file; that is informational, not an error.
type Validator interface {
	Name() string
	Validate(file domain.File) (ok bool, reason string)
}

// DateRangeValidator rejects files whose resolved date falls outside the
// configured bounds. Either bound may be nil.
type DateRangeValidator struct {
	Start *time.Time
	End   *time.Time
}

func (DateRangeValidator) Name() string {
	return "date-range"
}

func (v DateRangeValidator) Validate(file domain.File) (bool, string) {
	if v.Start != nil && file.Date.Time.Before(*v.Start) {
		return false, fmt.Sprintf("dated %s, before %s", file.Date.Time.Format("2006-01-02"), v.Start.Format("2006-01-02"))
	}
	if v.End != nil && file.Date.Time.After(*v.End) {
		return false, fmt.Sprintf("dated %s, after %s", file.Date.Time.Format("2006-01-02"), v.End.Format("2006-01-02"))
	}
	return true, ""
}
