package app

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"mediasort/internal/domain"
	"mediasort/internal/logging"
	"mediasort/internal/template"
)

// ProgressFunc is called during planning to report progress
type ProgressFunc func(current, total int)

type Planner struct {
	FS         FileSystem
	Enricher   *Enricher
	Template   template.Template
	Allowed    domain.ExtensionSet
	Validators []Validator
	Mode       domain.Operation
	// SuffixFormat is the duplicate-name infix, e.g. "_%d".
	SuffixFormat string
	// SkipExisting keeps an already-existing destination path unchanged so
	// the executor skips it instead of suffixing a duplicate next to it.
	SkipExisting bool
	Workers      int
	Logger       logging.Logger
	OnProgress   ProgressFunc
}

// Plan performs one scan-to-plan pass: walk the source tree, enrich each
// file, run the validators, resolve the destination template and claim a
// collision-free path per entry. No filesystem mutation happens here.
func (p *Planner) Plan(ctx context.Context, sourceDir, destDir string) (domain.Plan, error) {
	if p.FS == nil || p.Enricher == nil {
		return domain.Plan{}, errors.New("planner requires FS and Enricher")
	}

	stop := p.Logger.Measure("Planning batch")
	defer stop()

	scanner := &Scanner{FS: p.FS, Allowed: p.Allowed, Logger: p.Logger}
	entries, err := scanner.Scan(sourceDir)
	if err != nil {
		return domain.Plan{}, err
	}

	files, warnings, err := p.enrichAll(ctx, entries)
	if err != nil {
		return domain.Plan{}, err
	}
	p.Logger.Verbosef("Enriched %d files (%d warnings)", len(files), len(warnings))

	// Fixed batch order: capture time, then source path. Traversal order is
	// filesystem dependent and must not decide suffix assignment.
	sort.Slice(files, func(i, j int) bool {
		if files[i].Date.Time.Equal(files[j].Date.Time) {
			return files[i].Record.SourcePath < files[j].Record.SourcePath
		}
		return files[i].Date.Time.Before(files[j].Date.Time)
	})

	plan := domain.Plan{Warnings: warnings}
	namer := NewNamer(p.FS, p.SuffixFormat, p.SkipExisting)

	for _, file := range files {
		if rejection, ok := p.reject(file); ok {
			plan.Rejected = append(plan.Rejected, rejection)
			continue
		}

		relPath, err := p.Template.Resolve(file)
		if err != nil {
			plan.Warnings = append(plan.Warnings, err.Error())
			continue
		}

		destPath, err := namer.Claim(filepath.Join(destDir, relPath))
		if err != nil {
			return domain.Plan{}, err
		}

		plan.Entries = append(plan.Entries, domain.PlanEntry{
			File:     file,
			DestPath: destPath,
			Op:       p.Mode,
		})
		if file.Kind == domain.KindMedia {
			plan.MediaCount++
		} else {
			plan.OtherCount++
		}
	}

	plan.RangeStart, plan.RangeEnd = deriveRange(plan.Entries)
	p.Logger.Verbosef("Planned %d entries (%d media, %d other), %d rejected",
		len(plan.Entries), plan.MediaCount, plan.OtherCount, len(plan.Rejected))

	return plan, nil
}

// enrichAll fans the enrichment pipeline out over a bounded worker group.
// Results keep their scan index, so worker scheduling never changes the
// outcome.
func (p *Planner) enrichAll(ctx context.Context, entries []scanned) ([]domain.File, []string, error) {
	stop := p.Logger.Measure("Enriching files")
	defer stop()

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	p.Logger.Verbosef("Using %d enrichment workers", workers)

	files := make([]domain.File, len(entries))
	warningLists := make([][]string, len(entries))
	var done atomic.Int64
	total := len(entries)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if entry.kind == domain.KindMedia {
				files[i], warningLists[i] = p.Enricher.Enrich(ctx, entry.record)
			} else {
				files[i] = domain.NewGenericFile(entry.record)
			}
			if p.OnProgress != nil {
				p.OnProgress(int(done.Add(1)), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, list := range warningLists {
		warnings = append(warnings, list...)
	}
	return files, warnings, nil
}

func (p *Planner) reject(file domain.File) (domain.Rejection, bool) {
	for _, v := range p.Validators {
		if ok, reason := v.Validate(file); !ok {
			return domain.Rejection{
				File:      file,
				Validator: v.Name(),
				Reason:    reason,
			}, true
		}
	}
	return domain.Rejection{}, false
}

func deriveRange(entries []domain.PlanEntry) (*time.Time, *time.Time) {
	if len(entries) == 0 {
		return nil, nil
	}
	min := entries[0].File.Date.Time
	max := entries[0].File.Date.Time
	for _, entry := range entries[1:] {
		if entry.File.Date.Time.Before(min) {
			min = entry.File.Date.Time
		}
		if entry.File.Date.Time.After(max) {
			max = entry.File.Date.Time
		}
	}
	return &min, &max
}
