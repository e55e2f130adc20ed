// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs packing-list documents through extraction and CMR
// population, one document at a time.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pdiddy/cmr-converter/pkg/types"
)

// Extractor reads a packing list into a record.
type Extractor interface {
	Extract(ctx context.Context, path string) (*types.ExtractedRecord, error)
}

// Populator writes a record into a CMR workbook.
type Populator interface {
	Populate(rec *types.ExtractedRecord, templatePath, outputPath string) error
}

// Journal remembers processed documents. It is optional.
type Journal interface {
	Record(ctx context.Context, e types.JournalEntry) error
	Converted(ctx context.Context, path string, modTime time.Time) (bool, error)
	Failed(ctx context.Context, path string, modTime time.Time) (bool, error)
}

// Pipeline converts packing lists into CMR workbooks.
type Pipeline struct {
	Extractor Extractor
	Populator Populator

	// Template is the CMR workbook to fill; see populate.Populator.
	Template  string
	OutputDir string

	// Patterns select input documents in ConvertDir. Empty means
	// types.DefaultPatterns.
	Patterns []string

	// SkipConverted skips documents the journal already converted. It has
	// no effect without a Journal.
	SkipConverted bool

	// SkipFailed skips documents whose latest journal entry is a failure
	// for the current modification time. It has no effect without a
	// Journal.
	SkipFailed bool

	Journal Journal
	Now     func() time.Time
	Log     *zap.Logger
}

// Result describes one converted document.
type Result struct {
	Source string
	Output string
	Record *types.ExtractedRecord
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// ConvertFile extracts the packing list at path and writes its CMR into the
// output directory. The outcome is journaled when a journal is configured.
func (p *Pipeline) ConvertFile(ctx context.Context, path string) (*Result, error) {
	log := p.logger().With(zap.String("source", path))

	var modTime time.Time
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}

	rec, err := p.Extractor.Extract(ctx, path)
	if err != nil {
		p.record(ctx, failedEntry(path, modTime, err))
		return nil, err
	}

	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		err = errors.Wrapf(err, "creating output directory %s", p.OutputDir)
		p.record(ctx, failedEntry(path, modTime, err))
		return nil, err
	}

	out := OutputPath(p.OutputDir, rec, path, p.now())
	if err := p.Populator.Populate(rec, p.Template, out); err != nil {
		p.record(ctx, failedEntry(path, modTime, err))
		return nil, err
	}

	p.record(ctx, types.JournalEntry{
		SourcePath:    path,
		SourceModTime: modTime,
		Status:        types.ConversionDone,
		OutputPath:    out,
		Reference:     rec.Reference(),
		Boxes:         rec.NumBoxes(),
		TotalWeight:   rec.TotalGrossWeight,
	})
	log.Info("converted", zap.String("output", out), zap.Int("boxes", rec.NumBoxes()))
	return &Result{Source: path, Output: out, Record: rec}, nil
}

// ConvertDir converts every matching document in dir, printing one status
// line per document and a summary to w. A failed document never stops the
// run; only an unreadable input directory or cancellation is an error.
func (p *Pipeline) ConvertDir(ctx context.Context, dir string, w io.Writer) (BatchResult, error) {
	var result BatchResult

	info, err := os.Stat(dir)
	if err != nil {
		return result, errors.Wrapf(err, "reading input directory %s", dir)
	}
	if !info.IsDir() {
		return result, errors.Errorf("input %s is not a directory", dir)
	}

	files, err := Discover(dir, p.Patterns)
	if err != nil {
		return result, err
	}
	p.logger().Info("batch started", zap.String("dir", dir), zap.Int("documents", len(files)))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			printSummary(w, result)
			return result, err
		}
		name := filepath.Base(f)

		if reason := p.skip(ctx, f); reason != "" {
			fmt.Fprintf(w, "skipped: %s (%s)\n", name, reason)
			result.Skipped++
			continue
		}

		res, err := p.ConvertFile(ctx, f)
		if err != nil {
			fmt.Fprintf(w, "failed: %s (%v)\n", name, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "converted: %s -> %s\n", name, filepath.Base(res.Output))
		result.Converted++
	}

	printSummary(w, result)
	return result, nil
}

func printSummary(w io.Writer, r BatchResult) {
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		r.Converted, r.Skipped, r.Failed, r.Total())
}

// skip returns why path should not be converted this run, or "" to
// convert it. Journal lookup errors never skip.
func (p *Pipeline) skip(ctx context.Context, path string) string {
	if p.Journal == nil || !p.SkipConverted && !p.SkipFailed {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	log := p.logger().With(zap.String("source", path))

	if p.SkipConverted {
		done, err := p.Journal.Converted(ctx, path, info.ModTime())
		if err != nil {
			log.Warn("journal lookup failed", zap.Error(err))
			return ""
		}
		if done {
			return "already converted"
		}
	}
	if p.SkipFailed {
		failed, err := p.Journal.Failed(ctx, path, info.ModTime())
		if err != nil {
			log.Warn("journal lookup failed", zap.Error(err))
			return ""
		}
		if failed {
			return "failed before, unchanged"
		}
	}
	return ""
}

func (p *Pipeline) record(ctx context.Context, e types.JournalEntry) {
	if p.Journal == nil {
		return
	}
	if e.ConvertedAt.IsZero() {
		e.ConvertedAt = p.now()
	}
	if err := p.Journal.Record(ctx, e); err != nil {
		p.logger().Warn("journal write failed", zap.String("source", e.SourcePath), zap.Error(err))
	}
}

func failedEntry(path string, modTime time.Time, err error) types.JournalEntry {
	return types.JournalEntry{
		SourcePath:    path,
		SourceModTime: modTime,
		Status:        types.ConversionFailed,
		Error:         err.Error(),
	}
}

// Discover returns the files in dir whose names match any of patterns,
// de-duplicated and sorted. Matching ignores case, so "*.pdf" also selects
// "SCAN.PDF". Empty patterns mean types.DefaultPatterns.
func Discover(dir string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = types.DefaultPatterns
	}
	lower := make([]string, len(patterns))
	for i, pat := range patterns {
		if _, err := filepath.Match(pat, ""); err != nil {
			return nil, errors.Wrapf(err, "invalid pattern %q", pat)
		}
		lower[i] = strings.ToLower(pat)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading input directory %s", dir)
	}

	var files []string
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		for _, pat := range lower {
			if ok, _ := filepath.Match(pat, name); !ok {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				files = append(files, path)
			}
			break
		}
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath names the CMR for rec: CMR_<ref>_<timestamp>.xlsx in dir. The
// reference is our ref, else the packing list number, else the source base
// name. An existing file is never overwritten; _2, _3, ... is appended
// instead.
func OutputPath(dir string, rec *types.ExtractedRecord, source string, now time.Time) string {
	ref := rec.Reference()
	if ref == "" {
		ref = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	ref = strings.NewReplacer("/", "_", `\`, "_").Replace(ref)

	stem := fmt.Sprintf("CMR_%s_%s", ref, now.Format(types.TimestampLayout))
	path := filepath.Join(dir, stem+".xlsx")
	for n := 2; exists(path); n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.xlsx", stem, n))
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
