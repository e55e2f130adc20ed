// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract reads a packing-list PDF into a types.ExtractedRecord by
// locating known text landmarks: header fields and the consignee block on
// page 1, and one box record per page.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pdiddy/cmr-converter/internal/pdftext"
	"github.com/pdiddy/cmr-converter/pkg/types"
)

var (
	// ErrNoPages is returned for a document without pages.
	ErrNoPages = errors.New("document has no pages")

	// ErrNoText is returned when page 1 yields no text, which usually means
	// a scanned image.
	ErrNoText = errors.New("no extractable text on first page")
)

// likelyCauses is printed with fatal extraction errors.
var likelyCauses = []string{
	"the PDF file is corrupted",
	"the PDF is a scanned image (not text-based)",
	"the file transfer was incomplete",
}

// Error is a fatal extraction failure for one document.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// LikelyCauses lists what usually produces this error, for display to users.
func (e *Error) LikelyCauses() []string {
	return likelyCauses
}

// Opener loads a document. pdftext.Open is the production implementation;
// tests supply in-memory documents.
type Opener func(path string) (*pdftext.Document, error)

// Extractor turns packing-list documents into records.
type Extractor struct {
	open    Opener
	headers []headerRule
	log     *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithOpener replaces the document loader.
func WithOpener(o Opener) Option {
	return func(e *Extractor) { e.open = o }
}

// WithLogger sets the logger used for field-level diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an Extractor for documents of the given exporter profile.
func New(profile types.Profile, opts ...Option) *Extractor {
	e := &Extractor{
		open:    pdftext.Open,
		headers: headerRules(profile.DateAnchor),
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract opens the document at path and extracts its record. Any failure
// to read the document is returned as *Error; missing individual fields are
// logged and left empty.
func (e *Extractor) Extract(ctx context.Context, path string) (*types.ExtractedRecord, error) {
	e.log.Debug("opening document", zap.String("path", path))
	doc, err := e.open(path)
	if err != nil {
		return nil, errors.WithStack(&Error{Path: path, Err: err})
	}
	return e.ExtractDocument(ctx, doc)
}

// ExtractDocument extracts the record from an already opened document.
func (e *Extractor) ExtractDocument(ctx context.Context, doc *pdftext.Document) (*types.ExtractedRecord, error) {
	if doc.NumPages() == 0 {
		return nil, errors.WithStack(&Error{Path: doc.Path, Err: ErrNoPages})
	}
	log := e.log.With(zap.String("path", doc.Path))
	log.Debug("document opened", zap.Int("pages", doc.NumPages()))

	first := doc.Pages[0]
	fullText := first.Text()
	if strings.TrimSpace(fullText) == "" {
		return nil, errors.WithStack(&Error{Path: doc.Path, Err: ErrNoText})
	}

	// The right half of page 1 carries reference data that would otherwise
	// be read as address lines.
	leftText := first.LeftHalf().Text()
	if strings.TrimSpace(leftText) == "" {
		log.Warn("left-half crop returned no text, falling back to full page")
		leftText = fullText
	}

	rec := &types.ExtractedRecord{
		SourcePath: doc.Path,
		Pages:      doc.NumPages(),
	}
	e.parseHeader(rec, fullText, log)

	rec.Consignee = ParseConsignee(leftText)
	if rec.Consignee.IsEmpty() {
		log.Warn("consignee block not found")
	} else {
		log.Debug("consignee extracted", zap.String("name", rec.Consignee.Name))
	}

	seen := make(map[int]bool)
	for _, page := range doc.Pages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		plog := log.With(zap.Int("page", page.Number))
		text := page.Text()
		if strings.TrimSpace(text) == "" {
			plog.Debug("no text on page")
			continue
		}

		box, ok := ParseBox(text)
		if !ok {
			plog.Debug("no package identifier, treating as continuation page")
			continue
		}
		box.Page = page.Number

		if seen[box.Number] {
			plog.Debug("duplicate box skipped", zap.String("box", box.Name))
			continue
		}
		seen[box.Number] = true

		if box.Dimensions == "" {
			plog.Debug("no dimensions found", zap.String("box", box.Name))
		}
		if box.GrossWeightKG == 0 {
			plog.Debug("no gross weight found", zap.String("box", box.Name))
		}

		rec.Boxes = append(rec.Boxes, box)
		rec.TotalGrossWeight += box.GrossWeightKG
		plog.Debug("box added", zap.String("box", box.Name), zap.Int("gross_kg", box.GrossWeightKG))
	}

	log.Info("extraction complete",
		zap.Int("boxes", rec.NumBoxes()),
		zap.Int("total_gross_kg", rec.TotalGrossWeight))
	return rec, nil
}
