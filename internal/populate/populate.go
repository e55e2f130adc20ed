// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package populate writes an ExtractedRecord into a CMR workbook. Where each
// value lands is decided entirely by a types.Layout; this package only knows
// what to write.
package populate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/cmr-converter/pkg/types"
)

// Error is a failure to write or save the output workbook. Template
// problems never produce an Error; they fall back to a blank form.
type Error struct {
	Output string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("populating %s: %v", e.Output, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Populator fills CMR workbooks for one exporter profile.
type Populator struct {
	profile types.Profile
	layout  types.Layout
	log     *zap.Logger
}

// Option configures a Populator.
type Option func(*Populator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Populator) {
		if l != nil {
			p.log = l
		}
	}
}

// New creates a Populator using the profile's sender block, lookup tables,
// and layout.
func New(profile types.Profile, opts ...Option) *Populator {
	p := &Populator{
		profile: profile,
		layout:  profile.Layout,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Populate writes rec into a copy of the template at templatePath and saves
// it to outputPath. A missing or unreadable template is replaced by a
// synthesized blank CMR form.
func (p *Populator) Populate(rec *types.ExtractedRecord, templatePath, outputPath string) error {
	log := p.log.With(zap.String("output", outputPath))

	f, sheet, err := p.openTemplate(templatePath)
	if err != nil {
		return errors.WithStack(&Error{Output: outputPath, Err: err})
	}
	defer f.Close()

	w := &sheetWriter{f: f, sheet: sheet}
	p.writeStatic(w)
	p.writeHeader(w, rec, log)
	p.writeSender(w)
	p.writeConsignee(w, rec.Consignee, log)
	p.writeBoxes(w, rec.Boxes)
	if w.err != nil {
		return errors.WithStack(&Error{Output: outputPath, Err: w.err})
	}

	p.applyMerges(f, sheet, log)

	// Widths go last so nothing written above can override them.
	if err := applyColumnWidths(f, sheet, p.layout.ColumnWidths); err != nil {
		return errors.WithStack(&Error{Output: outputPath, Err: err})
	}

	if err := f.SaveAs(outputPath); err != nil {
		return errors.WithStack(&Error{Output: outputPath, Err: fmt.Errorf("saving workbook: %w", err)})
	}
	log.Info("CMR saved", zap.Int("boxes", len(rec.Boxes)))
	return nil
}

// sheetWriter keeps the first write error so callers can issue a run of
// writes and check once.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) value(cell string, v any) {
	if w.err != nil || cell == "" {
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
		w.err = fmt.Errorf("writing %s: %w", cell, err)
	}
}

func (w *sheetWriter) link(l types.LinkedCell) {
	if w.err != nil || l.Cell == "" {
		return
	}
	if err := w.f.SetCellFormula(w.sheet, l.Cell, l.Formula()); err != nil {
		w.err = fmt.Errorf("writing link %s -> %s: %w", l.Cell, l.Source, err)
	}
}

func (p *Populator) writeStatic(w *sheetWriter) {
	for _, s := range p.layout.Static {
		w.value(s.Cell, s.Value)
	}
}

func (p *Populator) writeHeader(w *sheetWriter, rec *types.ExtractedRecord, log *zap.Logger) {
	dest := Destination(rec.Consignee, p.profile.CountryCodes)
	if p.layout.DestinationCell != "" && dest != "" {
		w.value(p.layout.DestinationCell, dest)
	} else {
		log.Debug("destination computed but not written", zap.String("destination", dest))
	}

	for _, l := range p.layout.Links {
		w.link(l)
	}

	if rec.DeliveryTerms != "" {
		w.value(p.layout.DeliveryTermsCell, DeliveryTerm(rec.DeliveryTerms, p.profile.Incoterms))
	}
	if rec.OurRef != "" {
		w.value(p.layout.ProjectCell, p.profile.ProjectPrefix+rec.OurRef)
	}
	if rec.YourRef != "" {
		w.value(p.layout.CustomerRefCell, rec.YourRef)
	}
	if rec.PackingListNumber != "" {
		w.value(p.layout.PackingListCell, rec.PackingListNumber)
	}
}

func (p *Populator) writeSender(w *sheetWriter) {
	for i, line := range p.profile.Sender {
		if i >= len(p.layout.SenderCells) {
			break
		}
		w.value(p.layout.SenderCells[i], line)
	}
}

// consigneeUpper marks the positions written in upper case: address line 2
// and city usually hold the city name.
var consigneeUpper = []bool{false, false, true, true, false}

func (p *Populator) writeConsignee(w *sheetWriter, c types.Consignee, log *zap.Logger) {
	if c.IsEmpty() {
		log.Warn("consignee is empty, nothing written")
		return
	}

	block := p.layout.Consignee
	row, written := block.FirstRow, 0
	for i, v := range c.Lines() {
		if written >= block.MaxRows {
			break
		}
		if v == "" {
			continue
		}
		if consigneeUpper[i] {
			v = strings.ToUpper(v)
		}
		w.value(block.Column+strconv.Itoa(row), v)
		row++
		written++
	}

	for _, l := range p.layout.ConsigneeLinks {
		w.link(l)
	}
}

func (p *Populator) writeBoxes(w *sheetWriter, boxes []types.Box) {
	t := p.layout.Boxes
	for i, b := range boxes {
		row := strconv.Itoa(t.FirstRow + i)
		if b.Name != "" {
			w.value(t.NameColumn+row, b.Name)
		}
		if b.Dimensions != "" {
			w.value(t.DimensionsColumn+row, b.Dimensions)
		}
		if b.GrossWeightKG != 0 {
			w.value(t.WeightColumn+row, b.GrossWeightKG)
		}
	}
}

func (p *Populator) applyMerges(f *excelize.File, sheet string, log *zap.Logger) {
	for _, rng := range p.layout.Merges {
		from, to, ok := strings.Cut(rng, ":")
		if !ok {
			log.Warn("invalid merge range", zap.String("range", rng))
			continue
		}
		if err := f.MergeCell(sheet, from, to); err != nil {
			log.Warn("could not merge cells", zap.String("range", rng), zap.Error(err))
		}
	}
}

// DeliveryTerm reduces free-text delivery terms to the first incoterm they
// contain, or to their first word.
func DeliveryTerm(terms string, incoterms []string) string {
	for _, code := range incoterms {
		if strings.Contains(terms, code) {
			return code
		}
	}
	fields := strings.Fields(terms)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
