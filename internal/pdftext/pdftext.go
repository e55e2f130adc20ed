// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext rebuilds plain text lines from the positioned text
// fragments of a PDF page, and can restrict that text to a horizontal band
// of the page.
package pdftext

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// lineTolerance is the maximum baseline difference, in points, for two
	// fragments to share a line.
	lineTolerance = 2.0

	// spaceFactor scales the font size into the minimum gap that counts as
	// a word break.
	spaceFactor = 0.2

	// a4Width and a4Height are used when a page carries no usable MediaBox.
	a4Width  = 595.0
	a4Height = 842.0
)

// Fragment is one run of text placed on a page. X and Y are the origin in
// PDF user space (Y grows upward); W is the advance width.
type Fragment struct {
	S        string
	X        float64
	Y        float64
	W        float64
	FontSize float64
}

// Page holds the fragments of one page together with its size.
type Page struct {
	// Number is 1-based.
	Number    int
	Width     float64
	Height    float64
	Fragments []Fragment
}

// Document is an opened, fully read PDF.
type Document struct {
	Path  string
	Pages []Page
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return len(d.Pages)
}

// Open reads every page of the PDF at path. The underlying parser panics on
// some malformed inputs; those panics are returned as errors.
func Open(path string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("parsing %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc = &Document{Path: path}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		page := Page{Number: i, Width: a4Width, Height: a4Height}
		if p.V.IsNull() {
			doc.Pages = append(doc.Pages, page)
			continue
		}
		if w, h, ok := mediaBox(p.V); ok {
			page.Width, page.Height = w, h
		}
		page.Fragments = fragments(p.Content().Text)
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

// fragments converts parser glyphs to fragments. The parser emits a "\n"
// glyph after every TJ array; it marks no real line break and would split
// a row drawn as several runs, so it is dropped. Real spaces are kept.
func fragments(texts []pdf.Text) []Fragment {
	var out []Fragment
	for _, t := range texts {
		if t.S == "\n" {
			continue
		}
		out = append(out, Fragment{
			S:        t.S,
			X:        t.X,
			Y:        t.Y,
			W:        t.W,
			FontSize: t.FontSize,
		})
	}
	return out
}

// mediaBox returns the page size, following the Parent chain because
// MediaBox is an inheritable attribute.
func mediaBox(v pdf.Value) (width, height float64, ok bool) {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			width = box.Index(2).Float64() - box.Index(0).Float64()
			height = box.Index(3).Float64() - box.Index(1).Float64()
			if width > 0 && height > 0 {
				return width, height, true
			}
		}
		v = v.Key("Parent")
	}
	return 0, 0, false
}

// Crop returns a copy of the page keeping only fragments whose origin lies
// in [x0, x1).
func (p Page) Crop(x0, x1 float64) Page {
	out := Page{Number: p.Number, Width: p.Width, Height: p.Height}
	for _, f := range p.Fragments {
		if f.X >= x0 && f.X < x1 {
			out.Fragments = append(out.Fragments, f)
		}
	}
	return out
}

// LeftHalf keeps the fragments on the left half of the page.
func (p Page) LeftHalf() Page {
	return p.Crop(0, p.Width*0.5)
}

// Text returns the page text, one line per visual row, top to bottom.
func (p Page) Text() string {
	return strings.Join(Lines(p.Fragments), "\n")
}

// row is a set of fragments sharing a baseline.
type row struct {
	y     float64
	frags []Fragment
}

// Lines groups fragments into visual rows and renders each row as a string.
// Rows are ordered top to bottom, fragments left to right. Blank rows are
// dropped.
func Lines(frags []Fragment) []string {
	if len(frags) == 0 {
		return nil
	}

	sorted := make([]Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var rows []row
	for _, f := range sorted {
		if n := len(rows); n > 0 && math.Abs(rows[n-1].y-f.Y) < lineTolerance {
			rows[n-1].frags = append(rows[n-1].frags, f)
			continue
		}
		rows = append(rows, row{y: f.Y, frags: []Fragment{f}})
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		line := strings.TrimSpace(joinRow(r.frags))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// joinRow concatenates the fragments of one row, inserting a space where the
// horizontal gap is wide enough to be a word break.
func joinRow(frags []Fragment) string {
	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].X < frags[j].X
	})

	var b strings.Builder
	for i, f := range frags {
		if i > 0 && needsSpace(frags[i-1], f) {
			b.WriteByte(' ')
		}
		b.WriteString(f.S)
	}
	return b.String()
}

func needsSpace(prev, next Fragment) bool {
	if strings.HasSuffix(prev.S, " ") || strings.HasPrefix(next.S, " ") {
		return false
	}
	width := prev.W
	if width <= 0 {
		width = estimateWidth(prev)
	}
	gap := next.X - (prev.X + width)
	size := prev.FontSize
	if size <= 0 {
		size = 10
	}
	return gap > size*spaceFactor
}

// estimateWidth guesses an advance width from the glyph count when the
// parser did not report one.
func estimateWidth(f Fragment) float64 {
	size := f.FontSize
	if size <= 0 {
		size = 10
	}
	return float64(len([]rune(f.S))) * size * 0.5
}

// NewTextPage lays out lines as single fragments at the left margin of an
// A4 page, top to bottom. It is meant for text that is already line-broken.
func NewTextPage(number int, lines ...string) Page {
	p := Page{Number: number, Width: a4Width, Height: a4Height}
	y := a4Height - 40
	for _, l := range lines {
		p.Fragments = append(p.Fragments, Fragment{
			S:        l,
			X:        36,
			Y:        y,
			W:        estimateWidth(Fragment{S: l, FontSize: 10}),
			FontSize: 10,
		})
		y -= 12
	}
	return p
}
