// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/cmr-converter/pkg/types"
)

// headerRule extracts one header field from the full text of page 1. The
// first capture group is the value.
type headerRule struct {
	field string
	re    *regexp.Regexp
	set   func(rec *types.ExtractedRecord, v string)
}

// headerRules returns the header rules in evaluation order. dateAnchor is
// the city printed before the document date.
func headerRules(dateAnchor string) []headerRule {
	if dateAnchor == "" {
		dateAnchor = types.DefaultProfile().DateAnchor
	}
	return []headerRule{
		{
			// "Packing List 15880" or "Packing List 15880-1"
			field: "packing_list_number",
			re:    regexp.MustCompile(`Packing List\s+(\d+)(?:-\d+)?`),
			set:   func(r *types.ExtractedRecord, v string) { r.PackingListNumber = v },
		},
		{
			// "Barendrecht, 22-07-2025"
			field: "date",
			re:    regexp.MustCompile(regexp.QuoteMeta(dateAnchor) + `,\s*(\d{2}-\d{2}-\d{4})`),
			set:   func(r *types.ExtractedRecord, v string) { r.Date = v },
		},
		{
			field: "your_ref",
			re:    regexp.MustCompile(`Your ref\.:\s*([^\n]+)`),
			set:   func(r *types.ExtractedRecord, v string) { r.YourRef = v },
		},
		{
			field: "our_ref",
			re:    regexp.MustCompile(`Our ref\.:\s*(\d{4,5})`),
			set:   func(r *types.ExtractedRecord, v string) { r.OurRef = v },
		},
		{
			field: "delivery_terms",
			re:    regexp.MustCompile(`Delivery\s+([^\n]+)`),
			set:   func(r *types.ExtractedRecord, v string) { r.DeliveryTerms = v },
		},
	}
}

// parseHeader applies every header rule to text. A rule that does not match
// leaves its field empty.
func (e *Extractor) parseHeader(rec *types.ExtractedRecord, text string, log *zap.Logger) {
	for _, h := range e.headers {
		m := h.re.FindStringSubmatch(text)
		if m == nil {
			log.Warn("header field not found", zap.String("field", h.field))
			continue
		}
		h.set(rec, strings.TrimSpace(m[1]))
	}
}
