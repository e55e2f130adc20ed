// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data shared across the converter: the record
// extracted from a packing list, the exporter profile, the worksheet layout,
// runtime configuration, and journal entries.
package types

// ExtractedRecord holds everything read from one packing-list document.
// It is built once per document, handed to the populator, then discarded.
type ExtractedRecord struct {
	// SourcePath is the document the record was read from.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Pages is the number of pages in the source document.
	Pages int `json:"pages" yaml:"pages"`

	// PackingListNumber is the numeric part of "Packing List 15880-1" (here "15880").
	PackingListNumber string `json:"packing_list_number,omitempty" yaml:"packing_list_number,omitempty"`

	// Date is the document date in DD-MM-YYYY form.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`

	// YourRef is the customer-side reference.
	YourRef string `json:"your_ref,omitempty" yaml:"your_ref,omitempty"`

	// OurRef is the shipper-side reference (4 or 5 digits).
	OurRef string `json:"our_ref,omitempty" yaml:"our_ref,omitempty"`

	// DeliveryTerms is the free text following "Delivery".
	DeliveryTerms string `json:"delivery_terms,omitempty" yaml:"delivery_terms,omitempty"`

	Consignee Consignee `json:"consignee" yaml:"consignee"`

	// Boxes lists the retained boxes in first-seen page order.
	Boxes []Box `json:"boxes" yaml:"boxes"`

	// TotalGrossWeight is the sum of GrossWeightKG over Boxes.
	TotalGrossWeight int `json:"total_gross_weight" yaml:"total_gross_weight"`
}

// NumBoxes returns the number of retained boxes.
func (r *ExtractedRecord) NumBoxes() int {
	return len(r.Boxes)
}

// Reference returns the identifier used to name output files: our ref,
// then packing list number, then empty.
func (r *ExtractedRecord) Reference() string {
	if r.OurRef != "" {
		return r.OurRef
	}
	return r.PackingListNumber
}

// Consignee is the receiving party's address block, filled positionally from
// at most five lines.
type Consignee struct {
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty" yaml:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty" yaml:"address_line2,omitempty"`
	City         string `json:"city,omitempty" yaml:"city,omitempty"`
	Country      string `json:"country,omitempty" yaml:"country,omitempty"`
}

// ConsigneeLines is the maximum number of address lines captured after the
// consignee header.
const ConsigneeLines = 5

// IsEmpty reports whether no consignee field was captured.
func (c Consignee) IsEmpty() bool {
	return c == Consignee{}
}

// Lines returns the fields in their fixed positional order. Empty fields are
// included so callers can tell positions apart.
func (c Consignee) Lines() []string {
	return []string{c.Name, c.AddressLine1, c.AddressLine2, c.City, c.Country}
}

// Box is one packaging unit (pallet, case, crate, ...) from the goods table.
// Number is the de-duplication key within a document.
type Box struct {
	// Type is the package label as printed, e.g. "Pallet" or "Wooden box".
	Type string `json:"type" yaml:"type"`

	Number int `json:"number" yaml:"number"`

	// Name is the display name, e.g. "Wooden Box 3".
	Name string `json:"name" yaml:"name"`

	// Dimensions is "L x W x H" in cm, empty when not found.
	Dimensions string `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`

	// GrossWeightKG is zero when no weight was found.
	GrossWeightKG int `json:"gross_weight_kg,omitempty" yaml:"gross_weight_kg,omitempty"`

	// Page is the 1-based page the box was first seen on.
	Page int `json:"page" yaml:"page"`
}
