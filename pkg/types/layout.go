// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Layout maps semantic fields of an ExtractedRecord to worksheet cells.
// Cells use A1 notation; columns are letters.
type Layout struct {
	// SheetName names the worksheet created when no template is usable.
	SheetName string `json:"sheet_name" yaml:"sheet_name"`

	// SenderCells receive Profile.Sender line by line.
	SenderCells []string `json:"sender_cells" yaml:"sender_cells"`

	// Static holds fixed labels written on every document.
	Static []StaticCell `json:"static" yaml:"static"`

	// Links are cells whose content is a reference to another cell.
	Links []LinkedCell `json:"links" yaml:"links"`

	// ConsigneeLinks are written only when a consignee was captured.
	ConsigneeLinks []LinkedCell `json:"consignee_links" yaml:"consignee_links"`

	DeliveryTermsCell string `json:"delivery_terms_cell" yaml:"delivery_terms_cell"`
	ProjectCell       string `json:"project_cell" yaml:"project_cell"`
	CustomerRefCell   string `json:"customer_ref_cell" yaml:"customer_ref_cell"`
	PackingListCell   string `json:"packing_list_cell" yaml:"packing_list_cell"`

	// DestinationCell receives the derived "CITY, CC" value. Empty disables
	// the write; the value is still computed and logged.
	DestinationCell string `json:"destination_cell,omitempty" yaml:"destination_cell,omitempty"`

	Consignee ConsigneeBlock `json:"consignee" yaml:"consignee"`
	Boxes     BoxTable       `json:"boxes" yaml:"boxes"`

	// Merges are ranges like "B6:C6", applied once after all values are written.
	Merges []string `json:"merges" yaml:"merges"`

	// ColumnWidths are applied as the very last step before saving.
	ColumnWidths []ColumnWidth `json:"column_widths" yaml:"column_widths"`

	// TemplateColumnWidths are used when a blank template is synthesized.
	TemplateColumnWidths []ColumnWidth `json:"template_column_widths" yaml:"template_column_widths"`

	RowHeights []RowBand `json:"row_heights" yaml:"row_heights"`

	// Fresh applies to synthesized templates, Loaded to templates read from disk.
	Fresh  PageSetup `json:"fresh" yaml:"fresh"`
	Loaded PageSetup `json:"loaded" yaml:"loaded"`
}

// StaticCell is a literal value at a fixed cell.
type StaticCell struct {
	Cell  string `json:"cell" yaml:"cell"`
	Value string `json:"value" yaml:"value"`
}

// LinkedCell is a derived field: Cell shows whatever Source holds, recomputed
// by the spreadsheet application on open.
type LinkedCell struct {
	Cell   string `json:"cell" yaml:"cell"`
	Source string `json:"source" yaml:"source"`
}

// Formula returns the cell formula for the link.
func (l LinkedCell) Formula() string {
	return l.Source
}

// ConsigneeBlock places the consignee address lines in one column.
type ConsigneeBlock struct {
	Column   string `json:"column" yaml:"column"`
	FirstRow int    `json:"first_row" yaml:"first_row"`
	MaxRows  int    `json:"max_rows" yaml:"max_rows"`
}

// BoxTable places one box per row starting at FirstRow.
type BoxTable struct {
	FirstRow         int    `json:"first_row" yaml:"first_row"`
	NameColumn       string `json:"name_column" yaml:"name_column"`
	DimensionsColumn string `json:"dimensions_column" yaml:"dimensions_column"`
	WeightColumn     string `json:"weight_column" yaml:"weight_column"`
}

// ColumnWidth sets one column's width in character units.
type ColumnWidth struct {
	Column string  `json:"column" yaml:"column"`
	Width  float64 `json:"width" yaml:"width"`
}

// RowBand sets the height in points of rows First..Last inclusive.
type RowBand struct {
	First  int     `json:"first" yaml:"first"`
	Last   int     `json:"last" yaml:"last"`
	Height float64 `json:"height" yaml:"height"`
}

// PageSetup holds print settings for the CMR sheet.
type PageSetup struct {
	// PaperSize uses the OOXML paper codes; 9 is A4.
	PaperSize   int     `json:"paper_size" yaml:"paper_size"`
	Orientation string  `json:"orientation" yaml:"orientation"`
	FitToPage   bool    `json:"fit_to_page" yaml:"fit_to_page"`
	FitToWidth  int     `json:"fit_to_width" yaml:"fit_to_width"`
	FitToHeight int     `json:"fit_to_height" yaml:"fit_to_height"`
	Scale       uint    `json:"scale,omitempty" yaml:"scale,omitempty"`
	PrintArea   string  `json:"print_area" yaml:"print_area"`
	Margins     Margins `json:"margins" yaml:"margins"`
}

// Margins are page margins in inches.
type Margins struct {
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Header float64 `json:"header" yaml:"header"`
	Footer float64 `json:"footer" yaml:"footer"`
}

// DefaultLayout returns the layout of the CTS Netherlands CMR form.
func DefaultLayout() Layout {
	return Layout{
		SheetName:   "CMR",
		SenderCells: []string{"B6", "B7", "B8"},
		Static: []StaticCell{
			{Cell: "G33", Value: "Delivery term"},
			{Cell: "G35", Value: "Project No.:"},
			{Cell: "G37", Value: "Customer ref"},
			{Cell: "B40", Value: "Packing list No.:"},
			{Cell: "B45", Value: "Colli"},
			{Cell: "H45", Value: "KG"},
			{Cell: "B46", Value: "Dimensions as per attached packaging overview"},
			{Cell: "B48", Value: "Description"},
			{Cell: "E48", Value: "L x W x H (cm)"},
			{Cell: "H48", Value: "Gross weight (KG)"},
			{Cell: "B70", Value: "Previous to deliver, please contact:"},
			{Cell: "B73", Value: "Tel.:"},
		},
		Links: []LinkedCell{
			{Cell: "B33", Source: "B8"},
			{Cell: "B69", Source: "B8"},
		},
		ConsigneeLinks: []LinkedCell{
			{Cell: "B26", Source: "B19"},
		},
		DeliveryTermsCell: "H33",
		ProjectCell:       "H35",
		CustomerRefCell:   "H37",
		PackingListCell:   "C40",
		Consignee:         ConsigneeBlock{Column: "B", FirstRow: 16, MaxRows: ConsigneeLines},
		Boxes:             BoxTable{FirstRow: 50, NameColumn: "B", DimensionsColumn: "E", WeightColumn: "H"},
		Merges: []string{
			"B6:C6", "B7:C7", "B8:C8",
			"B11:C11",
			"B16:C16", "B17:C17", "B18:C18", "B19:C19", "B20:C20",
			"B26:C26",
			"B33:C33",
			"B45:C45", "B46:C46", "B48:C48",
		},
		ColumnWidths: []ColumnWidth{
			{"A", 18}, {"B", 40}, {"C", 20}, {"D", 12}, {"E", 20},
			{"F", 12}, {"G", 20}, {"H", 25}, {"I", 12},
		},
		TemplateColumnWidths: []ColumnWidth{
			{"A", 18}, {"B", 40}, {"C", 20}, {"D", 12}, {"E", 15},
			{"F", 12}, {"G", 15}, {"H", 20}, {"I", 12},
		},
		RowHeights: []RowBand{
			{1, 3, 12},
			{4, 6, 14},
			{7, 11, 13},
			{12, 16, 14.5},
			{17, 20, 13},
			{21, 21, 14},
			{22, 24, 13},
			{25, 25, 14},
			{26, 32, 14},
			{33, 33, 14},
			{34, 37, 13},
			{38, 42, 14},
			{43, 56, 13.5},
			{57, 65, 14},
			{66, 70, 13},
		},
		Fresh: PageSetup{
			PaperSize:   9,
			Orientation: "portrait",
			FitToPage:   true,
			FitToWidth:  1,
			FitToHeight: 1,
			PrintArea:   "A1:I70",
			Margins:     Margins{Left: 0.2, Right: 0.2, Top: 0.2, Bottom: 0.2},
		},
		Loaded: PageSetup{
			PaperSize:   9,
			Orientation: "portrait",
			FitToPage:   true,
			FitToWidth:  1,
			FitToHeight: 1,
			Scale:       85,
			PrintArea:   "A1:H70",
			Margins:     Margins{Left: 0.15, Right: 0.15, Top: 0.15, Bottom: 0.15},
		},
	}
}
