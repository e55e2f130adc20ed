package types

import "time"

// Profile describes one exporter: the static sender block, the landmarks its
// packing lists use, and where values land on its CMR form.
type Profile struct {
	// Name identifies the profile in logs (e.g. "cts-nl").
	Name string `json:"name" yaml:"name"`

	// Sender is the static sender address, one entry per line.
	Sender []string `json:"sender" yaml:"sender"`

	// DateAnchor is the city printed before the document date
	// ("Barendrecht, 22-07-2025").
	DateAnchor string `json:"date_anchor" yaml:"date_anchor"`

	// ProjectPrefix is prepended to our ref in the project number cell.
	ProjectPrefix string `json:"project_prefix" yaml:"project_prefix"`

	// Incoterms are tried in order against the delivery terms; the first one
	// contained in the text is written instead of the full terms.
	Incoterms []string `json:"incoterms" yaml:"incoterms"`

	// CountryCodes maps country names to ISO 3166 alpha-2 codes. Order
	// matters for substring matching.
	CountryCodes []CountryCode `json:"country_codes" yaml:"country_codes"`

	Layout Layout `json:"layout" yaml:"layout"`
}

// CountryCode is one entry of the country lookup table.
type CountryCode struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"`
}

// DefaultProfile returns the CTS Netherlands profile.
func DefaultProfile() Profile {
	return Profile{
		Name:          "cts-nl",
		Sender:        []string{"CTS Netherlands B.V.", "Riga 10", "2993 LW BARENDRECHT, NL"},
		DateAnchor:    "Barendrecht",
		ProjectPrefix: "CTS-",
		Incoterms:     []string{"EXW", "CIF", "FOB", "FCA"},
		CountryCodes: []CountryCode{
			{"NETHERLANDS", "NL"},
			{"THE NETHERLANDS", "NL"},
			{"GERMANY", "DE"},
			{"BELGIUM", "BE"},
			{"FRANCE", "FR"},
			{"UNITED KINGDOM", "GB"},
			{"UK", "GB"},
			{"SAUDI ARABIA", "SA"},
			{"KINGDOM OF SAUDI ARABIA", "SA"},
			{"UNITED ARAB EMIRATES", "AE"},
			{"UAE", "AE"},
			{"OMAN", "OM"},
			{"SULTANATE OF OMAN", "OM"},
			{"QATAR", "QA"},
			{"KUWAIT", "KW"},
			{"BAHRAIN", "BH"},
			{"IRAQ", "IQ"},
			{"TURKEY", "TR"},
			{"EGYPT", "EG"},
			{"ITALY", "IT"},
			{"SPAIN", "ES"},
		},
		Layout: DefaultLayout(),
	}
}

// ConverterConfig holds settings shared by the convert, batch, and watch
// commands.
type ConverterConfig struct {
	// Template is the CMR workbook to fill. A missing or unreadable template
	// is replaced by a synthesized blank form.
	Template string `json:"template" yaml:"template"`

	// OutputDir receives the generated workbooks.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// ProfilePath is an optional YAML profile overriding DefaultProfile.
	ProfilePath string `json:"profile" yaml:"profile"`

	// JournalPath is the SQLite journal file. Empty disables journaling.
	JournalPath string `json:"journal" yaml:"journal"`

	// Patterns are the glob patterns used to discover input documents.
	Patterns []string `json:"patterns" yaml:"patterns"`

	// SkipConverted skips documents the journal already converted.
	SkipConverted bool `json:"skip_converted" yaml:"skip_converted"`

	// SkipFailed skips documents whose last attempt failed and which have
	// not changed since. Watch sets it so a broken file is not retried on
	// every tick.
	SkipFailed bool `json:"skip_failed" yaml:"skip_failed"`
}

// WatchConfig holds settings for the watch command.
type WatchConfig struct {
	ConverterConfig `yaml:",inline"`

	// Schedule is a cron expression or descriptor such as "@every 1m".
	Schedule string `json:"schedule" yaml:"schedule"`
}

// Defaults used when neither flags nor the config file provide a value.
const (
	DefaultTemplate  = "CTS_NL_CMR_Template.xlsx"
	DefaultOutputDir = "./cmr_output"
	DefaultSchedule  = "@every 1m"
)

// DefaultPatterns are the input discovery globs.
var DefaultPatterns = []string{"*.pdf", "Packing_List_*.pdf"}

// TimestampLayout formats the timestamp part of output file names.
const TimestampLayout = "20060102_150405"

// ConversionStatus is the outcome of one document in a run.
type ConversionStatus string

const (
	ConversionDone    ConversionStatus = "converted"
	ConversionSkipped ConversionStatus = "skipped"
	ConversionFailed  ConversionStatus = "failed"
)

// JournalEntry records one processed document.
type JournalEntry struct {
	ID            string           `json:"id" yaml:"id"`
	SourcePath    string           `json:"source_path" yaml:"source_path"`
	SourceModTime time.Time        `json:"source_mod_time" yaml:"source_mod_time"`
	Status        ConversionStatus `json:"status" yaml:"status"`
	OutputPath    string           `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Reference     string           `json:"reference,omitempty" yaml:"reference,omitempty"`
	Boxes         int              `json:"boxes" yaml:"boxes"`
	TotalWeight   int              `json:"total_weight" yaml:"total_weight"`
	Error         string           `json:"error,omitempty" yaml:"error,omitempty"`
	ConvertedAt   time.Time        `json:"converted_at" yaml:"converted_at"`
}
