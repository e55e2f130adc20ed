// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cmr-converter/internal/convert"
	"github.com/pdiddy/cmr-converter/internal/extract"
	"github.com/pdiddy/cmr-converter/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <packing-list.pdf>",
	Short: "Convert one packing-list PDF into a CMR workbook",
	Long: `Convert extracts the packing list number, date, references, delivery
terms, consignee, and boxes from a packing-list PDF and writes them into a
copy of the CMR template. The output is named CMR_<ref>_<timestamp>.xlsx and
written to the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Bool("dump", false, "also write the extracted record as YAML next to the workbook")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	a, err := newApp(converterConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.pipeline.ConvertFile(cmd.Context(), args[0])
	if err != nil {
		reportFailure(cmd.ErrOrStderr(), args[0], err)
		return reportedError{err}
	}

	printRecord(cmd.OutOrStdout(), res)

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		path := strings.TrimSuffix(res.Output, ".xlsx") + ".yaml"
		if err := dumpRecord(path, res.Record); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Record written to: %s\n", path)
	}
	return nil
}

// printRecord writes the human-readable extraction summary.
func printRecord(w io.Writer, res *convert.Result) {
	rec := res.Record
	fmt.Fprintf(w, "Packing list:   %s\n", orDash(rec.PackingListNumber))
	fmt.Fprintf(w, "Date:           %s\n", orDash(rec.Date))
	fmt.Fprintf(w, "Your ref:       %s\n", orDash(rec.YourRef))
	fmt.Fprintf(w, "Our ref:        %s\n", orDash(rec.OurRef))
	fmt.Fprintf(w, "Delivery terms: %s\n", orDash(rec.DeliveryTerms))
	fmt.Fprintf(w, "Consignee:      %s\n", orDash(rec.Consignee.Name))
	fmt.Fprintf(w, "Boxes:          %d\n", rec.NumBoxes())

	if rec.NumBoxes() > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, b := range rec.Boxes {
			weight := "-"
			if b.GrossWeightKG != 0 {
				weight = fmt.Sprintf("%d KG", b.GrossWeightKG)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\tpage %d\n", b.Name, orDash(b.Dimensions), weight, b.Page)
		}
		tw.Flush()
	}

	fmt.Fprintf(w, "Total weight:   %d KG\n", rec.TotalGrossWeight)
	fmt.Fprintf(w, "CMR written to: %s\n", res.Output)
}

// reportFailure prints the error, what usually causes it, and the stack
// captured where it was raised.
func reportFailure(w io.Writer, path string, err error) {
	fmt.Fprintf(w, "Error converting %s: %v\n", path, err)

	var xerr *extract.Error
	if errors.As(err, &xerr) {
		fmt.Fprintln(w, "Likely causes:")
		for _, c := range xerr.LikelyCauses() {
			fmt.Fprintf(w, "  - %s\n", c)
		}
	}
	fmt.Fprintf(w, "\n%+v\n", err)
}

func dumpRecord(path string, rec *types.ExtractedRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
