package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// Output formats accepted by the report writers.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// FileReport is the validation outcome for one file.
type FileReport struct {
	Path   string         `json:"path" yaml:"path"`
	Setup  string         `json:"setup,omitempty" yaml:"setup,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
	Issues []pypeit.Issue `json:"issues" yaml:"issues"`
}

// OK reports whether the file parsed and has no validation errors.
// With strict, warnings count as errors too.
func (r FileReport) OK(strict bool) bool {
	if r.Error != "" {
		return false
	}
	for _, is := range r.Issues {
		if is.Severity == pypeit.SeverityError || strict {
			return false
		}
	}
	return true
}

// WriteFrames renders frames in the requested format.
func WriteFrames(w io.Writer, format string, frames []pypeit.Frame) error {
	switch format {
	case FormatText:
		return writeFramesText(w, frames)
	case FormatJSON:
		return writeJSON(w, frames)
	case FormatCSV:
		return writeFramesCSV(w, frames)
	case FormatYAML:
		records := make([]FrameRecord, 0, len(frames))
		for _, fr := range frames {
			records = append(records, NewFrameRecord("", fr))
		}
		return writeYAMLValue(w, records)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteValidation renders validation results in the requested format.
func WriteValidation(w io.Writer, format string, reports []FileReport) error {
	switch format {
	case FormatText:
		return writeValidationText(w, reports)
	case FormatJSON:
		return writeJSON(w, reports)
	case FormatYAML:
		return writeYAMLValue(w, reports)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// SetupSummary tallies the validation outcome of the files of one
// instrument setup directory.
type SetupSummary struct {
	Setup  string `json:"setup" yaml:"setup"`
	Passed int    `json:"passed" yaml:"passed"`
	Failed int    `json:"failed" yaml:"failed"`
}

// OK reports whether every file of the setup passed.
func (s SetupSummary) OK() bool {
	return s.Failed == 0
}

// SummarizeSetups groups reports by Setup, in order of first appearance.
// Reports without a setup are left out.
func SummarizeSetups(reports []FileReport, strict bool) []SetupSummary {
	var out []SetupSummary
	index := make(map[string]int)
	for _, r := range reports {
		if r.Setup == "" {
			continue
		}
		i, ok := index[r.Setup]
		if !ok {
			i = len(out)
			index[r.Setup] = i
			out = append(out, SetupSummary{Setup: r.Setup})
		}
		if r.OK(strict) {
			out[i].Passed++
		} else {
			out[i].Failed++
		}
	}
	return out
}

// WriteSetupSummary prints one PASSED/FAILED line per setup followed by a
// total line.
func WriteSetupSummary(w io.Writer, summaries []SetupSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Setup summary")
	fmt.Fprintln(w, strings.Repeat("-", 60))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	passed := 0
	for _, s := range summaries {
		status := "FAILED"
		if s.OK() {
			status = "PASSED"
			passed++
		}
		fmt.Fprintf(tw, "%s\t%s\t%d passed/%d failed\n", status, s.Setup, s.Passed, s.Failed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	result := "PASSED"
	if passed != len(summaries) {
		result = "FAILED"
	}
	fmt.Fprintf(w, "--- %s %d/%d SETUPS ---\n", result, passed, len(summaries))
	return nil
}

func writeFramesText(w io.Writer, frames []pypeit.Frame) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tFRAMETYPE\tTARGET\tEXPTIME\tCALIB\tCOMB\tBKG")
	for _, fr := range frames {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			fr.Filename,
			joinTypes(fr.FrameTypes),
			fr.Target,
			formatNumber(fr.Exptime),
			fr.Calib,
			fr.CombID,
			fr.BkgID)
	}
	return tw.Flush()
}

func writeFramesCSV(w io.Writer, frames []pypeit.Frame) error {
	writer := csv.NewWriter(w)

	// instrument columns not projected onto Frame, in name order
	extraSet := make(map[string]bool)
	for _, fr := range frames {
		for k := range fr.Extra {
			extraSet[k] = true
		}
	}
	extra := slices.Sorted(maps.Keys(extraSet))

	header := []string{"filename", "frametype", "ra", "dec", "target", "setup", "mjd", "airmass", "exptime", "dithoff", "frameno", "calib", "comb_id", "bkg_id"}
	if err := writer.Write(append(header, extra...)); err != nil {
		return err
	}

	for _, fr := range frames {
		row := []string{
			fr.Filename,
			joinTypes(fr.FrameTypes),
			formatNumber(fr.RA),
			formatNumber(fr.Dec),
			fr.Target,
			fr.Setup,
			formatNumber(fr.MJD),
			formatNumber(fr.Airmass),
			formatNumber(fr.Exptime),
			formatNumber(fr.Dithoff),
			fr.Frameno,
			fr.Calib,
			fmt.Sprint(fr.CombID),
			fmt.Sprint(fr.BkgID),
		}
		for _, k := range extra {
			row = append(row, fr.Extra[k])
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeValidationText(w io.Writer, reports []FileReport) error {
	for _, r := range reports {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "❌ %s\n   %s\n", r.Path, r.Error)
			continue
		case len(r.Issues) == 0:
			fmt.Fprintf(w, "✅ %s\n", r.Path)
			continue
		case r.OK(false):
			fmt.Fprintf(w, "⚠️  %s\n", r.Path)
		default:
			fmt.Fprintf(w, "❌ %s\n", r.Path)
		}
		for _, is := range r.Issues {
			fmt.Fprintf(w, "   %s\n", is)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAMLValue(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func joinTypes(types []pypeit.FrameType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}
