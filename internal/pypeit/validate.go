package pypeit

import (
	"fmt"
	"slices"
	"strings"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes reported by Validate.
const (
	CodeMissingSpectrograph = "missing-spectrograph"
	CodeMissingData         = "missing-data"
	CodeDuplicateFilename   = "duplicate-filename"
	CodeBadID               = "bad-id"
	CodeDanglingBkg         = "dangling-bkg"
	CodeUnknownSetup        = "unknown-setup"
	CodeUnknownFrametype    = "unknown-frametype"
	CodeBadNumber           = "bad-number"
	CodeSelfBackground      = "self-background"
	CodeUncalibrated        = "uncalibrated-science"
	CodeNoPath              = "no-path"
)

// Issue is a single validation finding. Line is 0 when the issue concerns
// the file as a whole.
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Line     int      `json:"line,omitempty" yaml:"line,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s (%s)", i.Line, i.Severity, i.Message, i.Code)
	}
	return fmt.Sprintf("%s: %s (%s)", i.Severity, i.Message, i.Code)
}

// Report collects the issues found in one file.
type Report struct {
	Issues []Issue `json:"issues" yaml:"issues"`
}

func (r *Report) add(sev Severity, code string, line int, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Code: code, Line: line, Message: fmt.Sprintf(format, args...)})
}

func (r Report) Errors() []Issue {
	return r.filter(SeverityError)
}

func (r Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

// OK reports whether the file has no errors. Warnings do not count.
func (r Report) OK() bool {
	return len(r.Errors()) == 0
}

func (r Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks the semantic consistency of a parsed file. Structural
// problems (unbalanced blocks, column counts) are already rejected by Parse.
func Validate(f *File) Report {
	var r Report

	if f.Spectrograph() == "" {
		r.add(SeverityError, CodeMissingSpectrograph, 0, "[rdx] spectrograph is not set")
	}

	t := f.Table
	if t == nil {
		r.add(SeverityError, CodeMissingData, 0, "no data block")
		return r
	}
	if len(t.Paths) == 0 {
		r.add(SeverityWarning, CodeNoPath, 0, "data block has no path line")
	}
	for _, col := range []string{ColFilename, ColFrametype} {
		if !t.HasColumn(col) {
			r.add(SeverityError, CodeMissingData, 0, "data block has no %q column", col)
		}
	}

	rows := t.Active()
	validateFilenames(&r, t, rows)
	validateCells(&r, f, t, rows)
	validateBackgrounds(&r, t, rows)
	validateCalibGroups(&r, t)

	return r
}

func validateFilenames(r *Report, t *Table, rows []Row) {
	if !t.HasColumn(ColFilename) {
		return
	}
	first := make(map[string]int, len(rows))
	for _, row := range rows {
		name, _ := t.Get(row, ColFilename)
		if name == "" {
			r.add(SeverityError, CodeMissingData, row.Line, "empty filename")
			continue
		}
		if prev, dup := first[name]; dup {
			r.add(SeverityError, CodeDuplicateFilename, row.Line, "filename %q already listed at line %d", name, prev)
			continue
		}
		first[name] = row.Line
	}
}

func validateCells(r *Report, f *File, t *Table, rows []Row) {
	for _, row := range rows {
		if v, ok := t.Get(row, ColFrametype); ok {
			for _, ft := range ParseFrameTypes(v) {
				if !ft.Known() {
					r.add(SeverityWarning, CodeUnknownFrametype, row.Line, "unknown frame type %q", ft)
				}
			}
		}
		for _, col := range []string{ColCombID, ColBkgID} {
			if v, ok := t.Get(row, col); ok {
				if _, err := ParseID(v); err != nil {
					r.add(SeverityError, CodeBadID, row.Line, "%s %q is not an integer", col, v)
				}
			}
		}
		if v, ok := t.Get(row, ColCalib); ok {
			if _, _, err := ParseCalib(v); err != nil {
				r.add(SeverityError, CodeBadID, row.Line, "calib %q is not an integer list or \"all\"", v)
			}
		}
		for _, col := range numericColumns {
			if v, ok := t.Get(row, col); ok && !isNumeric(v) {
				r.add(SeverityWarning, CodeBadNumber, row.Line, "%s %q is not a number", col, v)
			}
		}
		if v, ok := t.Get(row, ColSetup); ok && f.HasSetupBlock && v != "" && !isNone(v) {
			if _, known := f.Setup(v); !known {
				r.add(SeverityError, CodeUnknownSetup, row.Line, "setup %q is not defined in the setup block", v)
			}
		}
	}
}

func validateBackgrounds(r *Report, t *Table, rows []Row) {
	if !t.HasColumn(ColBkgID) {
		return
	}
	combIDs := make(map[int]bool)
	for _, row := range rows {
		fr := t.Frame(row)
		if fr.CombID >= 0 {
			combIDs[fr.CombID] = true
		}
	}
	for _, row := range rows {
		fr := t.Frame(row)
		if fr.BkgID < 0 {
			continue
		}
		if !combIDs[fr.BkgID] {
			r.add(SeverityError, CodeDanglingBkg, row.Line, "bkg_id %d of %s matches no comb_id", fr.BkgID, fr.Filename)
			continue
		}
		if fr.BkgID == fr.CombID {
			r.add(SeverityWarning, CodeSelfBackground, row.Line, "%s uses its own combination group %d as background", fr.Filename, fr.BkgID)
		}
	}
}

// validateCalibGroups warns about science and standard frames whose
// calibration groups hold no wavelength calibration.
func validateCalibGroups(r *Report, t *Table) {
	if !t.HasColumn(ColCalib) {
		return
	}
	frames := t.Frames()
	groups := CalibGroups(frames)
	// with calib = all, any wavelength calibration that takes part in some
	// group (or in all of them) applies
	anyWavecal := slices.ContainsFunc(frames, func(fr Frame) bool {
		return (fr.Is(FrameArc) || fr.Is(FrameTilt)) && (fr.AllCalib || len(fr.CalibGroups) > 0)
	})
	for _, fr := range frames {
		if !fr.Is(FrameScience) && !fr.Is(FrameStandard) {
			continue
		}
		covered := anyWavecal
		if !fr.AllCalib {
			covered = slices.ContainsFunc(groups, func(g CalibGroup) bool {
				return slices.Contains(fr.CalibGroups, g.ID) && (g.Has(FrameArc) || g.Has(FrameTilt))
			})
		}
		if !covered {
			r.add(SeverityWarning, CodeUncalibrated, fr.Line, "%s %s has no arc or tilt frame in calib %s",
				strings.Join(frameTypeStrings(fr.FrameTypes), ","), fr.Filename, fr.Calib)
		}
	}
}

func frameTypeStrings(types []FrameType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
