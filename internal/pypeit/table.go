package pypeit

import (
	"slices"
	"strconv"
	"strings"
)

// Standard column names written by pypeit_setup.
const (
	ColFilename  = "filename"
	ColFrametype = "frametype"
	ColRA        = "ra"
	ColDec       = "dec"
	ColTarget    = "target"
	ColSetup     = "setup"
	ColMJD       = "mjd"
	ColAirmass   = "airmass"
	ColExptime   = "exptime"
	ColDithoff   = "dithoff"
	ColFrameno   = "frameno"
	ColCalib     = "calib"
	ColCombID    = "comb_id"
	ColBkgID     = "bkg_id"
)

// numericColumns hold free-form decimal text.
var numericColumns = []string{ColRA, ColDec, ColMJD, ColAirmass, ColExptime, ColDithoff}

// Unassigned is the conventional value of an unset identifier column.
const Unassigned = -1

// Table is the data block of a reduction file.
type Table struct {
	Paths   []string `json:"paths" yaml:"paths"`
	Columns []string `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

// Row is one exposure line. Commented rows are kept so that rewriting the
// file preserves them, but they take no part in processing.
type Row struct {
	Line      int      `json:"line,omitempty" yaml:"line,omitempty"`
	Fields    []string `json:"fields" yaml:"fields"`
	Commented bool     `json:"commented,omitempty" yaml:"commented,omitempty"`
}

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	return slices.Index(t.Columns, name)
}

func (t *Table) HasColumn(name string) bool {
	return t.Column(name) >= 0
}

// Get returns the value of column name in row r.
func (t *Table) Get(r Row, name string) (string, bool) {
	i := t.Column(name)
	if i < 0 || i >= len(r.Fields) {
		return "", false
	}
	return r.Fields[i], true
}

// Active returns the rows that are not commented out.
func (t *Table) Active() []Row {
	out := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if !r.Commented {
			out = append(out, r)
		}
	}
	return out
}

// Frames projects every active row onto a Frame.
func (t *Table) Frames() []Frame {
	rows := t.Active()
	out := make([]Frame, 0, len(rows))
	for _, r := range rows {
		out = append(out, t.Frame(r))
	}
	return out
}

// Filter returns the frames for which keep returns true.
func (t *Table) Filter(keep func(Frame) bool) []Frame {
	var out []Frame
	for _, fr := range t.Frames() {
		if keep(fr) {
			out = append(out, fr)
		}
	}
	return out
}

// FramesOfType returns the frames tagged with ft.
func (t *Table) FramesOfType(ft FrameType) []Frame {
	return t.Filter(func(fr Frame) bool { return fr.Is(ft) })
}

// FramesInCalib returns the frames belonging to calibration group g.
func (t *Table) FramesInCalib(g int) []Frame {
	return t.Filter(func(fr Frame) bool { return fr.InCalib(g) })
}

// Frame is the typed view of a table row. Numeric fields are nil when the
// cell is empty, "None" or not a number.
type Frame struct {
	Line        int               `json:"line,omitempty"`
	Filename    string            `json:"filename"`
	FrameTypes  []FrameType       `json:"frametype"`
	RA          *float64          `json:"ra,omitempty"`
	Dec         *float64          `json:"dec,omitempty"`
	Target      string            `json:"target,omitempty"`
	Setup       string            `json:"setup,omitempty"`
	MJD         *float64          `json:"mjd,omitempty"`
	Airmass     *float64          `json:"airmass,omitempty"`
	Exptime     *float64          `json:"exptime,omitempty"`
	Dithoff     *float64          `json:"dithoff,omitempty"`
	Frameno     string            `json:"frameno,omitempty"`
	Calib       string            `json:"calib,omitempty"`
	CalibGroups []int             `json:"calib_groups,omitempty"`
	AllCalib    bool              `json:"all_calib,omitempty"`
	CombID      int               `json:"comb_id"`
	BkgID       int               `json:"bkg_id"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Frame builds the typed view of r.
func (t *Table) Frame(r Row) Frame {
	fr := Frame{Line: r.Line, CombID: Unassigned, BkgID: Unassigned}
	for i, col := range t.Columns {
		if i >= len(r.Fields) {
			break
		}
		v := r.Fields[i]
		switch col {
		case ColFilename:
			fr.Filename = v
		case ColFrametype:
			fr.FrameTypes = ParseFrameTypes(v)
		case ColRA:
			fr.RA = parseNumber(v)
		case ColDec:
			fr.Dec = parseNumber(v)
		case ColTarget:
			fr.Target = v
		case ColSetup:
			fr.Setup = v
		case ColMJD:
			fr.MJD = parseNumber(v)
		case ColAirmass:
			fr.Airmass = parseNumber(v)
		case ColExptime:
			fr.Exptime = parseNumber(v)
		case ColDithoff:
			fr.Dithoff = parseNumber(v)
		case ColFrameno:
			fr.Frameno = v
		case ColCalib:
			fr.Calib = v
			fr.CalibGroups, fr.AllCalib, _ = ParseCalib(v)
		case ColCombID:
			fr.CombID, _ = ParseID(v)
		case ColBkgID:
			fr.BkgID, _ = ParseID(v)
		default:
			if fr.Extra == nil {
				fr.Extra = make(map[string]string)
			}
			fr.Extra[col] = v
		}
	}
	return fr
}

// Is reports whether the frame carries type ft.
func (fr Frame) Is(ft FrameType) bool {
	return slices.Contains(fr.FrameTypes, ft)
}

// IsCalibration reports whether any of the frame's types is a calibration type.
func (fr Frame) IsCalibration() bool {
	for _, ft := range fr.FrameTypes {
		if ft.IsCalibration() {
			return true
		}
	}
	return false
}

// InCalib reports whether the frame belongs to calibration group g.
func (fr Frame) InCalib(g int) bool {
	return fr.AllCalib || slices.Contains(fr.CalibGroups, g)
}

// ParseID parses an identifier cell. Empty and "None" cells are Unassigned.
func ParseID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || isNone(s) {
		return Unassigned, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Unassigned, err
	}
	return n, nil
}

// ParseCalib parses a calib cell: a single group, a comma separated list of
// groups or "all".
func ParseCalib(s string) (groups []int, all bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || isNone(s) {
		return nil, false, nil
	}
	if strings.EqualFold(s, "all") {
		return nil, true, nil
	}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, false, err
		}
		groups = append(groups, n)
	}
	return groups, false, nil
}

func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || isNone(s) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || isNone(s) {
		return true
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
