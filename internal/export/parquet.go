package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// FrameRecord is the flat, columnar form of a frame used for Parquet export.
type FrameRecord struct {
	Source      string            `json:"source" yaml:"source" parquet:"source"`
	Filename    string            `json:"filename" yaml:"filename" parquet:"filename"`
	FrameTypes  []string          `json:"frametype" yaml:"frametype" parquet:"frametype,list"`
	RA          *float64          `json:"ra" yaml:"ra,omitempty" parquet:"ra,optional"`
	Dec         *float64          `json:"dec" yaml:"dec,omitempty" parquet:"dec,optional"`
	Target      string            `json:"target" yaml:"target" parquet:"target"`
	Setup       string            `json:"setup" yaml:"setup" parquet:"setup"`
	MJD         *float64          `json:"mjd" yaml:"mjd,omitempty" parquet:"mjd,optional"`
	Airmass     *float64          `json:"airmass" yaml:"airmass,omitempty" parquet:"airmass,optional"`
	Exptime     *float64          `json:"exptime" yaml:"exptime,omitempty" parquet:"exptime,optional"`
	Dithoff     *float64          `json:"dithoff" yaml:"dithoff,omitempty" parquet:"dithoff,optional"`
	Frameno     string            `json:"frameno" yaml:"frameno" parquet:"frameno"`
	Calib       string            `json:"calib" yaml:"calib" parquet:"calib"`
	CalibGroups []int64           `json:"calib_groups" yaml:"calib_groups,omitempty" parquet:"calib_groups,list"`
	AllCalib    bool              `json:"all_calib" yaml:"all_calib" parquet:"all_calib"`
	CombID      int64             `json:"comb_id" yaml:"comb_id" parquet:"comb_id"`
	BkgID       int64             `json:"bkg_id" yaml:"bkg_id" parquet:"bkg_id"`
	Extra       map[string]string `json:"extra" yaml:"extra,omitempty" parquet:"extra"`
}

// NewFrameRecord flattens a frame read from source.
func NewFrameRecord(source string, fr pypeit.Frame) FrameRecord {
	rec := FrameRecord{
		Source:   source,
		Filename: fr.Filename,
		RA:       fr.RA,
		Dec:      fr.Dec,
		Target:   fr.Target,
		Setup:    fr.Setup,
		MJD:      fr.MJD,
		Airmass:  fr.Airmass,
		Exptime:  fr.Exptime,
		Dithoff:  fr.Dithoff,
		Frameno:  fr.Frameno,
		Calib:    fr.Calib,
		AllCalib: fr.AllCalib,
		CombID:   int64(fr.CombID),
		BkgID:    int64(fr.BkgID),
		Extra:    fr.Extra,
	}
	for _, ft := range fr.FrameTypes {
		rec.FrameTypes = append(rec.FrameTypes, string(ft))
	}
	for _, g := range fr.CalibGroups {
		rec.CalibGroups = append(rec.CalibGroups, int64(g))
	}
	return rec
}

// FrameTypeString joins the frame types the way the data block writes them.
func (r FrameRecord) FrameTypeString() string {
	return strings.Join(r.FrameTypes, ",")
}

// HasType reports whether the record carries frame type ft.
func (r FrameRecord) HasType(ft string) bool {
	return slices.Contains(r.FrameTypes, ft)
}

// WriteParquet writes frames as a single Parquet file to w.
func WriteParquet(w io.Writer, source string, frames []pypeit.Frame) error {
	records := make([]FrameRecord, 0, len(frames))
	for _, fr := range frames {
		records = append(records, NewFrameRecord(source, fr))
	}

	writer := parquet.NewGenericWriter[FrameRecord](w)
	if _, err := writer.Write(records); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	slog.Debug("Wrote Parquet frames", "source", source, "rows", len(records))
	return nil
}

// ReadParquet loads every record of a Parquet file written by WriteParquet.
func ReadParquet(path string) ([]FrameRecord, error) {
	slog.Debug("Opening Parquet file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[FrameRecord](pf)
	defer reader.Close()

	var records []FrameRecord
	for {
		// fresh batch each read: records keep references to list and map values
		rows := make([]FrameRecord, 128)
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return records, nil
}
