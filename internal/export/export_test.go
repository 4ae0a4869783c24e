package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pypeit/pypeitfile/internal/pypeit"
)

const sample = `# test file

[rdx]
    spectrograph = shane_kast_blue
[calibrations]
    [[wavelengths]]
        method = full_template

setup read
Setup A:
  dispname: 600/4310
  dichroic: d55
setup end

data read
 path /raw/kast
| filename | frametype | ra | dec | target | exptime | airmass | calib | comb_id | bkg_id | dichroic |
| b1.fits | arc,tilt | 140.0 | 37.4 | Arcs | 30 | 1.0 | 0 | -1 | -1 | d55 |
| b27.fits | science | 189.1 | -1.2 | J1217p3905 | 1200 | None | 0 | 1 | -1 | d55 |
#| b28.fits | science | 189.1 | -1.2 | J1217p3905 | 1200 | 1.1 | 0 | 2 | -1 | d55 |
data end
`

func parseSample(t *testing.T) *pypeit.File {
	t.Helper()
	f, err := pypeit.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	return f
}

func TestParquetRoundTrip(t *testing.T) {
	f := parseSample(t)
	path := filepath.Join(t.TempDir(), "frames.parquet")

	out, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteParquet(out, "sample.pypeit", f.Frames()))
	require.NoError(t, out.Close())

	records, err := ReadParquet(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	arc := records[0]
	assert.Equal(t, "sample.pypeit", arc.Source)
	assert.Equal(t, "b1.fits", arc.Filename)
	assert.Equal(t, "arc,tilt", arc.FrameTypeString())
	assert.True(t, arc.HasType("tilt"))
	require.NotNil(t, arc.RA)
	assert.InDelta(t, 140.0, *arc.RA, 1e-9)
	assert.Equal(t, []int64{0}, arc.CalibGroups)
	assert.Equal(t, int64(-1), arc.CombID)
	assert.Equal(t, "d55", arc.Extra["dichroic"])

	sci := records[1]
	assert.Equal(t, "J1217p3905", sci.Target)
	assert.Nil(t, sci.Airmass)
	assert.Equal(t, int64(1), sci.CombID)
}

func TestReadParquetMissingFile(t *testing.T) {
	_, err := ReadParquet("/nonexistent/frames.parquet")
	assert.Error(t, err)
}

func TestWriteYAML(t *testing.T) {
	f := parseSample(t)
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, "sample.pypeit", f, pypeit.Validate(f)))

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "sample.pypeit", doc.Source)
	assert.Equal(t, "shane_kast_blue", doc.Spectrograph)
	assert.Equal(t, "full_template", doc.Parameters["calibrations.wavelengths.method"])
	assert.Equal(t, "shane_kast_blue", doc.Parameters["rdx.spectrograph"])
	require.Len(t, doc.Setups, 1)
	assert.Equal(t, "600/4310", doc.Setups[0].Attributes["dispname"])
	assert.Equal(t, []string{"/raw/kast"}, doc.Paths)
	require.Len(t, doc.Frames, 2)
	assert.Equal(t, "b27.fits", doc.Frames[1].Filename)
	assert.Equal(t, "None", doc.Frames[1].Columns["airmass"])
	assert.Empty(t, doc.Issues)
}

func TestWriteFrames(t *testing.T) {
	frames := parseSample(t).Frames()

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteFrames(&buf, FormatText, frames))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "FILENAME"))
		assert.Contains(t, lines[2], "J1217p3905")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteFrames(&buf, FormatCSV, frames))
		rows, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{
			"filename", "frametype", "ra", "dec", "target", "setup", "mjd", "airmass", "exptime",
			"dithoff", "frameno", "calib", "comb_id", "bkg_id", "dichroic",
		}, rows[0])
		assert.Equal(t, "arc,tilt", rows[1][1])
		assert.Equal(t, "", rows[2][7], "airmass None should be empty")
		assert.Equal(t, "d55", rows[2][14])
	})

	t.Run("csv instrument columns", func(t *testing.T) {
		src := `[rdx]
    spectrograph = keck_mosfire
data read
 path /raw
| filename | frametype | setup | dithoff | frameno | calib | decker | filter1 |
| a.fits | arc,tilt | A | 1.5 | 37 | 0 | LONGSLIT | J |
| b.fits | science | A | -1.5 | 38 | 0 | MASK | J |
data end
`
		f, err := pypeit.Parse(strings.NewReader(src))
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, WriteFrames(&buf, FormatCSV, f.Frames()))
		rows, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"decker", "filter1"}, rows[0][14:])
		assert.Equal(t, "A", rows[2][5])
		assert.Equal(t, "-1.5", rows[2][9])
		assert.Equal(t, "38", rows[2][10])
		assert.Equal(t, []string{"MASK", "J"}, rows[2][14:])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteFrames(&buf, FormatJSON, frames))
		var decoded []pypeit.Frame
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, 1, decoded[1].CombID)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteFrames(&buf, FormatYAML, frames))
		var decoded []FrameRecord
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, []string{"science"}, decoded[1].FrameTypes)
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, WriteFrames(&bytes.Buffer{}, "xml", frames))
	})
}

func TestWriteValidation(t *testing.T) {
	reports := []FileReport{
		{Path: "good.pypeit"},
		{Path: "warn.pypeit", Issues: []pypeit.Issue{{Severity: pypeit.SeverityWarning, Code: pypeit.CodeNoPath, Message: "data block has no path line"}}},
		{Path: "broken.pypeit", Error: "line 3: unbalanced block"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteValidation(&buf, FormatText, reports))
	out := buf.String()
	assert.Contains(t, out, "✅ good.pypeit")
	assert.Contains(t, out, "⚠️  warn.pypeit")
	assert.Contains(t, out, "no-path")
	assert.Contains(t, out, "❌ broken.pypeit")

	assert.True(t, reports[0].OK(true))
	assert.True(t, reports[1].OK(false))
	assert.False(t, reports[1].OK(true))
	assert.False(t, reports[2].OK(false))
}
