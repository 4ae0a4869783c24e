package pypeit

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// ignoreLines drops source positions, which change when a file is rewritten.
var ignoreLines = cmpopts.IgnoreFields(Row{}, "Line")

func roundTrip(t *testing.T, f *File) *File {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, f); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	back, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse of written file failed: %v\n%s", err, buf.String())
	}
	return back
}

func TestRoundTripFixture(t *testing.T) {
	f, err := ParseFile("testdata/keck_mosfire_A.pypeit")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	back := roundTrip(t, f)
	if diff := cmp.Diff(f, back, ignoreLines); diff != "" {
		t.Errorf("Round trip changed the file (-want +got):\n%s", diff)
	}
}

func TestRoundTripCases(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "config only",
			src:  "[rdx]\n  spectrograph = gemini_gnirs_echelle\n",
		},
		{
			name: "root parameters before sections",
			src:  "verbosity = 2\n[rdx]\nspectrograph = x\n",
		},
		{
			name: "empty setup block",
			src:  "setup read\nsetup end\n",
		},
		{
			name: "setup values that need quoting",
			src:  "setup read\nSetup A:\n  decker: 'a: b'\n  amp: '#1'\n  flag: 'True'\n  empty:\nsetup end\n",
		},
		{
			name: "empty data block",
			src:  "data read\ndata end\n",
		},
		{
			name: "preamble only",
			src:  "# generated\n# by hand\n\n",
		},
		{
			name: "commented rows and no path",
			src:  "data read\n|a|b|\n|1|2|\n#|3|4|\n|5|6|\ndata end\n",
		},
		{
			name: "empty cells",
			src:  "data read\n path /x\n| filename | target |\n| a.fits |  |\ndata end\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(strings.NewReader(tt.src))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			back := roundTrip(t, f)
			if diff := cmp.Diff(f, back, ignoreLines); diff != "" {
				t.Errorf("Round trip changed the file (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteAlignsColumns(t *testing.T) {
	f := NewFile()
	f.Table = &Table{
		Paths:   []string{"/raw"},
		Columns: []string{"filename", "calib"},
		Rows: []Row{
			{Fields: []string{"long_name.fits", "0"}},
			{Fields: []string{"b.fits", "all"}, Commented: true},
		},
	}

	out, err := Format(f)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	want := `# Data block 
data read
 path /raw
|       filename | calib |
| long_name.fits |     0 |
#|         b.fits |   all |
data end
`
	if string(out) != want {
		t.Errorf("Expected:\n%s\nGot:\n%s", want, out)
	}
}

func TestWriteConfigIndent(t *testing.T) {
	f := NewFile()
	if err := f.Config.Set("rdx.spectrograph", "keck_nires"); err != nil {
		t.Fatal(err)
	}
	if err := f.Config.Set("reduce.skysub.bspline_spacing", "0.8"); err != nil {
		t.Fatal(err)
	}

	out, err := Format(f)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	want := `# User-defined execution parameters
[rdx]
    spectrograph = keck_nires
[reduce]
    [[skysub]]
        bspline_spacing = 0.8
`
	if string(out) != want {
		t.Errorf("Expected:\n%s\nGot:\n%s", want, out)
	}
}

func TestWriteFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.pypeit")
	if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	f, err := ParseFile("testdata/keck_mosfire_A.pypeit")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if err := WriteFile(path, f); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	back, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile of rewritten file failed: %v", err)
	}
	if diff := cmp.Diff(f, back, ignoreLines); diff != "" {
		t.Errorf("Rewritten file differs (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the target file in %s, found %d entries", dir, len(entries))
	}
}

func TestRoundTripAfterSet(t *testing.T) {
	f, err := Parse(strings.NewReader("[rdx]\n  spectrograph = keck_nires\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := f.Config.Set("reduce.findobj.snr_thresh", "5.0"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := f.Config.Set("rdx.detnum", "[1, 2]"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	back := roundTrip(t, f)
	for path, want := range map[string]string{
		"rdx.spectrograph":          "keck_nires",
		"rdx.detnum":                "[1, 2]",
		"reduce.findobj.snr_thresh": "5.0",
	} {
		p, ok := back.Config.Lookup(path)
		if !ok {
			t.Errorf("Expected %s after round trip", path)
			continue
		}
		if p.Value != want {
			t.Errorf("Expected %s = %q, got %q", path, want, p.Value)
		}
	}
}
