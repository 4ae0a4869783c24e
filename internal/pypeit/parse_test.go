package pypeit

import (
	"errors"
	"strings"
	"testing"
)

func TestParseFile(t *testing.T) {
	f, err := ParseFile("testdata/keck_mosfire_A.pypeit")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if got := f.Spectrograph(); got != "keck_mosfire" {
		t.Errorf("Expected spectrograph keck_mosfire, got %s", got)
	}

	if len(f.Preamble) != 2 {
		t.Errorf("Expected 2 preamble lines, got %d: %q", len(f.Preamble), f.Preamble)
	}

	lamps, ok := f.Config.Lookup("calibrations.wavelengths.lamps")
	if !ok {
		t.Fatal("Expected calibrations.wavelengths.lamps to be set")
	}
	if got := lamps.List(); len(got) != 2 || got[0] != "OH_MOSFIRE_J" || got[1] != "ArI" {
		t.Errorf("Unexpected lamps list %q", got)
	}

	if len(f.Setups) != 1 {
		t.Fatalf("Expected 1 setup, got %d", len(f.Setups))
	}
	if f.Setups[0].Name != "Setup A" || f.Setups[0].ID() != "A" {
		t.Errorf("Unexpected setup name %q", f.Setups[0].Name)
	}
	if v, _ := f.Setups[0].Get("filter1"); v != "J" {
		t.Errorf("Expected filter1 J, got %q", v)
	}
	if f.Setups[0].Attrs[0].Key != "decker_secondary" {
		t.Errorf("Expected setup attributes in file order, got %v", f.Setups[0].Attrs)
	}

	tbl := f.Table
	if tbl == nil {
		t.Fatal("Expected a data block")
	}
	if len(tbl.Paths) != 1 || tbl.Paths[0] != "/data/raw/keck_mosfire/J_multi" {
		t.Errorf("Unexpected paths %q", tbl.Paths)
	}
	if len(tbl.Columns) != 18 {
		t.Errorf("Expected 18 columns, got %d", len(tbl.Columns))
	}
	if len(tbl.Rows) != 5 {
		t.Fatalf("Expected 5 rows (one commented), got %d", len(tbl.Rows))
	}
	if !tbl.Rows[4].Commented {
		t.Error("Expected last row to be commented")
	}
	if len(f.Frames()) != 4 {
		t.Errorf("Expected 4 active frames, got %d", len(f.Frames()))
	}
	if target, _ := tbl.Get(tbl.Rows[1], ColTarget); target != "DOME FLAT" {
		t.Errorf("Expected target 'DOME FLAT', got %q", target)
	}
}

func TestParseSectionNesting(t *testing.T) {
	src := `
[rdx]
    spectrograph = shane_kast_blue
    ignore_bad_headers = True
[scienceframe]
    [[process]]
        mask_cr = True
        [[[extra]]]
            depth = 3
    [[other]]
        x =
`
	f, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	p, ok := f.Config.Lookup("scienceframe.process.extra.depth")
	if !ok || p.Value != "3" {
		t.Errorf("Expected depth = 3, got %+v (found=%v)", p, ok)
	}
	sec, ok := f.Config.Section("scienceframe.other")
	if !ok || sec.Depth != 2 {
		t.Fatalf("Expected [[other]] at depth 2, got %+v", sec)
	}
	if p, _ := sec.Get("x"); p.Value != "" {
		t.Errorf("Expected empty value, got %q", p.Value)
	}
	b, ok := f.Config.Lookup("rdx.ignore_bad_headers")
	if v, isBool := b.Bool(); !ok || !isBool || !v {
		t.Errorf("Expected ignore_bad_headers True, got %+v", b)
	}
	if f.Table != nil {
		t.Error("Expected no data block")
	}
}

func TestParseErrors(t *testing.T) {
	header := "| filename | frametype |\n"
	tests := []struct {
		name string
		src  string
		want error
		line int
	}{
		{
			name: "setup block never closed",
			src:  "[rdx]\n spectrograph = x\nsetup read\nSetup A:\n  a: 1\n",
			want: ErrUnbalancedBlock,
			line: 3,
		},
		{
			name: "data end without read",
			src:  "data end\n",
			want: ErrUnbalancedBlock,
			line: 1,
		},
		{
			name: "setup end closing data block",
			src:  "data read\n" + header + "setup end\n",
			want: ErrUnbalancedBlock,
			line: 3,
		},
		{
			name: "overlapping blocks",
			src:  "setup read\ndata read\n",
			want: ErrUnbalancedBlock,
			line: 2,
		},
		{
			name: "second data block",
			src:  "data read\n" + header + "data end\ndata read\ndata end\n",
			want: ErrDuplicateBlock,
			line: 4,
		},
		{
			name: "row with too few fields",
			src:  "data read\n path /raw\n" + header + "| a.fits |\ndata end\n",
			want: ErrColumnCount,
			line: 4,
		},
		{
			name: "row with too many fields",
			src:  "data read\n" + header + "| a.fits | arc | 1 |\ndata end\n",
			want: ErrColumnCount,
			line: 3,
		},
		{
			name: "row before header",
			src:  "data read\n path /raw\na.fits arc\ndata end\n",
			want: ErrSyntax,
			line: 3,
		},
		{
			name: "section depth jump",
			src:  "[rdx]\n[[[deep]]]\n",
			want: ErrSyntax,
			line: 2,
		},
		{
			name: "unbalanced brackets",
			src:  "[[rdx]\n",
			want: ErrSyntax,
			line: 1,
		},
		{
			name: "line without equals",
			src:  "[rdx]\n spectrograph keck_mosfire\n",
			want: ErrSyntax,
			line: 2,
		},
		{
			name: "duplicate parameter",
			src:  "[rdx]\n a = 1\n a = 2\n",
			want: ErrSyntax,
			line: 3,
		},
		{
			name: "duplicate section",
			src:  "[rdx]\n[rdx]\n",
			want: ErrSyntax,
			line: 2,
		},
		{
			name: "duplicate column",
			src:  "data read\n| filename | filename |\ndata end\n",
			want: ErrSyntax,
			line: 2,
		},
		{
			name: "setup attribute not scalar",
			src:  "setup read\nSetup A:\n  dispname:\n    - a\n    - b\nsetup end\n",
			want: ErrSyntax,
			line: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Expected *ParseError, got %T", err)
			}
			if perr.Line != tt.line {
				t.Errorf("Expected error on line %d, got %d (%v)", tt.line, perr.Line, err)
			}
		})
	}
}

func TestParseCommentRows(t *testing.T) {
	src := `data read
 path /raw
| filename | frametype |
# a note about the night
| a.fits | arc |
#| b.fits | science |
# | c.fits |
data end
`
	f, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	rows := f.Table.Rows
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[1].Commented != true || rows[1].Fields[0] != "b.fits" {
		t.Errorf("Expected commented b.fits row, got %+v", rows[1])
	}
	if len(f.Table.Active()) != 1 {
		t.Errorf("Expected 1 active row, got %d", len(f.Table.Active()))
	}
}

func TestParseEmptySetup(t *testing.T) {
	src := "setup read\nSetup B:\nsetup end\n"
	f, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !f.HasSetupBlock {
		t.Error("Expected HasSetupBlock")
	}
	if len(f.Setups) != 1 || f.Setups[0].Name != "Setup B" || len(f.Setups[0].Attrs) != 0 {
		t.Errorf("Unexpected setups %+v", f.Setups)
	}
}

func TestParseMultiplePaths(t *testing.T) {
	src := "data read\n path /night1\n path /night2\n| filename |\n| a.fits |\ndata end\n"
	f, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(f.Table.Paths) != 2 || f.Table.Paths[1] != "/night2" {
		t.Errorf("Unexpected paths %q", f.Table.Paths)
	}
}

func TestParseFileNotFound(t *testing.T) {
	if _, err := ParseFile("/nonexistent/file.pypeit"); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestParseByteOrderMark(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "section first", src: "\ufeff[rdx]\n  spectrograph = keck_nires\n"},
		{name: "preamble first", src: "\ufeff# Auto-generated\n\n[rdx]\n  spectrograph = keck_nires\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(strings.NewReader(tt.src))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got := f.Spectrograph(); got != "keck_nires" {
				t.Errorf("Expected spectrograph keck_nires, got %q", got)
			}
			for _, line := range f.Preamble {
				if strings.HasPrefix(line, "\ufeff") {
					t.Errorf("Expected byte order mark stripped from preamble, got %q", line)
				}
			}
		})
	}
}
