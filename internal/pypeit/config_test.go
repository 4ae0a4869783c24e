package pypeit

import "testing"

func TestSectionSet(t *testing.T) {
	root := NewSection("", 0)

	if err := root.Set("calibrations.wavelengths.lamps", "ArI, NeI"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := root.Set("calibrations.wavelengths.lamps", "HgI"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := root.Set("calibrations.bpm_usebias", "True"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	cal, ok := root.Section("calibrations")
	if !ok {
		t.Fatal("Expected calibrations section")
	}
	if cal.Depth != 1 {
		t.Errorf("Expected depth 1, got %d", cal.Depth)
	}
	wl, _ := cal.Child("wavelengths")
	if wl.Depth != 2 || len(wl.Params) != 1 || wl.Params[0].Value != "HgI" {
		t.Errorf("Unexpected wavelengths section %+v", wl)
	}
	if p, ok := root.Lookup("calibrations.bpm_usebias"); !ok || p.Value != "True" {
		t.Errorf("Unexpected bpm_usebias %+v", p)
	}
}

func TestSectionSetErrors(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value string
	}{
		{name: "empty", path: "", value: "1"},
		{name: "empty key", path: "rdx.", value: "1"},
		{name: "empty section", path: "rdx..x", value: "1"},
		{name: "bracket in section", path: "rdx[x].a", value: "1"},
		{name: "closing bracket in key", path: "rdx.a]", value: "1"},
		{name: "equals in key", path: "rdx.a=b", value: "1"},
		{name: "comment in key", path: "rdx.#a", value: "1"},
		{name: "blank section", path: "  .a", value: "1"},
		{name: "blank key", path: "rdx. ", value: "1"},
		{name: "multi-line value", path: "rdx.a", value: "1\n[x]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewSection("", 0)
			if err := root.Set(tt.path, tt.value); err == nil {
				t.Errorf("Expected error for path %q", tt.path)
			}
			if len(root.Sections) != 0 || len(root.Params) != 0 {
				t.Errorf("Expected root untouched, got %+v", root)
			}
		})
	}
}

func TestSectionWalk(t *testing.T) {
	root := NewSection("", 0)
	_ = root.Set("rdx.spectrograph", "x")
	_ = root.Set("reduce.findobj.snr_thresh", "3")
	_ = root.Set("reduce.skysub.no_poly", "True")

	var paths []string
	root.Walk(func(path string, _ *Section) {
		paths = append(paths, path)
	})

	want := []string{"", "rdx", "reduce", "reduce.findobj", "reduce.skysub"}
	if len(paths) != len(want) {
		t.Fatalf("Expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, paths)
			break
		}
	}
}

func TestParamList(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{name: "single", value: "ArI", expected: []string{"ArI"}},
		{name: "spaced list", value: "ArI,  NeI , KrI", expected: []string{"ArI", "NeI", "KrI"}},
		{name: "trailing comma", value: "ArI,", expected: []string{"ArI"}},
		{name: "empty", value: "  ", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Param{Value: tt.value}.List()
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %q, got %q", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Expected %q, got %q", tt.expected, got)
				}
			}
		})
	}
}

func TestParamBool(t *testing.T) {
	if v, ok := (Param{Value: "false"}).Bool(); !ok || v {
		t.Errorf("Expected false, ok; got %v, %v", v, ok)
	}
	if _, ok := (Param{Value: "maybe"}).Bool(); ok {
		t.Error("Expected maybe not to be a bool")
	}
}
