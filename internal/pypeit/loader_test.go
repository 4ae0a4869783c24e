package pypeit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLoader(t *testing.T) {
	path := "./run.pypeit"
	loader := NewLoader(path)

	if loader.path != path {
		t.Errorf("Expected path %s, got %s", path, loader.path)
	}
}

func TestLoad(t *testing.T) {
	loader := NewLoader("testdata/keck_mosfire_A.pypeit")

	frames, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(frames) != 4 {
		t.Errorf("Expected 4 frames, got %d", len(frames))
	}
}

func TestLoadSample(t *testing.T) {
	loader := NewLoader("testdata/keck_mosfire_A.pypeit")

	frames, err := loader.LoadSample(2)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}
	if len(frames) != 2 {
		t.Errorf("Expected 2 frames, got %d", len(frames))
	}
	if frames[0].Filename != "MF.20200528.40403.fits" {
		t.Errorf("Expected first frame MF.20200528.40403.fits, got %s", frames[0].Filename)
	}

	all, err := loader.LoadSample(-1)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Expected -1 to load all 4 frames, got %d", len(all))
	}
}

func TestLoadWithFilter(t *testing.T) {
	loader := NewLoader("testdata/keck_mosfire_A.pypeit")

	frames, err := loader.LoadWithFilter(func(fr *Frame) bool { return fr.Is(FrameScience) })
	if err != nil {
		t.Fatalf("LoadWithFilter failed: %v", err)
	}
	if len(frames) != 2 {
		t.Errorf("Expected 2 science frames, got %d", len(frames))
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	loader := NewLoader("test.txt")

	if _, err := loader.Load(); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
	if _, err := loader.LoadSample(10); err == nil {
		t.Error("Expected error for unsupported format in LoadSample, got nil")
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	loader := NewLoader("/nonexistent/path/run.pypeit")

	if _, err := loader.Load(); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestLoadUppercaseExtension(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "RUN.PYPEIT")
	data := "data read\n path /raw\n| filename | frametype |\n| a.fits | bias |\ndata end\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	frames, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(frames) != 1 || !frames[0].Is(FrameBias) {
		t.Errorf("Unexpected frames %+v", frames)
	}
}
