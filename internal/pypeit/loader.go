package pypeit

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Loader reads frames from a reduction file on disk.
type Loader struct {
	path string
}

// NewLoader creates a loader for the reduction file at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load parses the file and returns its active frames.
func (l *Loader) Load() ([]Frame, error) {
	f, err := l.open()
	if err != nil {
		return nil, err
	}
	frames := f.Frames()
	slog.Debug("Loaded frames", "path", l.path, "frames", len(frames))
	return frames, nil
}

// LoadSample returns at most limit frames, in table order.
func (l *Loader) LoadSample(limit int) ([]Frame, error) {
	frames, err := l.Load()
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(frames) > limit {
		frames = frames[:limit]
	}
	return frames, nil
}

// LoadWithFilter returns the frames for which filterFn returns true.
func (l *Loader) LoadWithFilter(filterFn func(*Frame) bool) ([]Frame, error) {
	frames, err := l.Load()
	if err != nil {
		return nil, err
	}
	var out []Frame
	for i := range frames {
		if filterFn(&frames[i]) {
			out = append(out, frames[i])
		}
	}
	return out, nil
}

func (l *Loader) open() (*File, error) {
	ext := strings.ToLower(filepath.Ext(l.path))
	switch ext {
	case ".pypeit":
		return ParseFile(l.path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .pypeit)", ext)
	}
}
