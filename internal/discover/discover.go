package discover

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Ext is the extension of reduction files.
const Ext = ".pypeit"

// Reduction is one reduction file located below a common root. Reduction
// files are conventionally kept as <instrument>/<setup>/<name>.pypeit.
type Reduction struct {
	// Path as given, or as found below a given directory
	Path string `json:"path"`
	// Name is the slash separated path relative to the common root; it is
	// unique among the reductions returned together
	Name string `json:"name"`
	// Key groups reductions by directory, e.g. "shane_kast_blue/600_4310_d55"
	Key        string `json:"key"`
	Instrument string `json:"instrument,omitempty"`
	Setup      string `json:"setup,omitempty"`
}

// Expand resolves arguments to reduction files. Directories are walked for
// *.pypeit files; files are taken as they are. Hidden directories are
// skipped and duplicate files are reported once.
func Expand(args []string) ([]Reduction, error) {
	var (
		files []string
		bases []string
		seen  = make(map[string]bool)
	)
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", arg, err)
		}

		if !info.IsDir() {
			if !seen[abs] {
				seen[abs] = true
				files = append(files, arg)
			}
			bases = append(bases, filepath.Dir(abs))
			continue
		}

		bases = append(bases, abs)
		found, err := walk(arg)
		if err != nil {
			return nil, err
		}
		slog.Debug("Discovered reduction files", "dir", arg, "count", len(found))
		for _, f := range found {
			fabs, err := filepath.Abs(f)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
			}
			if !seen[fabs] {
				seen[fabs] = true
				files = append(files, f)
			}
		}
	}

	root := commonDir(bases)
	out := make([]Reduction, 0, len(files))
	for _, f := range files {
		abs, _ := filepath.Abs(f)
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return nil, fmt.Errorf("failed to relate %s to %s: %w", f, root, err)
		}
		out = append(out, newReduction(f, filepath.ToSlash(rel)))
	}
	return out, nil
}

func walk(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), Ext) {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(found)
	return found, nil
}

func newReduction(p, name string) Reduction {
	r := Reduction{Path: p, Name: name}
	dir := path.Dir(name)
	if dir == "." {
		return r
	}
	r.Key = dir
	// the innermost two directories are <instrument>/<setup>
	r.Setup = path.Base(dir)
	if parent := path.Dir(dir); parent != "." {
		r.Instrument = path.Base(parent)
	}
	return r
}

// commonDir returns the deepest directory containing every dir.
func commonDir(dirs []string) string {
	if len(dirs) == 0 {
		return "."
	}
	common := dirs[0]
	for _, d := range dirs[1:] {
		for !within(d, common) {
			parent := filepath.Dir(common)
			if parent == common {
				break
			}
			common = parent
		}
	}
	return common
}

func within(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Paths returns the paths of rs in order.
func Paths(rs []Reduction) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Path
	}
	return out
}
