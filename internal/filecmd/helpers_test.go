package filecmd

import (
	"os"
	"path/filepath"
	"testing"
)

const fixture = "testdata/keck_mosfire_A.pypeit"

// warningOnly parses cleanly and has a single no-path warning.
const warningOnly = `[rdx]
    spectrograph = shane_kast_blue

setup read
Setup A:
  dispname: 600/4310
setup end

data read
| filename | frametype | setup | calib | comb_id | bkg_id |
| b1.fits | arc,tilt | A | 0 | -1 | -1 |
| b2.fits | science | A | 0 | 1 | -1 |
data end
`

// copyFixture copies the MOSFIRE reduction file into a temp directory so
// tests can rewrite it.
func copyFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	return writeTemp(t, "keck_mosfire_A.pypeit", string(data))
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}
