package export

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// Document is the YAML rendering of a whole reduction file.
type Document struct {
	Source       string            `yaml:"source"`
	Exported     string            `yaml:"exported"`
	Spectrograph string            `yaml:"spectrograph"`
	Parameters   map[string]string `yaml:"parameters,omitempty"`
	Setups       []SetupDoc        `yaml:"setups,omitempty"`
	Paths        []string          `yaml:"paths,omitempty"`
	Frames       []FrameDoc        `yaml:"frames,omitempty"`
	Issues       []pypeit.Issue    `yaml:"issues,omitempty"`
}

// SetupDoc is one setup with its attributes as a mapping.
type SetupDoc struct {
	Name       string            `yaml:"name"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

// FrameDoc is one frame with its raw cell values keyed by column.
type FrameDoc struct {
	Filename string            `yaml:"filename"`
	Columns  map[string]string `yaml:"columns"`
}

// NewDocument builds the YAML document for f. Parameters are flattened to
// dotted paths.
func NewDocument(source string, f *pypeit.File, report pypeit.Report) Document {
	doc := Document{
		Source:       source,
		Exported:     time.Now().UTC().Format(time.RFC3339),
		Spectrograph: f.Spectrograph(),
		Issues:       report.Issues,
	}

	if f.Config != nil {
		doc.Parameters = make(map[string]string)
		f.Config.Walk(func(path string, sec *pypeit.Section) {
			for _, p := range sec.Params {
				key := p.Key
				if path != "" {
					key = path + "." + p.Key
				}
				doc.Parameters[key] = p.Value
			}
		})
	}

	for _, s := range f.Setups {
		sd := SetupDoc{Name: s.Name, Attributes: make(map[string]string, len(s.Attrs))}
		for _, a := range s.Attrs {
			sd.Attributes[a.Key] = a.Value
		}
		doc.Setups = append(doc.Setups, sd)
	}

	if t := f.Table; t != nil {
		doc.Paths = t.Paths
		for _, row := range t.Active() {
			fd := FrameDoc{Columns: make(map[string]string, len(t.Columns))}
			for i, col := range t.Columns {
				fd.Columns[col] = row.Fields[i]
			}
			fd.Filename = fd.Columns[pypeit.ColFilename]
			doc.Frames = append(doc.Frames, fd)
		}
	}

	return doc
}

// WriteYAML writes the YAML document for f to w.
func WriteYAML(w io.Writer, source string, f *pypeit.File, report pypeit.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(source, f, report)); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}
