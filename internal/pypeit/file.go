package pypeit

// File is a parsed PypeIt reduction file.
type File struct {
	// Leading comment lines, verbatim, before any content
	Preamble []string `json:"preamble,omitempty" yaml:"preamble,omitempty"`

	// Run configuration; the root section is unnamed
	Config *Section `json:"config" yaml:"config"`

	// Instrument setups in file order
	Setups        []Setup `json:"setups,omitempty" yaml:"setups,omitempty"`
	HasSetupBlock bool    `json:"-" yaml:"-"`

	// Frame table, nil when the file has no data block
	Table *Table `json:"table,omitempty" yaml:"table,omitempty"`
}

// NewFile returns an empty file with an initialized config tree.
func NewFile() *File {
	return &File{Config: NewSection("", 0)}
}

// Spectrograph returns the [rdx] spectrograph parameter, or "" if unset.
func (f *File) Spectrograph() string {
	if f.Config == nil {
		return ""
	}
	p, ok := f.Config.Lookup("rdx.spectrograph")
	if !ok {
		return ""
	}
	return p.Value
}

// Setup returns the setup whose name or ID matches name.
func (f *File) Setup(name string) (*Setup, bool) {
	for i := range f.Setups {
		if f.Setups[i].Name == name || f.Setups[i].ID() == name {
			return &f.Setups[i], true
		}
	}
	return nil, false
}

// Frames returns the typed frames of all active rows.
// A file without a data block has no frames.
func (f *File) Frames() []Frame {
	if f.Table == nil {
		return nil
	}
	return f.Table.Frames()
}
