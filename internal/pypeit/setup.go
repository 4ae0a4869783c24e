package pypeit

import "strings"

// Setup is a named instrument configuration shared by a group of frames.
type Setup struct {
	Name  string `json:"name" yaml:"name"`
	Attrs []Attr `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// Attr is one instrument-state attribute of a setup (dispname, decker, ...).
type Attr struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// ID returns the setup identifier without the "Setup " prefix.
func (s Setup) ID() string {
	return strings.TrimSpace(strings.TrimPrefix(s.Name, "Setup "))
}

func (s Setup) Get(key string) (string, bool) {
	for _, a := range s.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
