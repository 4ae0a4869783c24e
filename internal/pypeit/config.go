package pypeit

import (
	"fmt"
	"strings"
)

// Section is one level of the run configuration. The root section has
// depth 0 and no name; [name] is depth 1, [[name]] depth 2 and so on.
type Section struct {
	Name     string     `json:"name,omitempty" yaml:"name,omitempty"`
	Depth    int        `json:"depth" yaml:"depth"`
	Params   []Param    `json:"params,omitempty" yaml:"params,omitempty"`
	Sections []*Section `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// Param is a single key = value override.
type Param struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func NewSection(name string, depth int) *Section {
	return &Section{Name: name, Depth: depth}
}

// Child returns the direct subsection called name.
func (s *Section) Child(name string) (*Section, bool) {
	for _, c := range s.Sections {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Get returns the parameter key in this section only.
func (s *Section) Get(key string) (Param, bool) {
	for _, p := range s.Params {
		if p.Key == key {
			return p, true
		}
	}
	return Param{}, false
}

// Section resolves a dotted path of section names, e.g. "calibrations.wavelengths".
func (s *Section) Section(path string) (*Section, bool) {
	cur := s
	if path == "" {
		return cur, true
	}
	for _, name := range strings.Split(path, ".") {
		next, ok := cur.Child(name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Lookup resolves a dotted parameter path such as "rdx.spectrograph".
// A path without dots names a parameter of the receiver itself.
func (s *Section) Lookup(path string) (Param, bool) {
	dir, key := splitPath(path)
	sec, ok := s.Section(dir)
	if !ok {
		return Param{}, false
	}
	return sec.Get(key)
}

// Set assigns value to the dotted parameter path, creating sections as needed.
// An existing key keeps its position.
func (s *Section) Set(path, value string) error {
	dir, key := splitPath(path)
	if !validName(key) {
		return fmt.Errorf("invalid parameter name in %q", path)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("value for %q spans lines", path)
	}
	value = strings.TrimSpace(value)
	cur := s
	if dir != "" {
		for _, name := range strings.Split(dir, ".") {
			if !validName(name) {
				return fmt.Errorf("invalid section name in %q", path)
			}
			next, ok := cur.Child(name)
			if !ok {
				next = NewSection(name, cur.Depth+1)
				cur.Sections = append(cur.Sections, next)
			}
			cur = next
		}
	}
	for i := range cur.Params {
		if cur.Params[i].Key == key {
			cur.Params[i].Value = value
			return nil
		}
	}
	cur.Params = append(cur.Params, Param{Key: key, Value: value})
	return nil
}

// validName reports whether name survives a write and re-parse unchanged.
func validName(name string) bool {
	return strings.TrimSpace(name) == name && name != "" && !strings.ContainsAny(name, "[]=# \t")
}

// Walk visits every section depth first, in file order, starting with s.
func (s *Section) Walk(fn func(path string, sec *Section)) {
	s.walk("", fn)
}

func (s *Section) walk(prefix string, fn func(string, *Section)) {
	path := prefix
	if s.Name != "" {
		if path != "" {
			path += "."
		}
		path += s.Name
	}
	fn(path, s)
	for _, c := range s.Sections {
		c.walk(path, fn)
	}
}

// List splits a comma separated value into its trimmed items.
func (p Param) List() []string {
	if strings.TrimSpace(p.Value) == "" {
		return nil
	}
	parts := strings.Split(p.Value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Bool interprets True/False values. ok is false for anything else.
func (p Param) Bool() (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(p.Value)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func splitPath(path string) (dir, key string) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
