package compare

import (
	"strings"

	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// Change kinds
const (
	KindAdded   = "added"
	KindRemoved = "removed"
	KindChanged = "changed"
)

// Change is one differing parameter, setup attribute, column or cell.
type Change struct {
	Key  string `json:"key" yaml:"key"`
	Kind string `json:"kind" yaml:"kind"`
	Old  string `json:"old,omitempty" yaml:"old,omitempty"`
	New  string `json:"new,omitempty" yaml:"new,omitempty"`
}

// FrameDiff describes how one frame differs between the two files. Cells is
// set only for changed frames.
type FrameDiff struct {
	Filename string   `json:"filename" yaml:"filename"`
	Kind     string   `json:"kind" yaml:"kind"`
	Cells    []Change `json:"cells,omitempty" yaml:"cells,omitempty"`
}

// ColumnStats counts, for one column present in both tables, how many
// frames kept or changed their value.
type ColumnStats struct {
	Same    int `json:"same" yaml:"same"`
	Changed int `json:"changed" yaml:"changed"`
}

// Comparison is the difference between an old and a new reduction file.
type Comparison struct {
	Old         string                 `json:"old" yaml:"old"`
	New         string                 `json:"new" yaml:"new"`
	Params      []Change               `json:"params,omitempty" yaml:"params,omitempty"`
	Setups      []Change               `json:"setups,omitempty" yaml:"setups,omitempty"`
	Paths       []Change               `json:"paths,omitempty" yaml:"paths,omitempty"`
	Columns     []Change               `json:"columns,omitempty" yaml:"columns,omitempty"`
	Frames      []FrameDiff            `json:"frames,omitempty" yaml:"frames,omitempty"`
	ColumnStats map[string]ColumnStats `json:"column_stats,omitempty" yaml:"column_stats,omitempty"`
	Unchanged   int                    `json:"unchanged" yaml:"unchanged"`
}

// Equal reports whether the files have the same parameters, setups, paths
// and active frames.
func (c *Comparison) Equal() bool {
	return len(c.Params) == 0 && len(c.Setups) == 0 && len(c.Paths) == 0 &&
		len(c.Columns) == 0 && len(c.Frames) == 0
}

// Count returns the number of frame diffs of the given kind.
func (c *Comparison) Count(kind string) int {
	n := 0
	for _, fd := range c.Frames {
		if fd.Kind == kind {
			n++
		}
	}
	return n
}

// Files compares two parsed reduction files. Frames are matched by
// filename; commented-out rows count as absent.
func Files(oldName string, a *pypeit.File, newName string, b *pypeit.File) *Comparison {
	c := &Comparison{
		Old:         oldName,
		New:         newName,
		ColumnStats: make(map[string]ColumnStats),
	}
	c.Params = diffPairs(flattenParams(a.Config), flattenParams(b.Config))
	c.Setups = diffPairs(flattenSetups(a.Setups), flattenSetups(b.Setups))
	c.compareTables(a.Table, b.Table)
	return c
}

func (c *Comparison) compareTables(a, b *pypeit.Table) {
	if a == nil {
		a = &pypeit.Table{}
	}
	if b == nil {
		b = &pypeit.Table{}
	}
	c.Paths = diffSets(a.Paths, b.Paths)
	c.Columns = diffSets(a.Columns, b.Columns)

	var common []string
	for _, col := range a.Columns {
		if col != pypeit.ColFilename && b.HasColumn(col) {
			common = append(common, col)
		}
	}

	newRows := make(map[string]pypeit.Row)
	for _, r := range b.Active() {
		name, _ := b.Get(r, pypeit.ColFilename)
		newRows[name] = r
	}

	seen := make(map[string]bool)
	for _, oldRow := range a.Active() {
		name, _ := a.Get(oldRow, pypeit.ColFilename)
		seen[name] = true
		newRow, ok := newRows[name]
		if !ok {
			c.Frames = append(c.Frames, FrameDiff{Filename: name, Kind: KindRemoved})
			continue
		}

		var cells []Change
		for _, col := range common {
			ov, _ := a.Get(oldRow, col)
			nv, _ := b.Get(newRow, col)
			stats := c.ColumnStats[col]
			if ov == nv {
				stats.Same++
			} else {
				stats.Changed++
				cells = append(cells, Change{Key: col, Kind: KindChanged, Old: ov, New: nv})
			}
			c.ColumnStats[col] = stats
		}
		if len(cells) == 0 {
			c.Unchanged++
			continue
		}
		c.Frames = append(c.Frames, FrameDiff{Filename: name, Kind: KindChanged, Cells: cells})
	}

	for _, r := range b.Active() {
		name, _ := b.Get(r, pypeit.ColFilename)
		if !seen[name] {
			c.Frames = append(c.Frames, FrameDiff{Filename: name, Kind: KindAdded})
		}
	}
}

// flattenParams lists the parameters under dotted keys in file order.
func flattenParams(root *pypeit.Section) []pypeit.Param {
	if root == nil {
		return nil
	}
	var out []pypeit.Param
	root.Walk(func(path string, sec *pypeit.Section) {
		for _, p := range sec.Params {
			key := p.Key
			if path != "" {
				key = path + "." + p.Key
			}
			out = append(out, pypeit.Param{Key: key, Value: p.Value})
		}
	})
	return out
}

func flattenSetups(setups []pypeit.Setup) []pypeit.Param {
	var out []pypeit.Param
	for _, s := range setups {
		if len(s.Attrs) == 0 {
			out = append(out, pypeit.Param{Key: s.Name})
		}
		for _, a := range s.Attrs {
			out = append(out, pypeit.Param{Key: s.Name + "." + a.Key, Value: a.Value})
		}
	}
	return out
}

// diffPairs compares ordered key/value lists. Old keys come first in their
// order, followed by keys only in b.
func diffPairs(a, b []pypeit.Param) []Change {
	newValues := make(map[string]string, len(b))
	for _, p := range b {
		newValues[p.Key] = p.Value
	}

	var out []Change
	seen := make(map[string]bool, len(a))
	for _, p := range a {
		seen[p.Key] = true
		nv, ok := newValues[p.Key]
		switch {
		case !ok:
			out = append(out, Change{Key: p.Key, Kind: KindRemoved, Old: p.Value})
		case strings.TrimSpace(nv) != strings.TrimSpace(p.Value):
			out = append(out, Change{Key: p.Key, Kind: KindChanged, Old: p.Value, New: nv})
		}
	}
	for _, p := range b {
		if !seen[p.Key] {
			out = append(out, Change{Key: p.Key, Kind: KindAdded, New: p.Value})
		}
	}
	return out
}

func diffSets(a, b []string) []Change {
	inA := make(map[string]bool, len(a))
	for _, s := range a {
		inA[s] = true
	}
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}

	var out []Change
	for _, s := range a {
		if !inB[s] {
			out = append(out, Change{Key: s, Kind: KindRemoved})
		}
	}
	for _, s := range b {
		if !inA[s] {
			out = append(out, Change{Key: s, Kind: KindAdded})
		}
	}
	return out
}
