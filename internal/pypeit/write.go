package pypeit

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

const (
	configBanner = "# User-defined execution parameters"
	setupBanner  = "# Setup"
	dataBanner   = "# Data block "
)

// Write serializes f in the canonical layout: preamble, configuration,
// setup block and data block, with table columns aligned.
func Write(w io.Writer, f *File) error {
	bw := bufio.NewWriter(w)

	wrote := false
	gap := func() {
		if wrote {
			fmt.Fprintln(bw)
		}
		wrote = true
	}

	if len(f.Preamble) > 0 {
		for _, line := range f.Preamble {
			fmt.Fprintln(bw, line)
		}
		// The blank line is what marks the preamble when reading it back
		fmt.Fprintln(bw)
	}

	if f.Config != nil && (len(f.Config.Params) > 0 || len(f.Config.Sections) > 0) {
		gap()
		fmt.Fprintln(bw, configBanner)
		writeSection(bw, f.Config)
	}

	if f.HasSetupBlock || len(f.Setups) > 0 {
		gap()
		fmt.Fprintln(bw, setupBanner)
		fmt.Fprintln(bw, setupRead)
		if err := writeSetups(bw, f.Setups); err != nil {
			return err
		}
		fmt.Fprintln(bw, setupEnd)
	}

	if f.Table != nil {
		gap()
		fmt.Fprintln(bw, dataBanner)
		fmt.Fprintln(bw, dataRead)
		writeTable(bw, f.Table)
		fmt.Fprintln(bw, dataEnd)
	}

	return bw.Flush()
}

// Format returns the canonical text of f.
func Format(f *File) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile atomically replaces path with the canonical text of f.
func WriteFile(path string, f *File) error {
	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending reduction file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			slog.Debug("cleanup pending reduction file", "path", path, "err", err)
		}
	}()

	if err := Write(pendingFile, f); err != nil {
		return fmt.Errorf("write reduction file: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace reduction file: %w", err)
	}
	return nil
}

func writeSection(w io.Writer, s *Section) {
	if s.Depth > 0 {
		indent := strings.Repeat("    ", s.Depth-1)
		fmt.Fprintf(w, "%s%s%s%s\n", indent, strings.Repeat("[", s.Depth), s.Name, strings.Repeat("]", s.Depth))
	}
	indent := strings.Repeat("    ", s.Depth)
	for _, p := range s.Params {
		if p.Value == "" {
			fmt.Fprintf(w, "%s%s =\n", indent, p.Key)
			continue
		}
		fmt.Fprintf(w, "%s%s = %s\n", indent, p.Key, p.Value)
	}
	for _, c := range s.Sections {
		writeSection(w, c)
	}
}

func writeSetups(w io.Writer, setups []Setup) error {
	if len(setups) == 0 {
		return nil
	}
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range setups {
		attrs := &yaml.Node{Kind: yaml.MappingNode}
		for _, a := range s.Attrs {
			attrs.Content = append(attrs.Content, strNode(a.Key), valueNode(a.Value))
		}
		root.Content = append(root.Content, strNode(s.Name), attrs)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("failed to encode setup block: %w", err)
	}
	return enc.Close()
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func valueNode(v string) *yaml.Node {
	if v == "" {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}
	}
	return strNode(v)
}

func writeTable(w io.Writer, t *Table) {
	for _, p := range t.Paths {
		fmt.Fprintf(w, " path %s\n", p)
	}
	if len(t.Columns) == 0 {
		return
	}

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = len(c)
	}
	for _, r := range t.Rows {
		for i, v := range r.Fields {
			if i < len(widths) && len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	fmt.Fprintln(w, formatRow(t.Columns, widths))
	for _, r := range t.Rows {
		line := formatRow(r.Fields, widths)
		if r.Commented {
			line = "#" + line
		}
		fmt.Fprintln(w, line)
	}
}

func formatRow(fields []string, widths []int) string {
	cells := make([]string, len(fields))
	for i, v := range fields {
		width := 0
		if i < len(widths) {
			width = widths[i]
		}
		cells[i] = fmt.Sprintf("%*s", width, v)
	}
	return "| " + strings.Join(cells, " | ") + " |"
}
