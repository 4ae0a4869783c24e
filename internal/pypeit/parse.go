package pypeit

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Block delimiters.
const (
	setupRead = "setup read"
	setupEnd  = "setup end"
	dataRead  = "data read"
	dataEnd   = "data end"
)

// ParseFile opens and parses the reduction file at path.
func ParseFile(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reduction file: %w", err)
	}
	defer file.Close()

	f, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

type parseState int

const (
	inConfig parseState = iota
	inSetup
	inData
)

type parser struct {
	file  *File
	state parseState

	// preamble tracking: leading comments followed by a blank line
	started    bool
	leading    []string
	seenSetup  bool
	seenData   bool
	blockStart int

	// config section stack, stack[0] is the root
	stack []*Section

	setupLines []string
}

// Parse reads a reduction file from r.
func Parse(r io.Reader) (*File, error) {
	p := &parser{file: NewFile()}
	p.stack = []*Section{p.file.Config}

	scanner := bufio.NewScanner(r)
	// Data rows with many instrument columns can be long
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		text := scanner.Text()
		if lineNum == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if err := p.line(lineNum, text); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading reduction file: %w", err)
	}

	switch p.state {
	case inSetup:
		return nil, parseErr(p.blockStart, ErrUnbalancedBlock, "%q without %q", setupRead, setupEnd)
	case inData:
		return nil, parseErr(p.blockStart, ErrUnbalancedBlock, "%q without %q", dataRead, dataEnd)
	}

	rows := 0
	if p.file.Table != nil {
		rows = len(p.file.Table.Rows)
	}
	slog.Debug("Parsed reduction file",
		"lines", lineNum,
		"spectrograph", p.file.Spectrograph(),
		"setups", len(p.file.Setups),
		"rows", rows)

	return p.file, nil
}

func (p *parser) line(n int, raw string) error {
	text := strings.TrimSpace(raw)

	switch p.state {
	case inSetup:
		return p.setupLine(n, raw, text)
	case inData:
		return p.dataLine(n, text)
	}

	if !p.started {
		switch {
		case strings.HasPrefix(text, "#"):
			p.leading = append(p.leading, strings.TrimRight(raw, " \t\r"))
			return nil
		case text == "":
			// A comment block closed by a blank line is the preamble
			if len(p.leading) > 0 {
				p.file.Preamble = p.leading
				p.leading = nil
				p.started = true
			}
			return nil
		default:
			p.leading = nil
			p.started = true
		}
	}

	if text == "" || strings.HasPrefix(text, "#") {
		return nil
	}

	switch text {
	case setupRead:
		if p.seenSetup {
			return parseErr(n, ErrDuplicateBlock, "second setup block")
		}
		p.seenSetup = true
		p.file.HasSetupBlock = true
		p.state = inSetup
		p.blockStart = n
		return nil
	case dataRead:
		if p.seenData {
			return parseErr(n, ErrDuplicateBlock, "second data block")
		}
		p.seenData = true
		p.file.Table = &Table{}
		p.state = inData
		p.blockStart = n
		return nil
	case setupEnd, dataEnd:
		return parseErr(n, ErrUnbalancedBlock, "%q outside of a block", text)
	}

	if strings.HasPrefix(text, "[") {
		return p.sectionHeader(n, text)
	}
	return p.param(n, text)
}

func (p *parser) sectionHeader(n int, text string) error {
	open := len(text) - len(strings.TrimLeft(text, "["))
	closing := len(text) - len(strings.TrimRight(text, "]"))
	if open != closing || open == 0 {
		return parseErr(n, ErrSyntax, "unbalanced brackets in section header %q", text)
	}
	name := strings.TrimSpace(text[open : len(text)-closing])
	if name == "" || strings.ContainsAny(name, "[]") {
		return parseErr(n, ErrSyntax, "invalid section header %q", text)
	}

	depth := open
	if depth > len(p.stack) {
		return parseErr(n, ErrSyntax, "section %q is nested more than one level below its parent", name)
	}
	p.stack = p.stack[:depth]
	parent := p.stack[depth-1]
	if _, exists := parent.Child(name); exists {
		return parseErr(n, ErrSyntax, "duplicate section %q", name)
	}
	sec := NewSection(name, depth)
	parent.Sections = append(parent.Sections, sec)
	p.stack = append(p.stack, sec)
	return nil
}

func (p *parser) param(n int, text string) error {
	key, value, ok := strings.Cut(text, "=")
	if !ok {
		return parseErr(n, ErrSyntax, "expected key = value, got %q", text)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return parseErr(n, ErrSyntax, "missing parameter name in %q", text)
	}
	sec := p.stack[len(p.stack)-1]
	if _, exists := sec.Get(key); exists {
		return parseErr(n, ErrSyntax, "duplicate parameter %q", key)
	}
	sec.Params = append(sec.Params, Param{Key: key, Value: strings.TrimSpace(value)})
	return nil
}

func (p *parser) setupLine(n int, raw, text string) error {
	switch text {
	case setupEnd:
		p.state = inConfig
		return p.decodeSetups()
	case setupRead, dataRead, dataEnd:
		return parseErr(n, ErrUnbalancedBlock, "%q inside setup block opened at line %d", text, p.blockStart)
	}
	p.setupLines = append(p.setupLines, raw)
	return nil
}

// decodeSetups reads the setup block, which is a YAML mapping of setup
// names to attribute mappings.
func (p *parser) decodeSetups() error {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(strings.Join(p.setupLines, "\n")), &doc); err != nil {
		return parseErr(p.blockStart, ErrSyntax, "setup block: %v", err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return parseErr(p.blockStart+root.Line, ErrSyntax, "setup block must be a mapping of setup names")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		line := p.blockStart + keyNode.Line
		setup := Setup{Name: keyNode.Value}
		if _, dup := p.file.Setup(setup.Name); dup {
			return parseErr(line, ErrSyntax, "duplicate setup %q", setup.Name)
		}

		switch {
		case valNode.Kind == yaml.ScalarNode && valNode.Tag == "!!null":
		case valNode.Kind == yaml.MappingNode:
			for j := 0; j+1 < len(valNode.Content); j += 2 {
				k, v := valNode.Content[j], valNode.Content[j+1]
				if v.Kind != yaml.ScalarNode {
					return parseErr(p.blockStart+v.Line, ErrSyntax, "setup %q attribute %q must be a scalar", setup.Name, k.Value)
				}
				if _, dup := setup.Get(k.Value); dup {
					return parseErr(p.blockStart+k.Line, ErrSyntax, "setup %q repeats attribute %q", setup.Name, k.Value)
				}
				setup.Attrs = append(setup.Attrs, Attr{Key: k.Value, Value: scalarValue(v)})
			}
		default:
			return parseErr(line, ErrSyntax, "setup %q must map attribute names to values", setup.Name)
		}
		p.file.Setups = append(p.file.Setups, setup)
	}
	p.setupLines = nil
	return nil
}

func scalarValue(n *yaml.Node) string {
	if n.Tag == "!!null" {
		return ""
	}
	return n.Value
}

func (p *parser) dataLine(n int, text string) error {
	t := p.file.Table

	switch text {
	case dataEnd:
		p.state = inConfig
		return nil
	case dataRead, setupRead, setupEnd:
		return parseErr(n, ErrUnbalancedBlock, "%q inside data block opened at line %d", text, p.blockStart)
	case "":
		return nil
	}

	if strings.HasPrefix(text, "#") {
		// Commented-out frames are retained when they still fit the table
		rest := strings.TrimSpace(strings.TrimLeft(text, "#"))
		if t.Columns == nil || !strings.Contains(rest, "|") {
			return nil
		}
		fields := splitRow(rest)
		if len(fields) != len(t.Columns) {
			return nil
		}
		t.Rows = append(t.Rows, Row{Line: n, Fields: fields, Commented: true})
		return nil
	}

	if t.Columns == nil {
		if dir, ok := strings.CutPrefix(text, "path "); ok {
			t.Paths = append(t.Paths, strings.TrimSpace(dir))
			return nil
		}
		if text == "path" {
			return parseErr(n, ErrSyntax, "path line without a directory")
		}
		if !strings.HasPrefix(text, "|") || !strings.HasSuffix(text, "|") || len(text) < 2 {
			return parseErr(n, ErrSyntax, "expected a path line or a |-wrapped header row, got %q", text)
		}
		cols := splitRow(text)
		seen := make(map[string]bool, len(cols))
		for _, c := range cols {
			if c == "" {
				return parseErr(n, ErrSyntax, "empty column name in header")
			}
			if seen[c] {
				return parseErr(n, ErrSyntax, "duplicate column %q", c)
			}
			seen[c] = true
		}
		t.Columns = cols
		return nil
	}

	if !strings.Contains(text, "|") {
		return parseErr(n, ErrSyntax, "expected a |-delimited data row, got %q", text)
	}
	fields := splitRow(text)
	if len(fields) != len(t.Columns) {
		return parseErr(n, ErrColumnCount, "row has %d fields, header has %d columns", len(fields), len(t.Columns))
	}
	t.Rows = append(t.Rows, Row{Line: n, Fields: fields})
	return nil
}

// splitRow splits a |-delimited row, dropping the outer pipes.
func splitRow(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "|")
	text = strings.TrimSuffix(text, "|")
	parts := strings.Split(text, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
