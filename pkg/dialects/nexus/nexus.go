// Package nexus provides the Nexus partition dialect.
//
// Recognized statements (case-insensitive, terminated by ';'):
//
//	charset <name> = <a>-<b>[\3] [<c>-<d> ...];
//	partition <label> = <n>: <name>, <name>, ...;
//	set partition = <label>;
//	lset  [applyto=(<i>,... | all)] <option> ...;
//	prset [applyto=(<i>,... | all)] <option> ...;
//	charpartition <label> = <model>: <name> ..., <model>: <name> ...;
//
// Square-bracket comments are ignored, as is every other statement, except
// a [&partition=<name>] command comment inside a charset statement: it names
// the codon partition that charset starts, so frames written as <name>_1,
// <name>_2, ... read back under <name>.
// The applyto indexes are 1-based positions in the selected partition
// statement, or in charset declaration order when there is none.
package nexus

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/phylopart/pkg/core"
	"github.com/leapstack-labs/phylopart/pkg/dialect"
)

// Name is the dialect identifier.
const Name = "nexus"

// Dialect implements dialect.Dialect for Nexus charset blocks.
type Dialect struct{}

func init() {
	dialect.Register(&Dialect{})
}

// Name returns "nexus".
func (*Dialect) Name() string { return Name }

// Priority places Nexus before line-oriented dialects.
func (*Dialect) Priority() int { return 10 }

var (
	nexusHeader = regexp.MustCompile(`(?i)#nexus`)
	charsetLine = regexp.MustCompile(`(?im)^\s*charset\s+\S`)
	eqSpace     = regexp.MustCompile(`\s*=\s*`)
	applyTo     = regexp.MustCompile(`(?i)applyto=\(([^)]*)\)`)
	nameToken   = regexp.MustCompile(`'[^']*'|"[^"]*"|\S+`)

	partitionNote   = regexp.MustCompile(`(?i)\[&partition\s*=\s*('[^']*'|"[^"]*"|[^\]\s]+)\s*\]`)
	partitionNoteAt = regexp.MustCompile(`^` + partitionNote.String())
)

// Sniff accepts content with a #NEXUS header or a charset statement.
func (*Dialect) Sniff(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) >= 6 && strings.EqualFold(string(trimmed[:6]), "#nexus") {
		return true
	}
	return charsetLine.Match(content)
}

// statement is one ';'-terminated command with the line it starts on.
type statement struct {
	cmd  string
	body string
	line int
}

// modelStmt is an lset/prset statement kept for the model pass.
type modelStmt struct {
	applyTo []string // nil means every declaration
	options []string
	line    int
}

// Parse builds a layout from a Nexus document.
func (*Dialect) Parse(content []byte) (*core.Layout, error) {
	var (
		decls      []dialect.Declaration
		partitions = make(map[string][]string)
		partOrder  []string
		selected   string
		models     []modelStmt
		charparts  []statement
	)

	text := nexusHeader.ReplaceAllString(stripComments(string(content)), "")
	for _, st := range statements(text) {
		var label string
		if m := partitionNote.FindStringSubmatch(st.body); m != nil {
			label = unquote(m[1])
			st.body = partitionNote.ReplaceAllString(st.body, " ")
		}

		switch st.cmd {
		case "charset":
			name, spec, ok := strings.Cut(st.body, "=")
			if !ok {
				return nil, &core.MalformedPartitionError{Line: st.line, Message: "charset without '='"}
			}
			name = unquote(name)
			terms, err := dialect.ParseTerms(spec, st.line, name)
			if err != nil {
				return nil, err
			}
			decls = append(decls, dialect.Declaration{Name: name, Terms: terms, Line: st.line, Label: label})

		case "partition":
			label, members, err := parsePartition(st)
			if err != nil {
				return nil, err
			}
			partitions[label] = members
			partOrder = append(partOrder, label)

		case "set":
			body := eqSpace.ReplaceAllString(st.body, "=")
			for _, field := range strings.Fields(body) {
				if k, v, ok := strings.Cut(field, "="); ok && strings.EqualFold(k, "partition") {
					selected = unquote(v)
				}
			}

		case "lset", "prset":
			models = append(models, parseModelStmt(st))

		case "charpartition":
			charparts = append(charparts, st)
		}
	}

	if len(decls) == 0 {
		return nil, &core.MalformedPartitionError{Message: "no charset statements found"}
	}

	asm, err := dialect.Assemble(decls)
	if err != nil {
		return nil, err
	}

	order := asm.Order
	if selected == "" && len(partOrder) > 0 {
		selected = partOrder[len(partOrder)-1]
	}
	if selected != "" {
		members, ok := partitions[selected]
		if !ok {
			return nil, &core.MalformedPartitionError{Message: fmt.Sprintf("set partition refers to undefined partition %q", selected)}
		}
		order = members
	}

	if err := detectModels(asm, order, models); err != nil {
		return nil, err
	}
	if err := applyCharPartitions(asm, charparts); err != nil {
		return nil, err
	}

	return &core.Layout{Dialect: Name, Partitions: asm.Partitions}, nil
}

// detectModels is the second pass: it records lset/prset options verbatim
// on the model slots they apply to.
func detectModels(asm *dialect.Assembly, order []string, models []modelStmt) error {
	for _, name := range order {
		if _, ok := asm.Refs[name]; !ok {
			return &core.MalformedPartitionError{Name: name, Message: "partition statement names an undefined charset"}
		}
	}

	for _, m := range models {
		targets := order
		if m.applyTo != nil {
			targets = nil
			for _, idx := range m.applyTo {
				if strings.EqualFold(idx, "all") {
					targets = order
					break
				}
				n, err := strconv.Atoi(idx)
				if err != nil || n < 1 || n > len(order) {
					return &core.MalformedPartitionError{Line: m.line, Message: fmt.Sprintf("applyto index %q out of range", idx)}
				}
				targets = append(targets, order[n-1])
			}
		}

		for _, name := range targets {
			ref := asm.Refs[name]
			part := &asm.Partitions[ref.Partition]
			for _, s := range ref.Slots {
				part.Model.Params[s] = append(part.Model.Params[s], m.options...)
			}
		}
	}
	return nil
}

// applyCharPartitions assigns model names from charpartition statements.
func applyCharPartitions(asm *dialect.Assembly, stmts []statement) error {
	for _, st := range stmts {
		_, spec, ok := strings.Cut(st.body, "=")
		if !ok {
			return &core.MalformedPartitionError{Line: st.line, Message: "charpartition without '='"}
		}
		for _, entry := range strings.Split(spec, ",") {
			model, members, ok := strings.Cut(entry, ":")
			if !ok {
				return &core.MalformedPartitionError{Line: st.line, Message: fmt.Sprintf("charpartition entry %q has no model", strings.TrimSpace(entry))}
			}
			model = strings.TrimSpace(model)
			for _, name := range nameToken.FindAllString(members, -1) {
				name = unquote(name)
				ref, ok := asm.Refs[name]
				if !ok {
					return &core.MalformedPartitionError{Line: st.line, Name: name, Message: "charpartition names an undefined charset"}
				}
				for _, s := range ref.Slots {
					asm.Partitions[ref.Partition].Model.Names[s] = model
				}
			}
		}
	}
	return nil
}

func parsePartition(st statement) (string, []string, error) {
	label, spec, ok := strings.Cut(st.body, "=")
	if !ok {
		return "", nil, &core.MalformedPartitionError{Line: st.line, Message: "partition without '='"}
	}
	_, list, ok := strings.Cut(spec, ":")
	if !ok {
		return "", nil, &core.MalformedPartitionError{Line: st.line, Message: "partition without member count"}
	}
	var members []string
	for _, m := range strings.Split(list, ",") {
		if m = unquote(m); m != "" {
			members = append(members, m)
		}
	}
	return unquote(label), members, nil
}

func parseModelStmt(st statement) modelStmt {
	body := eqSpace.ReplaceAllString(st.body, "=")
	m := modelStmt{line: st.line}
	if match := applyTo.FindStringSubmatch(body); match != nil {
		m.applyTo = []string{}
		for _, idx := range strings.Split(match[1], ",") {
			if idx = strings.TrimSpace(idx); idx != "" {
				m.applyTo = append(m.applyTo, idx)
			}
		}
		body = applyTo.ReplaceAllString(body, "")
	}
	m.options = splitOptions(body)
	return m
}

// splitOptions splits on whitespace outside parentheses, so
// "statefreqpr=dirichlet(1, 1, 1, 1)" stays one option.
func splitOptions(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case depth == 0 && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
			continue
		case depth > 0 && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}

// stripComments blanks out [...] comments, keeping newlines so line
// numbers stay accurate. [&partition=...] comments are kept for Parse.
func stripComments(s string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); {
		if depth == 0 && s[i] == '[' {
			if loc := partitionNoteAt.FindStringIndex(s[i:]); loc != nil {
				b.WriteString(s[i : i+loc[1]])
				i += loc[1]
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth > 0:
			if r == '\n' {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// statements splits text on ';' and classifies each statement by its
// first word.
func statements(text string) []statement {
	var out []statement
	line := 1
	for _, raw := range strings.Split(text, ";") {
		start := line + strings.Count(raw[:len(raw)-len(strings.TrimLeft(raw, " \t\r\n"))], "\n")
		line += strings.Count(raw, "\n")

		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		cmd, body, _ := strings.Cut(trimmed, " ")
		if i := strings.IndexAny(cmd, "\t\r\n"); i >= 0 {
			cmd, body = cmd[:i], trimmed[i:]
		}
		out = append(out, statement{cmd: strings.ToLower(cmd), body: strings.TrimSpace(body), line: start})
	}
	return out
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `'"`)
}
