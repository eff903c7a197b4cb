// Package phylip provides the RAxML-style partition dialect used next to
// Phylip alignments. Each non-blank line declares one partition:
//
//	DNA, gene1 = 1-85
//	WAG, gene2 = 86-170, 300-320
//	DNA, gene3 = 171-255\3
//	DNA, gene4 = 256-340\3, 257-340\3, 258-340\3
//
// The leading token is recorded as the model name of every slot the line
// addresses. Lines starting with '#' are comments.
package phylip

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/phylopart/pkg/core"
	"github.com/leapstack-labs/phylopart/pkg/dialect"
)

// Name is the dialect identifier.
const Name = "phylip"

// Dialect implements dialect.Dialect for RAxML partition lines.
type Dialect struct{}

func init() {
	dialect.Register(&Dialect{})
}

// Name returns "phylip".
func (*Dialect) Name() string { return Name }

// Priority is tried after Nexus.
func (*Dialect) Priority() int { return 20 }

var declLine = regexp.MustCompile(`^\s*([^,=\s]+)\s*,\s*([^=]*?)\s*=\s*(.+?)\s*$`)

// Sniff accepts content whose first meaningful line is a partition line.
func (*Dialect) Sniff(content []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return declLine.MatchString(line)
	}
	return false
}

// Parse builds a layout from partition lines.
func (*Dialect) Parse(content []byte) (*core.Layout, error) {
	var decls []dialect.Declaration

	sc := bufio.NewScanner(bytes.NewReader(content))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := declLine.FindStringSubmatch(line)
		if m == nil || m[2] == "" {
			return nil, &core.MalformedPartitionError{Line: n, Message: fmt.Sprintf("expected 'MODEL, name = ranges', got %q", line)}
		}
		model, name := m[1], m[2]

		terms, err := dialect.ParseTerms(m[3], n, name)
		if err != nil {
			return nil, err
		}
		decls = append(decls, declarations(name, model, terms, n)...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading partition lines: %w", err)
	}
	if len(decls) == 0 {
		return nil, &core.MalformedPartitionError{Message: "no partition lines found"}
	}

	asm, err := dialect.Assemble(decls)
	if err != nil {
		return nil, err
	}
	return &core.Layout{Dialect: Name, Partitions: asm.Partitions}, nil
}

// declarations splits a line with several codon terms into one declaration
// per frame, labelled name_1, name_2, ... so they group into one partition
// that keeps the line's name.
func declarations(name, model string, terms []dialect.Term, line int) []dialect.Declaration {
	split := len(terms) > 1
	for _, t := range terms {
		split = split && t.Stride == core.CodonStride
	}
	if !split {
		return []dialect.Declaration{{Name: name, Terms: terms, Line: line, Model: model}}
	}
	out := make([]dialect.Declaration, len(terms))
	for k, t := range terms {
		out[k] = dialect.Declaration{
			Name:  fmt.Sprintf("%s_%d", name, k+1),
			Terms: []dialect.Term{t},
			Line:  line,
			Model: model,
		}
	}
	out[0].Label = name
	return out
}
