// Package format renders partition layouts for downstream inference tools
// (MrBayes-style Nexus blocks, RAxML partition files) and as YAML.
package format

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

const indent = "\t"

// printer accumulates indented output lines.
type printer struct {
	output *bytes.Buffer
	depth  int
}

func newPrinter() *printer {
	return &printer{output: &bytes.Buffer{}}
}

func (p *printer) linef(format string, args ...any) {
	p.output.WriteString(strings.Repeat(indent, p.depth))
	fmt.Fprintf(p.output, format, args...)
	p.output.WriteByte('\n')
}

func (p *printer) blank() {
	p.output.WriteByte('\n')
}

func (p *printer) indent() {
	p.depth++
}

func (p *printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *printer) flush(w io.Writer) error {
	_, err := w.Write(p.output.Bytes())
	return err
}

// quote wraps a Nexus token in single quotes when it would not survive
// tokenizing.
func quote(name string) string {
	if strings.ContainsAny(name, " \t\n,;:=[]()'\"") {
		return "'" + strings.ReplaceAll(name, "'", "") + "'"
	}
	return name
}
