package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"", ModeAuto},
		{"auto", ModeAuto},
		{"TEXT", ModeText},
		{"markdown", ModeMarkdown},
		{"md", ModeMarkdown},
		{"json", ModeJSON},
		{"html", ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mode(tt.in))
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	tty, _, _ := newTestRenderer(ModeAuto, true)
	assert.Equal(t, ModeText, tty.EffectiveMode())

	piped, _, _ := newTestRenderer(ModeAuto, false)
	assert.Equal(t, ModeMarkdown, piped.EffectiveMode())

	forced, _, _ := newTestRenderer(ModeJSON, true)
	assert.Equal(t, ModeJSON, forced.EffectiveMode())
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
}

func TestMarkdownOutput(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown, false)

	r.Header(1, "Partitions (2 total)")
	r.Success("saved")
	r.Muted("state.db")
	r.Warning("gap after gene2")
	r.Error("not found")

	assert.Equal(t, "# Partitions (2 total)\n\n**OK:** saved\n_state.db_\n", out.String())
	assert.Contains(t, errOut.String(), "warning: gap after gene2")
	assert.Contains(t, errOut.String(), "not found")
}

func TestTextOutput_PlainWithoutTTY(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText, false)
	r.Header(2, "Models")
	r.Success("done")
	assert.Equal(t, "Models\n✓ done\n", out.String())
}

func TestTable(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		r.Table([]string{"Name", "Ranges"}, [][]string{{"gene1", "1-85"}, {"gene2", "86-170"}})
		s := out.String()
		assert.Contains(t, strings.ToLower(s), "| name")
		assert.Contains(t, s, "gene2")
		assert.Contains(t, s, "86-170")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, false)
		r.Table([]string{"Name"}, [][]string{{"gene1"}})
		assert.Contains(t, out.String(), "gene1")
		assert.Contains(t, out.String(), "│")
	})
}

func TestJSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"count": 7}))
	assert.JSONEq(t, `{"count": 7}`, out.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Models", FormatHeader(2, "Models"))
	assert.Equal(t, "# x", FormatHeader(0, "x"))
	assert.Equal(t, "- **Dialect**: nexus", FormatKeyValue("Dialect", "nexus"))
	assert.Equal(t, "Nexus", Title("nexus"))
}
