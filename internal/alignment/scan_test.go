package alignment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/phylopart/internal/testutil"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestScan(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    Source
	}{
		{
			name:    "wrapped fasta",
			file:    "gene.fas",
			content: ">a\nACGT\nAC\n\n>b\nAC-T\nNN\n",
			want:    Source{Format: FormatFasta, Length: 6, Taxa: 2},
		},
		{
			name:    "sequential phylip",
			file:    "gene.phy",
			content: "  3 12\nspa ACGTACGTACGT\nspb ACGTACGTACGT\nspc ACGTACGTACGT\n",
			want:    Source{Format: FormatPhylip, Length: 12, Taxa: 3},
		},
		{
			name:    "nexus matrix",
			file:    "gene.nex",
			content: "#NEXUS\nbegin data;\n\tdimensions ntax=4 nchar=85;\n\tmatrix\nend;\n",
			want:    Source{Format: FormatNexus, Length: 85, Taxa: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			got, err := Scan(context.Background(), path)
			require.NoError(t, err)

			tt.want.Name = tt.file
			tt.want.Path = path
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScan_Errors(t *testing.T) {
	unaligned := writeFile(t, "bad.fas", ">a\nACGT\n>b\nACG\n")
	_, err := Scan(context.Background(), unaligned)
	var ue *UnalignedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "b", ue.Taxon)
	assert.Equal(t, 3, ue.Length)
	assert.Equal(t, 4, ue.Want)

	for _, content := range []string{"", "\n\n", "not an alignment\n", "#NEXUS\nbegin data;\nend;\n", ">a\n"} {
		_, err := Scan(context.Background(), writeFile(t, "x.aln", content))
		assert.Error(t, err, "content %q", content)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Scan(ctx, unaligned)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanAll_KeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, name := range []string{"c.fas", "a.fas", "b.fas"} {
		paths = append(paths, testutil.WriteFasta(t, dir, name, []string{"x", "y"}, 10*(i+1)))
	}

	sources, err := ScanAll(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, "c.fas", sources[0].Name)
	assert.Equal(t, 30, sources[2].Length)
}
