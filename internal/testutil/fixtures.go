package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestdataDir returns the absolute path of the repository testdata directory.
func TestdataDir(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok, "cannot locate testutil source")
	return filepath.Join(filepath.Dir(file), "..", "..", "testdata")
}

// PartitionFile returns the path of a partition fixture.
func PartitionFile(t testing.TB, name string) string {
	t.Helper()
	return filepath.Join(TestdataDir(t), "partitions", name)
}

// ReadPartitionFile returns the contents of a partition fixture.
func ReadPartitionFile(t testing.TB, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(PartitionFile(t, name))
	require.NoError(t, err)
	return data
}

// WriteFasta writes a FASTA alignment with the given taxa, each carrying a
// sequence of length columns, and returns its path.
func WriteFasta(t testing.TB, dir, name string, taxa []string, length int) string {
	t.Helper()
	var b strings.Builder
	for i, taxon := range taxa {
		b.WriteString(">" + taxon + "\n")
		seq := strings.Repeat(string("ACGT"[i%4]), length)
		for len(seq) > 60 {
			b.WriteString(seq[:60] + "\n")
			seq = seq[60:]
		}
		b.WriteString(seq + "\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}
