package alignment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/phylopart/internal/state"
	"github.com/leapstack-labs/phylopart/internal/testutil"
	"github.com/leapstack-labs/phylopart/pkg/core"
)

var taxa = []string{"spa", "spb", "spc", "spd"}

func sevenAlignments(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 7)
	for i := range paths {
		paths[i] = testutil.WriteFasta(t, dir, fmt.Sprintf("BaseConc%d.fas", i+1), taxa, 85)
	}
	return paths
}

func TestImport(t *testing.T) {
	c := New(nil, testutil.NewTestLogger(t))
	require.NoError(t, c.Import(context.Background(), sevenAlignments(t)...))

	parts := c.Partitions()
	assert.Equal(t, 7, parts.Len())
	assert.Equal(t, "BaseConc1.fas", parts.Keys()[0])
	assert.Equal(t, 595, c.TotalLength())
	assert.Equal(t, 85, c.Lengths()["BaseConc3.fas"])
	assert.False(t, parts.IsSingle())
	assert.True(t, parts.Contiguous())
	require.NoError(t, c.Validate())

	third, ok := parts.Get("BaseConc3.fas")
	require.True(t, ok)
	assert.Equal(t, []core.Range{{Start: 170, End: 254}}, third.Ranges)
	assert.Equal(t, []string{"BaseConc3.fas"}, third.Alignments)
}

func TestImport_SingleAlignment(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.Import(context.Background(), sevenAlignments(t)[0]))
	assert.True(t, c.Partitions().IsSingle())
}

func TestImport_FailureAddsNothing(t *testing.T) {
	paths := sevenAlignments(t)
	paths = append(paths, filepath.Join(t.TempDir(), "missing.fas"))

	c := New(nil, nil)
	err := c.Import(context.Background(), paths...)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 0, c.Partitions().Len())
	assert.Empty(t, c.Sources())
}

func TestImport_DuplicateNameAddsNothing(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"a", "b"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, dir), 0o755))
	}
	paths := []string{
		testutil.WriteFasta(t, filepath.Join(root, "a"), "x.fas", taxa, 20),
		testutil.WriteFasta(t, filepath.Join(root, "a"), "y.fas", taxa, 30),
		testutil.WriteFasta(t, filepath.Join(root, "b"), "x.fas", taxa, 40),
	}

	c := New(nil, nil)
	var dup *core.DuplicateNameError
	require.ErrorAs(t, c.Import(context.Background(), paths...), &dup)
	assert.Equal(t, "x.fas", dup.Name)
	assert.Equal(t, 0, c.Partitions().Len())
	assert.Empty(t, c.Sources())

	// a name already imported is rejected before anything else is added
	require.NoError(t, c.Import(context.Background(), paths[1]))
	require.ErrorAs(t, c.Import(context.Background(), paths[0], paths[1]), &dup)
	assert.Equal(t, []string{"y.fas"}, c.Partitions().Keys())
	assert.Len(t, c.Sources(), 1)
}

func TestAdd_Errors(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.Add(Source{Name: "a.fas", Length: 10}))

	var dup *core.DuplicateNameError
	assert.True(t, errors.As(c.Add(Source{Name: "a.fas", Length: 10}), &dup))

	var malformed *core.MalformedPartitionError
	assert.True(t, errors.As(c.Add(Source{Name: "b.fas"}), &malformed))
	assert.Len(t, c.Sources(), 1)
}

func TestValidate_LengthMismatch(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.Import(context.Background(), sevenAlignments(t)...))
	require.NoError(t, c.Partitions().Remove("BaseConc3.fas"))

	var mismatch *LengthMismatchError
	require.True(t, errors.As(c.Validate(), &mismatch))
	assert.Equal(t, 510, mismatch.Partitions)
	assert.Equal(t, 595, mismatch.Alignments)
}

func TestStore_IsForwarded(t *testing.T) {
	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	defer store.Close()

	c := New(store.DB(), nil)
	assert.Same(t, store.DB(), c.Store())
}

func TestRestoreAndClear(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.Import(context.Background(), sevenAlignments(t)...))
	sources, layout := c.Sources(), c.Partitions().Snapshot()

	other := New(nil, nil)
	require.NoError(t, other.Restore(sources, layout))
	assert.Equal(t, c.Partitions().Keys(), other.Partitions().Keys())
	require.NoError(t, other.Validate())

	other.Clear()
	assert.Equal(t, 0, other.Partitions().Len())
	assert.Equal(t, 0, other.TotalLength())
}
