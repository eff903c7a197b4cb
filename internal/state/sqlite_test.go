package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/phylopart/internal/testutil"
	"github.com/leapstack-labs/phylopart/pkg/core"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleLayout() *core.Layout {
	return &core.Layout{
		Dialect: "nexus",
		Partitions: []core.Partition{
			core.NewPartition("BaseConc1.fas", core.Range{Start: 0, End: 84}, "BaseConc1.fas"),
			{
				Name:       "BaseConc2.fas_86",
				Ranges:     []core.Range{{Start: 85, End: 169}},
				Codon:      []int{0, 1, 2},
				Alignments: []string{"BaseConc2.fas"},
				Model:      core.Model{Params: [][]string{{"nst=6"}, {}, {}}, Names: []string{"GTR", "", ""}, Links: []string{"12", "3"}},
			},
		},
	}
}

func TestSQLiteStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	for _, table := range []string{"alignments", "layouts"} {
		rows, err := store.DB().Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_OpenFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".phylopart", "state.db")

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	_, err := store.SaveLayout(context.Background(), "import", sampleLayout())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer reopened.Close()

	snap, err := reopened.LatestLayout(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, path, reopened.Path())
	assert.Equal(t, sampleLayout(), snap.Layout)
}

func TestSQLiteStore_Alignments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	in := []Alignment{
		{Name: "b.fas", Path: "/data/b.fas", Format: "fasta", Length: 85, Taxa: 4},
		{Name: "a.fas", Path: "/data/a.fas", Format: "fasta", Length: 120, Taxa: 4},
	}
	require.NoError(t, store.SaveAlignments(ctx, in))

	got, err := store.ListAlignments(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b.fas", got[0].Name)
	assert.Equal(t, 1, got[1].Position)
	assert.NotEmpty(t, got[0].ID)

	// Saving again replaces the list.
	require.NoError(t, store.SaveAlignments(ctx, in[1:]))
	got, err = store.ListAlignments(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a.fas", got[0].Name)
}

func TestSQLiteStore_Layouts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	latest, err := store.LatestLayout(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	first, err := store.SaveLayout(ctx, "import", sampleLayout())
	require.NoError(t, err)

	renamed := sampleLayout()
	renamed.Partitions[0].Name = "cox1"
	second, err := store.SaveLayout(ctx, "rename", renamed)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	latest, err = store.LatestLayout(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "rename", latest.Operation)
	assert.Equal(t, []string{"cox1", "BaseConc2.fas_86"}, latest.Layout.Names())

	history, err := store.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[1].ID)

	history, err = store.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	_, err := store.LatestLayout(ctx)
	assert.Error(t, err)
	assert.Error(t, store.SaveAlignments(ctx, nil))
	assert.NoError(t, store.Close())
}
