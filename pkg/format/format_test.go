package format

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/phylopart/internal/testutil"
	"github.com/leapstack-labs/phylopart/pkg/core"
	"github.com/leapstack-labs/phylopart/pkg/parser"
	"github.com/leapstack-labs/phylopart/pkg/partition"
)

func parseFixture(t *testing.T, name string) *core.Layout {
	t.Helper()
	layout, err := parser.Parse(testutil.ReadPartitionFile(t, name), parser.Options{})
	require.NoError(t, err)
	return layout
}

func TestNexus_Plain(t *testing.T) {
	parts := []core.Partition{
		{
			Name:       "gene one",
			Ranges:     []core.Range{{Start: 0, End: 9}, {Start: 20, End: 29}},
			Alignments: []string{"gene one"},
			Model:      core.Model{Params: [][]string{{"nst=6", "statefreqpr=dirichlet(1,1,1,1)", "rates=gamma"}}, Names: []string{"GTR"}},
		},
		{
			Name:       "two",
			Ranges:     []core.Range{{Start: 10, End: 19}},
			Alignments: []string{"two"},
			Model:      core.DefaultModel(1),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Nexus(&buf, parts))

	want := `#NEXUS

begin mrbayes;
	charset 'gene one' = 1-10 21-30;
	charset two = 11-20;

	partition part = 2: 'gene one', two;
	set partition = part;
	lset applyto=(1) nst=6;
	prset applyto=(1) statefreqpr=dirichlet(1,1,1,1);
	lset applyto=(1) rates=gamma;
	charpartition models = GTR: 'gene one';
end;
`
	assert.Equal(t, want, buf.String())
}

func TestNexus_Codon(t *testing.T) {
	layout := parseFixture(t, "concatenated_small_codon.nex")

	var buf bytes.Buffer
	require.NoError(t, Nexus(&buf, layout.Partitions))
	assert.Contains(t, buf.String(), "charset BaseConc1.fas_1 = 1-85\\3;\n")
	assert.Contains(t, buf.String(), "charset BaseConc1.fas_3 = 3-85\\3;\n")
	assert.Contains(t, buf.String(), "partition part = 9: BaseConc1.fas_1, BaseConc1.fas_2, BaseConc1.fas_3, BaseConc2.fas,")
}

func TestRAxML(t *testing.T) {
	layout := parseFixture(t, "concatenated_small.part")

	var buf bytes.Buffer
	require.NoError(t, RAxML(&buf, layout.Partitions))
	assert.Equal(t, string(testutil.ReadPartitionFile(t, "concatenated_small.part")), buf.String())
}

func TestRAxML_CodonAndDefaultModel(t *testing.T) {
	layout := parseFixture(t, "concatenated_small_codon.nex")

	var buf bytes.Buffer
	require.NoError(t, RAxML(&buf, layout.Partitions[:2]))
	assert.Equal(t, "DNA, BaseConc1.fas_1 = 1-85\\3, 2-85\\3, 3-85\\3\nDNA, BaseConc2.fas = 86-170\n", buf.String())
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		fixture string
		format  string
	}{
		{"concatenated_small.nex", FormatNexus},
		{"concatenated_small_codon.nex", FormatNexus},
		{"models.nex", FormatNexus},
		{"models_codon.nex", FormatNexus},
		{"concatenated_small.part", FormatRAxML},
		{"models_codon.nex", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.fixture+"/"+tt.format, func(t *testing.T) {
			layout := parseFixture(t, tt.fixture)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tt.format, layout))

			var back *core.Layout
			var err error
			if tt.format == FormatYAML {
				back, err = ReadYAML(&buf)
			} else {
				back, err = parser.Parse(buf.Bytes(), parser.Options{})
			}
			require.NoError(t, err)

			if diff := cmp.Diff(layout.Partitions, back.Partitions, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

const codonThenPlain = `#NEXUS
begin mrbayes;
	charset g = 1-90\3;
	charset h = 91-100;
end;
`

// editedCodon loads codonThenPlain, applies edit and gives every codon
// partition GTR and the plain one HKY.
func editedCodon(t *testing.T, edit func(p *partition.Partitions) error) *core.Layout {
	t.Helper()
	p := partition.New()
	layout, err := parser.Parse([]byte(codonThenPlain), parser.Options{})
	require.NoError(t, err)
	require.NoError(t, p.Load(layout))
	require.NoError(t, edit(p))
	for _, part := range p.Records() {
		model := "HKY"
		if part.IsCodon() {
			model = "GTR"
		}
		require.NoError(t, p.SetModel(part.Name, []string{model}, nil, false))
	}
	return p.Snapshot()
}

func TestRoundTrip_EditedCodonPartitions(t *testing.T) {
	edits := map[string]func(p *partition.Partitions) error{
		"renamed": func(p *partition.Partitions) error { return p.Rename("g_1", "cds") },
		"split": func(p *partition.Partitions) error {
			return p.Split("g_1", []core.Range{{Start: 0, End: 40}, {Start: 41, End: 89}}, []string{"head", "tail"})
		},
		"renamed to a start suffix": func(p *partition.Partitions) error { return p.Rename("g_1", "exon_1") },
	}

	for name, edit := range edits {
		for _, format := range []string{FormatNexus, FormatRAxML} {
			t.Run(name+"/"+format, func(t *testing.T) {
				layout := editedCodon(t, edit)

				var buf bytes.Buffer
				require.NoError(t, Write(&buf, format, layout))
				back, err := parser.Parse(buf.Bytes(), parser.Options{})
				require.NoError(t, err, buf.String())

				// exported files carry no alignment associations
				opts := []cmp.Option{cmpopts.EquateEmpty(), cmpopts.IgnoreFields(core.Partition{}, "Alignments")}
				if diff := cmp.Diff(layout.Partitions, back.Partitions, opts...); diff != "" {
					t.Errorf("round trip mismatch (-want +got):\n%s\n%s", diff, buf.String())
				}
			})
		}
	}
}

func TestNexus_CodonPartitionNameComment(t *testing.T) {
	layout := editedCodon(t, func(p *partition.Partitions) error { return p.Rename("g_1", "coding region") })

	var buf bytes.Buffer
	require.NoError(t, Nexus(&buf, layout.Partitions))
	assert.Contains(t, buf.String(), "charset 'coding region_1' = 1-90\\3 [&partition='coding region'];\n")
	assert.Contains(t, buf.String(), "charset 'coding region_2' = 2-90\\3;\n")
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "newick", &core.Layout{})
	assert.ErrorContains(t, err, `unknown export format "newick"`)
}

func TestCodonBase(t *testing.T) {
	p := core.Partition{Name: "Teste2.fas_86", Ranges: []core.Range{{Start: 85, End: 169}}, Codon: []int{0, 1, 2}}
	assert.Equal(t, "Teste2.fas", codonBase(p))

	p.Name = "renamed"
	assert.Equal(t, "renamed", codonBase(p))
}
