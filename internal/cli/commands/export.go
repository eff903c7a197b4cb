package commands

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/phylopart/pkg/format"
	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var (
		formatName string
		outFile    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the layout for a phylogenetic inference tool",
		Long: `Write the current layout as a MrBayes Nexus block, a RAxML partition
file or a YAML descriptor. The format defaults to export_format from the
configuration.`,
		Example: `  phylopart export > partitions.nex
  phylopart export --format raxml -f partitions.part`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if formatName == "" {
				formatName = cc.Cfg.ExportFormat
			}
			if cc.Partitions().Len() == 0 {
				return fmt.Errorf("nothing to export: the layout is empty")
			}

			layout := cc.Partitions().Snapshot()
			layout.Dialect = cc.Dialect

			var buf bytes.Buffer
			if err := format.Write(&buf, formatName, layout); err != nil {
				return err
			}

			if outFile == "" {
				_, err := cc.Renderer.Writer().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(outFile, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			cc.Logger.Info("exported layout", "path", outFile, "format", formatName, "partitions", len(layout.Partitions))
			cc.Renderer.Success(fmt.Sprintf("Wrote %s layout to %s", strings.ToLower(formatName), outFile))
			return nil
		},
	}

	cmd.Flags().StringVar(&formatName, "format", "", "Export format ("+strings.Join(format.Formats(), "|")+")")
	cmd.Flags().StringVarP(&outFile, "file", "f", "", "Write to a file instead of stdout")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return format.Formats(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
