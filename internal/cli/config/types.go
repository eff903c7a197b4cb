// Package config provides configuration management for the phylopart CLI.
//
// Values are layered with koanf, highest precedence first: changed command
// line flags, PHYLOPART_* environment variables, the project config file
// (phylopart.yaml or phylopart.yml) and built-in defaults.
package config

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/phylopart/pkg/format"
)

// Config holds all CLI configuration options.
type Config struct {
	StatePath       string `koanf:"state_path"`
	OutputFormat    string `koanf:"output"`
	Verbose         bool   `koanf:"verbose"`
	Dialect         string `koanf:"dialect"`
	CompactOnRemove bool   `koanf:"compact_on_remove"`
	ExportFormat    string `koanf:"export_format"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultStateFile    = ".phylopart/state.db"
	DefaultOutput       = "auto" // TTY=text, non-TTY=markdown
	DefaultDialect      = "auto"
	DefaultExportFormat = format.FormatNexus
)

// OutputModes lists the accepted values of the output key.
var OutputModes = []string{"auto", "text", "markdown", "json"}

// Default returns the configuration used when nothing was loaded.
func Default() *Config {
	return &Config{
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		Dialect:      DefaultDialect,
		ExportFormat: DefaultExportFormat,
	}
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	if c.OutputFormat != "" && !slices.Contains(OutputModes, c.OutputFormat) {
		return fmt.Errorf("invalid output %q (expected one of %v)", c.OutputFormat, OutputModes)
	}
	if c.ExportFormat != "" && !slices.Contains(format.Formats(), c.ExportFormat) {
		return fmt.Errorf("invalid export_format %q (expected one of %v)", c.ExportFormat, format.Formats())
	}
	return nil
}
