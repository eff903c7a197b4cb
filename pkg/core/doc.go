// Package core defines the shared language of the phylopart system.
//
// This package contains:
//   - Coordinate types (Range)
//   - Partition records (Partition, Model, Layout)
//   - The error kinds returned by the partition engine and parser
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
