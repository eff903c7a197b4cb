package core

import (
	"fmt"
	"strings"
)

// DuplicateNameError is returned when a partition name is already registered.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("partition %q already exists", e.Name)
}

// NotFoundError is returned when a partition name is not registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("partition %q not found", e.Name)
}

// MalformedPartitionError reports a range that cannot be accepted:
// non-numeric, inverted, or overlapping another range of the same file.
type MalformedPartitionError struct {
	File    string
	Line    int
	Name    string
	Message string
}

func (e *MalformedPartitionError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	} else if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	b.WriteString("malformed partition")
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// UnknownDialectError is returned when no registered dialect accepts the input.
type UnknownDialectError struct {
	File  string
	Tried []string
}

func (e *UnknownDialectError) Error() string {
	msg := "unrecognized partition file format"
	if len(e.Tried) > 0 {
		msg += fmt.Sprintf(" (tried: %s)", strings.Join(e.Tried, ", "))
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}

// ArityMismatchError is returned when a split receives a different number
// of ranges and names.
type ArityMismatchError struct {
	Ranges int
	Names  int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("split needs one name per range: got %d ranges and %d names", e.Ranges, e.Names)
}

// InvalidSplitError is returned when split ranges do not exactly rebuild the
// extent of the partition being split.
type InvalidSplitError struct {
	Name    string
	Message string
}

func (e *InvalidSplitError) Error() string {
	return fmt.Sprintf("invalid split of partition %q: %s", e.Name, e.Message)
}

// InvariantViolationError signals an internal consistency failure of the
// partition set. It indicates a defect, never bad user input.
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("partition invariant violated: %s", e.Message)
}
