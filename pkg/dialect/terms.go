package dialect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/phylopart/pkg/core"
)

// Term is one range of a partition declaration, converted to 0-based
// coordinates. Stride is 1 for plain ranges and core.CodonStride for
// codon-position ranges written as a-b\3.
type Term struct {
	Range  core.Range
	Stride int
}

var (
	dashSpace   = regexp.MustCompile(`\s*-\s*`)
	strideSpace = regexp.MustCompile(`\s*\\\s*`)
	termSep     = regexp.MustCompile(`[,\s]+`)
)

// ParseTerms parses a whitespace- or comma-separated list of 1-based
// inclusive ranges such as "1-85", "86-170\3" or "12".
func ParseTerms(spec string, line int, name string) ([]Term, error) {
	spec = strideSpace.ReplaceAllString(dashSpace.ReplaceAllString(strings.TrimSpace(spec), "-"), `\`)
	if spec == "" {
		return nil, &core.MalformedPartitionError{Line: line, Name: name, Message: "no ranges declared"}
	}

	var terms []Term
	for _, field := range termSep.Split(spec, -1) {
		if field == "" {
			continue
		}
		t, err := parseTerm(field)
		if err != nil {
			return nil, &core.MalformedPartitionError{Line: line, Name: name, Message: err.Error()}
		}
		terms = append(terms, t)
	}
	if len(terms) == 0 {
		return nil, &core.MalformedPartitionError{Line: line, Name: name, Message: "no ranges declared"}
	}
	return terms, nil
}

func parseTerm(field string) (Term, error) {
	body, strideText, hasStride := strings.Cut(field, `\`)
	stride := 1
	if hasStride {
		n, err := strconv.Atoi(strideText)
		if err != nil {
			return Term{}, fmt.Errorf("stride %q is not a number", strideText)
		}
		if n != 1 && n != core.CodonStride {
			return Term{}, fmt.Errorf("unsupported stride %d in %q", n, field)
		}
		stride = n
	}

	startText, endText, isRange := strings.Cut(body, "-")
	if !isRange {
		endText = startText
	}
	start, err := strconv.Atoi(startText)
	if err != nil {
		return Term{}, fmt.Errorf("range start %q is not a number", startText)
	}
	end, err := strconv.Atoi(endText)
	if err != nil {
		return Term{}, fmt.Errorf("range end %q is not a number", endText)
	}
	if start < 1 {
		return Term{}, fmt.Errorf("range %q starts before column 1", field)
	}
	if start > end {
		return Term{}, fmt.Errorf("range %q is inverted", field)
	}
	return Term{Range: core.Range{Start: start - 1, End: end - 1}, Stride: stride}, nil
}

// FormatRange renders a 0-based range as a 1-based inclusive term.
func FormatRange(r core.Range) string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start + 1)
	}
	return fmt.Sprintf("%d-%d", r.Start+1, r.End+1)
}

// FormatCodon renders one codon position as a 1-based stride term.
func FormatCodon(c core.CodonPosition) string {
	return fmt.Sprintf(`%d-%d\%d`, c.Start+1, c.End+1, core.CodonStride)
}
