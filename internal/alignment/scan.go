package alignment

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
)

// Alignment file formats recognized by Scan.
const (
	FormatFasta  = "fasta"
	FormatPhylip = "phylip"
	FormatNexus  = "nexus"
)

// maxLine bounds a single alignment line; unwrapped sequences can be long.
const maxLine = 64 << 20

var nexusDims = regexp.MustCompile(`(?i)\bnchar\s*=\s*(\d+)`)
var nexusTaxa = regexp.MustCompile(`(?i)\bntax\s*=\s*(\d+)`)

// Scan reads an alignment file and reports its column count and number of
// taxa. The partition name is the file's base name.
func Scan(ctx context.Context, path string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Source{}, fmt.Errorf("opening alignment: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, err := scan(f)
	if err != nil {
		return Source{}, fmt.Errorf("%s: %w", path, err)
	}
	src.Name = filepath.Base(path)
	src.Path = path
	return src, nil
}

// ScanAll scans paths concurrently and returns the sources in path order.
func ScanAll(ctx context.Context, paths []string) ([]Source, error) {
	out := make([]Source, len(paths))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for i, path := range paths {
		eg.Go(func() error {
			src, err := Scan(egctx, path)
			if err != nil {
				return err
			}
			out[i] = src
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func scan(r io.Reader) (Source, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var first string
	for sc.Scan() {
		if first = strings.TrimSpace(sc.Text()); first != "" {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return Source{}, err
	}

	switch {
	case first == "":
		return Source{}, fmt.Errorf("empty alignment")
	case strings.HasPrefix(first, ">"):
		return scanFasta(sc, first)
	case strings.EqualFold(first, "#nexus"):
		return scanNexus(sc)
	default:
		return scanPhylip(first)
	}
}

func scanFasta(sc *bufio.Scanner, header string) (Source, error) {
	src := Source{Format: FormatFasta}
	taxon := strings.TrimSpace(header[1:])
	length := 0

	finish := func() error {
		if src.Taxa > 0 && length != src.Length {
			return &UnalignedError{Taxon: taxon, Length: length, Want: src.Length}
		}
		src.Length = length
		src.Taxa++
		return nil
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if err := finish(); err != nil {
				return Source{}, err
			}
			taxon, length = strings.TrimSpace(line[1:]), 0
			continue
		}
		length += residues(line)
	}
	if err := sc.Err(); err != nil {
		return Source{}, err
	}
	if err := finish(); err != nil {
		return Source{}, err
	}
	if src.Length == 0 {
		return Source{}, fmt.Errorf("alignment has no columns")
	}
	return src, nil
}

// scanPhylip reads the "ntax nchar" header shared by sequential and
// interleaved Phylip.
func scanPhylip(header string) (Source, error) {
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return Source{}, fmt.Errorf("unrecognized alignment format")
	}
	taxa, err1 := strconv.Atoi(fields[0])
	length, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || taxa < 1 || length < 1 {
		return Source{}, fmt.Errorf("invalid phylip header %q", header)
	}
	return Source{Format: FormatPhylip, Length: length, Taxa: taxa}, nil
}

func scanNexus(sc *bufio.Scanner) (Source, error) {
	src := Source{Format: FormatNexus}
	for sc.Scan() {
		line := sc.Text()
		if m := nexusDims.FindStringSubmatch(line); m != nil {
			src.Length, _ = strconv.Atoi(m[1])
		}
		if m := nexusTaxa.FindStringSubmatch(line); m != nil {
			src.Taxa, _ = strconv.Atoi(m[1])
		}
		if src.Length > 0 && src.Taxa > 0 {
			return src, nil
		}
	}
	if err := sc.Err(); err != nil {
		return Source{}, err
	}
	if src.Length == 0 {
		return Source{}, fmt.Errorf("nexus alignment without nchar dimension")
	}
	return src, nil
}

func residues(line string) int {
	n := 0
	for _, r := range line {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
