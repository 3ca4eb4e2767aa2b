package split

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"deqpkit/internal/toolrun"
)

// runCall is the test entry point rewritten in every output file.
const runCall = ".run(gl);"

// Range is a half-open case range. Open ranges run to Infinity.
type Range struct {
	Start int
	End   int
	Open  bool
}

// String renders the range as the JavaScript array literal passed to run.
func (r Range) String() string {
	if r.Open {
		return fmt.Sprintf("[%d, Infinity]", r.Start)
	}
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}

// Ranges covers [0, max) in steps of step; the last range is open.
// Ranges(10, 3) is [0,3] [3,6] [6,9] [9,Infinity].
func Ranges(max, step int) ([]Range, error) {
	if max < 1 {
		return nil, fmt.Errorf("range max must be at least 1, got %d", max)
	}
	if step < 1 {
		return nil, fmt.Errorf("range step must be at least 1, got %d", step)
	}
	var out []Range
	for start := 0; start < max; start += step {
		end := start + step
		if end >= max {
			out = append(out, Range{Start: start, Open: true})
			break
		}
		out = append(out, Range{Start: start, End: end})
	}
	return out, nil
}

// SuffixWidth is the number of decimal digits in max.
func SuffixWidth(max int) int {
	return len(strconv.Itoa(max))
}

// Suffix zero-pads start to width digits.
func Suffix(start, width int) string {
	return fmt.Sprintf("%0*d", width, start)
}

// AddRange passes r to every ".run(gl);" call in content.
func AddRange(content string, r Range) string {
	return strings.ReplaceAll(content, runCall, ".run(gl, "+r.String()+");")
}

// OutputName inserts suffix before the template's extension.
func OutputName(template, suffix string) string {
	ext := filepath.Ext(template)
	return strings.TrimSuffix(template, ext) + suffix + ext
}

// Split writes one copy of template per range and returns the written paths.
func Split(template string, max, step int) ([]string, error) {
	data, err := os.ReadFile(template)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, toolrun.MissingFile(template)
		}
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	ranges, err := Ranges(max, step)
	if err != nil {
		return nil, err
	}
	width := SuffixWidth(max)
	content := string(data)
	written := make([]string, 0, len(ranges))
	for _, r := range ranges {
		name := OutputName(template, Suffix(r.Start, width))
		if err := os.WriteFile(name, []byte(AddRange(content, r)), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}

// ParseBound parses a command-line range bound.
func ParseBound(s string) (int, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid range bound %q: %w", s, err)
	}
	return safecast.Conv[int](v)
}
