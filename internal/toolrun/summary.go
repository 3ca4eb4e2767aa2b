package toolrun

import (
	"fmt"
	"regexp"
	"strconv"

	"fortio.org/safecast"
)

var summaryPattern = regexp.MustCompile(`(\d+)\s*error\(s\),\s*(\d+)\s*warning\(s\)`)

// Summary is the error/warning tally a tool prints as its final line.
type Summary struct {
	Errors   int
	Warnings int
}

// String renders the summary the way the compiler prints it.
func (s Summary) String() string {
	return fmt.Sprintf("%d error(s), %d warning(s)", s.Errors, s.Warnings)
}

// Clean reports whether the summary has neither errors nor warnings.
func (s Summary) Clean() bool {
	return s.Errors == 0 && s.Warnings == 0
}

// ParseSummary extracts the last "<N> error(s), <M> warning(s)" occurrence
// from text. ok is false when the text carries no summary at all; callers must
// not treat that as zero.
func ParseSummary(text string) (Summary, bool) {
	matches := summaryPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return Summary{}, false
	}
	last := matches[len(matches)-1]
	errs, err := parseCount(last[1])
	if err != nil {
		return Summary{}, false
	}
	warns, err := parseCount(last[2])
	if err != nil {
		return Summary{}, false
	}
	return Summary{Errors: errs, Warnings: warns}, true
}

func parseCount(s string) (int, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.Conv[int](u)
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= t.max {
		t.buf = append(t.buf[:0], p[n-t.max:]...)
		return n, nil
	}
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
