package toolrun

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// sectionRule separates report sections.
const sectionRule = "------------------------------------------"

// Field is one "Key: Value" line of a report header.
type Field struct {
	Key   string
	Value string
}

// Header is the fixed block written at the top of a report.
type Header struct {
	Title  string
	Fields []Field
}

// WriteTo renders the header.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if h.Title != "" {
		b.WriteString(h.Title)
		b.WriteString("\n")
	}
	for _, f := range h.Fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Key, f.Value)
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func writeSectionTitle(w io.Writer, title string) error {
	if title == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n%s\n%s\n", sectionRule, title)
	return err
}

// ReportPath derives a report file name from an input by replacing its
// extension: ReportPath("shader-utils.js", ".txt") is "shader-utils.txt".
func ReportPath(input, ext string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return base + ext
}
