package closure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
)

// ErrUnsupportedLevel is returned when the builtin backend is asked for
// anything beyond whitespace removal.
var ErrUnsupportedLevel = errors.New("builtin backend supports WHITESPACE_ONLY only")

const jsMediaType = "text/javascript"

// Minifier is the in-process whitespace-only backend. Its output mimics the
// compiler: the minified code followed by an error/warning tally.
type Minifier struct {
	File string
}

// NewMinifier returns a Minifier for file at level.
func NewMinifier(file string, level CompilationLevel) (Minifier, error) {
	if level != WhitespaceOnly {
		return Minifier{}, fmt.Errorf("%w (got %s)", ErrUnsupportedLevel, level)
	}
	return Minifier{File: file}, nil
}

func (m Minifier) Describe() string {
	return "minify " + m.File
}

// Stream minifies the file. A parse error is reported in the output and
// tallied as one error; it is not returned.
func (m Minifier) Stream(_ context.Context, stdout, _ io.Writer) error {
	src, err := os.Open(m.File)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", m.File, err)
	}
	defer src.Close()

	min := minify.New()
	min.AddFunc(jsMediaType, js.Minify)
	var out bytes.Buffer
	if err := min.Minify(jsMediaType, &out, src); err != nil {
		_, werr := fmt.Fprintf(stdout, "%s: ERROR - %v\n1 error(s), 0 warning(s)\n", m.File, err)
		return werr
	}
	out.WriteString("\n0 error(s), 0 warning(s)\n")
	_, err = out.WriteTo(stdout)
	return err
}
