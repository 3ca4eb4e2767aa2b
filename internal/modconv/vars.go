package modconv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"deqpkit/internal/toolrun"
)

// ErrInvalidFormat marks helper output without the "vars&deps" shape.
var ErrInvalidFormat = errors.New("not a valid format")

// DefaultHelper is the script that reports a module's top-level names and
// its require.js dependencies.
const DefaultHelper = "./fetch_vars.js"

// Vars is what the helper reports for one file.
type Vars struct {
	// Names are the module's top-level assignments.
	Names []string
	// Deps are the required module paths, e.g. "framework/common/tcuTexture".
	Deps []string
}

// VarsFetcher extracts Vars from a source file.
type VarsFetcher interface {
	Fetch(ctx context.Context, path string) (Vars, error)
}

// HelperFetcher runs the helper script on each file.
type HelperFetcher struct {
	Command string
	Args    []string
	Dir     string
}

// Fetch runs "<helper> [args] <path>" and parses its stdout.
func (h HelperFetcher) Fetch(ctx context.Context, path string) (Vars, error) {
	name := h.Command
	if name == "" {
		name = DefaultHelper
	}
	args := append(append([]string{}, h.Args...), path)
	out, err := toolrun.Command{Name: name, Args: args, Dir: h.Dir}.Output(ctx)
	if err != nil {
		var exitErr *toolrun.ExitError
		if !errors.As(err, &exitErr) {
			return Vars{}, fmt.Errorf("failed to run %s: %w", name, err)
		}
	}
	return ParseVars(string(out))
}

// ParseVars splits "name,name&dep,dep" helper output. Newlines are ignored
// and empty entries dropped.
func ParseVars(output string) (Vars, error) {
	parts := strings.Split(output, "&")
	if len(parts) < 2 {
		return Vars{}, ErrInvalidFormat
	}
	return Vars{Names: splitList(parts[0]), Deps: splitList(parts[1])}, nil
}

func splitList(s string) []string {
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
