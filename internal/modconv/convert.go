package modconv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"deqpkit/internal/rewrite"
	"deqpkit/internal/toolrun"
)

// ReadWhitelist reads a comma-separated list of names never to alias.
func ReadWhitelist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, toolrun.MissingFile(path)
		}
		return nil, fmt.Errorf("failed to read whitelist: %w", err)
	}
	return splitList(string(data)), nil
}

// Problem is a file that could not be converted.
type Problem struct {
	Path string
	Err  error
}

// Result tallies a ConvertAll run.
type Result struct {
	Converted []string
	Problems  []Problem
}

// Invalid counts files whose helper output was unusable.
func (r Result) Invalid() int {
	n := 0
	for _, p := range r.Problems {
		if errors.Is(p.Err, ErrInvalidFormat) {
			n++
		}
	}
	return n
}

// Converter rewrites a tree of require.js modules into OutDir, mirroring the
// layout below InDir.
type Converter struct {
	Fetcher   VarsFetcher
	Whitelist []string
	InDir     string
	OutDir    string
	Logger    *zap.Logger
}

func (c *Converter) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// ConvertFile converts one file and returns the written path. The namespace
// is taken from the path below a "deqp" directory when InDir contains one.
func (c *Converter) ConvertFile(ctx context.Context, path string) (string, error) {
	rel, err := filepath.Rel(c.InDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", path, c.InDir)
	}
	rel = filepath.ToSlash(rel)

	vars, err := c.Fetcher.Fetch(ctx, path)
	if err != nil {
		return "", err
	}
	src, err := rewrite.ReadSource(path)
	if err != nil {
		return "", err
	}
	nsPath := rel
	if r, ok := DeqpRelative(rel); ok {
		nsPath = r
	}
	out, err := Transform(src, NamespaceFor(nsPath), vars, c.Whitelist)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(c.OutDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(dest, []byte(out), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return dest, nil
}

// ConvertAll converts every .js file under InDir. Per-file failures are
// collected; only cancellation or an unreadable tree stops the run. Files
// already under OutDir are skipped when it is nested in InDir.
func (c *Converter) ConvertAll(ctx context.Context) (Result, error) {
	log := c.logger()
	files, err := rewrite.WalkJS(c.InDir)
	if err != nil {
		return Result{}, err
	}
	outAbs, _ := filepath.Abs(c.OutDir)
	var res Result
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if abs, _ := filepath.Abs(f); outAbs != "" && strings.HasPrefix(abs, outAbs+string(filepath.Separator)) {
			continue
		}
		dest, err := c.ConvertFile(ctx, f)
		if err != nil {
			if errors.Is(err, ErrInvalidFormat) {
				log.Warn("file doesn't have a valid format", zap.String("file", f))
			} else {
				log.Error("conversion failed", zap.String("file", f), zap.Error(err))
			}
			res.Problems = append(res.Problems, Problem{Path: f, Err: err})
			continue
		}
		log.Debug("converted", zap.String("file", f), zap.String("output", dest))
		res.Converted = append(res.Converted, dest)
	}
	return res, nil
}
