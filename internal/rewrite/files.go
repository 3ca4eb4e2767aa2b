package rewrite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"deqpkit/internal/toolrun"
)

// WalkJS lists .js files under root in lexical order. Hidden directories and
// node_modules are skipped. A file root is returned as-is.
func WalkJS(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, toolrun.MissingFile(root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".js") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// ReadSource reads a text file, dropping a UTF-8 byte order mark.
func ReadSource(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", toolrun.MissingFile(path)
		}
		return "", err
	}
	defer f.Close()
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(f, dec))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Output decides where a rewritten file goes. The zero value rewrites in
// place.
type Output struct {
	Prefix string // prepended to the base name
	Suffix string // appended to the full name
}

// InPlace reports whether files are overwritten.
func (o Output) InPlace() bool { return o.Prefix == "" && o.Suffix == "" }

// PathFor returns the output path for input.
func (o Output) PathFor(input string) string {
	dir, base := filepath.Split(input)
	return filepath.Join(dir, o.Prefix+base) + o.Suffix
}

// FileResult describes one rewritten file.
type FileResult struct {
	Input   string
	Output  string
	Changed bool
	Count   int
}

// RewriteFile applies step to the file at path. In-place rewrites only touch
// the file when the text changed; prefixed or suffixed outputs are always
// written.
func RewriteFile(path string, step Step, out Output) (FileResult, error) {
	res := FileResult{Input: path, Output: out.PathFor(path)}
	src, err := ReadSource(path)
	if err != nil {
		return res, err
	}
	text, n, err := step.Apply(src)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	res.Count = n
	res.Changed = text != src
	if !res.Changed && out.InPlace() {
		return res, nil
	}
	if err := writeAtomic(res.Output, []byte(text)); err != nil {
		return res, fmt.Errorf("failed to write %s: %w", res.Output, err)
	}
	return res, nil
}

func writeAtomic(path string, data []byte) (err error) {
	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".rewrite-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(f.Name(), mode); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
