package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"deqpkit/internal/split"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// ErrExists is returned when a target file exists and overwriting was not
// requested.
var ErrExists = errors.New("file already exists")

// Dir is where new gles3 functional tests live, relative to the deqp root.
const Dir = "functional/gles3"

var moduleName = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Test describes a new test pair.
type Test struct {
	// TestName is the human title, e.g. "Shader Struct".
	TestName string
	// Module is the JavaScript module, e.g. "es3fShaderStructTests".
	Module      string
	Namespace   string
	Constructor string
	Year        int
	// JSPath and HTMLPath are relative to the deqp root.
	JSPath   string
	HTMLPath string
}

// New derives paths and identifiers: "es3fShaderStructTests" becomes
// functional/gles3/es3fShaderStructTests.js and functional/gles3/shaderstruct.html.
func New(testName, module string) (Test, error) {
	if strings.TrimSpace(testName) == "" {
		return Test{}, fmt.Errorf("test name is required")
	}
	if !moduleName.MatchString(module) {
		return Test{}, fmt.Errorf("invalid module name %q", module)
	}
	ctor := strings.Replace(module, "es3f", "", 1)
	htmlName := strings.ToLower(strings.Replace(ctor, "Tests", "", 1))
	if htmlName == "" {
		return Test{}, fmt.Errorf("module name %q leaves no page name", module)
	}
	return Test{
		TestName:    testName,
		Module:      module,
		Namespace:   "functional.gles3." + module,
		Constructor: ctor,
		Year:        time.Now().Year(),
		JSPath:      filepath.Join(filepath.FromSlash(Dir), module+".js"),
		HTMLPath:    filepath.Join(filepath.FromSlash(Dir), htmlName+".html"),
	}, nil
}

// Render returns the JavaScript module and the HTML page. The page is
// checked to carry exactly one run(gl) call so it can later be split.
func (t Test) Render() (js, page []byte, err error) {
	var jsBuf, htmlBuf bytes.Buffer
	if err := templates.ExecuteTemplate(&jsBuf, "test.js.tmpl", t); err != nil {
		return nil, nil, fmt.Errorf("failed to render module: %w", err)
	}
	if err := templates.ExecuteTemplate(&htmlBuf, "test.html.tmpl", t); err != nil {
		return nil, nil, fmt.Errorf("failed to render page: %w", err)
	}
	info, err := split.Inspect(bytes.NewReader(htmlBuf.Bytes()))
	if err != nil {
		return nil, nil, err
	}
	if info.RunCalls != 1 {
		return nil, nil, fmt.Errorf("rendered page has %d run calls, want 1", info.RunCalls)
	}
	return jsBuf.Bytes(), htmlBuf.Bytes(), nil
}

// Write renders both files under baseDir. Existing files are kept unless
// force is set; nothing is written when either exists.
func (t Test) Write(baseDir string, force bool) ([]string, error) {
	js, page, err := t.Render()
	if err != nil {
		return nil, err
	}
	files := []struct {
		path string
		data []byte
	}{
		{filepath.Join(baseDir, t.JSPath), js},
		{filepath.Join(baseDir, t.HTMLPath), page},
	}
	if !force {
		for _, f := range files {
			if _, err := os.Stat(f.path); err == nil {
				return nil, fmt.Errorf("%w: %s", ErrExists, f.path)
			}
		}
	}
	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return written, fmt.Errorf("failed to create %s: %w", filepath.Dir(f.path), err)
		}
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", f.path, err)
		}
		written = append(written, f.path)
	}
	return written, nil
}
