package rewrite_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"deqpkit/internal/rewrite"
	"deqpkit/internal/toolrun"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkJS(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.js"), "")
	writeFile(t, filepath.Join(root, "sub", "a.js"), "")
	writeFile(t, filepath.Join(root, "sub", "a.html"), "")
	writeFile(t, filepath.Join(root, ".git", "x.js"), "")
	writeFile(t, filepath.Join(root, "node_modules", "y.js"), "")

	got, err := rewrite.WalkJS(root)
	if err != nil {
		t.Fatalf("WalkJS: %v", err)
	}
	want := []string{filepath.Join(root, "b.js"), filepath.Join(root, "sub", "a.js")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("WalkJS mismatch (-want +got):\n%s", diff)
	}

	if _, err := rewrite.WalkJS(filepath.Join(root, "missing")); !errors.Is(err, toolrun.ErrMissingFile) {
		t.Fatalf("err = %v, want ErrMissingFile", err)
	}
}

func TestReadSourceStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.js")
	writeFile(t, path, "\xef\xbb\xbfvar a = 1;\n")
	got, err := rewrite.ReadSource(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "var a = 1;\n" {
		t.Fatalf("ReadSource = %q", got)
	}
}

func TestRewriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	writeFile(t, path, "\tvar a=1;\n")
	p, err := rewrite.CompileRules(rewrite.DefaultRules())
	if err != nil {
		t.Fatal(err)
	}

	res, err := rewrite.RewriteFile(path, p, rewrite.Output{Prefix: "out_"})
	if err != nil {
		t.Fatalf("RewriteFile: %v", err)
	}
	if res.Output != filepath.Join(dir, "out_a.js") || !res.Changed {
		t.Fatalf("result = %+v", res)
	}
	data, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "    var a = 1;\n" {
		t.Fatalf("output = %q", data)
	}

	res, err = rewrite.RewriteFile(res.Output, p, rewrite.Output{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed {
		t.Fatal("already formatted file reported as changed")
	}
}

func TestOutputPathFor(t *testing.T) {
	tests := []struct {
		out  rewrite.Output
		in   string
		want string
	}{
		{rewrite.Output{}, "dir/a.js", filepath.Join("dir", "a.js")},
		{rewrite.Output{Prefix: "out_"}, "dir/a.js", filepath.Join("dir", "out_a.js")},
		{rewrite.Output{Suffix: ".annotated"}, "dir/a.js", filepath.Join("dir", "a.js.annotated")},
	}
	for _, tt := range tests {
		if got := tt.out.PathFor(tt.in); got != tt.want {
			t.Fatalf("PathFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
