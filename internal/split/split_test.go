package split_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deqpkit/internal/split"
)

func TestRanges(t *testing.T) {
	ranges, err := split.Ranges(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range ranges {
		got = append(got, r.String())
	}
	want := "[0, 3] [3, 6] [6, 9] [9, Infinity]"
	if strings.Join(got, " ") != want {
		t.Fatalf("Ranges(10, 3) = %v, want %s", got, want)
	}
}

func TestRangesEdges(t *testing.T) {
	tests := []struct {
		max, step int
		want      string
	}{
		{1, 1, "[0, Infinity]"},
		{5, 10, "[0, Infinity]"},
		{4, 2, "[0, 2] [2, Infinity]"},
		{3, 1, "[0, 1] [1, 2] [2, Infinity]"},
	}
	for _, tt := range tests {
		ranges, err := split.Ranges(tt.max, tt.step)
		if err != nil {
			t.Fatal(err)
		}
		var got []string
		for _, r := range ranges {
			got = append(got, r.String())
		}
		if s := strings.Join(got, " "); s != tt.want {
			t.Fatalf("Ranges(%d, %d) = %s, want %s", tt.max, tt.step, s, tt.want)
		}
	}
	for _, bad := range [][2]int{{0, 1}, {10, 0}, {-1, 2}} {
		if _, err := split.Ranges(bad[0], bad[1]); err == nil {
			t.Fatalf("Ranges(%d, %d) succeeded", bad[0], bad[1])
		}
	}
}

func TestSuffix(t *testing.T) {
	width := split.SuffixWidth(10)
	var got []string
	for _, start := range []int{0, 3, 6, 9} {
		got = append(got, split.Suffix(start, width))
	}
	if strings.Join(got, " ") != "00 03 06 09" {
		t.Fatalf("suffixes = %v", got)
	}
	if w := split.SuffixWidth(9); w != 1 {
		t.Fatalf("SuffixWidth(9) = %d", w)
	}
	if w := split.SuffixWidth(100); w != 3 {
		t.Fatalf("SuffixWidth(100) = %d", w)
	}
}

const page = `<!DOCTYPE HTML>
<html><head><title>WebGL Texture Format Conformance Tests</title></head>
<body><script>
functional.gles3.es3fTextureFormatTests.run(gl);
</script></body></html>
`

func TestSplit(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "textureformat.html")
	if err := os.WriteFile(template, []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	written, err := split.Split(template, 10, 3)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	wantNames := []string{"textureformat00.html", "textureformat03.html", "textureformat06.html", "textureformat09.html"}
	if len(written) != len(wantNames) {
		t.Fatalf("wrote %d files, want %d", len(written), len(wantNames))
	}
	for i, name := range wantNames {
		if filepath.Base(written[i]) != name {
			t.Fatalf("file %d = %s, want %s", i, filepath.Base(written[i]), name)
		}
	}
	last, err := os.ReadFile(written[3])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(last), ".run(gl, [9, Infinity]);") {
		t.Fatalf("last file missing open range:\n%s", last)
	}
	first, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(first), ".run(gl, [0, 3]);") {
		t.Fatalf("first file missing range:\n%s", first)
	}
}

func TestInspect(t *testing.T) {
	p, err := split.Inspect(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "WebGL Texture Format Conformance Tests" || p.RunCalls != 1 || p.Scripts != 1 {
		t.Fatalf("Inspect = %+v", p)
	}
	p, err = split.Inspect(strings.NewReader(split.AddRange(page, split.Range{Start: 0, End: 3})))
	if err != nil {
		t.Fatal(err)
	}
	if p.RunCalls != 0 {
		t.Fatalf("already split page reports %d run calls", p.RunCalls)
	}
}

func TestParseBound(t *testing.T) {
	if v, err := split.ParseBound(" 42 "); err != nil || v != 42 {
		t.Fatalf("ParseBound = %d, %v", v, err)
	}
	if _, err := split.ParseBound("-3"); err == nil {
		t.Fatal("negative bound accepted")
	}
}
