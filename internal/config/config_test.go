package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"deqpkit/internal/closure"
	"deqpkit/internal/rewrite"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeManifest(t, root, "")
	nested := filepath.Join(root, "functional", "gles3")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !ok {
		t.Fatalf("expected manifest to be found")
	}
	if got != want {
		t.Fatalf("Find = %q, want %q", got, want)
	}
}

func TestDiscoverWithoutManifestUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	m, err := Discover(dir, "")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if m.Path != "" {
		// A manifest above the temp dir would make this test meaningless.
		t.Skipf("found unrelated manifest at %s", m.Path)
	}
	if m.Config.Compiler.Jar != "compiler.jar" {
		t.Fatalf("jar = %q", m.Config.Compiler.Jar)
	}
	if got := strings.Join(m.Config.Compiler.Levels, ","); got != "whitespace,simple" {
		t.Fatalf("levels = %s", got)
	}
	if len(m.Config.Rules()) != len(rewrite.DefaultRules()) {
		t.Fatalf("expected built-in rules")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[compiler]
java_args = ["-client"]
levels = ["whitespace", "advanced"]
timeout = "90s"

[build.targets]
deqp = "functional.gles3.es3fFboTests"

[[reformat.rules]]
name = "tabs"
pattern = "\t"
replacement = "    "
mode = "literal"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Compiler.Java != "java" {
		t.Fatalf("java default lost: %q", cfg.Compiler.Java)
	}
	if got := strings.Join(cfg.Compiler.JavaArgs, " "); got != "-client" {
		t.Fatalf("java_args = %q", got)
	}
	if cfg.Compiler.Timeout.Duration != 90*time.Second {
		t.Fatalf("timeout = %v", cfg.Compiler.Timeout)
	}
	if cfg.Build.Targets["deqp"] != "functional.gles3.es3fFboTests" {
		t.Fatalf("targets = %v", cfg.Build.Targets)
	}
	rules := cfg.Rules()
	if len(rules) != 1 || rules[0].Mode != rewrite.ModeLiteral {
		t.Fatalf("rules = %+v", rules)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[compiler]\njvm = \"java\"\n", "unknown keys"},
		{"bad level", "[compiler]\nlevels = [\"extreme\"]\n", "levels"},
		{"duplicate level", "[compiler]\nlevels = [\"simple\", \"SIMPLE_OPTIMIZATIONS\"]\n", "listed twice"},
		{"bad backend", "[compiler]\nbackend = \"cloud\"\n", "backend"},
		{"bad timeout", "[compiler]\ntimeout = \"soon\"\n", "parse"},
		{"empty endpoint", "[service]\nendpoint = \"\"\n", "endpoint is empty"},
		{"bad rule", "[[reformat.rules]]\nname = \"x\"\npattern = \"(\"\n", "#1"},
		{"empty target", "[build.targets]\nx = \" \"\n", "empty namespace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestWriteRoundTripsDefaults(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Default()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := writeManifest(t, t.TempDir(), buf.String())
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Write: %v\n%s", err, buf.String())
	}
	if cfg.Compiler.Timeout.Duration != 10*time.Minute {
		t.Fatalf("timeout = %v", cfg.Compiler.Timeout)
	}
}

func TestToolchainBackendOverride(t *testing.T) {
	cfg := Default()
	cfg.Compiler.Externs = []string{"externs.js"}
	tc, err := cfg.Toolchain("service")
	if err != nil {
		t.Fatalf("Toolchain: %v", err)
	}
	if tc.Backend != closure.BackendService {
		t.Fatalf("backend = %q", tc.Backend)
	}
	if tc.Options.Warning != closure.Verbose || len(tc.Options.Externs) != 1 {
		t.Fatalf("options = %+v", tc.Options)
	}
	if tc.Service.Client == nil || tc.Service.Client.Timeout != time.Minute {
		t.Fatalf("service client timeout not applied")
	}
	if _, err := cfg.Toolchain("cloud"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
