package modconv_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"deqpkit/internal/modconv"
)

func TestParseVars(t *testing.T) {
	got, err := modconv.ParseVars("a,b,\nc&framework/common/tcuTexture,\nframework/delibs/debase/deMath\n")
	if err != nil {
		t.Fatal(err)
	}
	want := modconv.Vars{
		Names: []string{"a", "b", "c"},
		Deps:  []string{"framework/common/tcuTexture", "framework/delibs/debase/deMath"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseVars mismatch (-want +got):\n%s", diff)
	}
	if _, err := modconv.ParseVars("no separator"); !errors.Is(err, modconv.ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestNamespaceFor(t *testing.T) {
	got := modconv.NamespaceFor("framework/common/tcuTexture.js")
	want := modconv.Namespace{Provide: "framework.common.tcuTexture", Alias: "tcuTexture"}
	if got != want {
		t.Fatalf("NamespaceFor = %+v, want %+v", got, want)
	}
	rel, ok := modconv.DeqpRelative("/home/dev/WebGL/sdk/tests/deqp/framework/common/tcuTexture.js")
	if !ok || rel != "framework/common/tcuTexture.js" {
		t.Fatalf("DeqpRelative = %q, %v", rel, ok)
	}
	if _, ok := modconv.DeqpRelative("/tmp/other/x.js"); ok {
		t.Fatal("path outside deqp accepted")
	}
}

func TestAddAliases(t *testing.T) {
	src := "var foo = 1;\nfoo = foo + bar.foo;\nvar keep = foo;\nfoobar();\n"
	got, err := modconv.AddAliases(src, "mod", []string{"foo", "keep"}, []string{" keep"})
	if err != nil {
		t.Fatal(err)
	}
	want := "mod.foo = 1;\nmod.foo = mod.foo + bar.foo;\nvar keep = mod.foo;\nfoobar();\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("AddAliases mismatch (-want +got):\n%s", diff)
	}
}

const moduleSource = `'use strict';
define(['framework/common/tcuTexture', 'framework/delibs/debase/deMath'], function(tcuTexture, deMath) {
var scale = function(x) {
    return deMath.clamp(x, 0, 1);
};

return {
    scale: scale
};
});
`

const convertedSource = `
'use strict';
goog.provide('framework.opengl.gluScale');
goog.require('framework.common.tcuTexture');
goog.require('framework.delibs.debase.deMath');


goog.scope(function() {

var gluScale = framework.opengl.gluScale;
var tcuTexture = framework.common.tcuTexture;
var deMath = framework.delibs.debase.deMath;
gluScale.scale = function(x) {
    return deMath.clamp(x, 0, 1);
};


});
`

func TestTransform(t *testing.T) {
	vars := modconv.Vars{
		Names: []string{"scale"},
		Deps:  []string{"framework/common/tcuTexture", "framework/delibs/debase/deMath"},
	}
	got, err := modconv.Transform(moduleSource, modconv.NamespaceFor("framework/opengl/gluScale.js"), vars, nil)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if diff := cmp.Diff(convertedSource, got); diff != "" {
		t.Fatalf("Transform mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceHeaderWithoutDefine(t *testing.T) {
	if _, err := modconv.ReplaceHeader("var a = 1;", "x"); !errors.Is(err, modconv.ErrNoDefine) {
		t.Fatalf("err = %v, want ErrNoDefine", err)
	}
}

func TestRemoveReturnWithoutReturn(t *testing.T) {
	if got := modconv.RemoveReturn("var a = {};"); got != "var a = {};" {
		t.Fatalf("RemoveReturn changed text: %q", got)
	}
}

type stubFetcher map[string]modconv.Vars

func (s stubFetcher) Fetch(_ context.Context, path string) (modconv.Vars, error) {
	v, ok := s[filepath.Base(path)]
	if !ok {
		return modconv.Vars{}, modconv.ErrInvalidFormat
	}
	return v, nil
}

func TestConverterConvertAll(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	good := filepath.Join(in, "framework", "opengl", "gluScale.js")
	bad := filepath.Join(in, "framework", "opengl", "gluBroken.js")
	for _, p := range []string{good, bad} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(moduleSource), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	c := &modconv.Converter{
		Fetcher: stubFetcher{"gluScale.js": {
			Names: []string{"scale"},
			Deps:  []string{"framework/common/tcuTexture", "framework/delibs/debase/deMath"},
		}},
		InDir:  in,
		OutDir: out,
	}
	res, err := c.ConvertAll(context.Background())
	if err != nil {
		t.Fatalf("ConvertAll: %v", err)
	}
	if len(res.Converted) != 1 || res.Invalid() != 1 {
		t.Fatalf("result = %+v", res)
	}
	data, err := os.ReadFile(filepath.Join(out, "framework", "opengl", "gluScale.js"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(convertedSource, string(data)); diff != "" {
		t.Fatalf("converted file mismatch (-want +got):\n%s", diff)
	}
}

func TestConverterNamespaceBelowDeqp(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := filepath.Join(in, "deqp", "framework", "opengl", "gluScale.js")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte(moduleSource), 0o644); err != nil {
		t.Fatal(err)
	}
	c := &modconv.Converter{
		Fetcher: stubFetcher{"gluScale.js": {
			Names: []string{"scale"},
			Deps:  []string{"framework/common/tcuTexture", "framework/delibs/debase/deMath"},
		}},
		InDir:  in,
		OutDir: out,
	}
	dest, err := c.ConvertFile(context.Background(), src)
	if err != nil {
		t.Fatalf("ConvertFile: %v", err)
	}
	if want := filepath.Join(out, "deqp", "framework", "opengl", "gluScale.js"); dest != want {
		t.Fatalf("dest = %q, want %q", dest, want)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(convertedSource, string(data)); diff != "" {
		t.Fatalf("converted file mismatch (-want +got):\n%s", diff)
	}
}
