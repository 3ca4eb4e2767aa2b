package toolrun_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"deqpkit/internal/toolrun"
)

func TestDiskCacheRestoresUnchangedJob(t *testing.T) {
	dir := t.TempDir()
	cache, err := toolrun.NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	input := filepath.Join(dir, "a.js")
	if err := os.WriteFile(input, []byte("var a = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	report := filepath.Join(dir, "a.txt")
	job := toolrun.Job{
		Name:     "a.js",
		Inputs:   []string{input},
		Report:   report,
		Sections: []toolrun.Section{{Title: "LEVEL", Tool: fake("summary", "0", "2")}},
	}
	b := &toolrun.Batch{Cache: cache}

	first := b.RunJob(context.Background(), job)
	if first.Cached || first.Err != nil {
		t.Fatalf("first run: cached=%v err=%v", first.Cached, first.Err)
	}
	want := readFile(t, report)
	if err := os.Remove(report); err != nil {
		t.Fatal(err)
	}

	second := b.RunJob(context.Background(), job)
	if !second.Cached {
		t.Fatal("second run should be served from cache")
	}
	if got := readFile(t, report); got != want {
		t.Fatalf("restored report = %q, want %q", got, want)
	}
	if s, ok := second.Summary(); !ok || s.Warnings != 2 {
		t.Fatalf("restored summary = %+v, %v", s, ok)
	}

	if err := os.WriteFile(input, []byte("var a = 2;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if third := b.RunJob(context.Background(), job); third.Cached {
		t.Fatal("changed input must miss the cache")
	}
}

func TestDiskCacheDropAll(t *testing.T) {
	cache, err := toolrun.NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var key toolrun.Digest
	key[0] = 1
	if err := cache.Put(key, &toolrun.CachedReport{Job: "x", Report: []byte("r")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, err := cache.Get(key); !ok || err != nil {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, ok, _ := cache.Get(key); ok {
		t.Fatal("entry survived DropAll")
	}
}

func TestDiskCacheSkipsNoCacheJob(t *testing.T) {
	dir := t.TempDir()
	cache, err := toolrun.NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	job := toolrun.Job{
		Name:     "deps:core",
		Report:   filepath.Join(dir, "core.dep"),
		Sections: []toolrun.Section{{Tool: fake("silent")}},
		NoCache:  true,
	}
	b := &toolrun.Batch{Cache: cache}
	for i := 0; i < 2; i++ {
		if o := b.RunJob(context.Background(), job); o.Cached || o.Err != nil {
			t.Fatalf("run %d: cached=%v err=%v", i, o.Cached, o.Err)
		}
	}
}
