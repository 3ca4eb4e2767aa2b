package toolrun_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"deqpkit/internal/toolrun"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestBatchWritesHeaderAndSections(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "a.txt")
	job := toolrun.Job{
		Name:   "a.js",
		Report: report,
		Header: &toolrun.Header{
			Title:  "CLOSURE COMPILER OUTPUT",
			Fields: []toolrun.Field{{Key: "JavaScript shader file", Value: "a.js"}},
		},
		Sections: []toolrun.Section{
			{Title: "COMPILATION LEVEL: SIMPLE", Tool: fake("summary", "0", "1")},
			{Title: "COMPILATION LEVEL: ADVANCED", Tool: fake("summary", "1", "2")},
		},
	}
	b := &toolrun.Batch{}
	res, err := b.Run(context.Background(), []toolrun.Job{job}, toolrun.Totals{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := readFile(t, report)
	if !strings.HasPrefix(got, "CLOSURE COMPILER OUTPUT\nJavaScript shader file: a.js\n") {
		t.Fatalf("report header wrong:\n%s", got)
	}
	simple := strings.Index(got, "COMPILATION LEVEL: SIMPLE")
	advanced := strings.Index(got, "COMPILATION LEVEL: ADVANCED")
	if simple < 0 || advanced < simple {
		t.Fatalf("sections out of order:\n%s", got)
	}
	if res.Totals.Errors != 1 || res.Totals.Warnings != 3 {
		t.Fatalf("totals = %+v, want 1 error, 3 warnings", res.Totals)
	}
	if exit := res.Outcomes[0].Sections[1].ExitCode; exit != 1 {
		t.Fatalf("exit code = %d, want 1", exit)
	}
	if res.Outcomes[0].Err != nil {
		t.Fatalf("non-zero exit must not fail the job: %v", res.Outcomes[0].Err)
	}
}

func TestBatchContinuesAfterLaunchFailure(t *testing.T) {
	dir := t.TempDir()
	jobs := []toolrun.Job{
		{Name: "one", Report: filepath.Join(dir, "one.txt"), Sections: []toolrun.Section{{Tool: fake("summary", "1", "0")}}},
		{Name: "two", Report: filepath.Join(dir, "two.txt"), Sections: []toolrun.Section{{Tool: toolrun.Command{Name: "/nonexistent/tool"}}}},
		{Name: "three", Report: filepath.Join(dir, "three.txt"), Sections: []toolrun.Section{{Tool: fake("summary", "0", "4")}}},
	}
	var mu sync.Mutex
	var events []toolrun.Event
	b := &toolrun.Batch{Progress: toolrun.FuncSink(func(ev toolrun.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})}
	res, err := b.Run(context.Background(), jobs, toolrun.Totals{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(res.Outcomes))
	}
	if res.Outcomes[1].Launched() {
		t.Fatalf("job two should report a launch failure, got %v", res.Outcomes[1].Err)
	}
	if !strings.Contains(readFile(t, filepath.Join(dir, "three.txt")), "0 error(s), 4 warning(s)") {
		t.Fatal("job three did not run after job two failed")
	}
	if res.Totals.Failed != 1 || res.Totals.Errors != 1 || res.Totals.Warnings != 4 {
		t.Fatalf("totals = %+v", res.Totals)
	}
	if res.Totals.Passed() {
		t.Fatal("batch with a failed job must not pass")
	}
	var errorEvents int
	for _, ev := range events {
		if ev.Status == toolrun.StatusError {
			errorEvents++
		}
	}
	if errorEvents != 1 {
		t.Fatalf("got %d error events, want 1", errorEvents)
	}
}

func TestBatchStreamsToStdoutWithoutReport(t *testing.T) {
	var out bytes.Buffer
	b := &toolrun.Batch{Stdout: &out}
	outcome := b.RunJob(context.Background(), toolrun.Job{
		Name:     "deps",
		Sections: []toolrun.Section{{Tool: fake("silent")}},
	})
	if outcome.Err != nil {
		t.Fatalf("RunJob: %v", outcome.Err)
	}
	if _, ok := outcome.Summary(); ok {
		t.Fatal("silent tool should have no summary")
	}
	if !strings.Contains(out.String(), "no tally here") {
		t.Fatalf("stdout = %q", out.String())
	}
}

func TestBatchAccumulatesOntoGivenTotals(t *testing.T) {
	b := &toolrun.Batch{Stdout: &bytes.Buffer{}}
	start := toolrun.Totals{Jobs: 1, Errors: 2}
	res, err := b.Run(context.Background(), []toolrun.Job{
		{Name: "x", Sections: []toolrun.Section{{Tool: fake("summary", "1", "1")}}},
	}, start)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Totals.Jobs != 2 || res.Totals.Errors != 3 || res.Totals.Warnings != 1 {
		t.Fatalf("totals = %+v", res.Totals)
	}
}

func TestBatchStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &toolrun.Batch{Stdout: &bytes.Buffer{}}
	res, err := b.Run(ctx, []toolrun.Job{{Name: "x", Sections: []toolrun.Section{{Tool: fake("silent")}}}}, toolrun.Totals{})
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(res.Outcomes) != 0 {
		t.Fatalf("got %d outcomes, want none", len(res.Outcomes))
	}
}
