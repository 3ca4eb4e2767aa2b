package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestStartNestsSpansAndFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	tracer, err := New(Config{Level: LevelJob, Format: FormatNDJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := WithTracer(context.Background(), tracer)

	ctx, batch := Start(ctx, ScopeBatch, "compile")
	jobCtx, job := Start(ctx, ScopeJob, "job:a.js")
	_, tool := Start(jobCtx, ScopeTool, "java -jar compiler.jar")
	tool.End("")
	job.WithExtra("summary", "0 error(s), 1 warning(s)").End("done")
	batch.End("")

	var events []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var ev map[string]any
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("bad line %q: %v", line, err)
		}
		events = append(events, ev)
	}
	// tool spans are below LevelJob
	if len(events) != 4 {
		t.Fatalf("got %d events:\n%s", len(events), buf.String())
	}
	if events[1]["name"] != "job:a.js" || events[1]["parent_id"] != events[0]["span_id"] {
		t.Fatalf("job span not parented to batch: %v / %v", events[0], events[1])
	}
	extra, _ := events[2]["extra"].(map[string]any)
	if extra["summary"] != "0 error(s), 1 warning(s)" || events[2]["detail"] != "done" {
		t.Fatalf("job end = %v", events[2])
	}
	if tool.ID() != 0 {
		t.Fatalf("filtered span should be disabled")
	}
}

func TestNewOffIsNop(t *testing.T) {
	tracer, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tracer.Enabled() {
		t.Fatalf("expected disabled tracer")
	}
	_, span := Start(WithTracer(context.Background(), tracer), ScopeCommand, "x")
	if span.End("") != 0 {
		t.Fatalf("nop span should report zero duration")
	}
}

func TestTextFormat(t *testing.T) {
	ev := &Event{
		Time:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Kind:     KindSpanEnd,
		Scope:    ScopeJob,
		ParentID: 1,
		Name:     "job:a.js",
		Detail:   "error",
		Extra:    map[string]string{"b": "2", "a": "1"},
	}
	want := "03:04:05.000 [job]   ← job:a.js (error) {a=1, b=2}\n"
	if got := string(FormatEvent(ev, FormatText)); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParseFlags(t *testing.T) {
	if lvl, err := ParseLevel("JOB"); err != nil || lvl != LevelJob {
		t.Fatalf("ParseLevel = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error")
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat = %v, %v", f, err)
	}
}

func TestHeartbeatStops(t *testing.T) {
	var buf syncBuffer
	tracer := NewStreamTracer(&buf, LevelCommand, FormatText)
	hb := StartHeartbeat(tracer, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	hb.Stop()
	hb.Stop()
	if !strings.Contains(buf.String(), "heartbeat") {
		t.Fatalf("no heartbeat emitted: %q", buf.String())
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatalf("disabled tracer should not start a heartbeat")
	}
}

// syncBuffer guards reads against the heartbeat goroutine; writes are
// already serialized by StreamTracer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
