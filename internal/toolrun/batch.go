package toolrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"deqpkit/internal/trace"
)

// DefaultTimeout bounds a single section when the batch does not set one.
const DefaultTimeout = 10 * time.Minute

// tailSize is how much trailing output is kept for summary parsing.
const tailSize = 64 << 10

// Section is one tool invocation inside a job. Its output is appended to the
// job's report after an optional title line.
type Section struct {
	Title string
	Tool  Tool
}

// Job is a single unit of work producing exactly one report.
type Job struct {
	// Name identifies the job in progress events and logs.
	Name string
	// Inputs lists the source files the job reads; used for cache keys.
	Inputs []string
	// Report is the destination file. Empty means the batch's Stdout.
	Report string
	// Header is written before any section output. Nil writes no header.
	Header   *Header
	Sections []Section
	// NoCache keeps the job out of the cache. Set it for jobs that read a
	// whole tree not listed in Inputs.
	NoCache bool
}

// SectionOutcome is the result of running one section.
type SectionOutcome struct {
	Title      string
	Summary    Summary
	HasSummary bool
	ExitCode   int
	Elapsed    time.Duration
}

// Outcome is the result of running one job.
type Outcome struct {
	Job      string
	Report   string
	Sections []SectionOutcome
	Cached   bool
	// Err is set when the job could not complete: a launch failure, a
	// timeout, or an I/O error on the report.
	Err     error
	Elapsed time.Duration
}

// Summary sums the parsed summaries of all sections. ok is false when no
// section printed one.
func (o Outcome) Summary() (Summary, bool) {
	var total Summary
	found := false
	for _, s := range o.Sections {
		if !s.HasSummary {
			continue
		}
		found = true
		total.Errors += s.Summary.Errors
		total.Warnings += s.Summary.Warnings
	}
	return total, found
}

// Launched reports whether the job's tool started.
func (o Outcome) Launched() bool {
	var le *LaunchError
	return !errors.As(o.Err, &le)
}

// Totals is the running tally across a batch.
type Totals struct {
	Jobs       int
	Summarized int
	Cached     int
	Failed     int
	Errors     int
	Warnings   int
}

// Add folds an outcome into the totals and returns the new value.
func (t Totals) Add(o Outcome) Totals {
	t.Jobs++
	if o.Cached {
		t.Cached++
	}
	if o.Err != nil {
		t.Failed++
	}
	if s, ok := o.Summary(); ok {
		t.Summarized++
		t.Errors += s.Errors
		t.Warnings += s.Warnings
	}
	return t
}

// Passed reports whether the batch produced no errors, no warnings and no
// failed jobs.
func (t Totals) Passed() bool {
	return t.Errors+t.Warnings == 0 && t.Failed == 0
}

// Verdict is the final pass/fail line.
func (t Totals) Verdict() string {
	if t.Passed() {
		return "Passed"
	}
	msg := "Compilation failed: " + strconv.Itoa(t.Errors) + " error(s), " + strconv.Itoa(t.Warnings) + " warning(s)"
	if t.Failed > 0 {
		msg += fmt.Sprintf(", %d job(s) failed", t.Failed)
	}
	return msg
}

// Result aggregates a batch run.
type Result struct {
	Outcomes []Outcome
	Totals   Totals
	Timings  Timings
}

// Batch runs jobs one after another.
type Batch struct {
	// Timeout bounds each section; zero uses DefaultTimeout.
	Timeout time.Duration
	// Stdout receives output of jobs without a report path, and tool stderr
	// for sections that do not merge it. Nil means os.Stdout.
	Stdout io.Writer
	Stderr io.Writer
	// Progress receives job events. May be nil.
	Progress ProgressSink
	// Cache, when set, lets unchanged jobs reuse a previous report.
	Cache  *DiskCache
	Logger *zap.Logger
}

func (b *Batch) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func (b *Batch) emit(ev Event) {
	if b.Progress != nil {
		b.Progress.OnEvent(ev)
	}
}

func (b *Batch) stdout() io.Writer {
	if b.Stdout == nil {
		return os.Stdout
	}
	return b.Stdout
}

func (b *Batch) stderr() io.Writer {
	if b.Stderr == nil {
		return os.Stderr
	}
	return b.Stderr
}

// Run executes jobs sequentially, folding each outcome into totals. A job that
// fails does not stop the ones after it. The returned error is non-nil only
// when ctx is cancelled before all jobs ran.
func (b *Batch) Run(ctx context.Context, jobs []Job, totals Totals) (Result, error) {
	res := Result{Totals: totals, Outcomes: make([]Outcome, 0, len(jobs))}
	for _, job := range jobs {
		b.emit(Event{Job: job.Name, Status: StatusQueued})
	}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		outcome := b.runJob(ctx, job, &res.Timings)
		res.Outcomes = append(res.Outcomes, outcome)
		res.Totals = res.Totals.Add(outcome)
	}
	return res, nil
}

// RunJob executes a single job.
func (b *Batch) RunJob(ctx context.Context, job Job) Outcome {
	var timings Timings
	return b.runJob(ctx, job, &timings)
}

func (b *Batch) runJob(ctx context.Context, job Job, timings *Timings) Outcome {
	log := b.logger().With(zap.String("job", job.Name))
	ctx, span := trace.Start(ctx, trace.ScopeJob, "job:"+job.Name)
	started := time.Now()
	outcome := Outcome{Job: job.Name, Report: job.Report}
	defer func() {
		outcome.Elapsed = time.Since(started)
		status := StatusDone
		if outcome.Err != nil {
			status = StatusError
			span.WithExtra("error", outcome.Err.Error())
		}
		if s, ok := outcome.Summary(); ok {
			span.WithExtra("summary", s.String())
		}
		span.End(string(status))
		b.emit(Event{Job: job.Name, Stage: StageReport, Status: status, Err: outcome.Err, Elapsed: outcome.Elapsed})
	}()

	var key Digest
	useCache := b.Cache != nil && !job.NoCache
	if useCache {
		cacheStart := time.Now()
		b.emit(Event{Job: job.Name, Stage: StageCache, Status: StatusWorking})
		k, err := Key(job)
		if err != nil {
			log.Debug("cache key unavailable", zap.Error(err))
		} else {
			key = k
			if hit, ok := b.restore(job, key, log); ok {
				timings.Add(StageCache, time.Since(cacheStart))
				hit.Report = job.Report
				outcome = hit
				return outcome
			}
		}
		timings.Add(StageCache, time.Since(cacheStart))
	}

	out, closeOut, err := b.openReport(job)
	if err != nil {
		outcome.Err = err
		log.Error("cannot open report", zap.Error(err))
		return outcome
	}
	var captured *bytes.Buffer
	if useCache {
		captured = &bytes.Buffer{}
		out = io.MultiWriter(out, captured)
	}

	compileStart := time.Now()
	b.emit(Event{Job: job.Name, Stage: StageCompile, Status: StatusWorking})
	if job.Header != nil {
		if _, err := job.Header.WriteTo(out); err != nil {
			outcome.Err = fmt.Errorf("write header: %w", err)
		}
	}
	for _, section := range job.Sections {
		if outcome.Err != nil {
			break
		}
		so, err := b.runSection(ctx, section, out, log)
		outcome.Sections = append(outcome.Sections, so)
		if err != nil {
			outcome.Err = err
		}
	}
	timings.Add(StageCompile, time.Since(compileStart))

	if err := closeOut(); err != nil && outcome.Err == nil {
		outcome.Err = fmt.Errorf("close report: %w", err)
	}
	if outcome.Err != nil {
		log.Warn("job failed", zap.Error(outcome.Err))
		return outcome
	}
	if s, ok := outcome.Summary(); ok {
		log.Info("job finished", zap.String("summary", s.String()), zap.String("report", job.Report))
	} else {
		log.Info("job finished", zap.String("report", job.Report))
	}
	if useCache && captured != nil {
		b.store(key, outcome, captured.Bytes(), log)
	}
	return outcome
}

func (b *Batch) runSection(ctx context.Context, section Section, out io.Writer, log *zap.Logger) (SectionOutcome, error) {
	so := SectionOutcome{Title: section.Title}
	if err := writeSectionTitle(out, section.Title); err != nil {
		return so, fmt.Errorf("write section title: %w", err)
	}
	if section.Tool == nil {
		return so, &LaunchError{Tool: section.Title, Err: errors.New("no tool configured")}
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	command := section.Tool.Describe()
	log.Debug("running tool", zap.String("section", section.Title), zap.String("command", command))
	_, span := trace.Start(runCtx, trace.ScopeTool, command)
	tail := newTailBuffer(tailSize)
	started := time.Now()
	err := section.Tool.Stream(runCtx, io.MultiWriter(out, tail), b.stderr())
	so.Elapsed = time.Since(started)
	so.Summary, so.HasSummary = ParseSummary(tail.String())
	if so.HasSummary {
		span.WithExtra("summary", so.Summary.String())
	}
	span.End(errString(err))

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		so.ExitCode = exitErr.Code
		log.Debug("tool exited with non-zero status", zap.Int("code", exitErr.Code))
		return so, nil
	}
	return so, err
}

func (b *Batch) openReport(job Job) (io.Writer, func() error, error) {
	if job.Report == "" {
		return b.stdout(), func() error { return nil }, nil
	}
	f, err := os.Create(job.Report)
	if err != nil {
		return nil, nil, fmt.Errorf("create report %s: %w", job.Report, err)
	}
	return f, f.Close, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
