package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deqpkit/internal/config"
	"deqpkit/internal/logging"
	"deqpkit/internal/observ"
	"deqpkit/internal/toolrun"
	"deqpkit/internal/trace"
)

// session carries what every command needs: configuration, logger, tracer
// and output streams.
type session struct {
	ctx      context.Context
	manifest *config.Manifest
	cfg      config.Config
	log      *zap.Logger
	timer    *observ.Timer
	span     *trace.Span
	out      io.Writer
	errOut   io.Writer
	quiet    bool
	timings  bool
	cleanup  func()
}

func openSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Root().PersistentFlags()
	colorMode, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	if err := applyColorMode(colorMode); err != nil {
		return nil, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	log, err := logging.New(logLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if cmd.Context() == nil {
		cmd.SetContext(context.Background())
	}
	closeTrace, err := setupTracing(cmd)
	if err != nil {
		return nil, err
	}

	timer := observ.NewTimer()
	idx := timer.Begin("config")
	manifest, err := config.Discover(".", configPath)
	if err != nil {
		closeTrace()
		return nil, err
	}
	timer.End(idx, manifest.Path)
	if manifest.Path != "" {
		log.Debug("loaded manifest", zap.String("path", manifest.Path))
	}

	ctx, span := trace.Start(cmd.Context(), trace.ScopeCommand, cmd.CommandPath())
	return &session{
		ctx:      ctx,
		manifest: manifest,
		cfg:      manifest.Config,
		log:      log,
		timer:    timer,
		span:     span,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		quiet:    quiet,
		timings:  timings,
		cleanup:  closeTrace,
	}, nil
}

// Close prints timings when requested and releases the tracer.
func (s *session) Close() {
	if s.timings {
		fmt.Fprint(s.errOut, s.timer.Summary())
	}
	s.span.End("")
	_ = s.log.Sync()
	s.cleanup()
}

// step starts a timed phase; call the returned func with a note to end it.
func (s *session) step(name string) func(note string) {
	idx := s.timer.Begin(name)
	return func(note string) { s.timer.End(idx, note) }
}

func (s *session) printf(format string, args ...any) {
	if s.quiet {
		return
	}
	fmt.Fprintf(s.out, format, args...)
}

// batch returns a runner configured from [compiler] and --cache.
func (s *session) batch(timeout time.Duration, useCache bool) (*toolrun.Batch, error) {
	if timeout <= 0 {
		timeout = s.cfg.Compiler.Timeout.Duration
	}
	b := &toolrun.Batch{
		Timeout: timeout,
		Stdout:  s.out,
		Stderr:  s.errOut,
		Logger:  s.log,
	}
	if useCache {
		cache, err := toolrun.OpenDiskCache("deqpkit")
		if err != nil {
			return nil, fmt.Errorf("failed to open report cache: %w", err)
		}
		b.Cache = cache
	}
	return b, nil
}

// finish prints per-job lines and the verdict, and turns a failed verdict
// into errVerdictFailed.
func (s *session) finish(res toolrun.Result) error {
	for _, o := range res.Outcomes {
		s.printf("%s\n", outcomeLine(o))
	}
	recordStageTimings(s.timer, res.Timings)
	verdict := res.Totals.Verdict()
	if res.Totals.Passed() {
		if !s.quiet {
			color.New(color.FgGreen, color.Bold).Fprintln(s.out, verdict)
		}
		return nil
	}
	color.New(color.FgRed, color.Bold).Fprintln(s.out, verdict)
	return errVerdictFailed
}

func outcomeLine(o toolrun.Outcome) string {
	var b strings.Builder
	b.WriteString(o.Job)
	b.WriteString(": ")
	switch {
	case o.Err != nil:
		b.WriteString("failed: " + o.Err.Error())
	default:
		if s, ok := o.Summary(); ok {
			b.WriteString(s.String())
		} else {
			b.WriteString("no summary")
		}
	}
	if o.Cached {
		b.WriteString(" (cached)")
	}
	if o.Report != "" && o.Err == nil {
		b.WriteString(" -> " + o.Report)
	}
	return b.String()
}

func applyColorMode(mode string) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		color.NoColor = os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}
