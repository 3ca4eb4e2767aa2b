package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deqpkit/internal/closure"
	"deqpkit/internal/rewrite"
	"deqpkit/internal/toolrun"
)

var compileCmd = &cobra.Command{
	Use:   "compile [paths...]",
	Short: "Compile JavaScript files with the Closure Compiler, one report per file",
	Long: `Compile every .js file under the given paths (default: the working directory).
Each file gets a <name>.txt report with one section per compilation level.
A final verdict sums the errors and warnings of all reports.`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringSlice("level", nil, "compilation levels (whitespace|simple|advanced); default from [compiler].levels")
	compileCmd.Flags().String("backend", "", "compiler backend (jar|service|builtin); default from [compiler].backend")
	compileCmd.Flags().Bool("select", false, "choose the file to compile from a menu")
	compileCmd.Flags().Bool("watch", false, "recompile files when they change")
	compileCmd.Flags().Bool("cache", false, "reuse reports of unchanged inputs")
	compileCmd.Flags().Duration("timeout", 0, "time bound per compiler run; default from [compiler].timeout")
	compileCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	levelNames, err := cmd.Flags().GetStringSlice("level")
	if err != nil {
		return fmt.Errorf("failed to get level flag: %w", err)
	}
	backend, err := cmd.Flags().GetString("backend")
	if err != nil {
		return fmt.Errorf("failed to get backend flag: %w", err)
	}
	selectFile, err := cmd.Flags().GetBool("select")
	if err != nil {
		return fmt.Errorf("failed to get select flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	if !cmd.Flags().Changed("cache") {
		useCache = s.cfg.Cache.Enabled
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("failed to get timeout flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	useTUI := shouldUseTUI(mode, s.quiet)

	if len(levelNames) == 0 {
		levelNames = s.cfg.Compiler.Levels
	}
	levels, err := closure.ParseLevels(levelNames)
	if err != nil {
		return err
	}
	toolchain, err := s.cfg.Toolchain(backend)
	if err != nil {
		return err
	}

	done := s.step("discover")
	files, err := collectJS(args)
	if err != nil {
		return err
	}
	done(fmt.Sprintf("%d files", len(files)))
	if len(files) == 0 {
		s.printf("no .js files found\n")
		return nil
	}
	if selectFile {
		if files, err = selectFiles(s, files, useTUI); err != nil {
			return err
		}
	}

	jobs, err := toolchain.PerFileJobs(files, levels)
	if err != nil {
		return err
	}
	batch, err := s.batch(timeout, useCache)
	if err != nil {
		return err
	}
	done = s.step("batch")
	res, err := runBatch(s.ctx, "compile", batch, jobs, toolrun.Totals{}, useTUI && !watch)
	done(fmt.Sprintf("%d jobs", len(res.Outcomes)))
	if err != nil {
		return err
	}
	verdictErr := s.finish(res)
	if !watch {
		return verdictErr
	}

	byFile := make(map[string]toolrun.Job, len(jobs))
	for _, job := range jobs {
		byFile[job.Name] = job
	}
	s.printf("watching %d file(s), press Ctrl+C to stop\n", len(byFile))
	return watchFiles(s.ctx, files, 150*time.Millisecond, s.log, func(file string) {
		job, ok := byFile[file]
		if !ok {
			return
		}
		s.log.Info("recompiling", zap.String("file", file))
		outcome := batch.RunJob(s.ctx, job)
		_ = s.finish(toolrun.Result{Outcomes: []toolrun.Outcome{outcome}, Totals: toolrun.Totals{}.Add(outcome)})
	})
}

// collectJS expands paths into .js files. A missing path is an
// ErrMissingFile; no arguments means the working directory.
func collectJS(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	seen := make(map[string]bool)
	var files []string
	for _, p := range paths {
		found, err := rewrite.WalkJS(p)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, nil
}
