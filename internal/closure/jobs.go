package closure

import (
	"fmt"
	"path/filepath"
	"strings"

	"deqpkit/internal/toolrun"
)

// Report header text shared by every per-file report.
const (
	ReportTitle  = "CLOSURE COMPILER OUTPUT"
	ReportExt    = ".txt"
	fieldSource  = "JavaScript shader file"
	fieldOutput  = "Output file from CLOSURE COMPILER"
	fieldBackend = "BACKEND"
	levelPrefix  = "COMPILATION LEVEL: "
)

// Toolchain turns files into compile jobs for the chosen backend.
type Toolchain struct {
	Backend  Backend
	Compiler Compiler
	Service  Service
	// Options apply to every section; Level is overridden per section.
	Options Options
}

// Tool returns the tool compiling file at level.
func (tc Toolchain) Tool(file string, level CompilationLevel) (toolrun.Tool, error) {
	switch tc.Backend {
	case BackendJar, "":
		opts := tc.Options
		opts.Level = level
		return tc.Compiler.Command([]string{file}, opts), nil
	case BackendService:
		return ServiceRequest{
			Service: tc.Service,
			Files:   []string{file},
			Level:   level,
			Format:  FormatText,
			Info:    []OutputInfo{InfoWarnings, InfoErrors, InfoStatistics},
		}, nil
	case BackendBuiltin:
		return NewMinifier(file, level)
	default:
		return nil, fmt.Errorf("unknown backend %q", tc.Backend)
	}
}

// PerFileJobs builds one job per .js file with one section per level. Each
// report sits next to its input with a .txt extension.
func (tc Toolchain) PerFileJobs(files []string, levels []CompilationLevel) ([]toolrun.Job, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("no compilation level selected")
	}
	jobs := make([]toolrun.Job, 0, len(files))
	for _, file := range files {
		if !strings.EqualFold(filepath.Ext(file), ".js") {
			continue
		}
		report := toolrun.ReportPath(file, ReportExt)
		header := &toolrun.Header{
			Title: ReportTitle,
			Fields: []toolrun.Field{
				{Key: fieldSource, Value: file},
				{Key: fieldOutput, Value: report},
				{Key: fieldBackend, Value: string(tc.backend())},
			},
		}
		header.Fields = append(header.Fields, tc.Options.HeaderFields()...)
		job := toolrun.Job{
			Name:   file,
			Inputs: []string{file},
			Report: report,
			Header: header,
		}
		for _, level := range levels {
			tool, err := tc.Tool(file, level)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			job.Sections = append(job.Sections, toolrun.Section{Title: levelPrefix + string(level), Tool: tool})
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (tc Toolchain) backend() Backend {
	if tc.Backend == "" {
		return BackendJar
	}
	return tc.Backend
}
