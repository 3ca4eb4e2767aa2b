package closure

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"deqpkit/internal/toolrun"
)

// Default locations relative to the deqp directory.
const (
	DefaultLibraryRoot    = "../closure-library"
	DefaultClosureBuilder = "../closure-library/closure/bin/build/closurebuilder.py"
	DefaultDepsWriter     = "../closure-library/closure/bin/build/depswriter.py"
	DefaultDepsFile       = "deqp-deps.js"
	DefaultDepsPrefix     = "../../../deqp"
)

// Target is a build target: a short name and the namespace it compiles.
type Target struct {
	Name      string
	Namespace string
}

// DepFile is where the target's dependency list is written.
func (t Target) DepFile() string { return t.Name + ".dep" }

// CompiledFile is the target's compiler report.
func (t Target) CompiledFile() string { return t.Name + ".compiled" }

// TargetsFromMap converts a name→namespace table into targets sorted by name.
func TargetsFromMap(m map[string]string) []Target {
	out := make([]Target, 0, len(m))
	for name, ns := range m {
		out = append(out, Target{Name: name, Namespace: ns})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SelectTarget finds name among targets.
func SelectTarget(targets []Target, name string) (Target, error) {
	for _, t := range targets {
		if t.Name == name {
			return t, nil
		}
	}
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name)
	}
	return Target{}, fmt.Errorf("unknown target %q (known: %s)", name, strings.Join(names, ", "))
}

// Builder drives closurebuilder and the compiler for build targets.
type Builder struct {
	Python         string
	ClosureBuilder string
	LibraryRoot    string
	Compiler       Compiler
	Dir            string
}

func (b Builder) python() string {
	if b.Python == "" {
		return "python"
	}
	return b.Python
}

// DepsJob lists the target's transitive sources into its .dep file. Only
// stdout goes into the file. The result depends on every file under the
// roots, so the job is never cached.
func (b Builder) DepsJob(t Target) toolrun.Job {
	script := b.ClosureBuilder
	if script == "" {
		script = DefaultClosureBuilder
	}
	lib := b.LibraryRoot
	if lib == "" {
		lib = DefaultLibraryRoot
	}
	return toolrun.Job{
		Name:    "deps:" + t.Name,
		Report:  t.DepFile(),
		NoCache: true,
		Sections: []toolrun.Section{{
			Tool: toolrun.Command{
				Name: b.python(),
				Args: []string{script, "--root=" + lib, "--root=.", "--namespace=" + t.Namespace},
				Dir:  b.Dir,
			},
		}},
	}
}

// TargetJob compiles the listed dependencies with advanced optimizations and
// verbose warnings into the target's .compiled file.
func (b Builder) TargetJob(t Target, deps []string) toolrun.Job {
	opts := Options{Level: Advanced, Warning: Verbose, EntryPoint: t.Namespace}
	return toolrun.Job{
		Name:     t.Name,
		Inputs:   deps,
		Report:   t.CompiledFile(),
		Sections: []toolrun.Section{{Tool: b.Compiler.Command(deps, opts)}},
	}
}

// ReadDepsFile returns the non-empty, trimmed lines of a .dep file.
func ReadDepsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, toolrun.MissingFile(path)
		}
		return nil, fmt.Errorf("failed to read deps file: %w", err)
	}
	var deps []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			deps = append(deps, line)
		}
	}
	return deps, sc.Err()
}

// DepsWriter generates the goog.addDependency file for a source tree.
type DepsWriter struct {
	Python string
	Script string
	Dir    string
}

// Job writes the dependency file for the tree rooted at "." served under
// prefix.
func (d DepsWriter) Job(prefix, output string) toolrun.Job {
	python := d.Python
	if python == "" {
		python = "python"
	}
	script := d.Script
	if script == "" {
		script = DefaultDepsWriter
	}
	if prefix == "" {
		prefix = DefaultDepsPrefix
	}
	if output == "" {
		output = DefaultDepsFile
	}
	return toolrun.Job{
		Name:    "depswriter",
		Report:  output,
		NoCache: true,
		Sections: []toolrun.Section{{
			Tool: toolrun.Command{
				Name: python,
				Args: []string{script, "--root_with_prefix=. " + prefix},
				Dir:  d.Dir,
			},
		}},
	}
}

// CompileAllJob compiles every file in one invocation with advanced
// optimizations, verbose warnings and undefined-variable checks.
func CompileAllJob(c Compiler, files []string, report string) toolrun.Job {
	opts := Options{
		Level:          Advanced,
		Warning:        Verbose,
		JSCompWarnings: []string{"undefinedVars"},
	}
	return toolrun.Job{
		Name:     "compile-all",
		Inputs:   files,
		Report:   report,
		Sections: []toolrun.Section{{Tool: c.Command(files, opts)}},
	}
}
