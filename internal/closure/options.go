package closure

import (
	"fmt"
	"strings"

	"deqpkit/internal/toolrun"
)

// CompilationLevel is the compiler's --compilation_level.
type CompilationLevel string

const (
	WhitespaceOnly CompilationLevel = "WHITESPACE_ONLY"
	Simple         CompilationLevel = "SIMPLE_OPTIMIZATIONS"
	Advanced       CompilationLevel = "ADVANCED_OPTIMIZATIONS"
)

// Levels lists every compilation level from least to most aggressive.
var Levels = []CompilationLevel{WhitespaceOnly, Simple, Advanced}

// ParseLevel accepts the canonical names, the compiler's short forms and the
// lowercase aliases used in deqpkit.toml.
func ParseLevel(s string) (CompilationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "whitespace_only", "whitespace", "none":
		return WhitespaceOnly, nil
	case "simple_optimizations", "simple":
		return Simple, nil
	case "advanced_optimizations", "advanced":
		return Advanced, nil
	default:
		return "", fmt.Errorf("unknown compilation level %q (expected: whitespace|simple|advanced)", s)
	}
}

// ParseLevels parses a list, rejecting duplicates.
func ParseLevels(values []string) ([]CompilationLevel, error) {
	out := make([]CompilationLevel, 0, len(values))
	seen := make(map[CompilationLevel]bool, len(values))
	for _, v := range values {
		lvl, err := ParseLevel(v)
		if err != nil {
			return nil, err
		}
		if seen[lvl] {
			return nil, fmt.Errorf("compilation level %s listed twice", lvl)
		}
		seen[lvl] = true
		out = append(out, lvl)
	}
	return out, nil
}

// WarningLevel is the compiler's --warning_level.
type WarningLevel string

const (
	Quiet   WarningLevel = "QUIET"
	Default WarningLevel = "DEFAULT"
	Verbose WarningLevel = "VERBOSE"
)

// ParseWarningLevel parses a warning level, case-insensitively.
func ParseWarningLevel(s string) (WarningLevel, error) {
	switch w := WarningLevel(strings.ToUpper(strings.TrimSpace(s))); w {
	case Quiet, Default, Verbose:
		return w, nil
	default:
		return "", fmt.Errorf("unknown warning level %q (expected: quiet|default|verbose)", s)
	}
}

// OutputFormat is the hosted service's output_format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatXML  OutputFormat = "xml"
)

// ParseOutputFormat parses an output format.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatXML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected: text|json|xml)", s)
	}
}

// OutputInfo is one value of the hosted service's repeatable output_info.
type OutputInfo string

const (
	InfoCompiledCode OutputInfo = "compiled_code"
	InfoWarnings     OutputInfo = "warnings"
	InfoErrors       OutputInfo = "errors"
	InfoStatistics   OutputInfo = "statistics"
)

// ParseOutputInfo parses an output_info value.
func ParseOutputInfo(s string) (OutputInfo, error) {
	switch i := OutputInfo(strings.ToLower(strings.TrimSpace(s))); i {
	case InfoCompiledCode, InfoWarnings, InfoErrors, InfoStatistics:
		return i, nil
	default:
		return "", fmt.Errorf("unknown output info %q (expected: compiled_code|warnings|errors|statistics)", s)
	}
}

// Options are the compiler flags shared by every invocation in a run.
type Options struct {
	Level   CompilationLevel
	Warning WarningLevel
	// JSCompWarnings are diagnostic groups promoted to warnings, e.g. "undefinedVars".
	JSCompWarnings []string
	Externs        []string
	EntryPoint     string
	OutputFile     string
	// Extra flags are appended verbatim.
	Extra []string
}

// Flags renders the options in a fixed order: level, warning level, jscomp
// warnings, externs, entry point, output file, extra.
func (o Options) Flags() []string {
	var args []string
	if o.Level != "" {
		args = append(args, "--compilation_level", string(o.Level))
	}
	if o.Warning != "" {
		args = append(args, "--warning_level", string(o.Warning))
	}
	for _, w := range o.JSCompWarnings {
		args = append(args, "--jscomp_warning", w)
	}
	for _, e := range o.Externs {
		args = append(args, "--externs", e)
	}
	if o.EntryPoint != "" {
		args = append(args, "--closure_entry_point="+o.EntryPoint)
	}
	if o.OutputFile != "" {
		args = append(args, "--js_output_file", o.OutputFile)
	}
	return append(args, o.Extra...)
}

// HeaderFields describes the options as report header lines.
func (o Options) HeaderFields() []toolrun.Field {
	var fields []toolrun.Field
	if o.Warning != "" {
		fields = append(fields, toolrun.Field{Key: "WARNING LEVEL", Value: string(o.Warning)})
	}
	if len(o.JSCompWarnings) > 0 {
		fields = append(fields, toolrun.Field{Key: "JSCOMP WARNINGS", Value: strings.Join(o.JSCompWarnings, ", ")})
	}
	if len(o.Externs) > 0 {
		fields = append(fields, toolrun.Field{Key: "EXTERNS", Value: strings.Join(o.Externs, ", ")})
	}
	if o.EntryPoint != "" {
		fields = append(fields, toolrun.Field{Key: "ENTRY POINT", Value: o.EntryPoint})
	}
	return fields
}
