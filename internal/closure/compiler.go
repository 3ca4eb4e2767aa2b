package closure

import (
	"fmt"
	"strings"

	"deqpkit/internal/toolrun"
)

// Compiler locates the Closure Compiler jar and the JVM that runs it.
type Compiler struct {
	Java     string   // defaults to "java"
	JavaArgs []string // e.g. ["-client"]
	Jar      string   // defaults to "compiler.jar"
	Dir      string   // working directory for the process
}

// Command builds "java [args] -jar compiler.jar <flags> --js f ...".
// Compiler output and diagnostics share one stream.
func (c Compiler) Command(files []string, opts Options) toolrun.Command {
	java := c.Java
	if java == "" {
		java = "java"
	}
	jar := c.Jar
	if jar == "" {
		jar = "compiler.jar"
	}
	args := append([]string{}, c.JavaArgs...)
	args = append(args, "-jar", jar)
	args = append(args, opts.Flags()...)
	for _, f := range files {
		args = append(args, "--js", f)
	}
	return toolrun.Command{Name: java, Args: args, Dir: c.Dir, MergeStderr: true}
}

// Backend selects how a compilation section is executed.
type Backend string

const (
	BackendJar     Backend = "jar"
	BackendService Backend = "service"
	BackendBuiltin Backend = "builtin"
)

// ParseBackend parses a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendJar, BackendService, BackendBuiltin:
		return b, nil
	case "":
		return BackendJar, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected: jar|service|builtin)", s)
	}
}
