package config

import (
	"net/http"

	"deqpkit/internal/closure"
)

// Toolchain builds the compiler toolchain described by the configuration.
// backend overrides [compiler].backend when non-empty.
func (c Config) Toolchain(backend string) (closure.Toolchain, error) {
	if backend == "" {
		backend = c.Compiler.Backend
	}
	b, err := closure.ParseBackend(backend)
	if err != nil {
		return closure.Toolchain{}, err
	}
	var warning closure.WarningLevel
	if c.Compiler.WarningLevel != "" {
		if warning, err = closure.ParseWarningLevel(c.Compiler.WarningLevel); err != nil {
			return closure.Toolchain{}, err
		}
	}
	return closure.Toolchain{
		Backend:  b,
		Compiler: c.Compiler.Closure(),
		Service:  c.Service.Closure(),
		Options: closure.Options{
			Warning: warning,
			Externs: c.Compiler.Externs,
		},
	}, nil
}

// Closure returns the compiler location.
func (c CompilerConfig) Closure() closure.Compiler {
	return closure.Compiler{Java: c.Java, JavaArgs: c.JavaArgs, Jar: c.Jar}
}

// Closure returns the service client.
func (s ServiceConfig) Closure() closure.Service {
	client := http.DefaultClient
	if s.Timeout.Duration > 0 {
		client = &http.Client{Timeout: s.Timeout.Duration}
	}
	return closure.Service{Endpoint: s.Endpoint, Client: client}
}

// Builder returns the closurebuilder driver.
func (c Config) Builder() closure.Builder {
	return closure.Builder{
		Python:         c.Build.Python,
		ClosureBuilder: c.Build.ClosureBuilder,
		LibraryRoot:    c.Build.ClosureLibrary,
		Compiler:       c.Compiler.Closure(),
	}
}

// DepsWriter returns the depswriter driver.
func (c Config) DepsWriter() closure.DepsWriter {
	return closure.DepsWriter{Python: c.Build.Python, Script: c.Convert.DepsWriter}
}
