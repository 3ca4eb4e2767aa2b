package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"deqpkit/internal/closure"
	"deqpkit/internal/rewrite"
)

// FileName is the manifest looked up from the working directory upwards.
const FileName = "deqpkit.toml"

// Duration is a time.Duration written as "10m" in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %s", text)
	}
	d.Duration = v
	return nil
}

// Config is the decoded deqpkit.toml.
type Config struct {
	Compiler CompilerConfig `toml:"compiler"`
	Service  ServiceConfig  `toml:"service"`
	Build    BuildConfig    `toml:"build"`
	Convert  ConvertConfig  `toml:"convert"`
	Reformat ReformatConfig `toml:"reformat"`
	Cache    CacheConfig    `toml:"cache"`
}

type CompilerConfig struct {
	Java         string   `toml:"java"`
	JavaArgs     []string `toml:"java_args"`
	Jar          string   `toml:"jar"`
	Backend      string   `toml:"backend"`
	Levels       []string `toml:"levels"`
	WarningLevel string   `toml:"warning_level"`
	Externs      []string `toml:"externs"`
	Timeout      Duration `toml:"timeout"`
}

type ServiceConfig struct {
	Endpoint string   `toml:"endpoint"`
	Timeout  Duration `toml:"timeout"`
}

type BuildConfig struct {
	Python         string            `toml:"python"`
	ClosureLibrary string            `toml:"closure_library"`
	ClosureBuilder string            `toml:"closure_builder"`
	Targets        map[string]string `toml:"targets"`
}

type ConvertConfig struct {
	Helper     string `toml:"helper"`
	Whitelist  string `toml:"whitelist"`
	InDir      string `toml:"in_dir"`
	OutDir     string `toml:"out_dir"`
	DepsWriter string `toml:"deps_writer"`
	DepsPrefix string `toml:"deps_prefix"`
	DepsFile   string `toml:"deps_file"`
}

type ReformatConfig struct {
	Rules []rewrite.Rule `toml:"rules"`
}

type CacheConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the configuration used without a manifest.
func Default() Config {
	return Config{
		Compiler: CompilerConfig{
			Java:         "java",
			Jar:          "compiler.jar",
			Backend:      string(closure.BackendJar),
			Levels:       []string{"whitespace", "simple"},
			WarningLevel: string(closure.Verbose),
			Timeout:      Duration{10 * time.Minute},
		},
		Service: ServiceConfig{
			Endpoint: closure.DefaultEndpoint,
			Timeout:  Duration{time.Minute},
		},
		Build: BuildConfig{
			Python:         "python",
			ClosureLibrary: closure.DefaultLibraryRoot,
			ClosureBuilder: closure.DefaultClosureBuilder,
			Targets:        map[string]string{},
		},
		Convert: ConvertConfig{
			Helper:     "./fetch_vars.js",
			Whitelist:  "whitelist",
			InDir:      ".",
			OutDir:     "converted",
			DepsWriter: closure.DefaultDepsWriter,
			DepsPrefix: closure.DefaultDepsPrefix,
			DepsFile:   closure.DefaultDepsFile,
		},
	}
}

// Manifest is a loaded configuration and where it came from.
type Manifest struct {
	// Path is empty when defaults are in use.
	Path   string
	Root   string
	Config Config
}

// Find walks from startDir to the filesystem root looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Discover loads the manifest found from startDir, or defaults when there is
// none. explicit, when set, must exist.
func Discover(startDir, explicit string) (*Manifest, error) {
	path := explicit
	if path == "" {
		found, ok, err := Find(startDir)
		if err != nil {
			return nil, err
		}
		if !ok {
			root, _ := filepath.Abs(startDir)
			return &Manifest{Root: root, Config: Default()}, nil
		}
		path = found
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

// Load decodes path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("service", "endpoint") && strings.TrimSpace(cfg.Service.Endpoint) == "" {
		return Config{}, fmt.Errorf("%s: [service].endpoint is empty", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerations and rule patterns.
func (c Config) Validate() error {
	if _, err := closure.ParseBackend(c.Compiler.Backend); err != nil {
		return fmt.Errorf("[compiler].backend: %w", err)
	}
	if _, err := closure.ParseLevels(c.Compiler.Levels); err != nil {
		return fmt.Errorf("[compiler].levels: %w", err)
	}
	if len(c.Compiler.Levels) == 0 {
		return errors.New("[compiler].levels: at least one level is required")
	}
	if c.Compiler.WarningLevel != "" {
		if _, err := closure.ParseWarningLevel(c.Compiler.WarningLevel); err != nil {
			return fmt.Errorf("[compiler].warning_level: %w", err)
		}
	}
	for name, ns := range c.Build.Targets {
		if strings.TrimSpace(ns) == "" {
			return fmt.Errorf("[build.targets].%s: empty namespace", name)
		}
	}
	for i, r := range c.Reformat.Rules {
		if _, err := r.Compile(); err != nil {
			return fmt.Errorf("[[reformat.rules]] #%d: %w", i+1, err)
		}
	}
	return nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Rules returns the configured reformat rules, or the built-in ones.
func (c Config) Rules() []rewrite.Rule {
	if len(c.Reformat.Rules) == 0 {
		return rewrite.DefaultRules()
	}
	return c.Reformat.Rules
}
