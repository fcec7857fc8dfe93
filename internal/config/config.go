package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tctasks/pkg/dialect"
	"tctasks/pkg/toolchain"
)

// DefaultPath is read when no --config flag is given. It may be absent.
const DefaultPath = "tctasks.yaml"

// ErrInvalid is returned for configuration files that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

type Build struct {
	SourceRoot          string `yaml:"source_root"`
	ExperimentalTargets string `yaml:"experimental_targets"`
	UpstreamTargets     string `yaml:"upstream_targets"`
	BuildType           string `yaml:"build_type"`
	Clang               *bool  `yaml:"clang"`
	ParallelLinkJobs    int    `yaml:"parallel_link_jobs"`
}

type Test struct {
	// BinDir holds clang and llc; empty means the bin directory of the build section.
	BinDir       string   `yaml:"bin_dir"`
	SrcDir       string   `yaml:"src_dir"`
	AsmDir       string   `yaml:"asm_dir"`
	WorkDir      string   `yaml:"work_dir"`
	Triple       string   `yaml:"triple"`
	FrontendArgs []string `yaml:"frontend_args"`
	BackendArgs  []string `yaml:"backend_args"`
}

type Convert struct {
	SrcDir string   `yaml:"src_dir"`
	OutDir string   `yaml:"out_dir"`
	Header []string `yaml:"header"`
}

// Config is the content of a tctasks.yaml file.
type Config struct {
	Build   Build   `yaml:"build"`
	Test    Test    `yaml:"test"`
	Convert Convert `yaml:"convert"`
}

// Default returns the configuration used when no file sets a value.
func Default() Config {
	clang := true
	return Config{
		Build: Build{
			SourceRoot:       ".",
			BuildType:        toolchain.BuildRelease,
			Clang:            &clang,
			ParallelLinkJobs: 2,
		},
		Test: Test{
			SrcDir: filepath.Join("tests", "c-patterns", "src"),
			AsmDir: filepath.Join("tests", "c-patterns", "src", "assembly"),
			Triple: toolchain.DefaultTriple,
		},
		Convert: Convert{
			SrcDir: filepath.Join("tests", "c-patterns", "src", "assembly"),
			OutDir: filepath.Join("tests", "c-patterns", "src", "tasking"),
			Header: append([]string(nil), dialect.DefaultHeader...),
		},
	}
}

// Load reads path over Default. A missing file is only an error when required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Build.ParallelLinkJobs < 0 {
		return errors.New("build.parallel_link_jobs must not be negative")
	}
	if c.Convert.OutDir != "" && filepath.Clean(c.Convert.OutDir) == filepath.Clean(c.Convert.SrcDir) {
		return errors.New("convert.out_dir must differ from convert.src_dir")
	}
	if c.Test.AsmDir != "" && filepath.Clean(c.Test.AsmDir) == filepath.Clean(c.Test.SrcDir) {
		return errors.New("test.asm_dir must differ from test.src_dir")
	}
	return nil
}

// ToolsDir returns the directory holding the test toolchain binaries.
func (c Config) ToolsDir() (string, error) {
	if c.Test.BinDir != "" {
		return c.Test.BinDir, nil
	}
	bc, err := c.BuildConfig()
	if err != nil {
		return "", err
	}
	return bc.BinDir(), nil
}

// BuildConfig resolves the build section into a toolchain.BuildConfig. Empty
// experimental targets fall back to the targets file in the source root.
func (c Config) BuildConfig() (toolchain.BuildConfig, error) {
	bc := toolchain.BuildConfig{
		SourceRoot:          c.Build.SourceRoot,
		ExperimentalTargets: c.Build.ExperimentalTargets,
		UpstreamTargets:     c.Build.UpstreamTargets,
		BuildType:           c.Build.BuildType,
		Clang:               c.Build.Clang == nil || *c.Build.Clang,
		ParallelLinkJobs:    c.Build.ParallelLinkJobs,
	}

	if bc.ExperimentalTargets == "" {
		targets, err := toolchain.ReadTargetsFile(bc.SourceRoot)
		if err != nil {
			return bc, err
		}
		bc.ExperimentalTargets = targets
	}

	return bc, nil
}
