package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
)

// TargetsFile names the file in the LLVM source root holding the default experimental targets.
const TargetsFile = ".experimental_targets_to_build"

const (
	BuildDebug   = "Debug"
	BuildRelease = "Release"
)

// ErrInvalidBuild is returned by BuildConfig.Validate.
var ErrInvalidBuild = errors.New("invalid build configuration")

// BuildConfig describes one CMake + Ninja build of an LLVM checkout.
type BuildConfig struct {
	// SourceRoot is the LLVM monorepo checkout, containing the llvm/ directory.
	SourceRoot string
	// ExperimentalTargets is a ';' separated list, e.g. "TriCore".
	ExperimentalTargets string
	// UpstreamTargets is a ';' separated list of in-tree targets, e.g. "ARM;RISCV".
	UpstreamTargets string
	// BuildType is BuildDebug or BuildRelease.
	BuildType string
	// Clang enables the clang project.
	Clang bool
	// ParallelLinkJobs bounds concurrent link steps; linking LLVM is memory hungry.
	ParallelLinkJobs int
}

// ReadTargetsFile returns the trimmed content of TargetsFile in root.
func ReadTargetsFile(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, TargetsFile))
	if err != nil {
		return "", fmt.Errorf("failed to read targets file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Validate checks the configuration before anything is run.
func (c BuildConfig) Validate() error {
	if c.ExperimentalTargets == "" || !unicode.IsUpper([]rune(c.ExperimentalTargets)[0]) {
		return fmt.Errorf("%w: target name %q must start with an upper case letter", ErrInvalidBuild, c.ExperimentalTargets)
	}

	entries, err := os.ReadDir(c.SourceRoot)
	if err != nil || len(entries) == 0 {
		return fmt.Errorf("%w: %s is empty or does not exist", ErrInvalidBuild, c.SourceRoot)
	}

	if c.BuildType != BuildDebug && c.BuildType != BuildRelease {
		return fmt.Errorf("%w: build type %q must be %s or %s", ErrInvalidBuild, c.BuildType, BuildDebug, BuildRelease)
	}

	if c.ParallelLinkJobs < 1 {
		return fmt.Errorf("%w: parallel link jobs must be at least 1", ErrInvalidBuild)
	}

	return nil
}

// BuildDirName is the build directory name, e.g. build_tricore_release.
func (c BuildConfig) BuildDirName() string {
	return fmt.Sprintf("build_%s_%s", strings.ToLower(c.ExperimentalTargets), strings.ToLower(c.BuildType))
}

// BuildDir is the build directory path inside SourceRoot.
func (c BuildConfig) BuildDir() string {
	return filepath.Join(c.SourceRoot, c.BuildDirName())
}

// BinDir holds the built tools.
func (c BuildConfig) BinDir() string {
	return filepath.Join(c.BuildDir(), "bin")
}

// ConfigureCommand is the CMake configure step, run from SourceRoot.
// Paths are relative to SourceRoot since that is the working directory.
func (c BuildConfig) ConfigureCommand() Command {
	buildDir := c.BuildDirName()

	args := []string{"-S", "llvm", "-B", buildDir, "-G", "Ninja"}
	if c.Clang {
		args = append(args, "-DLLVM_ENABLE_PROJECTS=clang")
	}

	assertions := "OFF"
	if c.BuildType == BuildDebug {
		assertions = "ON"
	}

	args = append(args,
		"-DCMAKE_INSTALL_PREFIX="+buildDir,
		"-DLLVM_ENABLE_ASSERTIONS="+assertions,
		"-DCMAKE_BUILD_TYPE="+c.BuildType,
		"-DLLVM_EXPERIMENTAL_TARGETS_TO_BUILD="+c.ExperimentalTargets,
		"-DLLVM_TARGETS_TO_BUILD="+c.UpstreamTargets,
		"-DLLVM_PARALLEL_LINK_JOBS="+strconv.Itoa(c.ParallelLinkJobs),
		"-DLLVM_USE_LINKER=lld",
	)

	return Command{Name: "cmake", Args: args, Dir: c.SourceRoot}
}

// NinjaCommand is the build step, run from the build directory.
func (c BuildConfig) NinjaCommand(cores int) Command {
	return Command{
		Name: "ninja",
		Args: []string{"-j", strconv.Itoa(NinjaJobs(cores))},
		Dir:  c.BuildDir(),
	}
}

// NinjaJobs leaves two cores free on larger machines and one on smaller ones.
func NinjaJobs(cores int) int {
	jobs := cores - 1
	if cores > 4 {
		jobs = cores - 2
	}
	return max(jobs, 1)
}

// Build validates c, then configures and builds it. It stops at the first
// step that fails.
func Build(ctx context.Context, r Runner, c BuildConfig, cores int) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(c.BuildDir(), 0755); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}

	configure := c.ConfigureCommand()
	log.Info("Configuring", "targets", c.ExperimentalTargets, "cmd", configure.String())
	res, err := r.Run(ctx, configure)
	if err != nil {
		return fmt.Errorf("configure step failed: %w", err)
	}
	if err := Check(res); err != nil {
		return fmt.Errorf("configure step failed: %w", err)
	}
	log.Info("Configured successfully", "took", res.Duration)

	ninja := c.NinjaCommand(cores)
	log.Info("Building", "targets", c.ExperimentalTargets, "cmd", ninja.String())
	res, err = r.Run(ctx, ninja)
	if err != nil {
		return fmt.Errorf("build step failed: %w", err)
	}
	if err := Check(res); err != nil {
		return fmt.Errorf("build step failed: %w", err)
	}
	log.Info("Built successfully", "dir", c.BuildDir(), "took", res.Duration)

	return nil
}
