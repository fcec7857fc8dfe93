package toolchain_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tctasks/pkg/toolchain"
)

type fakeRunner struct {
	cmds    []toolchain.Command
	results []toolchain.Result
}

func (f *fakeRunner) Run(_ context.Context, cmd toolchain.Command) (toolchain.Result, error) {
	f.cmds = append(f.cmds, cmd)
	res := toolchain.Result{OK: true, Command: cmd.String()}
	if len(f.results) > 0 {
		res, f.results = f.results[0], f.results[1:]
	}
	return res, nil
}

func sourceRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "llvm"), 0755))
	return root
}

func validConfig(root string) toolchain.BuildConfig {
	return toolchain.BuildConfig{
		SourceRoot:          root,
		ExperimentalTargets: "TriCore",
		BuildType:           toolchain.BuildRelease,
		Clang:               true,
		ParallelLinkJobs:    2,
	}
}

func TestBuildConfigValidate(t *testing.T) {
	root := sourceRoot(t)
	require.NoError(t, validConfig(root).Validate())

	tests := []struct {
		name   string
		mutate func(*toolchain.BuildConfig)
	}{
		{"empty targets", func(c *toolchain.BuildConfig) { c.ExperimentalTargets = "" }},
		{"lower case target", func(c *toolchain.BuildConfig) { c.ExperimentalTargets = "tricore" }},
		{"missing root", func(c *toolchain.BuildConfig) { c.SourceRoot = filepath.Join(root, "missing") }},
		{"empty root", func(c *toolchain.BuildConfig) { c.SourceRoot = t.TempDir() }},
		{"bad build type", func(c *toolchain.BuildConfig) { c.BuildType = "RelWithDebInfo" }},
		{"no link jobs", func(c *toolchain.BuildConfig) { c.ParallelLinkJobs = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig(root)
			tc.mutate(&c)
			require.ErrorIs(t, c.Validate(), toolchain.ErrInvalidBuild)
		})
	}
}

func TestConfigureCommand(t *testing.T) {
	c := validConfig("/src")
	c.UpstreamTargets = "ARM;RISCV"

	cmd := c.ConfigureCommand()
	assert.Equal(t, "cmake", cmd.Name)
	assert.Equal(t, "/src", cmd.Dir)
	assert.Equal(t, []string{
		"-S", "llvm", "-B", "build_tricore_release", "-G", "Ninja",
		"-DLLVM_ENABLE_PROJECTS=clang",
		"-DCMAKE_INSTALL_PREFIX=build_tricore_release",
		"-DLLVM_ENABLE_ASSERTIONS=OFF",
		"-DCMAKE_BUILD_TYPE=Release",
		"-DLLVM_EXPERIMENTAL_TARGETS_TO_BUILD=TriCore",
		"-DLLVM_TARGETS_TO_BUILD=ARM;RISCV",
		"-DLLVM_PARALLEL_LINK_JOBS=2",
		"-DLLVM_USE_LINKER=lld",
	}, cmd.Args)

	c.BuildType = toolchain.BuildDebug
	c.Clang = false
	cmd = c.ConfigureCommand()
	assert.NotContains(t, cmd.Args, "-DLLVM_ENABLE_PROJECTS=clang")
	assert.Contains(t, cmd.Args, "-DLLVM_ENABLE_ASSERTIONS=ON")
	assert.Equal(t, "/src/build_tricore_debug", c.BuildDir())
	assert.Equal(t, "/src/build_tricore_debug/bin", c.BinDir())
}

func TestConfigureAndNinjaShareBuildTree(t *testing.T) {
	for _, root := range []string{"llvm-project", "../llvm-project", ".", "/src"} {
		t.Run(root, func(t *testing.T) {
			c := validConfig(root)
			configure := c.ConfigureCommand()
			ninja := c.NinjaCommand(8)

			require.Equal(t, "-B", configure.Args[2])
			tree := filepath.Join(configure.Dir, configure.Args[3])
			assert.Equal(t, filepath.Clean(ninja.Dir), tree)
			assert.Equal(t, c.BuildDir(), tree)
		})
	}
}

func TestNinjaJobs(t *testing.T) {
	tests := []struct{ cores, want int }{
		{1, 1},
		{2, 1},
		{4, 3},
		{5, 3},
		{16, 14},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, toolchain.NinjaJobs(tc.cores), "cores=%d", tc.cores)
	}

	cmd := validConfig("/src").NinjaCommand(8)
	assert.Equal(t, toolchain.Command{Name: "ninja", Args: []string{"-j", "6"}, Dir: "/src/build_tricore_release"}, cmd)
}

func TestBuild(t *testing.T) {
	root := sourceRoot(t)
	r := &fakeRunner{}

	require.NoError(t, toolchain.Build(context.Background(), r, validConfig(root), 8))

	require.Len(t, r.cmds, 2)
	assert.Equal(t, "cmake", r.cmds[0].Name)
	assert.Equal(t, "ninja", r.cmds[1].Name)
	assert.DirExists(t, filepath.Join(root, "build_tricore_release"))
}

func TestBuildStopsOnConfigureFailure(t *testing.T) {
	r := &fakeRunner{results: []toolchain.Result{{Command: "cmake", ExitCode: 1, Stderr: []byte("CMake Error")}}}

	err := toolchain.Build(context.Background(), r, validConfig(sourceRoot(t)), 8)
	require.ErrorContains(t, err, "configure step failed")
	require.ErrorContains(t, err, "CMake Error")
	assert.Len(t, r.cmds, 1)
}

func TestBuildInvalidConfigRunsNothing(t *testing.T) {
	r := &fakeRunner{}
	c := validConfig(sourceRoot(t))
	c.BuildType = "debug"

	require.ErrorIs(t, toolchain.Build(context.Background(), r, c, 8), toolchain.ErrInvalidBuild)
	assert.Empty(t, r.cmds)
}
