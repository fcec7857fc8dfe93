package toolchain_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tctasks/pkg/toolchain"
)

func sh(script string) toolchain.Command {
	return toolchain.Command{Name: "sh", Args: []string{"-c", script}}
}

func TestExecRunner(t *testing.T) {
	r := &toolchain.ExecRunner{}

	res, err := r.Run(context.Background(), sh("exit 0"))
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Zero(t, res.ExitCode)

	res, err = r.Run(context.Background(), sh("echo broken >&2; exit 3"))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "broken\n", string(res.Stderr))
	assert.Equal(t, "sh -c echo broken >&2; exit 3", res.Command)
}

func TestExecRunnerDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	r := &toolchain.ExecRunner{Stdout: &stdout}

	cmd := sh("pwd -P; echo $TCTASKS_MARKER")
	cmd.Dir = dir
	cmd.Env = []string{"TCTASKS_MARKER=marker"}

	res, err := r.Run(context.Background(), cmd)
	require.NoError(t, err)
	require.True(t, res.OK)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want+"\nmarker\n", stdout.String())
}

func TestExecRunnerTeesStderr(t *testing.T) {
	var stderr bytes.Buffer
	r := &toolchain.ExecRunner{Stderr: &stderr}

	res, err := r.Run(context.Background(), sh("echo warn >&2"))
	require.NoError(t, err)
	assert.Equal(t, "warn\n", stderr.String())
	assert.Equal(t, "warn\n", string(res.Stderr))
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := &toolchain.ExecRunner{}
	_, err := r.Run(context.Background(), toolchain.Command{Name: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
}

func TestExecRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &toolchain.ExecRunner{}
	_, err := r.Run(ctx, sh("sleep 5"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheck(t *testing.T) {
	require.NoError(t, toolchain.Check(toolchain.Result{OK: true}))

	err := toolchain.Check(toolchain.Result{Command: "ninja -j 2", ExitCode: 1, Stderr: []byte("ninja: error\n")})
	require.EqualError(t, err, "ninja -j 2 exited with code 1\nOutput: ninja: error")

	err = toolchain.Check(toolchain.Result{Command: "cmake", ExitCode: 2})
	require.EqualError(t, err, "cmake exited with code 2")
}

func TestTools(t *testing.T) {
	tools := toolchain.Tools{BinDir: "/b/bin"}

	assert.Equal(t, toolchain.Command{
		Name: "/b/bin/clang",
		Args: []string{"-S", "-emit-llvm", "--target=tricore", "-O1", "a.c", "-o", "a.ll"},
	}, tools.FrontendCommand("a.c", "a.ll", "-O1"))

	tools.Triple = "tricore-unknown-elf"
	assert.Equal(t, toolchain.Command{
		Name: "/b/bin/llc",
		Args: []string{"-mtriple=tricore-unknown-elf", "a.ll", "-o", "a.s"},
	}, tools.BackendCommand("a.ll", "a.s"))
}

func TestReadTargetsFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, toolchain.TargetsFile), []byte("TriCore\n"), 0644))

	targets, err := toolchain.ReadTargetsFile(root)
	require.NoError(t, err)
	assert.Equal(t, "TriCore", targets)

	_, err = toolchain.ReadTargetsFile(t.TempDir())
	require.Error(t, err)
}
