package toolchain

import "path/filepath"

// DefaultTriple is the target passed to clang and llc.
const DefaultTriple = "tricore"

// Tools locates the compiler and backend binaries of a build.
type Tools struct {
	BinDir string
	Triple string
}

func (t Tools) triple() string {
	if t.Triple == "" {
		return DefaultTriple
	}
	return t.Triple
}

// Clang is the path of the clang binary.
func (t Tools) Clang() string {
	return filepath.Join(t.BinDir, "clang")
}

// LLC is the path of the llc binary.
func (t Tools) LLC() string {
	return filepath.Join(t.BinDir, "llc")
}

// FrontendCommand compiles the C file src to textual LLVM IR at dst.
func (t Tools) FrontendCommand(src, dst string, extra ...string) Command {
	args := []string{"-S", "-emit-llvm", "--target=" + t.triple()}
	args = append(args, extra...)
	args = append(args, src, "-o", dst)
	return Command{Name: t.Clang(), Args: args}
}

// BackendCommand lowers the IR file src to target assembly at dst.
func (t Tools) BackendCommand(src, dst string, extra ...string) Command {
	args := []string{"-mtriple=" + t.triple()}
	args = append(args, extra...)
	args = append(args, src, "-o", dst)
	return Command{Name: t.LLC(), Args: args}
}
