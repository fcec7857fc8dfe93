// Package testsuite compiles a directory of C programs with a freshly built
// toolchain and records which of them make it through to target assembly.
package testsuite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"tctasks/pkg/fileset"
	"tctasks/pkg/toolchain"
)

const (
	SourceExt = ".c"
	IRExt     = ".ll"
	AsmExt    = ".s"
)

// ErrCasesFailed is returned by Report.Err when at least one case failed.
var ErrCasesFailed = errors.New("test cases failed")

// Stage is one external tool invocation of a case.
type Stage struct {
	Ran    bool
	Result toolchain.Result
}

func (s Stage) Passed() bool {
	return s.Ran && s.Result.OK
}

// Case is the outcome of one source file.
type Case struct {
	Name     string
	Source   string
	Assembly string
	Frontend Stage
	Backend  Stage
	AsmBytes int64
}

// Passed reports whether both stages ran and exited 0.
func (c Case) Passed() bool {
	return c.Frontend.Passed() && c.Backend.Passed()
}

// Suite runs every matched source file through the frontend and then the backend.
type Suite struct {
	Runner toolchain.Runner
	Tools  toolchain.Tools
	// SrcDir holds the *.c test programs.
	SrcDir string
	// AsmDir receives one *.s per passing case. It is recreated by Run.
	AsmDir string
	// WorkDir holds intermediate IR; a temporary directory is used when empty.
	WorkDir      string
	Filter       string
	FrontendArgs []string
	BackendArgs  []string
}

// List returns the matched source file names.
func (s *Suite) List() ([]string, error) {
	return fileset.Select(s.SrcDir, SourceExt, s.Filter)
}

// Run compiles the matched cases one after the other. A failing case does not
// stop the run; the error is reserved for configuration and I/O problems.
func (s *Suite) Run(ctx context.Context) (Report, error) {
	var report Report

	names, err := s.List()
	if err != nil {
		return report, err
	}

	if err := fileset.CheckOverlap(s.SrcDir, s.AsmDir); err != nil {
		return report, err
	}
	if err := fileset.Recreate(s.AsmDir); err != nil {
		return report, err
	}

	workDir := s.WorkDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "tctasks_ir_")
		if err != nil {
			return report, fmt.Errorf("failed to create temp directory: %w", err)
		}
		defer os.RemoveAll(workDir)
	} else if err := os.MkdirAll(workDir, 0755); err != nil {
		return report, fmt.Errorf("failed to create %s: %w", workDir, err)
	}

	for _, name := range names {
		c, err := s.runCase(ctx, name, workDir)
		if err != nil {
			return report, err
		}
		report.Cases = append(report.Cases, c)
	}

	return report, nil
}

func (s *Suite) runCase(ctx context.Context, name, workDir string) (Case, error) {
	base := strings.TrimSuffix(name, SourceExt)
	c := Case{
		Name:     base,
		Source:   filepath.Join(s.SrcDir, name),
		Assembly: filepath.Join(s.AsmDir, base+AsmExt),
	}
	ir := filepath.Join(workDir, base+IRExt)

	res, err := s.Runner.Run(ctx, s.Tools.FrontendCommand(c.Source, ir, s.FrontendArgs...))
	if err != nil {
		return c, fmt.Errorf("case %s: %w", name, err)
	}
	c.Frontend = Stage{Ran: true, Result: res}
	if !res.OK {
		log.Warn("Frontend failed", "case", c.Name, "code", res.ExitCode)
		log.Debug("Frontend output", "case", c.Name, "stderr", string(res.Stderr))
		return c, nil
	}

	res, err = s.Runner.Run(ctx, s.Tools.BackendCommand(ir, c.Assembly, s.BackendArgs...))
	if err != nil {
		return c, fmt.Errorf("case %s: %w", name, err)
	}
	c.Backend = Stage{Ran: true, Result: res}
	if !res.OK {
		log.Warn("Backend failed", "case", c.Name, "code", res.ExitCode)
		log.Debug("Backend output", "case", c.Name, "stderr", string(res.Stderr))
		return c, nil
	}

	if info, err := os.Stat(c.Assembly); err == nil {
		c.AsmBytes = info.Size()
	}
	log.Debug("Case passed", "case", c.Name, "asm", c.Assembly)

	return c, nil
}
