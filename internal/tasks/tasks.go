package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"

	"tctasks/internal/config"
	"tctasks/pkg/color"
	"tctasks/pkg/dialect"
	"tctasks/pkg/testsuite"
	"tctasks/pkg/toolchain"
)

type Tasks struct {
	Verbose    bool   // Enable debug logging
	NoColor    bool   // Disable colored output
	ConfigPath string // Path to the YAML configuration, empty for the default
	List       bool   // Print the matched files instead of processing them
	Filter     string // File name prefix, or an exact name when it carries the extension
	Cores      int    // CPU count used to size the Ninja job pool, 0 for runtime.NumCPU

	Config config.Config
	Runner toolchain.Runner
	Out    io.Writer
}

// LoadConfig reads the configuration file named by ConfigPath, or the default one if present.
func (t *Tasks) LoadConfig() error {
	path, required := t.ConfigPath, true
	if path == "" {
		path, required = config.DefaultPath, false
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return err
	}
	t.Config = cfg
	log.Debug("Loaded configuration", "file", path)
	return nil
}

func (t *Tasks) out() io.Writer {
	if t.Out == nil {
		return os.Stdout
	}
	return t.Out
}

func (t *Tasks) runner() toolchain.Runner {
	if t.Runner == nil {
		return &toolchain.ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
	}
	return t.Runner
}

// Build configures and builds the LLVM checkout.
func (t *Tasks) Build(ctx context.Context) error {
	bc, err := t.Config.BuildConfig()
	if err != nil {
		return err
	}

	cores := t.Cores
	if cores == 0 {
		cores = runtime.NumCPU()
	}

	if err := toolchain.Build(ctx, t.runner(), bc, cores); err != nil {
		return err
	}

	fmt.Fprintln(t.out(), color.Success("built "+color.Path(bc.BuildDir())))
	return nil
}

// Test compiles the C test programs with the built clang and llc.
func (t *Tasks) Test(ctx context.Context) error {
	cfg := t.Config.Test

	// test runs keep the tools' stderr for the report instead of the terminal
	runner := t.Runner
	if runner == nil {
		runner = &toolchain.ExecRunner{}
	}

	suite := &testsuite.Suite{
		Runner:       runner,
		SrcDir:       cfg.SrcDir,
		AsmDir:       cfg.AsmDir,
		WorkDir:      cfg.WorkDir,
		Filter:       t.Filter,
		FrontendArgs: cfg.FrontendArgs,
		BackendArgs:  cfg.BackendArgs,
	}

	if t.List {
		names, err := suite.List()
		if err != nil {
			return err
		}
		t.printList(names)
		return nil
	}

	binDir, err := t.Config.ToolsDir()
	if err != nil {
		return err
	}
	suite.Tools = toolchain.Tools{BinDir: binDir, Triple: cfg.Triple}

	log.Info("Running test cases", "src", cfg.SrcDir, "tools", binDir)
	report, err := suite.Run(ctx)
	if err != nil {
		return err
	}

	report.Write(t.out())
	return report.Err()
}

// Convert rewrites the generated assembly into the TASKING dialect.
func (t *Tasks) Convert(ctx context.Context) error {
	cfg := t.Config.Convert

	if t.List {
		names, err := dialect.List(cfg.SrcDir, t.Filter)
		if err != nil {
			return err
		}
		t.printList(names)
		return nil
	}

	conv := dialect.New()
	if len(cfg.Header) > 0 {
		conv.Header = cfg.Header
	}

	log.Info("Converting assembly", "src", cfg.SrcDir, "out", cfg.OutDir, "filter", t.Filter)
	summary, err := conv.ConvertDir(ctx, cfg.SrcDir, cfg.OutDir, t.Filter)
	if err != nil {
		return err
	}

	fmt.Fprintln(t.out(), color.Success(fmt.Sprintf("converted %d files into %s: %s lines read, %s written, %s dropped, %s",
		len(summary.Files),
		color.Path(cfg.OutDir),
		humanize.Comma(int64(summary.LinesRead())),
		humanize.Comma(int64(summary.LinesWritten())),
		humanize.Comma(int64(summary.LinesDropped())),
		units.HumanSize(float64(summary.Bytes())),
	)))
	return nil
}

// Rules prints the converter's rules in application order.
func (t *Tasks) Rules() {
	for i, r := range dialect.Rules() {
		if raw := r.Raw(); raw != "" {
			fmt.Fprintf(t.out(), "%2d. %-18s %s\n", i+1, r.Name, color.GrayText(raw))
			continue
		}
		fmt.Fprintf(t.out(), "%2d. %s\n", i+1, r.Name)
	}
}

func (t *Tasks) printList(names []string) {
	for _, name := range names {
		fmt.Fprintln(t.out(), name)
	}
	fmt.Fprintf(t.out(), "%d files matched\n", len(names))
}
