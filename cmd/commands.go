package main

import (
	"github.com/spf13/cobra"

	"tctasks/internal/logger"
	"tctasks/internal/tasks"
	"tctasks/pkg/color"
)

func newRootCommand(options *tasks.Tasks) *cobra.Command {
	root := &cobra.Command{
		Use:           "tctasks",
		Short:         "Build the TriCore LLVM toolchain, compile its test programs and convert their assembly",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(options.Verbose, options.NoColor)
			if options.NoColor {
				color.EnableColor(false)
			}
			return options.LoadConfig()
		},
	}

	root.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", false, "Verbose mode")
	root.PersistentFlags().BoolVarP(&options.NoColor, "no-color", "n", false, "No color")
	root.PersistentFlags().StringVar(&options.ConfigPath, "config", "", "Configuration file (default ./tctasks.yaml when present)")

	root.AddCommand(newBuildCommand(options), newTestCommand(options), newConvertCommand(options))
	return root
}

func newBuildCommand(options *tasks.Tasks) *cobra.Command {
	var (
		targets, upstream, path, buildType string
		clang                              bool
		linkJobs                           int
	)

	cmd := &cobra.Command{
		Use:     "build",
		Aliases: []string{"b"},
		Short:   "Configure with CMake and build with Ninja",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := &options.Config.Build
			flags := cmd.Flags()
			if flags.Changed("targets") {
				b.ExperimentalTargets = targets
			}
			if flags.Changed("upstream-targets") {
				b.UpstreamTargets = upstream
			}
			if flags.Changed("path") {
				b.SourceRoot = path
			}
			if flags.Changed("build-type") {
				b.BuildType = buildType
			}
			if flags.Changed("clang") {
				b.Clang = &clang
			}
			if flags.Changed("link-jobs") {
				b.ParallelLinkJobs = linkJobs
			}
			return options.Build(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&targets, "targets", "", "Experimental targets separated by ';', e.g. 'TriCore' (default from .experimental_targets_to_build)")
	cmd.Flags().StringVar(&upstream, "upstream-targets", "", "Upstream targets separated by ';', e.g. 'ARM;RISCV'")
	cmd.Flags().StringVar(&path, "path", ".", "Path to the LLVM source root")
	cmd.Flags().StringVar(&buildType, "build-type", "Release", "Debug or Release")
	cmd.Flags().BoolVar(&clang, "clang", true, "Build clang")
	cmd.Flags().IntVar(&linkJobs, "link-jobs", 2, "Parallel link jobs; a high number may run the system out of memory")

	return cmd
}

func newTestCommand(options *tasks.Tasks) *cobra.Command {
	var binDir, triple string

	cmd := &cobra.Command{
		Use:     "test",
		Aliases: []string{"t"},
		Short:   "Compile the C test programs with the built clang and llc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("bin-dir") {
				options.Config.Test.BinDir = binDir
			}
			if cmd.Flags().Changed("triple") {
				options.Config.Test.Triple = triple
			}
			return options.Test(cmd.Context())
		},
	}

	addSelectionFlags(cmd, options)
	cmd.Flags().StringVar(&binDir, "bin-dir", "", "Directory holding clang and llc (default the build's bin directory)")
	cmd.Flags().StringVar(&triple, "triple", "tricore", "Target triple")

	return cmd
}

func newConvertCommand(options *tasks.Tasks) *cobra.Command {
	var src, out string
	var rules bool

	cmd := &cobra.Command{
		Use:     "convert",
		Aliases: []string{"c"},
		Short:   "Convert generated assembly into the TASKING dialect",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rules {
				options.Rules()
				return nil
			}
			if cmd.Flags().Changed("src") {
				options.Config.Convert.SrcDir = src
			}
			if cmd.Flags().Changed("out") {
				options.Config.Convert.OutDir = out
			}
			return options.Convert(cmd.Context())
		},
	}

	addSelectionFlags(cmd, options)
	cmd.Flags().StringVar(&src, "src", "", "Directory of .s files")
	cmd.Flags().StringVar(&out, "out", "", "Output directory, recreated on every run")
	cmd.Flags().BoolVar(&rules, "rules", false, "Print the rewrite rules in order")
	cmd.MarkFlagsMutuallyExclusive("list", "rules")

	return cmd
}

func addSelectionFlags(cmd *cobra.Command, options *tasks.Tasks) {
	cmd.Flags().StringVarP(&options.Filter, "filter", "f", "", "File name prefix, or an exact file name")
	cmd.Flags().BoolVarP(&options.List, "list", "l", false, "List the matched files and exit")
}
