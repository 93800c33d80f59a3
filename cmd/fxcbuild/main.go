// SPDX-License-Identifier: Unlicense OR MIT

// Command fxcbuild compiles HLSL shaders with fxc.
//
// Shader sources are named <name>.<stage>.hlsl where stage is vs, ps
// or vsps. Each stage is compiled to a separate .cso file in the output
// directory:
//
//	fxcbuild                       # build the shaders listed in fxcbuild.yaml
//	fxcbuild build sky.ps.hlsl     # build a single shader
//	fxcbuild plan                  # print the fxc command lines
//	fxcbuild watch                 # rebuild shaders as they change
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gioui.org/fxcbuild/internal/config"
	"gioui.org/fxcbuild/internal/log"
)

type options struct {
	configPath    string
	compiler      string
	backend       string
	outputDir     string
	sourceDir     string
	jobs          int
	strict        bool
	wine          bool
	mkdir         bool
	printCommands bool
	verbose       bool
}

type app struct {
	opts   options
	stdout io.Writer
	stderr io.Writer
	log    *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fxcbuild: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "fxcbuild [shader...]",
		Short: "Compile HLSL shaders with fxc",
		Long: `fxcbuild compiles HLSL shader sources named <name>.<stage>.hlsl.

Stage vs compiles the VS entry point with the vertex profile to
<out>/<name>vs.cso, ps compiles PS with the pixel profile to
<out>/<name>.ps.cso, and vsps does both, writing <out>/<name>.vs.cso
and <out>/<name>.ps.cso. Other stages are reported and skipped.

Shaders given as arguments replace the list in the configuration file.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.log = log.New(a.stderr, a.opts.verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
		RunE: a.runBuild,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.PersistentFlags()
	f.StringVar(&a.opts.configPath, "config", config.DefaultFile, "configuration file")
	f.StringVar(&a.opts.compiler, "compiler", "", "path to fxc.exe")
	f.StringVar(&a.opts.backend, "backend", "", "compiler backend (fxc, d3dcompile)")
	f.StringVarP(&a.opts.outputDir, "out", "o", "", "output directory")
	f.StringVar(&a.opts.sourceDir, "src", "", "directory shader sources are relative to")
	f.IntVarP(&a.opts.jobs, "jobs", "j", 0, "number of shaders to compile concurrently")
	f.BoolVar(&a.opts.strict, "strict", false, "fail when the compiler fails")
	f.BoolVar(&a.opts.wine, "wine", false, "run the compiler through wine")
	f.BoolVar(&a.opts.mkdir, "mkdir", false, "create the output directory")
	f.BoolVarP(&a.opts.printCommands, "print", "x", false, "print the commands")
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "build [shader...]",
			Short: "Compile shaders (default)",
			RunE:  a.runBuild,
		},
		&cobra.Command{
			Use:   "plan [shader...]",
			Short: "Print the compiler commands without running them (paths are shown before wine conversion)",
			RunE:  a.runPlan,
		},
		&cobra.Command{
			Use:   "watch [shader...]",
			Short: "Compile shaders, then recompile them when they change",
			RunE:  a.runWatch,
		},
		newInitCmd(a),
	)
	return root
}
