// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"github.com/spf13/cobra"

	"gioui.org/fxcbuild/internal/config"
	"gioui.org/fxcbuild/internal/d3dcompile"
	"gioui.org/fxcbuild/internal/driver"
	"gioui.org/fxcbuild/internal/fxc"
	"gioui.org/fxcbuild/internal/shader"
	"gioui.org/fxcbuild/internal/watch"
)

// command is what plan and -x print in front of the compiler
// arguments. The in-process backend is shown by its name.
func command(cfg *config.Config) []string {
	if cfg.Backend == config.BackendD3DCompile {
		return []string{config.BackendD3DCompile}
	}
	return (&fxc.Process{Bin: cfg.Compiler, Wine: cfg.Wine}).Command()
}

func (a *app) runner(cfg *config.Config) fxc.Runner {
	if cfg.Backend == config.BackendD3DCompile {
		var r fxc.Runner = d3dcompile.Runner{}
		if a.opts.printCommands {
			r = &fxc.Printer{W: a.stdout, Command: command(cfg), Next: r}
		}
		return r
	}
	p := &fxc.Process{Bin: cfg.Compiler, Wine: cfg.Wine, Stdout: a.stdout, Stderr: a.stderr}
	if a.opts.printCommands {
		// The process prints the command it actually runs, with wine
		// paths already converted.
		p.Trace = a.stdout
	}
	return p
}

func (a *app) driver(cfg *config.Config, r fxc.Runner) *driver.Driver {
	return driver.New(driver.Options{
		Profiles:        cfg.Profiles(),
		SourceDir:       cfg.SourceDir,
		OutputDir:       shader.OutputDir(cfg.OutputDir),
		CreateOutputDir: cfg.CreateOutputDir,
		Jobs:            cfg.Jobs,
		Strict:          cfg.Strict,
	}, r, driver.WithLogger(a.log), driver.WithDiagnostics(a.stdout))
}

func (a *app) runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	_, err = a.driver(cfg, a.runner(cfg)).Run(cmd.Context(), entries(cfg, args))
	return err
}

func (a *app) runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.CreateOutputDir = false
	cfg.Jobs = 1
	r := &fxc.Printer{W: a.stdout, Command: command(cfg)}
	_, err = a.driver(cfg, r).Run(cmd.Context(), entries(cfg, args))
	return err
}

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	list := entries(cfg, args)
	d := a.driver(cfg, a.runner(cfg))
	if _, err := d.Run(cmd.Context(), list); err != nil {
		// Keep watching so the failing shaders can be fixed.
		a.log.Warn(err.Error())
	}
	if cmd.Context().Err() != nil {
		return nil
	}
	w := &watch.Watcher{
		SourceDir: cfg.SourceDir,
		Entries:   list,
		Builder:   d,
		Log:       a.log,
	}
	return w.Run(cmd.Context())
}
