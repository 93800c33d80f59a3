// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gioui.org/fxcbuild/internal/config"
	"gioui.org/fxcbuild/internal/shader"
)

// loadConfig reads the configuration file and applies the command
// line flags on top of it.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(a.opts.configPath)
	} else {
		cfg, err = config.LoadOptional(a.opts.configPath)
	}
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("compiler") {
		cfg.Compiler = a.opts.compiler
	}
	if flags.Changed("backend") {
		cfg.Backend = a.opts.backend
	}
	if flags.Changed("out") {
		cfg.OutputDir = a.opts.outputDir
	}
	if flags.Changed("src") {
		cfg.SourceDir = a.opts.sourceDir
	}
	if flags.Changed("jobs") {
		cfg.Jobs = a.opts.jobs
	}
	if flags.Changed("strict") {
		cfg.Strict = a.opts.strict
	}
	if flags.Changed("wine") {
		cfg.Wine = a.opts.wine
	}
	if flags.Changed("mkdir") {
		cfg.CreateOutputDir = a.opts.mkdir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func entries(cfg *config.Config, args []string) []shader.Entry {
	if len(args) > 0 {
		return shader.ParseEntries(args)
	}
	return cfg.Entries()
}

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			path := a.opts.configPath
			flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
			if force {
				flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			}
			f, err := os.OpenFile(path, flag, 0644)
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("%s already exists, use --force to overwrite it", path)
			}
			if err != nil {
				return err
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
			}()
			if err := config.Default().Write(f); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
