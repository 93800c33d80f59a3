// SPDX-License-Identifier: Unlicense OR MIT

// Package d3dcompile compiles HLSL in-process with the D3DCompile
// function of d3dcompiler_47.dll.
package d3dcompile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gioui.org/fxcbuild/internal/shader"
)

// ErrUnavailable is returned when d3dcompiler_47.dll cannot be used on
// this system.
var ErrUnavailable = errors.New("d3dcompile: D3DCompile is not available")

// Flags are D3DCOMPILE_* constants.
type Flags uint32

const (
	Debug             Flags = 1 << 0
	SkipValidation    Flags = 1 << 1
	SkipOptimization  Flags = 1 << 2
	WarningsAreErrors Flags = 1 << 18
)

// ParseFlags converts fxc command line flags to compile flags.
func ParseFlags(args []string) (Flags, error) {
	var f Flags
	for _, a := range args {
		switch strings.ToLower(strings.TrimLeft(a, "/-")) {
		case "od":
			f |= SkipOptimization
		case "zi":
			f |= Debug
		case "vd":
			f |= SkipValidation
		case "wx":
			f |= WarningsAreErrors
		default:
			return 0, fmt.Errorf("d3dcompile: unsupported flag %q", a)
		}
	}
	return f, nil
}

// Compile compiles src for the target profile.
func Compile(src []byte, name, entryPoint, target string, flags Flags) ([]byte, error) {
	return compile(src, name, entryPoint, target, flags)
}

// Runner compiles invocations in-process instead of running fxc.
type Runner struct{}

// Run compiles inv.Input and writes the bytecode to inv.Output.
func (Runner) Run(ctx context.Context, inv shader.Invocation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	flags, err := ParseFlags(inv.Flags)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(inv.Input)
	if err != nil {
		return fmt.Errorf("unable to read shader: %w", err)
	}
	code, err := Compile(src, inv.Input, inv.Entry, inv.Profile, flags)
	if err != nil {
		return fmt.Errorf("%s: %w", inv.Input, err)
	}
	if err := os.WriteFile(inv.Output, code, 0644); err != nil {
		return fmt.Errorf("unable to write output %q: %w", inv.Output, err)
	}
	return nil
}
