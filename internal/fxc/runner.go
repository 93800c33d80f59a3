// SPDX-License-Identifier: Unlicense OR MIT

// Package fxc runs the HLSL shader compiler.
package fxc

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gioui.org/fxcbuild/internal/shader"
)

// Runner performs compiler invocations.
type Runner interface {
	Run(ctx context.Context, inv shader.Invocation) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, inv shader.Invocation) error

// Run calls f(ctx, inv).
func (f RunnerFunc) Run(ctx context.Context, inv shader.Invocation) error {
	return f(ctx, inv)
}

// CommandLine formats a command line, quoting arguments with spaces.
func CommandLine(cmd []string) string {
	args := append([]string(nil), cmd...)
	for i, a := range args {
		if strings.ContainsAny(a, " \t") {
			args[i] = `"` + a + `"`
		}
	}
	return strings.Join(args, " ")
}

// Printer prints every command line before handing the invocation to
// Next. A nil Next only prints.
type Printer struct {
	W io.Writer
	// Command is printed before the invocation arguments, such as the
	// compiler path or "wine fxc.exe".
	Command []string
	Next    Runner
}

// Run prints the command line of inv and runs it with Next.
func (p *Printer) Run(ctx context.Context, inv shader.Invocation) error {
	line := append(append([]string(nil), p.Command...), inv.Args()...)
	if _, err := fmt.Fprintln(p.W, CommandLine(line)); err != nil {
		return err
	}
	if p.Next == nil {
		return nil
	}
	return p.Next.Run(ctx, inv)
}
