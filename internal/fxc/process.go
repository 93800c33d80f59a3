// SPDX-License-Identifier: Unlicense OR MIT

package fxc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"gioui.org/fxcbuild/internal/shader"
)

// DefaultBin is the fxc.exe shipped with the Windows 10 SDK.
const DefaultBin = `C:\Program Files (x86)\Windows Kits\10\bin\10.0.22621.0\x86\fxc.exe`

// Process runs the fxc executable, one process per invocation.
type Process struct {
	Bin string
	// Wine runs Bin through wine, converting paths with winepath.
	Wine bool
	// Stdout and Stderr receive the compiler output. Nil means the
	// process' own stdout and stderr.
	Stdout io.Writer
	Stderr io.Writer
	// Trace, if set, receives each command line as it is run, after
	// wine path conversion.
	Trace io.Writer
}

// Command returns the program and leading arguments used to run Bin.
func (p *Process) Command() []string {
	if p.Wine {
		return []string{"wine", p.Bin}
	}
	return []string{p.Bin}
}

// Run runs the compiler for inv and waits for it to exit.
func (p *Process) Run(ctx context.Context, inv shader.Invocation) error {
	if p.Wine {
		if err := winepath(ctx, &inv.Input, &inv.Output); err != nil {
			return err
		}
	}
	command := p.Command()
	cmd := exec.CommandContext(ctx, command[0], append(command[1:], inv.Args()...)...)
	cmd.Stdout = p.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = p.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if p.Trace != nil {
		fmt.Fprintln(p.Trace, CommandLine(cmd.Args))
	}
	if err := cmd.Run(); err != nil {
		info := ""
		if p.Wine {
			info = "If the fxc tool cannot be found, set WINEPATH to the Windows path for the Windows SDK.\n"
		}
		return fmt.Errorf("%sfailed to run %v: %w", info, cmd.Args, err)
	}
	return nil
}

// winepath uses the winepath tool to convert paths to Windows format.
func winepath(ctx context.Context, paths ...*string) error {
	cmd := exec.CommandContext(ctx, "winepath", "--windows")
	for _, path := range paths {
		cmd.Args = append(cmd.Args, *path)
	}
	// Use a pipe instead of Output, because winepath may have left wineserver
	// running for several seconds as a grandchild.
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("unable to start winepath: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start winepath: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, out); err != nil {
		return fmt.Errorf("unable to run winepath: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("unable to run winepath: %w", err)
	}
	winPaths := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(winPaths) != len(paths) {
		return fmt.Errorf("winepath returned %d paths, want %d", len(winPaths), len(paths))
	}
	for i, path := range paths {
		*path = strings.TrimRight(winPaths[i], "\r")
	}
	return nil
}
