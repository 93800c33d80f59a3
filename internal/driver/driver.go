// SPDX-License-Identifier: Unlicense OR MIT

// Package driver compiles a list of shader sources, one compiler
// invocation per pipeline stage.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gioui.org/fxcbuild/internal/fxc"
	"gioui.org/fxcbuild/internal/log"
	"gioui.org/fxcbuild/internal/shader"
)

// Options configure a Driver.
type Options struct {
	Profiles  shader.Profiles
	SourceDir string
	OutputDir shader.OutputDir
	// CreateOutputDir creates OutputDir before the first invocation.
	// Otherwise the directory must already exist.
	CreateOutputDir bool
	// Jobs is the number of entries built concurrently. Invocations
	// of a single entry always run in order.
	Jobs int
	// Strict makes compiler failures errors. By default they are
	// only logged at debug level.
	Strict bool
}

// Report summarizes a run.
type Report struct {
	Entries     int
	Invocations int
	Failed      int
	Skipped     int
}

// Driver compiles shader entries with a Runner.
type Driver struct {
	opts   Options
	runner fxc.Runner
	log    *zap.Logger
	diag   io.Writer

	mu     sync.Mutex
	report Report
}

// Option customizes a Driver.
type Option func(*Driver)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) { d.log = log.OrNop(l) }
}

// WithDiagnostics sets where unrecognized entries are reported. The
// default is standard output.
func WithDiagnostics(w io.Writer) Option {
	return func(d *Driver) { d.diag = w }
}

// New returns a driver that compiles with runner. Jobs below 1 are
// treated as 1.
func New(opts Options, runner fxc.Runner, options ...Option) *Driver {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	d := &Driver{
		opts:   opts,
		runner: runner,
		log:    zap.NewNop(),
		diag:   os.Stdout,
	}
	for _, o := range options {
		o(d)
	}
	return d
}

// Run builds entries in order. A failed or unrecognized entry never
// stops the remaining ones. The returned error is non-nil if ctx is
// cancelled, the output directory cannot be created, or in strict mode
// when any invocation failed.
func (d *Driver) Run(ctx context.Context, entries []shader.Entry) (Report, error) {
	d.mu.Lock()
	d.report = Report{}
	d.mu.Unlock()
	if d.opts.CreateOutputDir {
		if err := d.opts.OutputDir.Create(); err != nil {
			return Report{}, err
		}
	}
	failures := make([]error, len(entries))
	var g errgroup.Group
	g.SetLimit(d.opts.Jobs)
	for i, e := range entries {
		if ctx.Err() != nil {
			break
		}
		i, e := i, e
		g.Go(func() error {
			failures[i] = d.build(ctx, e)
			return nil
		})
	}
	g.Wait()
	report := d.Report()
	if err := ctx.Err(); err != nil {
		return report, err
	}
	d.log.Info("build finished",
		zap.Int("entries", report.Entries),
		zap.Int("invocations", report.Invocations),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	if d.opts.Strict {
		return report, errors.Join(failures...)
	}
	return report, nil
}

// Build builds a single entry.
func (d *Driver) Build(ctx context.Context, e shader.Entry) error {
	err := d.build(ctx, e)
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if d.opts.Strict {
		return err
	}
	return nil
}

// Report returns the counters accumulated since the last Run.
func (d *Driver) Report() Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.report
}

func (d *Driver) build(ctx context.Context, e shader.Entry) error {
	invs := shader.Plan(e, d.opts.Profiles, d.opts.SourceDir, d.opts.OutputDir)
	d.mu.Lock()
	d.report.Entries++
	if e.Stage == shader.Unrecognized {
		d.report.Skipped++
		fmt.Fprintf(d.diag, "unrecognized stage %q in %s\n", e.Tag, e.File)
	}
	d.mu.Unlock()
	if e.Stage == shader.Unrecognized {
		d.log.Warn("skipping shader", zap.String("file", e.File), zap.String("stage", e.Tag))
		return nil
	}
	var errs []error
	for _, inv := range invs {
		if ctx.Err() != nil {
			break
		}
		d.log.Debug("compiling",
			zap.String("file", e.File),
			zap.String("profile", inv.Profile),
			zap.String("output", inv.Output),
		)
		err := d.runner.Run(ctx, inv)
		d.mu.Lock()
		d.report.Invocations++
		if err != nil {
			d.report.Failed++
		}
		d.mu.Unlock()
		if err != nil {
			d.log.Debug("compiler failed", zap.String("file", e.File), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s (%s): %w", e.File, inv.Profile, err))
		}
	}
	return errors.Join(errs...)
}
