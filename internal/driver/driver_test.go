// SPDX-License-Identifier: Unlicense OR MIT

package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gioui.org/fxcbuild/internal/shader"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder records invocations instead of running a compiler.
type recorder struct {
	mu    sync.Mutex
	calls []shader.Invocation
	fail  func(shader.Invocation) bool
	delay time.Duration
}

func (r *recorder) Run(ctx context.Context, inv shader.Invocation) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	r.calls = append(r.calls, inv)
	r.mu.Unlock()
	if r.fail != nil && r.fail(inv) {
		return errors.New("exit status 1")
	}
	return nil
}

func (r *recorder) outputs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var outs []string
	for _, c := range r.calls {
		outs = append(outs, filepath.ToSlash(c.Output))
	}
	return outs
}

func newTestDriver(opts Options, r *recorder, diag *bytes.Buffer) *Driver {
	if opts.Profiles.Vertex == "" {
		opts.Profiles = shader.DefaultProfiles()
	}
	if opts.SourceDir == "" {
		opts.SourceDir = "."
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "compiled"
	}
	return New(opts, r, WithDiagnostics(diag))
}

func TestRunDefaultList(t *testing.T) {
	r := new(recorder)
	var diag bytes.Buffer
	d := newTestDriver(Options{}, r, &diag)
	report, err := d.Run(context.Background(), shader.ParseEntries([]string{"1.vsps.hlsl", "basic.vsps.hlsl"}))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"compiled/1.vs.cso",
		"compiled/1.ps.cso",
		"compiled/basic.vs.cso",
		"compiled/basic.ps.cso",
	}
	if diff := cmp.Diff(want, r.outputs()); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
	if got, want := report, (Report{Entries: 2, Invocations: 4}); got != want {
		t.Errorf("report = %+v, want %+v", got, want)
	}
	if diag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %q", diag.String())
	}
	for _, c := range r.calls {
		if diff := cmp.Diff([]string{"/Od", "/Zi"}, c.Flags); diff != "" {
			t.Errorf("flags mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestRunStages(t *testing.T) {
	tests := []struct {
		file     string
		profiles []string
		entries  []string
		outputs  []string
	}{
		{"name.vs.hlsl", []string{"vs_5_0"}, []string{"VS"}, []string{"compiled/namevs.cso"}},
		{"name.ps.hlsl", []string{"ps_5_0"}, []string{"PS"}, []string{"compiled/name.ps.cso"}},
		{"name.vsps.hlsl", []string{"vs_5_0", "ps_5_0"}, []string{"VS", "PS"}, []string{"compiled/name.vs.cso", "compiled/name.ps.cso"}},
	}
	for _, tt := range tests {
		r := new(recorder)
		d := newTestDriver(Options{}, r, new(bytes.Buffer))
		if _, err := d.Run(context.Background(), shader.ParseEntries([]string{tt.file})); err != nil {
			t.Fatal(err)
		}
		var profiles, entries []string
		for _, c := range r.calls {
			profiles = append(profiles, c.Profile)
			entries = append(entries, c.Entry)
			if c.Input != tt.file {
				t.Errorf("%s: input = %q", tt.file, c.Input)
			}
		}
		if diff := cmp.Diff(tt.profiles, profiles); diff != "" {
			t.Errorf("%s: profiles (-want +got):\n%s", tt.file, diff)
		}
		if diff := cmp.Diff(tt.entries, entries); diff != "" {
			t.Errorf("%s: entries (-want +got):\n%s", tt.file, diff)
		}
		if diff := cmp.Diff(tt.outputs, r.outputs()); diff != "" {
			t.Errorf("%s: outputs (-want +got):\n%s", tt.file, diff)
		}
	}
}

func TestRunUnrecognized(t *testing.T) {
	r := new(recorder)
	var diag bytes.Buffer
	core, logs := observer.New(zapcore.DebugLevel)
	d := New(Options{Profiles: shader.DefaultProfiles(), SourceDir: ".", OutputDir: "compiled"}, r,
		WithDiagnostics(&diag), WithLogger(zap.New(core)))

	report, err := d.Run(context.Background(), shader.ParseEntries([]string{"blur.cs.hlsl", "sky.ps.hlsl", "readme"}))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"compiled/sky.ps.cso"}, r.outputs()); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
	if got, want := report, (Report{Entries: 3, Invocations: 1, Skipped: 2}); got != want {
		t.Errorf("report = %+v, want %+v", got, want)
	}
	for _, want := range []string{`"cs"`, "blur.cs.hlsl", `""`, "readme"} {
		if !strings.Contains(diag.String(), want) {
			t.Errorf("diagnostics %q do not mention %s", diag.String(), want)
		}
	}
	if n := logs.FilterMessage("skipping shader").Len(); n != 2 {
		t.Errorf("logged %d skipped shaders, want 2", n)
	}
}

func TestRunIgnoresFailures(t *testing.T) {
	r := &recorder{fail: func(inv shader.Invocation) bool { return inv.Profile == "vs_5_0" }}
	d := newTestDriver(Options{}, r, new(bytes.Buffer))
	report, err := d.Run(context.Background(), shader.ParseEntries([]string{"a.vsps.hlsl", "b.vs.hlsl", "c.ps.hlsl"}))
	if err != nil {
		t.Fatalf("failures must be ignored, got %v", err)
	}
	want := []string{"compiled/a.vs.cso", "compiled/a.ps.cso", "compiled/bvs.cso", "compiled/c.ps.cso"}
	if diff := cmp.Diff(want, r.outputs()); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
	if report.Failed != 2 || report.Invocations != 4 {
		t.Errorf("report = %+v", report)
	}
}

func TestRunStrict(t *testing.T) {
	r := &recorder{fail: func(inv shader.Invocation) bool { return strings.HasPrefix(inv.Input, "bad") }}
	d := newTestDriver(Options{Strict: true}, r, new(bytes.Buffer))
	_, err := d.Run(context.Background(), shader.ParseEntries([]string{"bad1.ps.hlsl", "good.vsps.hlsl", "bad2.vs.hlsl"}))
	if err == nil {
		t.Fatal("expected error in strict mode")
	}
	// The whole list still runs.
	if got := len(r.outputs()); got != 4 {
		t.Errorf("ran %d invocations, want 4", got)
	}
	msg := err.Error()
	if !strings.Contains(msg, "bad1.ps.hlsl") || !strings.Contains(msg, "bad2.vs.hlsl") || strings.Contains(msg, "good") {
		t.Errorf("unexpected error %q", msg)
	}
	if i, j := strings.Index(msg, "bad1"), strings.Index(msg, "bad2"); i > j {
		t.Errorf("failures out of order: %q", msg)
	}
}

func TestRunJobs(t *testing.T) {
	files := []string{"a.vsps.hlsl", "b.vsps.hlsl", "c.vsps.hlsl", "d.ps.hlsl", "e.vs.hlsl"}
	r := &recorder{delay: time.Millisecond}
	d := newTestDriver(Options{Jobs: 3}, r, new(bytes.Buffer))
	report, err := d.Run(context.Background(), shader.ParseEntries(files))
	if err != nil {
		t.Fatal(err)
	}
	if report.Invocations != 8 {
		t.Errorf("invocations = %d, want 8", report.Invocations)
	}
	outs := r.outputs()
	index := make(map[string]int)
	for i, o := range outs {
		index[o] = i
	}
	for _, name := range []string{"a", "b", "c"} {
		vs, ps := index["compiled/"+name+".vs.cso"], index["compiled/"+name+".ps.cso"]
		if vs > ps {
			t.Errorf("%s: ps compiled before vs", name)
		}
	}
	sort.Strings(outs)
	want := []string{
		"compiled/a.ps.cso", "compiled/a.vs.cso",
		"compiled/b.ps.cso", "compiled/b.vs.cso",
		"compiled/c.ps.cso", "compiled/c.vs.cso",
		"compiled/d.ps.cso", "compiled/evs.cso",
	}
	if diff := cmp.Diff(want, outs); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := new(recorder)
	d := newTestDriver(Options{}, r, new(bytes.Buffer))
	cancel()
	_, err := d.Run(ctx, shader.ParseEntries([]string{"a.vsps.hlsl"}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("ran %d invocations after cancel", len(r.calls))
	}
}

func TestRunCreatesOutputDir(t *testing.T) {
	out := shader.OutputDir(filepath.Join(t.TempDir(), "compiled"))
	r := new(recorder)
	d := newTestDriver(Options{OutputDir: out, CreateOutputDir: true}, r, new(bytes.Buffer))
	if _, err := d.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(string(out)); err != nil || !fi.IsDir() {
		t.Fatalf("output directory not created: %v", err)
	}
}

func TestBuild(t *testing.T) {
	r := &recorder{fail: func(shader.Invocation) bool { return true }}
	d := newTestDriver(Options{}, r, new(bytes.Buffer))
	if err := d.Build(context.Background(), shader.ParseEntry("a.ps.hlsl")); err != nil {
		t.Errorf("non-strict Build = %v", err)
	}
	strict := newTestDriver(Options{Strict: true}, r, new(bytes.Buffer))
	if err := strict.Build(context.Background(), shader.ParseEntry("a.ps.hlsl")); err == nil {
		t.Error("strict Build succeeded")
	}
}

func TestRunAbsoluteSource(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "sky.ps.hlsl")
	r := new(recorder)
	d := newTestDriver(Options{SourceDir: "shaders"}, r, new(bytes.Buffer))
	if _, err := d.Run(context.Background(), shader.ParseEntries([]string{abs})); err != nil {
		t.Fatal(err)
	}
	if len(r.calls) != 1 || r.calls[0].Input != abs {
		t.Fatalf("compiler input = %+v, want %q", r.calls, abs)
	}
}
