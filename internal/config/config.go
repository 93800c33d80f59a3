// SPDX-License-Identifier: Unlicense OR MIT

// Package config loads the fxcbuild configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"gioui.org/fxcbuild/internal/fxc"
	"gioui.org/fxcbuild/internal/shader"
)

// Backends.
const (
	BackendFXC        = "fxc"
	BackendD3DCompile = "d3dcompile"
)

// DefaultFile is the configuration file read when none is given.
const DefaultFile = "fxcbuild.yaml"

// Config holds the compiler settings and the shader list.
type Config struct {
	// Compiler is the path to fxc.exe.
	Compiler string `yaml:"compiler"`
	// Backend is either "fxc" or "d3dcompile".
	Backend string `yaml:"backend"`
	// Wine runs the compiler through wine.
	Wine bool `yaml:"wine"`

	VertexProfile string   `yaml:"vertex_profile"`
	PixelProfile  string   `yaml:"pixel_profile"`
	VertexEntry   string   `yaml:"vertex_entry"`
	PixelEntry    string   `yaml:"pixel_entry"`
	Flags         []string `yaml:"flags"`

	SourceDir       string `yaml:"source_dir"`
	OutputDir       string `yaml:"output_dir"`
	CreateOutputDir bool   `yaml:"create_output_dir"`

	Shaders []Shader `yaml:"shaders"`

	// Jobs bounds the number of shaders compiled concurrently.
	Jobs int `yaml:"jobs"`
	// Strict reports compiler failures instead of ignoring them.
	Strict bool `yaml:"strict"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	p := shader.DefaultProfiles()
	return &Config{
		Compiler:      fxc.DefaultBin,
		Backend:       BackendFXC,
		VertexProfile: p.Vertex,
		PixelProfile:  p.Pixel,
		VertexEntry:   p.VertexEntry,
		PixelEntry:    p.PixelEntry,
		Flags:         append([]string(nil), shader.DefaultFlags...),
		SourceDir:     ".",
		OutputDir:     "compiled",
		Shaders:       Files("1.vsps.hlsl", "basic.vsps.hlsl"),
		Jobs:          1,
	}
}

// Load reads the configuration at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is like Load but returns the defaults if path does
// not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes YAML from r on top of the defaults and validates the
// result.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFXC:
		if c.Compiler == "" {
			return errors.New("compiler path is empty")
		}
	case BackendD3DCompile:
		if c.Wine {
			return errors.New("wine cannot be used with the d3dcompile backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if c.VertexProfile == "" || c.PixelProfile == "" {
		return errors.New("vertex and pixel profiles must be set")
	}
	if c.VertexEntry == "" || c.PixelEntry == "" {
		return errors.New("vertex and pixel entry points must be set")
	}
	if c.OutputDir == "" {
		return errors.New("output directory is empty")
	}
	return nil
}

// Profiles returns the compiler profile settings.
func (c *Config) Profiles() shader.Profiles {
	return shader.Profiles{
		Vertex:      c.VertexProfile,
		Pixel:       c.PixelProfile,
		VertexEntry: c.VertexEntry,
		PixelEntry:  c.PixelEntry,
		Flags:       c.Flags,
	}
}

// Entries returns the configured shaders in order.
func (c *Config) Entries() []shader.Entry {
	entries := make([]shader.Entry, len(c.Shaders))
	for i, s := range c.Shaders {
		entries[i] = s.Entry
	}
	return entries
}

// Write encodes the configuration as YAML.
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
