// SPDX-License-Identifier: Unlicense OR MIT

// Package shader describes HLSL shader sources and the compiler
// invocations needed to build them.
package shader

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Stage is the set of pipeline stages a source is compiled for.
type Stage uint8

const (
	Unrecognized Stage = iota
	VertexOnly
	PixelOnly
	Combined
)

// ParseStage maps a filename tag to its Stage. Unknown tags,
// including the empty tag, are Unrecognized.
func ParseStage(tag string) Stage {
	switch tag {
	case "vs":
		return VertexOnly
	case "ps":
		return PixelOnly
	case "vsps":
		return Combined
	default:
		return Unrecognized
	}
}

// Tag returns the filename tag of s, or "" for Unrecognized.
func (s Stage) Tag() string {
	switch s {
	case VertexOnly:
		return "vs"
	case PixelOnly:
		return "ps"
	case Combined:
		return "vsps"
	default:
		return ""
	}
}

func (s Stage) String() string {
	switch s {
	case VertexOnly:
		return "VertexOnly"
	case PixelOnly:
		return "PixelOnly"
	case Combined:
		return "Combined"
	default:
		return "Unrecognized"
	}
}

// Entry is a shader source scheduled for compilation.
type Entry struct {
	// File is the source path, relative to the source directory.
	File string
	// Name is used to build output file names.
	Name string
	// Tag is the raw stage component of the file name.
	Tag   string
	Stage Stage
}

// ParseEntry splits the base name of file on '.' and takes the first
// two components as name and stage tag. Further components, usually
// "hlsl", are ignored.
func ParseEntry(file string) Entry {
	parts := strings.Split(filepath.Base(file), ".")
	e := Entry{File: file, Name: parts[0]}
	if len(parts) > 1 {
		e.Tag = parts[1]
	}
	e.Stage = ParseStage(e.Tag)
	return e
}

// NewEntry returns the entry for a shader declared by name and stage
// tag. An empty file defaults to <name>.<tag>.hlsl.
func NewEntry(name, tag, file string) Entry {
	if file == "" {
		file = name + "." + tag + ".hlsl"
	}
	return Entry{File: file, Name: name, Tag: tag, Stage: ParseStage(tag)}
}

// ParseEntries parses every file in files.
func ParseEntries(files []string) []Entry {
	entries := make([]Entry, len(files))
	for i, f := range files {
		entries[i] = ParseEntry(f)
	}
	return entries
}

// Source returns the path of the entry's source file. Relative files
// are resolved against dir; absolute files are used as given.
func (e Entry) Source(dir string) string {
	if filepath.IsAbs(e.File) {
		return e.File
	}
	return filepath.Join(dir, e.File)
}

func (e Entry) String() string {
	return fmt.Sprintf("%s (%s)", e.File, e.Stage)
}
