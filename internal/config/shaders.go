// SPDX-License-Identifier: Unlicense OR MIT

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"gioui.org/fxcbuild/internal/shader"
)

// Shader is a configured shader. In YAML it is either a file name
// such as "basic.vsps.hlsl", or a mapping with name, stage and an
// optional file.
type Shader struct {
	shader.Entry
}

// Files returns the shaders for a list of file names.
func Files(files ...string) []Shader {
	shaders := make([]Shader, len(files))
	for i, f := range files {
		shaders[i] = Shader{shader.ParseEntry(f)}
	}
	return shaders
}

// UnmarshalYAML decodes a file name or a name/stage/file mapping.
func (s *Shader) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		s.Entry = shader.ParseEntry(node.Value)
		return nil
	case yaml.MappingNode:
		var decl struct {
			Name  string `yaml:"name"`
			Stage string `yaml:"stage"`
			File  string `yaml:"file"`
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			switch k := node.Content[i]; k.Value {
			case "name", "stage", "file":
			default:
				return fmt.Errorf("line %d: unknown shader field %q", k.Line, k.Value)
			}
		}
		if err := node.Decode(&decl); err != nil {
			return err
		}
		if decl.Name == "" {
			return fmt.Errorf("line %d: shader without name", node.Line)
		}
		s.Entry = shader.NewEntry(decl.Name, decl.Stage, decl.File)
		return nil
	default:
		return fmt.Errorf("line %d: shader must be a file name or a mapping", node.Line)
	}
}

// MarshalYAML encodes s as its file name when that name alone
// describes it.
func (s Shader) MarshalYAML() (interface{}, error) {
	if s.Entry == shader.ParseEntry(s.File) {
		return s.File, nil
	}
	return map[string]string{"name": s.Name, "stage": s.Tag, "file": s.File}, nil
}
