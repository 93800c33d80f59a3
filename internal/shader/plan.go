// SPDX-License-Identifier: Unlicense OR MIT

package shader

// DefaultFlags disable optimization and embed debug information.
var DefaultFlags = []string{"/Od", "/Zi"}

// Profiles selects shader model profiles and entry point symbols.
type Profiles struct {
	Vertex      string
	Pixel       string
	VertexEntry string
	PixelEntry  string
	// Flags are passed before the profile arguments. A nil slice
	// means DefaultFlags.
	Flags []string
}

// DefaultProfiles targets Shader Model 5.0.
func DefaultProfiles() Profiles {
	return Profiles{
		Vertex:      "vs_5_0",
		Pixel:       "ps_5_0",
		VertexEntry: "VS",
		PixelEntry:  "PS",
	}
}

func (p Profiles) flags() []string {
	if p.Flags == nil {
		return DefaultFlags
	}
	return p.Flags
}

// Invocation is a single run of the shader compiler.
type Invocation struct {
	Input   string
	Profile string
	Entry   string
	Output  string
	Flags   []string
}

// Args returns the compiler arguments, without the compiler itself.
func (inv Invocation) Args() []string {
	args := make([]string, 0, len(inv.Flags)+7)
	args = append(args, inv.Input)
	args = append(args, inv.Flags...)
	return append(args,
		"/T", inv.Profile,
		"/E", inv.Entry,
		"/Fo", inv.Output,
	)
}

// Plan returns the invocations that build e, in execution order.
// Sources are resolved relative to src. Unrecognized entries plan
// nothing.
func Plan(e Entry, p Profiles, src string, out OutputDir) []Invocation {
	input := e.Source(src)
	vertex := func(output string) Invocation {
		return Invocation{Input: input, Profile: p.Vertex, Entry: p.VertexEntry, Output: output, Flags: p.flags()}
	}
	pixel := Invocation{Input: input, Profile: p.Pixel, Entry: p.PixelEntry, Output: out.Path(e.Name, PixelOnly.Tag(), "cso"), Flags: p.flags()}
	switch e.Stage {
	case VertexOnly:
		// Vertex-only outputs have no separator before the stage.
		return []Invocation{vertex(out.Path(e.Name+VertexOnly.Tag(), "cso"))}
	case PixelOnly:
		return []Invocation{pixel}
	case Combined:
		return []Invocation{vertex(out.Path(e.Name, VertexOnly.Tag(), "cso")), pixel}
	case Unrecognized:
		return nil
	default:
		panic("unreachable")
	}
}
