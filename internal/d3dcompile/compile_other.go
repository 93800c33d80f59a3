// SPDX-License-Identifier: Unlicense OR MIT

//go:build !windows

package d3dcompile

func compile(src []byte, name, entryPoint, target string, flags Flags) ([]byte, error) {
	return nil, ErrUnavailable
}
