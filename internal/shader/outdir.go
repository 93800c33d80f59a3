// SPDX-License-Identifier: Unlicense OR MIT

package shader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputDir is the directory compiled shaders are written to.
type OutputDir string

// Path joins the dot-separated name parts and places the result in
// the directory.
func (d OutputDir) Path(parts ...string) string {
	return filepath.Join(string(d), strings.Join(parts, "."))
}

// Create makes sure the directory exists.
func (d OutputDir) Create() error {
	if err := os.MkdirAll(string(d), 0755); err != nil {
		return fmt.Errorf("unable to create %q: %w", string(d), err)
	}
	return nil
}
