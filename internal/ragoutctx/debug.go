// Package ragoutctx carries the narrow process-wide configuration that the
// original tool kept in a global debug-directory singleton. Here it is an
// explicit value threaded through stages rather than package state, per
// the "global debug state" design note.
package ragoutctx

import (
	"os"
	"path/filepath"
)

// DebugContext holds the current debug directory and whether debug dumps
// are enabled. The zero value is valid and disabled.
type DebugContext struct {
	Enabled bool
	Dir     string
}

// WithStage returns a DebugContext pointed at a subdirectory named for the
// current stage, creating it if debugging is enabled.
func (c DebugContext) WithStage(stage string) DebugContext {
	if !c.Enabled {
		return c
	}
	d := filepath.Join(c.Dir, stage)
	_ = os.MkdirAll(d, 0o755)
	return DebugContext{Enabled: true, Dir: d}
}

// Dump writes name under the current debug directory, doing nothing if
// debugging is disabled.
func (c DebugContext) Dump(name string, data []byte) error {
	if !c.Enabled {
		return nil
	}
	return os.WriteFile(filepath.Join(c.Dir, name), data, 0o644)
}
