// modinfo.go resolves the module path printed in the demo's startup
// banner.
package main

import (
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// modulePath walks up from the current working directory looking for a
// go.mod, parses it with modfile, and returns its module path. It returns
// "" if no go.mod is found or it fails to parse -- a missing banner is
// cosmetic, never fatal.
func modulePath() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, "go.mod")
		data, err := os.ReadFile(path)
		if err == nil {
			mf, err := modfile.Parse(path, data, nil)
			if err != nil || mf.Module == nil {
				return ""
			}
			return mf.Module.Mod.Path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
