package pattern

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
)

//go:embed data/metric/*.pat data/imperial/*.pat
var builtinFS embed.FS

// RegisterBuiltin registers the patterns shipped with the package: the
// metric set AR-CONC, HATCH-SQRS, LATTICE-07, LEAF-01 and SWAMP, and the
// imperial set GRAVEL, MAZE-01 and MAZE-02.
func RegisterBuiltin(r *Registry) error {
	for _, dir := range []struct {
		name   string
		metric bool
	}{
		{"data/metric", true},
		{"data/imperial", false},
	} {
		files, err := fs.Glob(builtinFS, path.Join(dir.name, "*.pat"))
		if err != nil {
			return fmt.Errorf("pattern: list builtin: %w", err)
		}
		for _, f := range files {
			data, err := builtinFS.ReadFile(f)
			if err != nil {
				return fmt.Errorf("pattern: read %s: %w", f, err)
			}
			pats, err := ParsePATFile(string(data))
			if err != nil {
				return fmt.Errorf("pattern: parse %s: %w", f, err)
			}
			for _, p := range pats {
				if err := r.Register(p, dir.metric); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// NewBuiltinRegistry returns a registry preloaded by RegisterBuiltin.
func NewBuiltinRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := RegisterBuiltin(r); err != nil {
		return nil, err
	}
	return r, nil
}
