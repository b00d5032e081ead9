// Package manifest handles tabletalk.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest represents a tabletalk.toml project configuration.
type Manifest struct {
	Project   Project   `toml:"project"`
	Bundles   Bundles   `toml:"bundles"`
	Snapshots Snapshots `toml:"snapshots"`
	Log       Log       `toml:"log"`

	// Dir is the directory containing the tabletalk.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name      string `toml:"name"`
	Namespace string `toml:"namespace"`
	Version   string `toml:"version"`
}

// Bundles configures class-description document locations.
type Bundles struct {
	Paths []string `toml:"paths"`
}

// Snapshots configures the snapshot store backend.
type Snapshots struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Log configures logging output.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"`
}

// Load parses a tabletalk.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "tabletalk.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults. Relative DSNs resolve against the manifest directory so the
	// store lands in the project no matter where the tool runs from.
	if m.Snapshots.Driver == "" {
		m.Snapshots.Driver = "sqlite"
	}
	switch {
	case m.Snapshots.DSN == "":
		m.Snapshots.DSN = filepath.Join(m.Dir, "tabletalk.db")
	case !filepath.IsAbs(m.Snapshots.DSN) && !strings.Contains(m.Snapshots.DSN, "://"):
		m.Snapshots.DSN = filepath.Join(m.Dir, m.Snapshots.DSN)
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a tabletalk.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "tabletalk.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// BundlePaths returns absolute paths for the configured bundle documents.
func (m *Manifest) BundlePaths() []string {
	var paths []string
	for _, p := range m.Bundles.Paths {
		if filepath.IsAbs(p) {
			paths = append(paths, p)
			continue
		}
		paths = append(paths, filepath.Join(m.Dir, p))
	}
	return paths
}
