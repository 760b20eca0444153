// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package project locates the XAR modules of a Maven project.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/pdiddy/xar-plugin/pkg/types"
)

const (
	pomFile          = "pom.xml"
	defaultPackaging = "jar"
	targetDir        = "target"
)

// Module is a project directory whose pom declares a packaging.
type Module struct {
	// Dir holds the module pom.xml.
	Dir string

	// Packaging is the declared pom packaging.
	Packaging string
}

// Resources is the module resource tree that get scans and unpacks into.
func (m Module) Resources() string {
	return filepath.Join(m.Dir, filepath.FromSlash(types.ResourcesDir))
}

// Packaging reads the <packaging> of a pom. Maven's default "jar" applies
// when the element is absent.
func Packaging(pomPath string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(pomPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("%w: reading %s: %v", types.ErrDirectoryAccess, pomPath, err)
		}
		return "", fmt.Errorf("%w: parsing %s: %v", types.ErrConfiguration, pomPath, err)
	}
	root := doc.SelectElement("project")
	if root == nil {
		return "", fmt.Errorf("%w: %s has no <project> root", types.ErrConfiguration, pomPath)
	}
	if p := root.SelectElement("packaging"); p != nil {
		if text := strings.TrimSpace(p.Text()); text != "" {
			return text, nil
		}
	}
	return defaultPackaging, nil
}

// Root returns the module at dir. The packaging override wins over the
// pom; without either the module has no packaging.
func Root(dir, override string) (Module, error) {
	if override != "" {
		return Module{Dir: dir, Packaging: override}, nil
	}
	pom := filepath.Join(dir, pomFile)
	if _, err := os.Stat(pom); errors.Is(err, fs.ErrNotExist) {
		return Module{Dir: dir}, nil
	}
	packaging, err := Packaging(pom)
	if err != nil {
		return Module{}, err
	}
	return Module{Dir: dir, Packaging: packaging}, nil
}

// Find walks root and returns every module whose pom declares packaging,
// in walk order. Build output and hidden directories are not entered.
func Find(root, packaging string) ([]Module, error) {
	var modules []Module
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == targetDir || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != pomFile || !d.Type().IsRegular() {
			return nil
		}
		got, err := Packaging(path)
		if err != nil {
			return err
		}
		if got == packaging {
			modules = append(modules, Module{Dir: filepath.Dir(path), Packaging: got})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, types.ErrConfiguration) || errors.Is(err, types.ErrDirectoryAccess) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: walking %s: %v", types.ErrDirectoryAccess, root, err)
	}
	return modules, nil
}
