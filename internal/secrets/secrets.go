// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads wiki credentials from a directory of plain-text files
// or from a dotenv file. In a secrets directory each file is one secret: the
// filename is the key name and the file contents (trimmed) are the value.
//
// Supported key files: xar-user, xar-pass.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Key names recognized in a secrets directory.
const (
	KeyUser = "xar-user"
	KeyPass = "xar-pass"
)

// Variable names recognized in a dotenv file.
const (
	EnvUser = "XAR_PLUGIN_USER"
	EnvPass = "XAR_PLUGIN_PASS"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadDotEnv reads credentials from a dotenv file and maps them onto the
// secrets directory key names. A missing file returns an empty map.
func LoadDotEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading dotenv file %s: %w", path, err)
	}

	secrets := make(map[string]string)
	for key, name := range map[string]string{EnvUser: KeyUser, EnvPass: KeyPass} {
		if v := strings.TrimSpace(env[key]); v != "" {
			secrets[name] = v
		}
	}
	return secrets, nil
}

// Merge overlays later maps onto earlier ones.
func Merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
