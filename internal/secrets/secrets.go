// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads operator credentials from a directory of plain-text
// files. Each file in the directory is one secret: the filename is the key
// and the trimmed file contents are the value.
//
// Recognized key files: proxy-server (alternate network identity for use
// after a block), user-agent (override for the browser and fetcher).
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files produce a warning on w but do not abort.
func Load(dir string, w io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", entry.Name(), err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[entry.Name()] = value
		}
	}

	return secrets, nil
}
