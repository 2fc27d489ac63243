package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ListPrograms returns the .ch8 ROM images in dir, sorted by name. The
// directory is created if it does not exist yet so first-run users have an
// obvious place to drop ROMs.
func ListPrograms(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating program folder %q: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading program folder %q: %w", dir, err)
	}

	var roms []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ch8") {
			continue
		}
		roms = append(roms, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(roms)

	return roms, nil
}

// ProgramName strips the directory and .ch8 extension from a ROM path for
// display in menus and window titles.
func ProgramName(romPath string) string {
	return strings.TrimSuffix(filepath.Base(romPath), ".ch8")
}
