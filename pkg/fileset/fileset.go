package fileset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoSourceDir is returned when the directory to select from is missing or not a directory.
	ErrNoSourceDir = errors.New("source directory does not exist")
	// ErrInvalidFilter is returned for filters that are not a plain file name prefix.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrOverlap is returned when a directory about to be recreated would take the sources with it.
	ErrOverlap = errors.New("output directory overlaps source directory")
)

// ValidateFilter reports whether filter is usable as a file name prefix.
func ValidateFilter(filter string) error {
	if strings.ContainsAny(filter, `/\`) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidFilter, filter)
	}
	if strings.ContainsAny(filter, "*?[") {
		return fmt.Errorf("%w: %q contains a glob pattern", ErrInvalidFilter, filter)
	}
	return nil
}

// Match reports whether name is selected by filter for files ending in ext.
// A filter that already ends in ext names one exact file, anything else is a prefix.
func Match(name, ext, filter string) bool {
	if !strings.HasSuffix(name, ext) {
		return false
	}
	if filter != "" && strings.HasSuffix(filter, ext) {
		return name == filter
	}
	return strings.HasPrefix(name, filter)
}

// Select returns the names of the regular files in dir that end in ext and match filter,
// in directory listing order.
func Select(dir, ext, filter string) ([]string, error) {
	if err := ValidateFilter(filter); err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoSourceDir, dir)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoSourceDir, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if Match(entry.Name(), ext, filter) {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

// Stem returns the base name up to its first dot.
func Stem(name string) string {
	stem, _, _ := strings.Cut(name, ".")
	return stem
}

// CheckOverlap fails when out is src or one of its parents.
// An out directory nested inside src is fine, Select only lists regular files.
func CheckOverlap(src, out string) error {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", src, err)
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", out, err)
	}

	rel, err := filepath.Rel(absOut, absSrc)
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf("%w: %s would remove %s", ErrOverlap, out, src)
	}
	return nil
}

// Recreate removes dir and everything in it, then creates it empty.
func Recreate(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}
