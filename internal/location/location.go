// Package location parses archive locations of the form
// [pak:]container[!entry] and canonicalizes container paths.
package location

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Scheme is the optional prefix accepted on, and produced by, locations.
const Scheme = "pak:"

// Separator divides the container path from the entry name.
const Separator = "!"

const fileScheme = "file:"

// ErrEmpty is returned when a location has no container path.
var ErrEmpty = errors.New("pakfs: empty container path")

// Location addresses an archive or one of its entries.
// An empty Entry addresses the archive root.
type Location struct {
	Container string
	Entry     string
}

// Parse splits s into container path and entry name. The first '!' ends
// the container path; everything after it is the entry name, verbatim.
func Parse(s string) (Location, error) {
	s = strings.TrimPrefix(s, Scheme)
	s = strings.TrimPrefix(s, fileScheme)
	container, entry, _ := strings.Cut(s, Separator)
	if container == "" {
		return Location{}, fmt.Errorf("parse location %q: %w", s, ErrEmpty)
	}
	return Location{Container: container, Entry: entry}, nil
}

// IsRoot reports whether the location addresses the archive itself.
func (l Location) IsRoot() bool {
	return l.Entry == ""
}

// String returns the textual form, always carrying the pak: scheme.
func (l Location) String() string {
	if l.Entry == "" {
		return Scheme + l.Container
	}
	return Scheme + l.Container + Separator + l.Entry
}

// Canonical returns the registry key for a container path: any scheme prefix
// and entry suffix are removed, and the remainder is made absolute and
// cleaned. With resolveLinks set, symlinks are resolved when the path exists.
func Canonical(path string, resolveLinks bool) (string, error) {
	loc, err := Parse(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(loc.Container)
	if err != nil {
		return "", fmt.Errorf("canonicalize %q: %w", loc.Container, err)
	}
	if resolveLinks {
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
	}
	return abs, nil
}
