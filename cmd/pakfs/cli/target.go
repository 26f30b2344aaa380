package cli

import (
	"errors"
	"fmt"

	"github.com/meigma/pakfs"
)

var errNoEntry = errors.New("no entry named: use <archive>!<entry> or <archive> <entry>...")

// entryRef is one archive entry named on the command line.
type entryRef struct {
	archive *pakfs.Archive
	name    string
}

// resolveEntries interprets args as either a list of <archive>!<entry>
// locations, or an archive followed by entry names.
func resolveEntries(reg *pakfs.Registry, args []string) ([]entryRef, error) {
	a, name, err := reg.Resolve(args[0])
	if err != nil {
		return nil, err
	}

	if name == "" {
		if len(args) == 1 {
			return nil, errNoEntry
		}
		refs := make([]entryRef, 0, len(args)-1)
		for _, n := range args[1:] {
			refs = append(refs, entryRef{archive: a, name: n})
		}
		return refs, nil
	}

	refs := []entryRef{{archive: a, name: name}}
	for _, loc := range args[1:] {
		a, name, err := reg.Resolve(loc)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("%s: %w", loc, errNoEntry)
		}
		refs = append(refs, entryRef{archive: a, name: name})
	}
	return refs, nil
}
