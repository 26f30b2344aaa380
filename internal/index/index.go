package index

import (
	"fmt"
	"iter"
	"slices"

	"github.com/meigma/pakfs/internal/paktype"
)

// Entry is the descriptor stored in the index.
type Entry = paktype.Entry

// Index provides access to archive entries.
//
// An Index is immutable once built and safe for concurrent use.
type Index struct {
	entries []Entry
	byName  map[string]int
}

// New builds an index from entries in table order.
//
// With DuplicatesLastWins a repeated name replaces the earlier record in
// place. With DuplicatesReject a repeated name fails with a FormatError
// wrapping ErrDuplicateEntry; no index is returned.
func New(entries []Entry, policy paktype.DuplicatePolicy) (*Index, error) {
	idx := &Index{
		entries: make([]Entry, 0, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		pos, dup := idx.byName[e.Name]
		if !dup {
			idx.byName[e.Name] = len(idx.entries)
			idx.entries = append(idx.entries, e)
			continue
		}
		if policy == paktype.DuplicatesReject {
			return nil, &paktype.FormatError{Offset: -1, Err: fmt.Errorf("%w: %q", paktype.ErrDuplicateEntry, e.Name)}
		}
		idx.entries[pos] = e
	}
	return idx, nil
}

// Get returns the entry for name. A missing name is not an error.
func (idx *Index) Get(name string) (Entry, bool) {
	pos, ok := idx.byName[name]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[pos], true
}

// Exists reports whether the index has an entry called name.
func (idx *Index) Exists(name string) bool {
	_, ok := idx.byName[name]
	return ok
}

// Len returns the number of distinct entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// List returns a copy of all entries in table order.
func (idx *Index) List() []Entry {
	return slices.Clone(idx.entries)
}

// All returns an iterator over all entries in table order.
func (idx *Index) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range idx.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Names returns the entry names in table order.
func (idx *Index) Names() []string {
	names := make([]string, len(idx.entries))
	for i, e := range idx.entries {
		names[i] = e.Name
	}
	return names
}
