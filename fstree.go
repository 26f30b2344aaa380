package pakfs

import (
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/meigma/pakfs/internal/file"
	"github.com/meigma/pakfs/internal/index"
)

// fsTree is the hierarchical view of an index served by the fs.FS methods.
// Directories are implied by '/' in entry names; the index itself stays
// flat.
//
// Entries whose names are not valid fs paths, or that sit below another
// entry's name, have no place in the tree. They remain reachable through
// Entry and OpenEntry.
type fsTree struct {
	files map[string]Entry
	dirs  map[string][]fs.DirEntry // sorted by name
}

func newFSTree(idx *index.Index) *fsTree {
	valid := make(map[string]struct{}, idx.Len())
	for e := range idx.All() {
		if e.Name != "." && fs.ValidPath(e.Name) {
			valid[e.Name] = struct{}{}
		}
	}

	t := &fsTree{
		files: make(map[string]Entry, len(valid)),
		dirs:  make(map[string][]fs.DirEntry),
	}
	children := map[string]map[string]fs.DirEntry{".": {}}
	add := func(dir, name string, de fs.DirEntry) {
		m := children[dir]
		if m == nil {
			m = make(map[string]fs.DirEntry)
			children[dir] = m
		}
		if _, ok := m[name]; !ok {
			m[name] = de
		}
	}

	for e := range idx.All() {
		if _, ok := valid[e.Name]; !ok || shadowed(valid, e.Name) {
			continue
		}
		t.files[e.Name] = e

		dir, base := splitName(e.Name)
		add(dir, base, file.NewDirEntry(file.NewInfoAs(e, base)))
		for dir != "." {
			parent, name := splitName(dir)
			add(parent, name, file.NewDirEntry(file.NewDirInfo(name)))
			dir = parent
		}
	}

	for dir, m := range children {
		list := make([]fs.DirEntry, 0, len(m))
		for _, de := range m {
			list = append(list, de)
		}
		slices.SortFunc(list, func(x, y fs.DirEntry) int {
			return strings.Compare(x.Name(), y.Name())
		})
		t.dirs[dir] = list
	}
	return t
}

// shadowed reports whether some proper prefix directory of name is itself
// an entry.
func shadowed(valid map[string]struct{}, name string) bool {
	for i := range len(name) {
		if name[i] != '/' {
			continue
		}
		if _, ok := valid[name[:i]]; ok {
			return true
		}
	}
	return false
}

func splitName(name string) (dir, base string) {
	i := strings.LastIndexByte(name, '/')
	if i < 0 {
		return ".", name
	}
	return name[:i], name[i+1:]
}

// paths returns every file and directory path except ".".
func (t *fsTree) paths() []string {
	out := make([]string, 0, len(t.files)+len(t.dirs))
	for name := range t.files {
		out = append(out, name)
	}
	for name := range t.dirs {
		if name != "." {
			out = append(out, name)
		}
	}
	return out
}

// dirFile is an open directory. ReadDir yields its entries in the order
// they were given.
type dirFile struct {
	name    string
	entries []fs.DirEntry
	pos     int
	closed  bool
}

func newDirFile(name string, entries []fs.DirEntry) *dirFile {
	return &dirFile{name: name, entries: entries}
}

func (d *dirFile) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *dirFile) Stat() (fs.FileInfo, error) {
	if d.closed {
		return nil, &fs.PathError{Op: "stat", Path: d.name, Err: ErrClosed}
	}
	return file.NewDirInfo(path.Base(d.name)), nil
}

func (d *dirFile) Close() error {
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	return nil
}

func (d *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if d.closed {
		return nil, &fs.PathError{Op: "readdir", Path: d.name, Err: ErrClosed}
	}
	rest := d.entries[d.pos:]
	if n > 0 {
		if len(rest) == 0 {
			return nil, io.EOF
		}
		rest = rest[:min(n, len(rest))]
	}
	d.pos += len(rest)
	return slices.Clone(rest), nil
}
