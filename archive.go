package pakfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/meigma/pakfs/internal/file"
	"github.com/meigma/pakfs/internal/format"
	"github.com/meigma/pakfs/internal/index"
	"github.com/meigma/pakfs/internal/sizing"
)

// Interface compliance.
var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.StatFS     = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
	_ fs.ReadDirFS  = (*Archive)(nil)
	_ fs.GlobFS     = (*Archive)(nil)
)

// Archive provides read-only access to the entries of one container file.
//
// The entry table is parsed on first use and cached for the life of the
// Archive; concurrent first callers share a single parse. An Archive is safe
// for concurrent use, but each EntryReader it returns is not.
//
// The archive itself is flat: Entry, Entries and OpenRoot use entry names
// verbatim. Archive also implements fs.FS, fs.StatFS, fs.ReadFileFS,
// fs.ReadDirFS, and fs.GlobFS over a view in which '/' in entry names
// implies directories.
type Archive struct {
	path  string
	cfg   config
	idx   atomic.Pointer[index.Index]
	tree  atomic.Pointer[fsTree]
	group singleflight.Group
}

// New returns an Archive for the container at path without touching it.
// The container is read when the index is first needed.
func New(path string, opts ...Option) *Archive {
	return newArchive(path, newConfig(opts))
}

func newArchive(path string, cfg config) *Archive {
	return &Archive{path: path, cfg: cfg}
}

// Open returns an Archive for the container at path and parses its entry
// table immediately, so a malformed container is reported here.
func Open(path string, opts ...Option) (*Archive, error) {
	a := New(path, opts...)
	if _, err := a.Index(); err != nil {
		return nil, err
	}
	return a, nil
}

// Path returns the container path the archive was created with.
func (a *Archive) Path() string {
	return a.path
}

// Index returns the archive's entry index, building it on first call.
//
// A failed build is not cached; the next call retries.
func (a *Archive) Index() (*Index, error) {
	if idx := a.idx.Load(); idx != nil {
		return idx, nil
	}
	v, err, _ := a.group.Do(a.path, func() (any, error) {
		if idx := a.idx.Load(); idx != nil {
			return idx, nil
		}
		idx, err := a.buildIndex()
		if err != nil {
			return nil, err
		}
		a.idx.Store(idx)
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*index.Index), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

func (a *Archive) buildIndex() (*index.Index, error) {
	log := a.cfg.log()
	log.Debug("building index", "path", a.path)

	f, err := a.cfg.fs.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	defer f.Close()

	entries, err := format.ReadTable(f,
		format.WithStrictTableLength(a.cfg.strictTable),
		format.WithPath(a.path),
	)
	if err != nil {
		log.Debug("index build failed", "path", a.path, "error", err)
		return nil, err
	}

	idx, err := index.New(entries, a.cfg.duplicates)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) && fe.Path == "" {
			fe.Path = a.path
		}
		log.Debug("index build failed", "path", a.path, "error", err)
		return nil, err
	}

	log.Debug("index built", "path", a.path, "entries", idx.Len(), "records", len(entries))
	return idx, nil
}

// Entry returns the descriptor for name. A missing entry is reported as an
// *fs.PathError wrapping fs.ErrNotExist.
func (a *Archive) Entry(name string) (Entry, error) {
	return a.lookup("entry", name)
}

func (a *Archive) lookup(op, name string) (Entry, error) {
	idx, err := a.Index()
	if err != nil {
		return Entry{}, err
	}
	e, ok := idx.Get(name)
	if !ok {
		return Entry{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return e, nil
}

// Entries returns every entry in table order.
func (a *Archive) Entries() ([]Entry, error) {
	idx, err := a.Index()
	if err != nil {
		return nil, err
	}
	return idx.List(), nil
}

// EntriesWithPrefix returns the entries whose names start with prefix, in
// table order.
func (a *Archive) EntriesWithPrefix(prefix string) ([]Entry, error) {
	idx, err := a.Index()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for e := range idx.All() {
		if strings.HasPrefix(e.Name, prefix) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Exists reports whether the archive has an entry called name.
// It returns false when the index cannot be built.
func (a *Archive) Exists(name string) bool {
	idx, err := a.Index()
	if err != nil {
		return false
	}
	return idx.Exists(name)
}

// Len returns the number of distinct entries.
func (a *Archive) Len() (int, error) {
	idx, err := a.Index()
	if err != nil {
		return 0, err
	}
	return idx.Len(), nil
}

// OpenEntry returns a reader bounded to e. The reader owns a fresh handle
// to the container and must be closed by the caller.
func (a *Archive) OpenEntry(e Entry) (*EntryReader, error) {
	return openEntryReader(a.path, e, &a.cfg)
}

// OpenEntryReader opens the container at containerPath and returns a reader
// bounded to e. It does not parse the entry table.
func OpenEntryReader(containerPath string, e Entry, opts ...Option) (*EntryReader, error) {
	cfg := newConfig(opts)
	return openEntryReader(containerPath, e, &cfg)
}

func openEntryReader(containerPath string, e Entry, cfg *config) (*EntryReader, error) {
	h, err := cfg.fs.Open(containerPath)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	return file.NewReader(h, e, cfg.bufferSize), nil
}

// ParseEntries decodes the header and entry table of an in-memory container
// and returns the descriptors in table order. Only WithStrictTableLength
// affects parsing.
func ParseEntries(data []byte, opts ...Option) ([]Entry, error) {
	cfg := newConfig(opts)
	return format.Parse(data, format.WithStrictTableLength(cfg.strictTable))
}

func (a *Archive) fsTree() (*fsTree, error) {
	if t := a.tree.Load(); t != nil {
		return t, nil
	}
	idx, err := a.Index()
	if err != nil {
		return nil, err
	}
	a.tree.CompareAndSwap(nil, newFSTree(idx))
	return a.tree.Load(), nil
}

// OpenRoot returns the archive root as a flat directory stream: ReadDir
// yields every entry in table order under its full name, including names
// the fs.FS view cannot represent.
func (a *Archive) OpenRoot() (fs.ReadDirFile, error) {
	idx, err := a.Index()
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: ".", Err: err}
	}
	list := make([]fs.DirEntry, 0, idx.Len())
	for e := range idx.All() {
		list = append(list, file.NewDirEntry(file.NewInfo(e)))
	}
	return newDirFile(".", list), nil
}

// Open implements fs.FS.
//
// An entry is returned as an *EntryReader whose Stat reports the base
// name. A directory implied by entry names, or the root ".", is returned
// as an fs.ReadDirFile listing its children sorted by name.
func (a *Archive) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	t, err := a.fsTree()
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if e, ok := t.files[name]; ok {
		r, err := a.OpenEntry(e)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		r.SetName(path.Base(name))
		return r, nil
	}
	if list, ok := t.dirs[name]; ok {
		return newDirFile(name, list), nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Stat implements fs.StatFS. Names are reduced to their base, as for any
// fs.FS.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	t, err := a.fsTree()
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	if e, ok := t.files[name]; ok {
		return file.NewInfoAs(e, path.Base(name)), nil
	}
	if _, ok := t.dirs[name]; ok {
		return file.NewDirInfo(path.Base(name)), nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// ReadFile implements fs.ReadFileFS.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	t, err := a.fsTree()
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	e, ok := t.files[name]
	if !ok {
		if _, isDir := t.dirs[name]; isDir {
			return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
		}
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	data, err := a.readEntry(e)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return data, nil
}

func (a *Archive) readEntry(e Entry) ([]byte, error) {
	n, err := sizing.ToInt(int64(e.Size), ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	r, err := a.OpenEntry(e)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadDir implements fs.ReadDirFS. The listing is sorted by name; an
// entry yields ErrNotDir.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	t, err := a.fsTree()
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	if list, ok := t.dirs[name]; ok {
		return slices.Clone(list), nil
	}
	if _, ok := t.files[name]; ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrNotDir}
	}
	return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
}

// Glob implements fs.GlobFS with the semantics of fs.Glob: the pattern is
// matched against every file and directory path, and '*' does not cross
// a '/'.
func (a *Archive) Glob(pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, err
	}
	t, err := a.fsTree()
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, p := range t.paths() {
		if ok, _ := path.Match(pattern, p); ok {
			matches = append(matches, p)
		}
	}
	slices.Sort(matches)
	return matches, nil
}
