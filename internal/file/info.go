package file

import (
	"io/fs"
	"time"
)

// EntryMode is the permission reported for every archive entry.
const EntryMode fs.FileMode = 0o444

// RootMode is the mode reported for the archive root and implied
// directories.
const RootMode = fs.ModeDir | 0o555

// Info implements fs.FileInfo for an entry.
//
// By default Name is the full entry name as stored in the table, including
// any '/' characters. NewInfoAs overrides it, which the hierarchical fs view
// uses to report base names.
type Info struct {
	entry Entry
	name  string
}

// NewInfo returns file info for e named by its full entry name.
func NewInfo(e Entry) *Info {
	return &Info{entry: e, name: e.Name}
}

// NewInfoAs returns file info for e reported under name.
func NewInfoAs(e Entry, name string) *Info {
	return &Info{entry: e, name: name}
}

func (fi *Info) Name() string       { return fi.name }
func (fi *Info) Size() int64        { return int64(fi.entry.Size) }
func (fi *Info) Mode() fs.FileMode  { return EntryMode }
func (fi *Info) ModTime() time.Time { return time.Time{} }
func (fi *Info) IsDir() bool        { return false }
func (fi *Info) Sys() any           { return nil }

// Entry returns the underlying descriptor.
func (fi *Info) Entry() Entry {
	return fi.entry
}

// DirInfo implements fs.FileInfo for the archive root and for directories
// implied by entry names.
type DirInfo struct {
	name string
}

// NewDirInfo returns info for a directory called name.
func NewDirInfo(name string) *DirInfo {
	return &DirInfo{name: name}
}

func (di *DirInfo) Name() string       { return di.name }
func (di *DirInfo) Size() int64        { return 0 }
func (di *DirInfo) Mode() fs.FileMode  { return RootMode }
func (di *DirInfo) ModTime() time.Time { return time.Time{} }
func (di *DirInfo) IsDir() bool        { return true }
func (di *DirInfo) Sys() any           { return nil }

// DirEntry adapts an fs.FileInfo to fs.DirEntry.
type DirEntry struct {
	info fs.FileInfo
}

// NewDirEntry wraps info.
func NewDirEntry(info fs.FileInfo) *DirEntry {
	return &DirEntry{info: info}
}

func (de *DirEntry) Name() string               { return de.info.Name() }
func (de *DirEntry) IsDir() bool                { return de.info.IsDir() }
func (de *DirEntry) Type() fs.FileMode          { return de.info.Mode().Type() }
func (de *DirEntry) Info() (fs.FileInfo, error) { return de.info, nil }
func (de *DirEntry) String() string             { return fs.FormatDirEntry(de) }
