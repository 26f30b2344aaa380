// Package pakfs exposes the contents of a PAK container as a read-only,
// flat filesystem.
//
// A PAK file is a 12-byte header ("PACK", table offset, table length)
// followed by entry payloads and a table of 64-byte records, each holding a
// 56-byte name and the entry's offset and size. Entries are read in place:
// nothing is extracted to disk to serve a read.
//
// # Quick Start
//
// Open an archive and read an entry:
//
//	a, err := pakfs.Open("id1/pak0.pak")
//	if err != nil {
//	    return err
//	}
//	data, err := a.ReadFile("maps/e1m1.bsp")
//
// The archive itself is flat. [Archive.Entries], [Archive.Entry], and
// [Archive.OpenRoot] use entry names verbatim, in table order.
//
// Archive also implements [io/fs.FS], so it works with [io/fs.WalkDir],
// [io/fs.Glob], and http.FS. In that view a '/' in an entry name implies a
// directory. Names that are not valid fs paths are left out of it.
//
// # Readers
//
// [Archive.OpenEntry] returns an [EntryReader] that owns its own handle to
// the container. It reads through a small buffer, seeks relative to the
// start of the entry, and never returns bytes outside the entry. Each reader
// is for use by one goroutine; open one per goroutine.
//
// # Registry
//
// A [Registry] shares one [Archive] per container path, so the entry table
// is parsed once no matter how a path is spelled:
//
//	reg := pakfs.NewRegistry()
//	a, entry, err := reg.Resolve("pak:id1/pak0.pak!gfx/palette.lmp")
package pakfs
