package pakfs

import (
	"errors"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pakfs/internal/testutil"
)

const testPak = "/games/id1/pak0.pak"

// newTestArchive writes a container built from entries to an in-memory
// filesystem and returns an archive over it.
func newTestArchive(t *testing.T, entries ...testutil.TestEntry) (*Archive, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	testutil.WritePak(t, fsys, testPak, testutil.BuildPak(t, entries...))
	return New(testPak, WithFs(fsys)), fsys
}

// countingFs counts container opens.
type countingFs struct {
	afero.Fs
	opens atomic.Int64
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.opens.Add(1)
	return c.Fs.Open(name)
}

func TestArchiveSingleEntry(t *testing.T) {
	t.Parallel()

	data, payload := testutil.Level1(t)
	fsys := afero.NewMemMapFs()
	testutil.WritePak(t, fsys, testPak, data)

	a, err := Open(testPak, WithFs(fsys))
	require.NoError(t, err)

	e, err := a.Entry("maps/level1.bsp")
	require.NoError(t, err)
	assert.Equal(t, Entry{Name: "maps/level1.bsp", Offset: 12, Size: uint32(len(payload))}, e)

	r, err := a.OpenEntry(e)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	n, err := r.Read(make([]byte, 1))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestArchiveLiteralLayout(t *testing.T) {
	t.Parallel()

	// Table at offset 12 and the entry pointing at its own table record:
	// the entry's bytes are the first 15 bytes of the name field.
	data := append(testutil.EncodeHeader("PACK", 12, 64), testutil.EncodeRecord("maps/level1.bsp", 12, 15)...)
	fsys := afero.NewMemMapFs()
	testutil.WritePak(t, fsys, testPak, data)
	a := New(testPak, WithFs(fsys))

	got, err := a.ReadFile("maps/level1.bsp")
	require.NoError(t, err)
	assert.Equal(t, "maps/level1.bsp", string(got))
}

func TestArchiveEntriesTableOrder(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t,
		testutil.File("sound/z.wav", "zz"),
		testutil.File("gfx/a.lmp", "a"),
		testutil.File("maps/m.bsp", "mmm"),
	)

	entries, err := a.Entries()
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"sound/z.wav", "gfx/a.lmp", "maps/m.bsp"}, names)

	n, err := a.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, a.Exists("gfx/a.lmp"))
	assert.False(t, a.Exists("gfx"))
	assert.Equal(t, testPak, a.Path())

	prefixed, err := a.EntriesWithPrefix("maps/")
	require.NoError(t, err)
	require.Len(t, prefixed, 1)
	assert.Equal(t, "maps/m.bsp", prefixed[0].Name)
}

func TestArchiveEmpty(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t)

	entries, err := a.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	list, err := a.ReadDir(".")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestArchiveEntryNotFound(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, testutil.File("a.txt", "a"))

	_, err := a.Entry("b.txt")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	var pe *fs.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "b.txt", pe.Path)

	idx, err := a.Index()
	require.NoError(t, err)
	_, ok := idx.Get("b.txt")
	assert.False(t, ok)
}

func TestArchiveDuplicates(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	testutil.WritePak(t, fsys, testPak, testutil.BuildPak(t,
		testutil.File("a.txt", "first"),
		testutil.File("b.txt", "b"),
		testutil.File("a.txt", "second"),
	))

	a := New(testPak, WithFs(fsys))
	got, err := a.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
	n, err := a.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = Open(testPak, WithFs(fsys), WithDuplicates(DuplicatesReject))
	require.ErrorIs(t, err, ErrDuplicateEntry)
	assert.ErrorIs(t, err, ErrFormat)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, testPak, fe.Path)
}

func TestArchiveFormatErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		opts []Option
		want error
	}{
		{
			name: "bad magic",
			data: append(testutil.EncodeHeader("PACc", 12, 0), make([]byte, 4)...),
			want: ErrBadMagic,
		},
		{
			name: "negative count",
			data: testutil.EncodeHeader("PACK", 12, -64),
			want: ErrNegativeEntryCount,
		},
		{
			name: "table out of range",
			data: testutil.EncodeHeader("PACK", 1000, 64),
			want: ErrTableOutOfRange,
		},
		{
			name: "entry out of range",
			data: append(testutil.EncodeHeader("PACK", 12, 64), testutil.EncodeRecord("x", 12, 1000)...),
			want: ErrEntryOutOfRange,
		},
		{
			name: "strict partial record",
			data: append(testutil.EncodeHeader("PACK", 12, 70), make([]byte, 70)...),
			opts: []Option{WithStrictTableLength(true)},
			want: ErrPartialRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fsys := afero.NewMemMapFs()
			testutil.WritePak(t, fsys, testPak, tt.data)

			_, err := Open(testPak, append(tt.opts, WithFs(fsys))...)
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrFormat)

			entries, err := ParseEntries(tt.data, tt.opts...)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, entries)
		})
	}
}

func TestArchiveBuildFailureNotCached(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	a := New(testPak, WithFs(fsys))

	_, err := a.Index()
	require.ErrorIs(t, err, fs.ErrNotExist)

	testutil.WritePak(t, fsys, testPak, testutil.BuildPak(t, testutil.File("a.txt", "a")))
	idx, err := a.Index()
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
}

func TestArchiveIndexBuiltOnce(t *testing.T) {
	t.Parallel()

	cfs := &countingFs{Fs: afero.NewMemMapFs()}
	testutil.WritePak(t, cfs.Fs, testPak, testutil.BuildPak(t,
		testutil.File("a.txt", "a"),
		testutil.File("b.txt", "b"),
	))
	a := New(testPak, WithFs(cfs))

	const goroutines = 32
	indexes := make([]*Index, goroutines)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			idx, err := a.Index()
			assert.NoError(t, err)
			indexes[i] = idx
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), cfs.opens.Load())
	for _, idx := range indexes {
		require.NotNil(t, idx)
		assert.Same(t, indexes[0], idx)
		assert.Equal(t, 2, idx.Len())
	}
}

func TestArchiveIndependentReaders(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t,
		testutil.File("one.txt", "0123456789"),
		testutil.File("two.txt", "abcdefghij"),
	)

	one, err := a.Entry("one.txt")
	require.NoError(t, err)
	r1, err := a.OpenEntry(one)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := a.OpenEntry(one)
	require.NoError(t, err)
	defer r2.Close()

	_, err = r1.Seek(5, io.SeekStart)
	require.NoError(t, err)

	p := make([]byte, 3)
	_, err = io.ReadFull(r2, p)
	require.NoError(t, err)
	assert.Equal(t, "012", string(p))

	_, err = io.ReadFull(r1, p)
	require.NoError(t, err)
	assert.Equal(t, "567", string(p))

	require.NoError(t, r1.Close())
	_, err = io.ReadFull(r2, p)
	require.NoError(t, err)
	assert.Equal(t, "345", string(p))
}

func TestArchiveConcurrentReaders(t *testing.T) {
	t.Parallel()

	entries := []testutil.TestEntry{
		testutil.File("a.txt", "alpha alpha alpha"),
		testutil.File("b.txt", "bravo"),
		testutil.File("c.txt", "charlie charlie"),
	}
	a, _ := newTestArchive(t, entries...)

	var wg sync.WaitGroup
	for range 8 {
		for _, te := range entries {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := a.ReadFile(te.Name)
				assert.NoError(t, err)
				assert.Equal(t, te.Data, got)
			}()
		}
	}
	wg.Wait()
}

func TestArchiveReaderSeekBounds(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, testutil.File("maps/level1.bsp", "BSP29 level one"))
	e, err := a.Entry("maps/level1.bsp")
	require.NoError(t, err)
	r, err := a.OpenEntry(e)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.SetPosition(6))
	err = r.SetPosition(16)
	require.ErrorIs(t, err, ErrInvalidOffset)
	assert.ErrorIs(t, err, fs.ErrInvalid)
	assert.Equal(t, int64(6), r.Position())

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "level one", string(rest))
}

func TestArchiveReaderReadOnlyAndClose(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, testutil.File("a.txt", "abc"))
	f, err := a.Open("a.txt")
	require.NoError(t, err)
	r, ok := f.(*EntryReader)
	require.True(t, ok)

	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, err, errors.ErrUnsupported)
	assert.ErrorIs(t, r.Truncate(0), ErrReadOnly)

	require.NoError(t, r.Close())
	_, err = r.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Close(), fs.ErrClosed)
}

func TestOpenEntryReader(t *testing.T) {
	t.Parallel()

	data, payload := testutil.Level1(t)
	fsys := afero.NewMemMapFs()
	testutil.WritePak(t, fsys, testPak, data)

	entries, err := ParseEntries(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	r, err := OpenEntryReader(testPak, entries[0], WithFs(fsys), WithBufferSize(4))
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = OpenEntryReader("/missing.pak", entries[0], WithFs(fsys))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestArchiveFS(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t,
		testutil.File("autoexec.cfg", "exec quake.rc\n"),
		testutil.File("maps/e1m1.bsp", "BSP29 e1m1"),
		testutil.File("default.cfg", "bind w +forward\n"),
		testutil.File("maps/b/b_bh10.bsp", "BSP29 b"),
		testutil.File("empty.dat", ""),
		testutil.File("gfx/palette.lmp", string(make([]byte, 768))),
	)

	require.NoError(t, fstest.TestFS(a,
		"autoexec.cfg", "default.cfg", "empty.dat",
		"maps/e1m1.bsp", "maps/b/b_bh10.bsp", "gfx/palette.lmp",
	))
}

func TestArchiveFSUnrepresentableNames(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t,
		testutil.File("./progs.dat", "progs"),
		testutil.File("gfx//pal.lmp", "pal"),
		testutil.File("maps", "file"),
		testutil.File("maps/e1m1.bsp", "shadowed"),
		testutil.File("sound/a.wav", "a"),
	)

	require.NoError(t, fstest.TestFS(a, "maps", "sound/a.wav"))

	list, err := a.ReadDir(".")
	require.NoError(t, err)
	names := make([]string, len(list))
	for i, de := range list {
		names[i] = de.Name()
	}
	assert.Equal(t, []string{"maps", "sound"}, names)

	_, err = a.Open("maps/e1m1.bsp")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = a.ReadFile("gfx//pal.lmp")
	assert.ErrorIs(t, err, fs.ErrInvalid)

	for name, want := range map[string]string{
		"./progs.dat":   "progs",
		"gfx//pal.lmp":  "pal",
		"maps/e1m1.bsp": "shadowed",
	} {
		e, err := a.Entry(name)
		require.NoError(t, err, name)
		r, err := a.OpenEntry(e)
		require.NoError(t, err, name)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, want, string(got), name)
	}
}

func TestArchiveOpenAndStat(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t,
		testutil.File("maps/e1m1.bsp", "bsp"),
		testutil.File("gfx.wad", "wad!"),
	)

	info, err := a.Stat("maps/e1m1.bsp")
	require.NoError(t, err)
	assert.Equal(t, "e1m1.bsp", info.Name())
	assert.Equal(t, int64(3), info.Size())
	assert.Equal(t, fs.FileMode(0o444), info.Mode())
	assert.True(t, info.ModTime().IsZero())

	root, err := a.Stat(".")
	require.NoError(t, err)
	assert.True(t, root.IsDir())
	assert.Equal(t, fs.ModeDir|0o555, root.Mode())

	dir, err := a.Stat("maps")
	require.NoError(t, err)
	assert.Equal(t, "maps", dir.Name())
	assert.True(t, dir.IsDir())

	f, err := a.Open("maps/e1m1.bsp")
	require.NoError(t, err)
	r, ok := f.(*EntryReader)
	require.True(t, ok)
	assert.Equal(t, "maps/e1m1.bsp", r.Entry().Name)
	fi, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "e1m1.bsp", fi.Name())
	require.NoError(t, f.Close())

	_, err = a.Stat("map")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = a.Open("../x")
	assert.ErrorIs(t, err, fs.ErrInvalid)
	_, err = a.Open("/maps/e1m1.bsp")
	assert.ErrorIs(t, err, fs.ErrInvalid)
	_, err = a.ReadFile(".")
	assert.ErrorIs(t, err, fs.ErrInvalid)
	_, err = a.ReadFile("maps")
	assert.ErrorIs(t, err, fs.ErrInvalid)

	got, err := fs.ReadFile(a, "maps/e1m1.bsp")
	require.NoError(t, err)
	assert.Equal(t, "bsp", string(got))
}

func TestArchiveReadDir(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t,
		testutil.File("sound/z.wav", "z"),
		testutil.File("maps/e1m1.bsp", "m"),
		testutil.File("a.cfg", "a"),
		testutil.File("maps/e1m2.bsp", "m"),
	)

	dirEntryNames := func(list []fs.DirEntry) []string {
		names := make([]string, len(list))
		for i, de := range list {
			names[i] = de.Name()
		}
		return names
	}

	list, err := a.ReadDir(".")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.cfg", "maps", "sound"}, dirEntryNames(list))
	assert.False(t, list[0].IsDir())
	assert.True(t, list[1].IsDir())
	assert.Equal(t, fs.ModeDir, list[1].Type())

	list, err = a.ReadDir("maps")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1m1.bsp", "e1m2.bsp"}, dirEntryNames(list))

	_, err = a.ReadDir("a.cfg")
	require.ErrorIs(t, err, ErrNotDir)
	assert.ErrorIs(t, err, fs.ErrInvalid)

	_, err = a.ReadDir("music")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestArchiveOpenRootTableOrder(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t,
		testutil.File("z.txt", "z"),
		testutil.File("maps/m.bsp", "m"),
		testutil.File("a.txt", "a"),
	)

	dir, err := a.OpenRoot()
	require.NoError(t, err)
	defer dir.Close()

	first, err := dir.ReadDir(2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "z.txt", first[0].Name())
	assert.Equal(t, "maps/m.bsp", first[1].Name())

	rest, err := dir.ReadDir(2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "a.txt", rest[0].Name())

	_, err = dir.ReadDir(1)
	assert.ErrorIs(t, err, io.EOF)

	_, err = dir.Read(make([]byte, 1))
	assert.ErrorIs(t, err, fs.ErrInvalid)
}

func TestArchiveGlob(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t,
		testutil.File("maps/e1m2.bsp", "2"),
		testutil.File("maps/e1m1.bsp", "1"),
		testutil.File("maps/b_bh10.bsp", "b"),
		testutil.File("gfx/conback.lmp", "c"),
		testutil.File("quake.rc", "q"),
	)

	got, err := fs.Glob(a, "maps/e1m*.bsp")
	require.NoError(t, err)
	assert.Equal(t, []string{"maps/e1m1.bsp", "maps/e1m2.bsp"}, got)

	got, err = a.Glob("*")
	require.NoError(t, err)
	assert.Equal(t, []string{"gfx", "maps", "quake.rc"}, got)

	got, err = a.Glob("*/*.lmp")
	require.NoError(t, err)
	assert.Equal(t, []string{"gfx/conback.lmp"}, got)

	_, err = a.Glob("[")
	assert.Error(t, err)
}
