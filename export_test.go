package pakfs

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pakfs/internal/testutil"
)

func readTar(t *testing.T, r io.Reader) (names []string, contents map[string]string) {
	t.Helper()
	contents = make(map[string]string)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return names, contents
		}
		require.NoError(t, err)
		assert.Equal(t, byte(tar.TypeReg), hdr.Typeflag)
		assert.Equal(t, int64(0o444), hdr.Mode)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		names = append(names, hdr.Name)
		contents[hdr.Name] = string(data)
	}
}

func TestWriteTar(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t,
		testutil.File("sound/z.wav", "zzz"),
		testutil.File("maps/e1m1.bsp", "map"),
		testutil.File("empty", ""),
	)

	var buf bytes.Buffer
	require.NoError(t, a.WriteTar(&buf))

	names, contents := readTar(t, &buf)
	assert.Equal(t, []string{"sound/z.wav", "maps/e1m1.bsp", "empty"}, names)
	assert.Equal(t, "zzz", contents["sound/z.wav"])
	assert.Equal(t, "map", contents["maps/e1m1.bsp"])
	assert.Empty(t, contents["empty"])
}

func TestWriteTarZstd(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("quake "), 1000)
	a, _ := newTestArchive(t, testutil.TestEntry{Name: "progs.dat", Data: payload})

	var buf bytes.Buffer
	require.NoError(t, a.WriteTar(&buf, ExportWithZstd(3)))
	assert.Less(t, buf.Len(), len(payload))

	dec, err := zstd.NewReader(&buf)
	require.NoError(t, err)
	defer dec.Close()

	names, contents := readTar(t, dec)
	assert.Equal(t, []string{"progs.dat"}, names)
	assert.Equal(t, string(payload), contents["progs.dat"])
}

func TestWriteTarBadArchive(t *testing.T) {
	t.Parallel()

	a := New("/missing.pak", WithFs(afero.NewMemMapFs()))
	var buf bytes.Buffer
	assert.Error(t, a.WriteTar(&buf))
	assert.Zero(t, buf.Len())
}
