// Package testutil builds PAK containers for tests.
package testutil

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// TestEntry holds the name and content of an entry to place in a test container.
type TestEntry struct {
	Name string
	Data []byte
}

// File returns a TestEntry with string content.
func File(name, content string) TestEntry {
	return TestEntry{Name: name, Data: []byte(content)}
}

// BuildPak lays out a container the way classic packers do: the header, then
// every payload in order starting at offset 12, then the entry table.
func BuildPak(tb testing.TB, entries ...TestEntry) []byte {
	tb.Helper()

	payload := make([]byte, 0, 256)
	table := make([]byte, 0, len(entries)*64)
	offset := 12
	for _, e := range entries {
		if len(e.Name) > 56 {
			tb.Fatalf("testutil: entry name %q longer than 56 bytes", e.Name)
		}
		table = append(table, EncodeRecord(e.Name, int32(offset), int32(len(e.Data)))...) //nolint:gosec // test sizes are small
		payload = append(payload, e.Data...)
		offset += len(e.Data)
	}

	out := EncodeHeader("PACK", int32(offset), int32(len(table))) //nolint:gosec // test sizes are small
	out = append(out, payload...)
	return append(out, table...)
}

// EncodeHeader returns a 12-byte container header.
func EncodeHeader(magic string, tableOffset, tableLength int32) []byte {
	b := make([]byte, 4, 12)
	copy(b, magic)
	b = binary.LittleEndian.AppendUint32(b, uint32(tableOffset)) //nolint:gosec // bit pattern is intended
	return binary.LittleEndian.AppendUint32(b, uint32(tableLength)) //nolint:gosec // bit pattern is intended
}

// EncodeRecord returns a 64-byte table record with a NUL padded name.
func EncodeRecord(name string, offset, size int32) []byte {
	b := make([]byte, 56, 64)
	copy(b, name)
	b = binary.LittleEndian.AppendUint32(b, uint32(offset)) //nolint:gosec // bit pattern is intended
	return binary.LittleEndian.AppendUint32(b, uint32(size)) //nolint:gosec // bit pattern is intended
}

// WritePak writes data to path on fsys, creating parent directories.
func WritePak(tb testing.TB, fsys afero.Fs, path string, data []byte) string {
	tb.Helper()

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("testutil: mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		tb.Fatalf("testutil: write %s: %v", path, err)
	}
	return path
}

// Level1 returns the single-entry container used throughout the tests:
// "maps/level1.bsp" at offset 12 with 15 bytes of payload.
func Level1(tb testing.TB) (data, payload []byte) {
	tb.Helper()

	payload = []byte("BSP29 level one")
	return BuildPak(tb, TestEntry{Name: "maps/level1.bsp", Data: payload}), payload
}
