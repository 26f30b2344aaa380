// Package paktype holds the types shared between the pakfs packages.
//
// The root pakfs package re-exports everything here; import pakfs instead.
package paktype

// Entry describes one file stored in a PAK container.
type Entry struct {
	// Name is the entry name exactly as stored in the table, with padding removed
	// (e.g. "maps/e1m1.bsp"). The archive is flat; slashes carry no meaning.
	Name string

	// Offset is the absolute byte offset of the entry's content in the container.
	Offset uint32

	// Size is the length of the entry's content in bytes.
	Size uint32
}

// End returns the container offset one past the last byte of the entry.
func (e Entry) End() int64 {
	return int64(e.Offset) + int64(e.Size)
}

// DuplicatePolicy controls how an index treats repeated entry names.
type DuplicatePolicy uint8

const (
	// DuplicatesLastWins keeps the last record with a given name. The surviving
	// record takes the table position of the record it replaced.
	DuplicatesLastWins DuplicatePolicy = iota

	// DuplicatesReject fails index construction with ErrDuplicateEntry.
	DuplicatesReject
)

// String returns the human-readable name of the policy.
func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicatesLastWins:
		return "last-wins"
	case DuplicatesReject:
		return "reject"
	default:
		return "unknown"
	}
}
