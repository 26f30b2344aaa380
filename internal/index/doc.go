// Package index provides the in-memory name lookup for PAK archives.
//
// The index keeps entries in table order, which is also the order of
// directory listings, and maps each name to its position for O(1) lookups.
package index
