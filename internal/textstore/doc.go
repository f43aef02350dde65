// Package textstore holds the mutable line store behind each mirrored
// document.
//
// A Store is the authority for a document's content between revisions: an
// ordered sequence of terminator-free line strings, one uniform terminator,
// and the version of the last change applied. Hosts feed it either
// incremental edits (ApplyEdits), expressed in the same evolving-state order
// the LSP wire uses, or whole-content swaps (Replace).
//
// # Offset index
//
// The store maintains a lazily built prefix-sum index over per-line widths
// (text length plus terminator, in runes). LengthThrough and Locate are the
// two directions of the flat-offset mapping consumed by the document layer;
// both are O(log n) after an O(n) (re)validation of the dirtied tail.
//
// All character arithmetic in this package counts runes. UTF-16 exists only
// at the protocol boundary and is converted before edits reach a Store.
package textstore
