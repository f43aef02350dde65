// Package document implements position, range, offset, line, and word
// addressing over line-oriented text.
//
// # Model
//
// A Document wraps a LineSource and answers addressing queries against
// it. Positions are (line, character) pairs counted in characters from
// zero; offsets count characters from the start of the document with
// line terminators included. Position and range queries validate their
// arguments by clamping them into the document; only the line lookups
// (LineAt, LineAtPosition) treat an out-of-range index as an error.
//
// # Line descriptors
//
// LineAt returns an immutable *Line describing one line. Descriptors
// are cached per line and reused while the line's number and text stay
// unchanged, so repeated queries against an unedited line return the
// same instance. The comparison is by content: a line edited and then
// edited back to identical text keeps serving the cached descriptor.
//
// # Words
//
// WordRangeAt locates the word under a position using a regular
// expression, either the caller's, the per-language registered pattern,
// or the built-in default. Patterns that risk catastrophic backtracking
// are replaced by the default before matching.
//
// # Thread safety
//
// Document is not safe for concurrent use. Hosts that share documents
// across goroutines serialize access, as docstore.Store does.
package document
