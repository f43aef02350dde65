package document

import "unicode"

// Line is an immutable descriptor for one line of a document. Instances are
// cached and shared; callers must not modify them.
type Line struct {
	// Number is the 0-based line index the descriptor was computed for.
	Number int

	// Text is the line content without its terminator.
	Text string

	// Range spans the line's text, excluding the terminator.
	Range Range

	// RangeIncludingLineBreak extends Range to the start of the next line.
	// On the last line it equals Range.
	RangeIncludingLineBreak Range

	// FirstNonWhitespaceCharacterIndex is the length in characters of the
	// leading whitespace run. It equals the text length when the line is
	// empty or all whitespace.
	FirstNonWhitespaceCharacterIndex int

	// IsEmptyOrWhitespace reports whether the line has no non-whitespace
	// characters.
	IsEmptyOrWhitespace bool
}

// leadingWhitespaceWidth returns the length in runes of the leading
// whitespace run of s, and the total rune length of s.
func leadingWhitespaceWidth(s string) (leading, total int) {
	done := false
	for _, r := range s {
		if !done && unicode.IsSpace(r) {
			leading++
		} else {
			done = true
		}
		total++
	}
	return leading, total
}
