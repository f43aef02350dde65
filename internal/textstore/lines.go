package textstore

import (
	"unicode/utf8"
)

// LineEnding specifies the line terminator style of a store.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// String returns the escaped representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingLF:
		return "\\n"
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	default:
		return "\\n"
	}
}

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// width returns the terminator width in characters.
func (le LineEnding) width() int {
	if le == LineEndingCRLF {
		return 2
	}
	return 1
}

// ParseLineEnding maps a configuration name to a LineEnding.
func ParseLineEnding(name string) (LineEnding, bool) {
	switch name {
	case "lf":
		return LineEndingLF, true
	case "crlf":
		return LineEndingCRLF, true
	case "cr":
		return LineEndingCR, true
	default:
		return LineEndingLF, false
	}
}

// SplitLines splits text into lines on \r\n, \r, or \n. The terminators are
// not part of the result. Empty text yields a single empty line, and text
// ending in a terminator yields a trailing empty line, so the result is
// never empty.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	return append(lines, text[start:])
}

// DetectLineEnding picks the dominant terminator in text. Ties and text
// without any terminator resolve to LF.
func DetectLineEnding(text string) LineEnding {
	var lf, crlf, cr int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lf++
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				crlf++
				i++
			} else {
				cr++
			}
		}
	}
	if crlf > lf && crlf > cr {
		return LineEndingCRLF
	}
	if cr > lf && cr > crlf {
		return LineEndingCR
	}
	return LineEndingLF
}

// runeLen returns the length of s in characters.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// byteIndexOfRune returns the byte index of the index-th rune in s,
// or len(s) when index is past the end.
func byteIndexOfRune(s string, index int) int {
	if index <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == index {
			return i
		}
		n++
	}
	return len(s)
}

// cutRunes splits s at the given rune index.
func cutRunes(s string, index int) (string, string) {
	b := byteIndexOfRune(s, index)
	return s[:b], s[b:]
}
