package words

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// At finds the word in text that contains or touches the given column
// (0-based, in runes). The scan is bounded: it starts at the whitespace
// nearest left of the column and walks matches forward, so the result
// favors the match adjacent to the column instead of collecting every match
// on the line. When the windowed pass misses (a word definition may span
// whitespace), it rescans once from the start of the line. Returns the
// match boundaries as rune columns, end exclusive.
func At(text string, column int, re *regexp.Regexp) (start, end int, ok bool) {
	if re == nil {
		return 0, 0, false
	}
	pos := byteIndexOfRune(text, column)
	window := strings.LastIndexAny(text[:pos], " \t") + 1
	s, e, ok := scanFrom(text, window, pos, re)
	if !ok && window > 0 {
		s, e, ok = scanFrom(text, 0, pos, re)
	}
	if !ok {
		return 0, 0, false
	}
	return runeIndexOfByte(text, s), runeIndexOfByte(text, e), true
}

// scanFrom walks matches from byte offset from, returning the first whose
// byte span [s, e] contains pos. Matches that begin past pos end the scan;
// empty matches advance by one rune so the walk always terminates.
func scanFrom(text string, from, pos int, re *regexp.Regexp) (int, int, bool) {
	at := from
	for at <= len(text) {
		loc := re.FindStringIndex(text[at:])
		if loc == nil {
			return 0, 0, false
		}
		s, e := at+loc[0], at+loc[1]
		if s > pos {
			return 0, 0, false
		}
		if e >= pos && e > s {
			return s, e, true
		}
		if e == s {
			_, w := utf8.DecodeRuneInString(text[e:])
			if w == 0 {
				w = 1
			}
			at = e + w
		} else {
			at = e
		}
	}
	return 0, 0, false
}

// byteIndexOfRune returns the byte index of the index-th rune in s, or
// len(s) when index is past the end.
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

// runeIndexOfByte returns the rune column of the byte index b in s.
func runeIndexOfByte(s string, b int) int {
	return utf8.RuneCountInString(s[:b])
}
