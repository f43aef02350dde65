package document

import "unicode/utf8"

// runeLen returns the length of s in characters.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
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

// runeSlice returns the substring of s between rune columns from and to.
func runeSlice(s string, from, to int) string {
	return s[byteIndexOfRune(s, from):byteIndexOfRune(s, to)]
}

// runeSliceFrom returns the substring of s from rune column from to the end.
func runeSliceFrom(s string, from int) string {
	return s[byteIndexOfRune(s, from):]
}
