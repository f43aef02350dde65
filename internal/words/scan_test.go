package words

import (
	"regexp"
	"testing"
)

func TestAtFindsWordUnderColumn(t *testing.T) {
	re := Default()
	tests := []struct {
		text      string
		column    int
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{"  foo bar", 3, 2, 5, true},
		{"  foo bar", 2, 2, 5, true},  // at the first character
		{"  foo bar", 5, 2, 5, true},  // touching the end
		{"  foo bar", 7, 6, 9, true},  // inside "bar"
		{"  foo bar", 9, 6, 9, true},  // at end of line
		{"  foo bar", 1, 0, 0, false}, // inside leading whitespace
		{"", 0, 0, 0, false},
		{"one", 0, 0, 3, true},
		{"a b", 1, 0, 1, true}, // touches "a" from the right
	}
	for _, tt := range tests {
		start, end, ok := At(tt.text, tt.column, re)
		if ok != tt.wantOK || start != tt.wantStart || end != tt.wantEnd {
			t.Errorf("At(%q, %d) = (%d, %d, %v), want (%d, %d, %v)",
				tt.text, tt.column, start, end, ok, tt.wantStart, tt.wantEnd, tt.wantOK)
		}
	}
}

func TestAtUnicodeColumns(t *testing.T) {
	re := Default()
	// Columns count runes, not bytes.
	start, end, ok := At("日本語 word", 1, re)
	if !ok || start != 0 || end != 3 {
		t.Errorf("At = (%d, %d, %v), want (0, 3, true)", start, end, ok)
	}
	start, end, ok = At("日本語 word", 5, re)
	if !ok || start != 4 || end != 8 {
		t.Errorf("At = (%d, %d, %v), want (4, 8, true)", start, end, ok)
	}
}

func TestAtCustomPattern(t *testing.T) {
	re := regexp.MustCompile(`-?\d+`)
	start, end, ok := At("order -42 items", 7, re)
	if !ok || start != 6 || end != 9 {
		t.Errorf("At = (%d, %d, %v), want (6, 9, true)", start, end, ok)
	}
	if _, _, ok := At("order -42 items", 2, re); ok {
		t.Error("At matched a word where the pattern cannot")
	}
}

func TestAtRescanForSpanningMatches(t *testing.T) {
	// A definition that spans whitespace is missed by the windowed pass and
	// found by the rescan from the line start.
	re := regexp.MustCompile(`\w+ \w+`)
	start, end, ok := At("foo bar", 5, re)
	if !ok || start != 0 || end != 7 {
		t.Errorf("At = (%d, %d, %v), want (0, 7, true)", start, end, ok)
	}
}

func TestAtSkipsEmptyMatches(t *testing.T) {
	// a* produces empty matches everywhere except on runs of a.
	re := regexp.MustCompile(`a*`)
	start, end, ok := At("bbbaab", 4, re)
	if !ok || start != 3 || end != 5 {
		t.Errorf("At = (%d, %d, %v), want (3, 5, true)", start, end, ok)
	}
	if _, _, ok := At("bbb", 1, re); ok {
		t.Error("At accepted an empty match as a word")
	}
}

func TestAtColumnPastLineEnd(t *testing.T) {
	re := Default()
	start, end, ok := At("word", 99, re)
	if !ok || start != 0 || end != 4 {
		t.Errorf("At = (%d, %d, %v), want (0, 4, true)", start, end, ok)
	}
}

func TestAtNilPattern(t *testing.T) {
	if _, _, ok := At("word", 0, nil); ok {
		t.Error("At(nil pattern) reported a match")
	}
}
