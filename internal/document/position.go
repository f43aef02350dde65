package document

import "fmt"

// Position is a 0-based (line, character) coordinate. Characters count
// runes. A Position carries no validity of its own; it is validated against
// a document when used (see Document.ValidatePosition).
type Position struct {
	Line      int
	Character int
}

// Compare returns -1 if p is before other, 0 if equal, 1 if after, under
// line-then-character order.
func (p Position) Compare(other Position) int {
	if p.Line != other.Line {
		if p.Line < other.Line {
			return -1
		}
		return 1
	}
	if p.Character != other.Character {
		if p.Character < other.Character {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether p is strictly before other.
func (p Position) Before(other Position) bool {
	return p.Compare(other) < 0
}

// After reports whether p is strictly after other.
func (p Position) After(other Position) bool {
	return p.Compare(other) > 0
}

// String returns the position as "(line:character)".
func (p Position) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Character)
}

// Range is an ordered pair of positions with Start at or before End.
// Construction does not enforce the order; Document.ValidateRange does.
type Range struct {
	Start Position
	End   Position
}

// IsEmpty reports whether the range spans no text.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// IsSingleLine reports whether both endpoints share a line.
func (r Range) IsSingleLine() bool {
	return r.Start.Line == r.End.Line
}

// Contains reports whether p lies within the range, endpoints included.
func (r Range) Contains(p Position) bool {
	return !p.Before(r.Start) && !p.After(r.End)
}

// String returns the range as "[(start) - (end)]".
func (r Range) String() string {
	return fmt.Sprintf("[%s - %s]", r.Start, r.End)
}
