package textstore

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by store mutations.
var (
	ErrSpanInvalid    = errors.New("span start is after span end")
	ErrSpanOutOfRange = errors.New("span outside document")
)

// Span addresses a region of the store in (line, character) coordinates,
// character counts in runes, end exclusive.
type Span struct {
	StartLine int
	StartChar int
	EndLine   int
	EndChar   int
}

// Edit replaces the text inside Span with Text. An empty Span inserts, an
// empty Text deletes.
type Edit struct {
	Span Span
	Text string
}

// Store is a line-oriented mirror of one document: an ordered sequence of
// line strings, a uniform terminator, and a version counter advanced by the
// host on every change it relays. It keeps a prefix-sum index over line
// widths so offset lookups do not rescan the document, and a cached join of
// the full text.
//
// A Store is not safe for concurrent use; its owner serializes access.
type Store struct {
	lines   []string
	ending  LineEnding
	forced  bool
	version int32
	index   *prefixSum
	text    string
	textOK  bool
}

// Option configures a Store.
type Option func(*Store)

// WithLineEnding forces the terminator instead of detecting it from the
// content, including across later Replace calls.
func WithLineEnding(le LineEnding) Option {
	return func(s *Store) {
		s.ending = le
		s.forced = true
	}
}

// New creates a store holding text at the given version. The terminator is
// detected from the content by majority unless forced by an option; ties
// and terminator-free text resolve to LF.
func New(text string, version int32, opts ...Option) *Store {
	s := &Store{
		ending:  LineEndingLF,
		version: version,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.forced {
		s.ending = DetectLineEnding(text)
	}
	s.lines = SplitLines(text)
	return s
}

// Read Operations

// LineCount returns the number of lines. It is always at least 1: an empty
// document is a single empty line.
func (s *Store) LineCount() int {
	return len(s.lines)
}

// LineText returns the text of a line without its terminator, or "" when
// the index is out of range.
func (s *Store) LineText(line int) string {
	if line < 0 || line >= len(s.lines) {
		return ""
	}
	return s.lines[line]
}

// Lines returns a copy of the line sequence.
func (s *Store) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// EOL returns the terminator characters shared by every line.
func (s *Store) EOL() string {
	return s.ending.Sequence()
}

// Ending returns the terminator style.
func (s *Store) Ending() LineEnding {
	return s.ending
}

// Version returns the version of the last applied change.
func (s *Store) Version() int32 {
	return s.version
}

// SetVersion records a version without changing content. Used when the host
// learns that a revision carried identical text.
func (s *Store) SetVersion(version int32) {
	s.version = version
}

// Text returns the full document joined with the store terminator.
func (s *Store) Text() string {
	if !s.textOK {
		s.text = strings.Join(s.lines, s.ending.Sequence())
		s.textOK = true
	}
	return s.text
}

// Length returns the total document length in characters.
func (s *Store) Length() int {
	s.ensureIndex()
	return s.index.Total() - s.ending.width()
}

// LengthThrough returns the total width in characters of lines 0 through
// line inclusive, each line counting its terminator. A negative line yields
// 0, so LengthThrough(p.Line-1) is the offset where line p.Line starts.
func (s *Store) LengthThrough(line int) int {
	s.ensureIndex()
	return s.index.SumThrough(line)
}

// Locate maps a flat character offset to a line index and the offset's
// remainder within that line. The remainder can exceed the line's text
// length when the offset lands inside the terminator; callers clamp.
func (s *Store) Locate(offset int) (line, column int) {
	s.ensureIndex()
	return s.index.IndexOf(offset)
}

// Mutations

// ApplyEdits applies edits in order, each against the state left by the
// previous one, then records the version. Span characters are clamped into
// the addressed lines; a span naming a line outside the document, or with
// its start after its end, is rejected. On error the edits applied so far
// remain and the version does not advance; hosts recover with Replace.
func (s *Store) ApplyEdits(edits []Edit, version int32) error {
	for _, e := range edits {
		span, err := s.clampSpan(e.Span)
		if err != nil {
			return err
		}
		s.deleteSpan(span)
		if e.Text != "" {
			s.insertAt(span.StartLine, span.StartChar, e.Text)
		}
	}
	s.version = version
	return nil
}

// Replace swaps the whole content, re-detecting the terminator unless it
// was forced.
func (s *Store) Replace(text string, version int32) {
	if !s.forced {
		s.ending = DetectLineEnding(text)
	}
	s.lines = SplitLines(text)
	s.index = nil
	s.textOK = false
	s.text = ""
	s.version = version
}

func (s *Store) ensureIndex() {
	if s.index != nil {
		return
	}
	width := s.ending.width()
	values := make([]int, len(s.lines))
	for i, line := range s.lines {
		values[i] = runeLen(line) + width
	}
	s.index = newPrefixSum(values)
}

func (s *Store) clampSpan(span Span) (Span, error) {
	last := len(s.lines) - 1
	if span.StartLine < 0 || span.StartLine > last ||
		span.EndLine < 0 || span.EndLine > last {
		return span, fmt.Errorf("%w: lines %d-%d of %d",
			ErrSpanOutOfRange, span.StartLine, span.EndLine, len(s.lines))
	}
	span.StartChar = clampChar(span.StartChar, runeLen(s.lines[span.StartLine]))
	span.EndChar = clampChar(span.EndChar, runeLen(s.lines[span.EndLine]))
	if span.StartLine > span.EndLine ||
		(span.StartLine == span.EndLine && span.StartChar > span.EndChar) {
		return span, ErrSpanInvalid
	}
	return span, nil
}

func clampChar(ch, max int) int {
	if ch < 0 {
		return 0
	}
	if ch > max {
		return max
	}
	return ch
}

// setLine replaces one line's text, keeping the index and text cache
// coherent.
func (s *Store) setLine(line int, text string) {
	s.lines[line] = text
	if s.index != nil {
		s.index.SetValue(line, runeLen(text)+s.ending.width())
	}
	s.textOK = false
	s.text = ""
}

func (s *Store) insertLines(at int, lines []string) {
	s.lines = append(s.lines[:at], append(lines, s.lines[at:]...)...)
	if s.index != nil {
		width := s.ending.width()
		values := make([]int, len(lines))
		for i, line := range lines {
			values[i] = runeLen(line) + width
		}
		s.index.InsertValues(at, values)
	}
	s.textOK = false
	s.text = ""
}

func (s *Store) removeLines(at, count int) {
	s.lines = append(s.lines[:at], s.lines[at+count:]...)
	if s.index != nil {
		s.index.RemoveValues(at, count)
	}
	s.textOK = false
	s.text = ""
}

func (s *Store) deleteSpan(span Span) {
	if span.StartLine == span.EndLine {
		if span.StartChar == span.EndChar {
			return
		}
		line := s.lines[span.StartLine]
		prefix, _ := cutRunes(line, span.StartChar)
		_, suffix := cutRunes(line, span.EndChar)
		s.setLine(span.StartLine, prefix+suffix)
		return
	}
	prefix, _ := cutRunes(s.lines[span.StartLine], span.StartChar)
	_, suffix := cutRunes(s.lines[span.EndLine], span.EndChar)
	s.setLine(span.StartLine, prefix+suffix)
	s.removeLines(span.StartLine+1, span.EndLine-span.StartLine)
}

func (s *Store) insertAt(line, ch int, text string) {
	parts := SplitLines(text)
	cur := s.lines[line]
	prefix, suffix := cutRunes(cur, ch)
	if len(parts) == 1 {
		s.setLine(line, prefix+parts[0]+suffix)
		return
	}
	s.setLine(line, prefix+parts[0])
	rest := make([]string, len(parts)-1)
	copy(rest, parts[1:])
	rest[len(rest)-1] += suffix
	s.insertLines(line+1, rest)
}
