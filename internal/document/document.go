package document

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/textmirror/internal/words"
)

// Errors returned by document operations.
var (
	// ErrNilSource is returned by New when no line source is supplied.
	ErrNilSource = errors.New("document: nil line source")
	// ErrLineOutOfRange is returned by LineAt for a line index outside
	// the document.
	ErrLineOutOfRange = errors.New("document: line out of range")
	// ErrInvalidWordPattern is returned by WordRangeAt when the supplied
	// pattern can never match a non-empty word.
	ErrInvalidWordPattern = errors.New("document: invalid word pattern")
)

// LineSource is the read-only line view a Document addresses into.
// *textstore.Store satisfies it.
type LineSource interface {
	// LineCount reports the number of lines. It is always at least 1.
	LineCount() int
	// LineText returns the text of a line without its terminator.
	// Out-of-range lines return "".
	LineText(line int) string
	// EOL returns the terminator sequence shared by every line.
	EOL() string
	// Version reports the revision stamp of the current content.
	Version() int32
	// LengthThrough returns the character length of lines [0, line]
	// including terminators. A negative line returns 0.
	LengthThrough(line int) int
	// Locate maps a character offset to a (line, column) pair. Offsets
	// inside a terminator resolve to a column past the line text.
	Locate(offset int) (line, column int)
}

// texter is the optional fast path for sources that keep the joined
// text around.
type texter interface {
	Text() string
}

// Document provides position, range, offset, line, and word addressing
// over a LineSource. Positions count characters, not bytes.
//
// A Document is not safe for concurrent use; callers serialize access.
type Document struct {
	uri      string
	language string
	dirty    bool
	source   LineSource
	patterns *words.Registry
	cache    map[int]*Line
}

// Option configures a Document at construction.
type Option func(*Document)

// WithURI sets the document identifier.
func WithURI(uri string) Option {
	return func(d *Document) { d.uri = uri }
}

// WithLanguage sets the language identifier used for word pattern lookup.
func WithLanguage(languageID string) Option {
	return func(d *Document) { d.language = languageID }
}

// WithWordPatterns supplies the per-language word pattern registry.
func WithWordPatterns(reg *words.Registry) Option {
	return func(d *Document) { d.patterns = reg }
}

// New creates a Document over source.
func New(source LineSource, opts ...Option) (*Document, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	d := &Document{
		source: source,
		cache:  make(map[int]*Line),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// URI returns the document identifier.
func (d *Document) URI() string { return d.uri }

// Language returns the language identifier.
func (d *Document) Language() string { return d.language }

// SetLanguage changes the language identifier.
func (d *Document) SetLanguage(languageID string) { d.language = languageID }

// Version reports the source revision stamp.
func (d *Document) Version() int32 { return d.source.Version() }

// LineCount reports the number of lines, always at least 1.
func (d *Document) LineCount() int { return d.source.LineCount() }

// EOL returns the line terminator sequence.
func (d *Document) EOL() string { return d.source.EOL() }

// IsDirty reports whether the document has unsaved changes.
func (d *Document) IsDirty() bool { return d.dirty }

// MarkDirty flags the document as having unsaved changes.
func (d *Document) MarkDirty() { d.dirty = true }

// MarkSaved clears the unsaved-changes flag.
func (d *Document) MarkSaved() { d.dirty = false }

// Validation

// ValidatePosition clamps p into the document. A position already inside
// the document is returned unchanged.
func (d *Document) ValidatePosition(p Position) Position {
	v, _ := d.validatePosition(p)
	return v
}

// validatePosition clamps p and reports whether it changed.
func (d *Document) validatePosition(p Position) (Position, bool) {
	line, char := p.Line, p.Character
	if line < 0 {
		return Position{}, true
	}
	if last := d.source.LineCount() - 1; line > last {
		return Position{Line: last, Character: runeLen(d.source.LineText(last))}, true
	}
	if char < 0 {
		return Position{Line: line}, true
	}
	if max := runeLen(d.source.LineText(line)); char > max {
		return Position{Line: line, Character: max}, true
	}
	return p, false
}

// ValidateRange clamps both endpoints of r into the document and orders
// them. A range already valid and ordered is returned unchanged.
func (d *Document) ValidateRange(r Range) Range {
	start, changedStart := d.validatePosition(r.Start)
	end, changedEnd := d.validatePosition(r.End)
	if !changedStart && !changedEnd && !start.After(end) {
		return r
	}
	if start.After(end) {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

// Offsets

// OffsetAt returns the character offset of p from the start of the
// document, counting line terminators. The position is validated first.
func (d *Document) OffsetAt(p Position) int {
	v := d.ValidatePosition(p)
	return d.source.LengthThrough(v.Line-1) + v.Character
}

// PositionAt returns the position of a character offset. Offsets are
// clamped into the document; an offset inside a line terminator resolves
// to the end of that line.
func (d *Document) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	line, col := d.source.Locate(offset)
	if max := runeLen(d.source.LineText(line)); col > max {
		col = max
	}
	return Position{Line: line, Character: col}
}

// Content

// Text returns the full document content.
func (d *Document) Text() string {
	if t, ok := d.source.(texter); ok {
		return t.Text()
	}
	var b strings.Builder
	eol := d.source.EOL()
	for i := 0; i < d.source.LineCount(); i++ {
		if i > 0 {
			b.WriteString(eol)
		}
		b.WriteString(d.source.LineText(i))
	}
	return b.String()
}

// TextInRange returns the content covered by r after validation. Lines
// are joined with the document terminator.
func (d *Document) TextInRange(r Range) string {
	v := d.ValidateRange(r)
	if v.IsEmpty() {
		return ""
	}
	if v.IsSingleLine() {
		return runeSlice(d.source.LineText(v.Start.Line), v.Start.Character, v.End.Character)
	}
	var b strings.Builder
	eol := d.source.EOL()
	b.WriteString(runeSliceFrom(d.source.LineText(v.Start.Line), v.Start.Character))
	for line := v.Start.Line + 1; line < v.End.Line; line++ {
		b.WriteString(eol)
		b.WriteString(d.source.LineText(line))
	}
	b.WriteString(eol)
	b.WriteString(runeSlice(d.source.LineText(v.End.Line), 0, v.End.Character))
	return b.String()
}

// Lines

// LineAt returns the descriptor for a line index.
func (d *Document) LineAt(line int) (*Line, error) {
	if line < 0 || line >= d.source.LineCount() {
		return nil, fmt.Errorf("%w: %d of %d", ErrLineOutOfRange, line, d.source.LineCount())
	}
	return d.lineAt(line), nil
}

// LineAtPosition returns the descriptor for the line named by p. Only
// p.Line is consulted; like LineAt, an index outside the document is an
// error, not a clamp.
func (d *Document) LineAtPosition(p Position) (*Line, error) {
	return d.LineAt(p.Line)
}

// lineAt serves a descriptor from the cache when its text still matches
// the source, and rebuilds it otherwise. Descriptors stay valid across
// edits that leave the line's number and text untouched.
func (d *Document) lineAt(line int) *Line {
	text := d.source.LineText(line)
	if cached, ok := d.cache[line]; ok && cached.Number == line && cached.Text == text {
		return cached
	}
	l := d.computeLine(line, text)
	d.cache[line] = l
	return l
}

func (d *Document) computeLine(line int, text string) *Line {
	length := runeLen(text)
	leading, total := leadingWhitespaceWidth(text)
	rng := Range{
		Start: Position{Line: line},
		End:   Position{Line: line, Character: length},
	}
	withBreak := rng
	if line < d.source.LineCount()-1 {
		withBreak.End = Position{Line: line + 1}
	}
	return &Line{
		Number:                           line,
		Text:                             text,
		Range:                            rng,
		RangeIncludingLineBreak:          withBreak,
		FirstNonWhitespaceCharacterIndex: leading,
		IsEmptyOrWhitespace:              leading == total,
	}
}

// Words

// WordRangeAt returns the range of the word under p, if any. A nil
// pattern selects the language default; patterns prone to catastrophic
// backtracking are replaced by the default as well. The position is
// validated first.
func (d *Document) WordRangeAt(p Position, re *regexp.Regexp) (Range, bool, error) {
	if re == nil || words.Backtracks(re.String()) {
		re = d.languagePattern()
	}
	re, err := words.EnsureDefinition(re)
	if err != nil {
		return Range{}, false, fmt.Errorf("%w: %v", ErrInvalidWordPattern, err)
	}
	v := d.ValidatePosition(p)
	start, end, ok := words.At(d.source.LineText(v.Line), v.Character, re)
	if !ok {
		return Range{}, false, nil
	}
	return Range{
		Start: Position{Line: v.Line, Character: start},
		End:   Position{Line: v.Line, Character: end},
	}, true, nil
}

// WordPattern returns the word definition the document resolves for its
// language: the registered pattern when one exists, the default otherwise.
func (d *Document) WordPattern() *regexp.Regexp {
	return d.languagePattern()
}

func (d *Document) languagePattern() *regexp.Regexp {
	if d.patterns != nil {
		if re, ok := d.patterns.Lookup(d.language); ok {
			return re
		}
	}
	return words.Default()
}

// Comparison

// EqualLines reports whether the document content equals candidate,
// compared line by line with ordinal string comparison.
func (d *Document) EqualLines(candidate []string) bool {
	n := d.source.LineCount()
	if len(candidate) != n {
		return false
	}
	for i := 0; i < n; i++ {
		if d.source.LineText(i) != candidate[i] {
			return false
		}
	}
	return true
}

// Dispose releases cached line descriptors and clears the dirty flag.
// Calling Dispose more than once is harmless.
func (d *Document) Dispose() {
	clear(d.cache)
	d.dirty = false
}
