// Package words defines what a "word" is for boundary lookups: a registry
// of per-language word patterns, a safety heuristic that rejects patterns
// whose structure invites runaway backtracking, and a bounded scanner that
// finds the word touching a column.
package words

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"sync"
)

// Errors returned by word definition checks.
var (
	ErrNeverMatches = errors.New("word pattern can never match a non-empty span")
	ErrUnsafe       = errors.New("word pattern risks runaway backtracking")
)

// DefaultPattern matches runs of letters, digits, and underscores. It is the
// word definition used when a language has no registered pattern.
const DefaultPattern = `[\p{L}\p{N}_]+`

var defaultRegexp = regexp.MustCompile(DefaultPattern)

// Default returns the shared fallback word pattern.
func Default() *regexp.Regexp {
	return defaultRegexp
}

// Registry holds word patterns by language identifier. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{patterns: make(map[string]*regexp.Regexp)}
}

// Register compiles pattern and stores it for languageID. Patterns that
// cannot match a non-empty span or that fail the backtracking heuristic are
// rejected, so a registry never hands out a definition the scanner would
// have to substitute.
func (r *Registry) Register(languageID, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("word pattern for %s: %w", languageID, err)
	}
	if Backtracks(pattern) {
		return fmt.Errorf("word pattern for %s: %w", languageID, ErrUnsafe)
	}
	if _, err := EnsureDefinition(re); err != nil {
		return fmt.Errorf("word pattern for %s: %w", languageID, err)
	}
	r.mu.Lock()
	r.patterns[languageID] = re
	r.mu.Unlock()
	return nil
}

// Lookup returns the pattern registered for languageID.
func (r *Registry) Lookup(languageID string) (*regexp.Regexp, bool) {
	r.mu.RLock()
	re, ok := r.patterns[languageID]
	r.mu.RUnlock()
	return re, ok
}

// Languages returns the registered language identifiers.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.patterns))
	for id := range r.patterns {
		out = append(out, id)
	}
	return out
}

// EnsureDefinition validates re as a word definition: it must be able to
// match at least one non-empty span. A nil re yields the default pattern.
func EnsureDefinition(re *regexp.Regexp) (*regexp.Regexp, error) {
	if re == nil {
		return defaultRegexp, nil
	}
	parsed, err := syntax.Parse(re.String(), syntax.Perl)
	if err != nil {
		return nil, err
	}
	if !canMatchNonEmpty(parsed) {
		return nil, fmt.Errorf("%w: %q", ErrNeverMatches, re.String())
	}
	return re, nil
}
