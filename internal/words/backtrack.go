package words

import "regexp/syntax"

// Backtracks reports whether pattern's structure allows unbounded
// repeated-group backtracking: an unbounded quantifier nested inside
// another, or an unbounded quantifier over an operand that can match the
// empty string. The judgment is static over the parsed pattern, never an
// execution probe, so flagged patterns are replaced deterministically.
// Unparseable patterns are reported as unsafe.
func Backtracks(pattern string) bool {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return true
	}
	return nestedUnbounded(re, false)
}

func nestedUnbounded(re *syntax.Regexp, inUnbounded bool) bool {
	unbounded := false
	switch re.Op {
	case syntax.OpStar, syntax.OpPlus:
		unbounded = true
	case syntax.OpRepeat:
		unbounded = re.Max < 0
	}
	if unbounded {
		if inUnbounded {
			return true
		}
		for _, sub := range re.Sub {
			if canMatchEmpty(sub) {
				return true
			}
		}
		inUnbounded = true
	}
	for _, sub := range re.Sub {
		if nestedUnbounded(sub, inUnbounded) {
			return true
		}
	}
	return false
}

// canMatchEmpty reports whether re can match the empty string.
func canMatchEmpty(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpEmptyMatch,
		syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary,
		syntax.OpStar, syntax.OpQuest:
		return true
	case syntax.OpLiteral:
		return len(re.Rune) == 0
	case syntax.OpCharClass, syntax.OpAnyChar, syntax.OpAnyCharNotNL, syntax.OpNoMatch:
		return false
	case syntax.OpPlus:
		return canMatchEmpty(re.Sub[0])
	case syntax.OpRepeat:
		return re.Min == 0 || canMatchEmpty(re.Sub[0])
	case syntax.OpCapture:
		return canMatchEmpty(re.Sub[0])
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if !canMatchEmpty(sub) {
				return false
			}
		}
		return true
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if canMatchEmpty(sub) {
				return true
			}
		}
		return false
	}
	return false
}

// canMatch reports whether re can match any string at all.
func canMatch(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpNoMatch:
		return false
	case syntax.OpCharClass:
		return len(re.Rune) > 0
	case syntax.OpStar, syntax.OpQuest:
		return true
	case syntax.OpPlus, syntax.OpCapture:
		return canMatch(re.Sub[0])
	case syntax.OpRepeat:
		return re.Min == 0 || canMatch(re.Sub[0])
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if !canMatch(sub) {
				return false
			}
		}
		return true
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if canMatch(sub) {
				return true
			}
		}
		return false
	}
	return true
}

// canMatchNonEmpty reports whether re can match some non-empty span.
func canMatchNonEmpty(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpLiteral:
		return len(re.Rune) > 0
	case syntax.OpCharClass:
		return len(re.Rune) > 0
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return true
	case syntax.OpStar, syntax.OpQuest, syntax.OpPlus, syntax.OpCapture:
		return canMatchNonEmpty(re.Sub[0])
	case syntax.OpRepeat:
		return re.Max != 0 && canMatchNonEmpty(re.Sub[0])
	case syntax.OpConcat:
		any := false
		for _, sub := range re.Sub {
			if !canMatch(sub) {
				return false
			}
			if canMatchNonEmpty(sub) {
				any = true
			}
		}
		return any
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if canMatchNonEmpty(sub) {
				return true
			}
		}
		return false
	}
	return false
}
