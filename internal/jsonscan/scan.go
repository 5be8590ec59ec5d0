// Package jsonscan locates complete JSON values inside arbitrary text using
// string/escape-aware bracket-depth counting. It is internal and should not be
// imported by external projects.
package jsonscan

// BalancedSpan returns the index one past the closing bracket of the JSON
// value opening at s[start], which must be '{' or '['. Quotes and backslash
// escapes inside string values do not affect the depth, so braces embedded in
// string content never terminate a span early. ok is false when the value is
// still incomplete at the end of s.
func BalancedSpan(s string, start int) (end int, ok bool) {
	if start >= len(s) {
		return 0, false
	}
	open := s[start]
	if open != '{' && open != '[' {
		return 0, false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// LineCol converts a byte offset into a 1-based line and column, for
// attaching source positions to extraction and syntax errors.
func LineCol(s string, offset int) (line, col int) {
	line, col = 1, 1
	if offset > len(s) {
		offset = len(s)
	}
	for i := 0; i < offset; i++ {
		if s[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
