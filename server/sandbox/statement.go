package sandbox

import "strings"

// hasTrailingStatement reports whether query holds anything besides
// comments, whitespace and semicolons after its first statement ends.
// Quoted strings and identifiers are skipped, so a ';' inside them does not
// end the statement.
func hasTrailingStatement(query string) bool {
	ended := false
	for i := 0; i < len(query); {
		c := query[i]
		switch {
		case c == '-' && strings.HasPrefix(query[i:], "--"):
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				return false
			}
			i += end + 1
			continue
		case c == '/' && strings.HasPrefix(query[i:], "/*"):
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				return false
			}
			i += 2 + end + 2
			continue
		case c == ';':
			ended = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
		default:
			if ended {
				return true
			}
			if closing, ok := quoteClose(c); ok {
				end := strings.IndexByte(query[i+1:], closing)
				if end < 0 {
					return false
				}
				i += 1 + end + 1
				continue
			}
		}
		i++
	}
	return false
}

// quoteClose returns the byte ending a quoted section SQLite opens with c
func quoteClose(c byte) (byte, bool) {
	switch c {
	case '\'', '"', '`':
		return c, true
	case '[':
		return ']', true
	}
	return 0, false
}
