package mysql

import (
	"regexp"
	"strings"
)

var charsetPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

func validCharset(name string) bool {
	return charsetPattern.MatchString(name)
}

// rowKeywords are the leading keywords of statements that produce a result set.
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
	"WITH":     true,
	"VALUES":   true,
	"TABLE":    true,
	"CALL":     true,
	"CHECK":    true,
	"ANALYZE":  true,
	"HELP":     true,
}

// isRowProducing reports whether query returns rows, judged by its first keyword.
func isRowProducing(query string) bool {
	return rowKeywords[leadingKeyword(query)]
}

func leadingKeyword(query string) string {
	q := query
	for {
		q = strings.TrimLeft(q, " \t\r\n(")
		switch {
		case strings.HasPrefix(q, "/*"):
			end := strings.Index(q, "*/")
			if end < 0 {
				return ""
			}
			q = q[end+2:]
		case strings.HasPrefix(q, "--"), strings.HasPrefix(q, "#"):
			end := strings.IndexByte(q, '\n')
			if end < 0 {
				return ""
			}
			q = q[end+1:]
		default:
			end := strings.IndexFunc(q, func(r rune) bool {
				return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
			})
			if end < 0 {
				end = len(q)
			}
			return strings.ToUpper(q[:end])
		}
	}
}
