// Package similarity detects near-duplicate logic across units using
// token-normalized shingle comparison.
package similarity

import "regexp"

// Normalized token classes. Identifiers, string literals, and numeric
// literals collapse so that renamed copies of the same logic compare
// equal token-for-token.
const (
	tokVar = "_VAR"
	tokStr = "_STR"
	tokNum = "_NUM"
)

// tokenPattern matches, in priority order: string literals, numeric
// literals, identifiers, and single punctuation characters. Everything
// else (whitespace, comments markers in isolation) is dropped.
var tokenPattern = regexp.MustCompile(
	`"[^"]*"|'[^']*'|` + "`[^`]*`" +
		`|\b\d+\.?\d*\b|\b[a-zA-Z_$]\w*\b|[{}()\[\];,.:?!<>=+\-*/&|^~%@]`)

// keywords pass through the normalizer verbatim; they carry the shape
// of the logic.
var keywords = map[string]bool{
	"const": true, "let": true, "var": true, "function": true,
	"return": true, "if": true, "else": true, "for": true, "while": true,
	"do": true, "switch": true, "case": true, "break": true,
	"continue": true, "try": true, "catch": true, "finally": true,
	"throw": true, "new": true, "delete": true, "typeof": true,
	"instanceof": true, "in": true, "of": true, "class": true,
	"extends": true, "super": true, "this": true, "import": true,
	"export": true, "default": true, "from": true, "async": true,
	"await": true, "yield": true, "true": true, "false": true,
	"null": true, "undefined": true, "void": true,
}

// Tokenize splits source into a normalized token stream. Two copies of
// the same logic with different identifier names, string contents, or
// numeric constants tokenize identically.
func Tokenize(source string) []string {
	matches := tokenPattern.FindAllString(source, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		switch c := m[0]; {
		case c == '"' || c == '\'' || c == '`':
			tokens = append(tokens, tokStr)
		case c >= '0' && c <= '9':
			tokens = append(tokens, tokNum)
		case keywords[m]:
			tokens = append(tokens, m)
		case isIdentStart(c):
			tokens = append(tokens, tokVar)
		default:
			tokens = append(tokens, m)
		}
	}
	return tokens
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
