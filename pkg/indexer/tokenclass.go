package indexer

import "github.com/gnana997/codeindex/pkg/graph"

// Token is one identifier-shaped occurrence found outside a comment or
// string literal, at a 0-based line/character position. Character offsets
// count runes on the line, which is an approximation of the UTF-16
// convention the rest of the graph uses but is exact for the ASCII
// identifiers this scanner is built to find.
type Token struct {
	Name string
	Pos  graph.Position
}

// scanState tracks what kind of literal, if any, the scanner is currently
// inside of.
type scanState int

const (
	stateCode scanState = iota
	stateLineComment
	stateBlockComment
	stateString
)

// ClassifyIdentifiers scans content and returns every identifier-shaped
// token (letters, digits, underscore, not starting with a digit) that
// lies outside a line comment, block comment, or string/char literal —
// the "comment/string predicate" the References step needs (spec.md §4.D,
// §9). commentSyntax varies the comment syntax per language since Python has no block-comment syntax and uses "#" where
// the C-family languages use "//".
func ClassifyIdentifiers(content []byte, lang string) []Token {
	lineCommentPrefix, hasBlockComments := commentSyntax(lang)

	var tokens []Token
	var line, char uint32
	state := stateCode
	var quote byte

	runes := []rune(string(content))
	n := len(runes)

	advance := func(r rune) {
		if r == '\n' {
			line++
			char = 0
		} else {
			char++
		}
	}

	for i := 0; i < n; i++ {
		r := runes[i]

		switch state {
		case stateLineComment:
			if r == '\n' {
				state = stateCode
			}
			advance(r)
			continue
		case stateBlockComment:
			if r == '*' && i+1 < n && runes[i+1] == '/' {
				advance(r)
				i++
				advance(runes[i])
				state = stateCode
				continue
			}
			advance(r)
			continue
		case stateString:
			if r == '\\' && i+1 < n {
				advance(r)
				i++
				advance(runes[i])
				continue
			}
			if byte(r) == quote {
				state = stateCode
			}
			advance(r)
			continue
		}

		// stateCode: look for comment/string openers first.
		if lineCommentPrefix != "" && matchesAt(runes, i, lineCommentPrefix) {
			state = stateLineComment
			for range lineCommentPrefix {
				advance(runes[i])
				i++
			}
			i--
			continue
		}
		if hasBlockComments && r == '/' && i+1 < n && runes[i+1] == '*' {
			advance(r)
			i++
			advance(runes[i])
			state = stateBlockComment
			continue
		}
		if r == '"' || r == '\'' || r == '`' {
			state = stateString
			quote = byte(r)
			advance(r)
			continue
		}

		if isIdentStart(r) {
			startLine, startChar := line, char
			start := i
			for i < n && isIdentPart(runes[i]) {
				advance(runes[i])
				i++
			}
			tokens = append(tokens, Token{
				Name: string(runes[start:i]),
				Pos:  graph.Position{Line: startLine, Character: startChar},
			})
			i--
			continue
		}

		advance(r)
	}

	return tokens
}

func matchesAt(runes []rune, i int, prefix string) bool {
	pr := []rune(prefix)
	if i+len(pr) > len(runes) {
		return false
	}
	for j, c := range pr {
		if runes[i+j] != c {
			return false
		}
	}
	return true
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

// commentSyntax returns the line-comment prefix and whether the language
// supports C-style block comments.
func commentSyntax(lang string) (linePrefix string, blockComments bool) {
	switch lang {
	case "python":
		return "#", false
	case "go", "rust", "typescript", "javascript":
		return "//", true
	default:
		return "//", true
	}
}
