package query

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError is returned for any malformed pattern string. It carries the
// byte offset of the failure so a caller (CLI, MCP tool) can point a user
// at the exact character, per spec.md §7's "Invalid input" family: a parse
// failure never mutates any state, it only reports.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("query: parse error at offset %d: %s", e.Pos, e.Message)
}

// parser is a hand-written recursive-descent reader over the small pattern
// grammar of spec.md §4.Q. The grammar has exactly five productions, too
// small to warrant a parser-combinator or PEG dependency.
type parser struct {
	src string
	pos int
}

// Parse reads a pattern string of the form "(n1)-[:KIND]->(n2)..." and
// returns its structured Pattern, or a *ParseError on malformed input. An
// empty string is always an error (spec.md §8 boundary behavior).
func Parse(src string) (*Pattern, error) {
	p := &parser{src: src}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, &ParseError{Pos: 0, Message: "empty pattern"}
	}

	pat := &Pattern{}
	node, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	pat.Nodes = append(pat.Nodes, node)

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			break
		}
		rel, err := p.parseRel()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		node, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		pat.Rels = append(pat.Rels, rel)
		pat.Nodes = append(pat.Nodes, node)
	}

	return pat, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) errf(format string, args ...interface{}) error {
	return &ParseError{Pos: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(c byte) error {
	if p.pos >= len(p.src) || p.src[p.pos] != c {
		return p.errf("expected %q", c)
	}
	p.pos++
	return nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *parser) readIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// parseNode reads "(" [var] [":" label] ")".
func (p *parser) parseNode() (NodePattern, error) {
	p.skipSpace()
	if err := p.expect('('); err != nil {
		return NodePattern{}, p.errf("expected node starting with '('")
	}
	p.skipSpace()

	var n NodePattern
	if p.pos < len(p.src) && isIdentStart(p.src[p.pos]) {
		n.Var = p.readIdent()
	}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ':' {
		p.pos++
		p.skipSpace()
		if p.pos >= len(p.src) || !isIdentStart(p.src[p.pos]) {
			return NodePattern{}, p.errf("expected label after ':'")
		}
		n.Label = p.readIdent()
	}
	p.skipSpace()
	if err := p.expect(')'); err != nil {
		return NodePattern{}, p.errf("expected ')' to close node")
	}
	return n, nil
}

// parseRel reads one relationship hop in any of its forms:
//
//	-->   <--   --   -[:KIND]->   <-[:KIND]-   -[:KIND]-   -[:KIND*N..M]->
func (p *parser) parseRel() (RelPattern, error) {
	rel := RelPattern{Depth: DepthRange{Min: 1, Max: 1}}

	leftArrow := false
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		leftArrow = true
		p.pos++
	}
	if err := p.expect('-'); err != nil {
		return RelPattern{}, p.errf("expected '-' to start relationship")
	}

	if p.pos < len(p.src) && p.src[p.pos] == '[' {
		p.pos++
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == ':' {
			p.pos++
			p.skipSpace()
			if p.pos >= len(p.src) || !isIdentStart(p.src[p.pos]) {
				return RelPattern{}, p.errf("expected edge kind after ':'")
			}
			rel.EdgeKind = p.readIdent()
		}
		if p.pos < len(p.src) && p.src[p.pos] == '*' {
			p.pos++
			depth, err := p.parseDepth()
			if err != nil {
				return RelPattern{}, err
			}
			rel.Depth = depth
		}
		p.skipSpace()
		if err := p.expect(']'); err != nil {
			return RelPattern{}, p.errf("expected ']' to close relationship detail")
		}
	}

	if err := p.expect('-'); err != nil {
		return RelPattern{}, p.errf("expected '-' to end relationship")
	}

	rightArrow := false
	if p.pos < len(p.src) && p.src[p.pos] == '>' {
		rightArrow = true
		p.pos++
	}

	switch {
	case leftArrow && rightArrow:
		return RelPattern{}, p.errf("relationship cannot point both directions")
	case leftArrow:
		rel.Dir = DirBackward
	case rightArrow:
		rel.Dir = DirForward
	default:
		rel.Dir = DirEither
	}
	return rel, nil
}

// parseDepth reads the portion after '*': an empty depth (unbounded, at
// least one hop), an exact integer, or an "N..M" / "N.." range.
func (p *parser) parseDepth() (DepthRange, error) {
	if p.pos >= len(p.src) || !isDigit(p.src[p.pos]) {
		return DepthRange{Min: 1, Max: unboundedMax}, nil
	}
	startNum := p.readInt()

	if p.pos+1 < len(p.src) && p.src[p.pos] == '.' && p.src[p.pos+1] == '.' {
		p.pos += 2
		if p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			endNum := p.readInt()
			return DepthRange{Min: startNum, Max: endNum}, nil
		}
		return DepthRange{Min: startNum, Max: unboundedMax}, nil
	}
	return DepthRange{Min: startNum, Max: startNum}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *parser) readInt() int {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	n, _ := strconv.Atoi(p.src[start:p.pos])
	return n
}

// String renders pat back to its textual form, used in error messages and
// debug logging.
func (pat *Pattern) String() string {
	var sb strings.Builder
	for i, n := range pat.Nodes {
		sb.WriteByte('(')
		if n.Var != "" {
			sb.WriteString(n.Var)
		}
		if n.Label != "" {
			sb.WriteByte(':')
			sb.WriteString(n.Label)
		}
		sb.WriteByte(')')
		if i < len(pat.Rels) {
			rel := pat.Rels[i]
			if rel.Dir == DirBackward {
				sb.WriteByte('<')
			}
			sb.WriteByte('-')
			if rel.EdgeKind != "" {
				sb.WriteByte('[')
				sb.WriteByte(':')
				sb.WriteString(rel.EdgeKind)
				sb.WriteByte(']')
			}
			sb.WriteByte('-')
			if rel.Dir == DirForward {
				sb.WriteByte('>')
			}
		}
	}
	return sb.String()
}
