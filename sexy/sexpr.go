package sexy

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeFloat
	NodeList
	NodeMap
)

func (t NodeType) String() string {
	switch t {
	case NodeSymbol:
		return "symbol"
	case NodeString:
		return "string"
	case NodeInteger:
		return "integer"
	case NodeFloat:
		return "float"
	case NodeList:
		return "list"
	case NodeMap:
		return "map"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Node represents any Sexy datum.
type Node struct {
	Type NodeType

	// Atoms
	Text string // NodeSymbol, NodeString, NodeInteger, NodeFloat

	// Collections
	Items []*Node  // NodeList, NodeMap
	Keys  []string // NodeMap - parallel to Items

	// Metadata for NodeList - stored as parallel slices like maps
	MetaKeys  []string
	MetaItems []*Node

	// 1-based position of the first character of the datum; zero when
	// the node was built in memory.
	Line int
	Col  int
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger, NodeFloat:
		return n.Text
	case NodeString:
		return Quote(n.Text)
	case NodeList:
		var parts []string
		if len(n.MetaKeys) > 0 {
			var metaParts []string
			for i, key := range n.MetaKeys {
				if i < len(n.MetaItems) {
					metaParts = append(metaParts, fmt.Sprintf("%s: %s", key, n.MetaItems[i].String()))
				}
			}
			parts = append(parts, fmt.Sprintf("^{%s}", strings.Join(metaParts, ", ")))
		}
		for _, item := range n.Items {
			parts = append(parts, item.String())
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, " "))
	case NodeMap:
		var parts []string
		for i, key := range n.Keys {
			if i < len(n.Items) {
				parts = append(parts, fmt.Sprintf("%s: %s", key, n.Items[i].String()))
			}
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

// Quote renders s as a Sexy string literal.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Helper constructors for common node types
func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewFloat(text string) *Node {
	return &Node{Type: NodeFloat, Text: text}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

func NewMap(keys []string, items []*Node) *Node {
	return &Node{Type: NodeMap, Keys: keys, Items: items}
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type == NodeSymbol || n.Type == NodeString || n.Type == NodeInteger || n.Type == NodeFloat
}

// Head returns the symbol in the first position of a list, or "" when the
// node is not a list headed by a symbol.
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Meta returns the metadata value stored under key, or nil.
func (n *Node) Meta(key string) *Node {
	for i, k := range n.MetaKeys {
		if k == key && i < len(n.MetaItems) {
			return n.MetaItems[i]
		}
	}
	return nil
}

type parser struct {
	lexer        *lexer
	currentToken token
	peekToken    token
}

// Parse parses the entire input and returns the top-level datum
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()
	p.nextToken()

	result, err := p.ParseDatum()
	if len(p.lexer.errors) > 0 {
		// Lexer errors take priority because they might cause confusing parser errors.
		return nil, fmt.Errorf("%s", p.lexer.errors[0])
	}
	if err != nil {
		return nil, err
	}

	if p.currentToken.Type != tokenEOF {
		return nil, fmt.Errorf("%d:%d: expected EOF but got %s", p.currentToken.Line, p.currentToken.Col, p.currentToken.Type)
	}

	return result, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.peekToken
	p.peekToken = p.lexer.nextToken()
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%d:%d: %s", p.currentToken.Line, p.currentToken.Col, fmt.Sprintf(format, args...))
}

func (p *parser) ParseDatum() (*Node, error) {
	tok := p.currentToken
	var node *Node
	switch tok.Type {
	case tokenSymbol:
		node = NewSymbol(tok.Value)
		p.nextToken()
	case tokenString:
		node = NewString(tok.Value)
		p.nextToken()
	case tokenInteger:
		node = NewInteger(tok.Value)
		p.nextToken()
	case tokenFloat:
		node = NewFloat(tok.Value)
		p.nextToken()
	case tokenLParen:
		list, err := p.parseList()
		if err != nil {
			return nil, err
		}
		node = list
	case tokenLBrace:
		m, err := p.parseMap()
		if err != nil {
			return nil, err
		}
		node = m
	default:
		return nil, p.errorf("unexpected token: %s", tok.Type)
	}
	node.Line, node.Col = tok.Line, tok.Col
	return node, nil
}

func (p *parser) parseList() (*Node, error) {
	var items []*Node
	var metaKeys []string
	var metaItems []*Node
	p.nextToken() // consume '('

	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		if p.currentToken.Type != tokenCaret {
			item, err := p.ParseDatum()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			continue
		}

		p.nextToken() // consume '^'
		if p.currentToken.Type != tokenLBrace {
			return nil, p.errorf("expected '{' after '^' but got %s", p.currentToken.Type)
		}
		meta, err := p.parseMap()
		if err != nil {
			return nil, err
		}
		// Later values win.
		for i, key := range meta.Keys {
			found := false
			for j, existingKey := range metaKeys {
				if existingKey == key {
					metaItems[j] = meta.Items[i]
					found = true
					break
				}
			}
			if !found {
				metaKeys = append(metaKeys, key)
				metaItems = append(metaItems, meta.Items[i])
			}
		}
	}

	if p.currentToken.Type != tokenRParen {
		return nil, p.errorf("expected ')' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume ')'

	return &Node{Type: NodeList, Items: items, MetaKeys: metaKeys, MetaItems: metaItems}, nil
}

func (p *parser) parseMap() (*Node, error) {
	p.nextToken() // consume '{'

	var keys []string
	var items []*Node
	for p.currentToken.Type != tokenRBrace && p.currentToken.Type != tokenEOF {
		if p.currentToken.Type != tokenSymbol {
			return nil, p.errorf("expected symbol for map key but got %s", p.currentToken.Type)
		}
		keys = append(keys, p.currentToken.Value)
		p.nextToken()

		if p.currentToken.Type != tokenColon {
			return nil, p.errorf("expected ':' after map key but got %s", p.currentToken.Type)
		}
		p.nextToken()

		value, err := p.ParseDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, value)

		if p.currentToken.Type == tokenComma {
			p.nextToken()
		} else if p.currentToken.Type != tokenRBrace {
			return nil, p.errorf("expected ',' or '}' in map but got %s", p.currentToken.Type)
		}
	}

	if p.currentToken.Type != tokenRBrace {
		return nil, p.errorf("expected '}' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume '}'

	return NewMap(keys, items), nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenFloat
	tokenLParen
	tokenRParen
	tokenLBrace
	tokenRBrace
	tokenColon
	tokenComma
	tokenCaret
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenInteger:
		return "integer"
	case tokenFloat:
		return "float"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenLBrace:
		return "'{'"
	case tokenRBrace:
		return "'}'"
	case tokenColon:
		return "':'"
	case tokenComma:
		return "','"
	case tokenCaret:
		return "'^'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type  tokenType
	Value string
	Line  int
	Col   int
}

type lexer struct {
	input    []rune
	position int // index of the rune after current
	current  rune
	line     int
	col      int
	errors   []string
}

func newLexer(input string) *lexer {
	l := &lexer{input: []rune(input), line: 1}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.current == '\n' {
		l.line++
		l.col = 0
	}
	if l.position >= len(l.input) {
		l.current = 0
	} else {
		l.current = l.input[l.position]
	}
	l.position++
	l.col++
}

func (l *lexer) peekChar() rune {
	if l.position >= len(l.input) {
		return 0
	}
	return l.input[l.position]
}

func (l *lexer) errorf(line, col int, format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf("%d:%d: %s", line, col, fmt.Sprintf(format, args...)))
}

func (l *lexer) skipWhitespace() {
	for unicode.IsSpace(l.current) {
		l.readChar()
	}
}

func (l *lexer) skipComment() {
	for l.current != '\n' && l.current != '\r' && l.current != 0 {
		l.readChar()
	}
}

func (l *lexer) readSymbol() string {
	start := l.position - 1
	for isSymbolChar(l.current) {
		l.readChar()
	}
	return string(l.input[start : l.position-1])
}

func (l *lexer) readString() (string, bool) {
	var b strings.Builder
	l.readChar() // skip opening quote

	for l.current != '"' && l.current != 0 {
		if l.current == '\\' {
			l.readChar()
			switch l.current {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				l.errorf(l.line, l.col, "invalid escape sequence: \\%c", l.current)
				return "", false
			}
		} else {
			b.WriteRune(l.current)
		}
		l.readChar()
	}

	if l.current != '"' {
		l.errorf(l.line, l.col, "unterminated string")
		return "", false
	}
	l.readChar() // skip closing quote

	return b.String(), true
}

// readNumber reads an optionally signed decimal integer or float.
func (l *lexer) readNumber() (string, tokenType) {
	start := l.position - 1
	typ := tokenInteger
	if l.current == '+' || l.current == '-' {
		l.readChar()
	}
	for unicode.IsDigit(l.current) {
		l.readChar()
	}
	if l.current == '.' && unicode.IsDigit(l.peekChar()) {
		typ = tokenFloat
		l.readChar()
		for unicode.IsDigit(l.current) {
			l.readChar()
		}
	}
	if l.current == 'e' || l.current == 'E' {
		next := l.peekChar()
		if unicode.IsDigit(next) || next == '+' || next == '-' {
			typ = tokenFloat
			l.readChar()
			if l.current == '+' || l.current == '-' {
				l.readChar()
			}
			for unicode.IsDigit(l.current) {
				l.readChar()
			}
		}
	}
	return string(l.input[start : l.position-1]), typ
}

func (l *lexer) nextToken() token {
	for {
		l.skipWhitespace()

		line, col := l.line, l.col
		single := func(typ tokenType) token {
			value := string(l.current)
			l.readChar()
			return token{Type: typ, Value: value, Line: line, Col: col}
		}

		switch l.current {
		case 0:
			return token{Type: tokenEOF, Line: line, Col: col}
		case ';':
			l.skipComment()
			continue
		case '(':
			return single(tokenLParen)
		case ')':
			return single(tokenRParen)
		case '{':
			return single(tokenLBrace)
		case '}':
			return single(tokenRBrace)
		case ':':
			return single(tokenColon)
		case ',':
			return single(tokenComma)
		case '^':
			return single(tokenCaret)
		case '"':
			str, ok := l.readString()
			if !ok {
				return token{Type: tokenEOF, Line: line, Col: col}
			}
			return token{Type: tokenString, Value: str, Line: line, Col: col}
		default:
			if isSymbolStart(l.current) {
				return token{Type: tokenSymbol, Value: l.readSymbol(), Line: line, Col: col}
			}
			if unicode.IsDigit(l.current) || l.current == '+' || l.current == '-' {
				if (l.current == '+' || l.current == '-') && !unicode.IsDigit(l.peekChar()) {
					// Single + or - is a symbol
					return token{Type: tokenSymbol, Value: l.readSymbol(), Line: line, Col: col}
				}
				text, typ := l.readNumber()
				return token{Type: typ, Value: text, Line: line, Col: col}
			}
			l.errorf(line, col, "unexpected character '%c'", l.current)
			return token{Type: tokenEOF, Line: line, Col: col}
		}
	}
}

func isSymbolStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isSymbolChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '+'
}
