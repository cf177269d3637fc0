package compiler

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for one line of KBJ assembly
// ---------------------------------------------------------------------------

// Lexer tokenizes a single source line. Statements never span lines, so
// the compiler creates one Lexer per line.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // line number reported in positions
	col     int  // current column (1-based)
}

// NewLexer creates a new lexer for the given line.
func NewLexer(input string, line int) *Lexer {
	l := &Lexer{
		input: input,
		line:  line,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		l.col++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
	l.col++
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.col}
}

// NextToken returns the next token. A '#' outside a string starts a
// comment that runs to the end of the line.
func (l *Lexer) NextToken() Token {
	for unicode.IsSpace(l.ch) {
		l.readChar()
	}

	pos := l.position()

	switch {
	case l.ch == 0 || l.ch == '#':
		return Token{Type: TokenEOF, Pos: pos}

	case l.ch == '=':
		l.readChar()
		return Token{Type: TokenEquals, Literal: "=", Pos: pos}

	case l.ch == '"':
		return l.readString(pos)

	case isDigit(l.ch):
		return l.readNumber(pos)

	case isWordStart(l.ch):
		return l.readWord(pos)
	}

	ch := l.ch
	l.readChar()
	return Token{Type: TokenError, Literal: "unexpected character " + string(ch), Pos: pos}
}

// readString reads a double-quoted string. \" and \\ are the only escapes.
func (l *Lexer) readString(pos Position) Token {
	l.readChar() // consume opening "

	var sb strings.Builder
	for l.ch != 0 && l.ch != '"' {
		if l.ch == '\\' && (l.peekChar() == '"' || l.peekChar() == '\\') {
			l.readChar() // consume backslash
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}

	if l.ch != '"' {
		return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
	}
	l.readChar() // consume closing "

	return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
}

func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if isWordChar(l.ch) {
		for isWordChar(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenError, Literal: "malformed number " + l.input[start:l.pos], Pos: pos}
	}
	return Token{Type: TokenInteger, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *Lexer) readWord(pos Position) Token {
	start := l.pos
	for isWordChar(l.ch) {
		l.readChar()
	}
	return Token{Type: TokenWord, Literal: l.input[start:l.pos], Pos: pos}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isWordStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isWordChar(r rune) bool {
	return isWordStart(r) || isDigit(r)
}

// Tokenize returns all tokens from the line, ending with EOF or the first
// error.
func Tokenize(input string, line int) []Token {
	l := NewLexer(input, line)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return tokens
}
