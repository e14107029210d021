package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/funvibe/logex/internal/diagnostics"
	"github.com/funvibe/logex/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
	peeked       *token.Token
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// readChar advances one rune. Multi-byte glyphs count as one column.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) atEnd() bool { return l.position >= len(l.input) }

// NextToken returns the next token, consuming a previously peeked one first.
func (l *Lexer) NextToken() token.Token {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok
	}
	return l.scan()
}

// PeekToken returns the next token without consuming it.
func (l *Lexer) PeekToken() token.Token {
	if l.peeked == nil {
		tok := l.scan()
		l.peeked = &tok
	}
	return *l.peeked
}

func (l *Lexer) scan() token.Token {
	l.skipWhitespace()

	line, col := l.line, l.column
	if l.atEnd() {
		return token.Token{Type: token.EOF, Line: line, Column: col}
	}

	var tok token.Token
	switch l.ch {
	case '\n':
		tok = newToken(token.NEWLINE, l.ch, line, col)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, line, col)
	case '=':
		tok = l.either('=', token.EQ, token.ASSIGN, line, col)
	case '!':
		tok = l.either('=', token.NOT_EQ, token.BANG, line, col)
	case '*':
		tok = l.either('*', token.POWER, token.ASTERISK, line, col)
	case '<':
		switch l.peekChar() {
		case '=':
			tok = l.pair(token.LTE, line, col)
		case '<':
			tok = l.pair(token.LSHIFT, line, col)
		default:
			tok = newToken(token.LT, l.ch, line, col)
		}
	case '>':
		switch l.peekChar() {
		case '=':
			tok = l.pair(token.GTE, line, col)
		case '>':
			tok = l.pair(token.RSHIFT, line, col)
		default:
			tok = newToken(token.GT, l.ch, line, col)
		}
	case '+':
		tok = newToken(token.PLUS, l.ch, line, col)
	case '-':
		tok = newToken(token.MINUS, l.ch, line, col)
	case '/':
		tok = newToken(token.SLASH, l.ch, line, col)
	case '%':
		tok = newToken(token.PERCENT, l.ch, line, col)
	case '^':
		tok = newToken(token.CARET, l.ch, line, col)
	case '|':
		tok = newToken(token.PIPE, l.ch, line, col)
	case '&':
		tok = newToken(token.AMPERSAND, l.ch, line, col)
	case '~':
		tok = newToken(token.TILDE, l.ch, line, col)
	case '(':
		tok = newToken(token.LPAREN, l.ch, line, col)
	case ')':
		tok = newToken(token.RPAREN, l.ch, line, col)
	case ',':
		tok = newToken(token.COMMA, l.ch, line, col)
	case ':':
		tok = newToken(token.COLON, l.ch, line, col)
	case '→':
		tok = newToken(token.IMPLIES, l.ch, line, col)
	case '↔':
		tok = newToken(token.IFF, l.ch, line, col)
	case '⊽':
		tok = newToken(token.XOR, l.ch, line, col)
	case '"':
		return l.readString(line, col)
	default:
		switch {
		case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
			return l.readNumber(line, col)
		case l.ch == 'B' && (l.peekChar() == '0' || l.peekChar() == '1'):
			return l.readBitmap(line, col)
		case isLetter(l.ch):
			ident := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(ident), Lexeme: ident, Literal: ident, Line: line, Column: col}
		}
		tok = newToken(token.ILLEGAL, l.ch, line, col)
		tok.Literal = diagnostics.ErrL001
	}

	l.readChar()
	return tok
}

// either emits double when the next char is next, single otherwise.
func (l *Lexer) either(next rune, double, single token.TokenType, line, col int) token.Token {
	if l.peekChar() == next {
		return l.pair(double, line, col)
	}
	return newToken(single, l.ch, line, col)
}

func (l *Lexer) pair(t token.TokenType, line, col int) token.Token {
	first := l.ch
	l.readChar()
	literal := string(first) + string(l.ch)
	return token.Token{Type: t, Lexeme: literal, Literal: literal, Line: line, Column: col}
}

// readString resolves \n \t \\ \" escapes. Other escapes keep the backslash.
func (l *Lexer) readString(line, col int) token.Token {
	start := l.position
	var sb strings.Builder
	for {
		l.readChar()
		if l.atEnd() {
			return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:], Literal: diagnostics.ErrL002, Line: line, Column: col}
		}
		if l.ch == '"' {
			break
		}
		if l.ch == '\\' {
			l.readChar()
			if l.atEnd() {
				return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:], Literal: diagnostics.ErrL002, Line: line, Column: col}
			}
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteByte('\\')
				sb.WriteRune(l.ch)
			}
			continue
		}
		sb.WriteRune(l.ch)
	}
	l.readChar() // closing quote
	return token.Token{Type: token.STRING, Lexeme: l.input[start:l.position], Literal: sb.String(), Line: line, Column: col}
}

// readNumber reads digits with at most one decimal point.
func (l *Lexer) readNumber(line, col int) token.Token {
	start := l.position
	seenDot := false
	for isDigit(l.ch) || (l.ch == '.' && !seenDot) {
		if l.ch == '.' {
			seenDot = true
		}
		l.readChar()
	}
	lit := l.input[start:l.position]
	return token.Token{Type: token.NUMBER, Lexeme: lit, Literal: lit, Line: line, Column: col}
}

func (l *Lexer) readBitmap(line, col int) token.Token {
	start := l.position
	l.readChar() // 'B'
	for l.ch == '0' || l.ch == '1' {
		l.readChar()
	}
	lit := l.input[start:l.position]
	return token.Token{Type: token.BITMAP, Lexeme: lit, Literal: lit[1:], Line: line, Column: col}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func isLetter(ch rune) bool {
	if ch == '→' || ch == '↔' || ch == '⊽' {
		return false
	}
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= 0x80
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func newToken(tokenType token.TokenType, ch rune, line, col int) token.Token {
	literal := string(ch)
	return token.Token{Type: tokenType, Lexeme: literal, Literal: literal, Line: line, Column: col}
}

// skipWhitespace also drops '#' comments up to the end of the line.
func (l *Lexer) skipWhitespace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '#' {
			for l.ch != '\n' && !l.atEnd() {
				l.readChar()
			}
			continue
		}
		return
	}
}

// IsIdentifier reports whether name lexes as exactly one identifier.
func IsIdentifier(name string) bool {
	l := New(name)
	tok := l.NextToken()
	return tok.Type == token.IDENT && tok.Lexeme == name && l.NextToken().Type == token.EOF
}
