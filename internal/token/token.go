package token

type TokenType string

type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

// Len returns the byte length of the lexeme.
func (t Token) Len() int { return len(t.Lexeme) }

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"
	NEWLINE TokenType = "NEWLINE"

	// Identifiers + literals
	IDENT  TokenType = "IDENT"
	NUMBER TokenType = "NUMBER"
	STRING TokenType = "STRING"
	BITMAP TokenType = "BITMAP"

	// Operators
	ASSIGN   TokenType = "="
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	POWER    TokenType = "**"
	BANG     TokenType = "!"
	TILDE    TokenType = "~"

	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
	LT     TokenType = "<"
	GT     TokenType = ">"
	LTE    TokenType = "<="
	GTE    TokenType = ">="

	LSHIFT    TokenType = "<<"
	RSHIFT    TokenType = ">>"
	AMPERSAND TokenType = "&"
	CARET     TokenType = "^"
	PIPE      TokenType = "|"

	IMPLIES TokenType = "→"
	IFF     TokenType = "↔"
	XOR     TokenType = "⊽"

	// Delimiters
	COMMA     TokenType = ","
	COLON     TokenType = ":"
	SEMICOLON TokenType = ";"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"

	// Keywords
	LET    TokenType = "LET"
	STATIC TokenType = "STATIC"
	IMPORT TokenType = "IMPORT"
	IF     TokenType = "IF"
	ELSE   TokenType = "ELSE"
	FOR    TokenType = "FOR"
	WHILE  TokenType = "WHILE"
	DO     TokenType = "DO"
	END    TokenType = "END"
	IN     TokenType = "IN"
	RANGE  TokenType = "RANGE"
	OR     TokenType = "OR"
)

var keywords = map[string]TokenType{
	"let":    LET,
	"static": STATIC,
	"import": IMPORT,
	"if":     IF,
	"else":   ELSE,
	"for":    FOR,
	"while":  WHILE,
	"do":     DO,
	"end":    END,
	"in":     IN,
	"range":  RANGE,
	"v":      OR,
}

// LookupIdent returns the keyword type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

// Keyword returns the source spelling of a keyword token type.
func Keyword(t TokenType) (string, bool) {
	for name, tt := range keywords {
		if tt == t {
			return name, true
		}
	}
	return "", false
}
