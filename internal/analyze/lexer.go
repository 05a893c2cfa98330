package analyze

import "strings"

// Lexer tokenizes SQL input under a given dialect.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	dialect *Dialect
}

// NewLexer creates a lexer for the given input and dialect.
func NewLexer(input string, d *Dialect) *Lexer {
	l := &Lexer{input: input, dialect: d}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	if !l.skipWhitespaceAndComments() {
		return Token{Type: TokenIllegal, Literal: "/*"}
	}

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF}
	case l.ch == '(':
		l.readChar()
		return Token{Type: TokenLParen, Literal: "("}
	case l.ch == ')':
		l.readChar()
		return Token{Type: TokenRParen, Literal: ")"}
	case l.ch == ',':
		l.readChar()
		return Token{Type: TokenComma, Literal: ","}
	case l.ch == ';':
		l.readChar()
		return Token{Type: TokenSemicolon, Literal: ";"}
	case l.ch == '.' && !isDigit(l.peekChar()):
		l.readChar()
		return Token{Type: TokenDot, Literal: "."}
	case l.ch == '\'':
		return l.readString()
	case l.ch == '"':
		return l.readQuoted('"', '"')
	case l.ch == '`':
		if !l.dialect.BacktickIdent {
			return Token{Type: TokenIllegal, Literal: "`"}
		}
		return l.readQuoted('`', '`')
	case l.ch == '[':
		if l.dialect.BracketIdent {
			return l.readQuoted('[', ']')
		}
		// Array subscript syntax; treat as plain punctuation.
		l.readChar()
		return Token{Type: TokenSymbol, Literal: "["}
	case l.ch == ']':
		l.readChar()
		return Token{Type: TokenSymbol, Literal: "]"}
	case l.ch == '$':
		if !l.dialect.DollarQuoting {
			return Token{Type: TokenIllegal, Literal: "$"}
		}
		return l.readDollar()
	case l.ch == '?':
		if !l.dialect.QuestionParam {
			return Token{Type: TokenIllegal, Literal: "?"}
		}
		l.readChar()
		start := l.pos
		for isDigit(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenParam, Literal: "?" + l.input[start:l.pos]}
	case l.ch == ':':
		// :name params and the :: cast operator.
		if l.peekChar() == ':' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenSymbol, Literal: "::"}
		}
		if isIdentStart(l.peekChar()) {
			l.readChar()
			return Token{Type: TokenParam, Literal: ":" + l.readIdentLiteral()}
		}
		l.readChar()
		return Token{Type: TokenSymbol, Literal: ":"}
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return l.readNumber()
	case isIdentStart(l.ch):
		return wordToken(l.readIdentLiteral())
	case isOperatorChar(l.ch):
		start := l.pos
		for isOperatorChar(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenSymbol, Literal: l.input[start:l.pos]}
	default:
		ch := l.ch
		l.readChar()
		return Token{Type: TokenIllegal, Literal: string(ch)}
	}
}

// skipWhitespaceAndComments returns false on an unterminated block comment.
func (l *Lexer) skipWhitespaceAndComments() bool {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			// Block comments nest in PostgreSQL; count depth.
			depth := 0
			for {
				if l.ch == 0 {
					return false
				}
				if l.ch == '/' && l.peekChar() == '*' {
					depth++
					l.readChar()
					l.readChar()
					continue
				}
				if l.ch == '*' && l.peekChar() == '/' {
					depth--
					l.readChar()
					l.readChar()
					if depth == 0 {
						break
					}
					continue
				}
				l.readChar()
			}
		default:
			return true
		}
	}
}

func (l *Lexer) readString() Token {
	l.readChar() // opening quote
	var sb strings.Builder
	for {
		if l.ch == 0 {
			return Token{Type: TokenIllegal, Literal: "'"}
		}
		if l.ch == '\'' {
			if l.peekChar() == '\'' { // escaped quote
				sb.WriteByte('\'')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			return Token{Type: TokenString, Literal: sb.String()}
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
}

func (l *Lexer) readQuoted(open, close byte) Token {
	l.readChar() // opening delimiter
	var sb strings.Builder
	for {
		if l.ch == 0 {
			return Token{Type: TokenIllegal, Literal: string(open)}
		}
		if l.ch == close {
			if close != ']' && l.peekChar() == close { // doubled delimiter escape
				sb.WriteByte(close)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			return Token{Type: TokenQuotedIdent, Literal: sb.String()}
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
}

// readDollar handles both $n params and $tag$...$tag$ quoted strings.
func (l *Lexer) readDollar() Token {
	l.readChar() // $
	if isDigit(l.ch) {
		start := l.pos
		for isDigit(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenParam, Literal: "$" + l.input[start:l.pos]}
	}

	tagStart := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	if l.ch != '$' {
		return Token{Type: TokenIllegal, Literal: "$"}
	}
	tag := l.input[tagStart:l.pos]
	l.readChar() // closing $ of the opening tag

	closer := "$" + tag + "$"
	end := strings.Index(l.input[l.pos:], closer)
	if end < 0 {
		return Token{Type: TokenIllegal, Literal: closer}
	}
	body := l.input[l.pos : l.pos+end]
	for i := 0; i < end+len(closer); i++ {
		l.readChar()
	}
	return Token{Type: TokenString, Literal: body}
}

func (l *Lexer) readNumber() Token {
	start := l.pos
	for isDigit(l.ch) || l.ch == '.' || l.ch == 'e' || l.ch == 'E' ||
		((l.ch == '+' || l.ch == '-') && (l.input[l.pos-1] == 'e' || l.input[l.pos-1] == 'E')) {
		l.readChar()
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos]}
}

func (l *Lexer) readIdentLiteral() string {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentPart(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }

func isOperatorChar(ch byte) bool {
	switch ch {
	case '+', '-', '*', '/', '%', '<', '>', '=', '!', '~', '^', '&', '|', '#', '@':
		return true
	}
	return false
}
