package analyze

import "strings"

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	// TokenEOF marks the end of input.
	TokenEOF TokenType = iota
	// TokenIllegal marks a character the active dialect cannot lex.
	TokenIllegal
	// TokenWord is a bare keyword or identifier.
	TokenWord
	// TokenQuotedIdent is a quoted identifier ("...", `...`, [...]).
	TokenQuotedIdent
	// TokenNumber is a numeric literal.
	TokenNumber
	// TokenString is a string literal.
	TokenString
	// TokenParam is a bind parameter ($1, ?, ?3, :name).
	TokenParam
	// TokenSymbol is an operator or other punctuation.
	TokenSymbol

	TokenLParen
	TokenRParen
	TokenComma
	TokenDot
	TokenSemicolon
)

// Token is a single lexical token. Upper carries the uppercased literal for
// words so keyword checks don't re-fold case on every comparison.
type Token struct {
	Type    TokenType
	Literal string
	Upper   string
}

func wordToken(lit string) Token {
	return Token{Type: TokenWord, Literal: lit, Upper: strings.ToUpper(lit)}
}

// Is reports whether the token is the given bare keyword.
func (t Token) Is(keyword string) bool {
	return t.Type == TokenWord && t.Upper == keyword
}

// IsAny reports whether the token is any of the given bare keywords.
func (t Token) IsAny(keywords ...string) bool {
	if t.Type != TokenWord {
		return false
	}
	for _, k := range keywords {
		if t.Upper == k {
			return true
		}
	}
	return false
}
