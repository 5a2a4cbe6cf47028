package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Scanner: on-demand tokenizer for fern source
// ---------------------------------------------------------------------------

// LexError describes a malformed token. Line is where the construct began,
// not where the input ran out.
type LexError struct {
	Message string
	Line    int
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return fmt.Sprintf("[line %d] %s", e.Line, e.Message)
}

// Scanner produces one token at a time from a source string. It keeps a
// single-character lookahead cursor and no token buffer; the compiler pulls
// tokens on demand.
type Scanner struct {
	source string
	start  int // start of the lexeme being scanned
	pos    int // current position in source
	line   int // current line (1-based)
}

// NewScanner creates a scanner over source.
func NewScanner(source string) *Scanner {
	return &Scanner{source: source, line: 1}
}

// Line returns the line of the scanner's cursor. Used for diagnostics at
// end of input, where there is no token to anchor the message to.
func (s *Scanner) Line() int {
	return s.line
}

// Next returns the next token. ok is false when the input is exhausted.
// A non-nil error is a lexical diagnostic; the scanner has skipped past
// the offending text and may be called again.
func (s *Scanner) Next() (tok Token, ok bool, err error) {
	s.skipWhitespaceAndComments()
	s.start = s.pos

	if s.atEnd() {
		return Token{}, false, nil
	}

	ch := s.advance()

	switch {
	case isDigit(ch):
		return s.number(), true, nil
	case isAlpha(ch):
		return s.identifier(), true, nil
	}

	switch ch {
	case '(':
		return s.makeToken(TokenLParen), true, nil
	case ')':
		return s.makeToken(TokenRParen), true, nil
	case '{':
		return s.makeToken(TokenLBrace), true, nil
	case '}':
		return s.makeToken(TokenRBrace), true, nil
	case ',':
		return s.makeToken(TokenComma), true, nil
	case '.':
		return s.makeToken(TokenDot), true, nil
	case '-':
		return s.makeToken(TokenMinus), true, nil
	case '+':
		return s.makeToken(TokenPlus), true, nil
	case ';':
		return s.makeToken(TokenSemicolon), true, nil
	case '/':
		return s.makeToken(TokenSlash), true, nil
	case '*':
		return s.makeToken(TokenStar), true, nil
	case '!':
		if s.match('=') {
			return s.makeToken(TokenBangEqual), true, nil
		}
		return s.makeToken(TokenBang), true, nil
	case '=':
		if s.match('=') {
			return s.makeToken(TokenEqualEqual), true, nil
		}
		return s.makeToken(TokenEqual), true, nil
	case '<':
		if s.match('=') {
			return s.makeToken(TokenLessEqual), true, nil
		}
		return s.makeToken(TokenLess), true, nil
	case '>':
		if s.match('=') {
			return s.makeToken(TokenGreaterEqual), true, nil
		}
		return s.makeToken(TokenGreater), true, nil
	case '"':
		return s.stringLiteral()
	}

	return Token{}, false, &LexError{
		Message: fmt.Sprintf("Unexpected character %q.", ch),
		Line:    s.line,
	}
}

// ---------------------------------------------------------------------------
// Cursor
// ---------------------------------------------------------------------------

func (s *Scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *Scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	return ch
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *Scanner) peekNext() byte {
	if s.pos+1 >= len(s.source) {
		return 0
	}
	return s.source[s.pos+1]
}

// match consumes the next character only if it equals expected.
func (s *Scanner) match(expected byte) bool {
	if s.atEnd() || s.source[s.pos] != expected {
		return false
	}
	s.pos++
	return true
}

func (s *Scanner) makeToken(tt TokenType) Token {
	return Token{Type: tt, Lexeme: s.source[s.start:s.pos], Line: s.line}
}

// skipWhitespaceAndComments consumes whitespace and // line comments,
// counting every newline it passes.
func (s *Scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\t', '\r':
			s.pos++
		case '\n':
			s.line++
			s.pos++
		case '/':
			if s.peekNext() != '/' {
				return
			}
			for !s.atEnd() && s.peek() != '\n' {
				s.pos++
			}
		default:
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Multi-character tokens
// ---------------------------------------------------------------------------

// number scans a digit run optionally followed by '.' and a fractional
// digit run. No exponent form; a leading sign is a separate unary token.
func (s *Scanner) number() Token {
	for isDigit(s.peek()) {
		s.pos++
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.pos++ // consume the '.'
		for isDigit(s.peek()) {
			s.pos++
		}
	}
	return s.makeToken(TokenNumber)
}

// identifier scans an identifier and resolves reserved words by exact match.
func (s *Scanner) identifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.pos++
	}
	lexeme := s.source[s.start:s.pos]
	if tt, reserved := reservedWords[lexeme]; reserved {
		return Token{Type: tt, Lexeme: lexeme, Line: s.line}
	}
	return Token{Type: TokenIdentifier, Lexeme: lexeme, Line: s.line}
}

// stringLiteral scans a double-quoted string. An unterminated string is
// reported at the line the quote opened on.
func (s *Scanner) stringLiteral() (Token, bool, error) {
	openLine := s.line
	for !s.atEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.line++
		}
		s.pos++
	}
	if s.atEnd() {
		return Token{}, false, &LexError{Message: "Unterminated string.", Line: openLine}
	}
	s.pos++ // closing quote
	return Token{Type: TokenString, Lexeme: s.source[s.start:s.pos], Line: openLine}, true, nil
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}
