// Package compiler turns fern source text into an executable vm.Chunk in a
// single pass: a Pratt parser pulls tokens from the scanner on demand and
// emits instructions directly, with no intermediate tree.
package compiler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fernlang/fern/vm"
)

// ---------------------------------------------------------------------------
// Precedence levels
// ---------------------------------------------------------------------------

// Precedence orders operator binding strength from lowest to highest.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

// next returns the level one step tighter. A left-associative infix rule
// parses its right operand at this level so equal-precedence operators
// group to the left.
func (p Precedence) next() Precedence {
	if p >= PrecPrimary {
		return PrecPrimary
	}
	return p + 1
}

// ---------------------------------------------------------------------------
// Parse rules
// ---------------------------------------------------------------------------

type parseFn func(*Compiler)

// parseRule associates a token type with its prefix handler, infix handler,
// and infix binding precedence.
type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// parseRules is keyed by TokenType. Token types without an entry have no
// role in expressions and parse as errors.
var parseRules map[TokenType]parseRule

func init() {
	parseRules = map[TokenType]parseRule{
		TokenLParen: {prefix: (*Compiler).grouping},
		TokenMinus:  {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		TokenPlus:   {infix: (*Compiler).binary, precedence: PrecTerm},
		TokenSlash:  {infix: (*Compiler).binary, precedence: PrecFactor},
		TokenStar:   {infix: (*Compiler).binary, precedence: PrecFactor},
		TokenBang:   {prefix: (*Compiler).unary},
		TokenNumber: {prefix: (*Compiler).number},
		TokenTrue:   {prefix: (*Compiler).literal},
		TokenFalse:  {prefix: (*Compiler).literal},
		TokenNil:    {prefix: (*Compiler).literal},

		TokenBangEqual:  {infix: (*Compiler).binary, precedence: PrecEquality},
		TokenEqualEqual: {infix: (*Compiler).binary, precedence: PrecEquality},

		TokenGreater:      {infix: (*Compiler).binary, precedence: PrecComparison},
		TokenGreaterEqual: {infix: (*Compiler).binary, precedence: PrecComparison},
		TokenLess:         {infix: (*Compiler).binary, precedence: PrecComparison},
		TokenLessEqual:    {infix: (*Compiler).binary, precedence: PrecComparison},
	}
}

func ruleFor(tt TokenType) parseRule {
	return parseRules[tt]
}

// ---------------------------------------------------------------------------
// Compiler
// ---------------------------------------------------------------------------

// Compiler holds the parse state for one compilation: the scanner it pulls
// from, a one-token lookahead window, the chunk under construction, and the
// error/panic flags. previous or current being nil means there is no token
// in that slot (before the first advance, or past the end of input).
//
// Nested compilation contexts (for functions, later) will push frames onto
// an explicit stack rather than chaining enclosing pointers; today there is
// exactly one implicit frame.
type Compiler struct {
	scanner  *Scanner
	previous *Token
	current  *Token

	chunk *vm.Chunk

	hadError  bool
	panicMode bool
	diags     []Diagnostic
}

// Compile scans and compiles source as a single expression, returning the
// chunk to execute. On any lexical or syntax error it returns a
// *CompileError and no chunk; a chunk with recorded errors never escapes.
func Compile(source string) (*vm.Chunk, error) {
	c := &Compiler{
		scanner: NewScanner(source),
		chunk:   vm.NewChunk(),
	}

	c.advance()
	c.expression()

	if c.current != nil {
		c.errorAtCurrent("Expected end of expression.")
	}
	if c.hadError {
		c.synchronize()
		return nil, &CompileError{Diagnostics: c.diags}
	}

	c.emitReturn()
	return c.chunk, nil
}

// ---------------------------------------------------------------------------
// Token plumbing
// ---------------------------------------------------------------------------

// advance shifts the lookahead window one token. Lexical errors are
// recorded as diagnostics and scanning continues, so a malformed token
// surfaces exactly one message and the parser still sees what follows it.
func (c *Compiler) advance() {
	c.previous = c.current

	for {
		tok, ok, err := c.scanner.Next()
		if err != nil {
			c.lexicalError(err)
			continue
		}
		if !ok {
			c.current = nil
			return
		}
		c.current = &tok
		return
	}
}

// consume advances past a token of the expected type or reports message.
func (c *Compiler) consume(tt TokenType, message string) {
	if c.current != nil && c.current.Type == tt {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// synchronize discards tokens until a safe boundary. With no statements in
// the language yet, the only boundary is end of input.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current != nil {
		c.advance()
	}
}

// ---------------------------------------------------------------------------
// Error recording
// ---------------------------------------------------------------------------

// errorAt records a diagnostic unless the compiler is already in panic
// mode, which suppresses the cascade that follows a first error.
func (c *Compiler) errorAt(tok *Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	d := Diagnostic{Message: message}
	if tok != nil {
		d.Line = tok.Line
		d.Lexeme = tok.Lexeme
	} else {
		d.Line = c.scanner.Line()
	}
	c.diags = append(c.diags, d)
}

func (c *Compiler) errorAtPrevious(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) lexicalError(err error) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	d := Diagnostic{Message: err.Error(), Line: c.scanner.Line()}
	if lex, ok := err.(*LexError); ok {
		d.Message = lex.Message
		d.Line = lex.Line
	}
	c.diags = append(c.diags, d)
}

// ---------------------------------------------------------------------------
// Emission
// ---------------------------------------------------------------------------

func (c *Compiler) emit(instr vm.Instruction, line int) {
	c.chunk.Emit(instr, line)
}

func (c *Compiler) emitOp(op vm.Opcode, line int) {
	c.emit(vm.Simple(op), line)
}

func (c *Compiler) emitReturn() {
	line := 0
	if c.previous != nil {
		line = c.previous.Line
	}
	c.emitOp(vm.OpReturn, line)
}

// emitConstant interns v in the chunk's constant pool and emits the load.
func (c *Compiler) emitConstant(v vm.Value, line int) {
	index, ok := c.chunk.AddConstant(v)
	if !ok {
		c.errorAtPrevious("Too many constants in one chunk.")
		return
	}
	c.emit(vm.LoadConstant(index), line)
}

// ---------------------------------------------------------------------------
// Grammar rules
// ---------------------------------------------------------------------------

// expression parses at the lowest usable precedence.
func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence parses a prefix rule for the current token, then keeps
// consuming infix operators whose precedence is at least the minimum.
func (c *Compiler) parsePrecedence(min Precedence) {
	c.advance()
	if c.previous == nil {
		c.errorAtCurrent("Expected expression.")
		return
	}

	prefix := ruleFor(c.previous.Type).prefix
	if prefix == nil {
		c.errorAtPrevious("Expected expression.")
		return
	}
	prefix(c)

	for c.current != nil && min <= ruleFor(c.current.Type).precedence {
		c.advance()
		infix := ruleFor(c.previous.Type).infix
		if infix != nil {
			infix(c)
		}
	}
}

// binary compiles the right operand of the operator in previous, then emits
// the operator. The right operand parses one level tighter, giving left
// associativity.
func (c *Compiler) binary() {
	op := c.previous.Type
	line := c.previous.Line

	c.parsePrecedence(ruleFor(op).precedence.next())

	switch op {
	case TokenPlus:
		c.emitOp(vm.OpAdd, line)
	case TokenMinus:
		c.emitOp(vm.OpSubtract, line)
	case TokenStar:
		c.emitOp(vm.OpMultiply, line)
	case TokenSlash:
		c.emitOp(vm.OpDivide, line)
	case TokenEqualEqual:
		c.emitOp(vm.OpEqual, line)
	case TokenBangEqual:
		c.emitOp(vm.OpNotEqual, line)
	case TokenGreater:
		c.emitOp(vm.OpGreater, line)
	case TokenGreaterEqual:
		c.emitOp(vm.OpGreaterEqual, line)
	case TokenLess:
		c.emitOp(vm.OpLess, line)
	case TokenLessEqual:
		c.emitOp(vm.OpLessEqual, line)
	default:
		panic(fmt.Sprintf("compiler: binary called for %s", op))
	}
}

// unary compiles the operand then emits the operator, matching the stack
// machine's evaluation order.
func (c *Compiler) unary() {
	op := c.previous.Type
	line := c.previous.Line

	c.parsePrecedence(PrecUnary)

	switch op {
	case TokenMinus:
		c.emitOp(vm.OpNegate, line)
	case TokenBang:
		c.emitOp(vm.OpNot, line)
	default:
		panic(fmt.Sprintf("compiler: unary called for %s", op))
	}
}

// grouping parses a parenthesized expression. Parentheses affect parsing
// only; nothing is emitted for them.
func (c *Compiler) grouping() {
	c.expression()
	c.consume(TokenRParen, "Expected ')' after expression.")
}

// literal emits the dedicated instruction for true, false, or nil, keeping
// the common constants out of the pool.
func (c *Compiler) literal() {
	line := c.previous.Line
	switch c.previous.Type {
	case TokenTrue:
		c.emitOp(vm.OpTrue, line)
	case TokenFalse:
		c.emitOp(vm.OpFalse, line)
	case TokenNil:
		c.emitOp(vm.OpNil, line)
	default:
		panic(fmt.Sprintf("compiler: literal called for %s", c.previous.Type))
	}
}

// number interns the numeric literal's value into the constant pool. The
// scanner's grammar guarantees the lexeme is a digit run with an optional
// fraction, so the only parse error it can produce is range overflow, which
// saturates to ±Inf. Any other failure is a bug in the scanner, not a user
// error.
func (c *Compiler) number() {
	f, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		panic(fmt.Sprintf("compiler: unparsable number lexeme %q", c.previous.Lexeme))
	}
	c.emitConstant(vm.FromFloat64(f), c.previous.Line)
}
