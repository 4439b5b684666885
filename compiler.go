package chasm

import (
	"bytes"
	"fmt"
	"strconv"
)

// Compiler drives scanning and code generation together: it holds one
// token of lookahead beyond the current token and the table of declared
// procedures; the symbol table of the function body being compiled (one
// per body) is passed down through the statement methods.
// No AST is built; every syntactic construct is lowered to Wasm opcodes
// as soon as it is recognised.
type Compiler struct {
	sc     *Scanner
	cur    Token
	peeked *Token

	procs []*function
	index map[string]int
}

// Compile translates chasm source into a self-contained Wasm MVP binary
// module. It is a pure function: no shared state survives the call.
func Compile(source string) ([]byte, error) {
	c := &Compiler{sc: NewScanner(source), index: make(map[string]int)}
	if err := c.advance(); err != nil {
		return nil, err
	}

	main := &function{name: "main"}
	c.procs = append(c.procs, main)
	c.index["main"] = 0

	syms := newSymbolTable()
	var body bytes.Buffer
	for c.cur.Kind != KindEOF {
		if err := c.statement(&body, syms); err != nil {
			return nil, err
		}
	}

	main.numParams = 0
	main.numLocals = syms.count()
	main.body = body.Bytes()
	main.declared = true

	for _, fn := range c.procs {
		if !fn.declared {
			return nil, &Error{
				Kind:    UndefinedSymbol,
				Message: fmt.Sprintf("proc %q called but never declared", fn.name),
				Token:   c.cur,
			}
		}
	}

	mb := newModuleBuilder()
	mb.functions = c.procs
	return mb.finish(), nil
}

func (c *Compiler) advance() error {
	if c.peeked != nil {
		c.cur = *c.peeked
		c.peeked = nil
		return nil
	}
	tok, err := c.sc.Next()
	if err != nil {
		return err
	}
	c.cur = tok
	return nil
}

func (c *Compiler) peek() (Token, error) {
	if c.peeked == nil {
		tok, err := c.sc.Next()
		if err != nil {
			return Token{}, err
		}
		c.peeked = &tok
	}
	return *c.peeked, nil
}

func (c *Compiler) expectKind(k Kind) error {
	if c.cur.Kind != k {
		return errUnexpectedToken(c.cur, k)
	}
	return c.advance()
}

// statement parses and emits one statement into buf, using syms for the
// enclosing function's locals.
func (c *Compiler) statement(buf *bytes.Buffer, syms *symbolTable) error {
	switch c.cur.Kind {
	case KindPrint:
		return c.printStatement(buf, syms)
	case KindVar:
		return c.varStatement(buf, syms)
	case KindSetPixel:
		return c.setpixelStatement(buf, syms)
	case KindWhile:
		return c.whileStatement(buf, syms)
	case KindIf:
		return c.ifStatement(buf, syms)
	case KindProc:
		return c.procStatement()
	case KindIdent:
		pk, err := c.peek()
		if err != nil {
			return err
		}
		if pk.Kind == KindAssign {
			return c.assignStatement(buf, syms)
		}
		return c.procCallStatement(buf, syms)
	default:
		return errUnexpectedToken(c.cur, KindPrint, KindVar, KindSetPixel, KindWhile, KindIf, KindProc, KindIdent)
	}
}

func (c *Compiler) printStatement(buf *bytes.Buffer, syms *symbolTable) error {
	if err := c.expectKind(KindPrint); err != nil {
		return err
	}
	tok := c.cur
	rtype, err := c.expression(buf, syms)
	if err != nil {
		return err
	}
	if rtype != typeF32 {
		return errTypeMismatch(tok, typeF32, rtype)
	}
	writeByte(buf, opCall)
	writeU32(buf, 0)
	return nil
}

func (c *Compiler) varStatement(buf *bytes.Buffer, syms *symbolTable) error {
	if err := c.expectKind(KindVar); err != nil {
		return err
	}
	return c.assignStatement(buf, syms)
}

// assignStatement parses "IDENT = expression". The "var" keyword is
// purely a readability marker: both `var x = 0` and a bare `x = 0` land
// here and auto-create the slot on first write. Reading an undeclared
// identifier, by contrast, is an error — the asymmetry is deliberate.
func (c *Compiler) assignStatement(buf *bytes.Buffer, syms *symbolTable) error {
	identTok := c.cur
	if err := c.expectKind(KindIdent); err != nil {
		return err
	}
	idx := syms.declare(identTok.Literal)

	if err := c.expectKind(KindAssign); err != nil {
		return err
	}
	rtype, err := c.expression(buf, syms)
	if err != nil {
		return err
	}
	if rtype != typeF32 {
		return errTypeMismatch(identTok, typeF32, rtype)
	}
	writeByte(buf, opLocalSet)
	writeU32(buf, idx)
	return nil
}

// whileStatement lowers "while (cond) body endwhile" to
// block { loop { cond; i32.eqz; br_if 1; body; br 0 } }.
func (c *Compiler) whileStatement(buf *bytes.Buffer, syms *symbolTable) error {
	if err := c.expectKind(KindWhile); err != nil {
		return err
	}

	writeByte(buf, opBlock)
	writeByte(buf, blockTypeEmpty)
	writeByte(buf, opLoop)
	writeByte(buf, blockTypeEmpty)

	condTok := c.cur
	ctype, err := c.expression(buf, syms)
	if err != nil {
		return err
	}
	if ctype != typeI32 {
		return errTypeMismatch(condTok, typeI32, ctype)
	}
	writeByte(buf, opI32Eqz)
	writeByte(buf, opBrIf)
	writeU32(buf, 1)

	for c.cur.Kind != KindEndWhile {
		if c.cur.Kind == KindEOF {
			return errUnexpectedToken(c.cur, KindEndWhile)
		}
		if err := c.statement(buf, syms); err != nil {
			return err
		}
	}
	if err := c.expectKind(KindEndWhile); err != nil {
		return err
	}

	writeByte(buf, opBr)
	writeU32(buf, 0)
	writeByte(buf, opEnd)
	writeByte(buf, opEnd)
	return nil
}

// ifStatement lowers "if (cond) then [else else-branch] endif".
func (c *Compiler) ifStatement(buf *bytes.Buffer, syms *symbolTable) error {
	if err := c.expectKind(KindIf); err != nil {
		return err
	}

	condTok := c.cur
	ctype, err := c.expression(buf, syms)
	if err != nil {
		return err
	}
	if ctype != typeI32 {
		return errTypeMismatch(condTok, typeI32, ctype)
	}

	writeByte(buf, opIf)
	writeByte(buf, blockTypeEmpty)

	for c.cur.Kind != KindEndIf && c.cur.Kind != KindElse {
		if c.cur.Kind == KindEOF {
			return errUnexpectedToken(c.cur, KindEndIf)
		}
		if err := c.statement(buf, syms); err != nil {
			return err
		}
	}

	if c.cur.Kind == KindElse {
		if err := c.expectKind(KindElse); err != nil {
			return err
		}
		writeByte(buf, opElse)
		for c.cur.Kind != KindEndIf {
			if c.cur.Kind == KindEOF {
				return errUnexpectedToken(c.cur, KindEndIf)
			}
			if err := c.statement(buf, syms); err != nil {
				return err
			}
		}
	}

	if err := c.expectKind(KindEndIf); err != nil {
		return err
	}
	writeByte(buf, opEnd)
	return nil
}

// setpixelStatement lowers "setpixel (x, y, c)" to a linear-memory byte
// write at y*100+x.
func (c *Compiler) setpixelStatement(buf *bytes.Buffer, syms *symbolTable) error {
	if err := c.expectKind(KindSetPixel); err != nil {
		return err
	}
	if err := c.expectKind(KindLParen); err != nil {
		return err
	}

	xIdx, err := c.setpixelArg(buf, syms, "x")
	if err != nil {
		return err
	}
	if err := c.expectKind(KindComma); err != nil {
		return err
	}
	yIdx, err := c.setpixelArg(buf, syms, "y")
	if err != nil {
		return err
	}
	if err := c.expectKind(KindComma); err != nil {
		return err
	}
	colorIdx, err := c.setpixelArg(buf, syms, "color")
	if err != nil {
		return err
	}
	if err := c.expectKind(KindRParen); err != nil {
		return err
	}

	writeByte(buf, opLocalGet)
	writeU32(buf, yIdx)
	writeByte(buf, opF32Const)
	writeF32(buf, 100.0)
	writeByte(buf, opF32Mul)
	writeByte(buf, opLocalGet)
	writeU32(buf, xIdx)
	writeByte(buf, opF32Add)
	writeByte(buf, opI32TruncF32S)

	writeByte(buf, opLocalGet)
	writeU32(buf, colorIdx)
	writeByte(buf, opI32TruncF32S)

	writeByte(buf, opI32Store8)
	writeByte(buf, 0x00) // align
	writeByte(buf, 0x00) // offset
	return nil
}

func (c *Compiler) setpixelArg(buf *bytes.Buffer, syms *symbolTable, slotName string) (uint32, error) {
	tok := c.cur
	rtype, err := c.expression(buf, syms)
	if err != nil {
		return 0, err
	}
	if rtype != typeF32 {
		return 0, errTypeMismatch(tok, typeF32, rtype)
	}
	idx := syms.declare(slotName)
	writeByte(buf, opLocalSet)
	writeU32(buf, idx)
	return idx, nil
}

// procCallStatement parses "IDENT" or "IDENT ( args,* )" as a call to a
// user-declared proc.
func (c *Compiler) procCallStatement(buf *bytes.Buffer, syms *symbolTable) error {
	nameTok := c.cur
	if err := c.expectKind(KindIdent); err != nil {
		return err
	}

	n := 0
	if c.cur.Kind == KindLParen {
		if err := c.expectKind(KindLParen); err != nil {
			return err
		}
		for c.cur.Kind != KindRParen {
			argTok := c.cur
			atype, err := c.expression(buf, syms)
			if err != nil {
				return err
			}
			if atype != typeF32 {
				return errTypeMismatch(argTok, typeF32, atype)
			}
			n++
			if c.cur.Kind != KindRParen {
				if err := c.expectKind(KindComma); err != nil {
					return err
				}
			}
		}
		if err := c.expectKind(KindRParen); err != nil {
			return err
		}
	}

	idx, err := c.procedureForSymbol(nameTok.Literal, n, nameTok)
	if err != nil {
		return err
	}
	writeByte(buf, opCall)
	writeU32(buf, uint32(idx+1)) // +1 for the print import at index 0
	return nil
}

// procStatement parses "proc NAME ( params,* ) statement* endproc".
func (c *Compiler) procStatement() error {
	if err := c.expectKind(KindProc); err != nil {
		return err
	}
	nameTok := c.cur
	if err := c.expectKind(KindIdent); err != nil {
		return err
	}
	name := nameTok.Literal

	if err := c.expectKind(KindLParen); err != nil {
		return err
	}
	var params []string
	for c.cur.Kind != KindRParen {
		pTok := c.cur
		if err := c.expectKind(KindIdent); err != nil {
			return err
		}
		params = append(params, pTok.Literal)
		if c.cur.Kind != KindRParen {
			if err := c.expectKind(KindComma); err != nil {
				return err
			}
		}
	}
	if err := c.expectKind(KindRParen); err != nil {
		return err
	}

	idx, err := c.procedureForSymbol(name, len(params), nameTok)
	if err != nil {
		return err
	}
	fn := c.procs[idx]
	if fn.declared {
		return &Error{Kind: UnexpectedToken, Message: fmt.Sprintf("proc %q already declared", name), Token: nameTok}
	}

	syms := newSymbolTableWithParams(params)
	var body bytes.Buffer
	for c.cur.Kind != KindEndProc {
		if c.cur.Kind == KindEOF {
			return errUnexpectedToken(c.cur, KindEndProc)
		}
		if err := c.statement(&body, syms); err != nil {
			return err
		}
	}
	if err := c.expectKind(KindEndProc); err != nil {
		return err
	}

	fn.numLocals = syms.count() - len(params)
	fn.body = body.Bytes()
	fn.declared = true
	return nil
}

// procedureForSymbol returns the slice index of the function named name,
// creating a placeholder (forward reference) the first time it is seen
// either as a call or a proc declaration — whichever comes first in
// source order.
func (c *Compiler) procedureForSymbol(name string, numParams int, tok Token) (int, error) {
	if idx, ok := c.index[name]; ok {
		fn := c.procs[idx]
		if fn.numParams != numParams {
			return 0, errArityMismatch(tok, name, fn.numParams, numParams)
		}
		return idx, nil
	}
	idx := len(c.procs)
	c.procs = append(c.procs, &function{name: name, numParams: numParams})
	c.index[name] = idx
	return idx, nil
}

var binOpKinds = map[Kind]bool{
	KindPlus: true, KindMinus: true, KindStar: true, KindSlash: true,
	KindEq: true, KindLt: true, KindGt: true, KindAnd: true, KindOr: true,
}

// expression parses "NUMBER | IDENT | ( expression OP expression )" and
// emits its value onto the Wasm operand stack, returning its static type.
// Arithmetic and comparisons require f32 operands; && and || require i32
// (boolean) operands, and the result of a comparison or boolean operator
// is itself i32 — so booleans and numbers never mix without an explicit
// comparison in between.
func (c *Compiler) expression(buf *bytes.Buffer, syms *symbolTable) (valueType, error) {
	switch c.cur.Kind {
	case KindNumber:
		tok := c.cur
		v, err := strconv.ParseFloat(tok.Literal, 32)
		if err != nil {
			return 0, errNumberOutOfRange(tok, err)
		}
		if err := c.advance(); err != nil {
			return 0, err
		}
		writeByte(buf, opF32Const)
		writeF32(buf, float32(v))
		return typeF32, nil

	case KindIdent:
		tok := c.cur
		if err := c.advance(); err != nil {
			return 0, err
		}
		idx, ok := syms.lookup(tok.Literal)
		if !ok {
			return 0, errUndefinedSymbol(tok)
		}
		writeByte(buf, opLocalGet)
		writeU32(buf, idx)
		return typeF32, nil

	case KindLParen:
		if err := c.expectKind(KindLParen); err != nil {
			return 0, err
		}
		leftType, err := c.expression(buf, syms)
		if err != nil {
			return 0, err
		}

		// A parenthesized value with no operator, e.g. "(a)" or "(1)", is a
		// bare grouping: it passes leftType through unchanged. This is what
		// makes parens transparent under nesting, e.g. "(a + b)" compiling
		// identically to "((a) + (b))".
		if c.cur.Kind == KindRParen {
			if err := c.advance(); err != nil {
				return 0, err
			}
			return leftType, nil
		}

		opTok := c.cur
		if !binOpKinds[opTok.Kind] {
			return 0, errUnexpectedToken(opTok, KindPlus, KindMinus, KindStar, KindSlash, KindEq, KindLt, KindGt, KindAnd, KindOr, KindRParen)
		}
		if err := c.advance(); err != nil {
			return 0, err
		}

		rightType, err := c.expression(buf, syms)
		if err != nil {
			return 0, err
		}

		resultType, err := emitBinOp(opTok, leftType, rightType, buf)
		if err != nil {
			return 0, err
		}

		if err := c.expectKind(KindRParen); err != nil {
			return 0, err
		}
		return resultType, nil

	default:
		return 0, errUnexpectedToken(c.cur, KindNumber, KindIdent, KindLParen)
	}
}

func emitBinOp(opTok Token, left, right valueType, buf *bytes.Buffer) (valueType, error) {
	switch opTok.Kind {
	case KindPlus, KindMinus, KindStar, KindSlash, KindEq, KindLt, KindGt:
		if left != typeF32 {
			return 0, errTypeMismatch(opTok, typeF32, left)
		}
		if right != typeF32 {
			return 0, errTypeMismatch(opTok, typeF32, right)
		}
	case KindAnd, KindOr:
		if left != typeI32 {
			return 0, errTypeMismatch(opTok, typeI32, left)
		}
		if right != typeI32 {
			return 0, errTypeMismatch(opTok, typeI32, right)
		}
	}

	switch opTok.Kind {
	case KindPlus:
		writeByte(buf, opF32Add)
		return typeF32, nil
	case KindMinus:
		writeByte(buf, opF32Sub)
		return typeF32, nil
	case KindStar:
		writeByte(buf, opF32Mul)
		return typeF32, nil
	case KindSlash:
		writeByte(buf, opF32Div)
		return typeF32, nil
	case KindEq:
		writeByte(buf, opF32Eq)
		return typeI32, nil
	case KindLt:
		writeByte(buf, opF32Lt)
		return typeI32, nil
	case KindGt:
		writeByte(buf, opF32Gt)
		return typeI32, nil
	case KindAnd:
		writeByte(buf, opI32And)
		return typeI32, nil
	case KindOr:
		writeByte(buf, opI32Or)
		return typeI32, nil
	default:
		return 0, errUnexpectedToken(opTok, KindPlus, KindMinus, KindStar, KindSlash, KindEq, KindLt, KindGt, KindAnd, KindOr)
	}
}
