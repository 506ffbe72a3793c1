package compiler

import (
	"strconv"

	"github.com/glox-lang/glox/pkg/bytecode"
	"github.com/glox-lang/glox/pkg/lexer"
)

func (c *compiler) number(_ bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(bytecode.NumberVal(n))
}

func (c *compiler) string(_ bool) {
	// Lexeme spans the token including its surrounding quotes.
	raw := c.previous.Lexeme
	s := raw[1 : len(raw)-1]
	c.emitConstant(bytecode.ObjVal(c.alloc.CopyString(s)))
}

func (c *compiler) literal(_ bool) {
	switch c.previous.Type {
	case lexer.False:
		c.emitOp(bytecode.OpFalse)
	case lexer.Nil:
		c.emitOp(bytecode.OpNil)
	case lexer.True:
		c.emitOp(bytecode.OpTrue)
	}
}

func (c *compiler) grouping(_ bool) {
	c.expression()
	c.consume(lexer.RightParen, "Expect ')' after expression.")
}

func (c *compiler) unary(_ bool) {
	opType := c.previous.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case lexer.Bang:
		c.emitOp(bytecode.OpNot)
	case lexer.Minus:
		c.emitOp(bytecode.OpNegate)
	}
}

func (c *compiler) binary(_ bool) {
	opType := c.previous.Type
	rule := ruleFor(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case lexer.BangEqual:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case lexer.EqualEqual:
		c.emitOp(bytecode.OpEqual)
	case lexer.Greater:
		c.emitOp(bytecode.OpGreater)
	case lexer.GreaterEqual:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case lexer.Less:
		c.emitOp(bytecode.OpLess)
	case lexer.LessEqual:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	case lexer.Plus:
		c.emitOp(bytecode.OpAdd)
	case lexer.Minus:
		c.emitOp(bytecode.OpSubtract)
	case lexer.Star:
		c.emitOp(bytecode.OpMultiply)
	case lexer.Slash:
		c.emitOp(bytecode.OpDivide)
	}
}

func (c *compiler) and(_ bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *compiler) or(_ bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)
	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *compiler) call(_ bool) {
	argCount := c.argumentList()
	c.emitOpByte(bytecode.OpCall, argCount)
}

func (c *compiler) argumentList() byte {
	var count int
	if !c.check(lexer.RightParen) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(lexer.Comma) {
				break
			}
		}
	}
	c.consume(lexer.RightParen, "Expect ')' after arguments.")
	return byte(count)
}

// dot implements property access, including the INVOKE fast path when
// the access is immediately called: `obj.m(args)` compiles straight to
// OP_INVOKE instead of OP_GET_PROPERTY + OP_CALL.
func (c *compiler) dot(canAssign bool) {
	c.consume(lexer.Identifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(lexer.Equal):
		c.expression()
		c.emitOpByte(bytecode.OpSetProperty, name)
	case c.match(lexer.LeftParen):
		argCount := c.argumentList()
		c.emitOpByte(bytecode.OpInvoke, name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(bytecode.OpGetProperty, name)
	}
}

func (c *compiler) this(_ bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

// super implements `super.method()` / `super.method`, resolving the hidden
// "super" local that classDeclaration binds in the scope around the class
// body (a method reaches it as an upvalue) — super dispatch never walks a
// runtime superclass chain, it reads that explicit superclass object.
func (c *compiler) super(_ bool) {
	if c.class == nil {
		c.error("Can't use 'super' outside of a class.")
		return
	} else if !c.class.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(lexer.Dot, "Expect '.' after 'super'.")
	c.consume(lexer.Identifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(syntheticToken("this"), false)
	if c.match(lexer.LeftParen) {
		argCount := c.argumentList()
		c.namedVariable(syntheticToken("super"), false)
		c.emitOpByte(bytecode.OpSuperInvoke, name)
		c.emitByte(argCount)
	} else {
		c.namedVariable(syntheticToken("super"), false)
		c.emitOpByte(bytecode.OpGetSuper, name)
	}
}

func syntheticToken(lexeme string) lexer.Token {
	return lexer.Token{Type: lexer.Identifier, Lexeme: lexeme}
}

func (c *compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

// namedVariable resolves name against the local/upvalue/global ladder and
// emits the matching GET or, when this is an assignment target, SET
// opcode.
func (c *compiler) namedVariable(name lexer.Token, canAssign bool) {
	var getOp, setOp bytecode.OpCode
	arg := resolveLocal(c.fn, name.Lexeme)
	if arg != -1 {
		if c.fn.locals[arg].depth == -1 {
			c.error("Can't read local variable in its own initializer.")
		}
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if arg = c.resolveUpvalue(c.fn, name.Lexeme); arg != -1 {
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(lexer.Equal) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}
