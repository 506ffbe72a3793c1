package compiler

import (
	"github.com/glox-lang/glox/pkg/bytecode"
	"github.com/glox-lang/glox/pkg/lexer"
)

func (c *compiler) declaration() {
	switch {
	case c.match(lexer.Class):
		c.classDeclaration()
	case c.match(lexer.Fun):
		c.funDeclaration()
	case c.match(lexer.Var):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *compiler) statement() {
	switch {
	case c.match(lexer.Print):
		c.printStatement()
	case c.match(lexer.For):
		c.forStatement()
	case c.match(lexer.If):
		c.ifStatement()
	case c.match(lexer.Return):
		c.returnStatement()
	case c.match(lexer.While):
		c.whileStatement()
	case c.match(lexer.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *compiler) block() {
	for !c.check(lexer.RightBrace) && !c.check(lexer.EOF) {
		c.declaration()
	}
	c.consume(lexer.RightBrace, "Expect '}' after block.")
}

func (c *compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(lexer.Equal) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(lexer.Semicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *compiler) expressionStatement() {
	c.expression()
	c.consume(lexer.Semicolon, "Expect ';' after expression.")
	c.emitOp(bytecode.OpPop)
}

func (c *compiler) printStatement() {
	c.expression()
	c.consume(lexer.Semicolon, "Expect ';' after value.")
	c.emitOp(bytecode.OpPrint)
}

func (c *compiler) returnStatement() {
	if c.fn.kind == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(lexer.Semicolon) {
		c.emitReturn()
		return
	}
	if c.fn.kind == typeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(lexer.Semicolon, "Expect ';' after return value.")
	c.emitOp(bytecode.OpReturn)
}

func (c *compiler) ifStatement() {
	c.consume(lexer.LeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(lexer.RightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(lexer.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(lexer.LeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(lexer.RightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

// forStatement desugars entirely to while-shaped jumps at compile time —
// the bytecode has no loop construct of its own, only JUMP/LOOP.
func (c *compiler) forStatement() {
	c.beginScope()
	c.consume(lexer.LeftParen, "Expect '(' after 'for'.")

	switch {
	case c.match(lexer.Semicolon):
		// no initializer
	case c.match(lexer.Var):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(lexer.Semicolon) {
		c.expression()
		c.consume(lexer.Semicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	}

	if !c.match(lexer.RightParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(lexer.RightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}
	c.endScope()
}

func (c *compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(typeFunction)
	c.defineVariable(global)
}

// function compiles one function body into its own funcState and emits a
// CLOSURE opcode with its upvalue operands in the enclosing chunk — the
// compile-time half of closure creation.
func (c *compiler) function(kind funcType) {
	c.fn = &funcState{enclosing: c.fn, kind: kind, function: c.alloc.NewFunction()}
	if kind != typeScript {
		c.fn.function.Name = c.alloc.CopyString(c.previous.Lexeme)
	}
	// Slot 0: the callable for ordinary functions, the receiver for
	// methods/initializers (named "this" so `this` resolves as a local).
	recv := ""
	if kind == typeMethod || kind == typeInitializer {
		recv = "this"
	}
	c.fn.locals = append(c.fn.locals, local{name: lexer.Token{Lexeme: recv}, depth: 0})

	c.beginScope()
	c.consume(lexer.LeftParen, "Expect '(' after function name.")
	if !c.check(lexer.RightParen) {
		for {
			c.fn.function.Arity++
			if c.fn.function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(lexer.Comma) {
				break
			}
		}
	}
	c.consume(lexer.RightParen, "Expect ')' after parameters.")
	c.consume(lexer.LeftBrace, "Expect '{' before function body.")
	c.block()

	fn := c.endFunction()
	upvalues := c.pendingUpvalues

	c.emitOpByte(bytecode.OpClosure, c.makeConstant(bytecode.ObjVal(fn)))
	for _, up := range upvalues {
		if up.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(up.index)
	}
}

func (c *compiler) classDeclaration() {
	c.consume(lexer.Identifier, "Expect class name.")
	nameTok := c.previous
	nameConstant := c.identifierConstant(nameTok)
	c.declareVariable()

	c.emitOpByte(bytecode.OpClass, nameConstant)
	c.defineVariable(nameConstant)

	class := &classState{enclosing: c.class}
	c.class = class

	if c.match(lexer.Less) {
		c.consume(lexer.Identifier, "Expect superclass name.")
		c.variable(false)
		if c.previous.Lexeme == nameTok.Lexeme {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal(syntheticToken("super"))
		c.defineVariable(0)

		c.namedVariable(nameTok, false)
		c.emitOp(bytecode.OpInherit)
		class.hasSuperclass = true
	}

	c.namedVariable(nameTok, false)
	c.consume(lexer.LeftBrace, "Expect '{' before class body.")
	for !c.check(lexer.RightBrace) && !c.check(lexer.EOF) {
		c.method()
	}
	c.consume(lexer.RightBrace, "Expect '}' after class body.")
	c.emitOp(bytecode.OpPop) // the class binding pushed for method definitions

	if class.hasSuperclass {
		c.endScope()
	}
	c.class = c.class.enclosing
}

func (c *compiler) method() {
	c.consume(lexer.Identifier, "Expect method name.")
	name := c.previous
	constant := c.identifierConstant(name)

	kind := typeMethod
	if name.Lexeme == "init" {
		kind = typeInitializer
	}
	c.function(kind)
	c.emitOpByte(bytecode.OpMethod, constant)
}
