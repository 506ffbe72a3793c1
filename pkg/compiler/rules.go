package compiler

import "github.com/glox-lang/glox/pkg/lexer"

// precedence orders glox's binary/unary operators lowest to highest, the
// same ladder every Pratt parser in the clox family climbs.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.LeftParen:    {prefix: (*compiler).grouping, infix: (*compiler).call, precedence: precCall},
		lexer.Dot:          {infix: (*compiler).dot, precedence: precCall},
		lexer.Minus:        {prefix: (*compiler).unary, infix: (*compiler).binary, precedence: precTerm},
		lexer.Plus:         {infix: (*compiler).binary, precedence: precTerm},
		lexer.Slash:        {infix: (*compiler).binary, precedence: precFactor},
		lexer.Star:         {infix: (*compiler).binary, precedence: precFactor},
		lexer.Bang:         {prefix: (*compiler).unary},
		lexer.BangEqual:    {infix: (*compiler).binary, precedence: precEquality},
		lexer.EqualEqual:   {infix: (*compiler).binary, precedence: precEquality},
		lexer.Greater:      {infix: (*compiler).binary, precedence: precComparison},
		lexer.GreaterEqual: {infix: (*compiler).binary, precedence: precComparison},
		lexer.Less:         {infix: (*compiler).binary, precedence: precComparison},
		lexer.LessEqual:    {infix: (*compiler).binary, precedence: precComparison},
		lexer.Identifier:   {prefix: (*compiler).variable},
		lexer.String:       {prefix: (*compiler).string},
		lexer.Number:       {prefix: (*compiler).number},
		lexer.And:          {infix: (*compiler).and},
		lexer.Or:           {infix: (*compiler).or},
		lexer.False:        {prefix: (*compiler).literal},
		lexer.Nil:          {prefix: (*compiler).literal},
		lexer.True:         {prefix: (*compiler).literal},
		lexer.This:         {prefix: (*compiler).this},
		lexer.Super:        {prefix: (*compiler).super},
	}
}

func ruleFor(t lexer.TokenType) parseRule { return rules[t] }

// parsePrecedence is the heart of the Pratt parser: consume a prefix
// expression, then keep folding in infix operators whose precedence is at
// least minPrec. canAssign threads through so `a.b = 1` can tell an
// assignment target apart from a read in the middle of a larger
// expression like `a + b.c = 1`, which glox — like its teacher family —
// rejects.
func (c *compiler) parsePrecedence(minPrec precedence) {
	c.advance()
	prefix := ruleFor(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := minPrec <= precAssignment
	prefix(c, canAssign)

	for minPrec <= ruleFor(c.current.Type).precedence {
		c.advance()
		infix := ruleFor(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(lexer.Equal) {
		c.error("Invalid assignment target.")
	}
}

func (c *compiler) expression() { c.parsePrecedence(precAssignment) }
