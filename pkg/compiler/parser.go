package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds an
// arena-owned AST.
//
// Grammar:
//
//	program   = statement* EOF
//	statement = "exit" "(" expression ")" ";"
//	          | "let" IDENTIFIER "=" expression ";"
//	          | IDENTIFIER "=" expression ";"
//	          | scope
//	          | "if" "(" expression ")" scope chain?
//	scope     = "{" statement* "}"
//	chain     = "elif" "(" expression ")" scope chain?
//	          | "else" scope
//	expression is parsed by precedence climbing over the table in binaryPrec;
//	terms are INTEGER | IDENTIFIER | "(" expression ")".
type Parser struct {
	tokens      []Token
	pos         int
	arena       *nodeArena
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{
		tokens:      tokens,
		arena:       newNodeArena(),
		sourceLines: strings.Split(rawSource, "\n"),
	}
}

// fmtError wraps an error message with the source line where the token appears.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	lineIdx := tok.Line - 1 // Lines are 1-based

	snippet := "<source unavailable>"
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}

	return fmt.Errorf("line %d: %s\n  |> %s", tok.Line, msg, snippet)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// peekNext returns the token immediately after the current one.
func (p *Parser) peekNext() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+1]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

// binaryPrec is the single source of truth for operator precedence. It
// returns the binding power of a binary operator token, or ok=false when the
// token is not a binary operator. All operators are left-associative, which
// parseExpr encodes by recursing with prec+1 for the right operand.
func binaryPrec(tt TokenType) (prec int, ok bool) {
	switch tt {
	case PLUS, MINUS:
		return 0, true
	case STAR, SLASH:
		return 1, true
	}
	return 0, false
}

// parseTerm parses one operand: an integer literal, a variable reference,
// or a parenthesised sub-expression.
func (p *Parser) parseTerm() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INTEGER:
		p.advance()
		val, err := strconv.ParseUint(tok.Lexeme, 10, 16)
		if err != nil {
			return nil, p.fmtError(tok, "integer %q out of 16-bit range", tok.Lexeme)
		}
		return p.arena.IntLiteral(uint16(val)), nil

	case IDENTIFIER:
		p.advance()
		return p.arena.VarRef(tok.Lexeme, tok.Line), nil

	case LPAREN:
		p.advance()
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return p.arena.Paren(inner), nil

	default:
		return nil, p.fmtError(tok, "expected expression, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

// parseExpr parses an expression by precedence climbing. It parses one term
// as the initial left operand, then as long as the next token is a binary
// operator binding at least as tightly as minPrec it consumes the operator,
// parses the right operand at one level higher, and rotates the accumulated
// expression into the Left slot of a fresh BinaryExpr.
func (p *Parser) parseExpr(minPrec int) (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		prec, ok := binaryPrec(p.peek().Type)
		if !ok || prec < minPrec {
			break
		}
		op := p.advance().Type
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = p.arena.Binary(op, left, right)
	}

	return left, nil
}

// parseScope parses { stmt* }. The leading LBRACE has not been consumed.
// Reaching end-of-stream before the closing brace is an error.
func (p *Parser) parseScope() (*ScopeStmt, error) {
	open, err := p.expect(LBRACE)
	if err != nil {
		return nil, err
	}

	var stmts []Stmt
	for p.peek().Type != RBRACE {
		if p.peek().Type == EOF {
			return nil, p.fmtError(open, "unclosed scope: missing '}'")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.advance() // consume '}'

	return p.arena.Scope(stmts), nil
}

// parseChain parses the optional elif/else continuation of an if statement.
// Returns nil when the next token starts neither branch.
func (p *Parser) parseChain() (ElseChain, error) {
	switch p.peek().Type {
	case ELIF:
		p.advance()
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseScope()
		if err != nil {
			return nil, err
		}
		next, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		return p.arena.Elif(cond, body, next), nil

	case ELSE:
		p.advance()
		body, err := p.parseScope()
		if err != nil {
			return nil, err
		}
		return p.arena.Else(body), nil
	}

	return nil, nil
}

// parseStmt dispatches to the correct sub-parser based on lookahead. No
// token is consumed until the dispatch has picked a branch.
func (p *Parser) parseStmt() (Stmt, error) {
	tok := p.peek()
	switch tok.Type {

	case EXIT:
		p.advance()
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return p.arena.Exit(expr, tok.Line), nil

	case LET:
		p.advance()
		nameTok, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(ASSIGN); err != nil {
			return nil, err
		}
		init, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return p.arena.Let(nameTok.Lexeme, init, nameTok.Line), nil

	case IDENTIFIER:
		if p.peekNext().Type != ASSIGN {
			return nil, p.fmtError(tok, "expected statement, got %s (%q)", tok.Type, tok.Lexeme)
		}
		nameTok := p.advance()
		p.advance() // consume '='
		value, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return p.arena.Assign(nameTok.Lexeme, value, nameTok.Line), nil

	case LBRACE:
		return p.parseScope()

	case IF:
		p.advance()
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		then, err := p.parseScope()
		if err != nil {
			return nil, err
		}
		chain, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		return p.arena.If(cond, then, chain), nil

	default:
		return nil, p.fmtError(tok, "expected statement, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

// Parse builds the Program for an entire token stream. The first malformed
// construct aborts the parse; there is no partial AST.
func Parse(tokens []Token, rawSource string) (*Program, error) {
	p := NewParser(tokens, rawSource)
	prog := &Program{}
	for p.peek().Type != EOF {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog, nil
}
