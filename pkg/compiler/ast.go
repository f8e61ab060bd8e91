package compiler

import (
	"fmt"
	"strings"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
// All nodes live in the parser's arena and form a strict tree; child
// pointers are non-owning and the tree is read-only after parsing.
type Expr interface {
	exprNode()
	String() string
}

// IntLiteral is a compile-time integer constant.
//
//	exit(42);
//	      ^^  IntLiteral{Value: 42}
type IntLiteral struct {
	Value uint16
}

func (*IntLiteral) exprNode()        {}
func (l *IntLiteral) String() string { return fmt.Sprintf("%d", l.Value) }

// VarRef is a read of a named variable.
type VarRef struct {
	Name string
	Line int
}

func (*VarRef) exprNode()        {}
func (v *VarRef) String() string { return v.Name }

// ParenExpr is an explicitly parenthesised sub-expression. It emits no code
// of its own; it exists so the tree mirrors the source.
type ParenExpr struct {
	Inner Expr
}

func (*ParenExpr) exprNode()        {}
func (p *ParenExpr) String() string { return fmt.Sprintf("(%s)", p.Inner) }

// BinaryExpr represents Left Op Right for Op in + - * /.
// The parser always rotates the previously accumulated expression into
// Left, which is what makes every operator left-associative.
type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, opSymbol(b.Op), b.Right)
}

func opSymbol(op TokenType) string {
	switch op {
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	}
	return op.String()
}

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	String() string
}

// ExitStmt represents  exit(expr);
type ExitStmt struct {
	Expr Expr
	Line int
}

func (*ExitStmt) stmtNode()        {}
func (s *ExitStmt) String() string { return fmt.Sprintf("Exit(%s)", s.Expr) }

// LetStmt represents  let name = expr;  declaring a new binding.
type LetStmt struct {
	Name string
	Init Expr
	Line int
}

func (*LetStmt) stmtNode()        {}
func (s *LetStmt) String() string { return fmt.Sprintf("Let(%s = %s)", s.Name, s.Init) }

// AssignStmt represents  name = expr;  mutating an existing binding.
type AssignStmt struct {
	Name  string
	Value Expr
	Line  int
}

func (*AssignStmt) stmtNode()        {}
func (s *AssignStmt) String() string { return fmt.Sprintf("Assign(%s = %s)", s.Name, s.Value) }

// ScopeStmt represents { statement; ... }, a nested lexical region.
type ScopeStmt struct {
	Stmts []Stmt
}

func (*ScopeStmt) stmtNode()        {}
func (s *ScopeStmt) String() string { return fmt.Sprintf("Scope(len=%d)", len(s.Stmts)) }

// ElseChain is the closed set of things that can follow an if's body:
// an elif branch (which may chain further) or a terminal else branch.
type ElseChain interface {
	elseChainNode()
	String() string
}

// ElifBranch represents  elif (cond) { ... } [chain]
type ElifBranch struct {
	Cond Expr
	Body *ScopeStmt
	Next ElseChain // may be nil
}

func (*ElifBranch) elseChainNode() {}
func (e *ElifBranch) String() string {
	if e.Next != nil {
		return fmt.Sprintf("Elif(%s %s %s)", e.Cond, e.Body, e.Next)
	}
	return fmt.Sprintf("Elif(%s %s)", e.Cond, e.Body)
}

// ElseBranch represents a terminal  else { ... }
type ElseBranch struct {
	Body *ScopeStmt
}

func (*ElseBranch) elseChainNode()   {}
func (e *ElseBranch) String() string { return fmt.Sprintf("Else(%s)", e.Body) }

// IfStmt represents  if (cond) { ... } [elif ... | else ...]
type IfStmt struct {
	Cond Expr
	Then *ScopeStmt
	Else ElseChain // may be nil
}

func (*IfStmt) stmtNode() {}
func (i *IfStmt) String() string {
	if i.Else != nil {
		return fmt.Sprintf("If(%s then %s %s)", i.Cond, i.Then, i.Else)
	}
	return fmt.Sprintf("If(%s then %s)", i.Cond, i.Then)
}

// Program is the ordered sequence of top-level statements. Every node
// reachable from Stmts was allocated from the parser's arena and the tree
// is released as one unit.
type Program struct {
	Stmts []Stmt
}

func (p *Program) String() string {
	var b strings.Builder
	for _, s := range p.Stmts {
		fmt.Fprintln(&b, s)
	}
	return b.String()
}
