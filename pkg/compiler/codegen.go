package compiler

import (
	"fmt"
	"strings"
)

// wordSize is the width in bytes of one stack slot on the target machine.
const wordSize = 2

// binding records one live variable: the name and the zero-based depth of
// its slot counted from the bottom of the virtual stack. A binding is
// pending while its own initializer is being generated, during which lookups
// skip it so the initializer can still read an outer variable of the same
// name.
type binding struct {
	name    string
	slot    int
	pending bool
}

// CodeGen walks an AST and emits assembly source text. It mirrors the
// hardware stack with a virtual one: stackSize counts words pushed so far,
// bindings maps names to slots in declaration order, and scopeMarks remembers
// how many bindings were live when each open scope began.
type CodeGen struct {
	out        strings.Builder
	stackSize  int
	bindings   []binding
	scopeMarks []int
	nextLabel  int
}

func newCodeGen() *CodeGen {
	return &CodeGen{}
}

func (cg *CodeGen) newLabel() string {
	l := fmt.Sprintf("label%d", cg.nextLabel)
	cg.nextLabel++
	return l
}

func (cg *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

func (cg *CodeGen) comment(format string, args ...any) {
	cg.line("    ; "+format, args...)
}

// lookup finds the innermost visible binding for name. Later entries shadow
// earlier ones, so the scan runs back to front. Pending bindings are not
// visible yet.
func (cg *CodeGen) lookup(name string) (*binding, bool) {
	for i := len(cg.bindings) - 1; i >= 0; i-- {
		if cg.bindings[i].name == name && !cg.bindings[i].pending {
			return &cg.bindings[i], true
		}
	}
	return nil, false
}

// declaredInCurrentScope reports whether name was already declared since the
// innermost scope opened. Shadowing an outer binding is allowed; declaring
// the same name twice in one scope is not.
func (cg *CodeGen) declaredInCurrentScope(name string) bool {
	mark := 0
	if len(cg.scopeMarks) > 0 {
		mark = cg.scopeMarks[len(cg.scopeMarks)-1]
	}
	for i := mark; i < len(cg.bindings); i++ {
		if cg.bindings[i].name == name {
			return true
		}
	}
	return false
}

// push emits a PUSH of reg and grows the virtual stack to match.
func (cg *CodeGen) push(reg string) {
	cg.line("    PUSH %s", reg)
	cg.stackSize++
}

// pop emits a POP into reg and shrinks the virtual stack to match.
func (cg *CodeGen) pop(reg string) {
	cg.line("    POP %s", reg)
	cg.stackSize--
}

// slotOffset is the byte distance from the current stack pointer to the
// binding's slot. The most recently pushed word sits at offset 0.
func (cg *CodeGen) slotOffset(b *binding) int {
	return (cg.stackSize - b.slot - 1) * wordSize
}

// genExpr generates code that leaves the value of e on the hardware stack.
// Every expression pushes exactly one word.
func (cg *CodeGen) genExpr(e Expr) error {
	switch n := e.(type) {
	case *IntLiteral:
		cg.line("    LDI R0, %d", n.Value)
		cg.push("R0")
		return nil

	case *VarRef:
		b, ok := cg.lookup(n.Name)
		if !ok {
			return fmt.Errorf("line %d: undeclared identifier %q", n.Line, n.Name)
		}
		cg.line("    LDSP R1")
		cg.line("    LDI R2, %d", cg.slotOffset(b))
		cg.line("    ADD R1, R2")
		cg.line("    LD R0, [R1]")
		cg.push("R0")
		return nil

	case *ParenExpr:
		return cg.genExpr(n.Inner)

	case *BinaryExpr:
		// Right first, so the left operand ends up on top and the two
		// POPs below restore source order into R0 and R1.
		if err := cg.genExpr(n.Right); err != nil {
			return err
		}
		if err := cg.genExpr(n.Left); err != nil {
			return err
		}
		cg.pop("R0")
		cg.pop("R1")
		switch n.Op {
		case PLUS:
			cg.line("    ADD R0, R1")
		case MINUS:
			cg.line("    SUB R0, R1")
		case STAR:
			cg.line("    MUL R0, R1")
		case SLASH:
			cg.line("    DIV R0, R1")
		default:
			return fmt.Errorf("unsupported binary operator %s", n.Op)
		}
		cg.push("R0")
		return nil
	}

	return fmt.Errorf("unsupported expression node %T", e)
}

// genCondBranch evaluates cond and jumps to falseLabel when it is zero.
func (cg *CodeGen) genCondBranch(cond Expr, falseLabel string) error {
	if err := cg.genExpr(cond); err != nil {
		return err
	}
	cg.pop("R0")
	cg.line("    OR R0, R0")
	cg.line("    JZ %s", falseLabel)
	return nil
}

// beginScope marks the current binding count so endScope can discard
// everything declared after it.
func (cg *CodeGen) beginScope() {
	cg.scopeMarks = append(cg.scopeMarks, len(cg.bindings))
}

// endScope drops the bindings declared in the innermost scope and frees
// their stack slots in one stack pointer adjustment. A scope that declared
// nothing emits nothing, so entering and leaving an empty scope is a no-op.
func (cg *CodeGen) endScope() {
	mark := cg.scopeMarks[len(cg.scopeMarks)-1]
	cg.scopeMarks = cg.scopeMarks[:len(cg.scopeMarks)-1]

	popCount := len(cg.bindings) - mark
	if popCount > 0 {
		cg.line("    LDSP R1")
		cg.line("    LDI R2, %d", popCount*wordSize)
		cg.line("    ADD R1, R2")
		cg.line("    STSP R1")
		cg.stackSize -= popCount
	}
	cg.bindings = cg.bindings[:mark]
}

func (cg *CodeGen) genScope(s *ScopeStmt) error {
	cg.beginScope()
	for _, stmt := range s.Stmts {
		if err := cg.genStmt(stmt); err != nil {
			return err
		}
	}
	cg.endScope()
	return nil
}

// genChain generates the elif/else continuation of an if statement. Every
// branch in the chain jumps to the one shared endLabel after its body, so at
// most one body ever runs.
func (cg *CodeGen) genChain(chain ElseChain, endLabel string) error {
	switch n := chain.(type) {
	case *ElifBranch:
		next := endLabel
		if n.Next != nil {
			next = cg.newLabel()
		}
		if err := cg.genCondBranch(n.Cond, next); err != nil {
			return err
		}
		if err := cg.genScope(n.Body); err != nil {
			return err
		}
		if n.Next != nil {
			cg.line("    JMP %s", endLabel)
			cg.line("%s:", next)
			return cg.genChain(n.Next, endLabel)
		}
		return nil

	case *ElseBranch:
		return cg.genScope(n.Body)
	}

	return fmt.Errorf("unsupported chain node %T", chain)
}

func (cg *CodeGen) genStmt(s Stmt) error {
	switch n := s.(type) {
	case *ExitStmt:
		cg.comment("exit")
		if err := cg.genExpr(n.Expr); err != nil {
			return err
		}
		cg.pop("R0")
		cg.line("    HLT")
		return nil

	case *LetStmt:
		if cg.declaredInCurrentScope(n.Name) {
			return fmt.Errorf("line %d: identifier %q already used", n.Line, n.Name)
		}
		cg.comment("let %s", n.Name)
		// Append the binding first so its slot is fixed, but keep it
		// pending so the initializer still sees any outer binding of
		// the same name.
		cg.bindings = append(cg.bindings, binding{name: n.Name, slot: cg.stackSize, pending: true})
		idx := len(cg.bindings) - 1
		if err := cg.genExpr(n.Init); err != nil {
			return err
		}
		cg.bindings[idx].pending = false
		return nil

	case *AssignStmt:
		b, ok := cg.lookup(n.Name)
		if !ok {
			return fmt.Errorf("line %d: undeclared identifier %q", n.Line, n.Name)
		}
		cg.comment("%s =", n.Name)
		if err := cg.genExpr(n.Value); err != nil {
			return err
		}
		cg.pop("R0")
		cg.line("    LDSP R1")
		cg.line("    LDI R2, %d", cg.slotOffset(b))
		cg.line("    ADD R1, R2")
		cg.line("    ST [R1], R0")
		return nil

	case *ScopeStmt:
		return cg.genScope(n)

	case *IfStmt:
		endLabel := cg.newLabel()
		falseLabel := endLabel
		if n.Else != nil {
			falseLabel = cg.newLabel()
		}
		cg.comment("if")
		if err := cg.genCondBranch(n.Cond, falseLabel); err != nil {
			return err
		}
		if err := cg.genScope(n.Then); err != nil {
			return err
		}
		if n.Else != nil {
			cg.line("    JMP %s", endLabel)
			cg.line("%s:", falseLabel)
			if err := cg.genChain(n.Else, endLabel); err != nil {
				return err
			}
		}
		cg.line("%s:", endLabel)
		return nil
	}

	return fmt.Errorf("unsupported statement node %T", s)
}

// Generate emits the assembly source for an entire program. Programs that
// never reach an exit statement fall through to an epilogue that halts with
// status 0.
func Generate(prog *Program) (string, error) {
	cg := newCodeGen()
	cg.line("start:")
	for _, s := range prog.Stmts {
		if err := cg.genStmt(s); err != nil {
			return "", err
		}
	}
	cg.comment("implicit exit 0")
	cg.line("    LDI R0, 0")
	cg.line("    HLT")
	return cg.out.String(), nil
}
