package compiler

// typedArena is a chunked bump allocator for values of one type. Chunks are
// fixed-capacity slices that are never grown in place, so pointers returned
// by alloc stay valid for the lifetime of the arena. There is no per-value
// free: the whole arena is released when the AST it owns is dropped.
type typedArena[T any] struct {
	chunks    [][]T
	chunkSize int
}

func newTypedArena[T any](chunkSize int) typedArena[T] {
	return typedArena[T]{chunkSize: chunkSize}
}

func (a *typedArena[T]) alloc(v T) *T {
	n := len(a.chunks)
	if n == 0 || len(a.chunks[n-1]) == cap(a.chunks[n-1]) {
		a.chunks = append(a.chunks, make([]T, 0, a.chunkSize))
		n++
	}
	chunk := &a.chunks[n-1]
	*chunk = append(*chunk, v)
	return &(*chunk)[len(*chunk)-1]
}

// nodeArena owns every AST node built during one compilation. The parser is
// the only writer; after parsing the tree is read-only and dies as a unit.
// A nodeArena must not be copied once nodes have been allocated from it.
type nodeArena struct {
	intLits  typedArena[IntLiteral]
	varRefs  typedArena[VarRef]
	parens   typedArena[ParenExpr]
	binaries typedArena[BinaryExpr]

	exits   typedArena[ExitStmt]
	lets    typedArena[LetStmt]
	assigns typedArena[AssignStmt]
	scopes  typedArena[ScopeStmt]
	ifs     typedArena[IfStmt]
	elifs   typedArena[ElifBranch]
	elses   typedArena[ElseBranch]
}

func newNodeArena() *nodeArena {
	return &nodeArena{
		intLits:  newTypedArena[IntLiteral](256),
		varRefs:  newTypedArena[VarRef](256),
		parens:   newTypedArena[ParenExpr](64),
		binaries: newTypedArena[BinaryExpr](256),
		exits:    newTypedArena[ExitStmt](32),
		lets:     newTypedArena[LetStmt](128),
		assigns:  newTypedArena[AssignStmt](128),
		scopes:   newTypedArena[ScopeStmt](64),
		ifs:      newTypedArena[IfStmt](64),
		elifs:    newTypedArena[ElifBranch](32),
		elses:    newTypedArena[ElseBranch](32),
	}
}

func (a *nodeArena) IntLiteral(value uint16) *IntLiteral {
	return a.intLits.alloc(IntLiteral{Value: value})
}

func (a *nodeArena) VarRef(name string, line int) *VarRef {
	return a.varRefs.alloc(VarRef{Name: name, Line: line})
}

func (a *nodeArena) Paren(inner Expr) *ParenExpr {
	return a.parens.alloc(ParenExpr{Inner: inner})
}

func (a *nodeArena) Binary(op TokenType, left, right Expr) *BinaryExpr {
	return a.binaries.alloc(BinaryExpr{Op: op, Left: left, Right: right})
}

func (a *nodeArena) Exit(expr Expr, line int) *ExitStmt {
	return a.exits.alloc(ExitStmt{Expr: expr, Line: line})
}

func (a *nodeArena) Let(name string, init Expr, line int) *LetStmt {
	return a.lets.alloc(LetStmt{Name: name, Init: init, Line: line})
}

func (a *nodeArena) Assign(name string, value Expr, line int) *AssignStmt {
	return a.assigns.alloc(AssignStmt{Name: name, Value: value, Line: line})
}

func (a *nodeArena) Scope(stmts []Stmt) *ScopeStmt {
	return a.scopes.alloc(ScopeStmt{Stmts: stmts})
}

func (a *nodeArena) If(cond Expr, then *ScopeStmt, chain ElseChain) *IfStmt {
	return a.ifs.alloc(IfStmt{Cond: cond, Then: then, Else: chain})
}

func (a *nodeArena) Elif(cond Expr, body *ScopeStmt, next ElseChain) *ElifBranch {
	return a.elifs.alloc(ElifBranch{Cond: cond, Body: body, Next: next})
}

func (a *nodeArena) Else(body *ScopeStmt) *ElseBranch {
	return a.elses.alloc(ElseBranch{Body: body})
}
