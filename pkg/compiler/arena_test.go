package compiler

import "testing"

// TestArenaPointerStability allocates enough nodes to force several chunk
// spills and checks that earlier pointers still see their values.
func TestArenaPointerStability(t *testing.T) {
	a := newNodeArena()

	const n = 1000 // well past the chunk size
	refs := make([]*IntLiteral, n)
	for i := 0; i < n; i++ {
		refs[i] = a.IntLiteral(uint16(i))
	}

	for i, r := range refs {
		if r.Value != uint16(i) {
			t.Fatalf("node %d: value = %d after later allocations", i, r.Value)
		}
	}
}

func TestArenaDistinctPointers(t *testing.T) {
	a := newNodeArena()
	x := a.VarRef("x", 1)
	y := a.VarRef("x", 1)
	if x == y {
		t.Fatal("allocations must return distinct nodes")
	}
}

// TestArenaTreeIntegrity builds a small expression tree across several node
// types and checks the links survive more allocation.
func TestArenaTreeIntegrity(t *testing.T) {
	a := newNodeArena()

	left := a.IntLiteral(2)
	right := a.IntLiteral(3)
	sum := a.Binary(PLUS, left, right)

	for i := 0; i < 500; i++ {
		a.IntLiteral(uint16(i))
		a.Binary(STAR, a.IntLiteral(1), a.IntLiteral(1))
	}

	if sum.Left != Expr(left) || sum.Right != Expr(right) {
		t.Fatal("tree links broken after later allocations")
	}
	if sum.String() != "(2 + 3)" {
		t.Errorf("String() = %q, want %q", sum.String(), "(2 + 3)")
	}
}
