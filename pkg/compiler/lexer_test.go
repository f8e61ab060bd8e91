package compiler

import (
	"reflect"
	"strings"
	"testing"
)

func TestLexBasicProgram(t *testing.T) {
	src := "let x = 7;\nexit(x);"
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}

	if !reflect.DeepEqual(tokens, []Token{
		{Type: LET, Lexeme: "let", Line: 1},
		{Type: IDENTIFIER, Lexeme: "x", Line: 1},
		{Type: ASSIGN, Lexeme: "=", Line: 1},
		{Type: INTEGER, Lexeme: "7", Line: 1},
		{Type: SEMICOLON, Lexeme: ";", Line: 1},
		{Type: EXIT, Lexeme: "exit", Line: 2},
		{Type: LPAREN, Lexeme: "(", Line: 2},
		{Type: IDENTIFIER, Lexeme: "x", Line: 2},
		{Type: RPAREN, Lexeme: ")", Line: 2},
		{Type: SEMICOLON, Lexeme: ";", Line: 2},
		{Type: EOF, Line: 2},
	}) {
		t.Errorf("unexpected token stream:\n%v", tokens)
	}
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"exit", EXIT},
		{"let", LET},
		{"if", IF},
		{"elif", ELIF},
		{"else", ELSE},
		{"exits", IDENTIFIER},
		{"letter", IDENTIFIER},
		{"_x", IDENTIFIER},
		{"x9", IDENTIFIER},
	}

	for _, tt := range tests {
		tokens, err := Lex(tt.input)
		if err != nil {
			t.Fatalf("Lex(%q) failed: %v", tt.input, err)
		}
		if len(tokens) != 2 || tokens[0].Type != tt.expected {
			t.Errorf("Lex(%q) = %v, want single %s", tt.input, tokens, tt.expected)
		}
	}
}

func TestLexOperators(t *testing.T) {
	tokens, err := Lex("+ - * / = ( ) { } ;")
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}

	want := []TokenType{PLUS, MINUS, STAR, SLASH, ASSIGN, LPAREN, RPAREN, LBRACE, RBRACE, SEMICOLON, EOF}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, tt := range want {
		if tokens[i].Type != tt {
			t.Errorf("token %d: got %s, want %s", i, tokens[i].Type, tt)
		}
	}
}

func TestLexComments(t *testing.T) {
	src := `// leading comment
let a = 1; // trailing comment
/* block
   spanning lines */ exit(a);`

	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}

	var types []TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	want := []TokenType{LET, IDENTIFIER, ASSIGN, INTEGER, SEMICOLON, EXIT, LPAREN, IDENTIFIER, RPAREN, SEMICOLON, EOF}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("got %v, want %v", types, want)
	}

	// Line numbers must survive multi-line block comments.
	if tokens[5].Line != 4 {
		t.Errorf("exit token on line %d, want 4", tokens[5].Line)
	}
}

func TestLexUnterminatedBlockComment(t *testing.T) {
	_, err := Lex("let a = 1; /* never closed")
	if err == nil {
		t.Fatal("expected error for unterminated block comment")
	}
	if !strings.Contains(err.Error(), "unterminated block comment") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLexUnexpectedCharacter(t *testing.T) {
	_, err := Lex("let a = 1;\nexit(a) @;")
	if err == nil {
		t.Fatal("expected error for unexpected character")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name line 2: %v", err)
	}
}
