package asm

import (
	"bytes"
	"strings"
	"testing"

	"hydro/pkg/cpu"
)

func words(ws ...uint16) []byte {
	var b []byte
	for _, w := range ws {
		b = append(b, byte(w&0xFF), byte(w>>8))
	}
	return b
}

func TestAssembleBasic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []byte
	}{
		{
			"Zero Operand",
			"HLT",
			words(cpu.EncodeInstruction(cpu.OpHLT, 0, 0)),
		},
		{
			"One Register",
			"PUSH R3",
			words(cpu.EncodeInstruction(cpu.OpPUSH, 3, 0)),
		},
		{
			"Two Register",
			"ADD R0, R1",
			words(cpu.EncodeInstruction(cpu.OpADD, 0, 1)),
		},
		{
			"Register And Immediate",
			"LDI R2, 42",
			words(cpu.EncodeInstruction(cpu.OpLDI, 2, 0), 42),
		},
		{
			"Hex Immediate",
			"LDI R0, 0xFFFE",
			words(cpu.EncodeInstruction(cpu.OpLDI, 0, 0), 0xFFFE),
		},
		{
			"Memory Operand Brackets",
			"LD R0, [R1]",
			words(cpu.EncodeInstruction(cpu.OpLD, 0, 1)),
		},
		{
			"Store Brackets",
			"ST [R1], R0",
			words(cpu.EncodeInstruction(cpu.OpST, 1, 0)),
		},
		{
			"Word Directive",
			".WORD 0x1234",
			words(0x1234),
		},
		{
			"Comment And Blank Lines",
			"; header comment\n\nNOP ; trailing\n",
			words(cpu.EncodeInstruction(cpu.OpNOP, 0, 0)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assemble(tt.src)
			if err != nil {
				t.Fatalf("Assemble failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Assemble(%q) = % X, want % X", tt.src, got, tt.want)
			}
		})
	}
}

func TestAssembleLabelResolution(t *testing.T) {
	src := `
start:
    JMP end
    NOP
end:
    HLT
`
	got, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	// JMP is 4 bytes, NOP is 2, so end binds to address 6.
	want := words(
		cpu.EncodeInstruction(cpu.OpJMP, 0, 0), 6,
		cpu.EncodeInstruction(cpu.OpNOP, 0, 0),
		cpu.EncodeInstruction(cpu.OpHLT, 0, 0),
	)
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestAssembleForwardAndBackwardLabels(t *testing.T) {
	src := `
loop:
    JNZ loop
    JMP done
done:
    HLT
`
	got, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	want := words(
		cpu.EncodeInstruction(cpu.OpJNZ, 0, 0), 0,
		cpu.EncodeInstruction(cpu.OpJMP, 0, 0), 8,
		cpu.EncodeInstruction(cpu.OpHLT, 0, 0),
	)
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestAssembleLabelsCaseInsensitive(t *testing.T) {
	src := "Target:\n    JMP TARGET"
	if _, err := Assemble(src); err != nil {
		t.Fatalf("labels should match case-insensitively: %v", err)
	}
}

func TestAssembleLabelOnInstructionLine(t *testing.T) {
	src := "start: HLT"
	got, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	want := words(cpu.EncodeInstruction(cpu.OpHLT, 0, 0))
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"Unknown Instruction", "FROB R0", "unknown instruction"},
		{"Undefined Label", "JMP nowhere", `undefined label "nowhere"`},
		{"Duplicate Label", "a:\na:\nHLT", `duplicate label "a"`},
		{"Invalid Register", "PUSH R9", "invalid register"},
		{"Too Few Operands", "ADD R0", "expects 2 operands"},
		{"Too Many Operands", "HLT R0", "expects 0 operands"},
		{"Immediate Out Of Range", "LDI R0, 70000", "immediate out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(tt.src)
			if err == nil {
				t.Fatalf("Assemble(%q) succeeded, want error", tt.src)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want substring %q", err, tt.wantMsg)
			}
		})
	}
}
