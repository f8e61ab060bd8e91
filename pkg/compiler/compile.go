package compiler

import (
	"fmt"

	"hydro/pkg/asm"
)

// Compile runs the full pipeline: lex, parse, generate, assemble. It returns
// the generated assembly text alongside the machine code image so callers
// can show or save the intermediate form.
func Compile(src string) (string, []byte, error) {
	tokens, err := Lex(src)
	if err != nil {
		return "", nil, fmt.Errorf("lex error: %w", err)
	}

	prog, err := Parse(tokens, src)
	if err != nil {
		return "", nil, fmt.Errorf("parse error: %w", err)
	}

	assembly, err := Generate(prog)
	if err != nil {
		return "", nil, fmt.Errorf("codegen error: %w", err)
	}

	machineCode, err := asm.Assemble(assembly)
	if err != nil {
		return assembly, nil, fmt.Errorf("assembly error: %w", err)
	}

	return assembly, machineCode, nil
}
