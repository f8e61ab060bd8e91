// Package asm assembles hydro assembly text into a machine-code image for
// the virtual CPU. Assembly runs in two passes: pass 1 sizes every
// instruction and binds labels to addresses, pass 2 encodes.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"hydro/pkg/cpu"
)

var zeroOperandOps = map[string]uint16{
	"HLT": cpu.OpHLT,
	"NOP": cpu.OpNOP,
}

var oneRegisterOps = map[string]uint16{
	"NOT":  cpu.OpNOT,
	"PUSH": cpu.OpPUSH,
	"POP":  cpu.OpPOP,
	"LDSP": cpu.OpLDSP,
	"STSP": cpu.OpSTSP,
}

var twoRegisterOps = map[string]uint16{
	"MOV": cpu.OpMOV,
	"LD":  cpu.OpLD,
	"ST":  cpu.OpST,
	"ADD": cpu.OpADD,
	"SUB": cpu.OpSUB,
	"MUL": cpu.OpMUL,
	"DIV": cpu.OpDIV,
	"AND": cpu.OpAND,
	"OR":  cpu.OpOR,
	"XOR": cpu.OpXOR,
	"SHL": cpu.OpSHL,
	"SHR": cpu.OpSHR,
}

var regAndImmediateOps = map[string]uint16{
	"LDI": cpu.OpLDI,
}

var immediateOnlyOps = map[string]uint16{
	"JMP": cpu.OpJMP,
	"JZ":  cpu.OpJZ,
	"JNZ": cpu.OpJNZ,
}

type Assembler struct {
	labels map[string]uint16
}

type parsedLine struct {
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{labels: make(map[string]uint16)}
}

// Assemble is a convenience wrapper around a one-shot Assembler.
func Assemble(code string) ([]byte, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]byte, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, err
	}
	return a.pass2(lines)
}

func (a *Assembler) pass1(lines []string) error {
	var address uint32

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			if address > 0xFFFF {
				return fmt.Errorf("label %q on line %d points past addressable memory", lbl, lineNo)
			}
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label %q on line %d", lbl, lineNo)
			}
			a.labels[key] = uint16(address)
		}

		if p.mnemonic == "" {
			continue
		}

		if p.mnemonic == ".WORD" {
			if len(p.operands) != 1 {
				return fmt.Errorf(".WORD expects exactly one operand on line %d", lineNo)
			}
			address += 2
			continue
		}

		length, ok := instructionLength(p.mnemonic)
		if !ok {
			return fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
		}

		if address+uint32(length) > cpu.MemorySize {
			return fmt.Errorf("program too large near line %d", lineNo)
		}
		address += uint32(length)
	}

	return nil
}

func (a *Assembler) pass2(lines []string) ([]byte, error) {
	program := make([]byte, 0)

	emit := func(word uint16) {
		program = append(program, byte(word&0xFF), byte(word>>8))
	}

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		mnemonic := p.mnemonic
		ops := p.operands

		if mnemonic == ".WORD" {
			val, err := a.parseImmediate(ops[0], lineNo)
			if err != nil {
				return nil, err
			}
			emit(val)
			continue
		}

		if opcode, ok := zeroOperandOps[mnemonic]; ok {
			if len(ops) != 0 {
				return nil, fmt.Errorf("%s expects 0 operands on line %d", mnemonic, lineNo)
			}
			emit(cpu.EncodeInstruction(opcode, 0, 0))
			continue
		}

		if opcode, ok := oneRegisterOps[mnemonic]; ok {
			if len(ops) != 1 {
				return nil, fmt.Errorf("%s expects 1 operand on line %d", mnemonic, lineNo)
			}
			regA, err := parseRegister(ops[0], lineNo)
			if err != nil {
				return nil, err
			}
			emit(cpu.EncodeInstruction(opcode, regA, 0))
			continue
		}

		if opcode, ok := twoRegisterOps[mnemonic]; ok {
			if len(ops) != 2 {
				return nil, fmt.Errorf("%s expects 2 operands on line %d", mnemonic, lineNo)
			}
			regA, err := parseRegister(ops[0], lineNo)
			if err != nil {
				return nil, err
			}
			regB, err := parseRegister(ops[1], lineNo)
			if err != nil {
				return nil, err
			}
			emit(cpu.EncodeInstruction(opcode, regA, regB))
			continue
		}

		if opcode, ok := regAndImmediateOps[mnemonic]; ok {
			if len(ops) != 2 {
				return nil, fmt.Errorf("%s expects 2 operands on line %d", mnemonic, lineNo)
			}
			regA, err := parseRegister(ops[0], lineNo)
			if err != nil {
				return nil, err
			}
			imm, err := a.parseImmediate(ops[1], lineNo)
			if err != nil {
				return nil, err
			}
			emit(cpu.EncodeInstruction(opcode, regA, 0))
			emit(imm)
			continue
		}

		if opcode, ok := immediateOnlyOps[mnemonic]; ok {
			if len(ops) != 1 {
				return nil, fmt.Errorf("%s expects 1 operand on line %d", mnemonic, lineNo)
			}
			imm, err := a.parseImmediate(ops[0], lineNo)
			if err != nil {
				return nil, err
			}
			emit(cpu.EncodeInstruction(opcode, 0, 0))
			emit(imm)
			continue
		}

		return nil, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
	}

	return program, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{}

	line := strings.TrimSpace(stripComment(raw))
	if line == "" {
		return p, nil
	}

	// Peel leading labels ("name:"), possibly several on one line.
	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if beforeColon == "" {
			return p, fmt.Errorf("invalid label on line %d", lineNo)
		}
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}
		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label %q on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	line = normalizeInstructionText(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return p, nil
	}

	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}
	return p, nil
}

func stripComment(line string) string {
	if cut := strings.IndexByte(line, ';'); cut >= 0 {
		return line[:cut]
	}
	return line
}

func normalizeInstructionText(line string) string {
	replacer := strings.NewReplacer(",", " ", "[", " ", "]", " ")
	return replacer.Replace(line)
}

func parseRegister(token string, lineNo int) (uint16, error) {
	up := strings.ToUpper(token)
	if len(up) == 2 && up[0] == 'R' && up[1] >= '0' && up[1] <= '7' {
		return uint16(up[1] - '0'), nil
	}
	return 0, fmt.Errorf("invalid register %q on line %d", token, lineNo)
}

func (a *Assembler) parseImmediate(token string, lineNo int) (uint16, error) {
	if value, err := strconv.ParseUint(token, 0, 32); err == nil {
		if value > 0xFFFF {
			return 0, fmt.Errorf("immediate out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	if addr, ok := a.labels[normalizeLabel(token)]; ok {
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label %q on line %d", token, lineNo)
	}
	return 0, fmt.Errorf("invalid immediate %q on line %d", token, lineNo)
}

// instructionLength returns the byte length of an instruction.
// All instructions are 2 bytes; instructions with an immediate are 4 bytes.
func instructionLength(mnemonic string) (uint16, bool) {
	if _, ok := zeroOperandOps[mnemonic]; ok {
		return 2, true
	}
	if _, ok := oneRegisterOps[mnemonic]; ok {
		return 2, true
	}
	if _, ok := twoRegisterOps[mnemonic]; ok {
		return 2, true
	}
	if _, ok := regAndImmediateOps[mnemonic]; ok {
		return 4, true
	}
	if _, ok := immediateOnlyOps[mnemonic]; ok {
		return 4, true
	}
	return 0, false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}
