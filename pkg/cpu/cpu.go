package cpu

// Opcodes. The upper 6 bits of an instruction word select the operation;
// see EncodeInstruction for the field layout.
const (
	OpHLT  uint16 = 0x00
	OpNOP  uint16 = 0x01
	OpLDI  uint16 = 0x02
	OpMOV  uint16 = 0x03
	OpLD   uint16 = 0x04
	OpST   uint16 = 0x05
	OpADD  uint16 = 0x06
	OpSUB  uint16 = 0x07
	OpAND  uint16 = 0x08
	OpOR   uint16 = 0x09
	OpXOR  uint16 = 0x0A
	OpNOT  uint16 = 0x0B
	OpSHL  uint16 = 0x0C
	OpSHR  uint16 = 0x0D
	OpJMP  uint16 = 0x0E
	OpJZ   uint16 = 0x0F
	OpJNZ  uint16 = 0x10
	OpPUSH uint16 = 0x11
	OpPOP  uint16 = 0x12
	OpLDSP uint16 = 0x13
	OpSTSP uint16 = 0x14
	OpMUL  uint16 = 0x15
	OpDIV  uint16 = 0x16
)

// MemorySize is the full byte-addressable range of the machine.
const MemorySize = 65536

// StackTop is the initial stack pointer. PUSH decrements SP by a word and
// stores, so the live top-of-stack value is always at [SP].
const StackTop uint16 = 0xFFFE

// CPU is a 16-bit register machine with a descending hardware stack.
// Execution starts at address 0. A program terminates by placing its exit
// status in R0 and executing HLT.
type CPU struct {
	Regs [8]uint16

	PC uint16
	SP uint16

	Z bool
	N bool

	Memory [MemorySize]byte

	Halted bool
}

func New() *CPU {
	return &CPU{SP: StackTop}
}

// LoadProgram copies a machine-code image to address 0, the entry point.
func (c *CPU) LoadProgram(image []byte) {
	copy(c.Memory[:], image)
}

// ExitStatus is the value of R0 at the time HLT executed.
func (c *CPU) ExitStatus() uint16 {
	return c.Regs[0]
}

func (c *CPU) reg(idx uint16) *uint16 {
	return &c.Regs[idx&0x07]
}

func (c *CPU) updateFlags(result uint16) {
	c.Z = result == 0
	c.N = (result & 0x8000) != 0
}

// Read16 reads a little-endian word from addr and addr+1.
func (c *CPU) Read16(addr uint16) uint16 {
	lo := uint16(c.Memory[addr])
	hi := uint16(c.Memory[addr+1])
	return lo | (hi << 8)
}

// Write16 writes a little-endian word to addr and addr+1.
func (c *CPU) Write16(addr uint16, val uint16) {
	c.Memory[addr] = byte(val & 0xFF)
	c.Memory[addr+1] = byte(val >> 8)
}

// Step executes one instruction. It is a no-op once the CPU has halted.
func (c *CPU) Step() {
	if c.Halted {
		return
	}

	instr := c.Read16(c.PC)
	c.PC += 2

	opcode := (instr >> 10) & 0x3F
	regA := (instr >> 7) & 0x07
	regB := (instr >> 4) & 0x07

	switch opcode {
	case OpHLT:
		c.Halted = true

	case OpNOP:
		// No operation.

	case OpLDI:
		imm := c.Read16(c.PC)
		c.PC += 2
		*c.reg(regA) = imm

	case OpMOV:
		*c.reg(regA) = *c.reg(regB)

	case OpLD:
		*c.reg(regA) = c.Read16(*c.reg(regB))

	case OpST:
		c.Write16(*c.reg(regA), *c.reg(regB))

	case OpADD:
		result := *c.reg(regA) + *c.reg(regB)
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpSUB:
		result := *c.reg(regA) - *c.reg(regB)
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpAND:
		result := *c.reg(regA) & *c.reg(regB)
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpOR:
		result := *c.reg(regA) | *c.reg(regB)
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpXOR:
		result := *c.reg(regA) ^ *c.reg(regB)
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpNOT:
		result := ^*c.reg(regA)
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpSHL:
		result := *c.reg(regA) << *c.reg(regB)
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpSHR:
		result := *c.reg(regA) >> *c.reg(regB)
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpMUL:
		result := *c.reg(regA) * *c.reg(regB)
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpDIV:
		divisor := *c.reg(regB)
		if divisor == 0 {
			*c.reg(regA) = 0
			c.updateFlags(0)
		} else {
			result := *c.reg(regA) / divisor
			*c.reg(regA) = result
			c.updateFlags(result)
		}

	case OpJMP:
		target := c.Read16(c.PC)
		c.PC += 2
		c.PC = target

	case OpJZ:
		target := c.Read16(c.PC)
		c.PC += 2
		if c.Z {
			c.PC = target
		}

	case OpJNZ:
		target := c.Read16(c.PC)
		c.PC += 2
		if !c.Z {
			c.PC = target
		}

	case OpPUSH:
		c.SP -= 2
		c.Write16(c.SP, *c.reg(regA))

	case OpPOP:
		*c.reg(regA) = c.Read16(c.SP)
		c.SP += 2

	case OpLDSP:
		*c.reg(regA) = c.SP

	case OpSTSP:
		c.SP = *c.reg(regA)

	default:
		// Unknown opcodes halt the machine rather than execute garbage.
		c.Halted = true
	}
}

// Run executes instructions until the CPU halts.
func (c *CPU) Run() {
	for !c.Halted {
		c.Step()
	}
}

// RunFor executes at most maxSteps instructions and reports whether the CPU
// halted within the budget. Useful for callers that cannot trust the program
// to terminate.
func (c *CPU) RunFor(maxSteps int) bool {
	for i := 0; i < maxSteps && !c.Halted; i++ {
		c.Step()
	}
	return c.Halted
}

// EncodeInstruction packs an opcode and up to two register fields into one
// instruction word: bits 15-10 opcode, 9-7 regA, 6-4 regB.
func EncodeInstruction(opcode, regA, regB uint16) uint16 {
	return (opcode << 10) | ((regA & 0x07) << 7) | ((regB & 0x07) << 4)
}
