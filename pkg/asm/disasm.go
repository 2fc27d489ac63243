package asm

import (
	"fmt"

	"chip8go/pkg/chip8"
)

// Disassemble renders a single instruction word in the same mnemonic syntax
// the assembler accepts. Words no pattern matches come back as a .word
// directive so a disassembly listing stays reassemblable.
func Disassemble(opcode uint16) string {
	n := opcode & 0x000F
	nn := opcode & 0x00FF
	nnn := opcode & 0x0FFF
	x := opcode >> 8 & 0xF
	y := opcode >> 4 & 0xF

	switch opcode & 0xF000 {
	case 0x0000:
		switch nn {
		case 0xE0:
			return "CLS"
		case 0xEE:
			return "RET"
		default:
			return fmt.Sprintf("SYS 0x%03X", nnn)
		}
	case 0x1000:
		return fmt.Sprintf("JP 0x%03X", nnn)
	case 0x2000:
		return fmt.Sprintf("CALL 0x%03X", nnn)
	case 0x3000:
		return fmt.Sprintf("SE V%X, 0x%02X", x, nn)
	case 0x4000:
		return fmt.Sprintf("SNE V%X, 0x%02X", x, nn)
	case 0x5000:
		if n == 0 {
			return fmt.Sprintf("SE V%X, V%X", x, y)
		}
	case 0x6000:
		return fmt.Sprintf("LD V%X, 0x%02X", x, nn)
	case 0x7000:
		return fmt.Sprintf("ADD V%X, 0x%02X", x, nn)
	case 0x8000:
		switch n {
		case 0x0:
			return fmt.Sprintf("LD V%X, V%X", x, y)
		case 0x1:
			return fmt.Sprintf("OR V%X, V%X", x, y)
		case 0x2:
			return fmt.Sprintf("AND V%X, V%X", x, y)
		case 0x3:
			return fmt.Sprintf("XOR V%X, V%X", x, y)
		case 0x4:
			return fmt.Sprintf("ADD V%X, V%X", x, y)
		case 0x5:
			return fmt.Sprintf("SUB V%X, V%X", x, y)
		case 0x6:
			return fmt.Sprintf("SHR V%X, V%X", x, y)
		case 0x7:
			return fmt.Sprintf("SUBN V%X, V%X", x, y)
		case 0xE:
			return fmt.Sprintf("SHL V%X, V%X", x, y)
		}
	case 0x9000:
		if n == 0 {
			return fmt.Sprintf("SNE V%X, V%X", x, y)
		}
	case 0xA000:
		return fmt.Sprintf("LD I, 0x%03X", nnn)
	case 0xB000:
		return fmt.Sprintf("JP V0, 0x%03X", nnn)
	case 0xC000:
		return fmt.Sprintf("RND V%X, 0x%02X", x, nn)
	case 0xD000:
		return fmt.Sprintf("DRW V%X, V%X, 0x%X", x, y, n)
	case 0xE000:
		switch nn {
		case 0x9E:
			return fmt.Sprintf("SKP V%X", x)
		case 0xA1:
			return fmt.Sprintf("SKNP V%X", x)
		}
	case 0xF000:
		switch nn {
		case 0x07:
			return fmt.Sprintf("LD V%X, DT", x)
		case 0x0A:
			return fmt.Sprintf("LD V%X, K", x)
		case 0x15:
			return fmt.Sprintf("LD DT, V%X", x)
		case 0x18:
			return fmt.Sprintf("LD ST, V%X", x)
		case 0x1E:
			return fmt.Sprintf("ADD I, V%X", x)
		case 0x29:
			return fmt.Sprintf("LD F, V%X", x)
		case 0x33:
			return fmt.Sprintf("LD B, V%X", x)
		case 0x55:
			return fmt.Sprintf("LD [I], V%X", x)
		case 0x65:
			return fmt.Sprintf("LD V%X, [I]", x)
		}
	}

	return fmt.Sprintf(".word 0x%04X", opcode)
}

// DisassembleProgram renders a whole program image as one line per
// instruction word, prefixed with the load address.
func DisassembleProgram(program []byte) string {
	var out string
	for offset := 0; offset+1 < len(program); offset += 2 {
		opcode := uint16(program[offset])<<8 | uint16(program[offset+1])
		out += fmt.Sprintf("0x%03X: %s\n", chip8.ProgramStart+offset, Disassemble(opcode))
	}
	return out
}
