// Package asm implements a two-pass assembler and a disassembler for the
// CHIP-8 instruction set, using the classic mnemonics (CLS, JP, LD, DRW, ...).
// Instruction words are emitted most-significant-byte first, the order the
// machine fetches them in.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"chip8go/pkg/chip8"
)

type Assembler struct {
	labels map[string]uint16
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint16),
	}
}

// Assemble turns source text into a program image suitable for loading at
// chip8.ProgramStart. The second return value maps emitted byte offsets to
// source line numbers.
func Assemble(code string) ([]byte, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]byte, map[uint16]int, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

// pass1 computes the address of every label. Addresses count from the
// program load address, not from the start of the emitted image.
func (a *Assembler) pass1(lines []string) error {
	address := uint32(chip8.ProgramStart)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = uint16(address)
		}

		if p.mnemonic == "" {
			continue
		}

		length, err := directiveLength(p, address, lineNo)
		if err != nil {
			return err
		}

		if address+length > chip8.MemorySize {
			return fmt.Errorf("program too large near line %d", lineNo)
		}
		address += length
	}

	return nil
}

// directiveLength returns how many bytes a parsed line occupies. Plain
// instructions are always 2 bytes; directives vary.
func directiveLength(p parsedLine, address uint32, lineNo int) (uint32, error) {
	switch p.mnemonic {
	case ".ORG":
		if len(p.operands) != 1 {
			return 0, fmt.Errorf(".org expects exactly one operand on line %d", lineNo)
		}
		target, err := strconv.ParseUint(p.operands[0], 0, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid .org value on line %d: %s", lineNo, p.operands[0])
		}
		if target > 0xFFF {
			return 0, fmt.Errorf(".org out of range on line %d: %s", lineNo, p.operands[0])
		}
		if uint32(target) < address {
			return 0, fmt.Errorf("cannot move origin backward on line %d", lineNo)
		}
		return uint32(target) - address, nil
	case ".BYTE":
		if len(p.operands) == 0 {
			return 0, fmt.Errorf(".byte expects at least one operand on line %d", lineNo)
		}
		return uint32(len(p.operands)), nil
	case ".WORD":
		if len(p.operands) != 1 {
			return 0, fmt.Errorf(".word expects exactly one operand on line %d", lineNo)
		}
		return 2, nil
	default:
		if !isMnemonic(p.mnemonic) {
			return 0, fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
		}
		return 2, nil
	}
}

func (a *Assembler) pass2(lines []string) ([]byte, map[uint16]int, error) {
	program := make([]byte, 0)
	sourceMap := make(map[uint16]int)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		sourceMap[uint16(len(program))] = lineNo

		switch p.mnemonic {
		case ".ORG":
			target, _ := strconv.ParseUint(p.operands[0], 0, 32)
			padding := int(target) - chip8.ProgramStart - len(program)
			if padding < 0 {
				return nil, nil, fmt.Errorf("cannot move origin backward on line %d", lineNo)
			}
			program = append(program, make([]byte, padding)...)
			continue
		case ".BYTE":
			for _, operand := range p.operands {
				val, err := a.parseImmediate(operand, 0xFF, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(val))
			}
			continue
		case ".WORD":
			val, err := a.parseImmediate(p.operands[0], 0xFFFF, lineNo)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, byte(val>>8), byte(val&0xFF))
			continue
		}

		opcode, err := a.encode(p)
		if err != nil {
			return nil, nil, err
		}
		program = append(program, byte(opcode>>8), byte(opcode&0xFF))
	}

	return program, sourceMap, nil
}

// encode assembles a single instruction line into its 16-bit opcode.
func (a *Assembler) encode(p parsedLine) (uint16, error) {
	lineNo := p.lineNo
	ops := p.operands

	expect := func(n int) error {
		if len(ops) != n {
			return fmt.Errorf("%s expects %d operand(s) on line %d", p.mnemonic, n, lineNo)
		}
		return nil
	}

	switch p.mnemonic {
	case "CLS":
		if err := expect(0); err != nil {
			return 0, err
		}
		return 0x00E0, nil

	case "RET":
		if err := expect(0); err != nil {
			return 0, err
		}
		return 0x00EE, nil

	case "SYS":
		if err := expect(1); err != nil {
			return 0, err
		}
		nnn, err := a.parseImmediate(ops[0], 0xFFF, lineNo)
		if err != nil {
			return 0, err
		}
		return nnn, nil

	case "JP":
		// JP nnn or JP V0, nnn
		if len(ops) == 2 {
			if !strings.EqualFold(ops[0], "V0") {
				return 0, fmt.Errorf("JP offset form expects V0 on line %d", lineNo)
			}
			nnn, err := a.parseImmediate(ops[1], 0xFFF, lineNo)
			if err != nil {
				return 0, err
			}
			return 0xB000 | nnn, nil
		}
		if err := expect(1); err != nil {
			return 0, err
		}
		nnn, err := a.parseImmediate(ops[0], 0xFFF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0x1000 | nnn, nil

	case "CALL":
		if err := expect(1); err != nil {
			return 0, err
		}
		nnn, err := a.parseImmediate(ops[0], 0xFFF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0x2000 | nnn, nil

	case "SE", "SNE":
		if err := expect(2); err != nil {
			return 0, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		if isRegisterToken(ops[1]) {
			y, err := parseRegister(ops[1], lineNo)
			if err != nil {
				return 0, err
			}
			if p.mnemonic == "SE" {
				return 0x5000 | x<<8 | y<<4, nil
			}
			return 0x9000 | x<<8 | y<<4, nil
		}
		nn, err := a.parseImmediate(ops[1], 0xFF, lineNo)
		if err != nil {
			return 0, err
		}
		if p.mnemonic == "SE" {
			return 0x3000 | x<<8 | nn, nil
		}
		return 0x4000 | x<<8 | nn, nil

	case "LD":
		return a.encodeLoad(p)

	case "ADD":
		if err := expect(2); err != nil {
			return 0, err
		}
		if strings.EqualFold(ops[0], "I") {
			x, err := parseRegister(ops[1], lineNo)
			if err != nil {
				return 0, err
			}
			return 0xF01E | x<<8, nil
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		if isRegisterToken(ops[1]) {
			y, err := parseRegister(ops[1], lineNo)
			if err != nil {
				return 0, err
			}
			return 0x8004 | x<<8 | y<<4, nil
		}
		nn, err := a.parseImmediate(ops[1], 0xFF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0x7000 | x<<8 | nn, nil

	case "OR", "AND", "XOR", "SUB", "SUBN":
		if err := expect(2); err != nil {
			return 0, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		y, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		low := map[string]uint16{"OR": 0x1, "AND": 0x2, "XOR": 0x3, "SUB": 0x5, "SUBN": 0x7}[p.mnemonic]
		return 0x8000 | x<<8 | y<<4 | low, nil

	case "SHR", "SHL":
		// SHR Vx or SHR Vx, Vy; a lone Vx doubles as the source
		if len(ops) != 1 && len(ops) != 2 {
			return 0, fmt.Errorf("%s expects 1 or 2 operands on line %d", p.mnemonic, lineNo)
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		y := x
		if len(ops) == 2 {
			y, err = parseRegister(ops[1], lineNo)
			if err != nil {
				return 0, err
			}
		}
		if p.mnemonic == "SHR" {
			return 0x8006 | x<<8 | y<<4, nil
		}
		return 0x800E | x<<8 | y<<4, nil

	case "RND":
		if err := expect(2); err != nil {
			return 0, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		nn, err := a.parseImmediate(ops[1], 0xFF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0xC000 | x<<8 | nn, nil

	case "DRW":
		if err := expect(3); err != nil {
			return 0, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		y, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		n, err := a.parseImmediate(ops[2], 0xF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0xD000 | x<<8 | y<<4 | n, nil

	case "SKP", "SKNP":
		if err := expect(1); err != nil {
			return 0, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		if p.mnemonic == "SKP" {
			return 0xE09E | x<<8, nil
		}
		return 0xE0A1 | x<<8, nil
	}

	return 0, fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
}

// encodeLoad handles the many faces of LD, distinguished by operand form.
func (a *Assembler) encodeLoad(p parsedLine) (uint16, error) {
	lineNo := p.lineNo
	ops := p.operands
	if len(ops) != 2 {
		return 0, fmt.Errorf("LD expects 2 operands on line %d", lineNo)
	}

	dst := strings.ToUpper(ops[0])
	src := strings.ToUpper(ops[1])

	switch {
	case dst == "I":
		nnn, err := a.parseImmediate(ops[1], 0xFFF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0xA000 | nnn, nil

	case dst == "DT":
		x, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return 0xF015 | x<<8, nil

	case dst == "ST":
		x, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return 0xF018 | x<<8, nil

	case dst == "F":
		x, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return 0xF029 | x<<8, nil

	case dst == "B":
		x, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return 0xF033 | x<<8, nil

	case dst == "[I]":
		x, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return 0xF055 | x<<8, nil

	case isRegisterToken(ops[0]):
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		switch {
		case src == "DT":
			return 0xF007 | x<<8, nil
		case src == "K":
			return 0xF00A | x<<8, nil
		case src == "[I]":
			return 0xF065 | x<<8, nil
		case isRegisterToken(ops[1]):
			y, err := parseRegister(ops[1], lineNo)
			if err != nil {
				return 0, err
			}
			return 0x8000 | x<<8 | y<<4, nil
		default:
			nn, err := a.parseImmediate(ops[1], 0xFF, lineNo)
			if err != nil {
				return 0, err
			}
			return 0x6000 | x<<8 | nn, nil
		}
	}

	return 0, fmt.Errorf("invalid LD operands on line %d: %s, %s", lineNo, ops[0], ops[1])
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(raw)
	if line == "" {
		return p, nil
	}

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
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	line = stripComments(line)
	line = strings.TrimSpace(line)
	if line == "" {
		return p, nil
	}

	line = strings.ReplaceAll(line, ",", " ")
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

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

var mnemonics = map[string]bool{
	"CLS": true, "RET": true, "SYS": true, "JP": true, "CALL": true,
	"SE": true, "SNE": true, "LD": true, "ADD": true,
	"OR": true, "AND": true, "XOR": true, "SUB": true, "SUBN": true,
	"SHR": true, "SHL": true, "RND": true, "DRW": true,
	"SKP": true, "SKNP": true,
}

func isMnemonic(s string) bool {
	return mnemonics[strings.ToUpper(s)]
}

// isRegisterToken reports whether the token names one of V0-VF.
func isRegisterToken(token string) bool {
	t := strings.ToUpper(token)
	if len(t) != 2 || t[0] != 'V' {
		return false
	}
	_, err := strconv.ParseUint(t[1:], 16, 4)
	return err == nil
}

func parseRegister(token string, lineNo int) (uint16, error) {
	t := strings.ToUpper(token)
	if len(t) == 2 && t[0] == 'V' {
		if idx, err := strconv.ParseUint(t[1:], 16, 4); err == nil {
			return uint16(idx), nil
		}
	}
	return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
}

func (a *Assembler) parseImmediate(token string, max uint64, lineNo int) (uint16, error) {
	if value, err := strconv.ParseUint(token, 0, 32); err == nil {
		if value > max {
			return 0, fmt.Errorf("immediate out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	label := normalizeLabel(token)
	if addr, ok := a.labels[label]; ok {
		if uint64(addr) > max {
			return 0, fmt.Errorf("label '%s' out of range on line %d", token, lineNo)
		}
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
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
