package chip8

// operands are the fields extracted from a 16-bit instruction word.
type operands struct {
	n   byte   // lowest nibble
	nn  byte   // lowest byte
	nnn uint16 // lowest 12 bits
	x   int    // register index, bits 8-11
	y   int    // register index, bits 4-7
}

func decode(opcode uint16) operands {
	return operands{
		n:   byte(opcode & 0x000F),
		nn:  byte(opcode & 0x00FF),
		nnn: opcode & 0x0FFF,
		x:   int(opcode&0x0F00) >> 8,
		y:   int(opcode&0x00F0) >> 4,
	}
}

// operation pairs a handler with its base simulated cost in microseconds at
// speed multiplier 1.0. The costs are the average durations measured on the
// original COSMAC VIP, which is what keeps relative instruction timing
// historically plausible.
type operation struct {
	cost float64
	exec func(*VM, operands) error
}

// lookup routes an instruction word to its operation by matching the high
// nibble, then a secondary mask for the multi-variant families. A false
// return means no pattern matches.
func lookup(opcode uint16) (operation, bool) {
	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode & 0x00FF {
		case 0x00E0:
			return operation{109, (*VM).opClear}, true
		case 0x00EE:
			return operation{105, (*VM).opReturn}, true
		default:
			// 0nnn called a machine-language routine on the original
			// hardware; the whole family is ignored here.
			return operation{100, (*VM).opSys}, true
		}
	case 0x1000:
		return operation{105, (*VM).opJump}, true
	case 0x2000:
		return operation{105, (*VM).opCall}, true
	case 0x3000:
		return operation{61, (*VM).opSkipEqImm}, true
	case 0x4000:
		return operation{61, (*VM).opSkipNeqImm}, true
	case 0x5000:
		if opcode&0x000F == 0 {
			return operation{61, (*VM).opSkipEq}, true
		}
	case 0x6000:
		return operation{27, (*VM).opLoadImm}, true
	case 0x7000:
		return operation{45, (*VM).opAddImm}, true
	case 0x8000:
		switch opcode & 0x000F {
		case 0x0:
			return operation{45, (*VM).opMove}, true
		case 0x1:
			return operation{200, (*VM).opOr}, true
		case 0x2:
			return operation{200, (*VM).opAnd}, true
		case 0x3:
			return operation{200, (*VM).opXor}, true
		case 0x4:
			return operation{45, (*VM).opAdd}, true
		case 0x5:
			return operation{200, (*VM).opSub}, true
		case 0x6:
			return operation{200, (*VM).opShiftRight}, true
		case 0x7:
			return operation{200, (*VM).opSubReverse}, true
		case 0xE:
			return operation{200, (*VM).opShiftLeft}, true
		}
	case 0x9000:
		if opcode&0x000F == 0 {
			return operation{61, (*VM).opSkipNeq}, true
		}
	case 0xA000:
		return operation{55, (*VM).opLoadIndex}, true
	case 0xB000:
		return operation{105, (*VM).opJumpOffset}, true
	case 0xC000:
		return operation{164, (*VM).opRandom}, true
	case 0xD000:
		return operation{10_734, (*VM).opDraw}, true
	case 0xE000:
		switch opcode & 0x00FF {
		case 0x9E:
			return operation{73, (*VM).opSkipPressed}, true
		case 0xA1:
			return operation{73, (*VM).opSkipNotPressed}, true
		}
	case 0xF000:
		switch opcode & 0x00FF {
		case 0x07:
			return operation{27, (*VM).opReadDelay}, true
		case 0x0A:
			return operation{200, (*VM).opWaitKey}, true
		case 0x15:
			return operation{45, (*VM).opSetDelay}, true
		case 0x18:
			return operation{45, (*VM).opSetSound}, true
		case 0x1E:
			return operation{86, (*VM).opAddIndex}, true
		case 0x29:
			return operation{91, (*VM).opFontAddr}, true
		case 0x33:
			return operation{927, (*VM).opStoreBCD}, true
		case 0x55:
			return operation{605, (*VM).opStoreRegs}, true
		case 0x65:
			return operation{605, (*VM).opLoadRegs}, true
		}
	}
	return operation{}, false
}
