package chip8

import "fmt"

// FaultKind classifies the conditions that halt execution.
type FaultKind int

const (
	// FaultOutOfBounds is a fetch or memory access past the last
	// addressable cell.
	FaultOutOfBounds FaultKind = iota
	// FaultUnknownOpcode is an instruction word no dispatch pattern matches.
	FaultUnknownOpcode
	// FaultStackUnderflow is a subroutine return with an empty call stack.
	FaultStackUnderflow
	// FaultStackOverflow is a subroutine call past the 16-entry stack bound.
	FaultStackOverflow
)

func (k FaultKind) String() string {
	switch k {
	case FaultOutOfBounds:
		return "memory access out of bounds"
	case FaultUnknownOpcode:
		return "unknown opcode"
	case FaultStackUnderflow:
		return "stack underflow"
	case FaultStackOverflow:
		return "stack overflow"
	default:
		return "unknown fault"
	}
}

// Fault is a fatal execution condition. The machine state is left exactly as
// it was before the faulting operation; the host decides whether to halt,
// report, or reset.
type Fault struct {
	Kind   FaultKind
	PC     uint16
	Opcode uint16
	// Addr is the offending memory address for out-of-bounds faults.
	Addr uint16
}

func (f *Fault) Error() string {
	switch f.Kind {
	case FaultOutOfBounds:
		return fmt.Sprintf("%s: address 0x%03X at pc 0x%03X", f.Kind, f.Addr, f.PC)
	case FaultUnknownOpcode:
		return fmt.Sprintf("%s 0x%04X at pc 0x%03X", f.Kind, f.Opcode, f.PC)
	default:
		return fmt.Sprintf("%s at pc 0x%03X (opcode 0x%04X)", f.Kind, f.PC, f.Opcode)
	}
}
