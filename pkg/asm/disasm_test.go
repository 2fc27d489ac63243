package asm

import (
	"strings"
	"testing"
)

func TestDisassemble(t *testing.T) {
	tests := []struct {
		opcode uint16
		want   string
	}{
		{0x00E0, "CLS"},
		{0x00EE, "RET"},
		{0x0123, "SYS 0x123"},
		{0x1200, "JP 0x200"},
		{0x2345, "CALL 0x345"},
		{0x3342, "SE V3, 0x42"},
		{0x4342, "SNE V3, 0x42"},
		{0x5340, "SE V3, V4"},
		{0x65AB, "LD V5, 0xAB"},
		{0x7501, "ADD V5, 0x01"},
		{0x8AB0, "LD VA, VB"},
		{0x8121, "OR V1, V2"},
		{0x8126, "SHR V1, V2"},
		{0x812E, "SHL V1, V2"},
		{0x9340, "SNE V3, V4"},
		{0xA250, "LD I, 0x250"},
		{0xB300, "JP V0, 0x300"},
		{0xC70F, "RND V7, 0x0F"},
		{0xD015, "DRW V0, V1, 0x5"},
		{0xE49E, "SKP V4"},
		{0xE4A1, "SKNP V4"},
		{0xF207, "LD V2, DT"},
		{0xF20A, "LD V2, K"},
		{0xF215, "LD DT, V2"},
		{0xF218, "LD ST, V2"},
		{0xF21E, "ADD I, V2"},
		{0xF229, "LD F, V2"},
		{0xF233, "LD B, V2"},
		{0xF255, "LD [I], V2"},
		{0xF265, "LD V2, [I]"},
		{0x5341, ".word 0x5341"},
		{0x8888, ".word 0x8888"},
		{0xFF99, ".word 0xFF99"},
	}

	for _, tt := range tests {
		if got := Disassemble(tt.opcode); got != tt.want {
			t.Errorf("Disassemble(0x%04X) = %q; want %q", tt.opcode, got, tt.want)
		}
	}
}

// Disassembling and reassembling a program must reproduce it byte for byte.
func TestDisassembleRoundTrip(t *testing.T) {
	src := `
start:
    CLS
    LD V0, 9
    LD F, V0
    LD V1, 10
    LD V2, 12
    DRW V1, V2, 5
wait:
    LD V3, K
    SE V3, 0x9
    JP wait
    JP start
`
	program, _, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	listing := DisassembleProgram(program)

	// strip the address prefixes and reassemble
	var cleaned []string
	for _, line := range strings.Split(strings.TrimSpace(listing), "\n") {
		_, instr, ok := strings.Cut(line, ": ")
		if !ok {
			t.Fatalf("malformed listing line %q", line)
		}
		cleaned = append(cleaned, instr)
	}

	again, _, err := Assemble(strings.Join(cleaned, "\n"))
	if err != nil {
		t.Fatalf("reassembly failed: %v\nlisting:\n%s", err, listing)
	}

	if string(again) != string(program) {
		t.Errorf("round trip mismatch:\n first % X\nsecond % X", program, again)
	}
}
