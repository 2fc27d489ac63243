package asm

import (
	"reflect"
	"testing"
)

// encodeWords converts opcode words to the big-endian bytes the assembler
// emits, keeping expected values readable.
func encodeWords(words ...uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		out[i*2] = byte(w >> 8)
		out[i*2+1] = byte(w & 0xFF)
	}
	return out
}

func TestAssembleBasics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []uint16
	}{
		{"cls", "CLS", []uint16{0x00E0}},
		{"ret", "RET", []uint16{0x00EE}},
		{"sys", "SYS 0x123", []uint16{0x0123}},
		{"jump", "JP 0x200", []uint16{0x1200}},
		{"jump offset", "JP V0, 0x300", []uint16{0xB300}},
		{"call", "CALL 0x345", []uint16{0x2345}},
		{"skip eq imm", "SE V3, 0x42", []uint16{0x3342}},
		{"skip neq imm", "SNE V3, 0x42", []uint16{0x4342}},
		{"skip eq reg", "SE V3, V4", []uint16{0x5340}},
		{"skip neq reg", "SNE V3, V4", []uint16{0x9340}},
		{"load imm", "LD V5, 0xAB", []uint16{0x65AB}},
		{"add imm", "ADD V5, 1", []uint16{0x7501}},
		{"move", "LD VA, VB", []uint16{0x8AB0}},
		{"or", "OR V1, V2", []uint16{0x8121}},
		{"and", "AND V1, V2", []uint16{0x8122}},
		{"xor", "XOR V1, V2", []uint16{0x8123}},
		{"add reg", "ADD V1, V2", []uint16{0x8124}},
		{"sub", "SUB V1, V2", []uint16{0x8125}},
		{"shr", "SHR V1, V2", []uint16{0x8126}},
		{"shr in place", "SHR V1", []uint16{0x8116}},
		{"subn", "SUBN V1, V2", []uint16{0x8127}},
		{"shl", "SHL V1, V2", []uint16{0x812E}},
		{"load index", "LD I, 0x250", []uint16{0xA250}},
		{"random", "RND V7, 0x0F", []uint16{0xC70F}},
		{"draw", "DRW V0, V1, 5", []uint16{0xD015}},
		{"skip pressed", "SKP V4", []uint16{0xE49E}},
		{"skip not pressed", "SKNP V4", []uint16{0xE4A1}},
		{"read delay", "LD V2, DT", []uint16{0xF207}},
		{"wait key", "LD V2, K", []uint16{0xF20A}},
		{"set delay", "LD DT, V2", []uint16{0xF215}},
		{"set sound", "LD ST, V2", []uint16{0xF218}},
		{"add index", "ADD I, V2", []uint16{0xF21E}},
		{"font", "LD F, V2", []uint16{0xF229}},
		{"bcd", "LD B, V2", []uint16{0xF233}},
		{"store regs", "LD [I], V2", []uint16{0xF255}},
		{"load regs", "LD V2, [I]", []uint16{0xF265}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Assemble(tt.src)
			if err != nil {
				t.Fatalf("Assemble(%q) failed: %v", tt.src, err)
			}
			want := encodeWords(tt.want...)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Assemble(%q) = % X; want % X", tt.src, got, want)
			}
		})
	}
}

func TestAssembleLabelsAndComments(t *testing.T) {
	src := `
; draws the glyph for 0 forever
start:
    LD V0, 0      // glyph index
    LD F, V0
    DRW V1, V2, 5
loop: JP loop
`
	got, sourceMap, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	// loop sits at 0x200 + 3*2 = 0x206 and jumps to itself
	want := encodeWords(0x6000, 0xF029, 0xD125, 0x1206)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("program = % X; want % X", got, want)
	}

	if sourceMap[0] != 4 {
		t.Errorf("source map offset 0 = line %d; want 4", sourceMap[0])
	}
	if sourceMap[6] != 7 {
		t.Errorf("source map offset 6 = line %d; want 7", sourceMap[6])
	}
}

func TestAssembleDirectives(t *testing.T) {
	src := `
    JP main
sprite: .byte 0xF0, 0x90, 0xF0
    .word 0xBEEF
.org 0x210
main: CLS
`
	got, _, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(got) != 0x12 {
		t.Fatalf("program length = %d; want %d", len(got), 0x12)
	}
	// JP main resolves to the post-.org address 0x210
	if got[0] != 0x12 || got[1] != 0x10 {
		t.Errorf("JP main = %02X%02X; want 1210", got[0], got[1])
	}
	if got[2] != 0xF0 || got[3] != 0x90 || got[4] != 0xF0 {
		t.Errorf(".byte emitted % X", got[2:5])
	}
	if got[5] != 0xBE || got[6] != 0xEF {
		t.Errorf(".word emitted % X; want BE EF", got[5:7])
	}
	if got[0x10] != 0x00 || got[0x11] != 0xE0 {
		t.Errorf("instruction after .org = % X; want 00 E0", got[0x10:0x12])
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown instruction", "FROB V1"},
		{"bad register", "LD V1, VG\nLD VG, 1"},
		{"immediate too large", "LD V1, 0x100"},
		{"address too large", "JP 0x1000"},
		{"nibble too large", "DRW V0, V1, 16"},
		{"undefined label", "JP nowhere"},
		{"duplicate label", "here: CLS\nhere: RET"},
		{"org backward", "CLS\nCLS\n.org 0x202\nCLS"},
		{"jp offset needs v0", "JP V3, 0x300"},
		{"too many operands", "CLS V1"},
		{"program too large", "table: .org 0xFFF\n.word 0xFFFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Assemble(tt.src); err == nil {
				t.Errorf("Assemble(%q) succeeded; want error", tt.src)
			}
		})
	}
}

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"abc1", true},
		{"1abc", false},
		{"", false},
		{"ab-c", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}

	if got := normalizeLabel("label"); got != "LABEL" {
		t.Errorf("normalizeLabel = %q; want LABEL", got)
	}

	for _, reg := range []string{"V0", "v5", "VA", "vf"} {
		if !isRegisterToken(reg) {
			t.Errorf("isRegisterToken(%q) = false; want true", reg)
		}
	}
	for _, notReg := range []string{"V", "VG", "W1", "V10", "I"} {
		if isRegisterToken(notReg) {
			t.Errorf("isRegisterToken(%q) = true; want false", notReg)
		}
	}
}
