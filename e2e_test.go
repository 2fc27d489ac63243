package main

import (
	"strings"
	"testing"
	"time"

	"chip8go/pkg/asm"
	"chip8go/pkg/chip8"
)

// assembleAndRun builds source into a ROM, runs it for the given number of
// cycles, and returns the machine for inspection.
func assembleAndRun(t *testing.T, source string, cycles int) *chip8.VM {
	t.Helper()

	code, _, err := asm.Assemble(source)
	if err != nil {
		t.Fatalf("assembly failed: %v", err)
	}

	vm, err := chip8.New(chip8.DefaultSettings(), code)
	if err != nil {
		t.Fatalf("loading ROM failed: %v", err)
	}

	for i := 0; i < cycles; i++ {
		if _, err := vm.Cycle(time.Now()); err != nil {
			t.Fatalf("cycle %d faulted: %v", i, err)
		}
	}
	return vm
}

func TestEndToEndArithmetic(t *testing.T) {
	source := `
		LD V0, 10
		LD V1, 32
		ADD V0, V1       ; 42, no carry
		CALL double
	spin:
		JP spin

	double:
		ADD V2, V0
		ADD V2, V0
		RET
	`

	vm := assembleAndRun(t, source, 50)

	if vm.V[0] != 42 {
		t.Errorf("V0 = %d; want 42", vm.V[0])
	}
	if vm.V[2] != 84 {
		t.Errorf("V2 = %d; want 84", vm.V[2])
	}
	if vm.V[0xF] != 0 {
		t.Errorf("VF = %d; want 0", vm.V[0xF])
	}

	// parked on the spin loop after the subroutine returned
	wantPC := uint16(chip8.ProgramStart + 8)
	if vm.PC != wantPC {
		t.Errorf("PC = 0x%03X; want 0x%03X", vm.PC, wantPC)
	}
}

func TestEndToEndFontDraw(t *testing.T) {
	source := `
		LD V2, 5
		LD F, V2         ; point I at the glyph for 5
		DRW V0, V1, 5
	spin:
		JP spin
	`

	vm := assembleAndRun(t, source, 30)

	settings := chip8.DefaultSettings()
	wantI := settings.FontBase + 5*5
	if vm.I != wantI {
		t.Errorf("I = 0x%03X; want 0x%03X", vm.I, wantI)
	}

	// the glyph for 5 as it appears on screen
	want := strings.Join([]string{
		"####",
		"#...",
		"####",
		"...#",
		"####",
	}, "\n")

	screen := vm.RenderASCII('#', '.')
	var got []string
	for i, line := range strings.Split(screen, "\n") {
		if i >= 5 {
			break
		}
		got = append(got, line[:4])
	}
	if gotStr := strings.Join(got, "\n"); gotStr != want {
		t.Errorf("glyph mismatch:\ngot:\n%s\nwant:\n%s", gotStr, want)
	}

	if vm.V[0xF] != 0 {
		t.Errorf("VF = %d after drawing on a clear screen; want 0", vm.V[0xF])
	}
}

func TestEndToEndBCDRoundTrip(t *testing.T) {
	source := `
		LD V0, 234
		LD I, scratch
		LD B, V0         ; store digits 2 3 4
		LD V2, [I]       ; read them back into V0..V2
	spin:
		JP spin

	.org 0x400
	scratch:
		.byte 0, 0, 0
	`

	vm := assembleAndRun(t, source, 30)

	if vm.V[0] != 2 || vm.V[1] != 3 || vm.V[2] != 4 {
		t.Errorf("digits = %d %d %d; want 2 3 4", vm.V[0], vm.V[1], vm.V[2])
	}
}
