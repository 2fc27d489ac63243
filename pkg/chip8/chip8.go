package chip8

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	// MemorySize is the total addressable memory of the machine, 0x000-0xFFF.
	MemorySize = 4096
	// ProgramStart is where loaded programs begin execution.
	ProgramStart = 0x200
	// StackDepth is the historical call stack bound. Pushing past it faults.
	StackDepth = 16

	DisplayWidth  = 64
	DisplayHeight = 32
	DisplayPixels = DisplayWidth * DisplayHeight

	// FrameBudget is the logical time slice of one 60 Hz frame. When the
	// frame-time accumulator crosses it, the countdown timers tick and the
	// draw flag is raised.
	FrameBudget = 16_666_667 * time.Nanosecond
)

// fontData holds the built-in hex digit glyphs, 5 rows of 8 pixels per digit.
// Row bytes are stored most-significant-bit-first, the machine's native order.
var fontData = [80]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Settings selects among the divergent historical interpreter behaviors and
// tunes execution speed. It is copied into the VM at construction and never
// mutated afterwards.
type Settings struct {
	// ShiftQuirk makes 8xy6/8xyE shift Vx in place instead of copying Vy
	// into Vx first.
	ShiftQuirk bool
	// LogicQuirk forces VF to 0 after 8xy1/8xy2/8xy3.
	LogicQuirk bool
	// MemQuirk makes Fx55/Fx65 increment I once per register transferred.
	MemQuirk bool
	// SpriteWrapQuirk wraps sprite start coordinates to the display before
	// drawing begins. Drawing itself always clips at the edges.
	SpriteWrapQuirk bool
	// JumpOffsetQuirk makes Bnnn use V[high nibble of nnn] instead of V0.
	JumpOffsetQuirk bool
	// SpeedMultiplier scales every operation's simulated cost. 1.0 matches
	// the historical COSMAC VIP timing.
	SpeedMultiplier float64
	// FontBase is where the built-in font is loaded. It must fit entirely
	// below ProgramStart.
	FontBase uint16
}

// DefaultSettings returns the settings used when the caller has no opinion:
// the common modern-interpreter quirk profile at original speed.
func DefaultSettings() Settings {
	return Settings{
		LogicQuirk:      true,
		MemQuirk:        true,
		SpriteWrapQuirk: true,
		SpeedMultiplier: 1.0,
		FontBase:        0x050,
	}
}

// VM is a CHIP-8 virtual machine. Construct it with New, feed key events to
// KeyDown/KeyUp, and drive it by calling Cycle once per host loop iteration.
//
// The exported state fields are free for hosts and tests to inspect. The VM
// is not safe for concurrent use; the host loop, the input feed, and the
// renderer are expected to run on one goroutine, as they do on the original
// hardware.
type VM struct {
	Mem [MemorySize]byte
	V   [16]byte
	I   uint16
	PC  uint16

	DelayTimer byte
	SoundTimer byte

	Keys Keypad

	// FB is the 64×32 frame buffer, row-major. See pkg/grid for the
	// index/coordinate mapping.
	FB [DisplayPixels]bool
	// DrawFlag is raised at each frame boundary. The renderer clears it
	// after presenting the frame buffer.
	DrawFlag bool

	stack [StackDepth]uint16
	sp    int

	fontAddr  [16]uint16
	frameTime time.Duration
	settings  Settings

	// test seams; New installs the real clock and RNG
	now      func() time.Time
	randByte func() byte
}

// New builds a machine with the font table loaded at settings.FontBase and
// program copied in at ProgramStart. All other state starts zeroed.
func New(settings Settings, program []byte) (*VM, error) {
	if settings.SpeedMultiplier <= 0 {
		return nil, fmt.Errorf("speed multiplier must be positive, got %v", settings.SpeedMultiplier)
	}
	if int(settings.FontBase)+len(fontData) > ProgramStart {
		return nil, fmt.Errorf("font base 0x%03X leaves no room for the font below 0x%03X", settings.FontBase, ProgramStart)
	}
	if len(program) > MemorySize-ProgramStart {
		return nil, fmt.Errorf("program is %d bytes, memory holds %d", len(program), MemorySize-ProgramStart)
	}

	vm := &VM{
		PC:       ProgramStart,
		settings: settings,
		now:      time.Now,
		randByte: func() byte { return byte(rand.UintN(256)) },
	}

	// Every 5 bytes starts a new glyph; record where each digit lives for Fx29.
	for i, b := range fontData {
		if i%5 == 0 {
			vm.fontAddr[i/5] = settings.FontBase + uint16(i)
		}
		vm.Mem[int(settings.FontBase)+i] = b
	}

	copy(vm.Mem[ProgramStart:], program)

	return vm, nil
}

// Reset returns the machine to its power-on state without reallocating.
// Memory keeps the loaded program and font; the quirk settings are untouched.
func (vm *VM) Reset() {
	vm.V = [16]byte{}
	vm.I = 0
	vm.PC = ProgramStart
	vm.sp = 0
	vm.DelayTimer = 0
	vm.SoundTimer = 0
	vm.Keys.Clear()
	vm.FB = [DisplayPixels]bool{}
	vm.DrawFlag = false
	vm.frameTime = 0
}

// Buzzer reports whether the audio collaborator should be sounding.
func (vm *VM) Buzzer() bool {
	return vm.SoundTimer > 0
}

// KeyDown marks logical key k (0x0-0xF) as pressed.
func (vm *VM) KeyDown(k byte) {
	vm.Keys.Press(k)
}

// KeyUp marks logical key k as released and starts its debounce window.
func (vm *VM) KeyUp(k byte) {
	vm.Keys.Release(k, vm.now())
}

// Settings returns the immutable configuration the VM was built with.
func (vm *VM) Settings() Settings {
	return vm.settings
}

// CycleResult reports what one call to Cycle did.
type CycleResult struct {
	// Opcode is the instruction word fetched this cycle.
	Opcode uint16
	// Cost is the simulated execution time charged, zero when deferred.
	Cost time.Duration
	// Deferred is set when the operation would have overrun the frame
	// budget. No state was mutated and the PC was not advanced; the
	// instruction is re-attempted next cycle.
	Deferred bool
}

// Cycle runs one fetch/decode/execute step. start should be the wall-clock
// instant the host began this loop iteration; the real time elapsed since
// then is blended into the frame-time accumulator alongside the operation's
// simulated cost, which keeps relative instruction timing plausible while
// bounding drift against the real clock.
//
// A non-nil error is always a *Fault. Faults leave the machine state exactly
// as it was before the offending operation.
func (vm *VM) Cycle(start time.Time) (CycleResult, error) {
	opcode, err := vm.fetch()
	if err != nil {
		return CycleResult{}, err
	}

	res := CycleResult{Opcode: opcode}

	op, ok := lookup(opcode)
	if !ok {
		return res, &Fault{Kind: FaultUnknownOpcode, PC: vm.PC, Opcode: opcode}
	}

	cost := vm.scaledCost(op.cost)
	if vm.frameTime+cost > FrameBudget {
		res.Deferred = true
	} else {
		if err := op.exec(vm, decode(opcode)); err != nil {
			return res, err
		}
		res.Cost = cost
		vm.frameTime += cost
	}

	// Blend in the real time spent this iteration, then let any key release
	// debounce windows that ran out expire.
	now := vm.now()
	vm.frameTime += now.Sub(start)
	vm.Keys.Expire(now)

	// Frame boundary: tick the timers at most once, signal a redraw, and
	// start the next frame from zero. Lost ticks are not replayed.
	if vm.frameTime > FrameBudget {
		if vm.DelayTimer > 0 {
			vm.DelayTimer--
		}
		if vm.SoundTimer > 0 {
			vm.SoundTimer--
		}
		vm.DrawFlag = true
		vm.frameTime = 0
	}

	return res, nil
}

// fetch reads the two bytes at PC and reassembles them most-significant-byte
// first. Program memory is stored in the machine's native big-endian order.
func (vm *VM) fetch() (uint16, error) {
	if int(vm.PC)+1 >= MemorySize {
		return 0, &Fault{Kind: FaultOutOfBounds, PC: vm.PC, Addr: vm.PC}
	}
	return uint16(vm.Mem[vm.PC])<<8 | uint16(vm.Mem[vm.PC+1]), nil
}

// scaledCost converts a base cost in microseconds to a duration, scaled by
// the speed multiplier and truncated to whole microseconds.
func (vm *VM) scaledCost(micros float64) time.Duration {
	return time.Duration(micros*vm.settings.SpeedMultiplier) * time.Microsecond
}
