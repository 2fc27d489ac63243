package chip8

import (
	"math/bits"

	"chip8go/pkg/grid"
)

// Operation handlers. Each one either commits its full effect and advances
// the PC, or returns a *Fault having touched nothing. Budget accounting and
// deferral happen in Cycle before a handler runs.

// 0nnn: machine-language routine call on the original hardware. Ignored,
// like every modern interpreter does, but it still costs a cycle.
func (vm *VM) opSys(_ operands) error {
	vm.PC += 2
	return nil
}

// 00E0: clear the frame buffer.
func (vm *VM) opClear(_ operands) error {
	vm.FB = [DisplayPixels]bool{}
	vm.PC += 2
	return nil
}

// 00EE: return from a subroutine. The popped address is where the call was
// made from, so the PC still advances past it.
func (vm *VM) opReturn(o operands) error {
	if vm.sp == 0 {
		return &Fault{Kind: FaultStackUnderflow, PC: vm.PC, Opcode: 0x00EE}
	}
	vm.sp--
	vm.PC = vm.stack[vm.sp] + 2
	return nil
}

// 1nnn: jump.
func (vm *VM) opJump(o operands) error {
	vm.PC = o.nnn
	return nil
}

// 2nnn: call subroutine.
func (vm *VM) opCall(o operands) error {
	if vm.sp == StackDepth {
		return &Fault{Kind: FaultStackOverflow, PC: vm.PC, Opcode: 0x2000 | o.nnn}
	}
	vm.stack[vm.sp] = vm.PC
	vm.sp++
	vm.PC = o.nnn
	return nil
}

// 3xnn: skip next instruction if Vx == nn.
func (vm *VM) opSkipEqImm(o operands) error {
	if vm.V[o.x] == o.nn {
		vm.PC += 2
	}
	vm.PC += 2
	return nil
}

// 4xnn: skip next instruction if Vx != nn.
func (vm *VM) opSkipNeqImm(o operands) error {
	if vm.V[o.x] != o.nn {
		vm.PC += 2
	}
	vm.PC += 2
	return nil
}

// 5xy0: skip next instruction if Vx == Vy.
func (vm *VM) opSkipEq(o operands) error {
	if vm.V[o.x] == vm.V[o.y] {
		vm.PC += 2
	}
	vm.PC += 2
	return nil
}

// 9xy0: skip next instruction if Vx != Vy.
func (vm *VM) opSkipNeq(o operands) error {
	if vm.V[o.x] != vm.V[o.y] {
		vm.PC += 2
	}
	vm.PC += 2
	return nil
}

// 6xnn: Vx = nn.
func (vm *VM) opLoadImm(o operands) error {
	vm.V[o.x] = o.nn
	vm.PC += 2
	return nil
}

// 7xnn: Vx += nn, wrapping. The carry flag is not touched.
func (vm *VM) opAddImm(o operands) error {
	vm.V[o.x] += o.nn
	vm.PC += 2
	return nil
}

// 8xy0: Vx = Vy.
func (vm *VM) opMove(o operands) error {
	vm.V[o.x] = vm.V[o.y]
	vm.PC += 2
	return nil
}

// 8xy1: Vx |= Vy.
func (vm *VM) opOr(o operands) error {
	vm.V[o.x] |= vm.V[o.y]
	if vm.settings.LogicQuirk {
		vm.V[0xF] = 0
	}
	vm.PC += 2
	return nil
}

// 8xy2: Vx &= Vy.
func (vm *VM) opAnd(o operands) error {
	vm.V[o.x] &= vm.V[o.y]
	if vm.settings.LogicQuirk {
		vm.V[0xF] = 0
	}
	vm.PC += 2
	return nil
}

// 8xy3: Vx ^= Vy.
func (vm *VM) opXor(o operands) error {
	vm.V[o.x] ^= vm.V[o.y]
	if vm.settings.LogicQuirk {
		vm.V[0xF] = 0
	}
	vm.PC += 2
	return nil
}

// 8xy4: Vx += Vy; VF = 1 on overflow, else 0. The flag write lands after the
// result, so VF-as-destination ends up holding the flag.
func (vm *VM) opAdd(o operands) error {
	sum := uint16(vm.V[o.x]) + uint16(vm.V[o.y])
	vm.V[o.x] = byte(sum)
	if sum > 0xFF {
		vm.V[0xF] = 1
	} else {
		vm.V[0xF] = 0
	}
	vm.PC += 2
	return nil
}

// 8xy5: Vx -= Vy; VF = 1 when no borrow occurred. The polarity is inverted
// from the intuitive one.
func (vm *VM) opSub(o operands) error {
	vx, vy := vm.V[o.x], vm.V[o.y]
	vm.V[o.x] = vx - vy
	if vx >= vy {
		vm.V[0xF] = 1
	} else {
		vm.V[0xF] = 0
	}
	vm.PC += 2
	return nil
}

// 8xy7: Vx = Vy - Vx; VF = 1 when no borrow occurred.
func (vm *VM) opSubReverse(o operands) error {
	vx, vy := vm.V[o.x], vm.V[o.y]
	vm.V[o.x] = vy - vx
	if vy >= vx {
		vm.V[0xF] = 1
	} else {
		vm.V[0xF] = 0
	}
	vm.PC += 2
	return nil
}

// 8xy6: shift right; VF = the bit shifted out. Without the shift quirk, Vy
// is copied into Vx first; with it, Vx shifts in place and Vy is ignored.
func (vm *VM) opShiftRight(o operands) error {
	if !vm.settings.ShiftQuirk {
		vm.V[o.x] = vm.V[o.y]
	}
	out := vm.V[o.x] & 1
	vm.V[o.x] >>= 1
	vm.V[0xF] = out
	vm.PC += 2
	return nil
}

// 8xyE: shift left; VF = the bit shifted out.
func (vm *VM) opShiftLeft(o operands) error {
	if !vm.settings.ShiftQuirk {
		vm.V[o.x] = vm.V[o.y]
	}
	out := vm.V[o.x] >> 7
	vm.V[o.x] <<= 1
	vm.V[0xF] = out
	vm.PC += 2
	return nil
}

// Annn: I = nnn.
func (vm *VM) opLoadIndex(o operands) error {
	vm.I = o.nnn
	vm.PC += 2
	return nil
}

// Bnnn: PC = nnn + V0. With the jump offset quirk the offset register is
// V[high nibble of nnn] instead.
func (vm *VM) opJumpOffset(o operands) error {
	if vm.settings.JumpOffsetQuirk {
		vm.PC = o.nnn + uint16(vm.V[o.nnn>>8])
	} else {
		vm.PC = o.nnn + uint16(vm.V[0])
	}
	return nil
}

// Cxnn: Vx = random byte AND nn.
func (vm *VM) opRandom(o operands) error {
	vm.V[o.x] = vm.randByte() & o.nn
	vm.PC += 2
	return nil
}

// Dxyn: draw an n-row sprite from memory at I onto the frame buffer at
// (Vx, Vy) by XOR compositing. VF = 1 if any lit pixel was turned off.
//
// Sprite rows are stored most-significant-bit-first, so each row byte is
// bit-reversed and composited least-significant-bit-first. With the sprite
// wrap quirk the start coordinates wrap to the display first; either way,
// pixels past the right or bottom edge are clipped, never wrapped.
func (vm *VM) opDraw(o operands) error {
	x := int(vm.V[o.x])
	y := int(vm.V[o.y])
	if vm.settings.SpriteWrapQuirk {
		x %= DisplayWidth
		y %= DisplayHeight
	}

	// Rows past the bottom edge are never read, so bound the memory check
	// to the rows that will actually be drawn. The check happens before any
	// pixel flips: a faulting draw commits nothing.
	rows := int(o.n)
	if y+rows > DisplayHeight {
		rows = DisplayHeight - y
	}
	if rows > 0 && int(vm.I)+rows > MemorySize {
		return &Fault{Kind: FaultOutOfBounds, PC: vm.PC, Addr: vm.I, Opcode: 0xD000}
	}

	collision := false
	for row := 0; row < rows; row++ {
		sprite := bits.Reverse8(vm.Mem[int(vm.I)+row])
		for col := 0; col < 8; col++ {
			if x+col >= DisplayWidth {
				break
			}
			if sprite>>col&1 == 0 {
				continue
			}
			idx := grid.GetGridIndex(x+col, y+row, DisplayWidth)
			if vm.FB[idx] {
				vm.FB[idx] = false
				collision = true
			} else {
				vm.FB[idx] = true
			}
		}
	}

	if collision {
		vm.V[0xF] = 1
	} else {
		vm.V[0xF] = 0
	}
	vm.PC += 2
	return nil
}

// Ex9E: skip next instruction if the key in Vx is currently pressed.
func (vm *VM) opSkipPressed(o operands) error {
	if vm.Keys.Current[vm.V[o.x]&0xF] {
		vm.PC += 2
	}
	vm.PC += 2
	return nil
}

// ExA1: skip next instruction if the key in Vx is currently up.
func (vm *VM) opSkipNotPressed(o operands) error {
	if !vm.Keys.Current[vm.V[o.x]&0xF] {
		vm.PC += 2
	}
	vm.PC += 2
	return nil
}

// Fx07: Vx = delay timer.
func (vm *VM) opReadDelay(o operands) error {
	vm.V[o.x] = vm.DelayTimer
	vm.PC += 2
	return nil
}

// Fx0A: wait for a key press-and-release. Until one is observed the PC stays
// put and the instruction is re-attempted next cycle; timers and redraws
// keep advancing because the spin happens across cycles, not inside one.
func (vm *VM) opWaitKey(o operands) error {
	if k, ok := vm.Keys.FirstReleased(); ok {
		vm.V[o.x] = k
		vm.PC += 2
	}
	return nil
}

// Fx15: delay timer = Vx.
func (vm *VM) opSetDelay(o operands) error {
	vm.DelayTimer = vm.V[o.x]
	vm.PC += 2
	return nil
}

// Fx18: sound timer = Vx.
func (vm *VM) opSetSound(o operands) error {
	vm.SoundTimer = vm.V[o.x]
	vm.PC += 2
	return nil
}

// Fx1E: I += Vx, wrapping per 16-bit arithmetic.
func (vm *VM) opAddIndex(o operands) error {
	vm.I += uint16(vm.V[o.x])
	vm.PC += 2
	return nil
}

// Fx29: I = address of the font glyph for the low nibble of Vx.
func (vm *VM) opFontAddr(o operands) error {
	vm.I = vm.fontAddr[vm.V[o.x]&0xF]
	vm.PC += 2
	return nil
}

// Fx33: store the BCD digits of Vx at I, I+1, I+2.
func (vm *VM) opStoreBCD(o operands) error {
	if int(vm.I)+2 >= MemorySize {
		return &Fault{Kind: FaultOutOfBounds, PC: vm.PC, Addr: vm.I, Opcode: 0xF033}
	}
	v := vm.V[o.x]
	vm.Mem[vm.I] = v / 100
	vm.Mem[vm.I+1] = v / 10 % 10
	vm.Mem[vm.I+2] = v % 10
	vm.PC += 2
	return nil
}

// Fx55: store V0..Vx to memory starting at I. With the memory quirk, I
// itself advances once per register and ends at I+x+1.
func (vm *VM) opStoreRegs(o operands) error {
	if int(vm.I)+o.x >= MemorySize {
		return &Fault{Kind: FaultOutOfBounds, PC: vm.PC, Addr: vm.I, Opcode: 0xF055}
	}
	addr := vm.I
	for r := 0; r <= o.x; r++ {
		vm.Mem[int(addr)+r] = vm.V[r]
		if vm.settings.MemQuirk {
			vm.I++
		}
	}
	vm.PC += 2
	return nil
}

// Fx65: load V0..Vx from memory starting at I. Same quirk as Fx55.
func (vm *VM) opLoadRegs(o operands) error {
	if int(vm.I)+o.x >= MemorySize {
		return &Fault{Kind: FaultOutOfBounds, PC: vm.PC, Addr: vm.I, Opcode: 0xF065}
	}
	addr := vm.I
	for r := 0; r <= o.x; r++ {
		vm.V[r] = vm.Mem[int(addr)+r]
		if vm.settings.MemQuirk {
			vm.I++
		}
	}
	vm.PC += 2
	return nil
}
