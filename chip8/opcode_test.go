/*
 * Copyright 2026 Joshua Jones <joshua.jones.software@gmail.com>
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      www.apache.org
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package chip8

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func litPixels(p *Processor) int {
	var lit int
	for _, px := range p.Display() {
		if px == PixelOn {
			lit++
		}
	}
	return lit
}

func TestClearScreen(t *testing.T) {
	p := newLoaded(t, []uint16{0xA050, 0xD005, 0x00E0})

	info := steps(t, p, 2)
	require.NotZero(t, litPixels(p))
	assert.NotZero(t, info&Redraw)

	info = steps(t, p, 1)
	assert.Zero(t, litPixels(p))
	assert.NotZero(t, info&Redraw)
}

func TestCallReturn(t *testing.T) {
	// 0x200: CALL 0x208
	// 0x202: LD V1, 0x11
	// 0x208: LD V0, 0x22
	// 0x20A: RET
	p := newLoaded(t, []uint16{0x2208, 0x6111, 0x0000, 0x0000, 0x6022, 0x00EE})

	steps(t, p, 1)
	assert.Equal(t, uint16(0x208), p.ProgramCounter())
	assert.Equal(t, 1, p.StackPointer())
	assert.Equal(t, uint16(0x202), p.Stack()[0])

	steps(t, p, 2)
	assert.Equal(t, uint16(0x202), p.ProgramCounter())
	assert.Equal(t, 0, p.StackPointer())
	assert.Equal(t, uint8(0x22), p.Register(0))

	steps(t, p, 1)
	assert.Equal(t, uint8(0x11), p.Register(1))
}

func TestStackOverflow(t *testing.T) {
	// CALL 0x200 forever.
	p := newLoaded(t, []uint16{0x2200})

	steps(t, p, StackSize)
	assert.Equal(t, StackSize, p.StackPointer())

	_, err := p.Step()
	require.ErrorIs(t, err, ErrStackOverflow)
	assert.Equal(t, ProgramStartAddress, p.ProgramCounter())
	assert.Equal(t, StackSize, p.StackPointer())
	assert.Contains(t, err.Error(), "2200")
}

func TestStackUnderflow(t *testing.T) {
	p := newLoaded(t, []uint16{0x00EE})

	_, err := p.Step()
	require.ErrorIs(t, err, ErrStackUnderflow)
	assert.Equal(t, ProgramStartAddress, p.ProgramCounter())
	assert.Equal(t, 0, p.StackPointer())
}

func TestJump(t *testing.T) {
	p := newLoaded(t, []uint16{0x1ABC})

	steps(t, p, 1)
	assert.Equal(t, uint16(0xABC), p.ProgramCounter())
}

func TestJumpWithOffset(t *testing.T) {
	p := newLoaded(t, []uint16{0x6010, 0xB234})

	steps(t, p, 2)
	assert.Equal(t, uint16(0x244), p.ProgramCounter())
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name  string
		setup []uint16
		op    uint16
		skip  bool
	}{
		{"SE byte equal", []uint16{0x6A42}, 0x3A42, true},
		{"SE byte not equal", []uint16{0x6A42}, 0x3A43, false},
		{"SNE byte equal", []uint16{0x6A42}, 0x4A42, false},
		{"SNE byte not equal", []uint16{0x6A42}, 0x4A43, true},
		{"SE reg equal", []uint16{0x6A42, 0x6B42}, 0x5AB0, true},
		{"SE reg not equal", []uint16{0x6A42, 0x6B41}, 0x5AB0, false},
		{"SNE reg equal", []uint16{0x6A42, 0x6B42}, 0x9AB0, false},
		{"SNE reg not equal", []uint16{0x6A42, 0x6B41}, 0x9AB0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newLoaded(t, append(tt.setup, tt.op))
			steps(t, p, len(tt.setup)+1)

			next := ProgramStartAddress + uint16(len(tt.setup)+1)*2
			if tt.skip {
				next += 2
			}
			assert.Equal(t, next, p.ProgramCounter())
		})
	}
}

func TestLoadAndAddByte(t *testing.T) {
	p := newLoaded(t, []uint16{0x6AFE, 0x7A03})

	steps(t, p, 2)
	assert.Equal(t, uint8(0x01), p.Register(0xA))
	assert.Equal(t, uint8(0), p.Register(0xF), "7xkk never sets the carry flag")
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		quirks Quirks
		vx, vy byte
		op     uint16
		result byte
		vf     byte
	}{
		{"LD", Quirks{}, 0x11, 0x22, 0x8120, 0x22, 0xAA},
		{"OR", Quirks{}, 0xF0, 0x0F, 0x8121, 0xFF, 0xAA},
		{"AND", Quirks{}, 0xF3, 0x3F, 0x8122, 0x33, 0xAA},
		{"XOR", Quirks{}, 0xFF, 0x0F, 0x8123, 0xF0, 0xAA},
		{"OR resets flag", Quirks{LogicResetsFlag: true}, 0xF0, 0x0F, 0x8121, 0xFF, 0},
		{"AND resets flag", Quirks{LogicResetsFlag: true}, 0xF3, 0x3F, 0x8122, 0x33, 0},
		{"XOR resets flag", Quirks{LogicResetsFlag: true}, 0xFF, 0x0F, 0x8123, 0xF0, 0},
		{"ADD carry", Quirks{}, 0xFF, 0x02, 0x8124, 0x01, 1},
		{"ADD no carry", Quirks{}, 0xFF, 0x00, 0x8124, 0xFF, 0},
		{"ADD exact 256", Quirks{}, 0x80, 0x80, 0x8124, 0x00, 1},
		{"SUB no borrow", Quirks{}, 5, 3, 0x8125, 2, 1},
		{"SUB borrow", Quirks{}, 3, 5, 0x8125, 254, 0},
		{"SUB equal", Quirks{}, 4, 4, 0x8125, 0, 0},
		{"SUBN no borrow", Quirks{}, 3, 5, 0x8127, 2, 1},
		{"SUBN borrow", Quirks{}, 5, 3, 0x8127, 254, 0},
		{"SUBN equal", Quirks{}, 4, 4, 0x8127, 0, 0},
		{"SHR odd", Quirks{}, 0b00000011, 0, 0x8126, 0b00000001, 1},
		{"SHR even", Quirks{}, 0b00000010, 0, 0x8126, 0b00000001, 0},
		{"SHL high bit", Quirks{}, 0b10000001, 0, 0x812E, 0b00000010, 1},
		{"SHL no high bit", Quirks{}, 0b01000001, 0, 0x812E, 0b10000010, 0},
		{"SHR from VY", Quirks{ShiftUsesVY: true}, 0xFF, 0b00000100, 0x8126, 0b00000010, 0},
		{"SHL from VY", Quirks{ShiftUsesVY: true}, 0x00, 0b11000000, 0x812E, 0b10000000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newLoaded(t, []uint16{tt.op}, WithQuirks(tt.quirks))
			p.v[1] = tt.vx
			p.v[2] = tt.vy
			p.v[0xF] = 0xAA

			steps(t, p, 1)
			assert.Equal(t, tt.result, p.Register(1), "result")
			assert.Equal(t, tt.vf, p.Register(0xF), "flag")
			assert.Equal(t, tt.vy, p.Register(2), "source untouched")
		})
	}
}

func TestAddWithCarryFromProgram(t *testing.T) {
	p := newLoaded(t, []uint16{0x61FF, 0x6202, 0x8124})
	steps(t, p, 3)
	assert.Equal(t, uint8(1), p.Register(1))
	assert.Equal(t, uint8(1), p.Register(0xF))

	p = newLoaded(t, []uint16{0x61FF, 0x6200, 0x8124})
	steps(t, p, 3)
	assert.Equal(t, uint8(255), p.Register(1))
	assert.Equal(t, uint8(0), p.Register(0xF))
}

func TestFlagWinsWhenDestinationIsVF(t *testing.T) {
	p := newLoaded(t, []uint16{0x8F14})
	p.v[0xF] = 0x05
	p.v[1] = 0x02

	steps(t, p, 1)
	assert.Equal(t, uint8(0), p.Register(0xF))
}

func TestSetIndex(t *testing.T) {
	p := newLoaded(t, []uint16{0xA123, 0x6A10, 0xFA1E})

	steps(t, p, 1)
	assert.Equal(t, uint16(0x123), p.Index())

	steps(t, p, 2)
	assert.Equal(t, uint16(0x133), p.Index())
	assert.Equal(t, uint8(0), p.Register(0xF))
}

func TestRandom(t *testing.T) {
	p := newLoaded(t, []uint16{0xC10F, 0xC100, 0xC1FF})
	want := rand.New(rand.NewPCG(1, 2))

	steps(t, p, 1)
	assert.Equal(t, byte(want.Uint32N(256))&0x0F, p.Register(1))

	steps(t, p, 1)
	want.Uint32N(256)
	assert.Equal(t, uint8(0), p.Register(1))

	steps(t, p, 1)
	assert.Equal(t, byte(want.Uint32N(256)), p.Register(1))
}

func TestRandomSourceIsPerInstance(t *testing.T) {
	a := newLoaded(t, []uint16{0xC1FF, 0xC1FF, 0xC1FF, 0xC1FF})
	b := newLoaded(t, []uint16{0xC1FF, 0xC1FF, 0xC1FF, 0xC1FF})

	for range 4 {
		steps(t, a, 1)
		steps(t, b, 1)
		assert.Equal(t, a.Register(1), b.Register(1))
	}
}

func TestDrawSprite(t *testing.T) {
	t.Run("draw then redraw restores blank screen", func(t *testing.T) {
		// I = font 8; V0 = 10; V1 = 7; CLS; DRW twice.
		p := newLoaded(t, []uint16{0xA050 + 8*5, 0x600A, 0x6107, 0x00E0, 0xD015, 0xD015})

		steps(t, p, 5)
		assert.Equal(t, uint8(0), p.Register(0xF))
		assert.Equal(t, 4+2+4+2+4, litPixels(p))

		steps(t, p, 1)
		assert.Equal(t, uint8(1), p.Register(0xF))
		assert.Equal(t, [Area]byte{}, p.Display())
	})

	t.Run("pixels are msb first", func(t *testing.T) {
		p := newLoaded(t, []uint16{0xA300, 0xD001})
		p.Write(0x300, []byte{0b10100000})

		steps(t, p, 2)
		assert.True(t, p.Pixel(0, 0))
		assert.False(t, p.Pixel(1, 0))
		assert.True(t, p.Pixel(2, 0))
		assert.Equal(t, 2, litPixels(p))
		assert.Equal(t, PixelOn, p.Display()[0])
	})

	t.Run("wraps horizontally", func(t *testing.T) {
		// V0 = 62, V1 = 3, sprite 0xF0 is four columns wide.
		p := newLoaded(t, []uint16{0xA300, 0x603E, 0x6103, 0xD011})
		p.Write(0x300, []byte{0xF0})

		steps(t, p, 4)
		assert.True(t, p.Pixel(62, 3))
		assert.True(t, p.Pixel(63, 3))
		assert.True(t, p.Pixel(0, 3))
		assert.True(t, p.Pixel(1, 3))
		assert.False(t, p.Pixel(2, 3))
		assert.False(t, p.Pixel(0, 4))
		assert.Equal(t, 4, litPixels(p))
	})

	t.Run("wraps vertically", func(t *testing.T) {
		p := newLoaded(t, []uint16{0xA300, 0x6000, 0x611F, 0xD013})
		p.Write(0x300, []byte{0x80, 0x80, 0x80})

		steps(t, p, 4)
		assert.True(t, p.Pixel(0, 31))
		assert.True(t, p.Pixel(0, 0))
		assert.True(t, p.Pixel(0, 1))
		assert.Equal(t, 3, litPixels(p))
	})

	t.Run("start coordinates wrap", func(t *testing.T) {
		p := newLoaded(t, []uint16{0xA300, 0x6045, 0x6122, 0xD011})
		p.Write(0x300, []byte{0x80})

		steps(t, p, 4)
		assert.True(t, p.Pixel(0x45-64, 0x22-32))
	})

	t.Run("collision only on lit to unlit", func(t *testing.T) {
		p := newLoaded(t, []uint16{0xA300, 0xD001, 0xA301, 0xD001})
		p.Write(0x300, []byte{0b11000000, 0b01100000})

		steps(t, p, 2)
		assert.Equal(t, uint8(0), p.Register(0xF))

		steps(t, p, 2)
		assert.Equal(t, uint8(1), p.Register(0xF))
		assert.True(t, p.Pixel(0, 0))
		assert.False(t, p.Pixel(1, 0))
		assert.True(t, p.Pixel(2, 0))
	})

	t.Run("flag cleared without collision", func(t *testing.T) {
		p := newLoaded(t, []uint16{0xA300, 0xD001})
		p.Write(0x300, []byte{0x80})
		p.v[0xF] = 1

		steps(t, p, 2)
		assert.Equal(t, uint8(0), p.Register(0xF))
	})

	t.Run("sprite past end of memory", func(t *testing.T) {
		p := newLoaded(t, []uint16{0xAFFE, 0xD003})
		steps(t, p, 1)

		_, err := p.Step()
		require.ErrorIs(t, err, ErrMemoryOutOfBounds)
		assert.Zero(t, litPixels(p))
		assert.Equal(t, ProgramStartAddress+2, p.ProgramCounter())
	})

	t.Run("sprite wraps memory", func(t *testing.T) {
		p := newLoaded(t, []uint16{0xAFFF, 0xD002}, WithQuirks(Quirks{Memory: MemoryWrap}))
		p.Write(0xFFF, []byte{0x80})
		p.Write(0x000, []byte{0x40})

		steps(t, p, 2)
		assert.True(t, p.Pixel(0, 0))
		assert.True(t, p.Pixel(1, 1))
	})
}

func TestKeySkips(t *testing.T) {
	p := newLoaded(t, []uint16{0x6A05, 0xEA9E, 0x0000, 0xEAA1, 0x0000})
	steps(t, p, 2)
	assert.Equal(t, uint16(0x204), p.ProgramCounter(), "key up, no skip")
	steps(t, p, 2)
	assert.Equal(t, uint16(0x20A), p.ProgramCounter(), "key up, skip")

	p = newLoaded(t, []uint16{0x6A05, 0xEA9E, 0x0000, 0xEAA1, 0x0000})
	p.SetKey(5, true)
	steps(t, p, 2)
	assert.Equal(t, uint16(0x206), p.ProgramCounter(), "key down, skip")
	steps(t, p, 1)
	assert.Equal(t, uint16(0x208), p.ProgramCounter(), "key down, no skip")
}

func TestKeySkipMasksRegister(t *testing.T) {
	p := newLoaded(t, []uint16{0x6A15, 0xEA9E})
	p.SetKey(5, true)

	steps(t, p, 2)
	assert.Equal(t, uint16(0x206), p.ProgramCounter())
}

func TestWaitForKey(t *testing.T) {
	p := newLoaded(t, []uint16{0xF30A, 0x6001})

	for range 10 {
		info := steps(t, p, 1)
		assert.Equal(t, ProgramStartAddress, p.ProgramCounter())
		assert.NotZero(t, info&Waiting)
	}

	p.SetKey(0xB, true)
	p.SetKey(0xC, true)
	info := steps(t, p, 1)
	assert.Zero(t, info&Waiting)
	assert.Equal(t, uint8(0xB), p.Register(3))
	assert.Equal(t, ProgramStartAddress+2, p.ProgramCounter())
}

func TestWaitForKeyStillTicksTimers(t *testing.T) {
	p := newLoaded(t, []uint16{0xF30A})
	p.delay = 3

	steps(t, p, 3)
	assert.Equal(t, uint8(0), p.DelayTimer())
}

func TestTimerRegisters(t *testing.T) {
	p := newLoaded(t, []uint16{0x6A20, 0xFA15, 0xFB07, 0xFA18})

	steps(t, p, 3)
	// Set to 0x20 and ticked once in the setting step.
	assert.Equal(t, uint8(0x1F), p.Register(0xB))
	assert.Equal(t, uint8(0x1E), p.DelayTimer())

	steps(t, p, 1)
	assert.Equal(t, uint8(0x1F), p.SoundTimer())
}

func TestFontCharacter(t *testing.T) {
	for digit := range uint8(16) {
		p := newLoaded(t, []uint16{0xFA29})
		p.v[0xA] = digit

		steps(t, p, 1)
		assert.Equal(t, FontStartAddress+uint16(digit)*5, p.Index())

		glyph := make([]byte, 5)
		p.Read(p.Index(), glyph)
		assert.Equal(t, fontSet[int(digit)*5:int(digit)*5+5], glyph)
	}

	p := newLoaded(t, []uint16{0xFA29})
	p.v[0xA] = 0x1C
	steps(t, p, 1)
	assert.Equal(t, FontStartAddress+0xC*5, p.Index(), "the high nibble is ignored")
}

func TestBinaryCodedDecimal(t *testing.T) {
	tests := []struct {
		value  byte
		digits []byte
	}{
		{158, []byte{1, 5, 8}},
		{0, []byte{0, 0, 0}},
		{9, []byte{0, 0, 9}},
		{40, []byte{0, 4, 0}},
		{255, []byte{2, 5, 5}},
		{100, []byte{1, 0, 0}},
	}

	for _, tt := range tests {
		p := newLoaded(t, []uint16{0xA300, 0xF533})
		p.v[5] = tt.value

		steps(t, p, 2)
		got := make([]byte, 3)
		p.Read(0x300, got)
		assert.Equal(t, tt.digits, got, "value %d", tt.value)
		assert.Equal(t, tt.value, p.Register(5))
		assert.Equal(t, uint16(0x300), p.Index())
	}
}

func TestBinaryCodedDecimalBounds(t *testing.T) {
	p := newLoaded(t, []uint16{0xAFFE, 0xF533})
	p.v[5] = 123
	steps(t, p, 1)

	_, err := p.Step()
	require.ErrorIs(t, err, ErrMemoryOutOfBounds)

	got := make([]byte, 2)
	p.Read(0xFFE, got)
	assert.Equal(t, []byte{0, 0}, got)

	p = newLoaded(t, []uint16{0xAFFE, 0xF533}, WithQuirks(Quirks{Memory: MemoryWrap}))
	p.v[5] = 123
	steps(t, p, 2)
	got = make([]byte, 3)
	p.Read(0xFFE, got[:2])
	p.Read(0x000, got[2:])
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestRegisterBlockStoreLoad(t *testing.T) {
	tests := []struct {
		name       string
		quirks     Quirks
		storeIndex uint16
		loadIndex  uint16
	}{
		{"index unchanged", Quirks{}, 0x300, 0x300},
		{"index incremented", Quirks{LoadStoreIncrementsIndex: true}, 0x304, 0x303},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newLoaded(t, []uint16{0xA300, 0xF355}, WithQuirks(tt.quirks))
			for r := range uint8(16) {
				p.v[r] = 0x10 + r
			}

			steps(t, p, 2)
			got := make([]byte, 6)
			p.Read(0x300, got)
			assert.Equal(t, []byte{0x10, 0x11, 0x12, 0x13, 0, 0}, got)
			assert.Equal(t, tt.storeIndex, p.Index())

			p = newLoaded(t, []uint16{0xA300, 0xF265}, WithQuirks(tt.quirks))
			p.Write(0x300, []byte{0xA0, 0xA1, 0xA2, 0xA3})

			steps(t, p, 2)
			regs := p.Registers()
			assert.Equal(t, []byte{0xA0, 0xA1, 0xA2, 0x00}, regs[:4])
			assert.Equal(t, tt.loadIndex, p.Index())
		})
	}
}

func TestRegisterBlockBounds(t *testing.T) {
	p := newLoaded(t, []uint16{0xAFFD, 0xFF55})
	p.v[0] = 0x77
	steps(t, p, 1)

	_, err := p.Step()
	require.ErrorIs(t, err, ErrMemoryOutOfBounds)

	got := make([]byte, 3)
	p.Read(0xFFD, got)
	assert.Equal(t, []byte{0, 0, 0}, got)
	assert.Equal(t, uint16(0xFFD), p.Index())

	p = newLoaded(t, []uint16{0xAFFD, 0xFF65})
	p.Write(0xFFD, []byte{1, 2, 3})
	steps(t, p, 1)

	_, err = p.Step()
	require.ErrorIs(t, err, ErrMemoryOutOfBounds)
	assert.Equal(t, uint8(0), p.Register(0))
}
