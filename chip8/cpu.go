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

// Package chip8 implements the CHIP-8 instruction set: memory and register
// model, opcode dispatch and the semantics of every base instruction.
//
// A Processor executes exactly one instruction per call to Step. Rendering,
// input translation and ROM file handling belong to the caller, which reads
// the frame buffer and writes the key bitmap between steps.
package chip8

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

const (
	RegisterCount       int    = 16
	KeyCount            int    = 16
	StackSize           int    = 16
	MemorySize          int    = 4096
	FontStartAddress    uint16 = 0x50
	LastAddress         uint16 = 0xFFF
	ProgramStartAddress uint16 = 0x200
	CarryFlag           uint8  = 0xF

	// MaxProgramSize is the number of bytes available from ProgramStartAddress
	// to the end of memory.
	MaxProgramSize int = MemorySize - int(ProgramStartAddress)

	TimerRate time.Duration = time.Second / 60 // 60hz

	Width  int = 64
	Height int = 32
	Area   int = Width * Height

	PixelOff byte = 0x00
	PixelOn  byte = 0xFF
)

// Info reports what a single Step did, for the benefit of the driver.
type Info uint8

const (
	Delay Info = 1 << iota
	Sound
	Redraw
	Waiting
)

var (
	ErrProgramTooLarge   = errors.New("program too large")
	ErrStackOverflow     = errors.New("stack overflow")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrMemoryOutOfBounds = errors.New("memory access out of bounds")
)

var fontSet = [...]byte{
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

// FontSpriteHeight is the number of rows in each built-in digit sprite.
const FontSpriteHeight uint16 = 5

type Processor struct {
	memory   [MemorySize]byte
	v        [RegisterCount]byte
	keyState [KeyCount]atomic.Bool
	display  [Area]byte
	stack    [StackSize]uint16
	sp       uint8
	pc       uint16
	i        uint16
	delay    uint8
	sound    uint8
	opcode   Opcode

	quirks    Quirks
	timerMode TimerMode
	rng       *rand.Rand
	now       func() time.Time

	lastTimerUpdate time.Time
}

// New returns a Processor in its freshly-initialized state: memory zeroed
// apart from the font table, program counter at ProgramStartAddress.
func New(opts ...Option) *Processor {
	p := &Processor{
		now: time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.rng == nil {
		seed := uint64(p.now().UnixNano())
		p.rng = rand.New(rand.NewPCG(seed, seed>>32|1))
	}

	p.Reset()
	return p
}

// Reset returns the machine state to its initial values. Quirks, timer mode,
// clock and random source are kept.
func (p *Processor) Reset() {
	p.memory = [MemorySize]byte{}
	p.v = [RegisterCount]byte{}
	p.display = [Area]byte{}
	p.stack = [StackSize]uint16{}
	p.sp = 0
	p.i = 0
	p.delay = 0
	p.sound = 0
	p.opcode = 0
	p.ReleaseKeys()

	copy(p.memory[FontStartAddress:], fontSet[:])
	p.pc = ProgramStartAddress
	p.lastTimerUpdate = p.now()
}

// Load resets the machine and copies the program into memory at
// ProgramStartAddress. A program that does not fit is rejected and the
// machine is left freshly initialized.
func (p *Processor) Load(b []byte) error {
	p.Reset()

	if len(b) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, %d available", ErrProgramTooLarge, len(b), MaxProgramSize)
	}
	copy(p.memory[ProgramStartAddress:], b)
	return nil
}

// LoadFrom reads a whole program from r and loads it. A read failure is
// returned with the machine freshly initialized.
func (p *Processor) LoadFrom(r io.Reader) error {
	b, err := io.ReadAll(io.LimitReader(r, int64(MaxProgramSize)+1))
	if err != nil {
		p.Reset()
		return fmt.Errorf("reading program: %w", err)
	}
	return p.Load(b)
}

// Write copies data into memory starting at loc, stopping at the end of the
// address space. It returns the number of bytes written.
func (p *Processor) Write(loc uint16, data []byte) uint16 {
	if int(loc) >= MemorySize {
		return 0
	}
	return uint16(copy(p.memory[loc:], data))
}

// Read copies memory starting at loc into data, stopping at the end of the
// address space. It returns the number of bytes read.
func (p *Processor) Read(loc uint16, data []byte) uint16 {
	if int(loc) >= MemorySize {
		return 0
	}
	return uint16(copy(data, p.memory[loc:]))
}

// Display returns a copy of the frame buffer, one byte per pixel, row major.
func (p *Processor) Display() [Area]byte {
	return p.display
}

// Pixel reports whether the pixel at (x, y) is lit. Coordinates wrap.
func (p *Processor) Pixel(x, y int) bool {
	x, y = mod(x, Width), mod(y, Height)
	return p.display[y*Width+x] == PixelOn
}

func (p *Processor) SetKey(key uint8, value bool) {
	p.keyState[key&0x0F].Store(value)
}

func (p *Processor) Key(key uint8) bool {
	return p.keyState[key&0x0F].Load()
}

// Keys returns a snapshot of the key bitmap.
func (p *Processor) Keys() [KeyCount]bool {
	var keys [KeyCount]bool
	for i := range p.keyState {
		keys[i] = p.keyState[i].Load()
	}
	return keys
}

// ReleaseKeys marks every key as up.
func (p *Processor) ReleaseKeys() {
	for i := range p.keyState {
		p.keyState[i].Store(false)
	}
}

func (p *Processor) Register(v uint8) uint8 {
	return p.v[v&0xF]
}

func (p *Processor) Registers() [RegisterCount]byte {
	return p.v
}

func (p *Processor) StackPointer() int {
	return int(p.sp)
}

// Stack returns a copy of every stack slot, including those above the
// stack pointer.
func (p *Processor) Stack() [StackSize]uint16 {
	return p.stack
}

func (p *Processor) Index() uint16 {
	return p.i
}

func (p *Processor) ProgramCounter() uint16 {
	return p.pc
}

func (p *Processor) DelayTimer() uint8 {
	return p.delay
}

func (p *Processor) SoundTimer() uint8 {
	return p.sound
}

// Opcode returns the opcode executed by the most recent successful Step.
func (p *Processor) Opcode() Opcode {
	return p.opcode
}

func (p *Processor) Quirks() Quirks {
	return p.quirks
}

// OpcodeAt returns the big-endian opcode stored at addr, applying the
// configured memory policy to both bytes.
func (p *Processor) OpcodeAt(addr uint16) (Opcode, error) {
	hi, err := p.address(addr, 0)
	if err != nil {
		return 0, err
	}
	lo, err := p.address(addr, 1)
	if err != nil {
		return 0, err
	}

	// opcode is a 16bit value, comprised of two contiguous 8bit values
	// in memory, starting at the program counter
	high := uint16(p.memory[hi]) // high-order bits of opcode
	low := uint16(p.memory[lo])  // low-order bits of opcode
	return Opcode((high << 8) | low), nil
}

// Step performs one fetch, decode, execute and timer tick. On error no state
// has changed: the program counter is left on the faulting instruction, or on
// the address that could not be fetched, and Opcode still reports the last
// instruction that ran.
func (p *Processor) Step() (Info, error) {
	var info Info

	start := p.pc

	opcode, err := p.OpcodeAt(start)
	if err != nil {
		return info, fmt.Errorf("fetch at %#04x: %w", start, err)
	}

	p.pc += 2
	p.wrapPC()

	if err := p.Execute(opcode, &info); err != nil {
		p.pc = start
		return info, fmt.Errorf("%v at %#04x: %w", opcode, start, err)
	}
	p.wrapPC()
	p.opcode = opcode

	p.tick()

	if p.sound > 0 {
		info |= Sound
	}

	if p.delay > 0 {
		info |= Delay
	}
	return info, nil
}

func (p *Processor) tick() {
	switch p.timerMode {
	case TimerWallClock:
		now := p.now()
		elapsed := now.Sub(p.lastTimerUpdate)
		if elapsed < TimerRate {
			return
		}
		ticks := elapsed / TimerRate
		p.lastTimerUpdate = p.lastTimerUpdate.Add(ticks * TimerRate)
		p.delay = decay(p.delay, ticks)
		p.sound = decay(p.sound, ticks)
	default:
		p.delay = decay(p.delay, 1)
		p.sound = decay(p.sound, 1)
	}
}

func decay(timer uint8, ticks time.Duration) uint8 {
	if time.Duration(timer) <= ticks {
		return 0
	}
	return timer - uint8(ticks)
}

// address resolves base+offset under the memory policy.
func (p *Processor) address(base, offset uint16) (uint16, error) {
	addr := uint32(base) + uint32(offset)
	if addr <= uint32(LastAddress) {
		return uint16(addr), nil
	}
	if p.quirks.Memory == MemoryWrap {
		return uint16(addr & uint32(LastAddress)), nil
	}
	return 0, fmt.Errorf("%w: %#x", ErrMemoryOutOfBounds, addr)
}

// wrapPC keeps the program counter inside the address space under
// MemoryWrap. Under MemoryFail an overrun surfaces at the next fetch.
func (p *Processor) wrapPC() {
	if p.quirks.Memory == MemoryWrap {
		p.pc &= LastAddress
	}
}

// span checks that every byte in [base, base+n) is addressable.
func (p *Processor) span(base uint16, n uint16) error {
	if n == 0 {
		return nil
	}
	_, err := p.address(base, n-1)
	return err
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
