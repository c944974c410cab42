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

// handler executes one decoded instruction. A handler that returns an error
// must not have mutated any state.
type handler func(p *Processor, op Opcode, info *Info) error

var handlers [instructionCount]handler

func init() {
	handlers = [instructionCount]handler{
		Unknown:   (*Processor).noop,
		Sys:       (*Processor).noop,
		Cls:       (*Processor).clearScreen,
		Ret:       (*Processor).returnFromSubroutine,
		Jp:        (*Processor).jumpToLocation,
		Call:      (*Processor).callSubroutine,
		SeByte:    (*Processor).stepIfXEqualsNN,
		SneByte:   (*Processor).stepIfXNotEqualsNN,
		SeReg:     (*Processor).stepIfXEqualsY,
		LdByte:    (*Processor).setXToNN,
		AddByte:   (*Processor).addNNToX,
		Ld:        (*Processor).setXToY,
		Or:        (*Processor).orXY,
		And:       (*Processor).andXY,
		Xor:       (*Processor).xorXY,
		AddReg:    (*Processor).addXY,
		Sub:       (*Processor).subtractYFromX,
		Shr:       (*Processor).shiftRight,
		Subn:      (*Processor).subtractXFromY,
		Shl:       (*Processor).shiftLeft,
		SneReg:    (*Processor).stepIfXNotEqualsY,
		LdI:       (*Processor).setIToNNN,
		JpV0:      (*Processor).jumpWithOffset,
		Rnd:       (*Processor).setXToRandom,
		Drw:       (*Processor).drawSprite,
		Skp:       (*Processor).stepIfKeyDown,
		Sknp:      (*Processor).stepIfKeyUp,
		LdVxDT:    (*Processor).setXToDelay,
		LdKey:     (*Processor).pauseUntilKeyPressed,
		LdDT:      (*Processor).setDelayToX,
		LdST:      (*Processor).setSoundToX,
		AddI:      (*Processor).addXToI,
		LdF:       (*Processor).setIToSymbol,
		Bcd:       (*Processor).binaryCodedDecimal,
		StoreRegs: (*Processor).setRegistersToMemory,
		LoadRegs:  (*Processor).setMemoryToRegisters,
	}
}

// Execute decodes and runs a single opcode against the current state. The
// program counter is expected to already point past the opcode.
func (p *Processor) Execute(op Opcode, info *Info) error {
	return handlers[Decode(op)](p, op, info)
}

func (p *Processor) noop(Opcode, *Info) error {
	return nil
}

func (p *Processor) clearScreen(_ Opcode, info *Info) error {
	for i := range p.display {
		p.display[i] = PixelOff
	}
	*info |= Redraw
	return nil
}

func (p *Processor) callSubroutine(op Opcode, _ *Info) error {
	if int(p.sp) >= len(p.stack) {
		return ErrStackOverflow
	}
	p.stack[p.sp] = p.pc
	p.sp++
	p.pc = op.nnn()
	return nil
}

func (p *Processor) returnFromSubroutine(Opcode, *Info) error {
	if p.sp == 0 {
		return ErrStackUnderflow
	}
	p.sp--
	p.pc = p.stack[p.sp]
	return nil
}

func (p *Processor) jumpToLocation(op Opcode, _ *Info) error {
	p.pc = op.nnn()
	return nil
}

func (p *Processor) jumpWithOffset(op Opcode, _ *Info) error {
	target, err := p.address(op.nnn(), uint16(p.v[0x0]))
	if err != nil {
		return err
	}
	p.pc = target
	return nil
}

func (p *Processor) skipIf(cond bool) {
	if cond {
		p.pc += 2
	}
}

func (p *Processor) stepIfXEqualsNN(op Opcode, _ *Info) error {
	p.skipIf(p.v[op.x()] == op.nn())
	return nil
}

func (p *Processor) stepIfXNotEqualsNN(op Opcode, _ *Info) error {
	p.skipIf(p.v[op.x()] != op.nn())
	return nil
}

func (p *Processor) stepIfXEqualsY(op Opcode, _ *Info) error {
	p.skipIf(p.v[op.x()] == p.v[op.y()])
	return nil
}

func (p *Processor) stepIfXNotEqualsY(op Opcode, _ *Info) error {
	p.skipIf(p.v[op.x()] != p.v[op.y()])
	return nil
}

func (p *Processor) setXToNN(op Opcode, _ *Info) error {
	p.v[op.x()] = op.nn()
	return nil
}

func (p *Processor) addNNToX(op Opcode, _ *Info) error {
	p.v[op.x()] += op.nn()
	return nil
}

func (p *Processor) setXToY(op Opcode, _ *Info) error {
	p.v[op.x()] = p.v[op.y()]
	return nil
}

func (p *Processor) orXY(op Opcode, _ *Info) error {
	p.v[op.x()] |= p.v[op.y()]
	p.logicFlag()
	return nil
}

func (p *Processor) andXY(op Opcode, _ *Info) error {
	p.v[op.x()] &= p.v[op.y()]
	p.logicFlag()
	return nil
}

func (p *Processor) xorXY(op Opcode, _ *Info) error {
	p.v[op.x()] ^= p.v[op.y()]
	p.logicFlag()
	return nil
}

func (p *Processor) logicFlag() {
	if p.quirks.LogicResetsFlag {
		p.v[CarryFlag] = 0
	}
}

// The flag is written after the result so that VF as a destination holds
// the flag.

func (p *Processor) addXY(op Opcode, _ *Info) error {
	sum := uint16(p.v[op.x()]) + uint16(p.v[op.y()])
	p.v[op.x()] = byte(sum)
	p.v[CarryFlag] = flag(sum > 0xFF)
	return nil
}

func (p *Processor) subtractYFromX(op Opcode, _ *Info) error {
	vx, vy := p.v[op.x()], p.v[op.y()]
	p.v[op.x()] = vx - vy
	p.v[CarryFlag] = flag(vx > vy)
	return nil
}

func (p *Processor) subtractXFromY(op Opcode, _ *Info) error {
	vx, vy := p.v[op.x()], p.v[op.y()]
	p.v[op.x()] = vy - vx
	p.v[CarryFlag] = flag(vy > vx)
	return nil
}

func (p *Processor) shiftSource(op Opcode) byte {
	if p.quirks.ShiftUsesVY {
		return p.v[op.y()]
	}
	return p.v[op.x()]
}

func (p *Processor) shiftRight(op Opcode, _ *Info) error {
	src := p.shiftSource(op)
	p.v[op.x()] = src >> 1
	p.v[CarryFlag] = src & 0x1
	return nil
}

func (p *Processor) shiftLeft(op Opcode, _ *Info) error {
	src := p.shiftSource(op)
	p.v[op.x()] = src << 1
	p.v[CarryFlag] = (src & 0x80) >> 7
	return nil
}

func (p *Processor) setIToNNN(op Opcode, _ *Info) error {
	p.i = op.nnn()
	return nil
}

func (p *Processor) setXToRandom(op Opcode, _ *Info) error {
	randomByte := byte(p.rng.Uint32N(256))
	p.v[op.x()] = randomByte & op.nn()
	return nil
}

// drawSprite XORs an 8 pixel wide sprite of n rows, read from I, onto the
// display at (Vx, Vy). Both axes wrap around the screen edges. VF is set
// when any lit pixel is turned off.
func (p *Processor) drawSprite(op Opcode, info *Info) error {
	height := uint16(op.n())
	if err := p.span(p.i, height); err != nil {
		return err
	}

	startX := int(p.v[op.x()])
	startY := int(p.v[op.y()])

	var collision bool
	for row := range height {
		sprite := p.memory[p.at(p.i, row)]
		y := (startY + int(row)) % Height

		for col := range 8 {
			if sprite&(0x80>>col) == 0 {
				continue
			}
			x := (startX + col) % Width

			pixel := &p.display[y*Width+x]
			if *pixel == PixelOn {
				collision = true
			}
			*pixel ^= PixelOn
		}
	}

	p.v[CarryFlag] = flag(collision)
	*info |= Redraw
	return nil
}

func (p *Processor) stepIfKeyDown(op Opcode, _ *Info) error {
	p.skipIf(p.Key(p.v[op.x()]))
	return nil
}

func (p *Processor) stepIfKeyUp(op Opcode, _ *Info) error {
	p.skipIf(!p.Key(p.v[op.x()]))
	return nil
}

func (p *Processor) setXToDelay(op Opcode, _ *Info) error {
	p.v[op.x()] = p.delay
	return nil
}

func (p *Processor) pauseUntilKeyPressed(op Opcode, info *Info) error {
	for i := range uint8(len(p.keyState)) {
		if p.keyState[i].Load() {
			p.v[op.x()] = i
			return nil
		}
	}

	// Move the program counter back, replaying the opcode next step.
	p.pc -= 2
	*info |= Waiting
	return nil
}

func (p *Processor) setDelayToX(op Opcode, _ *Info) error {
	p.delay = p.v[op.x()]
	return nil
}

func (p *Processor) setSoundToX(op Opcode, _ *Info) error {
	p.sound = p.v[op.x()]
	return nil
}

func (p *Processor) addXToI(op Opcode, _ *Info) error {
	p.i += uint16(p.v[op.x()])
	return nil
}

func (p *Processor) setIToSymbol(op Opcode, _ *Info) error {
	// Only the low nibble of Vx selects a glyph.
	digit := uint16(p.v[op.x()] & 0x0F)
	p.i = FontStartAddress + digit*FontSpriteHeight
	return nil
}

// binaryCodedDecimal stores the hundreds, tens and ones digits of Vx at
// I, I+1 and I+2.
func (p *Processor) binaryCodedDecimal(op Opcode, _ *Info) error {
	if err := p.span(p.i, 3); err != nil {
		return err
	}

	val := p.v[op.x()]
	p.memory[p.at(p.i, 0)] = val / 100
	p.memory[p.at(p.i, 1)] = (val / 10) % 10
	p.memory[p.at(p.i, 2)] = val % 10
	return nil
}

func (p *Processor) setRegistersToMemory(op Opcode, _ *Info) error {
	count := uint16(op.x()) + 1
	if err := p.span(p.i, count); err != nil {
		return err
	}

	for r := range count {
		p.memory[p.at(p.i, r)] = p.v[r]
	}
	p.advanceIndex(count)
	return nil
}

func (p *Processor) setMemoryToRegisters(op Opcode, _ *Info) error {
	count := uint16(op.x()) + 1
	if err := p.span(p.i, count); err != nil {
		return err
	}

	for r := range count {
		p.v[r] = p.memory[p.at(p.i, r)]
	}
	p.advanceIndex(count)
	return nil
}

func (p *Processor) advanceIndex(count uint16) {
	if p.quirks.LoadStoreIncrementsIndex {
		p.i += count
	}
}

// at returns base+offset masked to the address space. Callers check the
// range with span first, so masking only has an effect under MemoryWrap.
func (p *Processor) at(base, offset uint16) uint16 {
	return uint16((uint32(base) + uint32(offset)) & uint32(LastAddress))
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
