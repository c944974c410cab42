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

import "fmt"

// Opcode is a 16bit CHIP-8 instruction word.
type Opcode uint16

func (op Opcode) String() string {
	return fmt.Sprintf("%04X", uint16(op))
}

// First nibble of the opcode is the operation kind.
func (op Opcode) kind() uint8 { return uint8(op >> 12) }

// Second nibble of the opcode is the X register location.
func (op Opcode) x() uint8 { return uint8(op>>8) & 0xF }

// Third nibble of the opcode is the Y register location.
func (op Opcode) y() uint8 { return uint8(op>>4) & 0xF }

// Fourth nibble of the opcode is the N value.
func (op Opcode) n() uint8 { return uint8(op) & 0xF }

// Third and fourth nibbles of the opcode combine into the NN value.
func (op Opcode) nn() uint8 { return uint8(op) }

// Second, third, and fourth nibbles of the opcode combine into the NNN value.
func (op Opcode) nnn() uint16 { return uint16(op) & 0x0FFF }

// Instruction identifies one of the base CHIP-8 instructions.
type Instruction uint8

const (
	Unknown   Instruction = iota
	Sys                   // 0nnn
	Cls                   // 00E0
	Ret                   // 00EE
	Jp                    // 1nnn
	Call                  // 2nnn
	SeByte                // 3xkk
	SneByte               // 4xkk
	SeReg                 // 5xy0
	LdByte                // 6xkk
	AddByte               // 7xkk
	Ld                    // 8xy0
	Or                    // 8xy1
	And                   // 8xy2
	Xor                   // 8xy3
	AddReg                // 8xy4
	Sub                   // 8xy5
	Shr                   // 8xy6
	Subn                  // 8xy7
	Shl                   // 8xyE
	SneReg                // 9xy0
	LdI                   // Annn
	JpV0                  // Bnnn
	Rnd                   // Cxkk
	Drw                   // Dxyn
	Skp                   // Ex9E
	Sknp                  // ExA1
	LdVxDT                // Fx07
	LdKey                 // Fx0A
	LdDT                  // Fx15
	LdST                  // Fx18
	AddI                  // Fx1E
	LdF                   // Fx29
	Bcd                   // Fx33
	StoreRegs             // Fx55
	LoadRegs              // Fx65

	instructionCount
)

var mnemonics = [instructionCount]string{
	Unknown:   "???",
	Sys:       "SYS",
	Cls:       "CLS",
	Ret:       "RET",
	Jp:        "JP",
	Call:      "CALL",
	SeByte:    "SE",
	SneByte:   "SNE",
	SeReg:     "SE",
	LdByte:    "LD",
	AddByte:   "ADD",
	Ld:        "LD",
	Or:        "OR",
	And:       "AND",
	Xor:       "XOR",
	AddReg:    "ADD",
	Sub:       "SUB",
	Shr:       "SHR",
	Subn:      "SUBN",
	Shl:       "SHL",
	SneReg:    "SNE",
	LdI:       "LD",
	JpV0:      "JP",
	Rnd:       "RND",
	Drw:       "DRW",
	Skp:       "SKP",
	Sknp:      "SKNP",
	LdVxDT:    "LD",
	LdKey:     "LD",
	LdDT:      "LD",
	LdST:      "LD",
	AddI:      "ADD",
	LdF:       "LD",
	Bcd:       "LD",
	StoreRegs: "LD",
	LoadRegs:  "LD",
}

// String returns the instruction mnemonic.
func (in Instruction) String() string {
	if in >= instructionCount {
		return mnemonics[Unknown]
	}
	return mnemonics[in]
}

// selector picks the secondary table slot for an opcode.
type selector func(op Opcode) int

type table struct {
	// direct is used when sub is nil.
	direct Instruction
	sub    []Instruction
	key    selector
}

// The primary table is keyed on the leading nibble. Families 0x0, 0x8, 0xE
// and 0xF delegate to a secondary table. Every empty slot is Unknown.
var (
	table0  [256]Instruction
	table8  [16]Instruction
	tableE  [256]Instruction
	tableF  [256]Instruction
	primary [16]table
)

func init() {
	for i := range table0 {
		table0[i] = Sys
	}
	table0[0xE0] = Cls
	table0[0xEE] = Ret

	table8[0x0] = Ld
	table8[0x1] = Or
	table8[0x2] = And
	table8[0x3] = Xor
	table8[0x4] = AddReg
	table8[0x5] = Sub
	table8[0x6] = Shr
	table8[0x7] = Subn
	table8[0xE] = Shl

	tableE[0x9E] = Skp
	tableE[0xA1] = Sknp

	tableF[0x07] = LdVxDT
	tableF[0x0A] = LdKey
	tableF[0x15] = LdDT
	tableF[0x18] = LdST
	tableF[0x1E] = AddI
	tableF[0x29] = LdF
	tableF[0x33] = Bcd
	tableF[0x55] = StoreRegs
	tableF[0x65] = LoadRegs

	trailingByte := func(op Opcode) int { return int(op.nn()) }
	trailingNibble := func(op Opcode) int { return int(op.n()) }

	// 0nnn other than 00E0 and 00EE calls a machine routine, which is ignored.
	primary[0x0] = table{sub: table0[:], direct: Sys, key: func(op Opcode) int {
		if op.x() != 0 {
			return -1
		}
		return trailingByte(op)
	}}
	primary[0x1] = table{direct: Jp}
	primary[0x2] = table{direct: Call}
	primary[0x3] = table{direct: SeByte}
	primary[0x4] = table{direct: SneByte}
	primary[0x5] = table{direct: SeReg}
	primary[0x6] = table{direct: LdByte}
	primary[0x7] = table{direct: AddByte}
	primary[0x8] = table{sub: table8[:], key: trailingNibble}
	primary[0x9] = table{direct: SneReg}
	primary[0xA] = table{direct: LdI}
	primary[0xB] = table{direct: JpV0}
	primary[0xC] = table{direct: Rnd}
	primary[0xD] = table{direct: Drw}
	primary[0xE] = table{sub: tableE[:], key: trailingByte}
	primary[0xF] = table{sub: tableF[:], key: trailingByte}
}

// Decode resolves an opcode to its instruction. Opcodes outside the base
// instruction set decode to Unknown, except in family 0x0 where anything
// other than 00E0 and 00EE is Sys.
func Decode(op Opcode) Instruction {
	t := primary[op.kind()]
	if t.sub == nil {
		return t.direct
	}

	k := t.key(op)
	if k < 0 {
		return t.direct
	}
	return t.sub[k]
}
