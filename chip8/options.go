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
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// MemoryPolicy controls what happens when an instruction addresses memory
// past LastAddress.
type MemoryPolicy uint8

const (
	// MemoryFail stops the instruction and reports ErrMemoryOutOfBounds.
	MemoryFail MemoryPolicy = iota
	// MemoryWrap masks every address to 12 bits.
	MemoryWrap
)

func (m MemoryPolicy) String() string {
	switch m {
	case MemoryFail:
		return "fail"
	case MemoryWrap:
		return "wrap"
	}
	return fmt.Sprintf("MemoryPolicy(%d)", uint8(m))
}

func ParseMemoryPolicy(s string) (MemoryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail":
		return MemoryFail, nil
	case "wrap":
		return MemoryWrap, nil
	}
	return 0, fmt.Errorf("unknown memory policy %q", s)
}

// Quirks selects between behaviours that differ across historical CHIP-8
// interpreters. The zero value is the default instruction set.
type Quirks struct {
	// ShiftUsesVY makes 8xy6 and 8xyE shift Vy into Vx instead of shifting
	// Vx in place.
	ShiftUsesVY bool

	// LoadStoreIncrementsIndex makes Fx55 and Fx65 leave I at I+x+1.
	LoadStoreIncrementsIndex bool

	// LogicResetsFlag makes 8xy1, 8xy2 and 8xy3 clear VF.
	LogicResetsFlag bool

	Memory MemoryPolicy
}

// COSMACQuirks matches the behaviour of the original COSMAC VIP interpreter.
var COSMACQuirks = Quirks{
	ShiftUsesVY:              true,
	LoadStoreIncrementsIndex: true,
	LogicResetsFlag:          true,
}

// TimerMode selects what drives the delay and sound timers.
type TimerMode uint8

const (
	// TimerPerCycle decrements both timers once per executed instruction.
	TimerPerCycle TimerMode = iota
	// TimerWallClock decrements both timers once per elapsed TimerRate,
	// independent of how many instructions ran.
	TimerWallClock
)

func (t TimerMode) String() string {
	switch t {
	case TimerPerCycle:
		return "cycle"
	case TimerWallClock:
		return "wallclock"
	}
	return fmt.Sprintf("TimerMode(%d)", uint8(t))
}

func ParseTimerMode(s string) (TimerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cycle":
		return TimerPerCycle, nil
	case "wallclock":
		return TimerWallClock, nil
	}
	return 0, fmt.Errorf("unknown timer mode %q", s)
}

type Option func(p *Processor)

func WithQuirks(q Quirks) Option {
	return func(p *Processor) {
		p.quirks = q
	}
}

func WithTimerMode(m TimerMode) Option {
	return func(p *Processor) {
		p.timerMode = m
	}
}

// WithClock replaces time.Now as the source of wall-clock time.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithRandom sets the source used by Cxkk.
func WithRandom(src rand.Source) Option {
	return func(p *Processor) {
		if src != nil {
			p.rng = rand.New(src)
		}
	}
}
