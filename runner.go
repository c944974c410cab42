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

package emul8

import (
	"context"
	"fmt"
	"log"
	"time"

	"emul8/chip8"
)

// Runner drives a Processor at a fixed clock rate. Steps, reloads and frame
// publication all happen on the goroutine calling Run, so the processor
// state is never observed mid-instruction.
type Runner struct {
	cpu     *chip8.Processor
	rate    time.Duration
	reload  chan []byte
	onFrame func(frame [chip8.Area]byte)
}

// NewRunner returns a Runner that steps cpu once per rate and hands every
// changed frame to onFrame. A non-positive rate runs at DefaultClockRate.
func NewRunner(cpu *chip8.Processor, rate time.Duration, onFrame func(frame [chip8.Area]byte)) *Runner {
	if rate <= 0 {
		rate = time.Second / time.Duration(DefaultClockRate)
	}
	if onFrame == nil {
		onFrame = func([chip8.Area]byte) {}
	}
	return &Runner{
		cpu:     cpu,
		rate:    rate,
		reload:  make(chan []byte, 1),
		onFrame: onFrame,
	}
}

// Reload queues a program to replace the running one before the next step.
// Only the most recent pending program is kept.
func (r *Runner) Reload(rom []byte) {
	select {
	case <-r.reload:
	default:
	}

	select {
	case r.reload <- rom:
	default:
	}
}

// Run steps the processor until ctx is done or an instruction fails. A
// cancelled context is a clean stop and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case rom := <-r.reload:
			if err := r.cpu.Load(rom); err != nil {
				log.Printf("reload rejected: %v\n", err)
			}
			r.onFrame(r.cpu.Display())

		case <-ticker.C:
			info, err := r.cpu.Step()
			if err != nil {
				return fmt.Errorf("emulation halted: %w", err)
			}

			if info&chip8.Redraw != 0 {
				r.onFrame(r.cpu.Display())
			}
		}
	}
}
