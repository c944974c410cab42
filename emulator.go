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

// Package emul8 is the desktop driver for the chip8 core: a fyne window that
// renders the frame buffer, translates key events into the keypad bitmap
// and steps the processor at a configurable clock rate.
package emul8

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"sync"

	"emul8/chip8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
)

const title = "Chip-8 Emulator"

type Emulator struct {
	cfg    Config
	cpu    *chip8.Processor
	keyMap map[fyne.KeyName]uint8
	on     color.RGBA
	off    color.RGBA
}

func NewEmulator(cfg Config) (*Emulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	keyMap, err := cfg.KeyMap()
	if err != nil {
		return nil, err
	}

	on, off, err := cfg.Colors()
	if err != nil {
		return nil, err
	}

	return &Emulator{
		cfg:    cfg,
		cpu:    chip8.New(opts...),
		keyMap: keyMap,
		on:     on,
		off:    off,
	}, nil
}

func (e *Emulator) onKeyDown(k *fyne.KeyEvent) {
	if hex, ok := e.keyMap[k.Name]; ok {
		e.cpu.SetKey(hex, true)
	}
}

func (e *Emulator) onKeyUp(k *fyne.KeyEvent) {
	if hex, ok := e.keyMap[k.Name]; ok {
		e.cpu.SetKey(hex, false)
	}
}

// prepare loads the ROM at romPath and builds the runner, plus the ROM
// watcher when watching is enabled. Nothing here touches the fyne app, so a
// failure leaves no window behind.
func (e *Emulator) prepare(romPath string, onFrame func(frame [chip8.Area]byte)) (*Runner, *ROMWatcher, error) {
	f, err := os.Open(romPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening rom: %w", err)
	}
	err = e.cpu.LoadFrom(f)
	_ = f.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", romPath, err)
	}

	runner := NewRunner(e.cpu, e.cfg.CycleDuration(), onFrame)
	if !e.cfg.Watch {
		return runner, nil, nil
	}

	watcher, err := NewROMWatcher(romPath, runner)
	if err != nil {
		return nil, nil, err
	}
	return runner, watcher, nil
}

// Run loads the ROM at romPath and shows the emulator window until it is
// closed. An instruction fault halts emulation but leaves the window open
// on the last frame; the fault is returned once the window closes.
func (e *Emulator) Run(romPath string) error {
	// Back-buffer for the pixel data.
	buffer := newFrameImage()
	blank := e.cpu.Display()
	paint(buffer, &blank, e.on, e.off)

	image := canvas.NewImageFromImage(buffer)
	image.FillMode = canvas.ImageFillStretch  // Scales the 64x32 grid to window size
	image.ScaleMode = canvas.ImageScalePixels // Maintains "pixelated" retro look

	runner, watcher, err := e.prepare(romPath, func(frame [chip8.Area]byte) {
		fyne.Do(func() {
			paint(buffer, &frame, e.on, e.off)
			image.Refresh()
		})
	})
	if err != nil {
		return err
	}

	a := app.New()
	w := a.NewWindow(title)

	canv, ok := w.Canvas().(desktop.Canvas)
	if !ok {
		if watcher != nil {
			_ = watcher.Close()
		}
		return errors.New("emulator cannot be run on mobile")
	}
	canv.SetOnKeyDown(e.onKeyDown)
	canv.SetOnKeyUp(e.onKeyUp)

	w.SetContent(image)
	scale := float32(e.cfg.Scale)
	w.Resize(fyne.NewSize(float32(chip8.Width)*scale, float32(chip8.Height)*scale))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	if watcher != nil {
		wg.Go(func() {
			_ = watcher.Run(ctx)
		})
	}

	var runErr error
	wg.Go(func() {
		runErr = runner.Run(ctx)
		if runErr != nil {
			fyne.LogError("emulation stopped", runErr)
			fyne.Do(func() {
				w.SetTitle(title + " (halted)")
			})
		}
	})

	w.ShowAndRun()
	cancel()
	wg.Wait()

	return runErr
}
