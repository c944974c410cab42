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
	"image"
	"image/color"

	"emul8/chip8"
)

func newFrameImage() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, chip8.Width, chip8.Height))
}

// paint copies a frame buffer into img, one image pixel per CHIP-8 pixel.
func paint(img *image.RGBA, frame *[chip8.Area]byte, on, off color.RGBA) {
	for i, val := range frame {
		x, y := i%chip8.Width, i/chip8.Width
		c := off
		if val == chip8.PixelOn {
			c = on
		}
		img.SetRGBA(x, y, c)
	}
}
