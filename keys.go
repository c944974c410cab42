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
	"fmt"
	"maps"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
)

// defaultKeyMap lays the hex keypad over the left of a QWERTY keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var defaultKeyMap = map[fyne.KeyName]uint8{
	fyne.Key1: 0x1, fyne.Key2: 0x2, fyne.Key3: 0x3, fyne.Key4: 0xC,
	fyne.KeyQ: 0x4, fyne.KeyW: 0x5, fyne.KeyE: 0x6, fyne.KeyR: 0xD,
	fyne.KeyA: 0x7, fyne.KeyS: 0x8, fyne.KeyD: 0x9, fyne.KeyF: 0xE,
	fyne.KeyZ: 0xA, fyne.KeyX: 0x0, fyne.KeyC: 0xB, fyne.KeyV: 0xF,
}

// KeyMap returns the keyboard binding. A non-empty [keys] table replaces the
// default layout entirely; its keys are fyne key names and its values are
// hex digits.
func (c Config) KeyMap() (map[fyne.KeyName]uint8, error) {
	if len(c.Keys) == 0 {
		return maps.Clone(defaultKeyMap), nil
	}

	keyMap := make(map[fyne.KeyName]uint8, len(c.Keys))
	for name, hex := range c.Keys {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("keys: empty key name")
		}

		v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(hex), "0x"), 16, 8)
		if err != nil || v > 0xF {
			return nil, fmt.Errorf("keys: %s maps to %q, want a hex digit 0-F", name, hex)
		}
		keyMap[fyne.KeyName(name)] = uint8(v)
	}
	return keyMap, nil
}
