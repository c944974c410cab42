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
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

type Reloader interface {
	Reload(rom []byte)
}

// ROMWatcher re-reads a ROM file whenever it is written or replaced and
// hands the new contents to a Reloader.
type ROMWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	reloader Reloader
}

// NewROMWatcher starts watching the directory holding path. Watching the
// directory rather than the file keeps working when an editor or build tool
// replaces the file by rename.
func NewROMWatcher(path string, reloader Reloader) (*ROMWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	return &ROMWatcher{
		path:     abs,
		watcher:  w,
		reloader: reloader,
	}, nil
}

// Close releases the watcher without running it.
func (rw *ROMWatcher) Close() error {
	return rw.watcher.Close()
}

// Run delivers reloads until ctx is done, then releases the watcher.
func (rw *ROMWatcher) Run(ctx context.Context) error {
	defer func() {
		_ = rw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-rw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != rw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			rom, err := os.ReadFile(rw.path)
			if err != nil {
				log.Printf("error reading %s: %v\n", rw.path, err)
				continue
			}
			rw.reloader.Reload(rom)

		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("error watching %s: %v\n", rw.path, err)
		}
	}
}
