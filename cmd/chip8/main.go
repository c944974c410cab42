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

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"emul8"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	scale := flag.Int("scale", emul8.DefaultScale, "window scale factor")
	rate := flag.Int("rate", emul8.DefaultClockRate, "instructions per second")
	timers := flag.String("timers", "cycle", "timer clock: cycle or wallclock")
	watch := flag.Bool("watch", false, "reload the rom when the file changes")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] rom.ch8\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := emul8.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = emul8.LoadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	// Flags given explicitly win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scale":
			cfg.Scale = *scale
		case "rate":
			cfg.ClockRate = *rate
		case "timers":
			cfg.Timers = *timers
		case "watch":
			cfg.Watch = *watch
		}
	})

	e, err := emul8.NewEmulator(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if err := e.Run(flag.Arg(0)); err != nil {
		log.Fatal(err)
	}
}
