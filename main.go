// main.go - command-line entry point: wires a System from a BIOS image and runs it.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Fatalf("psxcore: internal error: %v", r)
		}
	}()

	biosPath := flag.String("bios", "", "path to a 512 KiB BIOS image (required)")
	exePath := flag.String("exe", "", "optional PSX-EXE to side-load once the BIOS shell is reached")
	fastBoot := flag.Bool("fastboot", false, "skip the BIOS shell splash once POST completes")
	headless := flag.Bool("headless", false, "force the software rasterizer even in a -vulkan build")
	dumpFrame := flag.String("dump-frame", "", "write a PNG of VRAM to this path on every VBlank")
	frames := flag.Int("frames", 0, "stop after this many video frames (0 = run until interrupted)")
	debug := flag.Bool("debug", false, "attach the interactive terminal debugger instead of running freely")
	version := flag.Bool("version", false, "print version and compiled features, then exit")
	flag.Parse()

	if *version {
		printFeatures()
		return
	}

	if *biosPath == "" {
		fmt.Fprintln(os.Stderr, "usage: psxcore -bios <path> [-exe <path>] [-fastboot] [-headless] [-dump-frame <path>] [-frames N]")
		os.Exit(1)
	}

	sys, err := NewSystem(SystemConfig{
		FastBoot:  *fastBoot,
		Headless:  *headless,
		DumpFrame: *dumpFrame,
	}, defaultControllerPort(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "psxcore: %v\n", err)
		os.Exit(1)
	}
	defer sys.Close()

	if err := LoadBIOS(sys.Bus, *biosPath); err != nil {
		fmt.Fprintf(os.Stderr, "psxcore: %v\n", err)
		os.Exit(1)
	}
	sys.Reset()

	if *exePath != "" {
		h, payload, err := LoadEXE(*exePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "psxcore: %v\n", err)
			os.Exit(1)
		}
		if *fastBoot {
			InjectEXE(sys.CPU, sys.Bus, h, payload)
		} else {
			sys.SetPendingEXE(h, payload)
		}
	}

	if *debug {
		repl := NewDebugREPL(NewDebugMIPS(sys))
		if err := repl.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "psxcore: debugger: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runForever := *frames == 0
	for i := 0; runForever || i < *frames; i++ {
		sys.RunFrameVideo()
	}
}

// defaultControllerPort returns a single digital pad on port 1 so a BIOS's
// controller poll at boot gets a well-formed (if untouched) response
// instead of a timeout.
func defaultControllerPort() []JoyDevice {
	return []JoyDevice{newDigitalPad()}
}
