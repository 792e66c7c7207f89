// debug_overlay.go - clipboard convenience for the debugger's register dump.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"strings"
	"sync"

	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardOK   bool
)

// copyRegisterDump formats cpu's current registers the way the "regs"
// command prints them and places the result on the host clipboard, the
// same lazily-initialized clipboard.Init() the video backend uses for
// paste support.
func copyRegisterDump(cpu DebuggableCPU) error {
	clipboardOnce.Do(func() {
		clipboardOK = clipboard.Init() == nil
	})
	if !clipboardOK {
		return fmt.Errorf("clipboard unavailable on this host")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s registers at pc=%#08x\n", cpu.CPUName(), cpu.GetPC())
	for _, reg := range cpu.GetRegisters() {
		fmt.Fprintf(&b, "%-6s = %#08x\n", reg.Name, reg.Value)
	}

	clipboard.Write(clipboard.FmtText, []byte(b.String()))
	return nil
}
