// terminal_host.go - interactive debugger REPL over a raw terminal.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// stdinoutRW adapts stdin/stdout into the io.ReadWriter term.NewTerminal
// wants, the same raw-mode lifecycle the teacher's host used, driving a
// line-editing REPL instead of a byte-at-a-time MMIO feed.
type stdinoutRW struct{}

func (stdinoutRW) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdinoutRW) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// DebugREPL is the interactive front-end to a DebuggableCPU: breakpoints,
// single-stepping, register/memory inspection, and optional Lua scripting
// of conditions, all driven from a raw terminal so line editing and
// interrupt keys behave normally despite the non-blocking debugger loop.
type DebugREPL struct {
	cpu     DebuggableCPU
	scripts *DebugScripts
	events  chan BreakpointEvent
}

// NewDebugREPL wires a REPL to cpu. cpu should already be attached to a
// breakpoint channel via SetBreakpointChannel before Run is called.
func NewDebugREPL(cpu DebuggableCPU) *DebugREPL {
	events := make(chan BreakpointEvent, 1)
	cpu.SetBreakpointChannel(events, 0)
	return &DebugREPL{cpu: cpu, scripts: NewDebugScripts(cpu), events: events}
}

// Run puts the terminal in raw mode, prints a banner, and processes
// commands until "quit" or EOF. Restores the terminal on return.
func (r *DebugREPL) Run() error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("debug: failed to set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(stdinoutRW{}, "(psxdbg) ")
	fmt.Fprintf(t, "psxcore debugger attached to %s\r\n", r.cpu.CPUName())

	for {
		line, err := t.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if r.dispatch(t, line) {
			return nil
		}
	}
}

// dispatch executes one command line and returns true if the REPL should
// exit.
func (r *DebugREPL) dispatch(w io.Writer, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "q", "exit":
		return true

	case "step", "s":
		n := 1
		if len(args) > 0 {
			n, _ = strconv.Atoi(args[0])
		}
		for i := 0; i < n; i++ {
			r.cpu.Step()
		}
		fmt.Fprintf(w, "pc=%#08x\r\n", r.cpu.GetPC())

	case "continue", "c":
		r.cpu.Resume()
		ev := <-r.events
		r.cpu.Freeze()
		if ev.IsWatch {
			fmt.Fprintf(w, "watchpoint hit: %#08x (%#02x -> %#02x) at pc=%#08x\r\n",
				ev.WatchAddr, ev.WatchOldValue, ev.WatchNewValue, ev.Address)
		} else {
			fmt.Fprintf(w, "breakpoint hit at pc=%#08x\r\n", ev.Address)
		}

	case "break", "b":
		if len(args) != 1 {
			fmt.Fprint(w, "usage: break <addr>\r\n")
			break
		}
		addr, ok := ParseAddress(args[0])
		if !ok {
			fmt.Fprintf(w, "bad address: %s\r\n", args[0])
			break
		}
		r.cpu.SetBreakpoint(addr)
		fmt.Fprintf(w, "breakpoint set at %#08x\r\n", addr)

	case "bcond":
		if len(args) < 2 {
			fmt.Fprint(w, "usage: bcond <addr> <condition>\r\n")
			break
		}
		addr, ok := ParseAddress(args[0])
		if !ok {
			fmt.Fprintf(w, "bad address: %s\r\n", args[0])
			break
		}
		cond, err := ParseCondition(strings.Join(args[1:], ""))
		if err != nil {
			fmt.Fprintf(w, "bad condition: %v\r\n", err)
			break
		}
		r.cpu.SetConditionalBreakpoint(addr, cond)
		fmt.Fprintf(w, "conditional breakpoint set at %#08x: %s\r\n", addr, FormatCondition(cond))

	case "watch":
		if len(args) != 1 {
			fmt.Fprint(w, "usage: watch <addr>\r\n")
			break
		}
		addr, ok := ParseAddress(args[0])
		if !ok {
			fmt.Fprintf(w, "bad address: %s\r\n", args[0])
			break
		}
		r.cpu.SetWatchpoint(addr)
		fmt.Fprintf(w, "watchpoint set at %#08x\r\n", addr)

	case "regs", "r":
		for _, reg := range r.cpu.GetRegisters() {
			fmt.Fprintf(w, "%-6s = %#08x\r\n", reg.Name, reg.Value)
		}

	case "mem", "m":
		if len(args) < 1 {
			fmt.Fprint(w, "usage: mem <addr> [count]\r\n")
			break
		}
		addr, ok := ParseAddress(args[0])
		if !ok {
			fmt.Fprintf(w, "bad address: %s\r\n", args[0])
			break
		}
		n := 16
		if len(args) > 1 {
			n, _ = strconv.Atoi(args[1])
		}
		data := r.cpu.ReadMemory(addr, n)
		fmt.Fprintf(w, "%#08x: % X\r\n", addr, data)

	case "disasm", "d":
		addr := r.cpu.GetPC()
		n := 8
		if len(args) > 0 {
			if a, ok := ParseAddress(args[0]); ok {
				addr = a
			}
		}
		if len(args) > 1 {
			n, _ = strconv.Atoi(args[1])
		}
		for _, l := range r.cpu.Disassemble(addr, n) {
			marker := "  "
			if l.IsPC {
				marker = "->"
			}
			fmt.Fprintf(w, "%s %#08x  %-11s %s\r\n", marker, l.Address, l.HexBytes, l.Mnemonic)
		}

	case "script":
		if len(args) != 1 {
			fmt.Fprint(w, "usage: script <path>\r\n")
			break
		}
		if err := r.scripts.RunFile(args[0]); err != nil {
			fmt.Fprintf(w, "script error: %v\r\n", err)
		}

	case "copy":
		if err := copyRegisterDump(r.cpu); err != nil {
			fmt.Fprintf(w, "copy failed: %v\r\n", err)
		} else {
			fmt.Fprint(w, "register dump copied to clipboard\r\n")
		}

	default:
		fmt.Fprintf(w, "unknown command: %s\r\n", cmd)
	}
	return false
}
