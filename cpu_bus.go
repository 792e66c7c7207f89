// cpu_bus.go - the narrow contract the CPU interpreter needs from the system bus.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

// Bus is everything the CPU interpreter needs from the memory-mapped
// system bus: byte/halfword/word access that reports whether the address
// was actually backed by something (false drives a bus-error exception).
// The concrete implementation (machine_bus.go) also clocks peripherals;
// the CPU only ever sees this interface.
type Bus interface {
	Read8(addr uint32) (uint8, bool)
	Read16(addr uint32) (uint16, bool)
	Read32(addr uint32) (uint32, bool)
	Write8(addr uint32, v uint8) bool
	Write16(addr uint32, v uint16) bool
	Write32(addr uint32, v uint32) bool
}
