// registers.go - master PSX hardware-register address map.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

// Offsets below are relative to the 0x1F801000 hardware-register window
// machine_bus.go's readRegister/writeRegister dispatch on. Each
// peripheral's own file defines the bit layout of its registers; this
// file is only the address directory, matching the teacher's own
// centralized-map-plus-per-chip-constants split.
//
// Offset         Size  Device                        Defined in
// ------------------------------------------------------------------
// 0x040..0x050   16B   JOY_DATA/STAT/MODE/CTRL/BAUD  controller_serial.go
// 0x070          4B    I_STAT                        interrupts.go
// 0x074          4B    I_MASK                         interrupts.go
// 0x080..0x0F8   120B  DMA0..DMA6 MADR/BCR/CHCR + DPCR/DICR  dma.go
// 0x100..0x108   12B   TIMER0 counter/mode/target    timers.go
// 0x110..0x118   12B   TIMER1 counter/mode/target    timers.go
// 0x120..0x128   12B   TIMER2 counter/mode/target    timers.go
// 0x810          4B    GP0 (write) / GPUREAD (read)  gpu.go
// 0x814          4B    GP1 (write) / GPUSTAT (read)  gpu.go
// 0x820..0x824   8B    MDEC command/status           narrow_interfaces.go
// 0xC00..0x1000  1KiB  SPU voice/control regs        narrow_interfaces.go
//
// Main RAM, scratchpad, BIOS ROM and the cache-control register sit
// outside this window and are decoded directly by physical address in
// machine_bus.go's word/halfword/byte accessors.
const (
	regWindowBase = 0x1F801000

	offJoyLo   = 0x040
	offJoyHi   = 0x050
	offIStat   = 0x070
	offIMask   = 0x074
	offDMALo   = 0x080
	offDMAHi   = 0x0F8
	offTimer0  = 0x100
	offTimer1  = 0x110
	offTimer2  = 0x120
	offGP0     = 0x810
	offGP1     = 0x814
	offMDECCmd = 0x820
	offMDECSt  = 0x824
	offSPULo   = 0xC00
	offSPUHi   = 0x1000
)
