// machine_bus.go - the PSX memory-mapped system bus: address decode and peripheral dispatch.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"log"
)

const (
	ramSize        = 2 * 1024 * 1024
	scratchpadSize = 1024
	biosSize       = 512 * 1024
)

// MachineBus is the PSX address decoder: it owns RAM, scratchpad and the
// BIOS ROM directly, and routes the 0x1F801000-0x1F801FFF hardware
// register window to whichever peripheral answers that offset. It
// implements both the CPU-facing Bus contract and DMA's RAMAccessor.
type MachineBus struct {
	ram        [ramSize]byte
	scratchpad [scratchpadSize]byte
	bios       [biosSize]byte

	cacheControl uint32

	interrupts *InterruptController
	timers     [3]*Timer
	dma        *DMA
	gpu        *GPU
	serial     *ControllerSerial
	spu        SPUPort
	mdec       MDECPort
	cdrom      CDROMPort
}

// NewMachineBus wires every peripheral in. Callers that don't model a
// given peripheral (SPU/MDEC/CD-ROM) may pass the package's no-op stub
// implementations.
func NewMachineBus(interrupts *InterruptController, timers [3]*Timer, dma *DMA, gpu *GPU, serial *ControllerSerial, spu SPUPort, mdec MDECPort, cdrom CDROMPort) *MachineBus {
	return &MachineBus{
		interrupts: interrupts, timers: timers, dma: dma, gpu: gpu,
		serial: serial, spu: spu, mdec: mdec, cdrom: cdrom,
	}
}

// LoadBIOS copies a 512 KiB BIOS image into place, mapped read-only at
// physical 0x1FC00000.
func (b *MachineBus) LoadBIOS(data []byte) {
	copy(b.bios[:], data)
}

// physicalAddress collapses KUSEG/KSEG0/KSEG1's shared 512 MiB window:
// the top three bits of the virtual address select the segment but never
// change which physical byte is addressed. KSEG2 (0xFFFE0000+) is kept
// as-is; only the cache-control register lives there.
func physicalAddress(addr uint32) uint32 {
	if addr >= 0xFFFE0000 {
		return addr
	}
	return addr & 0x1FFFFFFF
}

// ReadRAM/WriteRAM implement DMAPort's direct physical-RAM access (DMA
// addresses are never translated through the segment window).
func (b *MachineBus) ReadRAM(addr uint32) uint32 {
	a := addr & (ramSize - 1)
	return binary.LittleEndian.Uint32(b.ram[a:])
}
func (b *MachineBus) WriteRAM(addr uint32, v uint32) {
	a := addr & (ramSize - 1)
	binary.LittleEndian.PutUint32(b.ram[a:], v)
}

func (b *MachineBus) Read8(addr uint32) (uint8, bool) {
	phys := physicalAddress(addr)
	switch {
	case phys < 0x800000:
		return b.ram[phys&(ramSize-1)], true
	case phys >= 0x1F800000 && phys < 0x1F800000+scratchpadSize:
		return b.scratchpad[phys-0x1F800000], true
	case phys >= 0x1FC00000 && phys < 0x1FC00000+biosSize:
		return b.bios[phys-0x1FC00000], true
	case phys >= 0x1F000000 && phys < 0x1F800000:
		return 0xFF, true // expansion region 1: no cartridge installed
	}
	v, ok := b.readRegister(phys, addr)
	return uint8(v), ok
}

func (b *MachineBus) Read16(addr uint32) (uint16, bool) {
	phys := physicalAddress(addr)
	switch {
	case phys < 0x800000:
		return binary.LittleEndian.Uint16(b.ram[phys&(ramSize-1):]), true
	case phys >= 0x1F800000 && phys < 0x1F800000+scratchpadSize:
		return binary.LittleEndian.Uint16(b.scratchpad[phys-0x1F800000:]), true
	case phys >= 0x1FC00000 && phys < 0x1FC00000+biosSize:
		return binary.LittleEndian.Uint16(b.bios[phys-0x1FC00000:]), true
	case phys >= 0x1F000000 && phys < 0x1F800000:
		return 0xFFFF, true
	}
	v, ok := b.readRegister(phys, addr)
	return uint16(v), ok
}

func (b *MachineBus) Read32(addr uint32) (uint32, bool) {
	phys := physicalAddress(addr)
	switch {
	case phys < 0x800000:
		return binary.LittleEndian.Uint32(b.ram[phys&(ramSize-1):]), true
	case phys >= 0x1F800000 && phys < 0x1F800000+scratchpadSize:
		return binary.LittleEndian.Uint32(b.scratchpad[phys-0x1F800000:]), true
	case phys >= 0x1FC00000 && phys < 0x1FC00000+biosSize:
		return binary.LittleEndian.Uint32(b.bios[phys-0x1FC00000:]), true
	case phys >= 0x1F000000 && phys < 0x1F800000:
		return 0xFFFFFFFF, true
	case addr == 0xFFFE0130:
		return b.cacheControl, true
	}
	return b.readRegister(phys, addr)
}

func (b *MachineBus) Write8(addr uint32, v uint8) bool {
	phys := physicalAddress(addr)
	switch {
	case phys < 0x800000:
		b.ram[phys&(ramSize-1)] = v
		return true
	case phys >= 0x1F800000 && phys < 0x1F800000+scratchpadSize:
		b.scratchpad[phys-0x1F800000] = v
		return true
	case phys >= 0x1F000000 && phys < 0x1F800000:
		return true // writes to an absent cartridge are accepted and ignored
	}
	return b.writeRegister(phys, addr, uint32(v))
}

func (b *MachineBus) Write16(addr uint32, v uint16) bool {
	phys := physicalAddress(addr)
	switch {
	case phys < 0x800000:
		binary.LittleEndian.PutUint16(b.ram[phys&(ramSize-1):], v)
		return true
	case phys >= 0x1F800000 && phys < 0x1F800000+scratchpadSize:
		binary.LittleEndian.PutUint16(b.scratchpad[phys-0x1F800000:], v)
		return true
	case phys >= 0x1F000000 && phys < 0x1F800000:
		return true
	}
	return b.writeRegister(phys, addr, uint32(v))
}

func (b *MachineBus) Write32(addr uint32, v uint32) bool {
	phys := physicalAddress(addr)
	switch {
	case phys < 0x800000:
		binary.LittleEndian.PutUint32(b.ram[phys&(ramSize-1):], v)
		return true
	case phys >= 0x1F800000 && phys < 0x1F800000+scratchpadSize:
		binary.LittleEndian.PutUint32(b.scratchpad[phys-0x1F800000:], v)
		return true
	case phys >= 0x1F000000 && phys < 0x1F800000:
		return true
	case addr == 0xFFFE0130:
		b.cacheControl = v
		return true
	}
	return b.writeRegister(phys, addr, v)
}

// readRegister/writeRegister dispatch the 0x1F801000-0x1F801FFF hardware
// register window by offset. Unclaimed offsets within the window still
// return ok=true with a zero value: real peripherals quietly answer
// probing reads from BIOS init code; only addresses truly outside any
// mapped window are a bus error.
func (b *MachineBus) readRegister(phys, vaddr uint32) (uint32, bool) {
	if phys < regWindowBase || phys >= regWindowBase+0x1000 {
		log.Printf("bus: read from unmapped address 0x%08X", vaddr)
		return 0, false
	}
	off := phys - regWindowBase

	switch {
	case off >= offJoyLo && off < offJoyHi:
		return b.readJoy(off - offJoyLo), true
	case off == offIStat:
		return b.interrupts.Stat(), true
	case off == offIMask:
		return b.interrupts.Mask(), true
	case off >= offDMALo && off < offDMAHi:
		return b.readDMA(off - offDMALo), true
	case off == offTimer0, off == offTimer0+4, off == offTimer0+8:
		return b.timers[0].readOffset(off - offTimer0), true
	case off == offTimer1, off == offTimer1+4, off == offTimer1+8:
		return b.timers[1].readOffset(off - offTimer1), true
	case off == offTimer2, off == offTimer2+4, off == offTimer2+8:
		return b.timers[2].readOffset(off - offTimer2), true
	case off == offGP0:
		return b.gpu.ReadWord(), true
	case off == offGP1:
		return b.gpu.Stat(), true
	case off == offMDECCmd, off == offMDECSt:
		return b.mdec.Read(off), true
	case off >= offSPULo && off < offSPUHi:
		return b.spu.Read(off), true
	default:
		return 0, true
	}
}

func (b *MachineBus) writeRegister(phys, vaddr uint32, v uint32) bool {
	if phys < regWindowBase || phys >= regWindowBase+0x1000 {
		log.Printf("bus: write 0x%08X to unmapped address 0x%08X", v, vaddr)
		return false
	}
	off := phys - regWindowBase

	switch {
	case off >= offJoyLo && off < offJoyHi:
		b.writeJoy(off-offJoyLo, v)
	case off == offIStat:
		b.interrupts.WriteStat(v)
	case off == offIMask:
		b.interrupts.WriteMask(v)
	case off >= offDMALo && off < offDMAHi:
		b.writeDMA(off-offDMALo, v)
	case off == offTimer0, off == offTimer0+4, off == offTimer0+8:
		b.timers[0].writeOffset(off-offTimer0, v)
	case off == offTimer1, off == offTimer1+4, off == offTimer1+8:
		b.timers[1].writeOffset(off-offTimer1, v)
	case off == offTimer2, off == offTimer2+4, off == offTimer2+8:
		b.timers[2].writeOffset(off-offTimer2, v)
	case off == offGP0:
		b.gpu.WriteGP0(v)
	case off == offGP1:
		b.gpu.WriteGP1(v)
	case off == offMDECCmd, off == offMDECSt:
		b.mdec.Write(off, v)
	case off >= offSPULo && off < offSPUHi:
		b.spu.Write(off, v)
	}
	return true
}

func (t *Timer) readOffset(off uint32) uint32 {
	switch off {
	case 0:
		return t.ReadCounter()
	case 4:
		return t.ReadMode()
	case 8:
		return t.ReadTarget()
	}
	return 0
}

func (t *Timer) writeOffset(off uint32, v uint32) {
	switch off {
	case 0:
		t.WriteCounter(v)
	case 4:
		t.WriteMode(v)
	case 8:
		t.WriteTarget(v)
	}
}

func (b *MachineBus) readJoy(off uint32) uint32 {
	switch off {
	case 0x00:
		return b.serial.ReadData()
	case 0x04:
		return b.serial.Stat()
	case 0x08:
		return b.serial.Mode()
	case 0x0A:
		return b.serial.Ctrl()
	case 0x0E:
		return b.serial.Baud()
	}
	return 0
}

func (b *MachineBus) writeJoy(off uint32, v uint32) {
	switch off {
	case 0x00:
		b.serial.WriteData(v)
	case 0x08:
		b.serial.WriteMode(v)
	case 0x0A:
		b.serial.WriteCtrl(v)
	case 0x0E:
		b.serial.WriteBaud(v)
	}
}

func (b *MachineBus) readDMA(off uint32) uint32 {
	if off == 0x70 {
		return b.dma.DPCR()
	}
	if off == 0x74 {
		return b.dma.DICR()
	}
	ch := int(off / 0x10)
	reg := int((off % 0x10) / 4)
	if ch > 6 || reg > 2 {
		return 0
	}
	return b.dma.ReadChannel(ch, reg)
}

func (b *MachineBus) writeDMA(off uint32, v uint32) {
	if off == 0x70 {
		b.dma.WriteDPCR(v)
		return
	}
	if off == 0x74 {
		b.dma.WriteDICR(v)
		return
	}
	ch := int(off / 0x10)
	reg := int((off % 0x10) / 4)
	if ch > 6 || reg > 2 {
		return
	}
	b.dma.WriteChannel(ch, reg, v)
}
