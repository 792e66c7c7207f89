// interrupts.go - interrupt controller: 11-line pending/mask pair feeding COP0's hardware IRQ input.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

// Interrupt source bits, I_STAT/I_MASK bit layout.
const (
	IRQVBlank = 1 << iota
	IRQGPU
	IRQCDROM
	IRQDMA
	IRQTimer0
	IRQTimer1
	IRQTimer2
	IRQControllerMemCard
	IRQSIO
	IRQSPU
	IRQLightpen // "PIO"/lightpen/external IRQ 10 on later consoles; unused by most software
)

// InterruptController latches pending interrupt sources and masks them
// against software's enable bits. I_STAT is write-1-to-clear: a store
// ANDs the written value into the current state rather than replacing
// it, so clearing bit N requires writing every OTHER bit set to 1.
type InterruptController struct {
	stat uint32
	mask uint32
}

// NewInterruptController returns a controller with nothing pending and
// everything masked.
func NewInterruptController() *InterruptController { return &InterruptController{} }

// Reset clears all pending and mask bits.
func (ic *InterruptController) Reset() { ic.stat, ic.mask = 0, 0 }

// Raise latches source into I_STAT. Called by any peripheral (VBlank,
// GPU, timers, DMA, CDROM, SPU, controller/memory-card) the instant its
// own condition fires; latching is independent of masking, which only
// governs whether Pending() reports the line to the CPU.
func (ic *InterruptController) Raise(source uint32) { ic.stat |= source }

// Pending reports whether any unmasked source is latched: the value
// COP0.SetHardwareIRQPending is fed at the end of every clock slice.
func (ic *InterruptController) Pending() bool { return ic.stat&ic.mask != 0 }

// Stat reads I_STAT.
func (ic *InterruptController) Stat() uint32 { return ic.stat }

// WriteStat applies the write-1-to-clear semantics: new_stat = old & data.
func (ic *InterruptController) WriteStat(data uint32) { ic.stat &= data }

// Mask reads I_MASK.
func (ic *InterruptController) Mask() uint32 { return ic.mask }

// WriteMask replaces I_MASK outright (it is a plain read/write register,
// unlike I_STAT).
func (ic *InterruptController) WriteMask(data uint32) { ic.mask = data & 0x7FF }
