// clock.go - the top-level system clock: owns every component and drives them in lockstep.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

const (
	// maxInstructionsPerSlice bounds how far the CPU runs before the rest
	// of the machine gets a chance to observe what it did (DMA triggered
	// by an MMIO write, a timer IRQ that should preempt the next fetch).
	maxInstructionsPerSlice = 56

	// maxCyclesPerSlice clamps how many cycles a single slice ever bills
	// the peripherals in one go; CPU bursts longer than this (a tight
	// uncached loop with no bus traffic) carry the remainder into the
	// next slice rather than handing timers/serial a multi-thousand-cycle
	// jump they were never built to approximate.
	maxCyclesPerSlice = 2000

	// cyclesPerFrame is the NTSC system-clock budget for one 60 Hz video
	// frame (33,868,800 Hz / 60), used as the frame-by-audio mode's fixed
	// stopping point when no GPU is attached to produce a VBlank edge.
	cyclesPerFrame = 564480

	// shellEntryPC is the address the BIOS shell jumps to once its own
	// init is complete; fast boot and EXE side-loading both hook this
	// instant rather than patching the BIOS image itself.
	shellEntryPC = 0x80030000
)

// pendingEXE holds a side-loaded .EXE waiting for the BIOS shell so it can
// be injected at the same point a memory-card boot would normally hand
// control to it.
type pendingEXE struct {
	header  EXEHeader
	payload []byte
}

// System assembles every component this core models into one runnable
// machine and implements the frame-stepping algorithm: a CPU instruction
// budget per slice, clamped cycle billing to the rest of the machine, and
// either a GPU VBlank edge or a fixed cycle count as the frame boundary.
type System struct {
	CPU        *CPU
	Bus        *MachineBus
	Interrupts *InterruptController
	Timers     [3]*Timer
	DMA        *DMA
	GPU        *GPU
	Serial     *ControllerSerial
	worker     *gpuWorker

	excessCycles    uint32
	cyclesThisFrame uint32
	shellReached    bool
	pending         *pendingEXE
	fastBoot        bool

	lastFrame FrameImage
}

// SystemConfig selects the pieces of the machine that have more than one
// real implementation.
type SystemConfig struct {
	FastBoot    bool
	Headless    bool
	DumpFrame   string // -dump-frame path, headless backend only
}

// NewSystem wires every component together: CPU, bus, the three timers,
// the interrupt controller, the 7-channel DMA controller, controller
// serial link, and a GPU bound to either the Vulkan or headless backend
// depending on how this binary was built and cfg.Headless.
func NewSystem(cfg SystemConfig, pad1, pad2 []JoyDevice) (*System, error) {
	irqs := NewInterruptController()

	backend, err := newGPUBackend(cfg)
	if err != nil {
		return nil, err
	}
	worker := newGPUWorker(backend)
	gpu := NewGPU(worker)

	var timers [3]*Timer
	for i := range timers {
		timers[i] = NewTimer(i, irqs)
	}

	serial := NewControllerSerial(irqs, pad1, pad2)

	spu := newStubSPU()
	mdec := newStubMDEC()
	cdrom := newStubCDROM()

	ports := [7]DMAPort{
		DMAChannelMDECin:  nullDMAPort{},
		DMAChannelMDECout: nullDMAPort{},
		DMAChannelGPU:     gpu,
		DMAChannelCDROM:   nullDMAPort{},
		DMAChannelSPU:     spu,
		DMAChannelPIO:     nullDMAPort{},
		DMAChannelOTC:     nullDMAPort{},
	}

	bus := NewMachineBus(irqs, timers, nil, gpu, serial, spu, mdec, cdrom)
	dma := NewDMA(bus, irqs, ports, gpu.DMARequest)
	bus.dma = dma

	cpu := NewCPU(bus)

	return &System{
		CPU: cpu, Bus: bus, Interrupts: irqs, Timers: timers,
		DMA: dma, GPU: gpu, Serial: serial, worker: worker,
		fastBoot: cfg.FastBoot,
	}, nil
}

// Reset restores every component to its cold-boot state.
func (s *System) Reset() {
	s.CPU.Reset()
	s.Interrupts.Reset()
	for _, t := range s.Timers {
		t.Reset()
	}
	s.DMA.Reset()
	s.GPU.Reset()
	s.Serial.Reset()
	s.excessCycles, s.cyclesThisFrame = 0, 0
	s.shellReached = false
}

// Close releases the GPU worker goroutine and its backend.
func (s *System) Close() { s.worker.close() }

// SetPendingEXE arms a side-loaded .EXE for injection the next time the
// BIOS shell entry point is reached.
func (s *System) SetPendingEXE(h EXEHeader, payload []byte) {
	s.pending = &pendingEXE{header: h, payload: payload}
}

// checkShellReached fires the one-time fast-boot/EXE-injection hook; real
// hardware has no equivalent, this only exists because host-side tooling
// needs a reliable instant to intervene at.
func (s *System) checkShellReached() {
	if s.shellReached || s.CPU.pc != shellEntryPC {
		return
	}
	s.shellReached = true
	if s.pending != nil {
		InjectEXE(s.CPU, s.Bus, s.pending.header, s.pending.payload)
		s.pending = nil
	}
}

// RunSliceVideo runs one clock slice and reports whether it crossed the
// cyclesPerFrame boundary, the VBlank edge this core uses to pace a
// display-driving caller. Real hardware derives VBlank from its own
// scanline counter; this core approximates it with the same fixed NTSC
// frame budget frame-by-audio mode uses, which is accurate enough to
// drive presentation and the VBlank IRQ without modeling individual
// scanlines.
func (s *System) RunSliceVideo() bool {
	s.cyclesThisFrame += s.runSlice()
	if s.cyclesThisFrame < cyclesPerFrame {
		return false
	}
	s.cyclesThisFrame -= cyclesPerFrame
	s.lastFrame = s.GPU.TriggerVBlank(s.Interrupts)
	return true
}

// LatestFrame returns the front buffer captured at the most recent
// VBlank, for a host presentation layer to convert and display.
func (s *System) LatestFrame() FrameImage { return s.lastFrame }

// RunFrameVideo clocks the machine until a VBlank edge fires, the normal
// way to pace a machine that has a display attached.
func (s *System) RunFrameVideo() {
	for !s.RunSliceVideo() {
	}
}

// RunFrameAudio clocks the machine for a fixed cyclesPerFrame budget with
// no regard for the GPU's own display timing, for headless/audio-only
// runs where nothing ever asks the GPU for a frame.
func (s *System) RunFrameAudio() {
	s.cyclesThisFrame = 0
	for s.cyclesThisFrame < cyclesPerFrame {
		s.cyclesThisFrame += s.runSlice()
	}
}

// runSlice implements one iteration of the documented clock algorithm:
// run the CPU for up to maxInstructionsPerSlice instructions (or resume
// billing excess cycles carried from the slice before), clamp the total
// to maxCyclesPerSlice, advance every clocked peripheral by that many
// cycles, and refresh COP0's hardware-interrupt latch so the next slice's
// first fetch can preempt on it.
func (s *System) runSlice() uint32 {
	cycles := s.excessCycles
	s.excessCycles = 0

	if cycles == 0 {
		for i := 0; i < maxInstructionsPerSlice; i++ {
			if s.CPU.CheckInterrupt() {
				break
			}
			cycles += s.CPU.Step()
			s.checkShellReached()
		}
	}

	clamped := cycles
	if clamped > maxCyclesPerSlice {
		s.excessCycles = clamped - maxCyclesPerSlice
		clamped = maxCyclesPerSlice
	}

	for _, t := range s.Timers {
		t.ClockPulse(clamped)
	}
	s.Serial.Clock(clamped)

	s.CPU.COP0.SetHardwareIRQPending(s.Interrupts.Pending())
	return clamped
}
