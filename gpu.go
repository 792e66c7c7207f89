// gpu.go - GP0/GP1 command-state tracking and backend command dispatch.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

// Vertex is one corner of a polygon or line, as carried in a
// DrawPolygon/DrawPolyline backend command.
type Vertex struct {
	X, Y  int16
	Color uint32
	U, V  uint8
}

// TextureParams carries the page/CLUT selection a textured polygon was
// issued with.
type TextureParams struct {
	Page uint16
	CLUT uint16
}

// DrawState is the snapshot of draw-area/offset/texture-window/mask
// settings captured into every backend command at issue time, so the
// worker thread never has to ask the CPU-side GPU shim for "current"
// state mid-render.
type DrawState struct {
	DrawAreaLeft, DrawAreaTop         int16
	DrawAreaRight, DrawAreaBottom     int16
	OffsetX, OffsetY                  int16
	TexWindow                         uint32
	ForceMaskBit, CheckMaskBeforeDraw bool
}

// Rect is a VRAM rectangle in (x,y)/(w,h) form, used by FillColor,
// WriteVramBlock, VramReadBlock and both sides of VramVramBlit.
type Rect struct{ X, Y, W, H uint16 }

// BackendCommand is the closed set of messages the CPU-side GPU shim
// sends to the rendering worker thread. Exactly one of the named structs
// is populated on each value sent over the command channel.
type BackendCommand struct {
	BlitFront      *cmdBlitFront
	DrawPolyline   *cmdDrawPolyline
	DrawPolygon    *cmdDrawPolygon
	WriteVramBlock *cmdWriteVramBlock
	VramVramBlit   *cmdVramVramBlit
	VramReadBlock  *cmdVramReadBlock
	FillColor      *cmdFillColor
}

type cmdBlitFront struct {
	FullVRAM bool
	State    DrawState
}
type cmdDrawPolyline struct {
	Vertices        []Vertex
	SemiTransparent bool
	State           DrawState
}
type cmdDrawPolygon struct {
	Vertices        []Vertex
	Texture         TextureParams
	Textured        bool
	Blending        bool
	SemiTransparent bool
	State           DrawState
}
type cmdWriteVramBlock struct {
	Range Rect
	Data  []uint16
}
type cmdVramVramBlit struct{ Src, Dst Rect }
type cmdVramReadBlock struct{ Range Rect }
type cmdFillColor struct {
	TopLeft Rect
	Color   uint32
}

// GPUStat bit positions relevant to software and to the bus's fast-path
// reader.
const (
	gpustatTexPageXMask   = 0xF
	gpustatDMADirMask     = 3 << 29
	gpustatReadyRecvCmd   = 1 << 26
	gpustatReadyVRAMSend  = 1 << 27
	gpustatReadyRecvDMA   = 1 << 28
	gpustatDMADataRequest = 1 << 25
	gpustatInterlaceOdd   = 1 << 31
)

// GPU is the CPU-side command shim: it parses GP0/GP1 writes, assembles
// multi-word draw commands, maintains the software-visible register
// state (GPUSTAT, draw area, offset, texture window, mask bits, display
// configuration), and forwards completed commands to the rendering
// worker.
type GPU struct {
	worker *gpuWorker

	stat uint32

	drawState DrawState

	texPage      uint16
	clut         uint16
	dither       bool
	drawToDisplay bool

	dmaDirection uint32

	displayAreaX, displayAreaY     uint16
	hRangeStart, hRangeEnd         uint16
	vRangeStart, vRangeEnd         uint16
	displayMode                    uint32
	displayDisabled                bool

	fifo       []uint32
	fifoNeeded int
	fifoKind   gp0Kind
	pendingTex TextureParams
}

type gp0Kind int

const (
	gp0KindNone gp0Kind = iota
	gp0KindPolygon
	gp0KindLine
	gp0KindVRAMWrite
	gp0KindVRAMCopy
	gp0KindFill
)

// NewGPU wires the shim to its rendering worker.
func NewGPU(worker *gpuWorker) *GPU {
	g := &GPU{worker: worker}
	g.Reset()
	return g
}

// Reset restores GP1(0x00)'s documented state: display off, the
// horizontal/vertical display ranges at their default spans, everything
// else zeroed.
func (g *GPU) Reset() {
	g.stat = gpustatReadyRecvCmd | gpustatReadyVRAMSend | gpustatReadyRecvDMA
	g.drawState = DrawState{}
	g.texPage, g.clut = 0, 0
	g.dither, g.drawToDisplay = false, false
	g.dmaDirection = 0
	g.displayAreaX, g.displayAreaY = 0, 0
	g.hRangeStart, g.hRangeEnd = 0x200, 0xC00
	g.vRangeStart, g.vRangeEnd = 0x10, 0x100
	g.displayMode = 0
	g.displayDisabled = true
	g.fifo, g.fifoNeeded, g.fifoKind = nil, 0, gp0KindNone
}

// Stat reads GPUSTAT, ORing in the DMA-direction-dependent data-request
// bit the bus's DMA-gate callback also reads directly.
func (g *GPU) Stat() uint32 {
	v := g.stat &^ gpustatDMADirMask
	v |= (g.dmaDirection & 3) << 29
	v = g.withDataRequest(v)
	return v
}

func (g *GPU) withDataRequest(v uint32) uint32 {
	req := false
	switch g.dmaDirection {
	case 1:
		req = v&gpustatReadyRecvDMA != 0
	case 2:
		req = v&gpustatReadyRecvDMA != 0
	case 3:
		req = v&gpustatReadyVRAMSend != 0
	}
	if req {
		return v | gpustatDMADataRequest
	}
	return v &^ gpustatDMADataRequest
}

// DMARequest is the callback wired into DMA's GPU-channel gate.
func (g *GPU) DMARequest() bool { return g.Stat()&gpustatDMADataRequest != 0 }

// ReadWord/WriteWord implement DMAPort for the GPU channel: reads pull
// from the worker's read-back channel, writes feed GP0.
func (g *GPU) ReadWord() uint32   { return g.worker.recvRead() }
func (g *GPU) WriteWord(v uint32) { g.WriteGP0(v) }

// WriteGP0 accepts one word of the GP0 (render) command stream.
func (g *GPU) WriteGP0(word uint32) {
	if g.fifoNeeded > 0 {
		g.fifo = append(g.fifo, word)
		if len(g.fifo) >= g.fifoNeeded {
			g.dispatch()
		}
		return
	}

	op := uint8(word >> 24)
	switch {
	case op == 0x00:
		// NOP
	case op == 0x01:
		// clear texture cache: no texture cache is modeled, so this is a no-op
	case op == 0x02:
		g.fifo = []uint32{word}
		g.fifoNeeded = 3
		g.fifoKind = gp0KindFill
	case op >= 0x20 && op <= 0x3F:
		g.beginPolygon(word)
	case op >= 0x40 && op <= 0x5F:
		g.beginLine(word)
	case op >= 0x60 && op <= 0x7F:
		g.beginPolygon(word) // rectangles reuse the polygon path with a fixed 4-vertex quad shape
	case op == 0xA0:
		g.fifo = []uint32{word}
		g.fifoNeeded = 3
		g.fifoKind = gp0KindVRAMWrite
	case op == 0xC0:
		g.fifo = []uint32{word}
		g.fifoNeeded = 3
		g.fifoKind = gp0KindVRAMCopy
	case op == 0x80:
		g.fifo = []uint32{word}
		g.fifoNeeded = 4
		g.fifoKind = gp0KindVRAMCopy
	case op == 0xE1:
		g.texPage = uint16(word) & 0x1FF
		g.dither = word&(1<<9) != 0
		g.drawToDisplay = word&(1<<10) != 0
	case op == 0xE2:
		g.drawState.TexWindow = word & 0xFFFFF
	case op == 0xE3:
		g.drawState.DrawAreaLeft = int16(word & 0x3FF)
		g.drawState.DrawAreaTop = int16((word >> 10) & 0x3FF)
	case op == 0xE4:
		g.drawState.DrawAreaRight = int16(word & 0x3FF)
		g.drawState.DrawAreaBottom = int16((word >> 10) & 0x3FF)
	case op == 0xE5:
		g.drawState.OffsetX = signExtend11(word & 0x7FF)
		g.drawState.OffsetY = signExtend11((word >> 11) & 0x7FF)
	case op == 0xE6:
		g.drawState.CheckMaskBeforeDraw = word&1 != 0
		g.drawState.ForceMaskBit = word&2 != 0
	}
}

func signExtend11(v uint32) int16 {
	if v&0x400 != 0 {
		return int16(v | 0xF800)
	}
	return int16(v)
}

// beginPolygon/beginLine stage the header word and compute how many more
// words the command needs, from the standard PSX GP0 bit layout: bit 28
// gouraud, bit 27 quad (else triangle), bit 26 textured, bit 25
// semi-transparent.
func (g *GPU) beginPolygon(header uint32) {
	gouraud := header&(1<<28) != 0
	quad := header&(1<<27) != 0
	textured := header&(1<<26) != 0

	vertices := 3
	if quad {
		vertices = 4
	}
	words := 1 // header carries the first vertex's color
	perVertex := 1
	if gouraud {
		perVertex++ // extra color word per vertex after the first
	}
	if textured {
		perVertex++ // texcoord+clut/page word per vertex
	}
	words += vertices * perVertex
	if gouraud {
		words-- // the header's color already covers vertex 0
	}

	g.fifo = []uint32{header}
	g.fifoNeeded = words
	g.fifoKind = gp0KindPolygon
}

// beginLine stages a two-point line segment. The hardware also supports
// a variable-length polyline form (terminated by a 0x5000_5000 marker
// word rather than a fixed word count); this core renders every line
// command as a single segment, which is what DrawPolyline already models
// one call of, and does not chase the terminator-driven variant.
func (g *GPU) beginLine(header uint32) {
	gouraud := header&(1<<28) != 0

	g.fifo = []uint32{header}
	g.fifoKind = gp0KindLine
	words := 3
	if gouraud {
		words = 4
	}
	g.fifoNeeded = words
}

// dispatch turns the accumulated FIFO into a BackendCommand and resets
// the accumulator. VRAM writes are two-stage (a 3-word header, then a
// pixel payload whose length the header only reveals once parsed), so
// dispatchVRAMWrite reports whether it actually completed the command;
// every other kind always does.
func (g *GPU) dispatch() {
	complete := true
	switch g.fifoKind {
	case gp0KindPolygon:
		g.dispatchPolygon()
	case gp0KindLine:
		g.dispatchLine()
	case gp0KindVRAMWrite:
		complete = g.dispatchVRAMWrite()
	case gp0KindVRAMCopy:
		g.dispatchVRAMCopy()
	case gp0KindFill:
		g.dispatchFill()
	}
	if complete {
		g.fifo, g.fifoNeeded, g.fifoKind = nil, 0, gp0KindNone
	}
}

func (g *GPU) dispatchPolygon() {
	header := g.fifo[0]
	gouraud := header&(1<<28) != 0
	quad := header&(1<<27) != 0
	textured := header&(1<<26) != 0
	semiTransparent := header&(1<<25) != 0
	blending := header&(1<<24) == 0

	n := 3
	if quad {
		n = 4
	}
	verts := make([]Vertex, n)
	color := header & 0xFFFFFF
	idx := 1
	for i := 0; i < n; i++ {
		if i > 0 && gouraud {
			color = g.fifo[idx] & 0xFFFFFF
			idx++
		}
		pos := g.fifo[idx]
		idx++
		verts[i].Color = color
		verts[i].X = int16(int32(int16(pos&0xFFFF)) << 16 >> 16)
		verts[i].Y = int16(int32(int16((pos>>16)&0xFFFF)) << 16 >> 16)
		if textured {
			tw := g.fifo[idx]
			idx++
			verts[i].U = uint8(tw)
			verts[i].V = uint8(tw >> 8)
			if i == 0 {
				g.pendingTex.CLUT = uint16(tw >> 16)
			} else if i == 1 {
				g.pendingTex.Page = uint16(tw >> 16)
			}
		}
	}

	g.worker.send(BackendCommand{DrawPolygon: &cmdDrawPolygon{
		Vertices: verts, Texture: g.pendingTex, Textured: textured,
		Blending: blending, SemiTransparent: semiTransparent, State: g.drawState,
	}})
}

func (g *GPU) dispatchLine() {
	header := g.fifo[0]
	gouraud := header&(1<<28) != 0
	semiTransparent := header&(1<<25) != 0

	n := 2
	verts := make([]Vertex, n)
	color := header & 0xFFFFFF
	idx := 1
	for i := 0; i < n; i++ {
		if i > 0 && gouraud {
			color = g.fifo[idx] & 0xFFFFFF
			idx++
		}
		pos := g.fifo[idx]
		idx++
		verts[i].Color = color
		verts[i].X = int16(pos & 0xFFFF)
		verts[i].Y = int16((pos >> 16) & 0xFFFF)
	}
	g.worker.send(BackendCommand{DrawPolyline: &cmdDrawPolyline{
		Vertices: verts, SemiTransparent: semiTransparent, State: g.drawState,
	}})
}

func (g *GPU) dispatchVRAMWrite() bool {
	pos, size := g.fifo[1], g.fifo[2]
	rect := Rect{X: uint16(pos), Y: uint16(pos >> 16), W: uint16(size), H: uint16(size >> 16)}
	words := (uint32(rect.W)*uint32(rect.H) + 1) / 2
	needed := 3 + int(words)
	if g.fifoNeeded != needed {
		// header just completed: now that the payload length is known,
		// keep accumulating instead of dispatching yet.
		g.fifoNeeded = needed
		if len(g.fifo) < g.fifoNeeded {
			return false
		}
	}
	data := make([]uint16, 0, rect.W*rect.H)
	for _, w := range g.fifo[3:] {
		data = append(data, uint16(w), uint16(w>>16))
	}
	g.worker.send(BackendCommand{WriteVramBlock: &cmdWriteVramBlock{Range: rect, Data: data}})
	return true
}

func (g *GPU) dispatchVRAMCopy() {
	if len(g.fifo) == 3 {
		// VRAM->CPU read-back request (0xC0): range only, no payload to stage
		pos, size := g.fifo[1], g.fifo[2]
		rect := Rect{X: uint16(pos), Y: uint16(pos >> 16), W: uint16(size), H: uint16(size >> 16)}
		g.worker.send(BackendCommand{VramReadBlock: &cmdVramReadBlock{Range: rect}})
		return
	}
	srcPos, dstPos, size := g.fifo[1], g.fifo[2], g.fifo[3]
	src := Rect{X: uint16(srcPos), Y: uint16(srcPos >> 16), W: uint16(size), H: uint16(size >> 16)}
	dst := Rect{X: uint16(dstPos), Y: uint16(dstPos >> 16), W: uint16(size), H: uint16(size >> 16)}
	g.worker.send(BackendCommand{VramVramBlit: &cmdVramVramBlit{Src: src, Dst: dst}})
}

func (g *GPU) dispatchFill() {
	pos, size := g.fifo[1], g.fifo[2]
	rect := Rect{X: uint16(pos) & 0x3F0, Y: uint16(pos>>16) & 0x1FF, W: (uint16(size) & 0x3FF), H: uint16(size>>16) & 0x1FF}
	g.worker.send(BackendCommand{FillColor: &cmdFillColor{TopLeft: rect, Color: g.fifo[0] & 0xFFFFFF}})
}

// WriteGP1 handles the display-control command stream.
func (g *GPU) WriteGP1(word uint32) {
	op := uint8(word >> 24)
	switch op {
	case 0x00:
		g.Reset()
	case 0x01:
		g.fifo, g.fifoNeeded, g.fifoKind = nil, 0, gp0KindNone
	case 0x02:
		// IRQ acknowledge: the GPU IRQ bit lives in GPUSTAT bit 24 on real
		// hardware but this core routes GPU IRQ solely through the
		// interrupt controller's IRQGPU source, so there is nothing to
		// clear here.
	case 0x03:
		g.displayDisabled = word&1 != 0
	case 0x04:
		g.dmaDirection = word & 3
	case 0x05:
		g.displayAreaX = uint16(word) & 0x3FF
		g.displayAreaY = uint16(word>>10) & 0x1FF
	case 0x06:
		g.hRangeStart = uint16(word) & 0xFFF
		g.hRangeEnd = uint16(word>>12) & 0xFFF
	case 0x07:
		g.vRangeStart = uint16(word) & 0x3FF
		g.vRangeEnd = uint16(word>>10) & 0x3FF
	case 0x08:
		g.displayMode = word & 0xFF
	}
}

// TriggerVBlank is called once per frame boundary by the top-level clock:
// it asks the worker to hand back the rendered front buffer, raises the
// GPU's VBlank interrupt source, and returns the frame for presentation.
func (g *GPU) TriggerVBlank(irqs *InterruptController) FrameImage {
	g.worker.send(BackendCommand{BlitFront: &cmdBlitFront{FullVRAM: false, State: g.drawState}})
	irqs.Raise(IRQVBlank)
	return g.worker.recvFrame()
}
