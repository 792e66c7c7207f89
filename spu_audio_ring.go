// spu_audio_ring.go - lock-free SPSC ring buffer between the SPU and host audio output.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import "sync/atomic"

// spuAudioRing is the single-producer single-consumer channel between
// whatever drives SPU sample generation and the host audio backend. Voice
// mixing itself is out of scope (spec.md's SPU non-goal): this ring is the
// plumbing a real mixer would push samples into, matching how VRAM and the
// GPU command queue cross their own thread boundary via a bounded SPSC
// structure rather than a mutex.
type spuAudioRing struct {
	buf        []float32
	writeIndex atomic.Uint32
	readIndex  atomic.Uint32
}

func newSPUAudioRing(size int) *spuAudioRing {
	return &spuAudioRing{buf: make([]float32, size)}
}

// Push is called by the SPU producer; it silently drops the sample if the
// ring is full rather than blocking the CPU thread.
func (r *spuAudioRing) Push(sample float32) bool {
	w := r.writeIndex.Load()
	next := (w + 1) % uint32(len(r.buf))
	if next == r.readIndex.Load() {
		return false // full
	}
	r.buf[w] = sample
	r.writeIndex.Store(next)
	return true
}

// ReadSampleFromRing is called from the host audio callback; it returns
// silence once the ring runs dry rather than blocking audio output.
func (r *spuAudioRing) ReadSampleFromRing() float32 {
	rIdx := r.readIndex.Load()
	if rIdx == r.writeIndex.Load() {
		return 0
	}
	v := r.buf[rIdx]
	r.readIndex.Store((rIdx + 1) % uint32(len(r.buf)))
	return v
}
