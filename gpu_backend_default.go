//go:build !vulkan

// gpu_backend_default.go - GPU backend selection for non-Vulkan builds.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

func init() {
	compiledFeatures = append(compiledFeatures, "gpu:headless-only")
}

// newGPUBackend always returns the headless software rasterizer when this
// binary was built without the `vulkan` tag, regardless of cfg.Headless:
// there is no other backend to fall back from.
func newGPUBackend(cfg SystemConfig) (GPUBackend, error) {
	return newHeadlessGPUBackend(cfg.DumpFrame), nil
}
