//go:build vulkan

// gpu_backend_select_vulkan.go - GPU backend selection for Vulkan builds.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

func init() {
	compiledFeatures = append(compiledFeatures, "gpu:vulkan")
}

// newGPUBackend picks Vulkan unless the caller asked for -headless, and
// falls back to the headless backend if Vulkan init fails (no GPU present,
// running inside a container with no ICD loader) rather than refusing to
// start.
func newGPUBackend(cfg SystemConfig) (GPUBackend, error) {
	if cfg.Headless {
		return newHeadlessGPUBackend(cfg.DumpFrame), nil
	}
	backend, err := newVulkanGPUBackend()
	if err != nil {
		return newHeadlessGPUBackend(cfg.DumpFrame), nil
	}
	backend.dumpFramePath = cfg.DumpFrame
	return backend, nil
}
