// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"
)

// ErrNoMemoryType is returned when the device offers no memory type
// that satisfies both a resource's requirements and the wanted properties.
var ErrNoMemoryType = errors.New("suitable memory type not found")

// Allocator hands out device memory, one allocation per resource,
// and keeps count of what is still allocated.
type Allocator struct {
	device vk.Device
	types  []vk.MemoryPropertyFlags

	live  int
	bytes uint64
}

// NewAllocator reads the memory types of phyDevice
// and allocates from device.
func NewAllocator(device vk.Device, phyDevice vk.PhysicalDevice) *Allocator {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(phyDevice, &props)
	props.Deref()

	types := make([]vk.MemoryPropertyFlags, props.MemoryTypeCount)
	for idx := range types {
		props.MemoryTypes[idx].Deref()
		types[idx] = props.MemoryTypes[idx].PropertyFlags
	}

	return &Allocator{
		device: device,
		types:  types,
	}
}

// memoryTypeIndex returns the first memory type allowed by filter
// that has every property in want.
func memoryTypeIndex(types []vk.MemoryPropertyFlags, filter uint32, want vk.MemoryPropertyFlags) (uint32, bool) {
	for idx, flags := range types {
		if filter&(1<<uint(idx)) != 0 && flags&want == want {
			return uint32(idx), true
		}
	}
	return 0, false
}

// Alloc allocates memory that fits req and has the given properties.
func (a *Allocator) Alloc(req vk.MemoryRequirements, props vk.MemoryPropertyFlagBits) (*Allocation, error) {
	typeIdx, ok := memoryTypeIndex(a.types, req.MemoryTypeBits, vk.MemoryPropertyFlags(props))
	if !ok {
		return nil, ErrNoMemoryType
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: typeIdx,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(a.device, &mai, nil, &memory)); err != nil {
		return nil, fmt.Errorf("vk.AllocateMemory(): %s", err.Error())
	}

	a.live++
	a.bytes += uint64(req.Size)
	return &Allocation{
		allocator: a,
		memory:    memory,
		size:      req.Size,
	}, nil
}

// Live returns the number of allocations not yet freed.
func (a *Allocator) Live() int {
	return a.live
}

// Bytes returns the amount of device memory not yet freed.
func (a *Allocator) Bytes() uint64 {
	return a.bytes
}

// Allocation is a device memory block bound to a single resource.
type Allocation struct {
	allocator *Allocator
	memory    vk.DeviceMemory
	size      vk.DeviceSize
	mapped    bool
	freed     bool
}

// Size returns the allocated size in bytes.
func (m *Allocation) Size() uint64 {
	return uint64(m.size)
}

// Map maps the whole allocation into host memory and returns it as a
// byte slice. The allocation must be host visible.
func (m *Allocation) Map() ([]uint8, error) {
	var ptr unsafe.Pointer
	if err := vk.Error(vk.MapMemory(m.allocator.device, m.memory, 0, m.size, 0, &ptr)); err != nil {
		return nil, fmt.Errorf("vk.MapMemory(): %s", err.Error())
	}
	m.mapped = true

	return *(*[]uint8)(unsafe.Pointer(&sliceHeader{
		Data: uintptr(ptr),
		Len:  int(m.size),
		Cap:  int(m.size),
	})), nil
}

// Unmap invalidates the slice returned by Map.
func (m *Allocation) Unmap() {
	if m.mapped {
		vk.UnmapMemory(m.allocator.device, m.memory)
		m.mapped = false
	}
}

// Free unmaps and frees the memory. Freeing twice has no effect.
func (m *Allocation) Free() {
	if m.freed {
		return
	}
	m.Unmap()
	vk.FreeMemory(m.allocator.device, m.memory, nil)
	m.freed = true
	m.allocator.live--
	m.allocator.bytes -= uint64(m.size)
}

type sliceHeader struct {
	Data uintptr
	Len  int
	Cap  int
}
